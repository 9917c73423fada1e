// Package tabular adapts a row-oriented workbook (a remote spreadsheet or
// an in-memory stand-in) into the typed store.Repo contract. Row position
// within a sheet is the primary key for in-place updates; positions are
// assumed stable between a read and the write of the same logical
// operation.
package tabular

import (
	"context"
	"sync"
)

// Workbook is the minimal contract of the tabular storage collaborator.
// Data rows exclude the header; positions are 1-based.
type Workbook interface {
	ReadRows(ctx context.Context, sheet string) ([][]string, error)
	AppendRow(ctx context.Context, sheet string, row []string) error
	UpdateRow(ctx context.Context, sheet string, pos int, row []string) error
	DeleteRow(ctx context.Context, sheet string, pos int) error
}

// IDCache memoizes sheet-name → backend-object-id lookups for workbook
// adapters whose delete/update calls address sheets by numeric id. Purely
// an optimization: a miss falls through to fetch, and stale entries are
// safe to recompute.
type IDCache struct {
	mu  sync.Mutex
	ids map[string]int64
}

// Get returns the cached id for name, calling fetch on a miss.
func (c *IDCache) Get(name string, fetch func(string) (int64, error)) (int64, error) {
	c.mu.Lock()
	if id, ok := c.ids[name]; ok {
		c.mu.Unlock()
		return id, nil
	}
	c.mu.Unlock()

	id, err := fetch(name)
	if err != nil {
		return 0, err
	}

	c.mu.Lock()
	if c.ids == nil {
		c.ids = make(map[string]int64)
	}
	c.ids[name] = id
	c.mu.Unlock()
	return id, nil
}

// Forget drops a cached entry, e.g. after the backend reports an unknown
// sheet id.
func (c *IDCache) Forget(name string) {
	c.mu.Lock()
	delete(c.ids, name)
	c.mu.Unlock()
}
