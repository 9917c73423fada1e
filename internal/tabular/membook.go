package tabular

import (
	"context"
	"fmt"
	"sync"
)

// MemBook is an in-memory Workbook used by tests and the dev store mode.
// It mirrors the remote collaborator's shape, including numeric sheet ids
// resolved through the IDCache.
type MemBook struct {
	mu     sync.RWMutex
	sheets map[string][][]string
	nextID int64
	rawIDs map[string]int64
	cache  IDCache
}

// NewMemBook creates a workbook with the given (empty) sheets.
func NewMemBook(sheets ...string) *MemBook {
	b := &MemBook{
		sheets: make(map[string][][]string),
		rawIDs: make(map[string]int64),
		nextID: 1,
	}
	for _, s := range sheets {
		b.sheets[s] = nil
		b.rawIDs[s] = b.nextID
		b.nextID++
	}
	return b
}

func (b *MemBook) rows(sheet string) ([][]string, error) {
	rows, ok := b.sheets[sheet]
	if !ok {
		return nil, fmt.Errorf("unknown sheet %q", sheet)
	}
	return rows, nil
}

// ReadRows returns a copy of the sheet's data rows.
func (b *MemBook) ReadRows(_ context.Context, sheet string) ([][]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	rows, err := b.rows(sheet)
	if err != nil {
		return nil, err
	}
	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = append([]string(nil), r...)
	}
	return out, nil
}

// AppendRow adds a row at the end of the sheet.
func (b *MemBook) AppendRow(_ context.Context, sheet string, row []string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	rows, err := b.rows(sheet)
	if err != nil {
		return err
	}
	b.sheets[sheet] = append(rows, append([]string(nil), row...))
	return nil
}

// UpdateRow overwrites the data row at pos (1-based).
func (b *MemBook) UpdateRow(_ context.Context, sheet string, pos int, row []string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	rows, err := b.rows(sheet)
	if err != nil {
		return err
	}
	if pos < 1 || pos > len(rows) {
		return fmt.Errorf("sheet %q: row %d out of range", sheet, pos)
	}
	rows[pos-1] = append([]string(nil), row...)
	return nil
}

// DeleteRow removes the data row at pos (1-based), shifting later rows up.
// The sheet is addressed by its numeric id as the remote API would, going
// through the memo cache.
func (b *MemBook) DeleteRow(_ context.Context, sheet string, pos int) error {
	if _, err := b.cache.Get(sheet, b.lookupID); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	rows, err := b.rows(sheet)
	if err != nil {
		return err
	}
	if pos < 1 || pos > len(rows) {
		return fmt.Errorf("sheet %q: row %d out of range", sheet, pos)
	}
	b.sheets[sheet] = append(rows[:pos-1], rows[pos:]...)
	return nil
}

func (b *MemBook) lookupID(sheet string) (int64, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	id, ok := b.rawIDs[sheet]
	if !ok {
		return 0, fmt.Errorf("unknown sheet %q", sheet)
	}
	return id, nil
}
