package tabular

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/ilyasmaxutov/towel-tracker/internal/domain"
	"github.com/ilyasmaxutov/towel-tracker/internal/store"
)

// Sheet names within the workbook.
const (
	sheetSlots       = "slots"
	sheetUsers       = "users"
	sheetMemberships = "memberships"
	sheetEvents      = "events"
)

// Sheets lists the sheet names a backing workbook must provide.
func Sheets() []string {
	return []string{sheetSlots, sheetUsers, sheetMemberships, sheetEvents}
}

// Store implements store.Repo on top of a row-oriented Workbook.
type Store struct {
	wb  Workbook
	log *zap.Logger
}

// NewStore wraps a workbook. The logger records rows that fail to decode;
// such rows are skipped on list reads, never silently coerced.
func NewStore(wb Workbook, log *zap.Logger) *Store {
	return &Store{wb: wb, log: log}
}

// Close is a no-op; the workbook owns any remote connection.
func (s *Store) Close() error { return nil }

// --- row codecs ---

func encodeSlot(sl domain.Slot) []string {
	return []string{
		sl.ID,
		sl.Name,
		sl.GroupID,
		sl.Room,
		strconv.Itoa(domain.ClampThreshold(sl.ThresholdDays)),
		domain.FormatTime(sl.LastChangeAt),
		strconv.FormatInt(sl.CreatedAt.UTC().Unix(), 10),
	}
}

// decodeSlot validates column count and numeric fields once, producing a
// typed Slot or a positioned decode failure. Timestamps alone are parsed
// tolerantly: an unreadable last_change_at degrades to "just changed".
func decodeSlot(row []string, pos int) (domain.Slot, error) {
	if len(row) != 7 {
		return domain.Slot{}, fmt.Errorf("slots row %d: want 7 columns, got %d", pos, len(row))
	}
	if row[0] == "" {
		return domain.Slot{}, fmt.Errorf("slots row %d: empty id", pos)
	}
	threshold, err := strconv.Atoi(row[4])
	if err != nil {
		return domain.Slot{}, fmt.Errorf("slots row %d: threshold %q: %w", pos, row[4], err)
	}
	created, err := strconv.ParseInt(row[6], 10, 64)
	if err != nil {
		return domain.Slot{}, fmt.Errorf("slots row %d: created_at %q: %w", pos, row[6], err)
	}
	return domain.Slot{
		ID:            row[0],
		Name:          row[1],
		GroupID:       row[2],
		Room:          row[3],
		ThresholdDays: domain.ClampThreshold(threshold),
		LastChangeAt:  domain.ParseTime(row[5]),
		CreatedAt:     time.Unix(created, 0).UTC(),
	}, nil
}

func encodeUser(u domain.User) []string {
	last := ""
	if u.LastRemindedAt != nil {
		last = strconv.FormatInt(u.LastRemindedAt.UTC().Unix(), 10)
	}
	return []string{
		strconv.FormatInt(u.ActorID, 10),
		u.TZ,
		strconv.Itoa(u.NotifyHour),
		last,
		strconv.FormatInt(u.CreatedAt.UTC().Unix(), 10),
	}
}

func decodeUser(row []string, pos int) (domain.User, error) {
	if len(row) != 5 {
		return domain.User{}, fmt.Errorf("users row %d: want 5 columns, got %d", pos, len(row))
	}
	actorID, err := strconv.ParseInt(row[0], 10, 64)
	if err != nil {
		return domain.User{}, fmt.Errorf("users row %d: actor_id %q: %w", pos, row[0], err)
	}
	hour, err := strconv.Atoi(row[2])
	if err != nil {
		return domain.User{}, fmt.Errorf("users row %d: notify_hour %q: %w", pos, row[2], err)
	}
	created, err := strconv.ParseInt(row[4], 10, 64)
	if err != nil {
		return domain.User{}, fmt.Errorf("users row %d: created_at %q: %w", pos, row[4], err)
	}
	u := domain.User{
		ActorID:    actorID,
		TZ:         row[1],
		NotifyHour: hour,
		CreatedAt:  time.Unix(created, 0).UTC(),
	}
	if row[3] != "" {
		last, err := strconv.ParseInt(row[3], 10, 64)
		if err != nil {
			return domain.User{}, fmt.Errorf("users row %d: last_reminded_at %q: %w", pos, row[3], err)
		}
		t := time.Unix(last, 0).UTC()
		u.LastRemindedAt = &t
	}
	return u, nil
}

// --- Slots ---

// ListSlots reads the slots sheet, skipping (and logging) undecodable
// rows so the read path stays resilient.
func (s *Store) ListSlots(ctx context.Context) ([]domain.Slot, error) {
	rows, err := s.wb.ReadRows(ctx, sheetSlots)
	if err != nil {
		return nil, err
	}
	var res []domain.Slot
	for i, row := range rows {
		sl, err := decodeSlot(row, i+1)
		if err != nil {
			s.log.Warn("skipping undecodable slot row", zap.Error(err))
			continue
		}
		res = append(res, sl)
	}
	return res, nil
}

// findSlot locates a slot's row position (1-based) by id.
func (s *Store) findSlot(ctx context.Context, id string) (domain.Slot, int, error) {
	rows, err := s.wb.ReadRows(ctx, sheetSlots)
	if err != nil {
		return domain.Slot{}, 0, err
	}
	for i, row := range rows {
		if len(row) > 0 && row[0] == id {
			sl, err := decodeSlot(row, i+1)
			if err != nil {
				return domain.Slot{}, 0, err
			}
			return sl, i + 1, nil
		}
	}
	return domain.Slot{}, 0, store.ErrNotFound
}

// GetSlot returns a slot by id or store.ErrNotFound.
func (s *Store) GetSlot(ctx context.Context, id string) (domain.Slot, error) {
	sl, _, err := s.findSlot(ctx, id)
	return sl, err
}

// InsertSlot appends a new slot row.
func (s *Store) InsertSlot(ctx context.Context, sl domain.Slot) error {
	return s.wb.AppendRow(ctx, sheetSlots, encodeSlot(sl))
}

// UpdateSlot rewrites the slot's row in place, addressed by the position
// found during the same logical operation.
func (s *Store) UpdateSlot(ctx context.Context, sl domain.Slot) error {
	_, pos, err := s.findSlot(ctx, sl.ID)
	if err != nil {
		return err
	}
	return s.wb.UpdateRow(ctx, sheetSlots, pos, encodeSlot(sl))
}

// DeleteSlot removes the slot's row.
func (s *Store) DeleteSlot(ctx context.Context, id string) error {
	_, pos, err := s.findSlot(ctx, id)
	if err != nil {
		return err
	}
	return s.wb.DeleteRow(ctx, sheetSlots, pos)
}

// --- Users ---

func (s *Store) findUser(ctx context.Context, actorID int64) (domain.User, int, error) {
	rows, err := s.wb.ReadRows(ctx, sheetUsers)
	if err != nil {
		return domain.User{}, 0, err
	}
	key := strconv.FormatInt(actorID, 10)
	for i, row := range rows {
		if len(row) > 0 && row[0] == key {
			u, err := decodeUser(row, i+1)
			if err != nil {
				return domain.User{}, 0, err
			}
			return u, i + 1, nil
		}
	}
	return domain.User{}, 0, store.ErrNotFound
}

// GetUser returns a user by actor id or store.ErrNotFound.
func (s *Store) GetUser(ctx context.Context, actorID int64) (domain.User, error) {
	u, _, err := s.findUser(ctx, actorID)
	return u, err
}

// UpsertUser updates the user's row in place, appending it when absent.
func (s *Store) UpsertUser(ctx context.Context, u domain.User) error {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	_, pos, err := s.findUser(ctx, u.ActorID)
	if errors.Is(err, store.ErrNotFound) {
		return s.wb.AppendRow(ctx, sheetUsers, encodeUser(u))
	}
	if err != nil {
		return err
	}
	return s.wb.UpdateRow(ctx, sheetUsers, pos, encodeUser(u))
}

// ListUsers reads the users sheet, skipping undecodable rows.
func (s *Store) ListUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := s.wb.ReadRows(ctx, sheetUsers)
	if err != nil {
		return nil, err
	}
	var res []domain.User
	for i, row := range rows {
		u, err := decodeUser(row, i+1)
		if err != nil {
			s.log.Warn("skipping undecodable user row", zap.Error(err))
			continue
		}
		res = append(res, u)
	}
	return res, nil
}

// --- Memberships ---

// GroupsFor returns the group ids the actor belongs to.
func (s *Store) GroupsFor(ctx context.Context, actorID int64) ([]string, error) {
	rows, err := s.wb.ReadRows(ctx, sheetMemberships)
	if err != nil {
		return nil, err
	}
	key := strconv.FormatInt(actorID, 10)
	var res []string
	for _, row := range rows {
		if len(row) >= 2 && row[1] == key {
			res = append(res, row[0])
		}
	}
	return res, nil
}

// AddMembership appends a membership row unless it already exists.
func (s *Store) AddMembership(ctx context.Context, m domain.Membership) error {
	rows, err := s.wb.ReadRows(ctx, sheetMemberships)
	if err != nil {
		return err
	}
	key := strconv.FormatInt(m.ActorID, 10)
	for _, row := range rows {
		if len(row) >= 2 && row[0] == m.GroupID && row[1] == key {
			return nil
		}
	}
	return s.wb.AppendRow(ctx, sheetMemberships, []string{m.GroupID, key})
}

// --- Events ---

// AppendEvent writes one audit row. Append-only; never read back.
func (s *Store) AppendEvent(ctx context.Context, e domain.Event) error {
	at := e.At
	if at.IsZero() {
		at = time.Now()
	}
	return s.wb.AppendRow(ctx, sheetEvents, []string{
		domain.FormatTime(at),
		e.SlotID,
		e.Action,
		strconv.FormatInt(e.ActorID, 10),
		e.Note,
	})
}
