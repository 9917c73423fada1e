package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/ilyasmaxutov/towel-tracker/internal/domain"
)

func openTestRepo(t *testing.T) *SQLiteRepo {
	t.Helper()
	repo, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestSQLite_SlotCRUD(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()
	now := time.Date(2025, time.May, 1, 10, 0, 0, 0, time.UTC)

	sl := domain.Slot{
		ID:            "a1",
		Name:          "Hand",
		GroupID:       "tg:1",
		Room:          "Bath",
		ThresholdDays: 3,
		LastChangeAt:  now,
		CreatedAt:     now,
	}
	if err := repo.InsertSlot(ctx, sl); err != nil {
		t.Fatalf("insert: %v", err)
	}

	got, err := repo.GetSlot(ctx, "a1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "Hand" || got.Room != "Bath" || got.ThresholdDays != 3 {
		t.Fatalf("unexpected slot: %+v", got)
	}
	if !got.LastChangeAt.Equal(now) {
		t.Fatalf("last change: want %v, got %v", now, got.LastChangeAt)
	}

	got.Room = "Sauna"
	got.ThresholdDays = 0 // clamped on write
	if err := repo.UpdateSlot(ctx, got); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err = repo.GetSlot(ctx, "a1")
	if err != nil {
		t.Fatalf("get after update: %v", err)
	}
	if got.Room != "Sauna" || got.ThresholdDays != 1 {
		t.Fatalf("update not applied: %+v", got)
	}

	if err := repo.DeleteSlot(ctx, "a1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.GetSlot(ctx, "a1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound after delete, got %v", err)
	}
	if err := repo.DeleteSlot(ctx, "a1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("double delete: want ErrNotFound, got %v", err)
	}
	if err := repo.UpdateSlot(ctx, sl); !errors.Is(err, ErrNotFound) {
		t.Fatalf("update missing: want ErrNotFound, got %v", err)
	}
}

func TestSQLite_ListSlotsOrdered(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()
	base := time.Date(2025, time.May, 1, 10, 0, 0, 0, time.UTC)

	for i, id := range []string{"a1", "a2", "a3"} {
		sl := domain.Slot{
			ID: id, Name: id, GroupID: "tg:1", ThresholdDays: 3,
			LastChangeAt: base, CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := repo.InsertSlot(ctx, sl); err != nil {
			t.Fatalf("insert %s: %v", id, err)
		}
	}

	slots, err := repo.ListSlots(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(slots) != 3 || slots[0].ID != "a1" || slots[2].ID != "a3" {
		t.Fatalf("unexpected order: %+v", slots)
	}
}

func TestSQLite_UserUpsert(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	if _, err := repo.GetUser(ctx, 42); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}

	u := domain.User{ActorID: 42, TZ: "Europe/Tallinn", NotifyHour: 9, CreatedAt: time.Unix(1700000000, 0)}
	if err := repo.UpsertUser(ctx, u); err != nil {
		t.Fatalf("insert user: %v", err)
	}

	last := time.Unix(1700100000, 0).UTC()
	u.NotifyHour = 21
	u.LastRemindedAt = &last
	if err := repo.UpsertUser(ctx, u); err != nil {
		t.Fatalf("update user: %v", err)
	}

	got, err := repo.GetUser(ctx, 42)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if got.NotifyHour != 21 || got.LastRemindedAt == nil || !got.LastRemindedAt.Equal(last) {
		t.Fatalf("unexpected user: %+v", got)
	}

	users, err := repo.ListUsers(ctx)
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	if len(users) != 1 {
		t.Fatalf("upsert duplicated the row: %+v", users)
	}
}

func TestSQLite_Memberships(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	m := domain.Membership{GroupID: "tg:555", ActorID: 556}
	if err := repo.AddMembership(ctx, m); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := repo.AddMembership(ctx, m); err != nil {
		t.Fatalf("re-add must be a no-op: %v", err)
	}

	groups, err := repo.GroupsFor(ctx, 556)
	if err != nil {
		t.Fatalf("groups: %v", err)
	}
	if len(groups) != 1 || groups[0] != "tg:555" {
		t.Fatalf("unexpected groups: %v", groups)
	}
}

func TestSQLite_AppendEvent(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	e := domain.Event{
		At:      time.Unix(1700000000, 0),
		SlotID:  "a1",
		Action:  domain.ActionUpdate,
		ActorID: 42,
		Note:    `{"threshold_days":5}`,
	}
	if err := repo.AppendEvent(ctx, e); err != nil {
		t.Fatalf("append: %v", err)
	}
	// zero timestamp defaults to now instead of failing
	if err := repo.AppendEvent(ctx, domain.Event{SlotID: "a1", Action: domain.ActionDelete}); err != nil {
		t.Fatalf("append with zero time: %v", err)
	}
}
