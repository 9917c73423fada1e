package store

import (
	"context"

	"github.com/ilyasmaxutov/towel-tracker/internal/domain"
)

// Repo defines storage operations for slots, users, group memberships and
// the audit event log.
type Repo interface {
	ListSlots(ctx context.Context) ([]domain.Slot, error)
	GetSlot(ctx context.Context, id string) (domain.Slot, error)
	InsertSlot(ctx context.Context, s domain.Slot) error
	UpdateSlot(ctx context.Context, s domain.Slot) error
	DeleteSlot(ctx context.Context, id string) error

	GetUser(ctx context.Context, actorID int64) (domain.User, error)
	UpsertUser(ctx context.Context, u domain.User) error
	ListUsers(ctx context.Context) ([]domain.User, error)

	GroupsFor(ctx context.Context, actorID int64) ([]string, error)
	AddMembership(ctx context.Context, m domain.Membership) error

	AppendEvent(ctx context.Context, e domain.Event) error

	Close() error
}
