// Package access decides which slots an actor may see or mutate. Actors
// sharing a group share its slots; an actor with no groups falls back to
// the implicit self-group.
package access

import (
	"context"
	"strconv"

	"github.com/ilyasmaxutov/towel-tracker/internal/domain"
)

// MembershipStore is the slice of storage the resolver needs.
type MembershipStore interface {
	GroupsFor(ctx context.Context, actorID int64) ([]string, error)
	AddMembership(ctx context.Context, m domain.Membership) error
}

// Resolver computes group memberships for actors.
type Resolver struct {
	store MembershipStore
}

func NewResolver(store MembershipStore) *Resolver {
	return &Resolver{store: store}
}

// ResolveGroups returns all groups the actor is a member of. When the
// actor has none, the self-group "tg:<actorId>" is returned; with
// ensureDefault it is also persisted, so first contact establishes a
// durable membership.
func (r *Resolver) ResolveGroups(ctx context.Context, actorID int64, ensureDefault bool) ([]string, error) {
	groups, err := r.store.GroupsFor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if len(groups) > 0 {
		return groups, nil
	}
	self := domain.SelfGroup(actorID)
	if ensureDefault {
		if err := r.store.AddMembership(ctx, domain.Membership{GroupID: self, ActorID: actorID}); err != nil {
			return nil, err
		}
	}
	return []string{self}, nil
}

// HasAccess reports whether the actor may act on the slot. actorID 0 means
// an unrestricted system context. Slots whose group column holds a bare
// numeric actor id (rows written before group support) match that actor
// directly.
func HasAccess(slot domain.Slot, actorID int64, groups []string) bool {
	if actorID == 0 {
		return true
	}
	for _, g := range groups {
		if g == slot.GroupID {
			return true
		}
	}
	if n, err := strconv.ParseInt(slot.GroupID, 10, 64); err == nil && n == actorID {
		return true
	}
	return false
}
