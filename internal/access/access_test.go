package access

import (
	"context"
	"testing"

	"github.com/ilyasmaxutov/towel-tracker/internal/domain"
)

// fakeStore is an in-memory MembershipStore.
type fakeStore struct {
	members []domain.Membership
}

func (f *fakeStore) GroupsFor(_ context.Context, actorID int64) ([]string, error) {
	var res []string
	for _, m := range f.members {
		if m.ActorID == actorID {
			res = append(res, m.GroupID)
		}
	}
	return res, nil
}

func (f *fakeStore) AddMembership(_ context.Context, m domain.Membership) error {
	f.members = append(f.members, m)
	return nil
}

func TestResolveGroups_ExistingMemberships(t *testing.T) {
	fs := &fakeStore{members: []domain.Membership{
		{GroupID: "tg:555", ActorID: 555},
		{GroupID: "flat-7", ActorID: 555},
	}}
	r := NewResolver(fs)

	groups, err := r.ResolveGroups(context.Background(), 555, false)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(groups) != 2 {
		t.Fatalf("want 2 groups, got %v", groups)
	}
}

func TestResolveGroups_EnsureDefaultPersists(t *testing.T) {
	fs := &fakeStore{}
	r := NewResolver(fs)
	ctx := context.Background()

	groups, err := r.ResolveGroups(ctx, 42, true)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(groups) != 1 || groups[0] != "tg:42" {
		t.Fatalf("want [tg:42], got %v", groups)
	}
	if len(fs.members) != 1 {
		t.Fatalf("self-group not persisted: %v", fs.members)
	}

	// second resolve finds the stored membership, does not duplicate
	if _, err := r.ResolveGroups(ctx, 42, true); err != nil {
		t.Fatalf("second resolve: %v", err)
	}
	if len(fs.members) != 1 {
		t.Fatalf("membership duplicated: %v", fs.members)
	}
}

func TestResolveGroups_NoEnsureIsTransient(t *testing.T) {
	fs := &fakeStore{}
	r := NewResolver(fs)

	groups, err := r.ResolveGroups(context.Background(), 42, false)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(groups) != 1 || groups[0] != "tg:42" {
		t.Fatalf("want transient [tg:42], got %v", groups)
	}
	if len(fs.members) != 0 {
		t.Fatalf("membership must not be persisted: %v", fs.members)
	}
}

func TestHasAccess(t *testing.T) {
	slot := domain.Slot{ID: "s1", GroupID: "tg:555"}

	cases := []struct {
		name    string
		actorID int64
		groups  []string
		want    bool
	}{
		{"owner via self group", 555, []string{"tg:555"}, true},
		{"roommate sharing group", 556, []string{"tg:555"}, true},
		{"unrelated actor", 777, []string{"tg:777"}, false},
		{"system context", 0, nil, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := HasAccess(slot, c.actorID, c.groups); got != c.want {
				t.Fatalf("want %v, got %v", c.want, got)
			}
		})
	}
}

func TestHasAccess_LegacyNumericGroup(t *testing.T) {
	legacy := domain.Slot{ID: "s2", GroupID: "555"}
	if !HasAccess(legacy, 555, []string{"tg:555"}) {
		t.Fatal("legacy numeric group must match its actor")
	}
	if HasAccess(legacy, 777, []string{"tg:777"}) {
		t.Fatal("legacy numeric group must not match other actors")
	}
}
