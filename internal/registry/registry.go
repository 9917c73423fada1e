// Package registry orchestrates slot CRUD: access checks before every
// mutation, freshness annotation on reads, and an audit event per write.
package registry

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ilyasmaxutov/towel-tracker/internal/access"
	"github.com/ilyasmaxutov/towel-tracker/internal/domain"
	"github.com/ilyasmaxutov/towel-tracker/internal/store"
)

var (
	// ErrForbidden: the actor resolved but has no group granting access.
	// Distinct from store.ErrNotFound by contract.
	ErrForbidden = errors.New("forbidden")
	// ErrValidation: a required field is missing or out of range.
	ErrValidation = errors.New("validation")
)

// SlotView is a slot annotated with its computed freshness, as surfaced
// to the boundary layers.
type SlotView struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	GroupID       string        `json:"group_id"`
	Room          string        `json:"room"`
	ThresholdDays int           `json:"threshold_days"`
	LastChangeAt  string        `json:"last_change_at"`
	AgeDays       int           `json:"ageDays"`
	Score         float64       `json:"score"`
	Status        domain.Status `json:"status"`
}

// Patch carries the optional fields of an Update; nil means "leave as is".
type Patch struct {
	Room          *string `json:"room,omitempty"`
	ThresholdDays *int    `json:"threshold_days,omitempty"`
}

// Service is the slot registry.
type Service struct {
	repo     store.Repo
	resolver *access.Resolver
	log      *zap.Logger
	now      func() time.Time
}

// New builds a Service over the given repository.
func New(repo store.Repo, log *zap.Logger) *Service {
	return &Service{
		repo:     repo,
		resolver: access.NewResolver(repo),
		log:      log,
		now:      time.Now,
	}
}

// NewAt is New with an injectable clock, for tests.
func NewAt(repo store.Repo, log *zap.Logger, now func() time.Time) *Service {
	s := New(repo, log)
	s.now = now
	return s
}

func view(sl domain.Slot, now time.Time) SlotView {
	f := domain.Compute(sl.ThresholdDays, sl.LastChangeAt, now)
	return SlotView{
		ID:            sl.ID,
		Name:          sl.Name,
		GroupID:       sl.GroupID,
		Room:          sl.Room,
		ThresholdDays: sl.ThresholdDays,
		LastChangeAt:  domain.FormatTime(sl.LastChangeAt),
		AgeDays:       f.AgeDays,
		Score:         f.Score,
		Status:        f.Status,
	}
}

// visible loads all slots and filters them by the actor's groups.
// actorID 0 is the privileged internal path and sees everything.
func (s *Service) visible(ctx context.Context, actorID int64) ([]domain.Slot, []string, error) {
	slots, err := s.repo.ListSlots(ctx)
	if err != nil {
		return nil, nil, err
	}
	if actorID == 0 {
		return slots, nil, nil
	}
	groups, err := s.resolver.ResolveGroups(ctx, actorID, false)
	if err != nil {
		return nil, nil, err
	}
	var out []domain.Slot
	for _, sl := range slots {
		if access.HasAccess(sl, actorID, groups) {
			out = append(out, sl)
		}
	}
	return out, groups, nil
}

// List returns the slots visible to the actor, annotated with freshness.
// The read path never fails on access: no visible slots means an empty
// list.
func (s *Service) List(ctx context.Context, actorID int64) ([]SlotView, error) {
	slots, _, err := s.visible(ctx, actorID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	views := make([]SlotView, 0, len(slots))
	for _, sl := range slots {
		views = append(views, view(sl, now))
	}
	return views, nil
}

// Overdue returns the actor's slots that are past their threshold by the
// binary reminder test (independent of the tiered display status).
func (s *Service) Overdue(ctx context.Context, actorID int64) ([]SlotView, error) {
	slots, _, err := s.visible(ctx, actorID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	var views []SlotView
	for _, sl := range slots {
		if domain.Overdue(sl.ThresholdDays, sl.LastChangeAt, now) {
			views = append(views, view(sl, now))
		}
	}
	return views, nil
}

// Create registers a new slot under the owner's primary group and stamps
// it as just changed.
func (s *Service) Create(ctx context.Context, name string, owner int64, room string, thresholdDays int) (SlotView, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return SlotView{}, ErrValidation
	}

	groups, err := s.resolver.ResolveGroups(ctx, owner, true)
	if err != nil {
		return SlotView{}, err
	}
	primary := domain.SelfGroup(owner)
	if !contains(groups, primary) {
		primary = groups[0]
	}

	now := s.now().UTC()
	sl := domain.Slot{
		ID:            domain.NewSlotID(now),
		Name:          name,
		GroupID:       primary,
		Room:          strings.TrimSpace(room),
		ThresholdDays: domain.ClampThreshold(thresholdDays),
		LastChangeAt:  now,
		CreatedAt:     now,
	}
	if err := s.repo.InsertSlot(ctx, sl); err != nil {
		return SlotView{}, err
	}
	s.audit(ctx, domain.Event{At: now, SlotID: sl.ID, Action: domain.ActionCreate, ActorID: owner, Note: sl.Name})
	return view(sl, now), nil
}

// Refresh stamps the slot as just changed. With a non-zero actor the
// access check runs first; a denial is ErrForbidden, never a silent no-op.
func (s *Service) Refresh(ctx context.Context, id string, actorID int64) error {
	sl, err := s.repo.GetSlot(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authorize(ctx, sl, actorID); err != nil {
		return err
	}
	now := s.now().UTC()
	sl.LastChangeAt = now
	if err := s.repo.UpdateSlot(ctx, sl); err != nil {
		return err
	}
	s.audit(ctx, domain.Event{At: now, SlotID: sl.ID, Action: domain.ActionRefresh, ActorID: actorID})
	return nil
}

// RefreshByRoom refreshes every slot visible to the actor whose room
// matches exactly. Returns the number of slots updated.
func (s *Service) RefreshByRoom(ctx context.Context, actorID int64, room string) (int, error) {
	slots, _, err := s.visible(ctx, actorID)
	if err != nil {
		return 0, err
	}
	now := s.now().UTC()
	updated := 0
	for _, sl := range slots {
		if sl.Room != room {
			continue
		}
		sl.LastChangeAt = now
		if err := s.repo.UpdateSlot(ctx, sl); err != nil {
			return updated, err
		}
		s.audit(ctx, domain.Event{At: now, SlotID: sl.ID, Action: domain.ActionRefresh, ActorID: actorID, Note: "room:" + room})
		updated++
	}
	return updated, nil
}

// Update patches room and/or threshold. Only fields present in the patch
// are touched; the threshold is clamped to >= 1 on write.
func (s *Service) Update(ctx context.Context, id string, p Patch, actorID int64) error {
	sl, err := s.repo.GetSlot(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authorize(ctx, sl, actorID); err != nil {
		return err
	}
	if p.Room == nil && p.ThresholdDays == nil {
		return ErrValidation
	}
	if p.Room != nil {
		sl.Room = strings.TrimSpace(*p.Room)
	}
	if p.ThresholdDays != nil {
		sl.ThresholdDays = domain.ClampThreshold(*p.ThresholdDays)
	}
	if err := s.repo.UpdateSlot(ctx, sl); err != nil {
		return err
	}
	note, _ := json.Marshal(p)
	s.audit(ctx, domain.Event{At: s.now().UTC(), SlotID: sl.ID, Action: domain.ActionUpdate, ActorID: actorID, Note: string(note)})
	return nil
}

// Delete removes the slot after the access check.
func (s *Service) Delete(ctx context.Context, id string, actorID int64) error {
	sl, err := s.repo.GetSlot(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authorize(ctx, sl, actorID); err != nil {
		return err
	}
	if err := s.repo.DeleteSlot(ctx, id); err != nil {
		return err
	}
	s.audit(ctx, domain.Event{At: s.now().UTC(), SlotID: sl.ID, Action: domain.ActionDelete, ActorID: actorID, Note: sl.Name})
	return nil
}

// authorize resolves the actor's groups and checks slot access. actorID 0
// (system context) always passes.
func (s *Service) authorize(ctx context.Context, sl domain.Slot, actorID int64) error {
	if actorID == 0 {
		return nil
	}
	groups, err := s.resolver.ResolveGroups(ctx, actorID, false)
	if err != nil {
		return err
	}
	if !access.HasAccess(sl, actorID, groups) {
		return ErrForbidden
	}
	return nil
}

// audit appends an event record. Best-effort: the mutation has already
// landed, so a failed append is logged rather than surfaced.
func (s *Service) audit(ctx context.Context, e domain.Event) {
	if err := s.repo.AppendEvent(ctx, e); err != nil {
		s.log.Error("audit event append failed",
			zap.String("slotID", e.SlotID),
			zap.String("action", e.Action),
			zap.Error(err),
		)
	}
}

func contains(xs []string, x string) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}
