package domain

import (
	"strconv"
	"time"
)

// Slot is a tracked towel-replacement point. The id is assigned once at
// creation and never changes; every mutation besides Refresh leaves
// LastChangeAt alone.
type Slot struct {
	ID            string
	Name          string
	GroupID       string // "tg:<chatID>" or a custom group key
	Room          string // free-text grouping label, may be empty
	ThresholdDays int    // replacement interval, always >= 1
	LastChangeAt  time.Time
	CreatedAt     time.Time
}

// User holds per-chat notification preferences. Created on first contact,
// never deleted.
type User struct {
	ActorID        int64
	TZ             string
	NotifyHour     int        // 0..23, local to TZ
	LastRemindedAt *time.Time // UTC, nullable
	CreatedAt      time.Time  // UTC
}

// Membership maps an actor into a group. Actors sharing a group share
// visibility over that group's slots.
type Membership struct {
	GroupID string
	ActorID int64
}

// Audit actions recorded per slot mutation.
const (
	ActionCreate  = "CREATE"
	ActionRefresh = "REFRESH"
	ActionUpdate  = "UPDATE"
	ActionDelete  = "DELETE"
)

// Event is an append-only audit record. Written on every slot mutation,
// never read back by the service itself.
type Event struct {
	At      time.Time
	SlotID  string
	Action  string
	ActorID int64 // 0 for system-initiated mutations
	Note    string
}

// SelfGroup returns the implicit personal group key for an actor.
func SelfGroup(actorID int64) string {
	return "tg:" + strconv.FormatInt(actorID, 10)
}
