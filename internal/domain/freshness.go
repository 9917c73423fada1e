package domain

import "time"

// Status is the three-tier display state derived from a slot's score.
type Status string

const (
	StatusOK      Status = "OK"
	StatusWarn    Status = "WARN"
	StatusExpired Status = "EXPIRED"
)

// Freshness is the computed display state of a slot at a point in time.
type Freshness struct {
	AgeDays int     `json:"ageDays"`
	Score   float64 `json:"score"`
	Status  Status  `json:"status"`
}

// AgeDays returns whole days elapsed since lastChangeAt, never negative.
// A zero (unknown) or future timestamp counts as "just changed".
func AgeDays(lastChangeAt, now time.Time) int {
	if lastChangeAt.IsZero() || lastChangeAt.After(now) {
		return 0
	}
	return int(now.Sub(lastChangeAt) / (24 * time.Hour))
}

// Compute derives the freshness of a slot. Total function: bad inputs
// degrade (threshold clamped to 1, unknown timestamps treated as age 0)
// rather than fail.
//
//	load  = ageDays / thresholdDays
//	score = max(0, 100 - load*100)
//	OK >= 40 > WARN >= 20 > EXPIRED
func Compute(thresholdDays int, lastChangeAt, now time.Time) Freshness {
	if thresholdDays < 1 {
		thresholdDays = 1
	}
	age := AgeDays(lastChangeAt, now)
	load := float64(age) / float64(thresholdDays)
	score := 100 - load*100
	if score < 0 {
		score = 0
	}
	var st Status
	switch {
	case score >= 40:
		st = StatusOK
	case score >= 20:
		st = StatusWarn
	default:
		st = StatusExpired
	}
	return Freshness{AgeDays: age, Score: score, Status: st}
}

// Overdue is the binary reminder test: ageDays >= thresholdDays.
// Deliberately independent of the tiered Status — the two can disagree
// near boundaries and both behaviors are load-bearing.
func Overdue(thresholdDays int, lastChangeAt, now time.Time) bool {
	if thresholdDays < 1 {
		thresholdDays = 1
	}
	return AgeDays(lastChangeAt, now) >= thresholdDays
}
