package domain

import (
	"testing"
	"time"
)

// helper: a fixed "now" and a last-change that many whole days earlier
func daysAgo(now time.Time, d int) time.Time {
	return now.Add(-time.Duration(d) * 24 * time.Hour)
}

func TestCompute_ScoreBoundaries(t *testing.T) {
	now := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name      string
		threshold int
		ageDays   int
		wantScore float64
		wantSt    Status
	}{
		{"fresh", 10, 0, 100, StatusOK},
		{"exact ok boundary", 10, 6, 40, StatusOK},
		{"just below ok", 10, 7, 30, StatusWarn},
		{"exact warn boundary", 10, 8, 20, StatusWarn},
		{"below warn", 10, 9, 10, StatusExpired},
		{"at threshold", 10, 10, 0, StatusExpired},
		{"past threshold clamps to zero", 3, 4, 0, StatusExpired},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			f := Compute(c.threshold, daysAgo(now, c.ageDays), now)
			if f.AgeDays != c.ageDays {
				t.Fatalf("ageDays: want %d, got %d", c.ageDays, f.AgeDays)
			}
			if f.Score != c.wantScore {
				t.Fatalf("score: want %v, got %v", c.wantScore, f.Score)
			}
			if f.Status != c.wantSt {
				t.Fatalf("status: want %s, got %s", c.wantSt, f.Status)
			}
		})
	}
}

func TestCompute_DegradesOnBadInput(t *testing.T) {
	now := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)

	// unknown timestamp counts as just changed
	f := Compute(5, time.Time{}, now)
	if f.AgeDays != 0 || f.Score != 100 || f.Status != StatusOK {
		t.Fatalf("zero timestamp: got %+v", f)
	}

	// future timestamp likewise
	f = Compute(5, now.Add(48*time.Hour), now)
	if f.AgeDays != 0 || f.Score != 100 {
		t.Fatalf("future timestamp: got %+v", f)
	}

	// threshold below 1 is clamped, not an error
	f = Compute(0, daysAgo(now, 1), now)
	if f.Score != 0 || f.Status != StatusExpired {
		t.Fatalf("clamped threshold: got %+v", f)
	}
}

func TestCompute_PartialDaysFloor(t *testing.T) {
	now := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)
	// 23h59m elapsed is still age 0
	f := Compute(3, now.Add(-23*time.Hour-59*time.Minute), now)
	if f.AgeDays != 0 {
		t.Fatalf("want age 0, got %d", f.AgeDays)
	}
	// 25h elapsed is age 1
	f = Compute(3, now.Add(-25*time.Hour), now)
	if f.AgeDays != 1 {
		t.Fatalf("want age 1, got %d", f.AgeDays)
	}
}

func TestOverdue_DivergesFromStatus(t *testing.T) {
	now := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)

	// threshold 10, age 9: status already EXPIRED but not yet overdue
	last := daysAgo(now, 9)
	if f := Compute(10, last, now); f.Status != StatusExpired {
		t.Fatalf("expected EXPIRED, got %s", f.Status)
	}
	if Overdue(10, last, now) {
		t.Fatal("age 9 < threshold 10 must not be overdue")
	}

	// exactly at threshold: overdue
	if !Overdue(10, daysAgo(now, 10), now) {
		t.Fatal("age == threshold must be overdue")
	}
}

func TestOverdue_ClampsThreshold(t *testing.T) {
	now := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)
	if Overdue(0, now, now) {
		t.Fatal("fresh slot must not be overdue even with threshold 0")
	}
	if !Overdue(-3, daysAgo(now, 1), now) {
		t.Fatal("threshold clamps to 1; age 1 is overdue")
	}
}
