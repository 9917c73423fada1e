package domain

import (
	"testing"
	"time"
)

func TestParseThresholdDays(t *testing.T) {
	cases := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"3", 3, false},
		{"3d", 3, false},
		{"14 days", 14, false},
		{" 1 day ", 1, false},
		{"0", 1, false},  // clamped
		{"-5", 1, false}, // clamped
		{"", 0, true},
		{"soon", 0, true},
	}
	for _, c := range cases {
		got, err := ParseThresholdDays(c.in)
		if c.wantErr {
			if err == nil {
				t.Fatalf("%q: expected error", c.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%q: %v", c.in, err)
		}
		if got != c.want {
			t.Fatalf("%q: want %d, got %d", c.in, c.want, got)
		}
	}
}

func TestParseHour(t *testing.T) {
	for in, want := range map[string]int{"0": 0, "9": 9, "09": 9, "23": 23, "21:00": 21} {
		got, err := ParseHour(in)
		if err != nil || got != want {
			t.Fatalf("%q: want %d, got %d (%v)", in, want, got, err)
		}
	}
	for _, in := range []string{"", "24", "-1", "nine"} {
		if _, err := ParseHour(in); err == nil {
			t.Fatalf("%q: expected error", in)
		}
	}
}

func TestParseTime_TolerantLayouts(t *testing.T) {
	want := time.Date(2025, time.March, 2, 10, 30, 0, 0, time.UTC)
	for _, in := range []string{
		"2025-03-02T10:30:00Z",
		"2025-03-02T10:30:00",
		"2025-03-02 10:30:00",
	} {
		if got := ParseTime(in); !got.Equal(want) {
			t.Fatalf("%q: want %v, got %v", in, want, got)
		}
	}
	if got := ParseTime("2025-03-02"); got.IsZero() {
		t.Fatal("date-only layout should parse")
	}
	if got := ParseTime("not a timestamp"); !got.IsZero() {
		t.Fatalf("garbage should yield zero time, got %v", got)
	}
}

func TestFormatTimeRoundTrip(t *testing.T) {
	now := time.Date(2025, time.July, 4, 8, 15, 0, 0, time.UTC)
	if got := ParseTime(FormatTime(now)); !got.Equal(now) {
		t.Fatalf("round trip: want %v, got %v", now, got)
	}
}

func TestSelfGroup(t *testing.T) {
	if got := SelfGroup(555); got != "tg:555" {
		t.Fatalf("want tg:555, got %s", got)
	}
}

func TestNewSlotID_UniqueAndPrefixed(t *testing.T) {
	now := time.Unix(1700000000, 0)
	a := NewSlotID(now)
	b := NewSlotID(now)
	if a == b {
		t.Fatal("ids within one second must differ")
	}
	if len(a) < 10 {
		t.Fatalf("suspiciously short id: %q", a)
	}
}
