package motions

import (
	"testing"
	"time"
)

func TestWindowBeforeVotingStarts(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	window := Window(nil, 10, nil, now)
	if window.Started() {
		t.Fatalf("expected no end time before voting starts")
	}
	if window.Remaining != 0 || window.Overtime != 0 {
		t.Fatalf("expected zero remaining and overtime, got %v / %v", window.Remaining, window.Overtime)
	}
	if window.Expired() {
		t.Fatalf("a motion without a start must not report expired")
	}
}

func TestWindowAroundPlannedEnd(t *testing.T) {
	started := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name          string
		now           time.Time
		wantRemaining time.Duration
		wantOvertime  time.Duration
		wantUrgent    bool
		wantExpired   bool
	}{
		{
			name:          "one second before close",
			now:           started.Add(9*time.Minute + 59*time.Second),
			wantRemaining: time.Second,
			wantUrgent:    true,
		},
		{
			name:        "exact boundary",
			now:         started.Add(10 * time.Minute),
			wantExpired: true,
		},
		{
			name:         "one second of overtime",
			now:          started.Add(10*time.Minute + time.Second),
			wantOvertime: time.Second,
			wantExpired:  true,
		},
		{
			name:          "comfortably open",
			now:           started.Add(2 * time.Minute),
			wantRemaining: 8 * time.Minute,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			window := Window(&started, 10, nil, tc.now)
			if window.Remaining != tc.wantRemaining {
				t.Fatalf("remaining = %v, want %v", window.Remaining, tc.wantRemaining)
			}
			if window.Overtime != tc.wantOvertime {
				t.Fatalf("overtime = %v, want %v", window.Overtime, tc.wantOvertime)
			}
			if window.Urgent() != tc.wantUrgent {
				t.Fatalf("urgent = %v, want %v", window.Urgent(), tc.wantUrgent)
			}
			if window.Expired() != tc.wantExpired {
				t.Fatalf("expired = %v, want %v", window.Expired(), tc.wantExpired)
			}
			if window.Remaining > 0 && window.Overtime > 0 {
				t.Fatalf("remaining and overtime must never both be non-zero")
			}
		})
	}
}

func TestWindowOverrideSupersedesPlannedDuration(t *testing.T) {
	started := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	override := started.Add(30 * time.Minute)
	now := started.Add(15 * time.Minute)

	window := Window(&started, 10, &override, now)
	if !window.Started() {
		t.Fatalf("expected an end time")
	}
	if !window.EndsAt.Equal(override) {
		t.Fatalf("ends at = %v, want override %v", window.EndsAt, override)
	}
	if window.Remaining != 15*time.Minute {
		t.Fatalf("remaining = %v, want 15m", window.Remaining)
	}
	if window.Expired() {
		t.Fatalf("override extended the window; must not be expired")
	}
}

func TestFormatCountdown(t *testing.T) {
	tests := []struct {
		duration time.Duration
		want     string
	}{
		{duration: 9*time.Minute + 59*time.Second, want: "9m 59s"},
		{duration: 0, want: "0m 0s"},
		{duration: 45 * time.Second, want: "0m 45s"},
		{duration: 59*time.Minute + 59*time.Second, want: "59m 59s"},
		{duration: time.Hour, want: "1h 0m"},
		{duration: time.Hour + 30*time.Minute + 59*time.Second, want: "1h 30m"},
		{duration: -(2*time.Minute + 5*time.Second), want: "2m 5s"},
		{duration: 26 * time.Hour, want: "26h 0m"},
	}

	for _, tc := range tests {
		if got := FormatCountdown(tc.duration); got != tc.want {
			t.Fatalf("FormatCountdown(%v) = %q, want %q", tc.duration, got, tc.want)
		}
	}
}
