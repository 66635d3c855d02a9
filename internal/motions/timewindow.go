package motions

import (
	"fmt"
	"time"
)

// UrgentThreshold is the remaining time under which a countdown is flagged urgent.
const UrgentThreshold = 5 * time.Minute

// TimeWindow describes where a motion's voting window stands relative to now.
// At most one of Remaining and Overtime is non-zero; both are zero either
// before voting has started or at the exact end boundary.
type TimeWindow struct {
	EndsAt    *time.Time
	Remaining time.Duration
	Overtime  time.Duration
}

// Window derives the effective voting window from a motion's start timestamp,
// planned duration, and optional admin override. A nil startedAt means voting
// has not begun and yields a window with no end time.
func Window(startedAt *time.Time, durationMinutes int, override *time.Time, now time.Time) TimeWindow {
	if startedAt == nil {
		return TimeWindow{}
	}

	endsAt := startedAt.Add(time.Duration(durationMinutes) * time.Minute)
	if override != nil {
		endsAt = *override
	}

	window := TimeWindow{EndsAt: &endsAt}
	if diff := endsAt.Sub(now); diff > 0 {
		window.Remaining = diff
	} else {
		window.Overtime = -diff
	}
	return window
}

// Started reports whether the motion has an effective end time at all.
func (w TimeWindow) Started() bool {
	return w.EndsAt != nil
}

// Expired reports whether the voting window has closed.
func (w TimeWindow) Expired() bool {
	return w.EndsAt != nil && w.Remaining == 0
}

// Urgent reports whether voting is still open but closing within the threshold.
func (w TimeWindow) Urgent() bool {
	return w.Remaining > 0 && w.Remaining < UrgentThreshold
}

// FormatCountdown renders a duration as "{m}m {s}s", switching to "{h}h {m}m"
// once the magnitude reaches one hour. Seconds are always dropped at the hour
// scale; the same rule applies at every call site.
func FormatCountdown(d time.Duration) string {
	if d < 0 {
		d = -d
	}
	d = d.Truncate(time.Second)
	if d >= time.Hour {
		hours := int(d / time.Hour)
		minutes := int(d % time.Hour / time.Minute)
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	minutes := int(d / time.Minute)
	seconds := int(d % time.Minute / time.Second)
	return fmt.Sprintf("%dm %ds", minutes, seconds)
}
