package view

import (
	"fmt"
	"time"

	"waitboard/internal/models"
)

// TimeLabel renders the per-row time column for an entry at the given
// instant. Completed entries show how long the party waited before being
// cleared; active pre-bookings show a negative countdown until they are due;
// active due entries show a ticking elapsed clock.
func TimeLabel(e models.WaitlistEntry, now time.Time) string {
	if e.Completed() {
		cleared := now
		if e.ClearedAt != nil {
			cleared = *e.ClearedAt
		}
		return FormatCleared(cleared.Sub(e.ScheduledDineTime))
	}
	if !e.Due(now) {
		return FormatCountdown(e.ScheduledDineTime.Sub(now))
	}
	return FormatElapsed(now.Sub(e.ScheduledDineTime))
}

// FormatCleared picks the first non-zero unit: "H hr", "M min" or "S sec".
func FormatCleared(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	switch {
	case d >= time.Hour:
		return fmt.Sprintf("%d hr", int(d.Hours()))
	case d >= time.Minute:
		return fmt.Sprintf("%d min", int(d.Minutes()))
	default:
		return fmt.Sprintf("%d sec", int(d.Seconds()))
	}
}

// FormatCountdown renders the time remaining until a pre-booked entry is due
// as "-H h" or "-M min".
func FormatCountdown(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	if d >= time.Hour {
		return fmt.Sprintf("-%d h", int(d.Hours()))
	}
	return fmt.Sprintf("-%d min", int(d.Minutes()))
}

// FormatElapsed renders a running clock as "M:SS", switching to "H:MM:SS"
// past the hour.
func FormatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d.Seconds())
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60
	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%d:%02d", minutes, seconds)
}
