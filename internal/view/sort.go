// Package view computes derived, render-ready facts from the raw entry list:
// display order, elapsed-time labels, and the follow-up questions an entry is
// still eligible for. Everything here is pure.
package view

import (
	"sort"
	"time"

	"waitboard/internal/models"
)

// SortEntries returns a new slice ordered for display: completed entries
// first (ascending by cleared time), then active entries (ascending by
// scheduled dine time). Ties keep input order.
func SortEntries(entries []models.WaitlistEntry) []models.WaitlistEntry {
	sorted := make([]models.WaitlistEntry, len(entries))
	copy(sorted, entries)

	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Completed() != b.Completed() {
			return a.Completed()
		}
		if a.Completed() {
			return clearedAt(a).Before(clearedAt(b))
		}
		return a.ScheduledDineTime.Before(b.ScheduledDineTime)
	})
	return sorted
}

func clearedAt(e models.WaitlistEntry) time.Time {
	if e.ClearedAt != nil {
		return *e.ClearedAt
	}
	return time.Time{}
}
