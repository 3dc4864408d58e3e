package models

import "time"

type WaitlistEntry struct {
	ID                int64      `json:"id"`
	DisplayNumber     string     `json:"display_number"`
	CustomerName      string     `json:"customer_name"`
	PartySize         int        `json:"party_size"`
	CreatedAt         time.Time  `json:"created_at"`
	ScheduledDineTime time.Time  `json:"scheduled_dine_time"`
	ClearedAt         *time.Time `json:"cleared_at,omitempty"`
	Status            string     `json:"status"`
	QuestionLevel     int        `json:"question_level"`
	Origin            string     `json:"origin"`
	SubscriberID      string     `json:"subscriber_id,omitempty"`
	Phone             string     `json:"phone,omitempty"`
	Badges            []string   `json:"badges,omitempty"`
}

const (
	StatusWaiting   = "waiting"
	StatusReady     = "ready"
	StatusArrived   = "arrived"
	StatusCancelled = "cancelled"
)

const (
	OriginWeb   = "web"
	OriginStaff = "staff"
)

// ReadyQuestionLevel is the gate value signalling the customer has been
// notified their table is ready. Undo restores to ready (not waiting) once an
// entry has crossed it.
const ReadyQuestionLevel = 300

const MaxBadges = 3

// Completed reports whether the entry is in a terminal state. ClearedAt is
// non-nil iff Completed.
func (e WaitlistEntry) Completed() bool {
	return e.Status == StatusArrived || e.Status == StatusCancelled
}

// Active is the complement of Completed.
func (e WaitlistEntry) Active() bool {
	return !e.Completed()
}

// Due reports whether the entry's scheduled dine time has passed. Web
// pre-bookings carry a future ScheduledDineTime and are not yet due.
func (e WaitlistEntry) Due(now time.Time) bool {
	return !e.ScheduledDineTime.After(now)
}

// UndoTarget is the status an Undo restores: ready once the customer has
// already been notified, waiting otherwise.
func (e WaitlistEntry) UndoTarget() string {
	if e.QuestionLevel >= ReadyQuestionLevel {
		return StatusReady
	}
	return StatusWaiting
}
