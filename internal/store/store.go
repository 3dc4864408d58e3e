// Package store defines the backend the board persists through. Two
// implementations exist: a direct Postgres store and a client for the hosted
// CRUD proxy. Both expose the same generic upsert-by-key mutation the rest of
// the system is written against.
package store

import (
	"context"
	"time"

	"waitboard/internal/models"
)

// Table identifiers understood by both backends.
const (
	TableBookings = "booking_list"
	TableChats    = "chat_history"
)

// ChangeSignal is the content of the polled change-notification resource.
// SessionID identifies the mutating client so receivers can ignore their own
// echoes; UpdatedAt is monotonic so duplicate deliveries can be dropped.
type ChangeSignal struct {
	SessionID string    `json:"session_id"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Backend is the external persistence surface. FetchEntries and FetchChats
// return the full replacement set for the day; there is no incremental diff
// protocol.
type Backend interface {
	FetchEntries(ctx context.Context, day string) ([]models.WaitlistEntry, error)
	FetchChats(ctx context.Context, day string) ([]models.ChatEntry, error)
	FetchQuestions(ctx context.Context) ([]models.QuestionDefinition, error)
	FetchAnswers(ctx context.Context) ([]models.AnswerDefinition, error)

	// Upsert writes records to the named table. When keyCols are supplied
	// and a matching row exists it updates, otherwise it inserts. A false
	// return without error means the backend rejected the write; callers
	// must abort their transition.
	Upsert(ctx context.Context, table string, records []map[string]any, keyCols []string) (bool, error)

	// PollChange reads the shared change-notification resource.
	PollChange(ctx context.Context) (ChangeSignal, error)
	// TouchChange stamps the resource with this session's identity so
	// other clients refresh.
	TouchChange(ctx context.Context, sessionID string) error
}
