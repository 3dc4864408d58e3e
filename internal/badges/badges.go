// Package badges persists "new message" badge dismissals in a local SQLite
// file. Dismissals are scoped to the calendar day and the exact chat line,
// so a newer message for the same booking shows the badge again.
package badges

import (
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS dismissed_badges (
	day        TEXT    NOT NULL,
	booking_id INTEGER NOT NULL,
	label      TEXT    NOT NULL,
	PRIMARY KEY (day, booking_id)
);
`

type Store struct {
	db *sql.DB
}

func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?_busy_timeout=5000", path))
	if err != nil {
		return nil, fmt.Errorf("open badge db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init badge db: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Hidden reports whether the badge for the booking's latest chat line was
// already dismissed today.
func (s *Store) Hidden(day string, bookingID int64, label string) (bool, error) {
	var stored string
	err := s.db.QueryRow(`
		SELECT label FROM dismissed_badges WHERE day = ? AND booking_id = ?
	`, day, bookingID).Scan(&stored)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return stored == label, nil
}

// Dismiss records that the operator opened the booking's row while this chat
// line was the latest one.
func (s *Store) Dismiss(day string, bookingID int64, label string) error {
	_, err := s.db.Exec(`
		INSERT INTO dismissed_badges (day, booking_id, label) VALUES (?, ?, ?)
		ON CONFLICT (day, booking_id) DO UPDATE SET label = excluded.label
	`, day, bookingID, label)
	return err
}

// Purge drops dismissals from days before the one given. Wired to run at
// midnight so the file does not grow without bound.
func (s *Store) Purge(before string) (int64, error) {
	res, err := s.db.Exec(`DELETE FROM dismissed_badges WHERE day < ?`, before)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
