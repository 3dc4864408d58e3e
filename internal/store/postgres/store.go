// Package postgres implements the waitboard backend on a PostgreSQL pool.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"waitboard/internal/models"
	"waitboard/internal/store"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) FetchEntries(ctx context.Context, day string) ([]models.WaitlistEntry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, display_number, customer_name, party_size, created_at,
		       scheduled_dine_time, cleared_at, status, question_level,
		       origin, subscriber_id, phone
		FROM booking_list
		WHERE scheduled_dine_time::date = $1::date
		ORDER BY scheduled_dine_time ASC
	`, day)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.WaitlistEntry
	for rows.Next() {
		var entry models.WaitlistEntry
		var clearedAtNull sql.NullTime
		var subscriberNull sql.NullString
		var phoneNull sql.NullString
		if err := rows.Scan(&entry.ID, &entry.DisplayNumber, &entry.CustomerName, &entry.PartySize,
			&entry.CreatedAt, &entry.ScheduledDineTime, &clearedAtNull, &entry.Status,
			&entry.QuestionLevel, &entry.Origin, &subscriberNull, &phoneNull); err != nil {
			return nil, err
		}
		entry.ClearedAt = nullTimePtr(clearedAtNull)
		if subscriberNull.Valid {
			entry.SubscriberID = subscriberNull.String
		}
		if phoneNull.Valid {
			entry.Phone = phoneNull.String
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *Store) FetchChats(ctx context.Context, day string) ([]models.ChatEntry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT c.id, c.booking_list_id, c.timestamp, c.text, COALESCE(c.question_ref_id, 0)
		FROM chat_history c
		JOIN booking_list b ON b.id = c.booking_list_id
		WHERE b.scheduled_dine_time::date = $1::date
		ORDER BY c.timestamp ASC, c.id ASC
	`, day)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chats []models.ChatEntry
	for rows.Next() {
		var chat models.ChatEntry
		if err := rows.Scan(&chat.ID, &chat.BookingID, &chat.Timestamp, &chat.Text, &chat.QuestionRefID); err != nil {
			return nil, err
		}
		chats = append(chats, chat)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return chats, nil
}

func (s *Store) FetchQuestions(ctx context.Context) ([]models.QuestionDefinition, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, question_text, min_party_size, max_party_size,
		       required_question_level, min_question_level_gate,
		       trigger_button, COALESCE(answer_ids_csv, ''), question_level
		FROM questions
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []models.QuestionDefinition
	for rows.Next() {
		var q models.QuestionDefinition
		if err := rows.Scan(&q.ID, &q.QuestionText, &q.MinPartySize, &q.MaxPartySize,
			&q.RequiredLevel, &q.MinLevelGate, &q.TriggerButton, &q.AnswerIDsCsv, &q.QuestionLevel); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return questions, nil
}

func (s *Store) FetchAnswers(ctx context.Context) ([]models.AnswerDefinition, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, text, COALESCE(badge, ''), question_level
		FROM answers
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var answers []models.AnswerDefinition
	for rows.Next() {
		var a models.AnswerDefinition
		if err := rows.Scan(&a.ID, &a.Text, &a.Badge, &a.QuestionLevel); err != nil {
			return nil, err
		}
		answers = append(answers, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return answers, nil
}

// Upsert writes the records in one transaction. With key columns it becomes
// INSERT ... ON CONFLICT DO UPDATE on those columns; without them it is a
// plain insert. Returns false when any record touches no row.
func (s *Store) Upsert(ctx context.Context, table string, records []map[string]any, keyCols []string) (bool, error) {
	if len(records) == 0 {
		return true, nil
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return false, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	for _, record := range records {
		query, args := buildUpsert(table, record, keyCols)
		var tag pgconn.CommandTag
		tag, err = tx.Exec(ctx, query, args...)
		if err != nil {
			return false, fmt.Errorf("upsert %s: %w", table, err)
		}
		if tag.RowsAffected() == 0 {
			_ = tx.Rollback(ctx)
			return false, nil
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// PollChange reads the single-row change signal other sessions stamp after a
// successful write.
func (s *Store) PollChange(ctx context.Context) (store.ChangeSignal, error) {
	var signal store.ChangeSignal
	row := s.pool.QueryRow(ctx, `
		SELECT session_id, updated_at FROM board_updates WHERE id = 1
	`)
	if err := row.Scan(&signal.SessionID, &signal.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.ChangeSignal{}, nil
		}
		return store.ChangeSignal{}, err
	}
	return signal, nil
}

func (s *Store) TouchChange(ctx context.Context, sessionID string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO board_updates (id, session_id, updated_at)
		VALUES (1, $1, $2)
		ON CONFLICT (id) DO UPDATE SET session_id = EXCLUDED.session_id, updated_at = EXCLUDED.updated_at
	`, sessionID, time.Now().UTC())
	return err
}

// buildUpsert renders one record as a parameterized statement. Columns are
// sorted so the same record always produces the same SQL.
func buildUpsert(table string, record map[string]any, keyCols []string) (string, []any) {
	cols := make([]string, 0, len(record))
	for col := range record {
		cols = append(cols, col)
	}
	sort.Strings(cols)

	placeholders := make([]string, len(cols))
	args := make([]any, len(cols))
	for i, col := range cols {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = record[col]
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(cols, ", "), strings.Join(placeholders, ", "))

	if len(keyCols) > 0 {
		keys := make(map[string]bool, len(keyCols))
		for _, k := range keyCols {
			keys[k] = true
		}
		var updates []string
		for _, col := range cols {
			if !keys[col] {
				updates = append(updates, fmt.Sprintf("%s = EXCLUDED.%s", col, col))
			}
		}
		fmt.Fprintf(&sb, " ON CONFLICT (%s) DO UPDATE SET %s",
			strings.Join(keyCols, ", "), strings.Join(updates, ", "))
	}
	return sb.String(), args
}

func nullTimePtr(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}
