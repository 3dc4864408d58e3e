// Package webproxy implements the waitboard backend against the hosted CRUD
// proxy. Every response carries a success flag; a falsy flag is a rejected
// write, not a transport error.
package webproxy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"waitboard/internal/models"
	"waitboard/internal/store"
)

type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

type fetchResponse struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Rows    json.RawMessage `json:"rows"`
}

type upsertRequest struct {
	Table   string           `json:"table"`
	Records []map[string]any `json:"records"`
	KeyCols []string         `json:"key_cols,omitempty"`
}

type upsertResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

type pollResponse struct {
	Success   bool      `json:"success"`
	SessionID string    `json:"session_id"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c *Client) FetchEntries(ctx context.Context, day string) ([]models.WaitlistEntry, error) {
	var entries []models.WaitlistEntry
	if err := c.fetch(ctx, store.TableBookings, day, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (c *Client) FetchChats(ctx context.Context, day string) ([]models.ChatEntry, error) {
	var chats []models.ChatEntry
	if err := c.fetch(ctx, store.TableChats, day, &chats); err != nil {
		return nil, err
	}
	return chats, nil
}

func (c *Client) FetchQuestions(ctx context.Context) ([]models.QuestionDefinition, error) {
	var questions []models.QuestionDefinition
	if err := c.fetch(ctx, "questions", "", &questions); err != nil {
		return nil, err
	}
	return questions, nil
}

func (c *Client) FetchAnswers(ctx context.Context) ([]models.AnswerDefinition, error) {
	var answers []models.AnswerDefinition
	if err := c.fetch(ctx, "answers", "", &answers); err != nil {
		return nil, err
	}
	return answers, nil
}

func (c *Client) fetch(ctx context.Context, table, day string, out any) error {
	endpoint := c.baseURL + "/api/rows?" + url.Values{"table": {table}, "day": {day}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("proxy fetch %s: %w", table, err)
	}
	defer resp.Body.Close()

	var body fetchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("proxy fetch %s: decode: %w", table, err)
	}
	if !body.Success {
		return fmt.Errorf("proxy fetch %s: %s", table, proxyError(body.Error))
	}
	if len(body.Rows) == 0 {
		return nil
	}
	return json.Unmarshal(body.Rows, out)
}

func (c *Client) Upsert(ctx context.Context, table string, records []map[string]any, keyCols []string) (bool, error) {
	payload, err := json.Marshal(upsertRequest{Table: table, Records: records, KeyCols: keyCols})
	if err != nil {
		return false, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/upsert", bytes.NewReader(payload))
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return false, fmt.Errorf("proxy upsert %s: %w", table, err)
	}
	defer resp.Body.Close()

	var body upsertResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return false, fmt.Errorf("proxy upsert %s: decode: %w", table, err)
	}
	return body.Success, nil
}

func (c *Client) PollChange(ctx context.Context) (store.ChangeSignal, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/board-updates", nil)
	if err != nil {
		return store.ChangeSignal{}, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return store.ChangeSignal{}, fmt.Errorf("proxy poll: %w", err)
	}
	defer resp.Body.Close()

	var body pollResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return store.ChangeSignal{}, fmt.Errorf("proxy poll: decode: %w", err)
	}
	if !body.Success {
		return store.ChangeSignal{}, fmt.Errorf("proxy poll: rejected")
	}
	return store.ChangeSignal{SessionID: body.SessionID, UpdatedAt: body.UpdatedAt}, nil
}

func (c *Client) TouchChange(ctx context.Context, sessionID string) error {
	ok, err := c.Upsert(ctx, "board_updates", []map[string]any{{
		"id":         1,
		"session_id": sessionID,
		"updated_at": time.Now().UTC(),
	}}, []string{"id"})
	if err != nil {
		return err
	}
	if !ok {
		return store.ErrWriteRejected
	}
	return nil
}

func proxyError(msg string) string {
	if msg == "" {
		return "rejected"
	}
	return msg
}
