package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"waitboard/internal/board"
	"waitboard/internal/models"
	"waitboard/internal/store"
)

type fakeBackend struct {
	upsertOK bool
}

func (f *fakeBackend) FetchEntries(ctx context.Context, day string) ([]models.WaitlistEntry, error) {
	return nil, nil
}

func (f *fakeBackend) FetchChats(ctx context.Context, day string) ([]models.ChatEntry, error) {
	return nil, nil
}

func (f *fakeBackend) FetchQuestions(ctx context.Context) ([]models.QuestionDefinition, error) {
	return nil, nil
}

func (f *fakeBackend) FetchAnswers(ctx context.Context) ([]models.AnswerDefinition, error) {
	return nil, nil
}

func (f *fakeBackend) Upsert(ctx context.Context, table string, records []map[string]any, keyCols []string) (bool, error) {
	return f.upsertOK, nil
}

func (f *fakeBackend) PollChange(ctx context.Context) (store.ChangeSignal, error) {
	return store.ChangeSignal{}, nil
}

func (f *fakeBackend) TouchChange(ctx context.Context, sessionID string) error {
	return nil
}

type fakeRefresher struct {
	frame board.Frame
	err   error
	calls int
}

func (f *fakeRefresher) Refresh(ctx context.Context) (board.Frame, error) {
	f.calls++
	return f.frame, f.err
}

func newTestHandler(t *testing.T, entries []models.WaitlistEntry) (*Handler, *board.Board) {
	t.Helper()
	b := board.New(&fakeBackend{upsertOK: true}, nil, nil, board.Options{
		Day:           "2026-03-14",
		SessionID:     "session-a",
		RowHeight:          64,
		LongPressHold:      500 * time.Millisecond,
		LongPressTolerance: 10,
		MaxPartySize:       12,
	})
	b.SetViewport(1024, 600)
	b.Replace(entries, nil)
	return NewHandler(b, &fakeRefresher{}), b
}

func post(t *testing.T, h *Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	} else {
		buf.WriteString("{}")
	}
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)
	return rec
}

func waitingEntry(id int64) models.WaitlistEntry {
	return models.WaitlistEntry{
		ID:                id,
		DisplayNumber:     "A1",
		CustomerName:      "Guest",
		PartySize:         2,
		Status:            models.StatusWaiting,
		ScheduledDineTime: time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC),
	}
}

func TestHandleFrame(t *testing.T) {
	h, _ := newTestHandler(t, []models.WaitlistEntry{waitingEntry(1)})

	req := httptest.NewRequest(http.MethodGet, "/api/board/frame", nil)
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, want 200", rec.Code)
	}
	var frame board.Frame
	if err := json.Unmarshal(rec.Body.Bytes(), &frame); err != nil {
		t.Fatalf("decode frame: %v", err)
	}
	if len(frame.Rows) != 1 || frame.Rows[0].EntryID != 1 {
		t.Fatalf("unexpected frame %+v", frame)
	}
}

func TestReadyAction(t *testing.T) {
	h, b := newTestHandler(t, []models.WaitlistEntry{waitingEntry(1)})

	rec := post(t, h, "/api/entries/1/actions/ready", map[string]any{"held_ms": 600, "movement_px": 2})
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, want 200: %s", rec.Code, rec.Body.String())
	}

	frame := b.Frame()
	if frame.Rows[0].Status != models.StatusReady {
		t.Fatalf("status %q after ready, want ready", frame.Rows[0].Status)
	}
}

func TestReadyShortPressRejected(t *testing.T) {
	h, _ := newTestHandler(t, []models.WaitlistEntry{waitingEntry(1)})

	rec := post(t, h, "/api/entries/1/actions/ready", map[string]any{"held_ms": 100})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", rec.Code)
	}

	var body errorResponse
	json.Unmarshal(rec.Body.Bytes(), &body)
	if body.Error.Code != "invalid_request" {
		t.Fatalf("error code %q, want invalid_request", body.Error.Code)
	}
}

func TestInvalidStateConflict(t *testing.T) {
	h, _ := newTestHandler(t, []models.WaitlistEntry{waitingEntry(1)})

	if rec := post(t, h, "/api/entries/1/actions/arrive", nil); rec.Code != http.StatusOK {
		t.Fatalf("first arrive status %d, want 200", rec.Code)
	}
	rec := post(t, h, "/api/entries/1/actions/arrive", nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("second arrive status %d, want 409", rec.Code)
	}
}

func TestUnknownActionAndBadIDs(t *testing.T) {
	h, _ := newTestHandler(t, []models.WaitlistEntry{waitingEntry(1)})

	if rec := post(t, h, "/api/entries/1/actions/teleport", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown action status %d, want 404", rec.Code)
	}
	if rec := post(t, h, "/api/entries/abc/actions/arrive", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad id status %d, want 400", rec.Code)
	}
	if rec := post(t, h, "/api/entries/1/questions/zero", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad question id status %d, want 400", rec.Code)
	}
}

func TestMalformedPayload(t *testing.T) {
	h, _ := newTestHandler(t, []models.WaitlistEntry{waitingEntry(1)})

	req := httptest.NewRequest(http.MethodPost, "/api/board/viewport", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", rec.Code)
	}
}

func TestPartySizeAction(t *testing.T) {
	h, b := newTestHandler(t, []models.WaitlistEntry{waitingEntry(1)})
	b.SetViewport(1024, 600)

	rec := post(t, h, "/api/entries/1/actions/party-size", map[string]any{"party_size": 6})
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if got := b.Frame().Rows[0].PartySize; got != 6 {
		t.Fatalf("party size %d, want 6", got)
	}
}

func TestRefreshEndpoint(t *testing.T) {
	b := board.New(&fakeBackend{upsertOK: true}, nil, nil, board.Options{RowHeight: 64})
	refresher := &fakeRefresher{frame: board.Frame{VisibleHeight: 600}}
	h := NewHandler(b, refresher)

	rec := post(t, h, "/api/board/refresh", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, want 200", rec.Code)
	}
	if refresher.calls != 1 {
		t.Fatalf("refresher called %d times, want 1", refresher.calls)
	}
}

func TestRateLimiterBurst(t *testing.T) {
	limiter := NewRateLimiter(RateLimitConfig{IPPerMinute: 60, IPBurst: 2})
	handler := limiter.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	if codes[0] != http.StatusOK || codes[1] != http.StatusOK {
		t.Fatalf("burst requests rejected: %v", codes)
	}
	if codes[2] != http.StatusTooManyRequests {
		t.Fatalf("third request status %d, want 429", codes[2])
	}
}
