package poll

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"waitboard/internal/board"
	"waitboard/internal/models"
	"waitboard/internal/store"
)

var baseTime = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

type fakeBackend struct {
	mu           sync.Mutex
	entries      []models.WaitlistEntry
	signal       store.ChangeSignal
	fetchCount   int32
	fetchGate    chan struct{}
	fetchStarted chan struct{}
}

func (f *fakeBackend) FetchEntries(ctx context.Context, day string) ([]models.WaitlistEntry, error) {
	atomic.AddInt32(&f.fetchCount, 1)
	if f.fetchStarted != nil {
		f.fetchStarted <- struct{}{}
	}
	if f.fetchGate != nil {
		<-f.fetchGate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.entries, nil
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
	return true, nil
}

func (f *fakeBackend) PollChange(ctx context.Context) (store.ChangeSignal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.signal, nil
}

func (f *fakeBackend) TouchChange(ctx context.Context, sessionID string) error {
	return nil
}

func (f *fakeBackend) setSignal(sessionID string, at time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signal = store.ChangeSignal{SessionID: sessionID, UpdatedAt: at}
}

func newTestPoller(backend *fakeBackend) (*Poller, *board.Board) {
	b := board.New(backend, nil, nil, board.Options{
		Day:       "2026-03-14",
		SessionID: "session-a",
		RowHeight: 64,
	})
	b.SetViewport(1024, 600)
	p := New(backend, b, Options{SessionID: "session-a", Day: "2026-03-14"})
	p.sleep = func(time.Duration) {}
	return p, b
}

func TestSelfEchoSuppressed(t *testing.T) {
	backend := &fakeBackend{}
	p, _ := newTestPoller(backend)

	backend.setSignal("session-a", baseTime)
	p.step(context.Background())

	if got := atomic.LoadInt32(&backend.fetchCount); got != 0 {
		t.Fatalf("own write triggered %d fetches, want 0", got)
	}

	// A later write by another session still refreshes.
	backend.setSignal("session-b", baseTime.Add(time.Second))
	p.step(context.Background())
	if got := atomic.LoadInt32(&backend.fetchCount); got != 1 {
		t.Fatalf("external write triggered %d fetches, want 1", got)
	}
}

func TestStaleSignalIgnored(t *testing.T) {
	backend := &fakeBackend{}
	p, _ := newTestPoller(backend)

	backend.setSignal("session-b", baseTime)
	p.step(context.Background())
	p.step(context.Background())
	p.step(context.Background())

	if got := atomic.LoadInt32(&backend.fetchCount); got != 1 {
		t.Fatalf("unchanged signal triggered %d fetches, want 1", got)
	}
}

func TestRefreshJoinsInFlight(t *testing.T) {
	backend := &fakeBackend{
		fetchGate:    make(chan struct{}),
		fetchStarted: make(chan struct{}, 1),
	}
	p, _ := newTestPoller(backend)

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := p.Refresh(context.Background()); err != nil {
				t.Errorf("refresh: %v", err)
			}
		}()
	}

	// Wait for the first fetch to start, give the second caller time to
	// join, then release.
	<-backend.fetchStarted
	time.Sleep(20 * time.Millisecond)
	close(backend.fetchGate)
	wg.Wait()

	if got := atomic.LoadInt32(&backend.fetchCount); got != 1 {
		t.Fatalf("%d fetches for two concurrent refreshes, want 1", got)
	}
}

func TestFirstRefreshScrollsToActive(t *testing.T) {
	cleared := baseTime.Add(-time.Minute)
	backend := &fakeBackend{
		entries: []models.WaitlistEntry{
			{ID: 1, Status: models.StatusArrived, ClearedAt: &cleared, ScheduledDineTime: baseTime},
			{ID: 2, Status: models.StatusWaiting, ScheduledDineTime: baseTime},
		},
	}
	p, _ := newTestPoller(backend)

	frame, err := p.Refresh(context.Background())
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if frame.ScrollOffset != min(frame.CompletedHeight, frame.MaxScroll()) {
		t.Fatalf("first load did not land on the boundary, offset %d", frame.ScrollOffset)
	}

	// Later refreshes keep the operator's scroll position.
	p.board.SetScrollOffset(0)
	frame, err = p.Refresh(context.Background())
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if frame.ScrollOffset != 0 {
		t.Fatalf("later refresh moved the scroll to %d", frame.ScrollOffset)
	}
}
