// Package poll keeps the board in step with the shared backend. One poller
// per session watches the change-notification resource and refreshes the
// whole snapshot when another session wrote.
package poll

import (
	"context"
	"log"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"waitboard/internal/board"
	"waitboard/internal/store"
)

type Options struct {
	SessionID string
	Day       string
	Interval  time.Duration
	// Delay is the consolidation pause between noticing a change and
	// fetching, so bursts of writes land as one refresh.
	Delay time.Duration
}

type Poller struct {
	backend store.Backend
	board   *board.Board
	opts    Options

	group singleflight.Group
	sleep func(time.Duration)

	// lastProcessed is only touched by the Run goroutine; loaded is also
	// read on HTTP refresh goroutines and needs the atomic.
	lastProcessed time.Time
	loaded        atomic.Bool
}

func New(backend store.Backend, b *board.Board, opts Options) *Poller {
	if opts.Interval <= 0 {
		opts.Interval = 3 * time.Second
	}
	return &Poller{
		backend: backend,
		board:   b,
		opts:    opts,
		sleep:   time.Sleep,
	}
}

// Run loads the catalogue and first snapshot, then watches for changes until
// the context is cancelled.
func (p *Poller) Run(ctx context.Context) error {
	if err := p.loadCatalogue(ctx); err != nil {
		return err
	}
	if _, err := p.Refresh(ctx); err != nil {
		return err
	}

	ticker := time.NewTicker(p.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.step(ctx)
		}
	}
}

func (p *Poller) loadCatalogue(ctx context.Context) error {
	questions, err := p.backend.FetchQuestions(ctx)
	if err != nil {
		return err
	}
	answers, err := p.backend.FetchAnswers(ctx)
	if err != nil {
		return err
	}
	p.board.SetCatalogue(questions, answers)
	return nil
}

// step polls the change signal once. A signal stamped by this session is
// recorded but not acted on: the local state already reflects the write.
func (p *Poller) step(ctx context.Context) {
	signal, err := p.backend.PollChange(ctx)
	if err != nil {
		log.Printf("poll change error: %v", err)
		return
	}
	if signal.UpdatedAt.IsZero() || !signal.UpdatedAt.After(p.lastProcessed) {
		return
	}

	p.lastProcessed = signal.UpdatedAt
	if signal.SessionID == p.opts.SessionID {
		return
	}

	if p.opts.Delay > 0 {
		p.sleep(p.opts.Delay)
	}
	if _, err := p.Refresh(ctx); err != nil {
		log.Printf("refresh error: %v", err)
	}
}

// Refresh fetches the day's snapshot and replaces the board's entity store.
// Concurrent callers join the in-flight fetch instead of stacking requests.
// The first completed refresh triggers the automatic scroll to the Active
// Queue boundary.
func (p *Poller) Refresh(ctx context.Context) (board.Frame, error) {
	result, err, _ := p.group.Do("refresh", func() (any, error) {
		entries, err := p.backend.FetchEntries(ctx, p.opts.Day)
		if err != nil {
			return board.Frame{}, err
		}
		chats, err := p.backend.FetchChats(ctx, p.opts.Day)
		if err != nil {
			return board.Frame{}, err
		}

		frame := p.board.Replace(entries, chats)
		if p.loaded.CompareAndSwap(false, true) {
			frame = p.board.ScrollToActive(true)
		}
		return frame, nil
	})
	if err != nil {
		return board.Frame{}, err
	}
	return result.(board.Frame), nil
}
