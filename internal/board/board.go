// Package board is the waitlist dashboard engine. A Board owns the
// authoritative in-memory entry list, the interaction state (selection,
// expansion, ask mode, countdowns) and the viewport, and rebuilds a full
// frame from them on every change. All entry points serialize on the Board
// mutex: the engine is single-writer, mirroring the event-loop model it
// replaces.
package board

import (
	"sync"
	"time"

	"waitboard/internal/messaging"
	"waitboard/internal/models"
	"waitboard/internal/store"
)

type Mode string

const (
	ModeDesktop Mode = "desktop"
	ModeMobile  Mode = "mobile"
)

// Options carries the product thresholds. Every numeric value here is policy,
// not mechanism; defaults live in config.
type Options struct {
	Day       string
	SessionID string

	RowHeight         int
	ExpandedRowHeight int
	ChatLineHeight    int
	MobileWidthCutoff int
	ScrollTolerance   int

	LongPressHold      time.Duration
	LongPressTolerance float64

	AutoHideSeconds      int
	QuestionsPerPage     int
	MaxPartySize         int
	SuppressWebMessaging bool
}

// BadgeStore persists which "new message" badges the operator has dismissed,
// scoped to a calendar day.
type BadgeStore interface {
	Hidden(day string, bookingID int64, label string) (bool, error)
	Dismiss(day string, bookingID int64, label string) error
}

type Board struct {
	mu   sync.Mutex
	opts Options

	backend   store.Backend
	messenger messaging.Messenger
	badges    BadgeStore

	now func() time.Time

	entries   []models.WaitlistEntry
	chats     map[int64][]models.ChatEntry
	questions []models.QuestionDefinition
	answers   map[int64]models.AnswerDefinition

	ui   uiState
	vp   viewport
	mode Mode

	frame     Frame
	listeners []func(Frame)

	toast string
}

type uiState struct {
	selectedID   int64
	expandedID   int64
	askMode      map[int64]bool
	questionPage map[int64]int
	countdowns   map[int64]*countdown
	highlightID  int64
}

type viewport struct {
	width         int
	visibleHeight int
	scrollOffset  int
	ready         bool
}

func New(backend store.Backend, messenger messaging.Messenger, badges BadgeStore, opts Options) *Board {
	if opts.QuestionsPerPage <= 0 {
		opts.QuestionsPerPage = 3
	}
	if opts.AutoHideSeconds <= 0 {
		opts.AutoHideSeconds = 10
	}
	if opts.RowHeight <= 0 {
		opts.RowHeight = 64
	}
	return &Board{
		opts:      opts,
		backend:   backend,
		messenger: messenger,
		badges:    badges,
		now:       time.Now,
		chats:     make(map[int64][]models.ChatEntry),
		answers:   make(map[int64]models.AnswerDefinition),
		ui: uiState{
			askMode:      make(map[int64]bool),
			questionPage: make(map[int64]int),
			countdowns:   make(map[int64]*countdown),
		},
		mode: ModeDesktop,
	}
}

// Subscribe registers a listener invoked with every rendered frame.
func (b *Board) Subscribe(fn func(Frame)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners = append(b.listeners, fn)
}

// SetCatalogue installs the static question/answer catalogue.
func (b *Board) SetCatalogue(questions []models.QuestionDefinition, answers []models.AnswerDefinition) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.questions = questions
	b.answers = make(map[int64]models.AnswerDefinition, len(answers))
	for _, a := range answers {
		b.answers[a.ID] = a
	}
}

// Replace swaps the entity store wholesale with a fresh server snapshot and
// reconciles. Interaction state referring to entries that stopped being
// fetched is torn down here, before the rebuild.
func (b *Board) Replace(entries []models.WaitlistEntry, chats []models.ChatEntry) Frame {
	b.mu.Lock()
	defer b.mu.Unlock()

	byBooking := make(map[int64][]models.ChatEntry)
	for _, c := range chats {
		byBooking[c.BookingID] = append(byBooking[c.BookingID], c)
	}

	b.entries = entries
	b.chats = byBooking
	b.applyAnswerEffects()

	return b.reconcile(reconcileRequest{scroll: scrollKeep})
}

// Frame returns the last rendered frame.
func (b *Board) Frame() Frame {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.frame
}

// Reconcile rebuilds the frame with no scroll request. Invoking it twice in a
// row with unchanged state yields an identical frame and no scroll jump.
func (b *Board) Reconcile() Frame {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.reconcile(reconcileRequest{scroll: scrollKeep})
}

func (b *Board) findEntry(id int64) *models.WaitlistEntry {
	for i := range b.entries {
		if b.entries[i].ID == id {
			return &b.entries[i]
		}
	}
	return nil
}

// applyAnswerEffects folds catalogue answers found in the chat history back
// into the local entries: answer badges fill the entry's badge slots and
// answer levels raise the entry's question level. The level is monotonic, so
// only increases apply.
func (b *Board) applyAnswerEffects() {
	answersByText := make(map[string]models.AnswerDefinition, len(b.answers))
	for _, a := range b.answers {
		answersByText[a.Text] = a
	}

	for i := range b.entries {
		e := &b.entries[i]
		for _, c := range b.chats[e.ID] {
			if !c.IsAnswer() {
				continue
			}
			ans, ok := answersByText[c.BareText()]
			if !ok {
				continue
			}
			if ans.QuestionLevel > e.QuestionLevel {
				e.QuestionLevel = ans.QuestionLevel
			}
			if ans.Badge != "" {
				e.Badges = mergeBadge(e.Badges, ans.Badge)
			}
		}
	}
}

func mergeBadge(badges []string, badge string) []string {
	for _, existing := range badges {
		if existing == badge {
			return badges
		}
	}
	if len(badges) >= models.MaxBadges {
		return badges
	}
	return append(badges, badge)
}

func (b *Board) notify(frame Frame) {
	for _, fn := range b.listeners {
		fn(frame)
	}
}
