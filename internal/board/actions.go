package board

import (
	"context"
	"fmt"
	"log"
	"strings"

	"waitboard/internal/models"
	"waitboard/internal/store"
)

// Every action follows the same transactional shape: nothing is mutated
// optimistically. The new state is persisted first; a rejected or failed
// write aborts with the prior UI intact so the operator can retry. Only after
// the write lands does the handler mutate the in-memory entry, stamp the
// change-notification resource for other sessions, and reconcile.

// Ready marks the party's table as ready and sends them the configured
// "table ready" question. The action only fires on a confirmed long press.
func (b *Board) Ready(ctx context.Context, id int64, g Gesture) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	entry := b.findEntry(id)
	if entry == nil {
		log.Printf("ready ignored: entry %d not found", id)
		return nil
	}
	if !models.ValidTransition(ActionReady, entry.Status) {
		return store.ErrInvalidState
	}
	if entry.QuestionLevel >= models.ReadyQuestionLevel {
		return store.ErrInvalidState
	}
	if b.opts.SuppressWebMessaging && entry.Origin == models.OriginWeb {
		return store.ErrInvalidState
	}
	if !b.confirmLongPress(g) {
		b.toast = "Hold the Ready button to confirm"
		b.reconcile(reconcileRequest{scroll: scrollKeep})
		return store.ErrValidation
	}

	question := b.readyQuestion(*entry)

	ok, err := b.backend.Upsert(ctx, store.TableBookings, []map[string]any{{
		"id":             id,
		"status":         models.StatusReady,
		"question_level": models.ReadyQuestionLevel,
	}}, []string{"id"})
	if err != nil {
		return fmt.Errorf("persist ready: %w", err)
	}
	if !ok {
		return store.ErrWriteRejected
	}

	entry.Status = models.StatusReady
	entry.QuestionLevel = models.ReadyQuestionLevel
	b.appendChat(ctx, id, questionText(question))
	b.send(ctx, *entry, models.StripChatPrefix(questionText(question)))
	b.touchChange(ctx)

	b.reconcile(reconcileRequest{scroll: scrollKeep})
	return nil
}

// Ask toggles ask mode for the entry. Purely local: no persistence, no
// status change.
func (b *Board) Ask(id int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	entry := b.findEntry(id)
	if entry == nil {
		log.Printf("ask ignored: entry %d not found", id)
		return nil
	}
	if !models.ValidTransition(ActionAsk, entry.Status) {
		return store.ErrInvalidState
	}
	if b.ui.askMode[id] {
		b.exitAskMode(id)
		b.reconcile(reconcileRequest{scroll: scrollKeep})
		return nil
	}
	if len(b.eligibleFor(*entry)) == 0 {
		return store.ErrInvalidState
	}
	b.enterAskMode(id)
	return nil
}

// Arrive clears the entry as seated.
func (b *Board) Arrive(ctx context.Context, id int64) error {
	return b.clear(ctx, ActionArrive, id, models.StatusArrived)
}

// Cancel clears the entry as a no-show or withdrawal.
func (b *Board) Cancel(ctx context.Context, id int64) error {
	return b.clear(ctx, ActionCancel, id, models.StatusCancelled)
}

func (b *Board) clear(ctx context.Context, action string, id int64, status string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	entry := b.findEntry(id)
	if entry == nil {
		log.Printf("%s ignored: entry %d not found", action, id)
		return nil
	}
	if !models.ValidTransition(action, entry.Status) {
		return store.ErrInvalidState
	}

	clearedAt := b.now()
	ok, err := b.backend.Upsert(ctx, store.TableBookings, []map[string]any{{
		"id":         id,
		"status":     status,
		"cleared_at": clearedAt,
	}}, []string{"id"})
	if err != nil {
		return fmt.Errorf("persist %s: %w", action, err)
	}
	if !ok {
		return store.ErrWriteRejected
	}

	entry.Status = status
	entry.ClearedAt = &clearedAt
	b.exitAskMode(id)
	b.startCountdown(id)
	b.ui.highlightID = id
	b.touchChange(ctx)

	b.reconcile(reconcileRequest{scroll: scrollToEntry, entryID: id})
	return nil
}

// Undo restores a cleared entry to the queue: ready if the customer was
// already notified, waiting otherwise.
func (b *Board) Undo(ctx context.Context, id int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	entry := b.findEntry(id)
	if entry == nil {
		log.Printf("undo ignored: entry %d not found", id)
		return nil
	}
	if !models.ValidTransition(ActionUndo, entry.Status) {
		return store.ErrInvalidState
	}

	target := entry.UndoTarget()
	ok, err := b.backend.Upsert(ctx, store.TableBookings, []map[string]any{{
		"id":         id,
		"status":     target,
		"cleared_at": nil,
	}}, []string{"id"})
	if err != nil {
		return fmt.Errorf("persist undo: %w", err)
	}
	if !ok {
		return store.ErrWriteRejected
	}

	b.cancelCountdown(id)
	entry.Status = target
	entry.ClearedAt = nil
	if b.mode == ModeMobile {
		b.ui.expandedID = id
	} else {
		b.ui.selectedID = id
	}
	b.ui.highlightID = id
	b.touchChange(ctx)

	b.reconcile(reconcileRequest{scroll: scrollToBoundary})
	return nil
}

// Call returns the dial intent for the entry's phone number. Entries without
// one get a toast instead.
func (b *Board) Call(id int64) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	entry := b.findEntry(id)
	if entry == nil {
		log.Printf("call ignored: entry %d not found", id)
		return "", nil
	}
	if !models.ValidTransition(ActionCall, entry.Status) {
		return "", store.ErrInvalidState
	}
	if entry.Phone == "" {
		b.toast = "No phone number on file"
		b.reconcile(reconcileRequest{scroll: scrollKeep})
		return "", nil
	}
	return "tel:" + entry.Phone, nil
}

// AskQuestion sends one of the entry's eligible follow-up questions, logging
// it to the chat history and leaving ask mode.
func (b *Board) AskQuestion(ctx context.Context, id, questionID int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	entry := b.findEntry(id)
	if entry == nil {
		log.Printf("question ignored: entry %d not found", id)
		return nil
	}
	if !b.ui.askMode[id] {
		return store.ErrInvalidState
	}

	var question *models.QuestionDefinition
	for _, q := range b.eligibleFor(*entry) {
		if q.ID == questionID {
			question = &q
			break
		}
	}
	if question == nil {
		return store.ErrInvalidState
	}

	text := questionText(*question)
	if !b.persistChat(ctx, id, text, question.ID) {
		return store.ErrWriteRejected
	}

	if question.QuestionLevel >= models.ReadyQuestionLevel && question.QuestionLevel > entry.QuestionLevel {
		ok, err := b.backend.Upsert(ctx, store.TableBookings, []map[string]any{{
			"id":             id,
			"question_level": question.QuestionLevel,
		}}, []string{"id"})
		if err != nil {
			return fmt.Errorf("persist question level: %w", err)
		}
		if ok {
			entry.QuestionLevel = question.QuestionLevel
		}
	}

	b.addLocalChat(id, text, question.ID)
	b.send(ctx, *entry, models.StripChatPrefix(text))
	b.exitAskMode(id)
	if b.ui.selectedID == id {
		b.ui.selectedID = 0
	}
	if b.ui.expandedID == id {
		b.ui.expandedID = 0
	}
	b.touchChange(ctx)

	b.reconcile(reconcileRequest{scroll: scrollKeep})
	return nil
}

// SetPartySize adjusts the party size, bounded by the configured cap.
func (b *Board) SetPartySize(ctx context.Context, id int64, size int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	entry := b.findEntry(id)
	if entry == nil {
		log.Printf("party size ignored: entry %d not found", id)
		return nil
	}
	if size < 1 || size > b.opts.MaxPartySize {
		b.toast = fmt.Sprintf("Party size must be between 1 and %d", b.opts.MaxPartySize)
		b.reconcile(reconcileRequest{scroll: scrollKeep})
		return store.ErrValidation
	}

	ok, err := b.backend.Upsert(ctx, store.TableBookings, []map[string]any{{
		"id":         id,
		"party_size": size,
	}}, []string{"id"})
	if err != nil {
		return fmt.Errorf("persist party size: %w", err)
	}
	if !ok {
		return store.ErrWriteRejected
	}

	entry.PartySize = size
	b.touchChange(ctx)
	b.reconcile(reconcileRequest{scroll: scrollKeep})
	return nil
}

// readyQuestion picks the "table ready" catalogue question for the party,
// falling back to a plain notice when the venue has none configured.
func (b *Board) readyQuestion(e models.WaitlistEntry) models.QuestionDefinition {
	for _, q := range b.questions {
		if q.TriggerButton == models.TriggerReady && q.MatchesParty(e.PartySize) {
			return q
		}
	}
	return models.QuestionDefinition{
		QuestionText:  models.PrefixQuestion + " Your table is ready",
		QuestionLevel: models.ReadyQuestionLevel,
	}
}

func questionText(q models.QuestionDefinition) string {
	if strings.HasPrefix(q.QuestionText, models.PrefixQuestion) {
		return q.QuestionText
	}
	return models.PrefixQuestion + " " + q.QuestionText
}

// appendChat persists and locally records a chat line; persistence failures
// are logged, not fatal, because the primary write already landed.
func (b *Board) appendChat(ctx context.Context, bookingID int64, text string) {
	if !b.persistChat(ctx, bookingID, text, 0) {
		log.Printf("chat append failed: booking=%d", bookingID)
	}
	b.addLocalChat(bookingID, text, 0)
}

func (b *Board) persistChat(ctx context.Context, bookingID int64, text string, questionRefID int64) bool {
	record := map[string]any{
		"booking_list_id": bookingID,
		"timestamp":       b.now(),
		"text":            text,
	}
	if questionRefID != 0 {
		record["question_ref_id"] = questionRefID
	}
	ok, err := b.backend.Upsert(ctx, store.TableChats, []map[string]any{record}, nil)
	if err != nil {
		log.Printf("chat persist error: booking=%d err=%v", bookingID, err)
		return false
	}
	return ok
}

func (b *Board) addLocalChat(bookingID int64, text string, questionRefID int64) {
	b.chats[bookingID] = append(b.chats[bookingID], models.ChatEntry{
		ID:            b.now().UnixNano(),
		BookingID:     bookingID,
		Timestamp:     b.now(),
		Text:          text,
		QuestionRefID: questionRefID,
	})
}

// send delivers a message to the entry's subscriber, fire and forget.
func (b *Board) send(ctx context.Context, e models.WaitlistEntry, text string) {
	if b.messenger == nil || e.SubscriberID == "" {
		return
	}
	if b.opts.SuppressWebMessaging && e.Origin == models.OriginWeb {
		return
	}
	if err := b.messenger.SendText(ctx, e.SubscriberID, text); err != nil {
		log.Printf("messaging send error: booking=%d err=%v", e.ID, err)
	}
}

func (b *Board) touchChange(ctx context.Context) {
	if err := b.backend.TouchChange(ctx, b.opts.SessionID); err != nil {
		log.Printf("change notify error: %v", err)
	}
}
