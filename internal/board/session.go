package board

import "log"

// SelectRow toggles desktop selection for an entry. At most one row is
// selected at a time: picking a new row deselects the previous one, cancels
// that row's auto-hide countdown and drops it out of ask mode. Selecting a
// row reveals its full chat history and clears its "new message" badge.
func (b *Board) SelectRow(id int64) Frame {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.mode != ModeDesktop {
		return b.frame
	}
	return b.toggleOpenRow(&b.ui.selectedID, id)
}

// ExpandRow is the mobile counterpart of SelectRow: it toggles the expanded
// action row with the same exclusivity rules.
func (b *Board) ExpandRow(id int64) Frame {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.mode != ModeMobile {
		return b.frame
	}
	return b.toggleOpenRow(&b.ui.expandedID, id)
}

func (b *Board) toggleOpenRow(slot *int64, id int64) Frame {
	if *slot == id {
		*slot = 0
		return b.reconcile(reconcileRequest{scroll: scrollKeep})
	}

	if previous := *slot; previous != 0 {
		delete(b.ui.countdowns, previous)
		b.exitAskMode(previous)
	}

	*slot = id
	b.dismissBadge(id)
	return b.reconcile(reconcileRequest{scroll: scrollKeep})
}

// EnterAskMode switches an entry's row to its question buttons. Ask mode is
// exclusive: enabling it for one entry clears it everywhere else.
func (b *Board) EnterAskMode(id int64) Frame {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.enterAskMode(id)
}

func (b *Board) enterAskMode(id int64) Frame {
	for other := range b.ui.askMode {
		b.exitAskMode(other)
	}
	b.ui.askMode[id] = true
	b.ui.questionPage[id] = 0
	return b.reconcile(reconcileRequest{scroll: scrollKeep})
}

// ExitAskMode restores an entry's normal action buttons.
func (b *Board) ExitAskMode(id int64) Frame {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.exitAskMode(id)
	return b.reconcile(reconcileRequest{scroll: scrollKeep})
}

func (b *Board) exitAskMode(id int64) {
	delete(b.ui.askMode, id)
	delete(b.ui.questionPage, id)
}

// NextQuestionPage cycles an entry's question page, wrapping past the last
// page back to the first.
func (b *Board) NextQuestionPage(id int64) Frame {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.ui.askMode[id] {
		log.Printf("next page ignored: entry %d not in ask mode", id)
		return b.frame
	}
	pages := b.questionPages(id)
	b.ui.questionPage[id] = (b.ui.questionPage[id] + 1) % pages
	return b.reconcile(reconcileRequest{scroll: scrollKeep})
}

func (b *Board) questionPages(id int64) int {
	entry := b.findEntry(id)
	if entry == nil {
		return 1
	}
	eligible := len(b.eligibleFor(*entry))
	pages := (eligible + b.opts.QuestionsPerPage - 1) / b.opts.QuestionsPerPage
	if pages < 1 {
		pages = 1
	}
	return pages
}

func (b *Board) dismissBadge(id int64) {
	if b.badges == nil {
		return
	}
	chats := b.chats[id]
	if len(chats) == 0 {
		return
	}
	last := chats[len(chats)-1]
	if err := b.badges.Dismiss(b.opts.Day, id, last.Text); err != nil {
		log.Printf("badge dismiss error: booking=%d err=%v", id, err)
	}
}
