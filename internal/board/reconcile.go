package board

import (
	"waitboard/internal/models"
	"waitboard/internal/view"
)

type scrollMode int

const (
	// scrollKeep restores the snapshotted offset (clamped to the rebuilt
	// range).
	scrollKeep scrollMode = iota
	// scrollToBoundary lands exactly on the Active Queue boundary.
	scrollToBoundary
	// scrollToEntry brings one entry's row into view.
	scrollToEntry
)

type reconcileRequest struct {
	scroll  scrollMode
	entryID int64
}

// reconcile rebuilds the whole frame from the entity store and interaction
// state. Callers hold b.mu. The steps mirror the documented contract:
// snapshot scroll, sort, render rows, size the spacer, reapply interaction
// state, restore (or redirect) scroll, and recompute the scroll-to-active
// control.
func (b *Board) reconcile(req reconcileRequest) Frame {
	snapshot := b.vp.scrollOffset
	now := b.now()

	sorted := view.SortEntries(b.entries)
	b.tearDownStale(sorted)

	frame := Frame{
		Mode:          b.mode,
		VisibleHeight: b.vp.visibleHeight,
		RenderedAt:    now,
		Rows:          make([]Row, 0, len(sorted)),
	}

	completedHeight := 0
	activeHeight := 0
	for _, e := range sorted {
		row := b.renderRow(e, now)
		frame.Rows = append(frame.Rows, row)
		if e.Completed() {
			completedHeight += row.Height
		} else {
			activeHeight += row.Height
		}
	}
	frame.CompletedHeight = completedHeight

	// The spacer makes the maximum scroll offset reach the completed-rows
	// height even when the active rows cannot fill the viewport. No
	// completed rows means nothing to scroll past, so no spacer.
	if completedHeight > 0 {
		frame.SpacerHeight = max(0, b.vp.visibleHeight-activeHeight)
	}
	frame.ScrollHeight = completedHeight + activeHeight + frame.SpacerHeight

	switch req.scroll {
	case scrollToBoundary:
		b.vp.scrollOffset = min(completedHeight, frame.MaxScroll())
	case scrollToEntry:
		b.scrollToReveal(&frame, req.entryID)
	default:
		b.vp.scrollOffset = clamp(snapshot, 0, frame.MaxScroll())
	}
	frame.ScrollOffset = b.vp.scrollOffset

	frame.ScrollToActiveEnabled = b.scrollToActiveEnabled(frame)

	frame.Toast = b.toast
	b.toast = ""
	frame.HighlightID = b.ui.highlightID
	b.ui.highlightID = 0

	b.frame = frame
	b.notify(frame)
	return frame
}

// tearDownStale drops interaction state and timers owned by entries that are
// no longer fetched. Every timer registration is paired with this teardown so
// a rebuild can never leave a tick targeting a removed row. Countdowns are
// also tied to the completed status: a refresh that reverts an entry to the
// queue (another session undid it) must cancel its auto-hide timer, or the
// expiry would scroll the operator for a row that is no longer leaving.
func (b *Board) tearDownStale(sorted []models.WaitlistEntry) {
	present := make(map[int64]bool, len(sorted))
	completed := make(map[int64]bool, len(sorted))
	for _, e := range sorted {
		present[e.ID] = true
		completed[e.ID] = e.Completed()
	}

	if b.ui.selectedID != 0 && !present[b.ui.selectedID] {
		b.ui.selectedID = 0
	}
	if b.ui.expandedID != 0 && !present[b.ui.expandedID] {
		b.ui.expandedID = 0
	}
	for id := range b.ui.askMode {
		if !present[id] {
			delete(b.ui.askMode, id)
			delete(b.ui.questionPage, id)
		}
	}
	for id := range b.ui.countdowns {
		if !completed[id] {
			delete(b.ui.countdowns, id)
		}
	}
}

func (b *Board) scrollToReveal(frame *Frame, entryID int64) {
	top := 0
	height := 0
	found := false
	for _, row := range frame.Rows {
		if row.EntryID == entryID {
			height = row.Height
			found = true
			break
		}
		top += row.Height
	}
	if !found {
		b.vp.scrollOffset = clamp(b.vp.scrollOffset, 0, frame.MaxScroll())
		return
	}

	offset := b.vp.scrollOffset
	if top < offset {
		offset = top
	} else if top+height > offset+b.vp.visibleHeight {
		offset = top + height - b.vp.visibleHeight
	}
	b.vp.scrollOffset = clamp(offset, 0, frame.MaxScroll())
}

// scrollToActiveEnabled evaluates the control's enablement: completed rows
// exist, the container is scrollable, the offset is not already at the
// boundary, and the one-shot post-load gate has opened.
func (b *Board) scrollToActiveEnabled(frame Frame) bool {
	if !b.vp.ready {
		return false
	}
	if frame.CompletedHeight == 0 {
		return false
	}
	if frame.MaxScroll() == 0 {
		return false
	}
	return abs(frame.ScrollOffset-frame.CompletedHeight) > b.opts.ScrollTolerance
}

// ScrollToActive closes any open row, recomputes the spacer, scrolls to the
// Active Queue boundary and disables the control. A manual invocation also
// cancels every running auto-hide countdown; the automatic one (fired when a
// countdown reaches zero) leaves other countdowns alone.
func (b *Board) ScrollToActive(automatic bool) Frame {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.scrollToActive(automatic)
}

func (b *Board) scrollToActive(automatic bool) Frame {
	if !automatic {
		b.cancelAllCountdowns()
	}
	b.ui.selectedID = 0
	b.ui.expandedID = 0
	b.vp.ready = true
	return b.reconcile(reconcileRequest{scroll: scrollToBoundary})
}

// SetViewport records the client viewport. Crossing the width cutoff switches
// the interaction mode; the previous mode's open row does not survive the
// switch.
func (b *Board) SetViewport(width, visibleHeight int) Frame {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.vp.width = width
	b.vp.visibleHeight = visibleHeight

	mode := ModeDesktop
	if width > 0 && width < b.opts.MobileWidthCutoff {
		mode = ModeMobile
	}
	if mode != b.mode {
		b.mode = mode
		b.ui.selectedID = 0
		b.ui.expandedID = 0
	}
	return b.reconcile(reconcileRequest{scroll: scrollKeep})
}

// SetScrollOffset records a user scroll. Only the control enablement needs
// refreshing, not the row set, but a full reconcile keeps the contract
// simple and is idempotent anyway.
func (b *Board) SetScrollOffset(offset int) Frame {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.vp.scrollOffset = offset
	return b.reconcile(reconcileRequest{scroll: scrollKeep})
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
