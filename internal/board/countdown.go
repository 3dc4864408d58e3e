package board

// countdown is the auto-hide timer for a completed entry. The arena in
// uiState owns every countdown, indexed by entry id; teardown goes through
// the map so no tick can outlive its row.
type countdown struct {
	remaining int
}

func (b *Board) startCountdown(id int64) {
	b.ui.countdowns[id] = &countdown{remaining: b.opts.AutoHideSeconds}
}

func (b *Board) cancelCountdown(id int64) {
	delete(b.ui.countdowns, id)
}

func (b *Board) cancelAllCountdowns() {
	for id := range b.ui.countdowns {
		delete(b.ui.countdowns, id)
	}
}

// CountdownRemaining reports the seconds left on an entry's auto-hide
// countdown, zero when none is running.
func (b *Board) CountdownRemaining(id int64) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if cd, ok := b.ui.countdowns[id]; ok {
		return cd.remaining
	}
	return 0
}

// Tick advances all per-second state: auto-hide countdowns lose a second and
// elapsed-time labels are recomputed by the rebuild. A countdown reaching
// zero auto-triggers the scroll-to-active action, flagged automatic so it
// does not cancel other entries' countdowns.
func (b *Board) Tick() Frame {
	b.mu.Lock()
	defer b.mu.Unlock()

	expired := false
	for id, cd := range b.ui.countdowns {
		cd.remaining--
		if cd.remaining <= 0 {
			delete(b.ui.countdowns, id)
			expired = true
		}
	}

	if expired {
		return b.scrollToActive(true)
	}
	return b.reconcile(reconcileRequest{scroll: scrollKeep})
}
