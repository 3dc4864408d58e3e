package board

import (
	"math"
	"time"
)

// Gesture summarizes a press as reported by the client shell: how long the
// pointer was held and how far it drifted from the touch-down point.
type Gesture struct {
	Held     time.Duration `json:"held_ms"`
	Movement float64       `json:"movement_px"`
}

// GestureFromPath derives a Gesture from raw pointer samples, taking the
// largest drift from the first sample.
func GestureFromPath(held time.Duration, xs, ys []float64) Gesture {
	g := Gesture{Held: held}
	if len(xs) == 0 || len(xs) != len(ys) {
		return g
	}
	x0, y0 := xs[0], ys[0]
	for i := range xs {
		drift := math.Hypot(xs[i]-x0, ys[i]-y0)
		if drift > g.Movement {
			g.Movement = drift
		}
	}
	return g
}

// confirmLongPress applies the configured hold/drift thresholds. Ready is
// deliberate-action-only, so a short tap or a drag never passes.
func (b *Board) confirmLongPress(g Gesture) bool {
	if g.Held < b.opts.LongPressHold {
		return false
	}
	return g.Movement <= b.opts.LongPressTolerance
}
