package board

import (
	"testing"
	"time"
)

func TestGestureFromPath(t *testing.T) {
	tests := []struct {
		name string
		xs   []float64
		ys   []float64
		want float64
	}{
		{name: "empty path", xs: nil, ys: nil, want: 0},
		{name: "mismatched samples", xs: []float64{0, 1}, ys: []float64{0}, want: 0},
		{name: "stationary", xs: []float64{10, 10, 10}, ys: []float64{20, 20, 20}, want: 0},
		{name: "drift and return", xs: []float64{0, 3, 0}, ys: []float64{0, 4, 0}, want: 5},
		{name: "steady drift", xs: []float64{0, 0, 0}, ys: []float64{0, 6, 12}, want: 12},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			g := GestureFromPath(time.Second, tc.xs, tc.ys)
			if g.Movement != tc.want {
				t.Fatalf("movement %v, want %v", g.Movement, tc.want)
			}
			if g.Held != time.Second {
				t.Fatalf("held %v, want 1s", g.Held)
			}
		})
	}
}

func TestConfirmLongPress(t *testing.T) {
	b, _, _ := newTestBoard(t, nil)

	tests := []struct {
		name string
		g    Gesture
		want bool
	}{
		{name: "held steady", g: Gesture{Held: 600 * time.Millisecond, Movement: 2}, want: true},
		{name: "exact threshold", g: Gesture{Held: 500 * time.Millisecond, Movement: 10}, want: true},
		{name: "too short", g: Gesture{Held: 200 * time.Millisecond}, want: false},
		{name: "dragged away", g: Gesture{Held: time.Second, Movement: 11}, want: false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := b.confirmLongPress(tc.g); got != tc.want {
				t.Fatalf("confirm=%v, want %v", got, tc.want)
			}
		})
	}
}
