package models

import "testing"

func TestValidTransition(t *testing.T) {
	cases := []struct {
		action string
		from   string
		valid  bool
	}{
		{"ready", "waiting", true},
		{"ready", "ready", true},
		{"ready", "arrived", false},
		{"ask", "waiting", true},
		{"ask", "cancelled", false},
		{"arrive", "waiting", true},
		{"arrive", "ready", true},
		{"arrive", "arrived", false},
		{"cancel", "ready", true},
		{"cancel", "cancelled", false},
		{"undo", "arrived", true},
		{"undo", "cancelled", true},
		{"undo", "waiting", false},
		{"call", "waiting", true},
		{"call", "arrived", false},
		{"question", "ready", true},
		{"question", "arrived", false},
		{"unknown", "waiting", false},
	}

	for _, tt := range cases {
		if got := ValidTransition(tt.action, tt.from); got != tt.valid {
			t.Fatalf("ValidTransition(%q, %q)=%v, want %v", tt.action, tt.from, got, tt.valid)
		}
	}
}

func TestUndoTarget(t *testing.T) {
	entry := WaitlistEntry{QuestionLevel: 100}
	if got := entry.UndoTarget(); got != StatusWaiting {
		t.Fatalf("expected waiting, got %s", got)
	}
	entry.QuestionLevel = ReadyQuestionLevel
	if got := entry.UndoTarget(); got != StatusReady {
		t.Fatalf("expected ready, got %s", got)
	}
}

func TestStripChatPrefix(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Q: Do you need a high chair?", "Do you need a high chair?"},
		{"A: Yes", "Yes"},
		{"i: table ready sent", "table ready sent"},
		{"plain message", "plain message"},
	}
	for _, tt := range cases {
		if got := StripChatPrefix(tt.in); got != tt.want {
			t.Fatalf("StripChatPrefix(%q)=%q, want %q", tt.in, got, tt.want)
		}
	}
}
