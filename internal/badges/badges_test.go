package badges

import (
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "badges.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestDismissalScopedToLabel(t *testing.T) {
	s := openTestStore(t)

	hidden, err := s.Hidden("2026-03-14", 1, "Q: Any allergies?")
	if err != nil {
		t.Fatalf("hidden: %v", err)
	}
	if hidden {
		t.Fatal("badge hidden before any dismissal")
	}

	if err := s.Dismiss("2026-03-14", 1, "Q: Any allergies?"); err != nil {
		t.Fatalf("dismiss: %v", err)
	}

	hidden, _ = s.Hidden("2026-03-14", 1, "Q: Any allergies?")
	if !hidden {
		t.Fatal("badge still shown after dismissal")
	}

	// A newer chat line resurfaces the badge.
	hidden, _ = s.Hidden("2026-03-14", 1, "A: No")
	if hidden {
		t.Fatal("newer message hidden by stale dismissal")
	}

	// Other days are unaffected.
	hidden, _ = s.Hidden("2026-03-15", 1, "Q: Any allergies?")
	if hidden {
		t.Fatal("dismissal leaked across days")
	}
}

func TestPurgeDropsOldDays(t *testing.T) {
	s := openTestStore(t)

	s.Dismiss("2026-03-12", 1, "a")
	s.Dismiss("2026-03-13", 2, "b")
	s.Dismiss("2026-03-14", 3, "c")

	dropped, err := s.Purge("2026-03-14")
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if dropped != 2 {
		t.Fatalf("purged %d rows, want 2", dropped)
	}

	hidden, _ := s.Hidden("2026-03-14", 3, "c")
	if !hidden {
		t.Fatal("purge removed the current day's dismissal")
	}
}
