package repositories

import (
	"testing"
	"time"

	testutil "github.com/avalverde/butaca/internal/testing"
)

func TestHistoryRepository(t *testing.T) {
	t.Run("Record and Recent return newest first", func(t *testing.T) {
		repo := NewHistoryRepository(testutil.MustOpenDB(t))

		if err := repo.Record("a", "heat", 12); err != nil {
			t.Fatalf("failed to record: %v", err)
		}
		// distinct timestamps so the ordering is deterministic
		time.Sleep(5 * time.Millisecond)
		if err := repo.Record("b", "ran", 3); err != nil {
			t.Fatalf("failed to record: %v", err)
		}

		entries, err := repo.Recent(10)
		if err != nil {
			t.Fatalf("failed to list: %v", err)
		}
		if len(entries) != 2 {
			t.Fatalf("expected 2 entries, got %d", len(entries))
		}
		if entries[0].Query != "ran" || entries[1].Query != "heat" {
			t.Errorf("expected newest first, got %+v", entries)
		}
		if entries[0].Results != 3 {
			t.Errorf("expected result count 3, got %d", entries[0].Results)
		}
	})

	t.Run("Recent honors the limit and defaults it", func(t *testing.T) {
		repo := NewHistoryRepository(testutil.MustOpenDB(t))
		for i, q := range []string{"one", "two", "three"} {
			if err := repo.Record(string(rune('a'+i)), q, i); err != nil {
				t.Fatal(err)
			}
		}

		entries, err := repo.Recent(2)
		if err != nil {
			t.Fatal(err)
		}
		if len(entries) != 2 {
			t.Errorf("expected 2 entries, got %d", len(entries))
		}

		entries, err = repo.Recent(0)
		if err != nil {
			t.Fatal(err)
		}
		if len(entries) != 3 {
			t.Errorf("expected the default limit to include all 3, got %d", len(entries))
		}
	})

	t.Run("blank queries are not recorded", func(t *testing.T) {
		repo := NewHistoryRepository(testutil.MustOpenDB(t))

		if err := repo.Record("a", "   ", 5); err != nil {
			t.Fatalf("blank query must be a no-op, got %v", err)
		}
		entries, err := repo.Recent(10)
		if err != nil {
			t.Fatal(err)
		}
		if len(entries) != 0 {
			t.Errorf("expected no entries, got %d", len(entries))
		}
	})

	t.Run("Clear reports how many rows were removed", func(t *testing.T) {
		repo := NewHistoryRepository(testutil.MustOpenDB(t))
		repo.Record("a", "heat", 1)
		repo.Record("b", "ran", 2)

		removed, err := repo.Clear()
		if err != nil {
			t.Fatalf("failed to clear: %v", err)
		}
		if removed != 2 {
			t.Errorf("expected 2 removed, got %d", removed)
		}

		entries, _ := repo.Recent(10)
		if len(entries) != 0 {
			t.Error("expected an empty history after clear")
		}
	})
}
