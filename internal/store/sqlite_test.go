package store

import (
	"path/filepath"
	"testing"

	"github.com/amishk599/hiddenjobs/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func stores(t *testing.T) map[string]model.SavedStore {
	return map[string]model.SavedStore{
		"sqlite": newTestStore(t),
		"memory": NewMemoryStore(),
	}
}

func TestSetSavedThenIsSaved(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			if err := s.SetSaved("job-123", true); err != nil {
				t.Fatalf("SetSaved: %v", err)
			}

			saved, err := s.IsSaved("job-123")
			if err != nil {
				t.Fatalf("IsSaved: %v", err)
			}
			if !saved {
				t.Error("expected IsSaved to return true after SetSaved(true)")
			}
		})
	}
}

func TestIsSavedUnknownReturnsFalse(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			saved, err := s.IsSaved("does-not-exist")
			if err != nil {
				t.Fatalf("IsSaved: %v", err)
			}
			if saved {
				t.Error("expected IsSaved to return false for unknown job ID")
			}
		})
	}
}

func TestSetSavedIdempotent(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			for i := 0; i < 2; i++ {
				if err := s.SetSaved("job-456", true); err != nil {
					t.Fatalf("SetSaved #%d: %v", i+1, err)
				}
			}
			for i := 0; i < 2; i++ {
				if err := s.SetSaved("job-456", false); err != nil {
					t.Fatalf("unsave #%d: %v", i+1, err)
				}
			}

			saved, err := s.IsSaved("job-456")
			if err != nil {
				t.Fatalf("IsSaved: %v", err)
			}
			if saved {
				t.Error("expected job to be unsaved")
			}
		})
	}
}

func TestSavedIDs(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			for _, id := range []string{"a", "b", "c"} {
				if err := s.SetSaved(id, true); err != nil {
					t.Fatalf("SetSaved(%s): %v", id, err)
				}
			}
			if err := s.SetSaved("b", false); err != nil {
				t.Fatalf("unsave b: %v", err)
			}

			ids, err := s.SavedIDs()
			if err != nil {
				t.Fatalf("SavedIDs: %v", err)
			}
			if len(ids) != 2 || !ids["a"] || !ids["c"] || ids["b"] {
				t.Errorf("SavedIDs = %v, want {a, c}", ids)
			}
		})
	}
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "saved.db")

	s, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	if err := s.SetSaved("job-789", true); err != nil {
		t.Fatalf("SetSaved: %v", err)
	}
	s.Close()

	reopened, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	saved, err := reopened.IsSaved("job-789")
	if err != nil {
		t.Fatalf("IsSaved: %v", err)
	}
	if !saved {
		t.Error("expected saved state to survive a reopen")
	}
}
