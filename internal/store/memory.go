package store

import (
	"sync"

	"github.com/amishk599/hiddenjobs/internal/model"
)

// Ensure MemoryStore implements model.SavedStore.
var _ model.SavedStore = (*MemoryStore)(nil)

// MemoryStore keeps saved state for the lifetime of the process only. The
// browse command falls back to it when the database cannot be opened.
type MemoryStore struct {
	mu    sync.Mutex
	saved map[string]bool
}

func NewMemoryStore() *MemoryStore { return &MemoryStore{saved: make(map[string]bool)} }

func (s *MemoryStore) IsSaved(jobID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saved[jobID], nil
}

func (s *MemoryStore) SetSaved(jobID string, saved bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if saved {
		s.saved[jobID] = true
	} else {
		delete(s.saved, jobID)
	}
	return nil
}

func (s *MemoryStore) SavedIDs() (map[string]bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make(map[string]bool, len(s.saved))
	for id := range s.saved {
		ids[id] = true
	}
	return ids, nil
}
