package checkpoint

import (
	"context"
	"sync"

	"github.com/JakeFAU/company-enricher/internal/enricher"
)

// MemoryStore keeps the checkpoint in process memory.
type MemoryStore struct {
	mu      sync.Mutex
	index   int
	history []int
	saveErr error
}

var _ enricher.CheckpointStore = (*MemoryStore)(nil)

// NewMemoryStore starts at the given offset.
func NewMemoryStore(initial int) *MemoryStore {
	return &MemoryStore{index: initial}
}

// FailSaves makes every subsequent Save return err.
func (s *MemoryStore) FailSaves(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveErr = err
}

// Load returns the current offset.
func (s *MemoryStore) Load(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index, nil
}

// Save records index.
func (s *MemoryStore) Save(_ context.Context, index int) error {
	if err := validate(index); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.index = index
	s.history = append(s.history, index)
	return nil
}

// History lists every saved offset in order.
func (s *MemoryStore) History() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int(nil), s.history...)
}
