package workspace

import "sync"

// MemoryStore keeps the selection in process memory.
type MemoryStore struct {
	mu  sync.Mutex
	ref *Ref
}

// NewMemoryStore returns a store, optionally pre-seeded with a selection.
func NewMemoryStore(initial *Ref) *MemoryStore {
	s := &MemoryStore{}
	if initial != nil {
		r := *initial
		s.ref = &r
	}
	return s
}

func (s *MemoryStore) Selected() (*Ref, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ref == nil {
		return nil, nil
	}
	r := *s.ref
	return &r, nil
}

func (s *MemoryStore) SetSelected(ref Ref) error {
	if err := ref.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ref = &ref
	return nil
}
