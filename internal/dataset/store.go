package dataset

import "sync/atomic"

// Store publishes the current dataset. Readers keep whatever version they
// loaded until they load again.
type Store struct {
	current atomic.Pointer[Dataset]
}

func NewStore(initial *Dataset) *Store {
	s := &Store{}
	if initial != nil {
		s.current.Store(initial)
	}
	return s
}

// Load returns the current dataset, or nil before the first refresh.
func (s *Store) Load() *Dataset {
	return s.current.Load()
}

// Swap publishes d and returns the version it replaced.
func (s *Store) Swap(d *Dataset) *Dataset {
	return s.current.Swap(d)
}
