package storagenode

import "sync"

// Store holds file bytes keyed by filename, in memory only. A store is
// safe for concurrent use.
type Store struct {
	mu    sync.RWMutex
	files map[string][]byte
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{files: make(map[string][]byte)}
}

// Put stores data under filename, unconditionally overwriting any
// previous content. No size limit, no checksum; integrity is the
// replicating client's concern.
func (s *Store) Put(filename string, data []byte) {
	buf := make([]byte, len(data))
	copy(buf, data)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[filename] = buf
}

// Get returns the bytes stored under filename.
func (s *Store) Get(filename string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.files[filename]
	if !ok {
		return nil, false
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, true
}

// Count returns the number of stored files.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.files)
}
