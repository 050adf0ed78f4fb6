package store

import "sync"

// Mem is an in-memory Store for hosts and tests. A "reboot" that keeps the
// Mem value models persistence across power loss.
type Mem struct {
	mu sync.Mutex
	m  map[string][]byte
}

var _ Store = (*Mem)(nil)

func NewMem() *Mem { return &Mem{m: map[string][]byte{}} }

func (s *Mem) Get(key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.m[key]
	if !ok {
		return nil, false
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true
}

func (s *Mem) Put(key string, val []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]byte, len(val))
	copy(cp, val)
	s.m[key] = cp
	return nil
}
