package output

import "sync"

// Sim models the output bank on a host, including what a suspension does
// to unheld outputs: PowerCycle clears every level not under hold, the way
// the peripheral block loses state while held lines keep theirs.
type Sim struct {
	mu    sync.Mutex
	level []bool
	held  []bool
}

var _ Bank = (*Sim)(nil)

func NewSim(n int) *Sim {
	return &Sim{level: make([]bool, n), held: make([]bool, n)}
}

func (s *Sim) Count() int { s.mu.Lock(); defer s.mu.Unlock(); return len(s.level) }

func (s *Sim) Set(idx int, on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if idx < 0 || idx >= len(s.level) || s.held[idx] {
		return
	}
	s.level[idx] = on
}

func (s *Sim) Hold(idx int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if idx >= 0 && idx < len(s.held) {
		s.held[idx] = true
	}
}

func (s *Sim) Release(idx int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if idx >= 0 && idx < len(s.held) {
		s.held[idx] = false
	}
}

// Level reports the observed electrical state of idx.
func (s *Sim) Level(idx int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return idx >= 0 && idx < len(s.level) && s.level[idx]
}

// PowerCycle models the suspension resetting peripheral state: every level
// not under hold drops to off.
func (s *Sim) PowerCycle() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.level {
		if !s.held[i] {
			s.level[i] = false
		}
	}
}
