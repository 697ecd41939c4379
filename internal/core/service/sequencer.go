package service

import "sync"

// Sequencer tags concurrent fetches of the same data so that a response
// is applied only when no newer fetch is still pending or already applied.
// A fetch that fails calls Abandon so it no longer holds older ones back.
type Sequencer struct {
	mu        sync.Mutex
	latest    uint64
	applied   uint64
	abandoned map[uint64]struct{}
}

// Begin issues a new tag, superseding every earlier one.
func (s *Sequencer) Begin() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest++
	return s.latest
}

// Apply runs fn only if seq is still the newest live tag and reports
// whether it ran. fn runs under the sequencer's lock.
func (s *Sequencer) Apply(seq uint64, fn func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.current(seq) {
		return false
	}
	fn()
	s.applied = seq
	for t := range s.abandoned {
		if t <= seq {
			delete(s.abandoned, t)
		}
	}
	return true
}

// Abandon withdraws seq after its fetch failed.
func (s *Sequencer) Abandon(seq uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq <= s.applied {
		return
	}
	if s.abandoned == nil {
		s.abandoned = make(map[uint64]struct{})
	}
	s.abandoned[seq] = struct{}{}
}

// Latest reports whether a response tagged seq would still be applied.
func (s *Sequencer) Latest(seq uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current(seq)
}

func (s *Sequencer) current(seq uint64) bool {
	if seq <= s.applied || seq > s.latest {
		return false
	}
	for t := seq + 1; t <= s.latest; t++ {
		if _, gone := s.abandoned[t]; !gone {
			return false
		}
	}
	return true
}
