// Package timer provides deadline scheduling for room phase advancement.
package timer

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Scheduler keeps at most one armed deadline per key. Scheduling a new
// deadline for a key supersedes the previous one. A cancelled or
// superseded deadline never runs its callback, even when the underlying
// timer has already gone off and its goroutine is waiting on the lock:
// every armed deadline carries a generation token that is compared
// against the live entry at fire time.
type Scheduler struct {
	clock clockwork.Clock

	mu      sync.Mutex
	seq     uint64
	entries map[string]*entry
}

type entry struct {
	gen   uint64
	timer clockwork.Timer
}

func NewScheduler(clock clockwork.Clock) *Scheduler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Scheduler{
		clock:   clock,
		entries: make(map[string]*entry),
	}
}

// Clock returns the clock deadlines are measured against.
func (s *Scheduler) Clock() clockwork.Clock {
	return s.clock
}

// Schedule arms a deadline for key. fn runs on the timer goroutine once d
// elapses, unless Cancel or a newer Schedule for the same key happens
// first.
func (s *Scheduler) Schedule(key string, d time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.entries[key]; ok {
		prev.timer.Stop()
	}
	s.seq++
	gen := s.seq
	e := &entry{gen: gen}
	e.timer = s.clock.AfterFunc(d, func() {
		s.mu.Lock()
		current, ok := s.entries[key]
		live := ok && current.gen == gen
		if live {
			delete(s.entries, key)
		}
		s.mu.Unlock()
		if live {
			fn()
		}
	})
	s.entries[key] = e
}

// Cancel disarms the pending deadline for key and reports whether one was
// still armed. When Cancel returns true the callback will not run; when
// it returns false the deadline either never existed or its callback has
// already claimed the right to run.
func (s *Scheduler) Cancel(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		return false
	}
	e.timer.Stop()
	delete(s.entries, key)
	return true
}

// Pending reports whether key has an armed deadline.
func (s *Scheduler) Pending(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[key]
	return ok
}

// StopAll disarms every pending deadline. Used on shutdown.
func (s *Scheduler) StopAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, e := range s.entries {
		e.timer.Stop()
		delete(s.entries, key)
	}
}
