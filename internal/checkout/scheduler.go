package checkout

import (
	"sort"
	"sync"
	"time"
)

// Timer is a scheduled callback that can be stopped.
type Timer interface {
	Stop() bool
}

// Scheduler runs a callback after a delay.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// RealScheduler schedules on the runtime clock.
type RealScheduler struct{}

// AfterFunc wraps time.AfterFunc.
func (RealScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// ManualScheduler fires callbacks only when Advance moves its clock past
// their deadline. Used wherever real timers would make tests wait.
type ManualScheduler struct {
	mu      sync.Mutex
	elapsed time.Duration
	pending []*manualTimer
}

type manualTimer struct {
	owner    *ManualScheduler
	deadline time.Duration
	f        func()
	stopped  bool
	fired    bool
}

// NewManualScheduler creates a scheduler at time zero.
func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{}
}

// AfterFunc registers f to run once the clock has advanced by d.
func (s *ManualScheduler) AfterFunc(d time.Duration, f func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := &manualTimer{owner: s, deadline: s.elapsed + d, f: f}
	s.pending = append(s.pending, t)
	return t
}

// Advance moves the clock forward and runs due callbacks in deadline order.
func (s *ManualScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	s.elapsed += d

	var due []*manualTimer
	remaining := s.pending[:0]
	for _, t := range s.pending {
		if !t.stopped && t.deadline <= s.elapsed {
			t.fired = true
			due = append(due, t)
			continue
		}
		if !t.stopped {
			remaining = append(remaining, t)
		}
	}
	s.pending = remaining
	s.mu.Unlock()

	sort.SliceStable(due, func(i, j int) bool { return due[i].deadline < due[j].deadline })
	for _, t := range due {
		t.f()
	}
}

// Pending returns the number of callbacks not yet fired or stopped.
func (s *ManualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, t := range s.pending {
		if !t.stopped {
			n++
		}
	}
	return n
}

func (t *manualTimer) Stop() bool {
	t.owner.mu.Lock()
	defer t.owner.mu.Unlock()

	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}
