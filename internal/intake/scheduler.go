package intake

import (
	"sort"
	"sync"
	"time"
)

// Timer is a handle to a deferred transition
type Timer interface {
	// Stop cancels the timer. It returns false if the timer already fired or was stopped.
	Stop() bool
}

// Scheduler runs a function once after a delay
type Scheduler interface {
	Schedule(d time.Duration, fn func()) Timer
}

type clockScheduler struct{}

// NewClockScheduler returns a Scheduler backed by the wall clock
func NewClockScheduler() Scheduler {
	return clockScheduler{}
}

func (clockScheduler) Schedule(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}

// ManualScheduler is a Scheduler driven by an explicit virtual clock.
// Nothing fires until Advance or FireAll is called.
type ManualScheduler struct {
	mu      sync.Mutex
	now     time.Duration
	seq     int
	pending []*manualTimer
}

type manualTimer struct {
	s       *ManualScheduler
	at      time.Duration
	seq     int
	fn      func()
	done    bool
	stopped bool
}

func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{}
}

func (s *ManualScheduler) Schedule(d time.Duration, fn func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	t := &manualTimer{s: s, at: s.now + d, seq: s.seq, fn: fn}
	s.pending = append(s.pending, t)
	return t
}

func (t *manualTimer) Stop() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()

	if t.done || t.stopped {
		return false
	}
	t.stopped = true
	return true
}

// Pending returns the number of timers that are neither fired nor stopped
func (s *ManualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, t := range s.pending {
		if !t.done && !t.stopped {
			n++
		}
	}
	return n
}

// Advance moves the virtual clock forward and fires every timer that became due,
// including timers scheduled by the fired callbacks.
func (s *ManualScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	s.now += d
	deadline := s.now
	s.mu.Unlock()

	s.fireUntil(deadline, false)
}

// FireAll fires every pending timer regardless of its deadline
func (s *ManualScheduler) FireAll() {
	s.fireUntil(0, true)
}

func (s *ManualScheduler) fireUntil(deadline time.Duration, all bool) {
	for {
		t := s.nextDue(deadline, all)
		if t == nil {
			return
		}
		t.fn()
	}
}

func (s *ManualScheduler) nextDue(deadline time.Duration, all bool) *manualTimer {
	s.mu.Lock()
	defer s.mu.Unlock()

	live := s.pending[:0]
	for _, t := range s.pending {
		if !t.done && !t.stopped {
			live = append(live, t)
		}
	}
	s.pending = live

	sort.SliceStable(s.pending, func(i, j int) bool {
		if s.pending[i].at == s.pending[j].at {
			return s.pending[i].seq < s.pending[j].seq
		}
		return s.pending[i].at < s.pending[j].at
	})

	if len(s.pending) == 0 {
		return nil
	}

	t := s.pending[0]
	if !all && t.at > deadline {
		return nil
	}
	if all && t.at > s.now {
		s.now = t.at
	}
	t.done = true
	return t
}
