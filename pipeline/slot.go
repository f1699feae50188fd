package pipeline

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Slot is a single-entry mailbox between a producer and the worker.
//
// Submit never blocks: a pending submission that has not been taken yet is dropped and
// replaced. Take hands every submission out at most once, so a take always sees the most
// recent submit that preceded it.
type Slot struct {
	mu      sync.Mutex // Serializes Submit and Drain
	ch      chan Submission
	submits atomic.Uint64
	drops   atomic.Uint64
}

func NewSlot() *Slot {
	return &Slot{
		ch: make(chan Submission, 1),
	}
}

// Submit stores sub and reports whether an unconsumed submission was dropped to make room.
func (s *Slot) Submit(sub Submission) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	dropped := false
	select {
	case <-s.ch:
		dropped = true
		s.drops.Add(1)
	default:
	}

	// Cannot block: the channel is empty and only Submit sends, under mu
	s.ch <- sub
	s.submits.Add(1)
	return dropped
}

// Take waits at most wait for a submission. It returns false on timeout or when ctx is done.
func (s *Slot) Take(ctx context.Context, wait time.Duration) (Submission, bool) {
	// Prefer a pending submission over a timer allocation
	select {
	case sub := <-s.ch:
		return sub, true
	default:
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case sub := <-s.ch:
		return sub, true
	case <-timer.C:
		return Submission{}, false
	case <-ctx.Done():
		return Submission{}, false
	}
}

// Drain discards the pending submission, if any.
func (s *Slot) Drain() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	select {
	case <-s.ch:
		s.drops.Add(1)
		return true
	default:
		return false
	}
}

func (s *Slot) Submits() uint64 {
	return s.submits.Load()
}

func (s *Slot) Drops() uint64 {
	return s.drops.Load()
}
