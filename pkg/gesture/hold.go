// Package gesture models the press-and-hold gesture as a cancelable deferred
// action: it is armed on press, canceled by a release or leave that arrives
// before the delay elapses, and otherwise fires exactly once.
//
// Event loops that deliver their own timer messages (such as bubbletea's
// tea.Tick) use [Hold.Arm] and [Hold.Claim] directly and carry the [Ticket]
// in the message. Everything else uses [Hold.Schedule], which drives the
// same state machine from a time.AfterFunc timer.
package gesture

import (
	"sync"
	"time"
)

// DefaultDelay is how long a press must be held before it becomes a drag.
const DefaultDelay = 350 * time.Millisecond

// Ticket identifies one arming of a Hold. The zero Ticket is never armed.
type Ticket uint64

// Hold is a single-slot deferred action. Arming it again supersedes the
// previous ticket. The zero value is ready to use and safe for concurrent
// use.
type Hold struct {
	mu    sync.Mutex
	seq   uint64
	armed Ticket
	timer *time.Timer
}

// Arm supersedes any pending ticket and returns a new armed one.
func (h *Hold) Arm() Ticket {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.stopLocked()
	h.seq++
	h.armed = Ticket(h.seq)
	return h.armed
}

// Cancel disarms the pending ticket. It reports whether one was pending.
func (h *Hold) Cancel() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	was := h.armed != 0
	h.armed = 0
	h.stopLocked()
	return was
}

// Claim consumes t if it is still the armed ticket. At most one Claim per
// ticket succeeds.
func (h *Hold) Claim(t Ticket) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if t == 0 || h.armed != t {
		return false
	}
	h.armed = 0
	h.timer = nil
	return true
}

// Pending reports whether a ticket is armed.
func (h *Hold) Pending() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.armed != 0
}

// Schedule arms the hold and runs fn after delay unless the ticket is
// canceled or superseded first. fn runs on the timer's goroutine.
func (h *Hold) Schedule(delay time.Duration, fn func(Ticket)) Ticket {
	t := h.Arm()
	timer := time.AfterFunc(delay, func() {
		if h.Claim(t) {
			fn(t)
		}
	})

	h.mu.Lock()
	if h.armed == t {
		h.timer = timer
	} else {
		timer.Stop()
	}
	h.mu.Unlock()
	return t
}

func (h *Hold) stopLocked() {
	if h.timer != nil {
		h.timer.Stop()
		h.timer = nil
	}
}
