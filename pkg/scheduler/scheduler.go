// Package scheduler implements the deadline round-robin scheduler that
// decides which virtual link the router forwards on each tick (spec
// §4.4): at most one virtual link is selected per call, chosen by
// walking the slot table starting just past the last slot served.
package scheduler

import (
	"errors"
	"time"

	"github.com/arinc653/router/pkg/types"
)

// clockJumpGuard bounds how far behind a slot's deadline the clock may
// have fallen before a due slot is treated as a clock anomaly rather
// than a legitimately missed deadline, per the original scheduler's
// 15-second guard.
const clockJumpGuard = 15 * time.Second

// TimeSource abstracts the hypervisor's normal-time clock so the
// scheduler can be driven deterministically in tests.
type TimeSource interface {
	Now() (time.Duration, error)
}

// ErrInvalidTime is returned by a TimeSource when the underlying clock
// reports a non-normal time (the hypervisor ABI's "Infinite" case).
var ErrInvalidTime = errors.New("scheduler: system time source reported an invalid time")

// Slot is one entry in the round-robin table: a virtual link, the
// period at which it should be re-scheduled, and the deadline at
// which it next becomes due.
type Slot struct {
	VL     types.VirtualLinkId
	Period time.Duration
	Next   time.Duration
}

func (s Slot) isDue(now time.Duration) bool {
	return s.Next <= now
}

// DeadlineRrScheduler is a round-robin scheduler over a bounded set of
// deadline-tracked slots. It never blocks: ScheduleNext reports
// whether a slot is due right now.
type DeadlineRrScheduler struct {
	lastWindow int
	windows    []Slot
}

// New constructs an empty scheduler. Call Reconfigure to populate it.
func New() *DeadlineRrScheduler {
	return &DeadlineRrScheduler{}
}

// ScheduleNext walks the slot table starting one past the last slot
// served, returning the first due virtual link it finds and advancing
// that slot's deadline by its period. It visits each slot at most once
// per call, so it returns after a single round-robin pass even if
// several slots are simultaneously due.
//
// A 15-second clock-jump guard treats a slot that is "due" by more
// than 15 seconds as a clock anomaly rather than a legitimate
// deadline, and reports no selection for this call instead.
func (s *DeadlineRrScheduler) ScheduleNext(now time.Duration) (types.VirtualLinkId, bool) {
	if len(s.windows) == 0 {
		return 0, false
	}

	for i := 1; i <= len(s.windows); i++ {
		idx := (s.lastWindow + i) % len(s.windows)
		window := s.windows[idx]
		if !window.isDue(now) {
			continue
		}

		if now >= clockJumpGuard {
			guardThreshold := now - clockJumpGuard
			if guardThreshold > window.Next {
				return 0, false
			}
		}

		s.lastWindow = idx
		next := now + window.Period
		if next < now { // saturating add: duration overflow falls back to now
			next = now
		}
		s.windows[idx].Next = next
		return window.VL, true
	}
	return 0, false
}

// Reconfigure replaces the slot table atomically from the caller's
// point of view (it takes effect on the next ScheduleNext call) and
// resets the round-robin cursor. Each slot's first deadline is one
// period from reconfiguration, not "now": a freshly reconfigured
// virtual link does not fire immediately.
func (s *DeadlineRrScheduler) Reconfigure(slots []Slot) {
	windows := make([]Slot, len(slots))
	for i, slot := range slots {
		windows[i] = Slot{VL: slot.VL, Period: slot.Period, Next: slot.Period}
	}
	s.lastWindow = 0
	s.windows = windows
}

// Len reports how many slots are currently scheduled.
func (s *DeadlineRrScheduler) Len() int {
	return len(s.windows)
}
