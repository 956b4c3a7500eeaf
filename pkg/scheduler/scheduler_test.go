package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func Test_EmptyScheduleReturnsNone(t *testing.T) {
	s := New()
	_, ok := s.ScheduleNext(10 * time.Millisecond)
	assert.False(t, ok)
}

func Test_FirstDeadlineIsOnePeriodOut(t *testing.T) {
	s := New()
	s.Reconfigure([]Slot{{VL: 1, Period: 10 * time.Millisecond}})

	_, ok := s.ScheduleNext(0)
	assert.False(t, ok, "must not fire immediately at reconfiguration time")

	vl, ok := s.ScheduleNext(10 * time.Millisecond)
	assert.True(t, ok)
	assert.Equal(t, uint32(1), uint32(vl))
}

func Test_RoundRobinAdvancesAcrossSlots(t *testing.T) {
	s := New()
	s.Reconfigure([]Slot{
		{VL: 1, Period: 10 * time.Millisecond},
		{VL: 2, Period: 10 * time.Millisecond},
	})

	first, ok := s.ScheduleNext(10 * time.Millisecond)
	assert.True(t, ok)

	second, ok := s.ScheduleNext(10 * time.Millisecond)
	assert.True(t, ok)
	assert.NotEqual(t, first, second, "both slots due at once must be served round-robin, one per call")
}

func Test_SlotReschedulesAfterItsPeriod(t *testing.T) {
	s := New()
	s.Reconfigure([]Slot{{VL: 1, Period: 10 * time.Millisecond}})

	_, ok := s.ScheduleNext(10 * time.Millisecond)
	assert.True(t, ok)

	_, ok = s.ScheduleNext(15 * time.Millisecond)
	assert.False(t, ok, "must not fire again before its next deadline")

	_, ok = s.ScheduleNext(20 * time.Millisecond)
	assert.True(t, ok)
}

func Test_ClockJumpGuardSuppressesStaleDeadline(t *testing.T) {
	s := New()
	s.Reconfigure([]Slot{{VL: 1, Period: 10 * time.Millisecond}})

	// Jump far past the deadline — more than the 15s guard threshold.
	_, ok := s.ScheduleNext(20 * time.Second)
	assert.False(t, ok)
}

func Test_ReconfigureResetsCursor(t *testing.T) {
	s := New()
	s.Reconfigure([]Slot{
		{VL: 1, Period: 10 * time.Millisecond},
		{VL: 2, Period: 10 * time.Millisecond},
	})
	s.ScheduleNext(10 * time.Millisecond)

	s.Reconfigure([]Slot{{VL: 3, Period: 5 * time.Millisecond}})
	assert.Equal(t, 1, s.Len())

	_, ok := s.ScheduleNext(1 * time.Millisecond)
	assert.False(t, ok)

	vl, ok := s.ScheduleNext(5 * time.Millisecond)
	assert.True(t, ok)
	assert.Equal(t, uint32(3), uint32(vl))
}
