// Package router implements the forwarding core: a RouteTable mapping
// each virtual link to one input and an ordered list of outputs, and
// the single-tick forward() operation the partition runtime drives on
// every pass of its aperiodic process (spec §4.5).
package router

import (
	"time"

	"github.com/arinc653/router/pkg/portio"
	"github.com/arinc653/router/pkg/types"
)

// Scheduler is the subset of scheduler.DeadlineRrScheduler that
// forward() needs, kept local so router does not depend on a specific
// scheduler implementation.
type Scheduler interface {
	ScheduleNext(now time.Duration) (types.VirtualLinkId, bool)
}

// TimeSource abstracts the hypervisor's normal-time clock.
type TimeSource interface {
	Now() (time.Duration, error)
}

// Result reports the outcome of one forward() tick.
type Result struct {
	// VL is the virtual link actually forwarded this tick, valid only
	// when Scheduled is true — the same comma-ok discipline
	// Scheduler.ScheduleNext itself uses, so a tick with nothing due
	// never needs a pointer to report that.
	VL        types.VirtualLinkId
	Scheduled bool
	// Payload aliases the caller's scratch buffer and is valid only
	// until the next Forward call.
	Payload []byte
	// SendErr is set when one or more of VL's outputs failed to send.
	// The message was still received and attempted on every output;
	// this is informational only and never fails the tick (spec §7:
	// "continue with remaining outputs... debug log").
	SendErr error
}

// RouteTable maps each virtual link to its single input and its
// ordered list of outputs.
type RouteTable struct {
	inputs  map[types.VirtualLinkId]portio.RouterInput
	outputs map[types.VirtualLinkId][]portio.RouterOutput
}

// Router is an immutable, validated RouteTable ready to forward.
// Reconfiguration replaces the Router a partition holds; it never
// mutates one in place (spec §5: "a reconfiguration swaps the current
// router reference").
type Router struct {
	table RouteTable
}

// Empty returns a router with no routes, so forward() always reports
// no work (spec §8 scenario 1: "Empty schedule").
func Empty() *Router {
	return &Router{table: RouteTable{
		inputs:  map[types.VirtualLinkId]portio.RouterInput{},
		outputs: map[types.VirtualLinkId][]portio.RouterOutput{},
	}}
}

// Forward runs one tick: it asks the scheduler which virtual link, if
// any, is due, then routes it. buf is a caller-owned scratch region
// reused across ticks; no data survives across calls.
func (r *Router) Forward(sched Scheduler, ts TimeSource, buf []byte) (Result, error) {
	now, err := ts.Now()
	if err != nil {
		return Result{}, &Error{Kind: ScheduleFailed, Cause: err}
	}

	next, due := sched.ScheduleNext(now)
	if !due {
		return Result{}, nil
	}

	outcome, err := r.route(next, buf)
	if err != nil {
		return Result{}, err
	}
	return Result{VL: outcome.vl, Scheduled: true, Payload: outcome.payload, SendErr: outcome.sendErr}, nil
}

type routeOutcome struct {
	vl      types.VirtualLinkId
	payload []byte
	sendErr error
}

// route receives from next's input and sends to the observed virtual
// link's outputs. The observed VL may differ from next when the input
// multiplexes several virtual links (a network interface): spec §8
// scenario 4.
func (r *Router) route(next types.VirtualLinkId, buf []byte) (routeOutcome, error) {
	input, ok := r.table.inputs[next]
	if !ok {
		return routeOutcome{}, &Error{Kind: InvalidVL}
	}

	observed, payload, err := input.Receive(next, buf)
	if err != nil {
		return routeOutcome{}, &Error{Kind: ReceiveFailed, Cause: err}
	}

	outs, ok := r.table.outputs[observed]
	if !ok {
		return routeOutcome{}, &Error{Kind: InvalidVL}
	}

	var lastSendErr error
	for _, out := range outs {
		if err := out.Send(observed, payload); err != nil {
			lastSendErr = err
		}
	}
	return routeOutcome{vl: observed, payload: payload, sendErr: lastSendErr}, nil
}
