// Package partition implements the router partition's runtime
// lifecycle: cold start (take over the resource registry the host has
// already populated, and start an empty router and an empty scheduler)
// and the forward loop the aperiodic process body runs forever (spec
// §4.7).
package partition

import (
	"bytes"
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/arinc653/router/internal/pdump"
	"github.com/arinc653/router/pkg/config"
	"github.com/arinc653/router/pkg/portio"
	"github.com/arinc653/router/pkg/reconfigure"
	"github.com/arinc653/router/pkg/router"
	"github.com/arinc653/router/pkg/scheduler"
)

// defaultPollModulus bounds how often the runtime attempts a config
// fetch: once every this many forward-loop ticks (spec §4.6: "an
// implementation-chosen counter modulus (e.g. every 65 536 ticks)").
const defaultPollModulus = 65536

// TimeSource abstracts the hypervisor's normal-time clock.
type TimeSource interface {
	Now() (time.Duration, error)
}

// Runtime owns the scheduler, the current router, and the resource
// registry for one partition. The scheduler and router are mutated
// only from within Run's loop (spec §5: "owned exclusively by the
// forward loop... no locks are required").
type Runtime struct {
	log *zap.SugaredLogger

	registry  *reconfigure.Registry
	sched     *scheduler.DeadlineRrScheduler
	router    *router.Router
	ts        TimeSource
	tracer    *pdump.Tracer
	limits    config.Limits
	maxRoutes int

	configPort   portio.RouterInput
	pollModulus  uint32
	tick         uint32
	currentBytes []byte
	scratch      []byte
	pollBuf      []byte

	// IdleSleep, when non-zero, is slept between ticks that scheduled no
	// work. It exists only so a host-harness binary doesn't spin a CPU
	// core at 100%; it has no equivalent inside a real hypervisor's
	// aperiodic process and is never consulted by forward() itself.
	IdleSleep time.Duration
}

// Option configures a Runtime at construction time.
type Option func(*Runtime)

// WithTracer attaches an optional pcap tracer. A nil tracer (the
// zero value of this option) disables tracing at no cost.
func WithTracer(tracer *pdump.Tracer) Option {
	return func(r *Runtime) { r.tracer = tracer }
}

// WithPollModulus overrides the config-fetch cadence.
func WithPollModulus(modulus uint32) Option {
	return func(r *Runtime) {
		if modulus > 0 {
			r.pollModulus = modulus
		}
	}
}

// WithIdleSleep sets the host-harness idle sleep between empty ticks.
func WithIdleSleep(d time.Duration) Option {
	return func(r *Runtime) { r.IdleSleep = d }
}

// New cold-starts a Runtime: the router and scheduler both start
// empty, and forwarding begins only once the first reconfiguration
// succeeds (spec §4.7: "initializes an empty router and scheduler").
func New(
	log *zap.SugaredLogger,
	registry *reconfigure.Registry,
	ts TimeSource,
	configPort portio.RouterInput,
	limits config.Limits,
	mtu int,
	opts ...Option,
) *Runtime {
	r := &Runtime{
		log:         log,
		registry:    registry,
		sched:       scheduler.New(),
		router:      router.Empty(),
		ts:          ts,
		limits:      limits,
		maxRoutes:   limits.MaxVirtualLinks,
		configPort:  configPort,
		pollModulus: defaultPollModulus,
		scratch:     make([]byte, mtu),
		pollBuf:     make([]byte, 4096),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run drives the forward loop until ctx is cancelled. Every iteration
// is self-contained: a failure in one tick never aborts the loop
// (spec §7: "the forward loop is infinite and never terminates on
// error").
func (r *Runtime) Run(ctx context.Context) error {
	r.log.Info("starting forward loop")
	defer r.log.Info("forward loop stopped")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		didWork := r.tickOnce()
		if !didWork && r.IdleSleep > 0 {
			time.Sleep(r.IdleSleep)
		}
	}
}

// tickOnce runs one pass of the loop: poll config, forward one VL.
// It reports whether any forwarding work happened this tick, purely
// for the host harness's idle-sleep heuristic.
func (r *Runtime) tickOnce() bool {
	r.tick++
	if r.tick%r.pollModulus == 0 {
		r.pollConfig()
	}

	result, err := r.router.Forward(r.sched, r.ts, r.scratch)
	if err != nil {
		r.logForwardError(err)
		return false
	}
	if !result.Scheduled {
		r.log.Debug("scheduled no VL this tick")
		return false
	}

	r.log.Infow("forwarded VL", "vl", result.VL)
	if result.SendErr != nil {
		r.log.Debugw("one or more outputs failed to send", "vl", result.VL, "error", result.SendErr)
	}
	if r.tracer != nil {
		if err := r.tracer.Trace(result.VL, result.Payload); err != nil {
			r.log.Debugw("pcap trace failed", "error", err)
		}
	}
	return true
}

func (r *Runtime) logForwardError(err error) {
	var routeErr *router.Error
	if errors.As(err, &routeErr) {
		switch routeErr.Kind {
		case router.ReceiveFailed:
			r.log.Debugw("port receive failed", "error", err)
		case router.ScheduleFailed:
			r.log.Debugw("schedule failed", "error", err)
		default:
			r.log.Debugw("route lookup failed", "error", err)
		}
		return
	}
	r.log.Debugw("forward tick failed", "error", err)
}

// pollConfig fetches the current configuration blob from the
// configured config port and, if it differs from what's installed,
// attempts a reconfiguration. Fetch or decode failure, and a failed
// reconfiguration, both retain the router currently installed (spec
// §4.6/§7: "failure to apply leaves the current router installed").
func (r *Runtime) pollConfig() {
	_, data, err := r.configPort.Receive(0, r.pollBuf)
	if err != nil {
		r.log.Debugw("config fetch failed", "error", err)
		return
	}
	if bytes.Equal(data, r.currentBytes) {
		return
	}

	cfg, err := config.Decode(data, r.limits)
	if err != nil {
		r.log.Warnw("rejected malformed configuration, retaining current router", "error", err)
		return
	}

	newRouter, err := reconfigure.Reconfigure(r.registry, r.sched, cfg, r.maxRoutes)
	if err != nil {
		r.log.Warnw("rejected configuration, retaining current router", "error", err)
		return
	}

	r.router = newRouter
	r.currentBytes = append([]byte(nil), data...)
	r.log.Infow("applied new configuration", "virtual_links", len(cfg.VirtualLinks), "registry", r.registry.Summary())
}
