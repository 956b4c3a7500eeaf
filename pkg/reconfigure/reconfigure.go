package reconfigure

import (
	"sort"

	"github.com/arinc653/router/pkg/config"
	"github.com/arinc653/router/pkg/portio"
	"github.com/arinc653/router/pkg/router"
	"github.com/arinc653/router/pkg/scheduler"
	"github.com/arinc653/router/pkg/types"
)

// Scheduler is the subset of scheduler.DeadlineRrScheduler that
// Reconfigure needs.
type Scheduler interface {
	Reconfigure(slots []scheduler.Slot)
}

// Reconfigure resolves cfg's named virtual links against registry and
// produces the router.Router and scheduler state for the next
// generation (spec §4.6, steps 1-4):
//
//  1. An empty virtual-link set builds an empty router and clears the
//     scheduler.
//  2. Each virtual link's source and destinations are resolved against
//     registry; an unresolved name fails the whole reconfiguration.
//     Every virtual link's (id, period) pair is collected into a slot
//     as its route resolves.
//  3. The resolved routes are assembled into a sealed router.Router.
//  4. Only then are the collected slots pushed to the scheduler.
//
// On any failure Reconfigure returns a nil router and never calls
// sched.Reconfigure, so the caller's existing router and scheduler
// state are left untouched (spec §8 scenario 6: "a rejected
// reconfiguration retains the prior router").
func Reconfigure(registry *Registry, sched Scheduler, cfg config.RouterConfig, maxRoutes int) (*router.Router, error) {
	if len(cfg.VirtualLinks) == 0 {
		sched.Reconfigure(nil)
		return router.Empty(), nil
	}

	ids := make([]types.VirtualLinkId, 0, len(cfg.VirtualLinks))
	for vl := range cfg.VirtualLinks {
		ids = append(ids, vl)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	builder := router.NewBuilder(maxRoutes)
	slots := make([]scheduler.Slot, 0, len(ids))

	for _, vl := range ids {
		vlCfg := cfg.VirtualLinks[vl]

		input, ok := registry.GetInput(vlCfg.Source)
		if !ok {
			return nil, &Error{Kind: InvalidInput}
		}

		outputs := make([]portio.RouterOutput, 0, len(vlCfg.Destinations))
		for _, dest := range vlCfg.Destinations {
			output, ok := registry.GetOutput(dest)
			if !ok {
				return nil, &Error{Kind: InvalidOutput}
			}
			outputs = append(outputs, output)
		}

		if _, err := builder.Route(vl, input, outputs); err != nil {
			return nil, translateBuildError(err)
		}

		slots = append(slots, scheduler.Slot{VL: vl, Period: vlCfg.Period})
	}

	built, err := builder.Build()
	if err != nil {
		return nil, translateBuildError(err)
	}

	sched.Reconfigure(slots)
	return built, nil
}

func translateBuildError(err error) error {
	buildErr, ok := err.(*router.BuildError)
	if !ok {
		return &Error{Kind: InvalidVl, Cause: err}
	}
	switch buildErr.Kind {
	case router.BuildStorage:
		return &Error{Kind: Storage, Cause: err}
	default:
		return &Error{Kind: InvalidVl, Cause: err}
	}
}
