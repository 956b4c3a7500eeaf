package reconfigure

import (
	"testing"
	"time"

	"github.com/arinc653/router/pkg/config"
	"github.com/arinc653/router/pkg/portio/sim"
	"github.com/arinc653/router/pkg/scheduler"
	"github.com/arinc653/router/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustName(t *testing.T, s string) types.Name {
	t.Helper()
	n, err := types.NewName(s)
	require.NoError(t, err)
	return n
}

func newFixtureRegistry(t *testing.T) (*Registry, *sim.SamplingPort, *sim.SamplingPort) {
	t.Helper()
	a := sim.NewSamplingPort(4, 0)
	b := sim.NewSamplingPort(4, 0)

	reg := NewRegistry(8, 8)
	require.NoError(t, reg.InsertInput(mustName(t, "a"), a.Input()))
	require.NoError(t, reg.InsertOutput(mustName(t, "b"), b.Output()))
	return reg, a, b
}

func buildConfig(t *testing.T, vl types.VirtualLinkId, source, dest string, period time.Duration) config.RouterConfig {
	t.Helper()
	builder := config.NewBuilder(4096, config.DefaultLimits())
	builder.Port(source, config.NewSamplingOut(4))
	builder.Port(dest, config.NewSamplingIn(4, 0))
	builder.VirtualLink(vl, source)
	builder.Destination(vl, dest)
	builder.Schedule(vl, period)
	cfg, err := builder.Build()
	require.NoError(t, err)
	return cfg
}

func Test_ReconfigureEmptyVirtualLinksProducesEmptyRouter(t *testing.T) {
	reg := NewRegistry(8, 8)
	sched := scheduler.New()

	cfg, err := config.NewBuilder(4096, config.DefaultLimits()).Build()
	require.NoError(t, err)

	r, err := Reconfigure(reg, sched, cfg, 8)
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, 0, sched.Len())
}

func Test_ReconfigureResolvesNamesAndSchedulesSlots(t *testing.T) {
	reg, a, b := newFixtureRegistry(t)
	sched := scheduler.New()
	cfg := buildConfig(t, 7, "a", "b", 10*time.Millisecond)

	r, err := Reconfigure(reg, sched, cfg, 8)
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, 1, sched.Len())

	require.NoError(t, a.Write([]byte{0x09}))
	res, err := r.Forward(sched, fixedTimeSource{now: 10 * time.Millisecond}, make([]byte, 4))
	require.NoError(t, err)
	require.True(t, res.Scheduled)
	assert.Equal(t, types.VirtualLinkId(7), res.VL)

	out := make([]byte, 4)
	n, err := b.Read(out)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x09}, out[:n])
}

func Test_ReconfigureRejectsUnknownSourceName(t *testing.T) {
	reg := NewRegistry(8, 8)
	b := sim.NewSamplingPort(4, 0)
	require.NoError(t, reg.InsertOutput(mustName(t, "b"), b.Output()))

	sched := scheduler.New()
	cfg := buildConfig(t, 7, "a", "b", 10*time.Millisecond)

	_, err := Reconfigure(reg, sched, cfg, 8)
	var reconfErr *Error
	require.ErrorAs(t, err, &reconfErr)
	assert.Equal(t, InvalidInput, reconfErr.Kind)
}

func Test_ReconfigureRejectsUnknownDestinationName(t *testing.T) {
	reg := NewRegistry(8, 8)
	a := sim.NewSamplingPort(4, 0)
	require.NoError(t, reg.InsertInput(mustName(t, "a"), a.Input()))

	sched := scheduler.New()
	cfg := buildConfig(t, 7, "a", "b", 10*time.Millisecond)

	_, err := Reconfigure(reg, sched, cfg, 8)
	var reconfErr *Error
	require.ErrorAs(t, err, &reconfErr)
	assert.Equal(t, InvalidOutput, reconfErr.Kind)
}

// Test_RejectedReconfigurationRetainsPriorRouter mirrors spec §8
// scenario 6: when a reconfiguration attempt fails, the caller must be
// free to keep using the router and scheduler state from before the
// attempt, since Reconfigure never mutates either until every named
// resource has resolved.
func Test_RejectedReconfigurationRetainsPriorRouter(t *testing.T) {
	reg, a, b := newFixtureRegistry(t)
	sched := scheduler.New()
	goodCfg := buildConfig(t, 7, "a", "b", 10*time.Millisecond)

	current, err := Reconfigure(reg, sched, goodCfg, 8)
	require.NoError(t, err)
	require.Equal(t, 1, sched.Len())

	badBuilder := config.NewBuilder(4096, config.DefaultLimits())
	badBuilder.Port("a", config.NewSamplingOut(4))
	badBuilder.Port("ghost", config.NewSamplingIn(4, 0))
	badBuilder.VirtualLink(9, "a")
	badBuilder.Destination(9, "ghost")
	badBuilder.Schedule(9, 5*time.Millisecond)
	badCfg, err := badBuilder.Build()
	require.NoError(t, err)

	attempt, err := Reconfigure(reg, scheduler.New(), badCfg, 8)
	require.Error(t, err)
	assert.Nil(t, attempt)

	// The original router and scheduler remain usable: scenario 6's
	// guarantee that a rejected reconfiguration retains the prior router.
	require.NoError(t, a.Write([]byte{0x0A}))
	res, err := current.Forward(sched, fixedTimeSource{now: 10 * time.Millisecond}, make([]byte, 4))
	require.NoError(t, err)
	require.True(t, res.Scheduled)

	out := make([]byte, 4)
	n, err := b.Read(out)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x0A}, out[:n])
}

// Test_SwapToNewConfigurationReplacesRoutes mirrors spec §8 scenario 5:
// reconfiguring with a different virtual-link set fully replaces the
// previous one rather than merging with it.
func Test_SwapToNewConfigurationReplacesRoutes(t *testing.T) {
	reg, a, b := newFixtureRegistry(t)
	c := sim.NewSamplingPort(4, 0)
	require.NoError(t, reg.InsertOutput(mustName(t, "c"), c.Output()))

	sched := scheduler.New()
	firstCfg := buildConfig(t, 7, "a", "b", 10*time.Millisecond)
	_, err := Reconfigure(reg, sched, firstCfg, 8)
	require.NoError(t, err)

	secondBuilder := config.NewBuilder(4096, config.DefaultLimits())
	secondBuilder.Port("a", config.NewSamplingOut(4))
	secondBuilder.Port("c", config.NewSamplingIn(4, 0))
	secondBuilder.VirtualLink(11, "a")
	secondBuilder.Destination(11, "c")
	secondBuilder.Schedule(11, 5*time.Millisecond)
	secondCfg, err := secondBuilder.Build()
	require.NoError(t, err)

	r, err := Reconfigure(reg, sched, secondCfg, 8)
	require.NoError(t, err)
	assert.Equal(t, 1, sched.Len())

	require.NoError(t, a.Write([]byte{0x0B}))
	res, err := r.Forward(sched, fixedTimeSource{now: 5 * time.Millisecond}, make([]byte, 4))
	require.NoError(t, err)
	require.True(t, res.Scheduled)
	assert.Equal(t, types.VirtualLinkId(11), res.VL)

	out := make([]byte, 4)
	n, err := c.Read(out)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x0B}, out[:n])

	assert.Equal(t, 1, sched.Len(), "the old slot for vl 7 must be gone, not merged with")
}

func Test_RegistryInsertInputRejectsOverflow(t *testing.T) {
	reg := NewRegistry(1, 1)
	require.NoError(t, reg.InsertInput(mustName(t, "a"), sim.NewSamplingPort(4, 0).Input()))
	err := reg.InsertInput(mustName(t, "b"), sim.NewSamplingPort(4, 0).Input())
	var reconfErr *Error
	require.ErrorAs(t, err, &reconfErr)
	assert.Equal(t, Storage, reconfErr.Kind)
}

func Test_RegistrySummaryCountsLiveEntries(t *testing.T) {
	reg, _, _ := newFixtureRegistry(t)
	summary := reg.Summary()
	assert.Equal(t, uint(1), summary.Inputs)
	assert.Equal(t, uint(1), summary.Outputs)
}

type fixedTimeSource struct{ now time.Duration }

func (f fixedTimeSource) Now() (time.Duration, error) { return f.now, nil }
