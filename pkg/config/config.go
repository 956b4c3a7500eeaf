// Package config defines the router's runtime configuration surface:
// the in-memory RouterConfig a Reconfigurator consumes (spec §4.3), a
// validating builder that mirrors the original source's error
// taxonomy, and the two serializations that surface it — a YAML
// authoring format (yaml.go) and a fixed binary wire format (wire.go)
// for the channel the runtime actually reads at reconfiguration time.
package config

import (
	"time"

	"github.com/arinc653/router/pkg/types"
)

// Limits bounds the number of resources a RouterConfig may hold,
// mirroring the const generics (IN, OUT, IFS, PORTS) the original
// source uses to size its fixed-capacity maps at compile time. Here
// they are runtime-checked bounds instead, since Go has no const
// generics; a partition picks them once at startup and a Builder
// enforces them for the life of the config.
type Limits struct {
	MaxVirtualLinks      int
	MaxDestinationsPerVL int
	MaxInterfaces        int
	MaxPorts             int
}

// DefaultLimits returns generous limits suitable for host-harness use;
// a real partition should size these to its actual static surface.
func DefaultLimits() Limits {
	return Limits{
		MaxVirtualLinks:      64,
		MaxDestinationsPerVL: 16,
		MaxInterfaces:        16,
		MaxPorts:             64,
	}
}

// QueuingDiscipline re-exports types.QueuingDiscipline so config
// authors don't need to import pkg/types directly for this one enum.
type QueuingDiscipline = types.QueuingDiscipline

const (
	FIFO     = types.FIFO
	Priority = types.Priority
)

// SamplingInConfig configures a sampling port's destination side: the
// end the router reads from.
type SamplingInConfig struct {
	MsgSize       int
	RefreshPeriod time.Duration
}

// SamplingOutConfig configures a sampling port's source side: the end
// the router writes to.
type SamplingOutConfig struct {
	MsgSize int
}

// QueuingInConfig configures a queuing port's receiver side.
type QueuingInConfig struct {
	Discipline QueuingDiscipline
	MsgCount   int
	MsgSize    int
}

// QueuingOutConfig configures a queuing port's sender side.
type QueuingOutConfig struct {
	Discipline QueuingDiscipline
	MsgCount   int
	MsgSize    int
}

// PortKind tags which variant a PortConfig holds.
type PortKind int

const (
	SamplingIn PortKind = iota
	SamplingOut
	QueuingIn
	QueuingOut
)

// String implements fmt.Stringer.
func (k PortKind) String() string {
	switch k {
	case SamplingIn:
		return "sampling_in"
	case SamplingOut:
		return "sampling_out"
	case QueuingIn:
		return "queuing_in"
	case QueuingOut:
		return "queuing_out"
	default:
		return "unknown"
	}
}

// PortConfig is a hypervisor port configuration, tagged by Kind. Only
// the field matching Kind is meaningful.
type PortConfig struct {
	Kind        PortKind
	SamplingIn  SamplingInConfig
	SamplingOut SamplingOutConfig
	QueuingIn   QueuingInConfig
	QueuingOut  QueuingOutConfig
}

// NewSamplingIn builds a SamplingIn PortConfig.
func NewSamplingIn(msgSize int, refreshPeriod time.Duration) PortConfig {
	return PortConfig{Kind: SamplingIn, SamplingIn: SamplingInConfig{MsgSize: msgSize, RefreshPeriod: refreshPeriod}}
}

// NewSamplingOut builds a SamplingOut PortConfig.
func NewSamplingOut(msgSize int) PortConfig {
	return PortConfig{Kind: SamplingOut, SamplingOut: SamplingOutConfig{MsgSize: msgSize}}
}

// NewQueuingIn builds a QueuingIn PortConfig.
func NewQueuingIn(discipline QueuingDiscipline, msgCount, msgSize int) PortConfig {
	return PortConfig{Kind: QueuingIn, QueuingIn: QueuingInConfig{Discipline: discipline, MsgCount: msgCount, MsgSize: msgSize}}
}

// NewQueuingOut builds a QueuingOut PortConfig.
func NewQueuingOut(discipline QueuingDiscipline, msgCount, msgSize int) PortConfig {
	return PortConfig{Kind: QueuingOut, QueuingOut: QueuingOutConfig{Discipline: discipline, MsgCount: msgCount, MsgSize: msgSize}}
}

// InterfaceConfig configures a network interface resource.
type InterfaceConfig struct {
	Source      string
	Destination string
	Rate        types.DataRate
	MTU         int
}

// VirtualLinkConfig is one virtual link: a single source resource, a
// set of destination resources, and a forwarding period.
type VirtualLinkConfig struct {
	Source       types.Name
	Destinations []types.Name
	Period       time.Duration
}

// RouterConfig is the complete, validated configuration of a router
// partition: its stack size, named resources, and forwarding table.
type RouterConfig struct {
	StackSize    uint32
	VirtualLinks map[types.VirtualLinkId]VirtualLinkConfig
	Interfaces   map[types.Name]InterfaceConfig
	Ports        map[types.Name]PortConfig
}

// Builder incrementally constructs a RouterConfig, validating each
// addition against Limits and the original source's error taxonomy
// (spec's RouterConfigError kinds: Source, DataRate, Port, VirtualLink,
// Interface, Schedule, Destination, Storage, Format).
type Builder struct {
	limits Limits
	cfg    RouterConfig
	err    error
}

// NewBuilder starts a builder for a partition with the given stack
// size and resource limits.
func NewBuilder(stackSize uint32, limits Limits) *Builder {
	return &Builder{
		limits: limits,
		cfg: RouterConfig{
			StackSize:    stackSize,
			VirtualLinks: make(map[types.VirtualLinkId]VirtualLinkConfig),
			Interfaces:   make(map[types.Name]InterfaceConfig),
			Ports:        make(map[types.Name]PortConfig),
		},
	}
}

// Port registers a hypervisor port resource under name.
func (b *Builder) Port(name string, cfg PortConfig) *Builder {
	if b.err != nil {
		return b
	}
	n, err := types.NewName(name)
	if err != nil {
		b.err = &Error{Kind: Port, Cause: err}
		return b
	}
	if _, exists := b.cfg.Ports[n]; exists {
		b.err = &Error{Kind: Port}
		return b
	}
	if len(b.cfg.Ports) >= b.limits.MaxPorts {
		b.err = &Error{Kind: Storage}
		return b
	}
	b.cfg.Ports[n] = cfg
	return b
}

// Interface registers a network interface resource under name.
func (b *Builder) Interface(name string, cfg InterfaceConfig) *Builder {
	if b.err != nil {
		return b
	}
	n, err := types.NewName(name)
	if err != nil {
		b.err = &Error{Kind: Interface, Cause: err}
		return b
	}
	if _, exists := b.cfg.Interfaces[n]; exists {
		b.err = &Error{Kind: Interface}
		return b
	}
	if len(b.cfg.Interfaces) >= b.limits.MaxInterfaces {
		b.err = &Error{Kind: Storage}
		return b
	}
	b.cfg.Interfaces[n] = cfg
	return b
}

// VirtualLink starts a new virtual link with the given id and source
// resource name. The source must already be registered via Port or
// Interface.
func (b *Builder) VirtualLink(vl types.VirtualLinkId, source string) *Builder {
	if b.err != nil {
		return b
	}
	src, err := types.NewName(source)
	if err != nil {
		b.err = &Error{Kind: Source, Cause: err}
		return b
	}
	if !b.hasResource(src) {
		b.err = &Error{Kind: Source}
		return b
	}
	if _, exists := b.cfg.VirtualLinks[vl]; exists {
		b.err = &Error{Kind: VirtualLink}
		return b
	}
	if len(b.cfg.VirtualLinks) >= b.limits.MaxVirtualLinks {
		b.err = &Error{Kind: Storage}
		return b
	}
	b.cfg.VirtualLinks[vl] = VirtualLinkConfig{Source: src}
	return b
}

// Destination adds a destination resource to an existing virtual
// link. The destination must already be registered via Port or
// Interface.
func (b *Builder) Destination(vl types.VirtualLinkId, destination string) *Builder {
	if b.err != nil {
		return b
	}
	dst, err := types.NewName(destination)
	if err != nil {
		b.err = &Error{Kind: Destination, Cause: err}
		return b
	}
	if !b.hasResource(dst) {
		b.err = &Error{Kind: Destination}
		return b
	}
	entry, ok := b.cfg.VirtualLinks[vl]
	if !ok {
		b.err = &Error{Kind: VirtualLink}
		return b
	}
	if len(entry.Destinations) >= b.limits.MaxDestinationsPerVL {
		b.err = &Error{Kind: Storage}
		return b
	}
	entry.Destinations = append(entry.Destinations, dst)
	b.cfg.VirtualLinks[vl] = entry
	return b
}

// Schedule sets the forwarding period of an existing virtual link.
func (b *Builder) Schedule(vl types.VirtualLinkId, period time.Duration) *Builder {
	if b.err != nil {
		return b
	}
	entry, ok := b.cfg.VirtualLinks[vl]
	if !ok {
		b.err = &Error{Kind: VirtualLink}
		return b
	}
	entry.Period = period
	b.cfg.VirtualLinks[vl] = entry
	return b
}

func (b *Builder) hasResource(name types.Name) bool {
	if _, ok := b.cfg.Interfaces[name]; ok {
		return true
	}
	_, ok := b.cfg.Ports[name]
	return ok
}

// Build validates and returns the assembled RouterConfig. It fails if
// any prior step failed, or if any virtual link has a zero period
// (spec: "RouterConfigError::Schedule" for an un-scheduled VL).
func (b *Builder) Build() (RouterConfig, error) {
	if b.err != nil {
		return RouterConfig{}, b.err
	}
	for _, vl := range b.cfg.VirtualLinks {
		if vl.Period <= 0 {
			return RouterConfig{}, &Error{Kind: Schedule}
		}
	}
	return b.cfg, nil
}
