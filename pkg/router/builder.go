package router

import (
	"github.com/arinc653/router/pkg/portio"
	"github.com/arinc653/router/pkg/types"
)

// Builder incrementally assembles a RouteTable before sealing it into
// an immutable Router.
type Builder struct {
	maxRoutes int
	entries   map[types.VirtualLinkId]routeEntry
}

type routeEntry struct {
	input   portio.RouterInput
	outputs []portio.RouterOutput
}

// NewBuilder starts a builder bounded to maxRoutes virtual links.
func NewBuilder(maxRoutes int) *Builder {
	return &Builder{maxRoutes: maxRoutes, entries: map[types.VirtualLinkId]routeEntry{}}
}

// Route registers vl's input and ordered outputs. It is an error to
// call Route twice for the same vl.
func (b *Builder) Route(vl types.VirtualLinkId, input portio.RouterInput, outputs []portio.RouterOutput) (*Builder, error) {
	if _, exists := b.entries[vl]; exists {
		return b, &BuildError{Kind: DuplicateVL}
	}
	if len(b.entries) >= b.maxRoutes {
		return b, &BuildError{Kind: BuildStorage}
	}
	b.entries[vl] = routeEntry{input: input, outputs: append([]portio.RouterOutput(nil), outputs...)}
	return b, nil
}

// Build seals the accumulated routes into an immutable Router.
func (b *Builder) Build() (*Router, error) {
	table := RouteTable{
		inputs:  make(map[types.VirtualLinkId]portio.RouterInput, len(b.entries)),
		outputs: make(map[types.VirtualLinkId][]portio.RouterOutput, len(b.entries)),
	}
	for vl, entry := range b.entries {
		table.inputs[vl] = entry.input
		table.outputs[vl] = entry.outputs
	}
	return &Router{table: table}, nil
}
