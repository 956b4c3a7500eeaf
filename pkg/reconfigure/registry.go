package reconfigure

import (
	"github.com/arinc653/router/pkg/bitset"
	"github.com/arinc653/router/pkg/portio"
	"github.com/arinc653/router/pkg/types"
)

// Registry holds every RouterInput and RouterOutput the partition was
// started with, keyed by the name a config.PortConfig or
// config.InterfaceConfig refers to it by. A reconfiguration never
// creates or destroys resources; it only decides which of them a
// virtual link uses this generation (spec §5: "reconfiguration swaps
// the route table, never the underlying ports or interfaces").
type Registry struct {
	maxInputs  int
	maxOutputs int

	inputNames map[types.Name]uint32
	inputs     []portio.RouterInput
	inputLive  bitset.TinyBitset

	outputNames map[types.Name]uint32
	outputs     []portio.RouterOutput
	outputLive  bitset.TinyBitset
}

// NewRegistry creates an empty registry bounded to maxInputs and
// maxOutputs distinct resources.
func NewRegistry(maxInputs, maxOutputs int) *Registry {
	return &Registry{
		maxInputs:   maxInputs,
		maxOutputs:  maxOutputs,
		inputNames:  map[types.Name]uint32{},
		outputNames: map[types.Name]uint32{},
	}
}

// InsertInput registers name as a resolvable RouterInput. Re-inserting
// an existing name replaces its resource in place without consuming a
// new slot.
func (r *Registry) InsertInput(name types.Name, input portio.RouterInput) error {
	if idx, exists := r.inputNames[name]; exists {
		r.inputs[idx] = input
		return nil
	}
	if len(r.inputs) >= r.maxInputs {
		return &Error{Kind: Storage}
	}
	idx := uint32(len(r.inputs))
	r.inputs = append(r.inputs, input)
	r.inputNames[name] = idx
	r.inputLive.Insert(idx)
	return nil
}

// InsertOutput registers name as a resolvable RouterOutput.
func (r *Registry) InsertOutput(name types.Name, output portio.RouterOutput) error {
	if idx, exists := r.outputNames[name]; exists {
		r.outputs[idx] = output
		return nil
	}
	if len(r.outputs) >= r.maxOutputs {
		return &Error{Kind: Storage}
	}
	idx := uint32(len(r.outputs))
	r.outputs = append(r.outputs, output)
	r.outputNames[name] = idx
	r.outputLive.Insert(idx)
	return nil
}

// GetInput resolves a registered input by name.
func (r *Registry) GetInput(name types.Name) (portio.RouterInput, bool) {
	idx, ok := r.inputNames[name]
	if !ok {
		return nil, false
	}
	return r.inputs[idx], true
}

// GetOutput resolves a registered output by name.
func (r *Registry) GetOutput(name types.Name) (portio.RouterOutput, bool) {
	idx, ok := r.outputNames[name]
	if !ok {
		return nil, false
	}
	return r.outputs[idx], true
}

// Summary reports how many input and output slots are currently live,
// for startup diagnostics and logging.
type Summary struct {
	Inputs  uint
	Outputs uint
}

// Summary reports the registry's current occupancy.
func (r *Registry) Summary() Summary {
	return Summary{Inputs: r.inputLive.Count(), Outputs: r.outputLive.Count()}
}
