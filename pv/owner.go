package pv

import (
	"sync"

	"github.com/procsys/appcore/version"
)

// Owner is the variable household of one application module: its name, its
// declared inputs and outputs, and the version stamp applied to writes.
//
// A module sets a fresh current version once per processing cycle; every
// output written afterwards carries that version, which is what makes
// cross-channel consistency matching possible on the consumer side.
type Owner struct {
	name string

	mu      sync.Mutex
	current version.Number
	outputs []Output
	inputs  []Input
}

// NewOwner creates an Owner for the module with the given name. The initial
// current version is freshly constructed, so initial-value writes from
// Prepare share one version.
func NewOwner(name string) *Owner {
	return &Owner{
		name:    name,
		current: version.New(),
	}
}

// Name returns the owning module's name.
func (o *Owner) Name() string {
	return o.name
}

// SetCurrentVersion sets the version stamped on subsequent writes.
func (o *Owner) SetCurrentVersion(v version.Number) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.current = v
}

// NewVersion constructs a fresh version, makes it current and returns it.
// The usual call at the top of a processing cycle.
func (o *Owner) NewVersion() version.Number {
	v := version.New()
	o.SetCurrentVersion(v)
	return v
}

// CurrentVersion returns the version stamped on writes.
func (o *Owner) CurrentVersion() version.Number {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.current
}

// Outputs returns the outputs declared by this owner, in declaration order.
func (o *Owner) Outputs() []Output {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]Output, len(o.outputs))
	copy(out, o.outputs)
	return out
}

// Inputs returns the push inputs declared by this owner, in declaration
// order.
func (o *Owner) Inputs() []Input {
	o.mu.Lock()
	defer o.mu.Unlock()
	in := make([]Input, len(o.inputs))
	copy(in, o.inputs)
	return in
}

func (o *Owner) registerOutput(out Output) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.outputs = append(o.outputs, out)
}

func (o *Owner) registerInput(in Input) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.inputs = append(o.inputs, in)
}
