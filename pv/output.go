package pv

import (
	"fmt"
	"sync"

	"github.com/procsys/appcore/version"
)

// Output is the producer-side surface used by the application when wiring
// the variable network.
type Output interface {
	Element
	// Written counts completed writes on this output.
	Written() uint64
	// Kind names the carried value type, e.g. "int32" or "[]float64".
	Kind() string
	// FixedLen returns the fixed array length, 0 for scalars.
	FixedLen() int

	addConsumer(in Input)
}

// output carries the shared state of all outputs: the staged value, the
// version of the last write and the connected consumer inputs.
type output[V any] struct {
	id    ElementID
	path  string
	owner *Owner

	typeName string
	length   int
	copyV    func(V) V
	validate func(V) error

	mu        sync.RWMutex
	value     V
	version   version.Number
	written   uint64
	consumers []Input
}

func (o *output[V]) ID() ElementID { return o.id }

func (o *output[V]) Path() string { return o.path }

// Version returns the version of the last write, or the null version
// before the first write.
func (o *output[V]) Version() version.Number {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.version
}

// Value returns a boxed copy of the staged value.
func (o *output[V]) Value() any {
	return o.Get()
}

// Get returns a copy of the staged value.
func (o *output[V]) Get() V {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.copyV(o.value)
}

// Set stages a value without sending it.
func (o *output[V]) Set(v V) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.value = o.copyV(v)
}

func (o *output[V]) Written() uint64 {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.written
}

// Write sends the staged value to every connected input, stamped with the
// owner's current version.
func (o *output[V]) Write() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.validate != nil {
		if err := o.validate(o.value); err != nil {
			return fmt.Errorf("write %s: %w", o.path, err)
		}
	}

	v := o.owner.CurrentVersion()
	o.version = v
	o.written++

	for _, in := range o.consumers {
		in.pushUpdate(update{value: o.copyV(o.value), version: v})
	}
	return nil
}

// SetAndWrite stages a value and sends it in one call.
func (o *output[V]) SetAndWrite(v V) error {
	o.Set(v)
	return o.Write()
}

func (o *output[V]) Kind() string { return o.typeName }

func (o *output[V]) FixedLen() int { return o.length }

func (o *output[V]) addConsumer(in Input) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.consumers = append(o.consumers, in)
}

// ScalarOutput is an output carrying a single value.
type ScalarOutput[T Scalar] struct {
	output[T]
}

// NewScalarOutput declares a scalar output on the given owner.
func NewScalarOutput[T Scalar](owner *Owner, path string) *ScalarOutput[T] {
	out := &ScalarOutput[T]{
		output: output[T]{
			id:       newElementID(),
			path:     path,
			owner:    owner,
			typeName: scalarTypeName[T](),
			copyV:    func(v T) T { return v },
		},
	}
	owner.registerOutput(out)
	return out
}

// ArrayOutput is an output carrying a fixed-length array.
type ArrayOutput[T Scalar] struct {
	output[[]T]
}

// NewArrayOutput declares an array output of the given fixed length.
func NewArrayOutput[T Scalar](owner *Owner, path string, length int) *ArrayOutput[T] {
	out := &ArrayOutput[T]{
		output: output[[]T]{
			id:       newElementID(),
			path:     path,
			owner:    owner,
			typeName: arrayTypeName[T](),
			length:   length,
			copyV:    copySlice[T],
			validate: func(v []T) error {
				if len(v) != length {
					return fmt.Errorf("%w: got %d, want %d", ErrLengthMismatch, len(v), length)
				}
				return nil
			},
		},
	}
	out.value = make([]T, length)
	owner.registerOutput(out)
	return out
}
