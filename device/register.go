package device

import (
	"fmt"

	"github.com/procsys/appcore/pv"
	"github.com/procsys/appcore/version"
)

// Register is a typed handle to one backend register.
type Register[T pv.Scalar] struct {
	backend Backend
	name    string
}

// NewRegister binds a typed handle to a register name. The binding is not
// validated until the first access.
func NewRegister[T pv.Scalar](b Backend, name string) *Register[T] {
	return &Register[T]{backend: b, name: name}
}

// Name returns the register name.
func (r *Register[T]) Name() string { return r.name }

// Read returns the register value and the version of its last write.
func (r *Register[T]) Read() (T, version.Number, error) {
	var zero T
	raw, v, err := r.backend.Read(r.name)
	if err != nil {
		return zero, version.Null(), err
	}
	value, ok := raw.(T)
	if !ok {
		return zero, version.Null(), fmt.Errorf("register %s: have %T, want %T: %w",
			r.name, raw, zero, ErrRegisterType)
	}
	return value, v, nil
}

// Write stores a value into the register under a fresh version.
func (r *Register[T]) Write(value T) (version.Number, error) {
	return r.backend.Write(r.name, value)
}
