// Package pv implements process variables: typed, versioned channels
// connecting application modules with each other and with the control
// system. An output owned by one module fans its writes out to every input
// connected to the same variable path. Push inputs buffer updates in a
// bounded queue and make each delivered update externally visible as the
// input's current value and version.
//
// Each variable direction is single-producer/single-consumer. Blocking
// reads take a context; there is no shared lock between modules.
package pv

import (
	"github.com/google/uuid"

	"github.com/procsys/appcore/version"
)

// ElementID is the stable opaque identity of a process variable endpoint.
// The zero value is invalid.
type ElementID string

func newElementID() ElementID {
	return ElementID(uuid.NewString())
}

// IsValid reports whether the ID identifies an element.
func (id ElementID) IsValid() bool {
	return id != ""
}

func (id ElementID) String() string {
	return string(id)
}

// Element is the common surface of inputs and outputs: stable identity,
// variable path, and the currently visible value and version.
type Element interface {
	ID() ElementID
	Path() string
	Version() version.Number
	// Value returns a copy of the currently visible value, boxed. Inputs
	// report the last applied update, outputs the last written value.
	Value() any
}

// UpdateEvent is the result of one synchronization wait: which element
// fired and the version it now carries. The element's visible value is
// already updated when the event is returned.
type UpdateEvent struct {
	ID      ElementID
	Version version.Number
}

// IsValid reports whether the event refers to an actual update. A zero
// event means "no update available".
func (e UpdateEvent) IsValid() bool {
	return e.ID.IsValid()
}
