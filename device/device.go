// Package device provides the register backend abstraction and the poll
// module bridging device registers into the variable network. Register
// values are opaque to the rest of the application.
package device

import (
	"github.com/procsys/appcore/version"
)

// Backend is a named register space. Implementations must be safe for
// concurrent use.
type Backend interface {
	// Open makes the backend functional. Opening an open backend is a
	// no-op.
	Open() error
	// Close releases the backend. Reads and writes fail afterwards.
	Close() error
	// IsFunctional reports whether reads and writes currently succeed.
	IsFunctional() bool
	// Read returns the current value of a register and the version of its
	// last write.
	Read(name string) (any, version.Number, error)
	// Write stores a value into a register under a fresh version.
	Write(name string, value any) (version.Number, error)
	// List returns all register names in lexical order.
	List() []string
}
