// Package version provides totally ordered version markers for process
// variable updates. Every constructed Number is strictly greater than all
// Numbers constructed before it, process-wide. The zero value is the null
// marker, which orders before everything else.
package version

import (
	"fmt"
	"sync/atomic"
	"time"
)

var counter atomic.Uint64

// Number is a totally ordered update marker. Two Numbers are equal only if
// they refer to the same update event. The zero value is the null marker.
//
// Number is comparable and safe to use as a map key.
type Number struct {
	seq  uint64
	wall int64 // origin timestamp, unix nanoseconds
}

// New returns a fresh Number strictly greater than every Number constructed
// before it, stamped with the current wall-clock time.
func New() Number {
	return Number{
		seq:  counter.Add(1),
		wall: time.Now().UnixNano(),
	}
}

// NewAt returns a fresh Number carrying an explicit origin timestamp.
// Ordering is still by construction order, not by the given time.
func NewAt(t time.Time) Number {
	return Number{
		seq:  counter.Add(1),
		wall: t.UnixNano(),
	}
}

// Null returns the null marker. Equivalent to the zero value.
func Null() Number {
	return Number{}
}

// IsNull reports whether n is the null marker.
func (n Number) IsNull() bool {
	return n.seq == 0
}

// Compare returns -1 if n orders before other, +1 if after, and 0 if both
// refer to the same update event.
func (n Number) Compare(other Number) int {
	switch {
	case n.seq < other.seq:
		return -1
	case n.seq > other.seq:
		return 1
	default:
		return 0
	}
}

// Before reports whether n orders strictly before other.
func (n Number) Before(other Number) bool {
	return n.seq < other.seq
}

// After reports whether n orders strictly after other.
func (n Number) After(other Number) bool {
	return n.seq > other.seq
}

// Equal reports whether n and other refer to the same update event.
func (n Number) Equal(other Number) bool {
	return n.seq == other.seq
}

// Time returns the origin timestamp stamped at construction. The null
// marker returns the zero time.
func (n Number) Time() time.Time {
	if n.seq == 0 {
		return time.Time{}
	}
	return time.Unix(0, n.wall)
}

// String returns a short human-readable form, mainly for logs and tests.
func (n Number) String() string {
	if n.seq == 0 {
		return "v{null}"
	}
	return fmt.Sprintf("v{%d}", n.seq)
}
