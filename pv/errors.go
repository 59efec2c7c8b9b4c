package pv

import "errors"

// Sentinel errors for variable wiring and delivery.
var (
	ErrAlreadyGrouped = errors.New("input already belongs to a read-any group")
	ErrTypeMismatch   = errors.New("value type mismatch")
	ErrLengthMismatch = errors.New("array length mismatch")
	ErrBadValue       = errors.New("value not convertible")
)
