package app

import "errors"

// Sentinel errors for application assembly and the control-system surface.
var (
	ErrInitialised     = errors.New("application already initialised")
	ErrDuplicateModule = errors.New("module name already registered")
	ErrDuplicateFeeder = errors.New("variable already has a feeder")
	ErrUnknownVariable = errors.New("variable not in network")
	ErrNotWritable     = errors.New("variable fed by the application")
)
