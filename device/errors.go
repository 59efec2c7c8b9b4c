package device

import "errors"

var (
	// ErrUnknownRegister indicates access to a register name the backend
	// does not have.
	ErrUnknownRegister = errors.New("unknown register")

	// ErrNotFunctional indicates the backend is open but currently unable
	// to serve reads or writes.
	ErrNotFunctional = errors.New("device not functional")

	// ErrClosed indicates access to a closed backend.
	ErrClosed = errors.New("device closed")

	// ErrRegisterType indicates a register value of an unexpected type.
	ErrRegisterType = errors.New("register has wrong type")
)
