package readany

import "errors"

// Usage errors for read-any groups. All of them indicate a mistake in the
// calling code, never a runtime condition to retry.
var (
	ErrNotFinalised = errors.New("read-any group not finalised")
	ErrFinalised    = errors.New("read-any group already finalised")
	ErrDuplicate    = errors.New("element already in read-any group")
	ErrNotMember    = errors.New("element not in read-any group")
	ErrInterrupted  = errors.New("read-any wait interrupted")
)
