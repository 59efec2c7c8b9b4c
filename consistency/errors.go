package consistency

import "errors"

// Usage errors for consistency groups. A mismatching update is not an
// error; Update reports it as a false result.
var (
	ErrActive        = errors.New("consistency group already active")
	ErrDuplicate     = errors.New("element already in consistency group")
	ErrHistoryLength = errors.New("history length must be at least 1")
	ErrModeOrder     = errors.New("exact group may not follow historized group for this element")
)
