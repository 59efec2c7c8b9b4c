package config

import "errors"

// ErrWrongType indicates a setting value whose YAML type does not match the
// requested Go type.
var ErrWrongType = errors.New("setting has wrong type")
