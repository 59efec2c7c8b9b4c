package config

import (
	"fmt"
	"strings"
)

// Reader resolves typed per-module settings addressed as "module/key".
// A missing section or key falls back to the caller's default; a value of
// the wrong type is an error.
type Reader struct {
	sections map[string]map[string]any
}

// NewReader builds a Reader over an already decoded settings tree.
func NewReader(sections map[string]map[string]any) *Reader {
	return &Reader{sections: sections}
}

// Has reports whether the given "module/key" path is present.
func (r *Reader) Has(path string) bool {
	_, ok := r.lookup(path)
	return ok
}

func (r *Reader) lookup(path string) (any, bool) {
	if r == nil || r.sections == nil {
		return nil, false
	}
	section, key, ok := strings.Cut(path, "/")
	if !ok {
		return nil, false
	}
	values, ok := r.sections[section]
	if !ok {
		return nil, false
	}
	v, ok := values[key]
	return v, ok
}

// Get returns the setting at "module/key" converted to T, or fallback when
// the key is absent.
func Get[T int | int64 | float64 | bool | string](r *Reader, path string, fallback T) (T, error) {
	raw, ok := r.lookup(path)
	if !ok {
		return fallback, nil
	}

	if v, ok := raw.(T); ok {
		return v, nil
	}

	// YAML integers decode as uint64/int64/int and floats as float64;
	// widen numeric values into the requested type when lossless.
	var out T
	switch any(out).(type) {
	case int:
		if n, ok := asInt64(raw); ok {
			return any(int(n)).(T), nil
		}
	case int64:
		if n, ok := asInt64(raw); ok {
			return any(n).(T), nil
		}
	case float64:
		if n, ok := asInt64(raw); ok {
			return any(float64(n)).(T), nil
		}
	}
	return fallback, fmt.Errorf("setting %s: have %T, want %T: %w", path, raw, out, ErrWrongType)
}

func asInt64(raw any) (int64, bool) {
	switch n := raw.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case uint64:
		return int64(n), true
	}
	return 0, false
}
