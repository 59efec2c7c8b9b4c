package pv

import (
	"fmt"
	"reflect"

	"github.com/procsys/appcore/version"
)

// Connect wires an output to a consumer input. Both must carry the same
// value type and, for arrays, the same fixed length. Every subsequent Write
// on the output is delivered to the input's queue.
func Connect(out Output, in Input) error {
	if out.Kind() != in.Kind() {
		return fmt.Errorf("connect %s -> %s: %w: %s vs %s",
			out.Path(), in.Path(), ErrTypeMismatch, out.Kind(), in.Kind())
	}
	if out.FixedLen() != in.FixedLen() {
		return fmt.Errorf("connect %s -> %s: %w: %d vs %d",
			out.Path(), in.Path(), ErrLengthMismatch, out.FixedLen(), in.FixedLen())
	}
	out.addConsumer(in)
	return nil
}

// PushRaw feeds a dynamically typed value into an input, converting it to
// the input's value type. This is how externally fed variables (those
// without an application-side feeder) receive writes from the control
// system adapter.
func PushRaw(in Input, value any, v version.Number) error {
	if err := in.pushRaw(value, v); err != nil {
		return fmt.Errorf("push %s: %w", in.Path(), err)
	}
	return nil
}

func scalarTypeName[T Scalar]() string {
	return reflect.TypeOf((*T)(nil)).Elem().String()
}

func arrayTypeName[T Scalar]() string {
	return "[]" + reflect.TypeOf((*T)(nil)).Elem().String()
}

// convertScalar converts a dynamically typed value to T. Numeric kinds
// convert freely; strings only convert to strings, so a number never turns
// into a rune sequence by accident.
func convertScalar[T Scalar](raw any) (T, error) {
	if v, ok := raw.(T); ok {
		return v, nil
	}

	var zero T
	target := reflect.TypeOf((*T)(nil)).Elem()
	rv := reflect.ValueOf(raw)
	if !rv.IsValid() {
		return zero, fmt.Errorf("%w: nil to %s", ErrBadValue, target)
	}

	if (target.Kind() == reflect.String) != (rv.Kind() == reflect.String) {
		return zero, fmt.Errorf("%w: %T to %s", ErrBadValue, raw, target)
	}
	if target.Kind() == reflect.Bool || rv.Kind() == reflect.Bool {
		return zero, fmt.Errorf("%w: %T to %s", ErrBadValue, raw, target)
	}
	if !rv.CanConvert(target) {
		return zero, fmt.Errorf("%w: %T to %s", ErrBadValue, raw, target)
	}
	return rv.Convert(target).Interface().(T), nil
}

// convertArray converts a dynamically typed value to []T of the given fixed
// length. Accepts []T, []any with convertible elements, and other slice
// types with convertible elements (e.g. []float64 from JSON decoding).
func convertArray[T Scalar](length int) func(any) ([]T, error) {
	return func(raw any) ([]T, error) {
		if v, ok := raw.([]T); ok {
			if len(v) != length {
				return nil, fmt.Errorf("%w: got %d, want %d", ErrLengthMismatch, len(v), length)
			}
			return copySlice(v), nil
		}

		rv := reflect.ValueOf(raw)
		if !rv.IsValid() || rv.Kind() != reflect.Slice {
			return nil, fmt.Errorf("%w: %T to []%s", ErrBadValue, raw, reflect.TypeOf((*T)(nil)).Elem())
		}
		if rv.Len() != length {
			return nil, fmt.Errorf("%w: got %d, want %d", ErrLengthMismatch, rv.Len(), length)
		}

		out := make([]T, length)
		for i := 0; i < length; i++ {
			elem := rv.Index(i)
			if elem.Kind() == reflect.Interface {
				elem = elem.Elem()
			}
			converted, err := convertScalar[T](elem.Interface())
			if err != nil {
				return nil, fmt.Errorf("index %d: %w", i, err)
			}
			out[i] = converted
		}
		return out, nil
	}
}
