package pv

import (
	"context"
	"sync"

	"github.com/procsys/appcore/version"
)

// Scalar constrains the element types a process variable can carry,
// mirroring the data types of the register layer.
type Scalar interface {
	~bool | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64 | ~string
}

// PushChannel is the surface a read-any group needs from a push input:
// identity, queue subscription and single-update delivery.
type PushChannel interface {
	Element
	// Depth returns the update queue capacity.
	Depth() int
	// Pending returns the number of queued, not yet delivered updates.
	Pending() int
	// Subscribe attaches a read-any notification channel. Fails with
	// ErrAlreadyGrouped if the input already belongs to a group.
	Subscribe(notify chan<- ElementID) error
	// TakeUpdate delivers one pending update, making it the visible value,
	// and reports whether one was pending.
	TakeUpdate() (UpdateEvent, bool)
}

// Input is the full consumer-side surface used by the application when
// wiring and feeding the variable network.
type Input interface {
	PushChannel
	// LostUpdates counts updates retired due to queue overflow.
	LostUpdates() uint64
	// Delivered counts updates made visible on this input.
	Delivered() uint64
	// Kind names the carried value type, e.g. "int32" or "[]float64".
	Kind() string
	// FixedLen returns the fixed array length, 0 for scalars.
	FixedLen() int

	pushUpdate(u update)
	pushRaw(value any, v version.Number) error
}

// InputOption configures an input at construction time.
type InputOption func(*inputSettings)

type inputSettings struct {
	depth int
}

// WithQueueDepth overrides the default update queue depth.
func WithQueueDepth(depth int) InputOption {
	return func(s *inputSettings) { s.depth = depth }
}

// pushInput carries the shared state of all push inputs: the bounded update
// queue and the externally visible value and version.
type pushInput[V any] struct {
	id    ElementID
	path  string
	owner *Owner
	queue *updateQueue

	typeName string
	length   int // fixed array length, 0 for scalars
	copyV    func(V) V
	convert  func(any) (V, error)

	mu        sync.RWMutex
	value     V
	version   version.Number
	delivered uint64
}

func newPushInput[V any](
	owner *Owner,
	path string,
	typeName string,
	length int,
	copyV func(V) V,
	convert func(any) (V, error),
	opts []InputOption,
) *pushInput[V] {
	settings := inputSettings{depth: DefaultQueueDepth}
	for _, opt := range opts {
		opt(&settings)
	}

	id := newElementID()
	return &pushInput[V]{
		id:       id,
		path:     path,
		owner:    owner,
		queue:    newUpdateQueue(id, settings.depth),
		typeName: typeName,
		length:   length,
		copyV:    copyV,
		convert:  convert,
	}
}

func (in *pushInput[V]) ID() ElementID { return in.id }

func (in *pushInput[V]) Path() string { return in.path }

func (in *pushInput[V]) Depth() int { return in.queue.depth() }

func (in *pushInput[V]) Pending() int { return in.queue.pending() }

func (in *pushInput[V]) LostUpdates() uint64 { return in.queue.lostCount() }

func (in *pushInput[V]) Delivered() uint64 {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return in.delivered
}

// Version returns the version of the last applied update, or the null
// version before the first delivery.
func (in *pushInput[V]) Version() version.Number {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return in.version
}

// Value returns a boxed copy of the currently visible value.
func (in *pushInput[V]) Value() any {
	return in.Get()
}

// Get returns a copy of the currently visible value.
func (in *pushInput[V]) Get() V {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return in.copyV(in.value)
}

func (in *pushInput[V]) Subscribe(notify chan<- ElementID) error {
	return in.queue.subscribe(notify)
}

func (in *pushInput[V]) TakeUpdate() (UpdateEvent, bool) {
	u, ok := in.queue.tryPop()
	if !ok {
		return UpdateEvent{}, false
	}
	return in.apply(u), true
}

// Read blocks until an update is pending, applies it and returns the event.
func (in *pushInput[V]) Read(ctx context.Context) (UpdateEvent, error) {
	u, err := in.queue.pop(ctx)
	if err != nil {
		return UpdateEvent{}, err
	}
	return in.apply(u), nil
}

// ReadNonBlocking applies one pending update if available.
func (in *pushInput[V]) ReadNonBlocking() (UpdateEvent, bool) {
	return in.TakeUpdate()
}

// ReadLatest drains the queue, applying every pending update, and reports
// whether at least one was applied. The visible value afterwards is the
// newest pending one.
func (in *pushInput[V]) ReadLatest() (UpdateEvent, bool) {
	var (
		ev      UpdateEvent
		applied bool
	)
	for {
		next, ok := in.TakeUpdate()
		if !ok {
			return ev, applied
		}
		ev, applied = next, true
	}
}

// ReadAndGet blocks for the next update and returns the new value.
func (in *pushInput[V]) ReadAndGet(ctx context.Context) (V, error) {
	if _, err := in.Read(ctx); err != nil {
		var zero V
		return zero, err
	}
	return in.Get(), nil
}

func (in *pushInput[V]) apply(u update) UpdateEvent {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.value = u.value.(V)
	in.version = u.version
	in.delivered++
	return UpdateEvent{ID: in.id, Version: u.version}
}

func (in *pushInput[V]) Kind() string { return in.typeName }

func (in *pushInput[V]) FixedLen() int { return in.length }

func (in *pushInput[V]) pushUpdate(u update) {
	in.queue.push(u)
}

func (in *pushInput[V]) pushRaw(value any, v version.Number) error {
	converted, err := in.convert(value)
	if err != nil {
		return err
	}
	in.queue.push(update{value: converted, version: v})
	return nil
}

// ScalarPushInput is a push-type input carrying a single value.
type ScalarPushInput[T Scalar] struct {
	pushInput[T]
}

// NewScalarPushInput declares a scalar push input on the given owner.
func NewScalarPushInput[T Scalar](owner *Owner, path string, opts ...InputOption) *ScalarPushInput[T] {
	in := &ScalarPushInput[T]{
		pushInput: *newPushInput(
			owner, path, scalarTypeName[T](), 0,
			func(v T) T { return v },
			convertScalar[T],
			opts,
		),
	}
	owner.registerInput(in)
	return in
}

// ArrayPushInput is a push-type input carrying a fixed-length array.
type ArrayPushInput[T Scalar] struct {
	pushInput[[]T]
}

// NewArrayPushInput declares an array push input of the given fixed length.
func NewArrayPushInput[T Scalar](owner *Owner, path string, length int, opts ...InputOption) *ArrayPushInput[T] {
	in := &ArrayPushInput[T]{
		pushInput: *newPushInput(
			owner, path, arrayTypeName[T](), length,
			copySlice[T],
			convertArray[T](length),
			opts,
		),
	}
	in.value = make([]T, length)
	owner.registerInput(in)
	return in
}

func copySlice[T Scalar](v []T) []T {
	if v == nil {
		return nil
	}
	out := make([]T, len(v))
	copy(out, v)
	return out
}
