package device

import (
	"fmt"
	"sync/atomic"

	"github.com/zhangyunhao116/skipmap"

	"github.com/procsys/appcore/version"
)

type cell struct {
	value   any
	version version.Number
}

// SimBackend is an in-memory Backend keeping its registers in a sorted
// concurrent map. It supports failure injection for readiness tests.
type SimBackend struct {
	registers  *skipmap.StringMap[cell]
	open       atomic.Bool
	functional atomic.Bool
}

// NewSimBackend builds a closed backend with the given registers, each
// holding its initial value under a null version.
func NewSimBackend(initial map[string]any) *SimBackend {
	b := &SimBackend{registers: skipmap.NewString[cell]()}
	for name, value := range initial {
		b.registers.Store(name, cell{value: value, version: version.Null()})
	}
	return b
}

func (b *SimBackend) Open() error {
	b.open.Store(true)
	b.functional.Store(true)
	return nil
}

func (b *SimBackend) Close() error {
	b.open.Store(false)
	b.functional.Store(false)
	return nil
}

func (b *SimBackend) IsFunctional() bool {
	return b.functional.Load()
}

// SetFunctional injects or clears a device fault on an open backend.
func (b *SimBackend) SetFunctional(ok bool) {
	if b.open.Load() {
		b.functional.Store(ok)
	}
}

func (b *SimBackend) check() error {
	if !b.open.Load() {
		return ErrClosed
	}
	if !b.functional.Load() {
		return ErrNotFunctional
	}
	return nil
}

func (b *SimBackend) Read(name string) (any, version.Number, error) {
	if err := b.check(); err != nil {
		return nil, version.Null(), err
	}
	c, ok := b.registers.Load(name)
	if !ok {
		return nil, version.Null(), fmt.Errorf("register %s: %w", name, ErrUnknownRegister)
	}
	return c.value, c.version, nil
}

func (b *SimBackend) Write(name string, value any) (version.Number, error) {
	if err := b.check(); err != nil {
		return version.Null(), err
	}
	if _, ok := b.registers.Load(name); !ok {
		return version.Null(), fmt.Errorf("register %s: %w", name, ErrUnknownRegister)
	}
	v := version.New()
	b.registers.Store(name, cell{value: value, version: v})
	return v, nil
}

func (b *SimBackend) List() []string {
	names := make([]string, 0, b.registers.Len())
	b.registers.Range(func(name string, _ cell) bool {
		names = append(names, name)
		return true
	})
	return names
}
