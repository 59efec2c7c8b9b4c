package device

import (
	"context"
	"sync/atomic"

	"github.com/procsys/appcore/pv"
)

// Poller is a module reading a set of registers on every trigger tick and
// publishing the values into the variable network. All values read on one
// tick carry the same version number.
type Poller struct {
	owner   *pv.Owner
	backend Backend
	tick    *pv.ScalarPushInput[uint64]
	publish []func() error
	faults  atomic.Uint64
}

// NewPoller builds a poll module driven by the tick variable at tickPath.
// Registers are attached with Poll before the application is initialised.
func NewPoller(name, tickPath string, b Backend) *Poller {
	m := &Poller{owner: pv.NewOwner(name), backend: b}
	m.tick = pv.NewScalarPushInput[uint64](m.owner, tickPath)
	return m
}

func (m *Poller) Owner() *pv.Owner { return m.owner }

// Faults returns the number of poll cycles that failed on the backend.
func (m *Poller) Faults() uint64 { return m.faults.Load() }

// Poll attaches a register to the poller and returns the output publishing
// its value at the given network path.
func Poll[T pv.Scalar](m *Poller, register, path string) *pv.ScalarOutput[T] {
	handle := NewRegister[T](m.backend, register)
	out := pv.NewScalarOutput[T](m.owner, path)
	m.publish = append(m.publish, func() error {
		value, _, err := handle.Read()
		if err != nil {
			return err
		}
		return out.SetAndWrite(value)
	})
	return out
}

// Prepare opens the backend and publishes the initial register values.
func (m *Poller) Prepare() error {
	if err := m.backend.Open(); err != nil {
		return err
	}
	return m.cycle()
}

// MainLoop polls on every tick until the context is cancelled. A failing
// cycle is counted and the values of that tick are withheld; polling
// resumes when the backend recovers.
func (m *Poller) MainLoop(ctx context.Context) error {
	for {
		if _, err := m.tick.ReadAndGet(ctx); err != nil {
			return err
		}
		m.owner.NewVersion()
		if err := m.cycle(); err != nil {
			m.faults.Add(1)
		}
	}
}

func (m *Poller) cycle() error {
	for _, fn := range m.publish {
		if err := fn(); err != nil {
			return err
		}
	}
	return nil
}
