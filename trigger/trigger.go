// Package trigger provides the periodic trigger module. Its tick output
// gives poll-style modules a common time base: every consumer of the same
// tick sees the same version number, so downstream consistency checks can
// correlate values read on the same cycle.
package trigger

import (
	"context"
	"time"

	"github.com/procsys/appcore/pv"
)

// Periodic is a module writing an incrementing tick counter once per
// period. The first tick is written during Prepare so that consumers start
// with a valid value.
type Periodic struct {
	owner  *pv.Owner
	period time.Duration
	tick   *pv.ScalarOutput[uint64]
	count  uint64
}

// NewPeriodic builds a trigger module publishing its tick at the given
// network path.
func NewPeriodic(name, path string, period time.Duration) *Periodic {
	m := &Periodic{
		owner:  pv.NewOwner(name),
		period: period,
	}
	m.tick = pv.NewScalarOutput[uint64](m.owner, path)
	return m
}

func (m *Periodic) Owner() *pv.Owner { return m.owner }

// Period returns the configured tick interval.
func (m *Periodic) Period() time.Duration { return m.period }

// Prepare writes tick zero so consumers have an initial value before the
// main loops start.
func (m *Periodic) Prepare() error {
	return m.tick.SetAndWrite(0)
}

// MainLoop emits one tick per period, each with a fresh version number,
// until the context is cancelled.
func (m *Periodic) MainLoop(ctx context.Context) error {
	ticker := time.NewTicker(m.period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		m.count++
		m.owner.NewVersion()
		if err := m.tick.SetAndWrite(m.count); err != nil {
			return err
		}
	}
}
