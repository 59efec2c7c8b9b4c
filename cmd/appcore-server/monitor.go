package main

import (
	"context"
	"fmt"

	"github.com/procsys/appcore/consistency"
	"github.com/procsys/appcore/pv"
	"github.com/procsys/appcore/readany"
	"github.com/procsys/appcore/version"
)

// monitor validates that temperature and pressure belong to the same poll
// cycle before republishing them. On a mismatch it keeps the last validated
// snapshot and bumps the fault counter instead.
type monitor struct {
	owner *pv.Owner

	temperature *pv.ScalarPushInput[float64]
	pressure    *pv.ScalarPushInput[float64]

	validTemperature *pv.ScalarOutput[float64]
	validPressure    *pv.ScalarOutput[float64]
	faults           *pv.ScalarOutput[uint64]
}

func newMonitor(name string) *monitor {
	m := &monitor{owner: pv.NewOwner(name)}
	m.temperature = pv.NewScalarPushInput[float64](m.owner, "/Device/temperature")
	m.pressure = pv.NewScalarPushInput[float64](m.owner, "/Device/pressure")
	m.validTemperature = pv.NewScalarOutput[float64](m.owner, "/Monitor/temperature")
	m.validPressure = pv.NewScalarOutput[float64](m.owner, "/Monitor/pressure")
	m.faults = pv.NewScalarOutput[uint64](m.owner, "/Monitor/faults")
	return m
}

func (m *monitor) Owner() *pv.Owner { return m.owner }

func (m *monitor) Prepare() error {
	return m.faults.Write()
}

func (m *monitor) MainLoop(ctx context.Context) error {
	group, err := readany.Of(m.temperature, m.pressure)
	if err != nil {
		return fmt.Errorf("monitor wait group: %w", err)
	}
	check, err := consistency.New(m.temperature, m.pressure)
	if err != nil {
		return fmt.Errorf("monitor consistency group: %w", err)
	}

	// A fault is a poll cycle whose version gets superseded before every
	// member reported it. Partial snapshots are never republished.
	var pending version.Number
	var pendingMatched bool

	for {
		ev, err := group.ReadAny(ctx)
		if err != nil {
			return err
		}

		if !ev.Version.Equal(pending) {
			if !pending.IsNull() && !pendingMatched {
				m.owner.NewVersion()
				if err := m.faults.SetAndWrite(m.faults.Get() + 1); err != nil {
					return err
				}
			}
			pending = ev.Version
			pendingMatched = false
		}

		if check.Update(ev) {
			pendingMatched = true
			m.owner.NewVersion()
			if err := m.validTemperature.SetAndWrite(m.temperature.Get()); err != nil {
				return err
			}
			if err := m.validPressure.SetAndWrite(m.pressure.Get()); err != nil {
				return err
			}
		}
	}
}
