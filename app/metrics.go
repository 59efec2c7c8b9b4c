package app

import "sync/atomic"

// MetricsSnapshot is a point-in-time view of the application counters.
type MetricsSnapshot struct {
	ModulesRunning   int64 `json:"modules_running"`
	UpdatesDelivered int64 `json:"updates_delivered"`
	UpdatesLost      int64 `json:"updates_lost"`
	ControlWrites    int64 `json:"control_writes"`
}

// Metrics tracks application-wide counters. Delivery and loss counters are
// aggregated from the variable network on Snapshot.
type Metrics struct {
	modulesRunning atomic.Int64
	controlWrites  atomic.Int64

	app *Application
}

// NewMetrics creates an empty metrics holder.
func NewMetrics() *Metrics {
	return &Metrics{}
}

func (m *Metrics) RecordModuleStart(delta int) {
	m.modulesRunning.Add(int64(delta))
}

func (m *Metrics) RecordControlWrite(delta int) {
	m.controlWrites.Add(int64(delta))
}

// Snapshot returns current counter values, aggregating per-input delivery
// and data-loss counts across the variable network.
func (m *Metrics) Snapshot() MetricsSnapshot {
	snap := MetricsSnapshot{
		ModulesRunning: m.modulesRunning.Load(),
		ControlWrites:  m.controlWrites.Load(),
	}

	if m.app != nil {
		m.app.mu.Lock()
		for _, node := range m.app.network {
			for _, in := range node.consumers {
				snap.UpdatesDelivered += int64(in.Delivered())
				snap.UpdatesLost += int64(in.LostUpdates())
			}
		}
		m.app.mu.Unlock()
	}

	return snap
}
