package app

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/procsys/appcore/observability"
	"github.com/procsys/appcore/pv"
	"github.com/procsys/appcore/version"
)

// VariableInfo describes one entry of the variable network as seen from
// the control system side.
type VariableInfo struct {
	Path     string         `json:"path"`
	Type     string         `json:"type"`
	Writable bool           `json:"writable"` // true when fed by the control system
	Value    any            `json:"value"`
	Version  version.Number `json:"-"`
	Time     time.Time      `json:"time"`
}

// Variables lists the variable network sorted by path.
func (a *Application) Variables() []VariableInfo {
	a.mu.Lock()
	defer a.mu.Unlock()

	infos := make([]VariableInfo, 0, len(a.network))
	for _, node := range a.network {
		infos = append(infos, nodeInfo(node))
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Path < infos[j].Path })
	return infos
}

// ReadVariable returns the current state of one variable.
func (a *Application) ReadVariable(path string) (VariableInfo, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	node, ok := a.network[path]
	if !ok {
		return VariableInfo{}, fmt.Errorf("variable %s: %w", path, ErrUnknownVariable)
	}
	return nodeInfo(node), nil
}

// WriteVariable pushes a value from the control system into every consumer
// of the given path, stamped with a fresh version. Only variables without
// an application-side feeder are writable.
func (a *Application) WriteVariable(ctx context.Context, path string, value any) (version.Number, error) {
	a.mu.Lock()
	node, ok := a.network[path]
	a.mu.Unlock()

	if !ok {
		return version.Null(), fmt.Errorf("variable %s: %w", path, ErrUnknownVariable)
	}
	if node.feeder != nil {
		return version.Null(), fmt.Errorf("variable %s: %w", path, ErrNotWritable)
	}

	v := csVersion()
	for _, in := range node.consumers {
		if err := pv.PushRaw(in, value, v); err != nil {
			return version.Null(), err
		}
	}

	a.metrics.RecordControlWrite(1)
	a.observer.OnEvent(ctx, observability.Event{
		Type:      EventControlWrite,
		Level:     observability.LevelVerbose,
		Timestamp: time.Now(),
		Source:    "app.WriteVariable",
		Data:      map[string]any{"path": path, "version": v.String()},
	})
	return v, nil
}

func nodeInfo(node *variable) VariableInfo {
	info := VariableInfo{
		Path:     node.path,
		Writable: node.feeder == nil,
	}

	var el pv.Element
	switch {
	case node.feeder != nil:
		el = node.feeder
		info.Type = node.feeder.Kind()
	case len(node.consumers) > 0:
		el = node.consumers[0]
		info.Type = node.consumers[0].Kind()
	}
	if el != nil {
		info.Value = el.Value()
		info.Version = el.Version()
		info.Time = el.Version().Time()
	}
	return info
}
