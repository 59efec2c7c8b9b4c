// Package app implements the application host: the module registry, the
// variable network connecting module outputs to module inputs, and the
// runtime loop giving every module its own goroutine.
//
// An application is assembled from modules, initialised once (wiring the
// network and running Prepare on every module), then run until its context
// is cancelled or every module has returned.
//
//	a := app.New("server")
//	_ = a.Add(trigger.New(1 * time.Second))
//	err := a.Run(ctx)
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/procsys/appcore/observability"
	"github.com/procsys/appcore/pv"
	"github.com/procsys/appcore/version"
)

// Module is one application module: a named owner of process variables and
// a main loop running on its own goroutine. The main loop returns nil when
// the module is done, or an error to bring the whole application down.
type Module interface {
	Owner() *pv.Owner
	MainLoop(ctx context.Context) error
}

// Preparer is implemented by modules that write initial values before the
// main loops start. Prepare runs synchronously, in registration order,
// during Initialise.
type Preparer interface {
	Prepare() error
}

// Option configures an Application at construction.
type Option func(*Application)

// WithLogger overrides the default logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Application) { a.logger = logger }
}

// WithObserver overrides the default no-op observer.
func WithObserver(o observability.Observer) Option {
	return func(a *Application) { a.observer = o }
}

// Application owns the modules and the variable network.
type Application struct {
	name     string
	logger   *slog.Logger
	observer observability.Observer
	metrics  *Metrics

	mu          sync.Mutex
	modules     []Module
	names       map[string]bool
	network     map[string]*variable
	initialised bool
}

type variable struct {
	path      string
	feeder    pv.Output // nil when fed by the control system
	consumers []pv.Input
}

// New creates an empty application.
func New(name string, opts ...Option) *Application {
	a := &Application{
		name:     name,
		logger:   slog.Default(),
		observer: observability.NoOpObserver{},
		metrics:  NewMetrics(),
		names:    make(map[string]bool),
		network:  make(map[string]*variable),
	}
	a.metrics.app = a
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Name returns the application name.
func (a *Application) Name() string {
	return a.name
}

// Metrics returns the application's metrics.
func (a *Application) Metrics() *Metrics {
	return a.metrics
}

// Add registers a module. Fails on duplicate module names or once the
// application is initialised.
func (a *Application) Add(m Module) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.initialised {
		return fmt.Errorf("add %s: %w", m.Owner().Name(), ErrInitialised)
	}

	name := m.Owner().Name()
	if a.names[name] {
		return fmt.Errorf("add %s: %w", name, ErrDuplicateModule)
	}

	a.names[name] = true
	a.modules = append(a.modules, m)
	return nil
}

// Initialise wires the variable network and runs Prepare on every module
// that implements it. Each path has at most one feeder; inputs on a path
// without an application-side feeder are fed by the control system.
// Idempotent: the second call is a no-op.
func (a *Application) Initialise() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.initialised {
		return nil
	}

	for _, m := range a.modules {
		owner := m.Owner()
		for _, out := range owner.Outputs() {
			node := a.node(out.Path())
			if node.feeder != nil {
				return fmt.Errorf("variable %s: %w", out.Path(), ErrDuplicateFeeder)
			}
			node.feeder = out
		}
		for _, in := range owner.Inputs() {
			node := a.node(in.Path())
			node.consumers = append(node.consumers, in)
		}
	}

	for _, node := range a.network {
		if node.feeder == nil {
			continue
		}
		for _, in := range node.consumers {
			if err := pv.Connect(node.feeder, in); err != nil {
				return err
			}
		}
	}

	for _, m := range a.modules {
		if p, ok := m.(Preparer); ok {
			if err := p.Prepare(); err != nil {
				return fmt.Errorf("prepare %s: %w", m.Owner().Name(), err)
			}
		}
	}

	a.initialised = true
	a.logger.Info("application initialised",
		slog.String("app", a.name),
		slog.Int("modules", len(a.modules)),
		slog.Int("variables", len(a.network)),
	)
	return nil
}

// Run initialises the application if needed, starts one goroutine per
// module and blocks until every module has returned. A module error stops
// all other modules and is returned; cancellation of ctx is a clean
// shutdown and returns nil.
func (a *Application) Run(ctx context.Context) error {
	if err := a.Initialise(); err != nil {
		return err
	}

	a.mu.Lock()
	modules := make([]Module, len(a.modules))
	copy(modules, a.modules)
	a.mu.Unlock()

	a.observer.OnEvent(ctx, observability.Event{
		Type:      EventAppStart,
		Level:     observability.LevelInfo,
		Timestamp: time.Now(),
		Source:    "app.Run",
		Data:      map[string]any{"app": a.name, "modules": len(modules)},
	})

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		firstErr error
		errOnce  sync.Once
	)

	for _, m := range modules {
		wg.Add(1)
		go func(m Module) {
			defer wg.Done()
			name := m.Owner().Name()

			a.metrics.RecordModuleStart(1)
			defer a.metrics.RecordModuleStart(-1)

			a.observer.OnEvent(runCtx, observability.Event{
				Type:      EventModuleStart,
				Level:     observability.LevelVerbose,
				Timestamp: time.Now(),
				Source:    "app.Run",
				Data:      map[string]any{"module": name},
			})

			err := m.MainLoop(runCtx)
			if err != nil && !errors.Is(err, context.Canceled) {
				a.logger.Error("module failed",
					slog.String("app", a.name),
					slog.String("module", name),
					slog.String("error", err.Error()),
				)
				a.observer.OnEvent(runCtx, observability.Event{
					Type:      EventModuleError,
					Level:     observability.LevelError,
					Timestamp: time.Now(),
					Source:    "app.Run",
					Data:      map[string]any{"module": name, "error": err.Error()},
				})
				errOnce.Do(func() {
					firstErr = fmt.Errorf("module %s: %w", name, err)
					cancel()
				})
				return
			}

			a.observer.OnEvent(runCtx, observability.Event{
				Type:      EventModuleStop,
				Level:     observability.LevelVerbose,
				Timestamp: time.Now(),
				Source:    "app.Run",
				Data:      map[string]any{"module": name},
			})
		}(m)
	}

	wg.Wait()

	a.observer.OnEvent(ctx, observability.Event{
		Type:      EventAppStop,
		Level:     observability.LevelInfo,
		Timestamp: time.Now(),
		Source:    "app.Run",
		Data:      map[string]any{"app": a.name},
	})

	return firstErr
}

// ModuleCount returns the number of registered modules.
func (a *Application) ModuleCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.modules)
}

func (a *Application) node(path string) *variable {
	node, ok := a.network[path]
	if !ok {
		node = &variable{path: path}
		a.network[path] = node
	}
	return node
}

// csVersion stamps control-system writes. Each external write is its own
// update event.
func csVersion() version.Number {
	return version.New()
}
