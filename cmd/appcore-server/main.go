package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"

	"github.com/procsys/appcore/app"
	"github.com/procsys/appcore/config"
	"github.com/procsys/appcore/csadapter"
	"github.com/procsys/appcore/device"
	"github.com/procsys/appcore/trigger"
)

func main() {
	var (
		configFile = flag.String("config", "", "Path to config YAML file")
		addr       = flag.String("addr", "", "HTTP listen address (overrides config)")
		verbose    = flag.Bool("verbose", false, "Enable verbose logging to stderr")
	)
	flag.Parse()

	cfg := config.Default()
	if *configFile != "" {
		loaded, err := config.Load(*configFile)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		cfg = *loaded
	}
	if *addr != "" {
		cfg.ServerAddr = *addr
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	backend := device.NewSimBackend(map[string]any{
		"temperature": float64(20),
		"pressure":    float64(1013),
	})

	a, err := buildApplication(&cfg, backend)
	if err != nil {
		log.Fatalf("Failed to build application: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	server := csadapter.NewServer(a, backend, cfg.ServerAddr)
	if err := server.Start(); err != nil {
		log.Fatalf("Failed to start HTTP server: %v", err)
	}

	logger.Info("application starting",
		"modules", a.ModuleCount(), "addr", cfg.ServerAddr)

	runErr := a.Run(ctx)

	if err := server.Stop(); err != nil {
		logger.Error("HTTP server shutdown failed", "error", err)
	}
	if err := backend.Close(); err != nil {
		logger.Error("device close failed", "error", err)
	}
	if runErr != nil {
		log.Fatalf("Application failed: %v", runErr)
	}
	logger.Info("application stopped")
}

// buildApplication assembles the demo application: a periodic trigger
// drives a device poller, and a monitor republishes only version-consistent
// snapshots of the polled values.
func buildApplication(cfg *config.Config, backend device.Backend) (*app.Application, error) {
	a := app.New("appcore-server", app.WithLogger(slog.Default()))

	timer := trigger.NewPeriodic("Timer", "/Timer/tick", cfg.Trigger.Period)

	poller := device.NewPoller("Poller", "/Timer/tick", backend)
	device.Poll[float64](poller, "temperature", "/Device/temperature")
	device.Poll[float64](poller, "pressure", "/Device/pressure")

	for _, m := range []app.Module{timer, poller, newMonitor("Monitor")} {
		if err := a.Add(m); err != nil {
			return nil, fmt.Errorf("add module: %w", err)
		}
	}
	if err := a.Initialise(); err != nil {
		return nil, fmt.Errorf("initialise: %w", err)
	}
	return a, nil
}
