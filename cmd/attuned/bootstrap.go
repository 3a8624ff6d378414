package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"attune/internal/background"
	"attune/internal/config"
	"attune/internal/content"
	"attune/internal/daemon"
	"attune/internal/device"
	"attune/internal/engine"
	"attune/internal/notify"
	"attune/internal/permission"
	"attune/internal/store"
)

// buildDaemon wires the engine, its collaborators, and the background
// registrar. Background tasks share the daemon's engine so the daily counter
// has a single writer.
func buildDaemon(cfg *config.Config, st *store.Store, logger *slog.Logger) (*daemon.Daemon, error) {
	monitor := device.NewMonitor(cfg, logger)

	eng, err := engine.New(
		cfg,
		st,
		permission.NewFileGate(cfg.Permission.StateFile),
		notify.NewTransport(cfg),
		content.NewFileStore(cfg),
		engine.WithLogger(logger),
		engine.WithMonitor(monitor),
	)
	if err != nil {
		return nil, err
	}

	factory := func(ctx context.Context) (*engine.Engine, func(), error) {
		return eng, func() {}, nil
	}
	registrar := background.NewRegistrar(cfg, logger, factory, monitor)
	registrar.RegisterDeviceUnlockTrigger()
	registrar.RegisterTimeWindowScheduling()

	return daemon.New(cfg, st, logger, eng, registrar)
}

func buildSocketPath(cfg *config.Config) string {
	if cfg == nil {
		return filepath.Join(os.TempDir(), "attune.sock")
	}
	if cfg.Paths.SocketPath != "" {
		return cfg.Paths.SocketPath
	}
	return filepath.Join(cfg.Paths.LogDir, "attune.sock")
}
