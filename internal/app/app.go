package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/vk/tickrig/internal/config"
	"github.com/vk/tickrig/internal/ctxlog"
	"github.com/vk/tickrig/internal/hclcfg"
	"github.com/vk/tickrig/internal/registry"
	"github.com/vk/tickrig/internal/runs"
	"github.com/vk/tickrig/internal/yamlcfg"
)

// App encapsulates the engine's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	registry *registry.Registry
	model    *config.Model
	cfg      *Config
}

// New is the constructor for the main application. It returns a fully
// initialized App with its own isolated logger and registry. Startup
// failures (unreadable config, a catalog naming unregistered factories)
// are fatal and panic; the CLI entrypoint recovers them into an exit code.
func New(outW io.Writer, cfg *Config, modules ...registry.Module) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured.")

	model := config.NewModel()
	var paths []string
	if cfg.BlocksPath != "" {
		paths = append(paths, cfg.BlocksPath)
	}
	if cfg.GraphPath != "" {
		paths = append(paths, cfg.GraphPath)
	}
	for _, loader := range []config.Loader{hclcfg.NewLoader(), yamlcfg.NewLoader()} {
		part, err := loader.Load(ctx, paths...)
		if err != nil {
			panic(fmt.Errorf("failed to load configuration: %w", err))
		}
		model.Merge(part)
	}
	logger.Debug("Configuration loaded into unified model.",
		"blocktypes", len(model.Definitions), "has_graph", model.Graph != nil)

	reg := registry.New()
	if len(modules) == 0 {
		modules = coreModules
	}
	for _, mod := range modules {
		mod.Register(reg)
	}
	logger.Debug("Block modules registered.", "count", reg.Len())

	if err := reg.Validate(ctx, model.Definitions); err != nil {
		// Mismatch between catalog and code is a programmer error.
		panic(err)
	}
	logger.Debug("Registry validation passed.")

	return &App{
		outW:     outW,
		logger:   logger,
		registry: reg,
		model:    model,
		cfg:      cfg,
	}
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Model returns the loaded configuration model. Primarily for testing.
func (a *App) Model() *config.Model {
	return a.model
}

// Run performs the work the configuration asks for: plan a new run,
// execute one, or both.
func (a *App) Run(ctx context.Context) (*runs.Metrics, error) {
	ctx = ctxlog.WithLogger(ctx, a.logger)

	if a.cfg.HealthcheckPort > 0 {
		go a.healthCheckServer(ctx)
	}

	var dir runs.Dir
	switch {
	case a.cfg.GraphPath != "":
		d, err := a.Plan(ctx)
		if err != nil {
			return nil, err
		}
		dir = d
		if a.cfg.PlanOnly {
			a.logger.Info("Plan-only run, stopping before execution.", "run_dir", dir.Path)
			return nil, nil
		}
	case a.cfg.RunDir != "":
		dir = runs.Dir{Path: a.cfg.RunDir}
	default:
		allocator, err := runs.NewAllocator(a.cfg.RunsDir)
		if err != nil {
			return nil, err
		}
		d, err := allocator.Latest()
		if err != nil {
			return nil, err
		}
		dir = d
	}

	return a.Execute(ctx, dir)
}
