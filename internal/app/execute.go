package app

import (
	"context"
	"fmt"

	"github.com/vk/tickrig/internal/ctxlog"
	"github.com/vk/tickrig/internal/executor"
	"github.com/vk/tickrig/internal/runs"
)

// Execute replays a planned run directory through the executor. The run's
// persisted artifacts are the single source of truth; the loaded graph
// document is not consulted again.
func (a *App) Execute(ctx context.Context, dir runs.Dir) (*runs.Metrics, error) {
	log := ctxlog.FromContext(ctx)

	plan, err := dir.ReadPlan()
	if err != nil {
		return nil, fmt.Errorf("run dir %s has no usable plan: %w", dir.Path, err)
	}
	blocks, err := dir.ReadResolvedBlocks()
	if err != nil {
		return nil, fmt.Errorf("run dir %s has no usable resolved blocks: %w", dir.Path, err)
	}
	rc, err := dir.ReadRunConfig()
	if err != nil {
		return nil, fmt.Errorf("run dir %s has no usable run config: %w", dir.Path, err)
	}
	a.applyRunOverrides(rc)
	rc.Normalize()

	log.Info("Executing run.", "run_id", rc.RunID, "run_dir", dir.Path, "blocks", len(blocks))
	exec := executor.New(executor.Config{
		Dir:           dir,
		Plan:          plan,
		Blocks:        blocks,
		Run:           rc,
		Registry:      a.registry,
		DisablePacing: a.cfg.DisablePacing,
	})
	return exec.Run(ctx)
}
