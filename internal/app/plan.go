package app

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/vk/tickrig/internal/catalog"
	"github.com/vk/tickrig/internal/config"
	"github.com/vk/tickrig/internal/ctxlog"
	"github.com/vk/tickrig/internal/planner"
	"github.com/vk/tickrig/internal/runs"
)

// Plan validates the loaded graph, computes its execution plan, allocates a
// fresh run directory and persists the four planning artifacts into it.
// All validation happens before the directory is allocated, so a rejected
// graph leaves no trace on disk.
func (a *App) Plan(ctx context.Context) (runs.Dir, error) {
	log := ctxlog.FromContext(ctx)

	graph := a.model.Graph
	if graph == nil {
		return runs.Dir{}, fmt.Errorf("no graph document found under %s", a.cfg.GraphPath)
	}
	if graph.Version != config.GraphVersion {
		return runs.Dir{}, fmt.Errorf("unsupported graph version %q, this engine accepts %q", graph.Version, config.GraphVersion)
	}

	resolved, err := catalog.ResolveAll(graph, a.model.Definitions)
	if err != nil {
		return runs.Dir{}, err
	}
	log.Debug("Blocks resolved against catalog.", "count", len(resolved))

	plan, err := planner.Build(ctx, graph, resolved, a.model.Definitions)
	if err != nil {
		return runs.Dir{}, err
	}
	log.Debug("Execution plan built.", "mode", plan.Scheduling.Mode, "order", plan.ExecutionOrder)

	rc := graph.Run
	rc.RunID = uuid.NewString()
	a.applyRunOverrides(&rc)
	rc.Normalize()

	allocator, err := runs.NewAllocator(a.cfg.RunsDir)
	if err != nil {
		return runs.Dir{}, err
	}
	dir, err := allocator.Next()
	if err != nil {
		return runs.Dir{}, err
	}

	if err := dir.WriteGraph(runs.NewGraphDoc(graph)); err != nil {
		return runs.Dir{}, err
	}
	if err := dir.WriteResolvedBlocks(resolved); err != nil {
		return runs.Dir{}, err
	}
	if err := dir.WritePlan(plan); err != nil {
		return runs.Dir{}, err
	}
	if err := dir.WriteRunConfig(&rc); err != nil {
		return runs.Dir{}, err
	}

	log.Info("Run planned.", "run_id", rc.RunID, "run_dir", dir.Path,
		"scheduling", plan.Scheduling.Mode, "ticks", rc.Ticks())
	return dir, nil
}

// applyRunOverrides layers CLI tick-rate and viewer flags over the graph
// document's run configuration.
func (a *App) applyRunOverrides(rc *config.RunConfig) {
	if a.cfg.Hz > 0 {
		rc.Hz = a.cfg.Hz
	}
	if a.cfg.DurationSec > 0 {
		rc.DurationSec = a.cfg.DurationSec
	}
	if a.cfg.Viewer {
		rc.Viewer = true
	}
	if a.cfg.Headless {
		rc.Viewer = false
	}
}
