package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/vk/tickrig/internal/block"
	"github.com/vk/tickrig/internal/bus"
	"github.com/vk/tickrig/internal/catalog"
	"github.com/vk/tickrig/internal/config"
	"github.com/vk/tickrig/internal/ctxlog"
	"github.com/vk/tickrig/internal/planner"
	"github.com/vk/tickrig/internal/registry"
	"github.com/vk/tickrig/internal/runs"
)

// State names where a run currently is in its lifecycle.
type State string

const (
	StateNotStarted    State = "not-started"
	StateInstantiating State = "instantiating"
	StateRunning       State = "running"
	StateFinalizing    State = "finalizing"
	StateDone          State = "done"
	StateInterrupted   State = "interrupted"
)

// The run goal: the metric payload's x reaching this value or beyond.
const goalX = 0.5

// Floor for the running maximum, below any plausible sample. JSON has no
// -Inf, so a finite floor keeps metrics.json encodable even when no sample
// ever arrives.
const maxXFloor = -1e9

// Config carries everything a run needs. All fields except DisablePacing
// are required.
type Config struct {
	Dir      runs.Dir
	Plan     *planner.Plan
	Blocks   []*catalog.ResolvedBlock
	Run      *config.RunConfig
	Registry *registry.Registry
	// DisablePacing skips the real-time sleep between ticks. Runs then
	// execute as fast as the blocks allow.
	DisablePacing bool
}

// Executor runs one planned graph to completion.
type Executor struct {
	cfg   Config
	state State
}

// New returns an executor for one run. An Executor is single-use.
func New(cfg Config) *Executor {
	return &Executor{cfg: cfg, state: StateNotStarted}
}

// State reports the executor's current lifecycle state.
func (e *Executor) State() State {
	return e.state
}

// Run executes the tick loop. Metrics are finalized and written to the run
// directory unconditionally, including when instantiation fails, a block
// tick errors, or the context is cancelled mid-run.
func (e *Executor) Run(ctx context.Context) (*runs.Metrics, error) {
	log := ctxlog.FromContext(ctx)
	rc := e.cfg.Run

	metrics := &runs.Metrics{
		RunID:          rc.RunID,
		DurationSec:    rc.DurationSec,
		Hz:             rc.Hz,
		Viewer:         rc.Viewer,
		MaxX:           maxXFloor,
		MetricsChannel: metricChannel(e.cfg.Plan.ExecutionOrder, e.cfg.Blocks),
	}

	logger, err := runs.NewChannelLogger(e.cfg.Dir)
	if err != nil {
		return nil, err
	}

	e.state = StateInstantiating
	instances, instErr := e.instantiate(ctx, log)
	if instErr == nil {
		instErr = e.tickLoop(ctx, log, instances, logger, metrics)
	}

	interrupted := e.state == StateInterrupted
	e.state = StateFinalizing
	var errs []error
	if instErr != nil {
		errs = append(errs, instErr)
	}
	if err := logger.Close(); err != nil {
		errs = append(errs, err)
	}
	metrics.GoalReached = metrics.FinalX >= goalX
	if err := e.cfg.Dir.WriteMetrics(metrics); err != nil {
		errs = append(errs, err)
	}

	if interrupted {
		e.state = StateInterrupted
	} else {
		e.state = StateDone
	}
	log.Info("Run finalized",
		"run_id", rc.RunID,
		"ticks", metrics.Ticks,
		"final_x", metrics.FinalX,
		"goal_reached", metrics.GoalReached)
	return metrics, errors.Join(errs...)
}

// instantiate constructs every block in plan order. A construction failure
// aborts before any tick executes.
func (e *Executor) instantiate(ctx context.Context, log *slog.Logger) (map[string]block.Block, error) {
	byID := catalog.ByID(e.cfg.Blocks)
	instances := make(map[string]block.Block, len(e.cfg.Blocks))
	for _, id := range e.cfg.Plan.ExecutionOrder {
		rb, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("plan names block %q with no resolved specification", id)
		}
		factory, err := e.cfg.Registry.Factory(rb.Factory)
		if err != nil {
			return nil, err
		}
		params := overriddenParams(rb, e.cfg.Run.Overrides)
		instance, err := factory(rb.ID, params, rb.InputChannels(), rb.OutputChannels())
		if err != nil {
			return nil, &block.ConstructionRejectedError{BlockID: rb.ID, Err: err}
		}
		instances[id] = instance
		log.Debug("Block instantiated", "block_id", rb.ID, "type", rb.Type)

		if viewer, ok := instance.(block.LiveViewer); ok && e.cfg.Run.Viewer {
			if err := viewer.OpenLiveView(ctx); err != nil {
				log.Warn("Live view failed to open; continuing headless", "block_id", rb.ID, "error", err)
			}
		}
	}
	return instances, nil
}

func (e *Executor) tickLoop(ctx context.Context, log *slog.Logger, instances map[string]block.Block, logger *runs.ChannelLogger, metrics *runs.Metrics) error {
	e.state = StateRunning
	b := bus.New()
	period := time.Second / time.Duration(e.cfg.Run.Hz)
	total := e.cfg.Run.Ticks()
	log.Info("Run started", "run_id", e.cfg.Run.RunID, "ticks", total, "hz", e.cfg.Run.Hz)

	for tick := 0; tick < total; tick++ {
		if err := ctx.Err(); err != nil {
			e.state = StateInterrupted
			log.Warn("Run interrupted", "tick", tick, "error", err)
			return err
		}
		started := time.Now()

		e.route(b, tick)
		for _, id := range e.cfg.Plan.ExecutionOrder {
			if err := instances[id].Tick(b, tick); err != nil {
				return fmt.Errorf("block %q failed at tick %d: %w", id, tick, err)
			}
			e.route(b, tick)
		}

		if err := e.logOutputs(b, logger, tick); err != nil {
			return err
		}
		e.sample(b, metrics)
		metrics.Ticks = tick + 1

		if !e.cfg.DisablePacing {
			if remaining := period - time.Since(started); remaining > 0 {
				time.Sleep(remaining)
			}
		}
	}
	return nil
}

// route copies the latest message on every wire's source channel into its
// destination channel, stamped with the current tick. Missing sources are
// silently skipped so a graph can warm up over its first ticks.
func (e *Executor) route(b *bus.Bus, tick int) {
	for _, wire := range e.cfg.Plan.Connections {
		if msg, ok := b.Read(wire.From); ok {
			b.Publish(wire.To, msg.Type, msg.Payload, tick)
		}
	}
}

// logOutputs appends one record per populated output channel, stamped with
// the current tick. Every monitored channel therefore yields exactly one
// record per tick once its block starts publishing.
func (e *Executor) logOutputs(b *bus.Bus, logger *runs.ChannelLogger, tick int) error {
	for _, rb := range e.cfg.Blocks {
		for _, ch := range rb.OutputChannels() {
			msg, ok := b.Read(ch)
			if !ok {
				continue
			}
			msg.Tick = tick
			if err := logger.Log(msg); err != nil {
				return err
			}
		}
	}
	return nil
}

// sample updates the running metric from the metric channel's latest value.
// Messages without a numeric x are ignored.
func (e *Executor) sample(b *bus.Bus, metrics *runs.Metrics) {
	msg, ok := b.Read(metrics.MetricsChannel)
	if !ok {
		return
	}
	payload, ok := msg.Payload.(map[string]any)
	if !ok {
		return
	}
	x, ok := payload["x"].(float64)
	if !ok {
		return
	}
	metrics.FinalX = x
	if x > metrics.MaxX {
		metrics.MaxX = x
	}
}

// overriddenParams layers the run's per-block overrides on top of a block's
// resolved parameters. The resolved block itself is never mutated.
func overriddenParams(rb *catalog.ResolvedBlock, overrides map[string]any) block.Params {
	params := make(block.Params, len(rb.Params))
	for name, v := range rb.Params {
		params[name] = v
	}
	raw, ok := overrides[rb.ID]
	if !ok {
		return params
	}
	extra, ok := raw.(map[string]any)
	if !ok {
		return params
	}
	for name, v := range extra {
		params[name] = v
	}
	return params
}

// metricChannel picks the channel the primary run metric is read from:
// the first sim-category block with a "state" output, else the first block
// with a "state" output, else the conventional "sim.state". Candidates are
// scanned in execution order, not declaration order.
func metricChannel(order []string, blocks []*catalog.ResolvedBlock) string {
	byID := catalog.ByID(blocks)
	if ch := stateOutput(order, byID, true); ch != "" {
		return ch
	}
	if ch := stateOutput(order, byID, false); ch != "" {
		return ch
	}
	return "sim.state"
}

func stateOutput(order []string, byID map[string]*catalog.ResolvedBlock, simOnly bool) string {
	for _, id := range order {
		rb, ok := byID[id]
		if !ok || (simOnly && rb.Category != "sim") {
			continue
		}
		for _, port := range rb.Ports.Outputs {
			if port == "state" {
				return catalog.Channel(rb.ID, port)
			}
		}
	}
	return ""
}
