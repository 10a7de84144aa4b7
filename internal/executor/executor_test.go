package executor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/tickrig/internal/block"
	"github.com/vk/tickrig/internal/bus"
	"github.com/vk/tickrig/internal/catalog"
	"github.com/vk/tickrig/internal/config"
	"github.com/vk/tickrig/internal/planner"
	"github.com/vk/tickrig/internal/registry"
	"github.com/vk/tickrig/internal/runs"
)

type tickFunc func(b *bus.Bus, tick int) error

func (f tickFunc) Tick(b *bus.Bus, tick int) error { return f(b, tick) }

// simBlock integrates incoming dx commands into an x position.
type simBlock struct {
	x       float64
	in, out string
}

func (s *simBlock) Tick(b *bus.Bus, tick int) error {
	if msg, ok := b.Read(s.in); ok {
		if payload, ok := msg.Payload.(map[string]any); ok {
			if dx, ok := payload["dx"].(float64); ok {
				s.x += dx
			}
		}
	}
	b.Publish(s.out, "robot_state", map[string]any{"x": s.x}, tick)
	return nil
}

// ctrlBlock commands a fixed step toward the goal until the observed x
// reaches it.
type ctrlBlock struct {
	step    float64
	in, out string
}

func (c *ctrlBlock) Tick(b *bus.Bus, tick int) error {
	dx := 0.0
	if msg, ok := b.Read(c.in); ok {
		if payload, ok := msg.Payload.(map[string]any); ok {
			if x, ok := payload["x"].(float64); ok && x < goalX {
				dx = c.step
			}
		}
	}
	b.Publish(c.out, "cartesian_cmd", map[string]any{"dx": dx}, tick)
	return nil
}

func simResolved() *catalog.ResolvedBlock {
	return &catalog.ResolvedBlock{
		ID: "sim", Type: "pointmass", Category: "sim", Factory: "sim",
		Ports:  catalog.Ports{Inputs: []string{"command"}, Outputs: []string{"state"}},
		Params: map[string]any{},
	}
}

func ctrlResolved() *catalog.ResolvedBlock {
	return &catalog.ResolvedBlock{
		ID: "ctrl", Type: "cartctl", Category: "control", Factory: "ctrl",
		Ports:  catalog.Ports{Inputs: []string{"state"}, Outputs: []string{"command"}},
		Params: map[string]any{"step": 0.01},
	}
}

func newTestDir(t *testing.T) runs.Dir {
	t.Helper()
	a, err := runs.NewAllocator(t.TempDir())
	require.NoError(t, err)
	d, err := a.Next()
	require.NoError(t, err)
	return d
}

func TestMetricChannelSelection(t *testing.T) {
	withState := &catalog.ResolvedBlock{ID: "robot", Category: "sensor",
		Ports: catalog.Ports{Outputs: []string{"state"}}}
	simState := simResolved()

	assert.Equal(t, "sim.state", metricChannel(nil, nil))
	assert.Equal(t, "robot.state",
		metricChannel([]string{"robot"}, []*catalog.ResolvedBlock{withState}))
	assert.Equal(t, "sim.state",
		metricChannel([]string{"robot", "sim"}, []*catalog.ResolvedBlock{withState, simState}))
}

func TestMetricChannelFollowsExecutionOrder(t *testing.T) {
	simA := &catalog.ResolvedBlock{ID: "a", Category: "sim",
		Ports: catalog.Ports{Outputs: []string{"state"}}}
	simB := &catalog.ResolvedBlock{ID: "b", Category: "sim",
		Ports: catalog.Ports{Outputs: []string{"state"}}}

	// Declaration order is [a, b]; the earlier block in execution order wins.
	blocks := []*catalog.ResolvedBlock{simA, simB}
	assert.Equal(t, "b.state", metricChannel([]string{"b", "a"}, blocks))
	assert.Equal(t, "a.state", metricChannel([]string{"a", "b"}, blocks))
}

func TestRunClosedLoopReachesGoal(t *testing.T) {
	reg := registry.New()
	reg.RegisterFactory("sim", func(id string, params block.Params, inputs, outputs map[string]string) (block.Block, error) {
		return &simBlock{in: inputs["command"], out: outputs["state"]}, nil
	})
	reg.RegisterFactory("ctrl", func(id string, params block.Params, inputs, outputs map[string]string) (block.Block, error) {
		return &ctrlBlock{step: params.Float("step", 0.005), in: inputs["state"], out: outputs["command"]}, nil
	})

	dir := newTestDir(t)
	exec := New(Config{
		Dir: dir,
		Plan: &planner.Plan{
			ExecutionOrder: []string{"sim", "ctrl"},
			Connections: []planner.Wire{
				{From: "sim.state", To: "ctrl.state"},
				{From: "ctrl.command", To: "sim.command"},
			},
			Scheduling: planner.Scheduling{Mode: planner.ModeExplicit},
		},
		Blocks:        []*catalog.ResolvedBlock{simResolved(), ctrlResolved()},
		Run:           &config.RunConfig{RunID: "t", DurationSec: 5, Hz: 20},
		Registry:      reg,
		DisablePacing: true,
	})

	metrics, err := exec.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateDone, exec.State())
	assert.Equal(t, 100, metrics.Ticks)
	assert.InDelta(t, goalX, metrics.FinalX, 0.02)
	assert.True(t, metrics.GoalReached)
	assert.Equal(t, "sim.state", metrics.MetricsChannel)

	// Both monitored channels get one record per tick.
	for _, name := range []string{"sim_state.jsonl", "ctrl_command.jsonl"} {
		raw, err := os.ReadFile(filepath.Join(dir.LogsDir(), name))
		require.NoError(t, err)
		assert.Equal(t, 100, countLines(raw))
	}

	written, err := dir.ReadMetrics()
	require.NoError(t, err)
	assert.Equal(t, metrics, written)
}

func TestRunMaxXTracksNegativeTrajectory(t *testing.T) {
	reg := registry.New()
	reg.RegisterFactory("sim", func(id string, params block.Params, inputs, outputs map[string]string) (block.Block, error) {
		return tickFunc(func(b *bus.Bus, tick int) error {
			x := -0.2 - 0.1*float64(tick)
			b.Publish(outputs["state"], "robot_state", map[string]any{"x": x}, tick)
			return nil
		}), nil
	})

	dir := newTestDir(t)
	exec := New(Config{
		Dir:           dir,
		Plan:          &planner.Plan{ExecutionOrder: []string{"sim"}},
		Blocks:        []*catalog.ResolvedBlock{simResolved()},
		Run:           &config.RunConfig{RunID: "t", DurationSec: 3, Hz: 1},
		Registry:      reg,
		DisablePacing: true,
	})

	metrics, err := exec.Run(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, -0.4, metrics.FinalX, 1e-9)
	assert.InDelta(t, -0.2, metrics.MaxX, 1e-9)
	assert.False(t, metrics.GoalReached)
}

func TestRunConstructionFailureStillFinalizes(t *testing.T) {
	reg := registry.New()
	reg.RegisterFactory("sim", func(id string, params block.Params, inputs, outputs map[string]string) (block.Block, error) {
		return nil, errors.New("missing required parameter")
	})

	dir := newTestDir(t)
	exec := New(Config{
		Dir:           dir,
		Plan:          &planner.Plan{ExecutionOrder: []string{"sim"}},
		Blocks:        []*catalog.ResolvedBlock{simResolved()},
		Run:           &config.RunConfig{DurationSec: 1, Hz: 10},
		Registry:      reg,
		DisablePacing: true,
	})

	metrics, err := exec.Run(context.Background())
	var rejected *block.ConstructionRejectedError
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, "sim", rejected.BlockID)
	assert.Equal(t, 0, metrics.Ticks)

	written, err := dir.ReadMetrics()
	require.NoError(t, err)
	assert.Equal(t, 0, written.Ticks)
	assert.False(t, written.GoalReached)
}

func TestRunTickErrorPropagatesAfterFinalize(t *testing.T) {
	reg := registry.New()
	reg.RegisterFactory("sim", func(id string, params block.Params, inputs, outputs map[string]string) (block.Block, error) {
		return tickFunc(func(b *bus.Bus, tick int) error {
			if tick == 3 {
				return fmt.Errorf("actuator fault")
			}
			b.Publish(outputs["state"], "robot_state", map[string]any{"x": 0.1}, tick)
			return nil
		}), nil
	})

	dir := newTestDir(t)
	exec := New(Config{
		Dir:           dir,
		Plan:          &planner.Plan{ExecutionOrder: []string{"sim"}},
		Blocks:        []*catalog.ResolvedBlock{simResolved()},
		Run:           &config.RunConfig{DurationSec: 1, Hz: 10},
		Registry:      reg,
		DisablePacing: true,
	})

	metrics, err := exec.Run(context.Background())
	require.ErrorContains(t, err, "actuator fault")
	require.ErrorContains(t, err, `block "sim" failed at tick 3`)
	assert.Equal(t, 3, metrics.Ticks)

	written, err := dir.ReadMetrics()
	require.NoError(t, err)
	assert.Equal(t, 3, written.Ticks)
	assert.InDelta(t, 0.1, written.FinalX, 1e-9)
}

func TestRunInterruptedByContext(t *testing.T) {
	reg := registry.New()
	reg.RegisterFactory("sim", func(id string, params block.Params, inputs, outputs map[string]string) (block.Block, error) {
		return tickFunc(func(b *bus.Bus, tick int) error { return nil }), nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	dir := newTestDir(t)
	exec := New(Config{
		Dir:           dir,
		Plan:          &planner.Plan{ExecutionOrder: []string{"sim"}},
		Blocks:        []*catalog.ResolvedBlock{simResolved()},
		Run:           &config.RunConfig{DurationSec: 1, Hz: 10},
		Registry:      reg,
		DisablePacing: true,
	})

	metrics, err := exec.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StateInterrupted, exec.State())
	assert.Equal(t, 0, metrics.Ticks)
	assert.FileExists(t, filepath.Join(dir.Path, runs.MetricsFile))
}

func TestRunAppliesOverrides(t *testing.T) {
	var gotStep float64
	reg := registry.New()
	reg.RegisterFactory("ctrl", func(id string, params block.Params, inputs, outputs map[string]string) (block.Block, error) {
		gotStep = params.Float("step", 0)
		return tickFunc(func(b *bus.Bus, tick int) error { return nil }), nil
	})

	ctrl := ctrlResolved()
	exec := New(Config{
		Dir:    newTestDir(t),
		Plan:   &planner.Plan{ExecutionOrder: []string{"ctrl"}},
		Blocks: []*catalog.ResolvedBlock{ctrl},
		Run: &config.RunConfig{DurationSec: 1, Hz: 1,
			Overrides: map[string]any{"ctrl": map[string]any{"step": 0.25}}},
		Registry:      reg,
		DisablePacing: true,
	})

	_, err := exec.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0.25, gotStep)
	assert.Equal(t, 0.01, ctrl.Params["step"], "resolved params must not be mutated")
}

func countLines(raw []byte) int {
	n := 0
	for _, c := range raw {
		if c == '\n' {
			n++
		}
	}
	return n
}
