package pointmass

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/tickrig/internal/block"
	"github.com/vk/tickrig/internal/bus"
)

func newSim(t *testing.T, params block.Params) block.Block {
	t.Helper()
	sim, err := NewPointMass("sim", params,
		map[string]string{"command": "sim.command"},
		map[string]string{"state": "sim.state"})
	require.NoError(t, err)
	return sim
}

func readX(t *testing.T, b *bus.Bus) float64 {
	t.Helper()
	msg, ok := b.Read("sim.state")
	require.True(t, ok)
	payload, ok := msg.Payload.(map[string]any)
	require.True(t, ok)
	return payload["x"].(float64)
}

func TestTickIdlesWithoutCommand(t *testing.T) {
	b := bus.New()
	sim := newSim(t, block.Params{})

	require.NoError(t, sim.Tick(b, 0))
	assert.Equal(t, 0.0, readX(t, b))

	msg, _ := b.Read("sim.state")
	assert.Equal(t, "robot_state", msg.Type)
}

func TestTickIntegratesCommands(t *testing.T) {
	b := bus.New()
	sim := newSim(t, block.Params{})

	b.Publish("sim.command", "cartesian_cmd", map[string]any{"dx": 0.1}, 0)
	require.NoError(t, sim.Tick(b, 0))
	require.NoError(t, sim.Tick(b, 1))
	assert.InDelta(t, 0.2, readX(t, b), 1e-9)
}

func TestTickAppliesScaleAndInitialPosition(t *testing.T) {
	b := bus.New()
	sim := newSim(t, block.Params{"dx_scale": 2.0, "initial_x": 1.0})

	b.Publish("sim.command", "cartesian_cmd", map[string]any{"dx": 0.25}, 0)
	require.NoError(t, sim.Tick(b, 0))
	assert.InDelta(t, 1.5, readX(t, b), 1e-9)
}

func TestTickIgnoresMalformedCommand(t *testing.T) {
	b := bus.New()
	sim := newSim(t, block.Params{})

	b.Publish("sim.command", "cartesian_cmd", "not an object", 0)
	require.NoError(t, sim.Tick(b, 0))
	assert.Equal(t, 0.0, readX(t, b))
}
