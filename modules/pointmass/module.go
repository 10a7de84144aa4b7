// Package pointmass provides the built-in one-dimensional point mass
// simulator. Each tick it integrates the latest cartesian command into its
// position and publishes the resulting robot state.
package pointmass

import (
	"github.com/vk/tickrig/internal/block"
	"github.com/vk/tickrig/internal/bus"
	"github.com/vk/tickrig/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the block factory with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterFactory("NewPointMass", NewPointMass)
}

// PointMass is a discrete-time integrator: x accumulates dx commands.
type PointMass struct {
	x       float64
	dxScale float64
	command string
	state   string
}

// NewPointMass constructs the simulator from its resolved parameters.
func NewPointMass(id string, params block.Params, inputs, outputs map[string]string) (block.Block, error) {
	return &PointMass{
		x:       params.Float("initial_x", 0),
		dxScale: params.Float("dx_scale", 1.0),
		command: inputs["command"],
		state:   outputs["state"],
	}, nil
}

// Tick applies the latest command, if any, and publishes the new state.
// Missing commands leave the position unchanged, so the simulator idles
// until a controller starts talking.
func (p *PointMass) Tick(b *bus.Bus, tick int) error {
	if msg, ok := b.Read(p.command); ok {
		if payload, ok := msg.Payload.(map[string]any); ok {
			if dx, ok := payload["dx"].(float64); ok {
				p.x += dx * p.dxScale
			}
		}
	}
	b.Publish(p.state, "robot_state", map[string]any{"x": p.x}, tick)
	return nil
}
