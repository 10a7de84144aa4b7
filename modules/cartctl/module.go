// Package cartctl provides the built-in cartesian step controller. It
// watches the robot state and commands a fixed step toward its goal until
// the goal is reached.
package cartctl

import (
	"github.com/vk/tickrig/internal/block"
	"github.com/vk/tickrig/internal/bus"
	"github.com/vk/tickrig/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the block factory with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterFactory("NewCartesianController", NewCartesianController)
}

// Controller is a bang-off proportional stepper: it commands its fixed step
// while x is below the goal and zero afterwards.
type Controller struct {
	goalX   float64
	step    float64
	state   string
	command string
}

// NewCartesianController constructs the controller from its resolved
// parameters.
func NewCartesianController(id string, params block.Params, inputs, outputs map[string]string) (block.Block, error) {
	return &Controller{
		goalX:   params.Float("goal_x", 0.5),
		step:    params.Float("step", 0.005),
		state:   inputs["state"],
		command: outputs["command"],
	}, nil
}

// Tick reads the latest observed state and publishes the next command.
// Before the first state arrives the controller commands zero, so a graph
// warms up without spurious motion.
func (c *Controller) Tick(b *bus.Bus, tick int) error {
	dx := 0.0
	if msg, ok := b.Read(c.state); ok {
		if payload, ok := msg.Payload.(map[string]any); ok {
			if x, ok := payload["x"].(float64); ok && x < c.goalX {
				dx = c.step
			}
		}
	}
	b.Publish(c.command, "cartesian_cmd", map[string]any{"dx": dx}, tick)
	return nil
}
