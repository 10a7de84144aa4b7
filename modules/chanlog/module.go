// Package chanlog provides a pass-through observer block that mirrors its
// input channel into the structured log, optionally sampled down to every
// n-th tick.
package chanlog

import (
	"log/slog"

	"github.com/vk/tickrig/internal/block"
	"github.com/vk/tickrig/internal/bus"
	"github.com/vk/tickrig/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the block factory with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterFactory("NewChannelLog", NewChannelLog)
}

// Logger mirrors observed messages into slog.
type Logger struct {
	id     string
	tag    string
	everyN int
	input  string
	log    *slog.Logger
}

// NewChannelLog constructs the observer from its resolved parameters.
func NewChannelLog(id string, params block.Params, inputs, outputs map[string]string) (block.Block, error) {
	everyN := params.Int("every_n", 1)
	if everyN < 1 {
		everyN = 1
	}
	tag := params.String("tag", "")
	if tag == "" {
		tag = id
	}
	return &Logger{
		id:     id,
		tag:    tag,
		everyN: everyN,
		input:  inputs["input"],
		log:    slog.Default(),
	}, nil
}

// Tick logs the input channel's latest message on sampled ticks. Ticks
// before the first message arrives are silent.
func (l *Logger) Tick(b *bus.Bus, tick int) error {
	if tick%l.everyN != 0 {
		return nil
	}
	msg, ok := b.Read(l.input)
	if !ok {
		return nil
	}
	l.log.Info("Channel observed",
		"tag", l.tag,
		"tick", tick,
		"channel", msg.Channel,
		"type", msg.Type,
		"payload", msg.Payload)
	return nil
}
