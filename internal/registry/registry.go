// Package registry maps construction identifiers to block factories. Every
// factory is registered at startup and the registry is validated against the
// loaded catalog before planning, so an unknown factory name fails the run
// before any work happens rather than at first use.
package registry

import (
	"context"
	"fmt"
	"strings"

	"github.com/vk/tickrig/internal/block"
	"github.com/vk/tickrig/internal/config"
	"github.com/vk/tickrig/internal/ctxlog"
)

// Module is the interface every block implementation package exposes to be
// compiled into the engine.
type Module interface {
	Register(r *Registry)
}

// Registry holds the registered block factories for one application instance.
type Registry struct {
	factories map[string]block.Factory
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{factories: make(map[string]block.Factory)}
}

// RegisterFactory registers a factory under its construction identifier.
// A duplicate registration is a programmer error and panics.
func (r *Registry) RegisterFactory(name string, f block.Factory) {
	if _, exists := r.factories[name]; exists {
		panic(fmt.Sprintf("block factory with name '%s' already registered", name))
	}
	if f == nil {
		panic(fmt.Sprintf("block factory '%s' is nil", name))
	}
	r.factories[name] = f
}

// UnknownFactoryError reports a construction identifier with no registered
// factory.
type UnknownFactoryError struct {
	Name string
}

func (e *UnknownFactoryError) Error() string {
	return fmt.Sprintf("block factory %q is not registered", e.Name)
}

// Factory returns the factory registered under name.
func (r *Registry) Factory(name string) (block.Factory, error) {
	f, ok := r.factories[name]
	if !ok {
		return nil, &UnknownFactoryError{Name: name}
	}
	return f, nil
}

// Len returns the number of registered factories.
func (r *Registry) Len() int {
	return len(r.factories)
}

// Validate checks that every catalog definition names a registered factory.
// Definitions with an empty factory are skipped here; the resolver rejects
// them per-node with a more specific error.
func (r *Registry) Validate(ctx context.Context, defs map[string]*config.BlockDefinition) error {
	logger := ctxlog.FromContext(ctx)

	var missing []string
	for _, def := range defs {
		if def.Factory == "" {
			continue
		}
		if _, ok := r.factories[def.Factory]; !ok {
			missing = append(missing, fmt.Sprintf("blocktype '%s' requires factory '%s'", def.Type, def.Factory))
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("registry validation failed:\n- %s", strings.Join(missing, "\n- "))
	}

	logger.Debug("Registry validation passed.", "factories", len(r.factories), "blocktypes", len(defs))
	return nil
}
