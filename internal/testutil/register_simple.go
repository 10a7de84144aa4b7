package testutil

import (
	"github.com/vk/tickrig/internal/block"
	"github.com/vk/tickrig/internal/registry"
)

// SimpleModule registers a single named factory. It lets a test supply a
// bespoke block without declaring a whole module package.
type SimpleModule struct {
	FactoryName string
	Factory     block.Factory
}

// Register registers the module's factory with the engine.
func (m *SimpleModule) Register(r *registry.Registry) {
	r.RegisterFactory(m.FactoryName, m.Factory)
}
