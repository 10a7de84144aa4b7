package app

import (
	"github.com/vk/tickrig/internal/registry"
	"github.com/vk/tickrig/modules/cartctl"
	"github.com/vk/tickrig/modules/chanlog"
	"github.com/vk/tickrig/modules/httpprobe"
	"github.com/vk/tickrig/modules/pointmass"
	"github.com/vk/tickrig/modules/sockview"
)

// coreModules is the definitive list of all block modules compiled into the
// tickrig binary.
var coreModules = []registry.Module{
	&pointmass.Module{},
	&cartctl.Module{},
	&chanlog.Module{},
	&httpprobe.Module{},
	&sockview.Module{},
}
