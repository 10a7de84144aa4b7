// Package block defines the capability contract every schedulable unit of
// the engine implements, and the uniform construction mechanism the executor
// uses to build instances from resolved specifications.
package block

import (
	"context"
	"fmt"

	"github.com/vk/tickrig/internal/bus"
)

// Block is one schedulable unit. Tick is invoked once per engine tick, in
// plan order; a block's effects must be visible only through bus publishes
// and its own private state. Returning an error aborts the run.
//
// A block must not depend on wall-clock time for simulated outcomes unless
// it explicitly models real time, and it must not block indefinitely; the
// engine cancels runs only between ticks.
type Block interface {
	Tick(b *bus.Bus, tick int) error
}

// LiveViewer is optionally implemented by blocks that can open an
// interactive view of themselves. The executor calls OpenLiveView during
// instantiation when the run's viewer flag is set; a failure to open is
// logged but does not abort the run.
type LiveViewer interface {
	OpenLiveView(ctx context.Context) error
}

// Factory constructs a block instance. Every registered factory accepts
// exactly these four arguments (id, merged parameters, input-port and
// output-port channel bindings) and may ignore any it does not need.
// Channel bindings follow the "<blockId>.<portName>" convention.
type Factory func(id string, params Params, inputs, outputs map[string]string) (Block, error)

// ConstructionRejectedError reports a factory that refused the supplied
// arguments, for example because a required parameter is missing. It is
// fatal: the run aborts before any tick executes.
type ConstructionRejectedError struct {
	BlockID string
	Err     error
}

func (e *ConstructionRejectedError) Error() string {
	return fmt.Sprintf("constructing block %q: %v", e.BlockID, e.Err)
}

func (e *ConstructionRejectedError) Unwrap() error {
	return e.Err
}
