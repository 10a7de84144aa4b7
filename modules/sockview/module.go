// Package sockview provides the live-viewer bridge block. It observes a
// channel and, when the run's viewer flag is set, streams each observed
// frame to a socket.io endpoint so an external UI can render the run live.
// With the viewer closed the block is a no-op and costs the tick loop
// nothing.
package sockview

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"

	"github.com/vk/tickrig/internal/block"
	"github.com/vk/tickrig/internal/bus"
	"github.com/vk/tickrig/internal/ctxlog"
	"github.com/vk/tickrig/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the block factory with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterFactory("NewSocketViewer", NewSocketViewer)
}

// Viewer forwards observed frames over a socket.io connection. The
// connection is only established through OpenLiveView; until then every
// tick is a no-op.
type Viewer struct {
	url                string
	namespace          string
	emitEvent          string
	timeout            time.Duration
	insecureSkipVerify bool
	frame              string

	io        *socket.Socket
	connected atomic.Bool
}

// NewSocketViewer constructs the viewer. The url parameter is required.
func NewSocketViewer(id string, params block.Params, inputs, outputs map[string]string) (block.Block, error) {
	endpoint, err := params.RequireString("url")
	if err != nil {
		return nil, err
	}
	timeout, err := time.ParseDuration(params.String("timeout", "10s"))
	if err != nil {
		return nil, err
	}
	return &Viewer{
		url:                endpoint,
		namespace:          params.String("namespace", ""),
		emitEvent:          params.String("emit_event", "frame"),
		timeout:            timeout,
		insecureSkipVerify: params.Bool("insecure_skip_verify", false),
		frame:              inputs["frame"],
	}, nil
}

// OpenLiveView connects the socket.io client. The executor calls it during
// instantiation when the run's viewer flag is set; a connection failure is
// reported back and the run continues headless.
func (v *Viewer) OpenLiveView(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx).With("block", "sockview", "url", v.url)
	logger.Info("Opening live view connection...")

	parsedURL, err := url.Parse(v.url)
	if err != nil {
		return fmt.Errorf("failed to parse viewer URL: %w", err)
	}

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	opts := socket.DefaultOptions()
	opts.SetPath(parsedURL.Path)
	opts.SetTransports(types.NewSet(transports.WebSocket))
	if v.insecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification")
		opts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}

	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket(v.namespace, opts)

	connected := make(chan error, 1)
	io.On(types.EventName("connect"), func(...any) {
		v.connected.Store(true)
		logger.Info("Live view connected", "namespace", v.namespace, "sid", io.Id())
		select {
		case connected <- nil:
		default:
		}
	})
	io.On(types.EventName("connect_error"), func(errs ...any) {
		err, _ := errs[0].(error)
		if err == nil {
			err = fmt.Errorf("socket.io connect error")
		}
		select {
		case connected <- err:
		default:
		}
	})
	io.On(types.EventName("disconnect"), func(...any) {
		v.connected.Store(false)
	})

	io.Connect()
	v.io = io

	opCtx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()
	select {
	case <-opCtx.Done():
		io.Disconnect()
		return fmt.Errorf("timed out waiting for live view connection to %s", v.url)
	case err := <-connected:
		if err != nil {
			io.Disconnect()
			return err
		}
		return nil
	}
}

// Tick emits the latest observed frame while the connection is up. Frames
// observed before the connection opened, or after it dropped, are skipped
// rather than queued.
func (v *Viewer) Tick(b *bus.Bus, tick int) error {
	if !v.connected.Load() {
		return nil
	}
	msg, ok := b.Read(v.frame)
	if !ok {
		return nil
	}
	v.io.Emit(v.emitEvent, map[string]any{
		"t":       tick,
		"channel": msg.Channel,
		"type":    msg.Type,
		"payload": msg.Payload,
	})
	return nil
}
