// Package httpprobe provides a block that polls an HTTP endpoint on a
// sampled tick schedule and publishes the probe outcome. Probe failures are
// published, not fatal, so a flaky endpoint cannot abort a run.
package httpprobe

import (
	"context"
	"net/http"
	"time"

	"github.com/vk/tickrig/internal/block"
	"github.com/vk/tickrig/internal/bus"
	"github.com/vk/tickrig/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the block factory with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterFactory("NewHTTPProbe", NewHTTPProbe)
}

// Probe issues one request every n-th tick and publishes the result.
type Probe struct {
	url     string
	method  string
	everyN  int
	timeout time.Duration
	status  string
	client  *http.Client
}

// NewHTTPProbe constructs the probe. The url parameter is required; a
// missing url rejects construction and aborts the run before any tick.
func NewHTTPProbe(id string, params block.Params, inputs, outputs map[string]string) (block.Block, error) {
	url, err := params.RequireString("url")
	if err != nil {
		return nil, err
	}
	timeout, err := time.ParseDuration(params.String("timeout", "5s"))
	if err != nil {
		return nil, err
	}
	everyN := params.Int("every_n", 20)
	if everyN < 1 {
		everyN = 1
	}
	return &Probe{
		url:     url,
		method:  params.String("method", http.MethodGet),
		everyN:  everyN,
		timeout: timeout,
		status:  outputs["status"],
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 2,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}, nil
}

// Tick probes on sampled ticks and republishes the last outcome otherwise.
// The request runs synchronously inside the tick; the client timeout bounds
// how long a slow endpoint can stall the loop.
func (p *Probe) Tick(b *bus.Bus, tick int) error {
	if tick%p.everyN != 0 {
		return nil
	}
	b.Publish(p.status, "http_status", p.probe(), tick)
	return nil
}

func (p *Probe) probe() map[string]any {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	started := time.Now()
	req, err := http.NewRequestWithContext(ctx, p.method, p.url, nil)
	if err != nil {
		return map[string]any{"url": p.url, "ok": false, "error": err.Error()}
	}
	resp, err := p.client.Do(req)
	elapsed := time.Since(started).Seconds() * 1000
	if err != nil {
		return map[string]any{"url": p.url, "ok": false, "error": err.Error(), "elapsed_ms": elapsed}
	}
	defer resp.Body.Close()

	return map[string]any{
		"url":        p.url,
		"ok":         resp.StatusCode < 400,
		"code":       float64(resp.StatusCode),
		"elapsed_ms": elapsed,
	}
}
