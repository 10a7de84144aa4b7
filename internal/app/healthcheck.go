package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/vk/tickrig/internal/ctxlog"
)

// healthHandler answers liveness probes while a run executes.
func (a *App) healthHandler(w http.ResponseWriter, r *http.Request) {
	a.logger.Debug("Health check endpoint hit.", "remote_addr", r.RemoteAddr, "path", r.URL.Path)
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "OK")
}

// healthCheckServer runs the health check HTTP server until the run's
// context is cancelled.
func (a *App) healthCheckServer(ctx context.Context) {
	logger := ctxlog.FromContext(ctx)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", a.healthHandler)
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", a.cfg.HealthcheckPort),
		Handler: mux,
	}

	go func() {
		<-ctx.Done()
		srv.Close()
	}()

	logger.Info("Health check server starting", "address", fmt.Sprintf("http://localhost%s/health", srv.Addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Health check server failed unexpectedly", "error", err)
	}
}
