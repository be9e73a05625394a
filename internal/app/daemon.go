package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/idilsaglam/checklist/internal/logfields"
	"github.com/idilsaglam/checklist/internal/metrics"
)

const shutdownTimeout = 10 * time.Second

// RunDaemon keeps reminders firing without a terminal UI until ctx ends.
// It also serves metrics and listens for NATS actions when those are enabled.
func (a *App) RunDaemon(ctx context.Context) error {
	slog.Info("Starting reminder daemon", logfields.Path(a.Config.StateDir), logfields.Backend(string(a.Config.Store.Backend)))

	if err := a.StartReminders(ctx); err != nil {
		return err
	}
	if err := a.ListenForActions(ctx); err != nil {
		return fmt.Errorf("listen for actions: %w", err)
	}

	errChan := make(chan error, 1)
	var srv *http.Server
	if a.Registry != nil {
		ln, err := net.Listen("tcp", a.Config.Metrics.Addr)
		if err != nil {
			return fmt.Errorf("metrics listener: %w", err)
		}
		mux := http.NewServeMux()
		mux.Handle(a.Config.Metrics.Path, metrics.HTTPHandler(a.Registry))
		srv = &http.Server{Handler: mux, ReadTimeout: 30 * time.Second, WriteTimeout: 30 * time.Second, IdleTimeout: 120 * time.Second}
		go func() {
			if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errChan <- err
			}
		}()
		slog.Info("Serving metrics", slog.String("addr", ln.Addr().String()), logfields.Path(a.Config.Metrics.Path))
	}

	slog.Info("Daemon started, waiting for shutdown signal...")
	var runErr error
	select {
	case err := <-errChan:
		runErr = fmt.Errorf("metrics server: %w", err)
	case <-ctx.Done():
		slog.Info("Shutdown signal received, stopping daemon...")
	}

	if srv != nil {
		stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(stopCtx); err != nil {
			runErr = errors.Join(runErr, fmt.Errorf("stop metrics server: %w", err))
		}
	}
	slog.Info("Daemon stopped")
	return runErr
}
