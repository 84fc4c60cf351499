package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"
)

// ShutdownGrace bounds how long in-flight requests may run after a stop signal.
const ShutdownGrace = 10 * time.Second

// Run serves srv until ctx is cancelled or the process gets SIGINT/SIGTERM,
// then drains connections for at most ShutdownGrace. A listener failure is
// returned as is; a clean stop returns nil.
func Run(ctx context.Context, srv *http.Server, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("listening", slog.String("addr", srv.Addr))
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen %s: %w", srv.Addr, err)
	case <-ctx.Done():
	}

	logger.Info("draining connections", slog.Duration("grace", ShutdownGrace))
	started := time.Now()
	drainCtx, cancel := context.WithTimeout(context.Background(), ShutdownGrace)
	defer cancel()

	if err := srv.Shutdown(drainCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("server stopped", slog.Duration("took", time.Since(started)))
	return nil
}
