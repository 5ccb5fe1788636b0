package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/agenthands/tally/internal/schedule"
	"github.com/agenthands/tally/internal/server"
)

const shutdownTimeout = 10 * time.Second

// Serve runs the HTTP surface, and the reconcile scheduler when an interval is
// configured, until ctx is done.
func (a *App) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + a.Config.Server.Port,
		Handler:           server.NewServer(a.ServerOptions()).SetupRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("starting server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	if interval := a.Config.Reconcile.IntervalMinutes; interval > 0 && a.Engine != nil {
		runner := schedule.NewRunner(a.Engine, time.Duration(interval)*time.Minute, seconds(a.Config.Reconcile.TimeoutSeconds), a.logger)
		go runner.Run(ctx)
	}

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
