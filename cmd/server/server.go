package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/taskboard/taskboard/internal/redact"
)

// startHTTPServer serves router until ctx is canceled, then shuts down
// gracefully within the configured timeout.
func (app *application) startHTTPServer(ctx context.Context, router http.Handler) error {
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", app.config.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverCtx, cancelServer := context.WithCancel(ctx)
	defer cancelServer()

	serveErr := make(chan error, 1)
	go func() {
		app.logger.Info("Starting server", "port", app.config.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.logger.Error("Server failed", redact.Attr(err))
			serveErr <- err
			cancelServer()
		}
	}()

	<-serverCtx.Done()
	app.logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), app.config.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		app.logger.Error("Server shutdown failed", redact.Attr(err))
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	app.cleanup(shutdownCtx)
	app.logger.Info("Server shutdown completed")

	select {
	case err := <-serveErr:
		return err
	default:
		return nil
	}
}
