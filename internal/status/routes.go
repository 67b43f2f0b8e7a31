// Package status serves a read-only view of the running client over HTTP.
package status

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"pongclient/internal/pong"
	"pongclient/internal/session"
)

// Source is what the status routes read from.
type Source interface {
	Machine() *session.Machine
	State() *pong.State
}

func SetupRoutes(src Source) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", Healthz)
	r.Get("/status", Status(src))
	return r
}

// Serve runs the status server on addr until ctx is done.
func Serve(ctx context.Context, addr string, src Source) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           SetupRoutes(src),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Warn("status server shutdown", slog.Any("error", err))
		}
	}()

	slog.Info("status server listening", slog.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
