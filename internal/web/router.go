// Package web serves the chatbot over HTTP.
package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

// NewRouter creates and configures the HTTP router.
func NewRouter(handler *Handler, serviceName string, logger *slog.Logger) *mux.Router {
	if logger == nil {
		logger = slog.Default()
	}
	r := mux.NewRouter()

	r.Use(requestID)
	r.Use(accessLog(logger))
	r.Use(recoverPanics(logger))
	r.Use(tracing(serviceName))

	r.HandleFunc("/", handler.HandlePage).Methods(http.MethodGet, http.MethodPost)
	r.HandleFunc("/api/ask", handler.HandleAsk).Methods(http.MethodPost)
	r.HandleFunc("/api/health", handler.HandleHealth).Methods(http.MethodGet)
	r.HandleFunc("/api/stats", handler.HandleStats).Methods(http.MethodGet)

	return r
}

// Serve runs an HTTP server on addr until ctx is cancelled, then shuts it
// down gracefully.
func Serve(ctx context.Context, addr string, h http.Handler, logger *slog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("web server starting", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down web server")
	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutCtx)
}
