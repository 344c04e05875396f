// Package router configures HTTP routes for the benchmark's observation
// surface.
//
// When -listen is set, the benchmark exposes an HTTP server that serves the
// current run's snapshot, health checks, and Prometheus metrics. This
// package sets up the routes for that server.
//
// Routes configured:
//   - GET /run/current - Latest snapshot of the running benchmark
//   - GET /healthz - Health check endpoint (returns 200 OK)
//   - GET /metrics - Prometheus metrics endpoint
//
// The /run/current endpoint returns the run snapshot in JSON: identity,
// progress, sealed-window series, and the current ensemble weights. Until
// the first window seals it responds 404.
package router

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/HatiCode/streamsad/pkg/httpx"
	"github.com/HatiCode/streamsad/pkg/storage"
)

// SetupRoutes configures HTTP endpoints for the benchmark. The key
// identifies the run this process is executing. The returned handler wraps
// the mux with request logging and panic recovery.
func SetupRoutes(store storage.Store, key string, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	// Health check endpoint
	mux.Handle("/healthz", httpx.HealthHandler())

	// Live run snapshot endpoint
	mux.HandleFunc("/run/current", handleGetSnapshot(store, key, logger))

	// Prometheus metrics endpoint
	mux.Handle("/metrics", promhttp.Handler())

	return httpx.RecoveryMiddleware(logger)(httpx.LoggingMiddleware(logger)(mux))
}

// handleGetSnapshot returns a handler for GET /run/current.
func handleGetSnapshot(store storage.Store, key string, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		snapshot, found, err := store.GetLatest(ctx, key)
		if err != nil {
			logger.Error("failed to get snapshot", "key", key, "error", err)
			httpx.WriteErrorMessage(w, http.StatusInternalServerError, "internal server error")
			return
		}

		if !found {
			httpx.WriteErrorMessage(w, http.StatusNotFound, "no window sealed yet")
			return
		}

		if err := httpx.WriteJSON(w, http.StatusOK, snapshot); err != nil {
			logger.Error("failed to write JSON response", "error", err)
		}
	}
}
