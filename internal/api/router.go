/**
 * @description
 * This file sets up the HTTP router for the deposit notification service. It
 * defines the API endpoints, associates them with their handlers, and applies
 * standard middleware.
 *
 * @dependencies
 * - net/http: Standard Go library for HTTP functionality.
 * - github.com/go-chi/chi/v5: A lightweight and idiomatic router for Go.
 */
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Routes creates and returns the router for the deposit notification service.
func Routes(h *DepositHandlers, gatherer prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("healthy"))
	})

	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/api/deposit", func(r chi.Router) {
		// Registered for all methods: the handler itself answers non-POST
		// requests with 405 so they are still audited under a request id.
		r.HandleFunc("/", h.DepositNotificationHandler)
		r.Get("/events", h.StreamDepositEvents)
	})

	return r
}
