package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"service-portal-backend/internal/metrics"
	"service-portal-backend/internal/security"
	"service-portal-backend/internal/service"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RouterDeps holds everything the HTTP surface needs.
type RouterDeps struct {
	Requests     service.RequestService
	Ledger       service.LedgerService
	TokenManager security.TokenManager
	Metrics      *metrics.Metrics
	Gatherer     prometheus.Gatherer
	// Health is optional; without it /healthz always reports ok.
	Health Pinger
}

// NewRouter registers the API routes
func NewRouter(deps RouterDeps) *mux.Router {
	router := mux.NewRouter()
	router.Use(recoverMiddleware, metricsMiddleware(deps.Metrics), NewAuthMiddleware(deps.TokenManager).Handler)

	router.HandleFunc("/healthz", healthHandler(deps.Health)).Methods(http.MethodGet)
	if deps.Gatherer != nil {
		router.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}

	RegisterRequestRoutes(router, NewRequestHandler(deps.Requests))
	RegisterTransactionRoutes(router, NewTransactionHandler(deps.Ledger))
	return router
}

// RegisterRequestRoutes registers the service record endpoints
func RegisterRequestRoutes(router *mux.Router, h *RequestHandler) {
	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/requests/{type}", h.Submit).Methods(http.MethodPost)
	api.HandleFunc("/requests/{type}/{id}", h.Get).Methods(http.MethodGet)
	api.HandleFunc("/requests/{type}/{id}/status", h.ChangeStatus).Methods(http.MethodPut)
	api.HandleFunc("/requests/{type}/{id}", h.Remove).Methods(http.MethodDelete)
	api.HandleFunc("/availability/{type}", h.Availability).Methods(http.MethodGet)
}

// RegisterTransactionRoutes registers the ledger endpoints. The sync route
// is registered before {id} so it is not taken for an id.
func RegisterTransactionRoutes(router *mux.Router, h *TransactionHandler) {
	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/transactions", h.List).Methods(http.MethodGet)
	api.HandleFunc("/transactions/sync", h.Sync).Methods(http.MethodPost)
	api.HandleFunc("/transactions/{id}", h.Get).Methods(http.MethodGet)
	api.HandleFunc("/transactions/{id}/decision", h.Decide).Methods(http.MethodPost)
}

func healthHandler(p Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if p != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := p.Ping(ctx); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
