package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/mohamedkhairy/intraday-volatility/internal/data"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter wires the analysis endpoints, health probes and metrics into one handler
func NewRouter(h *AnalysisHandler, factory data.ProviderFactory) http.Handler {
	router := mux.NewRouter()
	router.Use(mux.MiddlewareFunc(LoggingMiddleware()))

	// API v1 routes
	v1 := router.PathPrefix("/api/v1").Subrouter()
	v1.HandleFunc("/analysis", h.AnalyzeSeries).Methods(http.MethodPost)
	v1.HandleFunc("/analysis/{symbol}", h.AnalyzeSymbol).Methods(http.MethodGet)
	v1.HandleFunc("/params", h.GetParams).Methods(http.MethodGet)
	if factory != nil {
		v1.HandleFunc("/providers", h.ListProviders(factory)).Methods(http.MethodGet)
	}

	// Health check endpoints
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		respondWithJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	})

	router.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		if h.pipeline == nil {
			respondWithJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
			return
		}
		respondWithJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})

	router.HandleFunc("/live", func(w http.ResponseWriter, r *http.Request) {
		respondWithJSON(w, http.StatusOK, map[string]string{"status": "alive"})
	})

	// Metrics endpoint
	router.Handle("/metrics", promhttp.Handler())

	// Route-independent middleware wraps the router so that preflight and
	// unmatched requests pass through it too
	middlewares := ChainMiddleware(
		ErrorHandlingMiddleware(),
		RequestIDMiddleware(),
		CORSMiddleware(),
	)
	return middlewares(router)
}
