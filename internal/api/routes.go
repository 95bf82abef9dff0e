package api

import (
	"github.com/gorilla/mux"
	"github.com/mccorkel/mnr-hackathon-mobile/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRoutes configures and returns the HTTP router
func SetupRoutes(h *Handlers) *mux.Router {
	r := mux.NewRouter()
	r.Use(metrics.MetricsMiddleware)

	r.HandleFunc("/health", h.HealthHandler).Methods("GET")
	r.HandleFunc("/status", h.StatusHandler).Methods("GET")

	r.HandleFunc("/records", h.RecordsHandler).Methods("GET")
	r.HandleFunc("/vitals", h.VitalsHandler).Methods("GET")
	r.HandleFunc("/categories", h.CategoriesHandler).Methods("GET")
	r.HandleFunc("/patients", h.PatientsHandler).Methods("GET")
	r.HandleFunc("/refresh", h.RefreshHandler).Methods("POST")

	// Only exposed when metrics collection is enabled
	if reg := metrics.GetRegistry(); reg != nil {
		r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{})).Methods("GET")
	}

	return r
}
