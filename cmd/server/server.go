// cmd/server/server.go
package main

import (
	"net/http"
	"strconv"
	"time"

	"github.com/canchapro/canchapro/internal/api"
	"github.com/canchapro/canchapro/internal/api/complexes"
	"github.com/canchapro/canchapro/internal/api/courts"
	apipayments "github.com/canchapro/canchapro/internal/api/payments"
	"github.com/canchapro/canchapro/internal/api/reservations"
	"github.com/canchapro/canchapro/internal/config"
)

func newServer(cfg *config.Config) *http.Server {
	router := http.NewServeMux()

	// Setup middleware chain
	handler := api.ChainMiddleware(
		router,
		api.WithLogging,
		api.WithRecovery,
		api.WithRequestID,
		api.WithContentType,
	)

	registerRoutes(router)

	return &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.App.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

func registerRoutes(mux *http.ServeMux) {
	// Health check
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Complex catalog
	mux.HandleFunc("GET /api/v1/complexes", complexes.HandleList)
	mux.HandleFunc("GET /api/v1/complexes/{id}", complexes.HandleDetail)

	// Court day schedule
	mux.HandleFunc("GET /api/v1/courts/{id}/schedule", courts.HandleSchedule)

	// Reservation intents
	mux.HandleFunc("POST /api/v1/reservations/whatsapp", reservations.HandleWhatsApp)

	// Card payments
	mux.HandleFunc("POST /api/v1/payments/charge", apipayments.HandleCharge)
}
