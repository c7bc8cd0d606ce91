// Package api pkg/api/server.go
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/flexforge/beltmon/pkg/alerts"
)

const (
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 5 * time.Second
)

// Server exposes the line monitor over HTTP: JSON snapshots plus a
// websocket live feed.
type Server struct {
	provider StatusProvider
	router   *mux.Router
	httpSrv  *http.Server

	// pushInterval paces the websocket feed.
	pushInterval time.Duration
}

// NewServer builds the router around the given provider.
func NewServer(provider StatusProvider) *Server {
	s := &Server{
		provider:     provider,
		router:       mux.NewRouter(),
		pushInterval: time.Second,
	}
	s.setupRoutes()

	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	})

	s.router.HandleFunc("/api/status", s.getStatus).Methods("GET")
	s.router.HandleFunc("/api/telemetry", s.getTelemetry).Methods("GET")
	s.router.HandleFunc("/api/alerts", s.getAlerts).Methods("GET")
	s.router.HandleFunc("/api/alerts/{type}/acknowledge", s.acknowledgeAlert).Methods("POST")
	s.router.HandleFunc("/api/faults", s.getFaults).Methods("GET")
	s.router.HandleFunc("/api/live", s.serveLive).Methods("GET")
}

// Router exposes the handler for tests and embedding.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start serves until Shutdown or listener failure.
func (s *Server) Start(addr string) error {
	s.httpSrv = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	log.Printf("HTTP API listening on %s", addr)

	if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	return s.httpSrv.Shutdown(ctx)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (s *Server) getStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, s.provider.Status())
}

func (s *Server) getTelemetry(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, s.provider.LastSample())
}

func (s *Server) getAlerts(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, s.provider.ActiveAlerts())
}

func (s *Server) getFaults(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, s.provider.Faults())
}

func (s *Server) acknowledgeAlert(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	alertType := alerts.Type(vars["type"])

	if err := s.provider.Acknowledge(r.Context(), alertType); err != nil {
		if errors.Is(err, alerts.ErrUnknownAlert) {
			http.Error(w, "Alert not found", http.StatusNotFound)
			return
		}

		log.Printf("Error acknowledging %s: %v", alertType, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)

		return
	}

	writeJSON(w, map[string]string{"alert_type": string(alertType), "status": "acknowledged"})
}
