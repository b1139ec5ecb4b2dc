// Package http exposes the development control surface: health, readiness,
// and metrics endpoints plus a small JSON API over the core, standing in for
// the mobile presentation layer.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rainydays/core/internal/app"
	"github.com/rainydays/core/internal/domain"
	"github.com/rainydays/core/internal/notify"
)

// Core is the slice of the app the server drives.
type Core interface {
	CheckReadiness(ctx context.Context) error
	Events(ctx context.Context) []domain.Event
	CreateEvent(ctx context.Context, req app.CreateRequest) (domain.Event, error)
	DeleteEvent(id uuid.UUID)
	Recenter()
	ShowAdvisory()
	Advisory() notify.State
	Region() (domain.Region, bool)
}

// Server wraps the HTTP listener around a Core.
type Server struct {
	httpServer *http.Server
	core       Core
	logger     *slog.Logger
}

// NewServer creates the server and registers all routes.
func NewServer(addr string, core Core, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		core:   core,
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /api/events", s.handleListEvents)
	mux.HandleFunc("POST /api/events", s.handleCreateEvent)
	mux.HandleFunc("DELETE /api/events/{id}", s.handleDeleteEvent)
	mux.HandleFunc("POST /api/recenter", s.handleRecenter)
	mux.HandleFunc("GET /api/advisory", s.handleGetAdvisory)
	mux.HandleFunc("POST /api/advisory", s.handleShowAdvisory)
	mux.HandleFunc("GET /api/region", s.handleRegion)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.core.CheckReadiness(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.core.Events(r.Context()))
}

// createEventRequest mirrors app.CreateRequest for the dev API. Only hosted
// image URLs are accepted here; raw uploads go through the real form flow.
type createEventRequest struct {
	Name        string          `json:"name"`
	DateTime    time.Time       `json:"dateTime"`
	Description string          `json:"description"`
	Location    string          `json:"location"`
	Price       float64         `json:"price"`
	Audience    domain.Audience `json:"audience"`
	MinAge      int             `json:"minAge"`
	MaxAge      int             `json:"maxAge"`
	ImageRef    string          `json:"imageRef"`
}

func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	var req createEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	event, err := s.core.CreateEvent(r.Context(), app.CreateRequest{
		Name:        req.Name,
		DateTime:    req.DateTime,
		Description: req.Description,
		Location:    req.Location,
		Price:       req.Price,
		Audience:    req.Audience,
		MinAge:      req.MinAge,
		MaxAge:      req.MaxAge,
		ImageRef:    req.ImageRef,
	})
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, app.ErrNoImage) {
			status = http.StatusBadRequest
		}
		writeJSON(w, status, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, event)
}

func (s *Server) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid event id"})
		return
	}
	s.core.DeleteEvent(id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRecenter(w http.ResponseWriter, _ *http.Request) {
	s.core.Recenter()
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleGetAdvisory(w http.ResponseWriter, _ *http.Request) {
	state := s.core.Advisory()
	writeJSON(w, http.StatusOK, map[string]any{
		"message": state.Message,
		"visible": state.Visible,
	})
}

func (s *Server) handleShowAdvisory(w http.ResponseWriter, _ *http.Request) {
	s.core.ShowAdvisory()
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleRegion(w http.ResponseWriter, _ *http.Request) {
	region, ok := s.core.Region()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no viewport yet"})
		return
	}
	writeJSON(w, http.StatusOK, region)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
