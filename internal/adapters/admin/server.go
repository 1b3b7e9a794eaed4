// Package admin serves the router control plane as a JSON HTTP API.
package admin

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"go.trai.ch/fsroute/internal/core/domain"
	"go.trai.ch/fsroute/internal/core/ports"
	"go.trai.ch/zerr"
)

// ControlPlane is the part of the router exposed by the admin API.
type ControlPlane interface {
	Handlers() []*domain.Handler
	Lookup(ctx context.Context, path string, shouldLoad bool) (*domain.Match, error)
	Reconcile(ctx context.Context) error
	Pending() int
	WhenInitialized() <-chan struct{}
}

// Server serves the admin API.
type Server struct {
	router ControlPlane
	logger ports.Logger
	server *http.Server
}

// NewServer creates an admin server for router.
func NewServer(router ControlPlane, logger ports.Logger) *Server {
	s := &Server{router: router, logger: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/health", s.health)
	mux.HandleFunc("GET /v1/handlers", s.listHandlers)
	mux.HandleFunc("GET /v1/lookup", s.lookup)
	mux.HandleFunc("POST /v1/reconcile", s.reconcile)

	s.server = &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	return s
}

// Handler returns the API handler.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Serve serves the API on ln until Shutdown.
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("Admin API listening on " + ln.Addr().String())
	if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return zerr.Wrap(err, "admin server failed")
	}
	return nil
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

type healthResponse struct {
	Status      string `json:"status"`
	Initialized bool   `json:"initialized"`
	Pending     int    `json:"pending"`
}

type handlerResponse struct {
	ID      string   `json:"id"`
	Runtime string   `json:"runtime"`
	Hooks   []string `json:"hooks"`
}

type matchResponse struct {
	Kind      string   `json:"kind"`
	Path      string   `json:"path"`
	Remainder string   `json:"remainder"`
	ID        string   `json:"id"`
	Hooks     []string `json:"hooks,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	initialized := false
	select {
	case <-s.router.WhenInitialized():
		initialized = true
	default:
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Initialized: initialized, Pending: s.router.Pending()})
}

func (s *Server) listHandlers(w http.ResponseWriter, _ *http.Request) {
	loaded := s.router.Handlers()
	resp := make([]handlerResponse, 0, len(loaded))
	for _, h := range loaded {
		hooks := h.Hooks()
		if hooks == nil {
			hooks = []string{}
		}
		resp = append(resp, handlerResponse{ID: h.ID, Runtime: h.Runtime, Hooks: hooks})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing path parameter"})
		return
	}

	m, err := s.router.Lookup(r.Context(), path, false)
	switch {
	case errors.Is(err, domain.ErrResourceNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
		return
	case errors.Is(err, domain.ErrRouterDestroyed):
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
		return
	case err != nil:
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, matchResponse{
		Kind:      m.Kind.String(),
		Path:      m.Candidate.Path,
		Remainder: m.Candidate.Remainder,
		ID:        m.ID,
		Hooks:     m.Hooks,
	})
}

func (s *Server) reconcile(w http.ResponseWriter, r *http.Request) {
	pending := s.router.Pending()
	if err := s.router.Reconcile(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"applied": pending})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
