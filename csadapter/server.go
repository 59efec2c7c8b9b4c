// Package csadapter exposes the variable network of an application over
// HTTP so a control system can browse, read and write process variables.
package csadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/procsys/appcore/app"
	"github.com/procsys/appcore/device"
)

const (
	contentTypeJSON        = "application/json"
	defaultShutdownTimeout = time.Second * 5
)

// Server serves the control-system HTTP API for one application.
type Server struct {
	app        *app.Application
	backend    device.Backend
	httpServer *http.Server
	addr       string
}

// NewServer creates a server for the given application. backend may be nil
// when the application has no device layer; health then reports only the
// module state.
func NewServer(a *app.Application, backend device.Backend, addr string) *Server {
	return &Server{app: a, backend: backend, addr: addr}
}

// Start begins serving in the background.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:              s.addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: time.Second,
	}

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
		}
	}()

	slog.Info("HTTP server started", "addr", s.addr)
	return nil
}

// Stop shuts the server down, waiting up to the shutdown timeout for
// in-flight requests.
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}
	return nil
}

// Router builds the chi router serving the API.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", s.handleHealth)
	r.Get("/metrics", s.handleMetrics)
	r.Get("/variables", s.handleList)
	r.Get("/variables/*", s.handleRead)
	r.Put("/variables/*", s.handleWrite)

	return r
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Warn("Error encoding response", "error", err)
	}
}

func variablePath(r *http.Request) string {
	return "/" + chi.URLParam(r, "*")
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	h := healthResponse{
		Status:  "ok",
		Modules: s.app.ModuleCount(),
	}
	status := http.StatusOK
	if s.backend != nil {
		h.DeviceFunctional = s.backend.IsFunctional()
		if !h.DeviceFunctional {
			h.Status = "degraded"
			status = http.StatusServiceUnavailable
		}
	}
	s.writeJSON(w, status, h)
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.app.Metrics().Snapshot())
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	vars := s.app.Variables()
	out := make([]variableResponse, len(vars))
	for i, info := range vars {
		out[i] = newVariableResponse(info)
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleRead(w http.ResponseWriter, r *http.Request) {
	info, err := s.app.ReadVariable(variablePath(r))
	if err != nil {
		s.writeJSON(w, http.StatusNotFound, newErrorResponse(err))
		return
	}
	s.writeJSON(w, http.StatusOK, newVariableResponse(info))
}

func (s *Server) handleWrite(w http.ResponseWriter, r *http.Request) {
	var body writeRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeJSON(w, http.StatusBadRequest, newErrorResponse(err))
		return
	}

	path := variablePath(r)
	v, err := s.app.WriteVariable(r.Context(), path, body.Value)
	if err != nil {
		s.writeJSON(w, statusForWriteError(err), newErrorResponse(err))
		return
	}

	info, err := s.app.ReadVariable(path)
	if err != nil {
		s.writeJSON(w, http.StatusInternalServerError, newErrorResponse(err))
		return
	}
	resp := newVariableResponse(info)
	resp.Version = v.String()
	s.writeJSON(w, http.StatusOK, resp)
}
