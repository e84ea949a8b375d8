// Package server exposes the JSON REST surface. Every response carries a
// success flag; failures add a user-facing message and an appropriate 4xx/5xx
// status. Errors are converted here, at the boundary, and never propagate
// unhandled.
package server

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"prismora/internal/apperr"
	"prismora/internal/auth"
	"prismora/internal/scan"
	"prismora/internal/store"
	"prismora/shared/monitoring"
)

// Scanner runs the classification pipeline for one input.
type Scanner interface {
	Scan(ctx context.Context, input string) (*scan.Result, error)
}

type Server struct {
	mux     *http.ServeMux
	scanner Scanner
	auth    *auth.Service
	store   *store.Store
	monitor *monitoring.Monitor
}

func New(scanner Scanner, authSvc *auth.Service, st *store.Store, monitor *monitoring.Monitor) *Server {
	s := &Server{
		mux:     http.NewServeMux(),
		scanner: scanner,
		auth:    authSvc,
		store:   st,
		monitor: monitor,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("POST /auth/signup", s.handleSignUp)
	s.mux.HandleFunc("POST /auth/login", s.handleLogin)
	s.mux.HandleFunc("POST /auth/verify-password", s.handleVerifyPassword)

	s.mux.HandleFunc("POST /scan", s.handleScan)

	s.mux.HandleFunc("GET /history", s.handleGetHistory)
	s.mux.HandleFunc("POST /history", s.handleAppendHistory)

	s.mux.HandleFunc("GET /scan-history", s.handleGetScanHistory)
	s.mux.HandleFunc("POST /scan-history", s.handleAppendScanHistory)
	s.mux.HandleFunc("DELETE /scan-history", s.handleClearScanHistory)

	s.mux.HandleFunc("GET /playlists", s.handleGetPlaylists)
	s.mux.HandleFunc("POST /playlists", s.handleCreatePlaylist)
	s.mux.HandleFunc("POST /playlist/add", s.handleAddToPlaylist)

	s.mux.HandleFunc("GET /save", s.handleGetSavedVideos)
	s.mux.HandleFunc("POST /save", s.handleSaveVideo)

	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /status", s.handleStatus)
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

// decode reads a JSON request body into dst.
func decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperr.Wrap(apperr.Input, "Invalid request body", err)
	}
	return nil
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("Warning: Failed to encode response: %v", err)
	}
}

// writeSuccess sends a 200 with success:true merged into the payload.
func (s *Server) writeSuccess(w http.ResponseWriter, payload map[string]any) {
	if payload == nil {
		payload = map[string]any{}
	}
	payload["success"] = true
	s.writeJSON(w, http.StatusOK, payload)
}

// writeError translates err into the {success:false, message} contract.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	log.Printf("%s %s failed: %v", r.Method, r.URL.Path, err)
	s.writeJSON(w, apperr.HTTPStatus(err), map[string]any{
		"success": false,
		"message": apperr.UserMessage(err),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.monitor.IsHealthy() {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_, _ = w.Write([]byte(s.monitor.GetStatusSummary()))
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(s.monitor.GetStatusSummary()))
}
