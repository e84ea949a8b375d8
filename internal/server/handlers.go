package server

import (
	"net/http"
	"time"

	"prismora/internal/apperr"
	"prismora/internal/models"
)

type signUpRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.auth.SignUp(r.Context(), req.Name, req.Email, req.Password); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeSuccess(w, map[string]any{"message": "User registered successfully"})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	user, err := s.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	// First login gets the starter playlists so the library is never empty.
	if err := s.ensureDefaultPlaylists(r, user.ID); err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeSuccess(w, map[string]any{"user": user})
}

var defaultPlaylistNames = []string{"Weekend Cartoons", "Educational Clips"}

func (s *Server) ensureDefaultPlaylists(r *http.Request, userID string) error {
	n, err := s.store.CountPlaylists(r.Context(), userID)
	if err != nil || n > 0 {
		return err
	}
	for _, name := range defaultPlaylistNames {
		if _, err := s.store.CreatePlaylist(r.Context(), userID, name); err != nil {
			return err
		}
	}
	return nil
}

type verifyPasswordRequest struct {
	UserID   string `json:"userId"`
	Password string `json:"password"`
}

func (s *Server) handleVerifyPassword(w http.ResponseWriter, r *http.Request) {
	var req verifyPasswordRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.auth.VerifyPassword(r.Context(), req.UserID, req.Password); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeSuccess(w, nil)
}

type scanRequest struct {
	Input string `json:"input"`
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	start := time.Now()
	result, err := s.scanner.Scan(r.Context(), req.Input)
	if err != nil {
		if apperr.KindOf(err) != apperr.Input {
			s.monitor.RecordScanFailure(err, time.Since(start))
		}
		s.writeError(w, r, err)
		return
	}

	if result.IsSearch() {
		s.writeSuccess(w, map[string]any{"searchResults": result.SearchResults})
		return
	}

	s.monitor.RecordScanSuccess(time.Since(start))
	s.writeSuccess(w, map[string]any{
		"url":            result.URL,
		"videoDetails":   result.Details,
		"analysisResult": result.Report,
		"primaryConcern": result.PrimaryConcern,
	})
}

// userIDQuery pulls the owner from the query string for GET/DELETE routes.
func userIDQuery(r *http.Request) (string, error) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		return "", apperr.New(apperr.Input, "User ID is required")
	}
	return userID, nil
}

func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDQuery(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	history, err := s.store.History(r.Context(), userID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeSuccess(w, map[string]any{"history": history})
}

type historyRequest struct {
	UserID string        `json:"userId"`
	Video  *models.Video `json:"video"`
}

func (s *Server) handleAppendHistory(w http.ResponseWriter, r *http.Request) {
	var req historyRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.UserID == "" || req.Video == nil || req.Video.URL == "" {
		s.writeError(w, r, apperr.New(apperr.Input, "User ID and video are required"))
		return
	}
	if err := s.store.AppendHistory(r.Context(), req.UserID, *req.Video); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeSuccess(w, map[string]any{"message": "Added to history successfully"})
}

func (s *Server) handleGetScanHistory(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDQuery(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	scans, err := s.store.ScanHistory(r.Context(), userID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeSuccess(w, map[string]any{"scanHistory": scans})
}

type scanHistoryRequest struct {
	UserID         string                 `json:"userId"`
	URL            string                 `json:"url"`
	AnalysisResult *models.AnalysisReport `json:"analysisResult"`
	VideoDetails   *models.VideoDetails   `json:"videoDetails"`
}

func (s *Server) handleAppendScanHistory(w http.ResponseWriter, r *http.Request) {
	var req scanHistoryRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.UserID == "" || req.URL == "" || req.AnalysisResult == nil || req.VideoDetails == nil {
		s.writeError(w, r, apperr.New(apperr.Input, "All fields are required"))
		return
	}
	entry := models.ScanEntry{
		URL:            req.URL,
		AnalysisResult: *req.AnalysisResult,
		VideoDetails:   *req.VideoDetails,
	}
	if err := s.store.AppendScan(r.Context(), req.UserID, entry); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeSuccess(w, map[string]any{"message": "Added to scan history successfully"})
}

func (s *Server) handleClearScanHistory(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDQuery(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.store.ClearScanHistory(r.Context(), userID); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeSuccess(w, map[string]any{"message": "Scan history cleared successfully"})
}

func (s *Server) handleGetPlaylists(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDQuery(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	playlists, err := s.store.Playlists(r.Context(), userID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeSuccess(w, map[string]any{"playlists": playlists})
}

type createPlaylistRequest struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
}

func (s *Server) handleCreatePlaylist(w http.ResponseWriter, r *http.Request) {
	var req createPlaylistRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.UserID == "" || req.Name == "" {
		s.writeError(w, r, apperr.New(apperr.Input, "User ID and playlist name are required"))
		return
	}
	playlist, err := s.store.CreatePlaylist(r.Context(), req.UserID, req.Name)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeSuccess(w, map[string]any{"playlist": playlist})
}

type addToPlaylistRequest struct {
	UserID     string        `json:"userId"`
	PlaylistID string        `json:"playlistId"`
	Video      *models.Video `json:"video"`
}

func (s *Server) handleAddToPlaylist(w http.ResponseWriter, r *http.Request) {
	var req addToPlaylistRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.UserID == "" || req.PlaylistID == "" || req.Video == nil || req.Video.URL == "" {
		s.writeError(w, r, apperr.New(apperr.Input, "User ID, playlist ID, and video details are required"))
		return
	}
	if err := s.store.AddToPlaylist(r.Context(), req.UserID, req.PlaylistID, *req.Video); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeSuccess(w, map[string]any{"message": "Video added to playlist successfully"})
}

func (s *Server) handleGetSavedVideos(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDQuery(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	videos, err := s.store.SavedVideos(r.Context(), userID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeSuccess(w, map[string]any{"videos": videos})
}

type saveVideoRequest struct {
	UserID string        `json:"userId"`
	Video  *models.Video `json:"video"`
}

func (s *Server) handleSaveVideo(w http.ResponseWriter, r *http.Request) {
	var req saveVideoRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.UserID == "" || req.Video == nil || req.Video.URL == "" || req.Video.VideoTitle == "" {
		s.writeError(w, r, apperr.New(apperr.Input, "User ID and video details are required"))
		return
	}
	if err := s.store.SaveVideo(r.Context(), req.UserID, *req.Video); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeSuccess(w, map[string]any{"message": "Video saved successfully"})
}
