// Package session is the client-side application state container: who is
// logged in, whether the UI is in parent or child mode, and the user's
// library (playlists, saved videos, history, scan history) fetched at login.
// Every mutation is write-then-confirm: the persistence collaborator is asked
// first and local state changes only after it succeeds, so a failed write
// leaves the visible state untouched.
package session

import (
	"context"
	"sync"

	"prismora/internal/apperr"
	"prismora/internal/models"
)

// Mode is the UI restriction level.
type Mode string

const (
	// ParentMode exposes the full application.
	ParentMode Mode = "parent"
	// ChildMode restricts the UI to pre-approved playlists. Leaving it
	// requires re-entering the account credential.
	ChildMode Mode = "child"
)

// ErrNotAuthenticated is returned by owner-scoped operations after logout;
// they fail fast instead of silently doing nothing.
var ErrNotAuthenticated = apperr.New(apperr.Auth, "Not authenticated")

// Default playlists created server-side for first-time users before the
// first library fetch completes.
var defaultPlaylistNames = []string{"Weekend Cartoons", "Educational Clips"}

// Library is the persistence collaborator slice the session needs.
type Library interface {
	CountPlaylists(ctx context.Context, userID string) (int, error)
	CreatePlaylist(ctx context.Context, userID, name string) (*models.Playlist, error)
	Playlists(ctx context.Context, userID string) ([]models.Playlist, error)
	AddToPlaylist(ctx context.Context, userID, playlistID string, video models.Video) error
	SaveVideo(ctx context.Context, userID string, video models.Video) error
	SavedVideos(ctx context.Context, userID string) ([]models.Video, error)
	AppendHistory(ctx context.Context, userID string, video models.Video) error
	History(ctx context.Context, userID string) ([]models.Video, error)
	AppendScan(ctx context.Context, userID string, entry models.ScanEntry) error
	ScanHistory(ctx context.Context, userID string) ([]models.ScanEntry, error)
	ClearScanHistory(ctx context.Context, userID string) error
}

// Verifier checks account credentials.
type Verifier interface {
	Login(ctx context.Context, email, password string) (*models.User, error)
	VerifyPassword(ctx context.Context, userID, password string) error
}

type Session struct {
	verifier Verifier
	library  Library

	mu        sync.Mutex
	user      *models.User
	mode      Mode
	playlists []models.Playlist
	saved     []models.Video
	history   []models.Video
	scans     []models.ScanEntry
}

func New(verifier Verifier, library Library) *Session {
	return &Session{
		verifier: verifier,
		library:  library,
		mode:     ParentMode,
	}
}

// Login verifies the credentials and, on success, fetches the user's library.
// A first-time user with zero playlists gets the default playlists created
// before the fetch.
func (s *Session) Login(ctx context.Context, email, password string) error {
	user, err := s.verifier.Login(ctx, email, password)
	if err != nil {
		return err
	}

	if err := s.ensureDefaultPlaylists(ctx, user.ID); err != nil {
		return err
	}

	playlists, err := s.library.Playlists(ctx, user.ID)
	if err != nil {
		return err
	}
	saved, err := s.library.SavedVideos(ctx, user.ID)
	if err != nil {
		return err
	}
	history, err := s.library.History(ctx, user.ID)
	if err != nil {
		return err
	}
	scans, err := s.library.ScanHistory(ctx, user.ID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = user
	s.mode = ParentMode
	s.playlists = playlists
	s.saved = saved
	s.history = history
	s.scans = scans
	return nil
}

func (s *Session) ensureDefaultPlaylists(ctx context.Context, userID string) error {
	n, err := s.library.CountPlaylists(ctx, userID)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	for _, name := range defaultPlaylistNames {
		if _, err := s.library.CreatePlaylist(ctx, userID, name); err != nil {
			return err
		}
	}
	return nil
}

// Logout clears all library state immediately.
func (s *Session) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = nil
	s.mode = ParentMode
	s.playlists = nil
	s.saved = nil
	s.history = nil
	s.scans = nil
}

// User returns the authenticated account, if any.
func (s *Session) User() (*models.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return nil, false
	}
	u := *s.user
	return &u, true
}

func (s *Session) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// EnterChildMode switches to the restricted UI. No credential required.
func (s *Session) EnterChildMode() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode = ChildMode
}

// ExitChildMode re-verifies the account credential and returns to parent
// mode. On mismatch the session stays in child mode and the error surfaces.
func (s *Session) ExitChildMode(ctx context.Context, password string) error {
	s.mu.Lock()
	if s.user == nil {
		s.mu.Unlock()
		return ErrNotAuthenticated
	}
	userID := s.user.ID
	s.mu.Unlock()

	if err := s.verifier.VerifyPassword(ctx, userID, password); err != nil {
		return err
	}

	s.mu.Lock()
	s.mode = ParentMode
	s.mu.Unlock()
	return nil
}

func (s *Session) currentUserID() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return "", ErrNotAuthenticated
	}
	return s.user.ID, nil
}

// SaveVideo persists the video and, once confirmed, prepends it to the local
// saved list.
func (s *Session) SaveVideo(ctx context.Context, video models.Video) error {
	userID, err := s.currentUserID()
	if err != nil {
		return err
	}
	if err := s.library.SaveVideo(ctx, userID, video); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved = append([]models.Video{video}, s.saved...)
	return nil
}

// CreatePlaylist persists a new playlist and appends it locally.
func (s *Session) CreatePlaylist(ctx context.Context, name string) (*models.Playlist, error) {
	userID, err := s.currentUserID()
	if err != nil {
		return nil, err
	}
	if name == "" {
		return nil, apperr.New(apperr.Input, "User ID and playlist name are required")
	}

	playlist, err := s.library.CreatePlaylist(ctx, userID, name)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.playlists = append(s.playlists, *playlist)
	return playlist, nil
}

// AddToPlaylist persists the membership change, then mirrors it locally.
func (s *Session) AddToPlaylist(ctx context.Context, playlistID string, video models.Video) error {
	userID, err := s.currentUserID()
	if err != nil {
		return err
	}
	if err := s.library.AddToPlaylist(ctx, userID, playlistID, video); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.playlists {
		if s.playlists[i].ID == playlistID {
			s.playlists[i].Videos = append(s.playlists[i].Videos, video)
			break
		}
	}
	return nil
}

// AppendHistory records a watched video.
func (s *Session) AppendHistory(ctx context.Context, video models.Video) error {
	userID, err := s.currentUserID()
	if err != nil {
		return err
	}
	if err := s.library.AppendHistory(ctx, userID, video); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append([]models.Video{video}, s.history...)
	return nil
}

// AppendScan records a completed scan.
func (s *Session) AppendScan(ctx context.Context, entry models.ScanEntry) error {
	userID, err := s.currentUserID()
	if err != nil {
		return err
	}
	if err := s.library.AppendScan(ctx, userID, entry); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.scans = append([]models.ScanEntry{entry}, s.scans...)
	return nil
}

// ClearScanHistory wipes the user's scan records.
func (s *Session) ClearScanHistory(ctx context.Context) error {
	userID, err := s.currentUserID()
	if err != nil {
		return err
	}
	if err := s.library.ClearScanHistory(ctx, userID); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.scans = nil
	return nil
}

// Playlists returns a copy of the cached playlists.
func (s *Session) Playlists() []models.Playlist {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Playlist, len(s.playlists))
	copy(out, s.playlists)
	return out
}

// SavedVideos returns a copy of the cached saved list.
func (s *Session) SavedVideos() []models.Video {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Video, len(s.saved))
	copy(out, s.saved)
	return out
}

// History returns a copy of the cached watch history.
func (s *Session) History() []models.Video {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Video, len(s.history))
	copy(out, s.history)
	return out
}

// ScanHistory returns a copy of the cached scan history.
func (s *Session) ScanHistory() []models.ScanEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.ScanEntry, len(s.scans))
	copy(out, s.scans)
	return out
}
