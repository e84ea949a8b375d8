// Package store persists users, playlists, saved videos, history and scan
// history in SQLite. It keeps the document flavor of the data model: video
// lists live as JSON-encoded columns and every read filters by the owning
// user id.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"prismora/internal/apperr"
	"prismora/internal/models"
)

// Store wraps a pooled database handle opened once at startup; each request
// borrows a connection from the pool instead of dialing per call.
type Store struct {
	db     *sql.DB
	dbPath string
}

// Open opens or creates the database under dir.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	dbPath := filepath.Join(dir, "prismora.db")
	db, err := sql.Open("sqlite", dbPath+"?mode=rwc")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite supports a single writer; one connection avoids lock churn.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	s := &Store{db: db, dbPath: dbPath}

	if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	if err := s.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id            TEXT PRIMARY KEY,
		email         TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		name          TEXT NOT NULL,
		role          TEXT NOT NULL,
		created_at    INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS playlists (
		id         TEXT PRIMARY KEY,
		user_id    TEXT NOT NULL,
		name       TEXT NOT NULL,
		videos     TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_playlists_user ON playlists(user_id);
	CREATE TABLE IF NOT EXISTS saved_videos (
		id            TEXT PRIMARY KEY,
		user_id       TEXT NOT NULL,
		url           TEXT NOT NULL,
		video_title   TEXT NOT NULL,
		thumbnail_url TEXT,
		saved_at      INTEGER NOT NULL,
		UNIQUE(user_id, url)
	);
	CREATE TABLE IF NOT EXISTS history (
		id        TEXT PRIMARY KEY,
		user_id   TEXT NOT NULL,
		video     TEXT NOT NULL,
		timestamp INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_history_user ON history(user_id, timestamp);
	CREATE TABLE IF NOT EXISTS scan_history (
		id        TEXT PRIMARY KEY,
		user_id   TEXT NOT NULL,
		url       TEXT NOT NULL,
		analysis  TEXT NOT NULL,
		details   TEXT NOT NULL,
		timestamp INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_scan_history_user ON scan_history(user_id, timestamp);
	`
	_, err := s.db.Exec(schema)
	return err
}

// UserRecord is a user row including the password hash. It never leaves the
// store/auth layers.
type UserRecord struct {
	models.User
	PasswordHash string
}

// CreateUser inserts a new account. The email must be unused.
func (s *Store) CreateUser(ctx context.Context, name, email, passwordHash, role string) (*models.User, error) {
	var existing string
	err := s.db.QueryRowContext(ctx, `SELECT id FROM users WHERE email = ?`, email).Scan(&existing)
	if err == nil {
		return nil, apperr.New(apperr.Conflict, "Email already in use")
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to check existing email: %w", err)
	}

	id := uuid.NewString()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO users (id, email, password_hash, name, role, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, email, passwordHash, name, role, time.Now().UnixNano())
	if err != nil {
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}

	return &models.User{ID: id, Email: email, Name: name, Role: role}, nil
}

// UserByEmail looks an account up for login.
func (s *Store) UserByEmail(ctx context.Context, email string) (*UserRecord, error) {
	return s.userBy(ctx, `SELECT id, email, password_hash, name, role FROM users WHERE email = ?`, email)
}

// UserByID looks an account up for password re-verification.
func (s *Store) UserByID(ctx context.Context, id string) (*UserRecord, error) {
	return s.userBy(ctx, `SELECT id, email, password_hash, name, role FROM users WHERE id = ?`, id)
}

func (s *Store) userBy(ctx context.Context, query, arg string) (*UserRecord, error) {
	var u UserRecord
	err := s.db.QueryRowContext(ctx, query, arg).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Role)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.New(apperr.NotFound, "User not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return &u, nil
}

// CreatePlaylist adds an empty playlist owned by userID.
func (s *Store) CreatePlaylist(ctx context.Context, userID, name string) (*models.Playlist, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO playlists (id, user_id, name, videos, created_at) VALUES (?, ?, ?, ?, ?)`,
		id, userID, name, "[]", time.Now().UnixNano())
	if err != nil {
		return nil, fmt.Errorf("failed to insert playlist: %w", err)
	}
	return &models.Playlist{ID: id, Name: name, Videos: []models.Video{}}, nil
}

// Playlists returns every playlist owned by userID.
func (s *Store) Playlists(ctx context.Context, userID string) ([]models.Playlist, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, videos FROM playlists WHERE user_id = ? ORDER BY created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query playlists: %w", err)
	}
	defer rows.Close()

	playlists := []models.Playlist{}
	for rows.Next() {
		var p models.Playlist
		var videosJSON string
		if err := rows.Scan(&p.ID, &p.Name, &videosJSON); err != nil {
			return nil, fmt.Errorf("failed to scan playlist row: %w", err)
		}
		if err := json.Unmarshal([]byte(videosJSON), &p.Videos); err != nil {
			return nil, fmt.Errorf("failed to decode playlist videos: %w", err)
		}
		playlists = append(playlists, p)
	}
	return playlists, rows.Err()
}

// CountPlaylists reports how many playlists userID owns. Used to decide
// whether a first-time user still needs the default playlists.
func (s *Store) CountPlaylists(ctx context.Context, userID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM playlists WHERE user_id = ?`, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count playlists: %w", err)
	}
	return n, nil
}

// AddToPlaylist appends video to the playlist, which must be owned by userID.
// A URL already present in the playlist is rejected.
func (s *Store) AddToPlaylist(ctx context.Context, userID, playlistID string, video models.Video) error {
	var videosJSON string
	err := s.db.QueryRowContext(ctx,
		`SELECT videos FROM playlists WHERE id = ? AND user_id = ?`, playlistID, userID).Scan(&videosJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.New(apperr.NotFound, "Playlist not found")
	}
	if err != nil {
		return fmt.Errorf("failed to query playlist: %w", err)
	}

	var videos []models.Video
	if err := json.Unmarshal([]byte(videosJSON), &videos); err != nil {
		return fmt.Errorf("failed to decode playlist videos: %w", err)
	}
	for _, v := range videos {
		if v.URL == video.URL {
			return apperr.New(apperr.Conflict, "Video already in playlist")
		}
	}

	videos = append(videos, video)
	updated, err := json.Marshal(videos)
	if err != nil {
		return fmt.Errorf("failed to encode playlist videos: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `UPDATE playlists SET videos = ? WHERE id = ?`, string(updated), playlistID)
	if err != nil {
		return fmt.Errorf("failed to update playlist: %w", err)
	}
	return nil
}

// SaveVideo stores a video in the user's saved list. Saving the same URL
// twice is rejected so the list stays free of duplicates.
func (s *Store) SaveVideo(ctx context.Context, userID string, video models.Video) error {
	var existing string
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM saved_videos WHERE user_id = ? AND url = ?`, userID, video.URL).Scan(&existing)
	if err == nil {
		return apperr.New(apperr.Conflict, "Video already saved")
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("failed to check saved video: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO saved_videos (id, user_id, url, video_title, thumbnail_url, saved_at) VALUES (?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), userID, video.URL, video.VideoTitle, video.ThumbnailURL, time.Now().UnixNano())
	if err != nil {
		return fmt.Errorf("failed to insert saved video: %w", err)
	}
	return nil
}

// SavedVideos returns the user's saved list, most recently saved first.
func (s *Store) SavedVideos(ctx context.Context, userID string) ([]models.Video, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT url, video_title, COALESCE(thumbnail_url, '') FROM saved_videos WHERE user_id = ? ORDER BY saved_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query saved videos: %w", err)
	}
	defer rows.Close()

	videos := []models.Video{}
	for rows.Next() {
		var v models.Video
		if err := rows.Scan(&v.URL, &v.VideoTitle, &v.ThumbnailURL); err != nil {
			return nil, fmt.Errorf("failed to scan saved video row: %w", err)
		}
		videos = append(videos, v)
	}
	return videos, rows.Err()
}

// AppendHistory records a watched video. History is append-only.
func (s *Store) AppendHistory(ctx context.Context, userID string, video models.Video) error {
	videoJSON, err := json.Marshal(video)
	if err != nil {
		return fmt.Errorf("failed to encode history video: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO history (id, user_id, video, timestamp) VALUES (?, ?, ?, ?)`,
		uuid.NewString(), userID, string(videoJSON), time.Now().UnixNano())
	if err != nil {
		return fmt.Errorf("failed to insert history entry: %w", err)
	}
	return nil
}

// History returns the user's watch history, newest first.
func (s *Store) History(ctx context.Context, userID string) ([]models.Video, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT video FROM history WHERE user_id = ? ORDER BY timestamp DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	videos := []models.Video{}
	for rows.Next() {
		var videoJSON string
		if err := rows.Scan(&videoJSON); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		var v models.Video
		if err := json.Unmarshal([]byte(videoJSON), &v); err != nil {
			return nil, fmt.Errorf("failed to decode history video: %w", err)
		}
		videos = append(videos, v)
	}
	return videos, rows.Err()
}

// AppendScan records one completed scan.
func (s *Store) AppendScan(ctx context.Context, userID string, entry models.ScanEntry) error {
	analysisJSON, err := json.Marshal(entry.AnalysisResult)
	if err != nil {
		return fmt.Errorf("failed to encode analysis result: %w", err)
	}
	detailsJSON, err := json.Marshal(entry.VideoDetails)
	if err != nil {
		return fmt.Errorf("failed to encode video details: %w", err)
	}

	ts := entry.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO scan_history (id, user_id, url, analysis, details, timestamp) VALUES (?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), userID, entry.URL, string(analysisJSON), string(detailsJSON), ts.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to insert scan history entry: %w", err)
	}
	return nil
}

// ScanHistory returns the user's scans, newest first.
func (s *Store) ScanHistory(ctx context.Context, userID string) ([]models.ScanEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT url, analysis, details, timestamp FROM scan_history WHERE user_id = ? ORDER BY timestamp DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query scan history: %w", err)
	}
	defer rows.Close()

	entries := []models.ScanEntry{}
	for rows.Next() {
		var entry models.ScanEntry
		var analysisJSON, detailsJSON string
		var ts int64
		if err := rows.Scan(&entry.URL, &analysisJSON, &detailsJSON, &ts); err != nil {
			return nil, fmt.Errorf("failed to scan scan-history row: %w", err)
		}
		if err := json.Unmarshal([]byte(analysisJSON), &entry.AnalysisResult); err != nil {
			return nil, fmt.Errorf("failed to decode analysis result: %w", err)
		}
		if err := json.Unmarshal([]byte(detailsJSON), &entry.VideoDetails); err != nil {
			return nil, fmt.Errorf("failed to decode video details: %w", err)
		}
		entry.Timestamp = time.Unix(0, ts)
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// ClearScanHistory deletes every scan record owned by userID.
func (s *Store) ClearScanHistory(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM scan_history WHERE user_id = ?`, userID)
	if err != nil {
		return fmt.Errorf("failed to clear scan history: %w", err)
	}
	return nil
}

// PruneScanHistory deletes scan records older than cutoff across all users
// and reports how many rows were removed.
func (s *Store) PruneScanHistory(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM scan_history WHERE timestamp < ?`, cutoff.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("failed to prune scan history: %w", err)
	}
	return res.RowsAffected()
}

// UsersWithScansSince lists the accounts with at least one scan after since,
// for the digest mailer.
func (s *Store) UsersWithScansSince(ctx context.Context, since time.Time) ([]models.User, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT u.id, u.email, u.name, u.role
		FROM users u JOIN scan_history sh ON sh.user_id = u.id
		WHERE sh.timestamp >= ?`, since.UnixNano())
	if err != nil {
		return nil, fmt.Errorf("failed to query users with scans: %w", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Email, &u.Name, &u.Role); err != nil {
			return nil, fmt.Errorf("failed to scan user row: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
