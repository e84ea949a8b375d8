package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"prismora/internal/auth"
	"prismora/internal/models"
	"prismora/internal/report"
	"prismora/internal/scan"
	"prismora/internal/store"
	"prismora/shared/monitoring"
)

type fakeScanner struct {
	result *scan.Result
	err    error
	calls  int
}

func (f *fakeScanner) Scan(ctx context.Context, input string) (*scan.Result, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func newTestServer(t *testing.T, scanner Scanner) (*httptest.Server, *store.Store) {
	t.Helper()
	st, err := store.Open(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	if scanner == nil {
		scanner = &fakeScanner{}
	}
	srv := New(scanner, auth.NewService(st), st, monitoring.NewMonitor())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, st
}

// do issues a JSON request and decodes the response envelope.
func do(t *testing.T, method, url string, body any) (int, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("Failed to encode request: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("Failed to build request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	return resp.StatusCode, out
}

// signUpAndLogin registers a user and returns its ID.
func signUpAndLogin(t *testing.T, base string) string {
	t.Helper()
	status, _ := do(t, http.MethodPost, base+"/auth/signup", map[string]string{
		"name": "Nadia", "email": "parent@example.com", "password": "secret123",
	})
	if status != http.StatusOK {
		t.Fatalf("signup status = %d", status)
	}
	status, body := do(t, http.MethodPost, base+"/auth/login", map[string]string{
		"email": "parent@example.com", "password": "secret123",
	})
	if status != http.StatusOK {
		t.Fatalf("login status = %d, body = %v", status, body)
	}
	user, ok := body["user"].(map[string]any)
	if !ok {
		t.Fatalf("login response missing user: %v", body)
	}
	return user["id"].(string)
}

func TestSignUp(t *testing.T) {
	ts, _ := newTestServer(t, nil)

	status, body := do(t, http.MethodPost, ts.URL+"/auth/signup", map[string]string{
		"name": "Nadia", "email": "parent@example.com", "password": "secret123",
	})
	if status != http.StatusOK || body["success"] != true {
		t.Fatalf("status = %d, body = %v", status, body)
	}
	if body["message"] != "User registered successfully" {
		t.Errorf("message = %v", body["message"])
	}

	t.Run("DuplicateEmail", func(t *testing.T) {
		status, body := do(t, http.MethodPost, ts.URL+"/auth/signup", map[string]string{
			"name": "Other", "email": "parent@example.com", "password": "different",
		})
		if status != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", status)
		}
		if body["success"] != false || body["message"] != "Email already in use" {
			t.Errorf("body = %v", body)
		}
	})

	t.Run("MissingFields", func(t *testing.T) {
		status, body := do(t, http.MethodPost, ts.URL+"/auth/signup", map[string]string{
			"email": "new@example.com",
		})
		if status != http.StatusBadRequest || body["message"] != "All fields are required" {
			t.Errorf("status = %d, body = %v", status, body)
		}
	})
}

func TestLogin(t *testing.T) {
	ts, _ := newTestServer(t, nil)
	userID := signUpAndLogin(t, ts.URL)

	t.Run("DefaultPlaylistsCreated", func(t *testing.T) {
		status, body := do(t, http.MethodGet, ts.URL+"/playlists?userId="+userID, nil)
		if status != http.StatusOK {
			t.Fatalf("status = %d", status)
		}
		playlists, _ := body["playlists"].([]any)
		if len(playlists) != 2 {
			t.Fatalf("playlists = %v, want 2 defaults", body["playlists"])
		}
		first := playlists[0].(map[string]any)
		if first["name"] != "Weekend Cartoons" {
			t.Errorf("first playlist = %v", first["name"])
		}
	})

	t.Run("SecondLoginKeepsPlaylists", func(t *testing.T) {
		if _, body := do(t, http.MethodPost, ts.URL+"/auth/login", map[string]string{
			"email": "parent@example.com", "password": "secret123",
		}); body["success"] != true {
			t.Fatalf("relogin failed: %v", body)
		}
		_, body := do(t, http.MethodGet, ts.URL+"/playlists?userId="+userID, nil)
		if playlists, _ := body["playlists"].([]any); len(playlists) != 2 {
			t.Errorf("playlists = %v, defaults must not duplicate", body["playlists"])
		}
	})

	t.Run("WrongPassword", func(t *testing.T) {
		status, body := do(t, http.MethodPost, ts.URL+"/auth/login", map[string]string{
			"email": "parent@example.com", "password": "wrong",
		})
		if status != http.StatusUnauthorized || body["message"] != "Invalid credentials" {
			t.Errorf("status = %d, body = %v", status, body)
		}
	})

	t.Run("UnknownEmailSameMessage", func(t *testing.T) {
		status, body := do(t, http.MethodPost, ts.URL+"/auth/login", map[string]string{
			"email": "nobody@example.com", "password": "secret123",
		})
		if status != http.StatusUnauthorized || body["message"] != "Invalid credentials" {
			t.Errorf("status = %d, body = %v", status, body)
		}
	})
}

func TestVerifyPassword(t *testing.T) {
	ts, _ := newTestServer(t, nil)
	userID := signUpAndLogin(t, ts.URL)

	status, body := do(t, http.MethodPost, ts.URL+"/auth/verify-password", map[string]string{
		"userId": userID, "password": "secret123",
	})
	if status != http.StatusOK || body["success"] != true {
		t.Errorf("status = %d, body = %v", status, body)
	}

	t.Run("WrongPassword", func(t *testing.T) {
		status, body := do(t, http.MethodPost, ts.URL+"/auth/verify-password", map[string]string{
			"userId": userID, "password": "wrong",
		})
		if status != http.StatusUnauthorized || body["message"] != "Invalid password" {
			t.Errorf("status = %d, body = %v", status, body)
		}
	})
}

func TestScan(t *testing.T) {
	concern := report.Concern{Label: report.LabelAggressiveBehavior, Percentage: 80}
	scanner := &fakeScanner{result: &scan.Result{
		URL:     "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		Details: &models.VideoDetails{ID: "dQw4w9WgXcQ", Title: "A Video", ChannelTitle: "A Channel"},
		Report: &models.AnalysisReport{
			VideoTitle:         "A Video",
			ChannelName:        "A Channel",
			AggressiveBehavior: 80,
		},
		PrimaryConcern: &concern,
	}}
	ts, _ := newTestServer(t, scanner)

	status, body := do(t, http.MethodPost, ts.URL+"/scan", map[string]string{
		"input": "https://youtu.be/dQw4w9WgXcQ",
	})
	if status != http.StatusOK || body["success"] != true {
		t.Fatalf("status = %d, body = %v", status, body)
	}
	if body["url"] != "https://www.youtube.com/watch?v=dQw4w9WgXcQ" {
		t.Errorf("url = %v", body["url"])
	}
	primary, _ := body["primaryConcern"].(map[string]any)
	if primary["label"] != "Aggressive Behavior" || primary["percentage"] != float64(80) {
		t.Errorf("primaryConcern = %v", body["primaryConcern"])
	}
	analysis, _ := body["analysisResult"].(map[string]any)
	if analysis["aggressiveBehavior"] != float64(80) {
		t.Errorf("analysisResult = %v", body["analysisResult"])
	}

	t.Run("SearchQuery", func(t *testing.T) {
		searchScanner := &fakeScanner{result: &scan.Result{
			SearchResults: []models.VideoDetails{{ID: "abc", Title: "Cats"}},
		}}
		ts, _ := newTestServer(t, searchScanner)

		status, body := do(t, http.MethodPost, ts.URL+"/scan", map[string]string{
			"input": "funny cat videos",
		})
		if status != http.StatusOK {
			t.Fatalf("status = %d", status)
		}
		results, _ := body["searchResults"].([]any)
		if len(results) != 1 {
			t.Errorf("searchResults = %v", body["searchResults"])
		}
	})
}

func TestScanHistoryRoutes(t *testing.T) {
	ts, _ := newTestServer(t, nil)
	userID := signUpAndLogin(t, ts.URL)

	entry := map[string]any{
		"userId":         userID,
		"url":            "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		"analysisResult": map[string]any{"videoTitle": "A Video", "aggressiveBehavior": 80},
		"videoDetails":   map[string]any{"id": "dQw4w9WgXcQ", "title": "A Video"},
	}
	status, body := do(t, http.MethodPost, ts.URL+"/scan-history", entry)
	if status != http.StatusOK || body["message"] != "Added to scan history successfully" {
		t.Fatalf("status = %d, body = %v", status, body)
	}

	t.Run("MissingFields", func(t *testing.T) {
		status, body := do(t, http.MethodPost, ts.URL+"/scan-history", map[string]any{
			"userId": userID, "url": "https://youtu.be/x",
		})
		if status != http.StatusBadRequest || body["message"] != "All fields are required" {
			t.Errorf("status = %d, body = %v", status, body)
		}
	})

	t.Run("Get", func(t *testing.T) {
		status, body := do(t, http.MethodGet, ts.URL+"/scan-history?userId="+userID, nil)
		if status != http.StatusOK {
			t.Fatalf("status = %d", status)
		}
		scans, _ := body["scanHistory"].([]any)
		if len(scans) != 1 {
			t.Fatalf("scanHistory = %v", body["scanHistory"])
		}
	})

	t.Run("Clear", func(t *testing.T) {
		status, body := do(t, http.MethodDelete, ts.URL+"/scan-history?userId="+userID, nil)
		if status != http.StatusOK || body["message"] != "Scan history cleared successfully" {
			t.Fatalf("status = %d, body = %v", status, body)
		}
		_, body = do(t, http.MethodGet, ts.URL+"/scan-history?userId="+userID, nil)
		if scans, _ := body["scanHistory"].([]any); len(scans) != 0 {
			t.Errorf("scanHistory after clear = %v", body["scanHistory"])
		}
	})

	t.Run("MissingUserID", func(t *testing.T) {
		status, body := do(t, http.MethodGet, ts.URL+"/scan-history", nil)
		if status != http.StatusBadRequest || body["message"] != "User ID is required" {
			t.Errorf("status = %d, body = %v", status, body)
		}
	})
}

func TestSaveRoutes(t *testing.T) {
	ts, _ := newTestServer(t, nil)
	userID := signUpAndLogin(t, ts.URL)

	video := map[string]string{
		"url":        "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		"videoTitle": "A Video",
	}
	status, body := do(t, http.MethodPost, ts.URL+"/save", map[string]any{
		"userId": userID, "video": video,
	})
	if status != http.StatusOK || body["message"] != "Video saved successfully" {
		t.Fatalf("status = %d, body = %v", status, body)
	}

	t.Run("DuplicateSave", func(t *testing.T) {
		status, body := do(t, http.MethodPost, ts.URL+"/save", map[string]any{
			"userId": userID, "video": video,
		})
		if status != http.StatusBadRequest || body["message"] != "Video already saved" {
			t.Errorf("status = %d, body = %v", status, body)
		}
		_, body = do(t, http.MethodGet, ts.URL+"/save?userId="+userID, nil)
		if videos, _ := body["videos"].([]any); len(videos) != 1 {
			t.Errorf("videos = %v, want exactly 1", body["videos"])
		}
	})

	t.Run("MissingDetails", func(t *testing.T) {
		status, body := do(t, http.MethodPost, ts.URL+"/save", map[string]any{
			"userId": userID, "video": map[string]string{"url": "https://youtu.be/x"},
		})
		if status != http.StatusBadRequest || body["message"] != "User ID and video details are required" {
			t.Errorf("status = %d, body = %v", status, body)
		}
	})
}

func TestHistoryRoutes(t *testing.T) {
	ts, _ := newTestServer(t, nil)
	userID := signUpAndLogin(t, ts.URL)

	for _, title := range []string{"First", "Second"} {
		status, body := do(t, http.MethodPost, ts.URL+"/history", map[string]any{
			"userId": userID,
			"video":  map[string]string{"url": "https://youtu.be/" + title, "videoTitle": title},
		})
		if status != http.StatusOK || body["message"] != "Added to history successfully" {
			t.Fatalf("status = %d, body = %v", status, body)
		}
	}

	status, body := do(t, http.MethodGet, ts.URL+"/history?userId="+userID, nil)
	if status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	history, _ := body["history"].([]any)
	if len(history) != 2 {
		t.Fatalf("history = %v", body["history"])
	}
	newest := history[0].(map[string]any)
	if newest["videoTitle"] != "Second" {
		t.Errorf("newest = %v, want most recent first", newest["videoTitle"])
	}
}

func TestPlaylistRoutes(t *testing.T) {
	ts, _ := newTestServer(t, nil)
	userID := signUpAndLogin(t, ts.URL)

	status, body := do(t, http.MethodPost, ts.URL+"/playlists", map[string]string{
		"userId": userID, "name": "Science Shows",
	})
	if status != http.StatusOK {
		t.Fatalf("status = %d, body = %v", status, body)
	}
	playlist, _ := body["playlist"].(map[string]any)
	playlistID, _ := playlist["id"].(string)
	if playlistID == "" || playlist["name"] != "Science Shows" {
		t.Fatalf("playlist = %v", body["playlist"])
	}

	video := map[string]string{"url": "https://youtu.be/abc", "videoTitle": "Clip"}

	t.Run("Add", func(t *testing.T) {
		status, body := do(t, http.MethodPost, ts.URL+"/playlist/add", map[string]any{
			"userId": userID, "playlistId": playlistID, "video": video,
		})
		if status != http.StatusOK || body["message"] != "Video added to playlist successfully" {
			t.Errorf("status = %d, body = %v", status, body)
		}
	})

	t.Run("AddDuplicate", func(t *testing.T) {
		status, body := do(t, http.MethodPost, ts.URL+"/playlist/add", map[string]any{
			"userId": userID, "playlistId": playlistID, "video": video,
		})
		if status != http.StatusBadRequest || body["message"] != "Video already in playlist" {
			t.Errorf("status = %d, body = %v", status, body)
		}
	})

	t.Run("AddToUnknownPlaylist", func(t *testing.T) {
		status, body := do(t, http.MethodPost, ts.URL+"/playlist/add", map[string]any{
			"userId": userID, "playlistId": "missing", "video": video,
		})
		if status != http.StatusNotFound || body["message"] != "Playlist not found" {
			t.Errorf("status = %d, body = %v", status, body)
		}
	})
}

func TestHealthAndStatus(t *testing.T) {
	ts, _ := newTestServer(t, nil)

	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("health request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("health status = %d", resp.StatusCode)
	}

	resp, err = http.Get(ts.URL + "/status")
	if err != nil {
		t.Fatalf("status request failed: %v", err)
	}
	defer resp.Body.Close()
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		t.Fatalf("Failed to read status body: %v", err)
	}
	if !strings.Contains(buf.String(), "No scans yet") {
		t.Errorf("status body = %q", buf.String())
	}
}
