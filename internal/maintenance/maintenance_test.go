package maintenance

import (
	"context"
	"testing"
	"time"

	"prismora/internal/models"
	"prismora/internal/store"
	"prismora/shared/email"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func addScan(t *testing.T, st *store.Store, userID string, age time.Duration) {
	t.Helper()
	entry := models.ScanEntry{
		URL:          "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		VideoDetails: models.VideoDetails{ID: "dQw4w9WgXcQ", Title: "A Video"},
		Timestamp:    time.Now().Add(-age),
	}
	if err := st.AppendScan(context.Background(), userID, entry); err != nil {
		t.Fatalf("AppendScan failed: %v", err)
	}
}

func TestRetentionJob(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	user, err := st.CreateUser(ctx, "Nadia", "parent@example.com", "hash", "parent")
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	addScan(t, st, user.ID, 40*24*time.Hour)
	addScan(t, st, user.ID, time.Hour)

	if err := NewRetentionJob(st, 30).Run(ctx); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	scans, err := st.ScanHistory(ctx, user.ID)
	if err != nil {
		t.Fatalf("ScanHistory failed: %v", err)
	}
	if len(scans) != 1 {
		t.Errorf("scans = %d, want 1 (old entry pruned)", len(scans))
	}

	t.Run("DisabledRetentionKeepsEverything", func(t *testing.T) {
		if err := NewRetentionJob(st, 0).Run(ctx); err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		scans, err := st.ScanHistory(ctx, user.ID)
		if err != nil {
			t.Fatalf("ScanHistory failed: %v", err)
		}
		if len(scans) != 1 {
			t.Errorf("scans = %d, want 1", len(scans))
		}
	})
}

type captureSender struct {
	digests []*email.Digest
}

func (c *captureSender) SendDigest(d *email.Digest) error {
	c.digests = append(c.digests, d)
	return nil
}

func TestDigestJob(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	active, err := st.CreateUser(ctx, "Nadia", "active@example.com", "hash", "parent")
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	idle, err := st.CreateUser(ctx, "Omar", "idle@example.com", "hash", "parent")
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	addScan(t, st, active.ID, time.Hour)
	addScan(t, st, active.ID, 30*24*time.Hour) // outside the digest window
	addScan(t, st, idle.ID, 30*24*time.Hour)

	sender := &captureSender{}
	if err := NewDigestJob(st, sender).Run(ctx); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(sender.digests) != 1 {
		t.Fatalf("digests sent = %d, want 1 (only the active parent)", len(sender.digests))
	}
	digest := sender.digests[0]
	if digest.ToEmail != "active@example.com" || digest.ParentName != "Nadia" {
		t.Errorf("digest recipient = %s (%s)", digest.ToEmail, digest.ParentName)
	}
	if len(digest.Scans) != 1 {
		t.Errorf("digest scans = %d, want 1 (old scan excluded)", len(digest.Scans))
	}
}
