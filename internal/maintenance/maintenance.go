// Package maintenance holds the scheduled background jobs: scan-history
// retention and the weekly digest email.
package maintenance

import (
	"context"
	"fmt"
	"log"
	"time"

	"prismora/internal/models"
	"prismora/internal/store"
	"prismora/shared/email"
)

// RetentionJob deletes scan-history rows older than the retention window.
type RetentionJob struct {
	store *store.Store
	days  int
}

func NewRetentionJob(st *store.Store, days int) *RetentionJob {
	return &RetentionJob{store: st, days: days}
}

func (j *RetentionJob) Name() string { return "scan-history-retention" }

func (j *RetentionJob) Run(ctx context.Context) error {
	if j.days <= 0 {
		return nil // Retention disabled
	}

	cutoff := time.Now().AddDate(0, 0, -j.days)
	pruned, err := j.store.PruneScanHistory(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("failed to prune scan history: %w", err)
	}
	if pruned > 0 {
		log.Printf("Pruned %d scan history entries older than %d days", pruned, j.days)
	}
	return nil
}

// DigestSender sends one parent's weekly digest.
type DigestSender interface {
	SendDigest(digest *email.Digest) error
}

// DigestJob mails each active parent a summary of the past week's scans.
// A send failure for one parent does not block the others.
type DigestJob struct {
	store  *store.Store
	sender DigestSender
}

func NewDigestJob(st *store.Store, sender DigestSender) *DigestJob {
	return &DigestJob{store: st, sender: sender}
}

func (j *DigestJob) Name() string { return "weekly-digest" }

func (j *DigestJob) Run(ctx context.Context) error {
	weekEnd := time.Now()
	weekStart := weekEnd.AddDate(0, 0, -7)

	users, err := j.store.UsersWithScansSince(ctx, weekStart)
	if err != nil {
		return fmt.Errorf("failed to list active users: %w", err)
	}

	var failed int
	for _, user := range users {
		if err := j.sendForUser(ctx, user, weekStart, weekEnd); err != nil {
			log.Printf("Failed to send digest to %s: %v", user.Email, err)
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d digests failed to send", failed, len(users))
	}
	return nil
}

func (j *DigestJob) sendForUser(ctx context.Context, user models.User, weekStart, weekEnd time.Time) error {
	scans, err := j.store.ScanHistory(ctx, user.ID)
	if err != nil {
		return err
	}

	var recent []models.ScanEntry
	for _, entry := range scans {
		if entry.Timestamp.After(weekStart) {
			recent = append(recent, entry)
		}
	}

	return j.sender.SendDigest(&email.Digest{
		ParentName: user.Name,
		ToEmail:    user.Email,
		WeekStart:  weekStart,
		WeekEnd:    weekEnd,
		Scans:      recent,
	})
}
