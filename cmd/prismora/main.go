package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"prismora/internal/auth"
	"prismora/internal/maintenance"
	"prismora/internal/scan"
	"prismora/internal/server"
	"prismora/internal/store"
	"prismora/internal/youtube"
	"prismora/shared/ai"
	"prismora/shared/config"
	"prismora/shared/email"
	"prismora/shared/monitoring"
	"prismora/shared/scheduler"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Create context that responds to signals
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	st, err := store.Open(cfg.Database.Dir)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer st.Close()

	catalog, err := youtube.NewClient(&cfg.YouTube)
	if err != nil {
		log.Fatalf("Failed to create YouTube client: %v", err)
	}
	classifier, err := ai.NewClassifier(&cfg.AI)
	if err != nil {
		log.Fatalf("Failed to create classifier: %v", err)
	}

	pipeline := scan.NewPipeline(catalog, classifier)
	monitor := monitoring.NewMonitor()
	srv := server.New(pipeline, auth.NewService(st), st, monitor)

	sched := scheduler.New()
	if err := sched.Add(ctx, cfg.Retention.Schedule, maintenance.NewRetentionJob(st, cfg.Retention.ScanHistoryDays)); err != nil {
		log.Fatalf("Failed to schedule retention job: %v", err)
	}
	if cfg.Digest.Enabled {
		digest := maintenance.NewDigestJob(st, email.NewSender(&cfg.Email))
		if err := sched.Add(ctx, cfg.Digest.Schedule, digest); err != nil {
			log.Fatalf("Failed to schedule digest job: %v", err)
		}
	}
	go func() {
		if err := sched.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("Scheduler failed: %v", err)
		}
	}()

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: srv.Handler(),
	}
	go func() {
		log.Printf("Listening on %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}
