// Package scheduler runs background maintenance jobs on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// Job is a unit of background work. Run is called on the job's schedule and
// must be safe to call repeatedly.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

type Scheduler struct {
	cron *cron.Cron
}

func New() *Scheduler {
	return &Scheduler{
		// Prevent overlapping runs
		cron: cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger))),
	}
}

// Add registers a job. The schedule uses six fields, seconds first.
func (s *Scheduler) Add(ctx context.Context, schedule string, job Job) error {
	_, err := s.cron.AddFunc(schedule, func() {
		start := time.Now()
		log.Printf("Starting %s run...", job.Name())
		if err := job.Run(ctx); err != nil {
			log.Printf("Error running scheduled job %s: %v", job.Name(), err)
			return
		}
		log.Printf("Finished %s run (took %v)", job.Name(), time.Since(start))
	})
	if err != nil {
		return fmt.Errorf("failed to add cron job %s: %w", job.Name(), err)
	}
	log.Printf("Scheduled %s with schedule: %s", job.Name(), schedule)
	return nil
}

// Start runs the cron loop until the context is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.cron.Start()
	<-ctx.Done()
	log.Printf("Scheduler stopped")
	s.cron.Stop()
	return ctx.Err()
}
