package jobs

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// Job is a unit of periodic maintenance work
type Job interface {
	Run(ctx context.Context) error
}

// Scheduler runs registered jobs on fixed intervals
type Scheduler struct {
	scheduler gocron.Scheduler
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewScheduler creates a stopped scheduler; call Start after registering jobs
func NewScheduler() (*Scheduler, error) {
	inner, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{scheduler: inner, ctx: ctx, cancel: cancel}, nil
}

// Register schedules a job to run every interval
func (s *Scheduler) Register(name string, interval time.Duration, job Job) error {
	_, err := s.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			started := time.Now()
			if err := job.Run(s.ctx); err != nil {
				log.Printf("❌ [SCHEDULER] Job '%s' failed: %v", name, err)
				return
			}
			log.Printf("✅ [SCHEDULER] Job '%s' completed in %v", name, time.Since(started))
		}),
		gocron.WithName(name),
	)
	if err != nil {
		return fmt.Errorf("register job %s: %w", name, err)
	}
	log.Printf("✅ [SCHEDULER] Registered job: %s (every %v)", name, interval)
	return nil
}

// Start begins running registered jobs
func (s *Scheduler) Start() {
	s.scheduler.Start()
	log.Println("🚀 [SCHEDULER] Job scheduler started")
}

// Stop shuts the scheduler down, waiting for in-flight jobs
func (s *Scheduler) Stop() {
	s.cancel()
	if err := s.scheduler.Shutdown(); err != nil {
		log.Printf("⚠️ [SCHEDULER] Shutdown error: %v", err)
	}
	log.Println("🛑 [SCHEDULER] Job scheduler stopped")
}
