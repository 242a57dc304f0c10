package jobs

import (
	"context"
	"log"
	"time"

	"aletheia/internal/services"
	"aletheia/internal/store"
)

// RetentionJob enforces the session retention policy: sessions idle past the
// retention window are closed, and closed sessions idle past twice the window
// are removed entirely.
type RetentionJob struct {
	sessions *store.SessionStore
	window   time.Duration
	now      func() time.Time
}

// NewRetentionJob creates the sweep for the given retention window
func NewRetentionJob(sessions *store.SessionStore, window time.Duration) *RetentionJob {
	if window <= 0 {
		window = 30 * 24 * time.Hour
	}
	return &RetentionJob{
		sessions: sessions,
		window:   window,
		now:      time.Now,
	}
}

// SetClock overrides the time source for tests
func (j *RetentionJob) SetClock(now func() time.Time) {
	j.now = now
}

// Run sweeps the session store once
func (j *RetentionJob) Run(ctx context.Context) error {
	log.Println("[RETENTION] Starting session retention sweep...")
	started := j.now()

	closeCutoff := started.Add(-j.window)
	pruneCutoff := started.Add(-2 * j.window)

	closed := 0
	pruned := 0
	for _, session := range j.sessions.List("", false) {
		if err := ctx.Err(); err != nil {
			return err
		}

		switch {
		case !session.IsActive && session.LastMessageAt.Before(pruneCutoff):
			if j.sessions.Delete(session.ID) {
				pruned++
				if m := services.GetMetrics(); m != nil {
					m.RecordSessionPruned()
				}
			}
		case session.IsActive && session.LastMessageAt.Before(closeCutoff):
			if err := j.sessions.Close(session.ID); err == nil {
				closed++
				if m := services.GetMetrics(); m != nil {
					m.RecordSessionExpired()
				}
			}
		}
	}

	log.Printf("[RETENTION] Sweep complete: closed %d, pruned %d sessions in %v",
		closed, pruned, time.Since(started))
	return nil
}
