package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

// jobTimeout bounds a single run of a background job.
const jobTimeout = 5 * time.Minute

// DocumentRefresher persists the derived status of every document.
type DocumentRefresher interface {
	RefreshDocumentStatuses(ctx context.Context, now time.Time) (int, error)
}

// Scheduler runs periodic background jobs
type Scheduler struct {
	cron      *cron.Cron
	documents DocumentRefresher
	now       func() time.Time
}

// New creates a scheduler. Schedules are evaluated in local time, the same
// clock document expiry is derived against.
func New(documents DocumentRefresher) *Scheduler {
	return &Scheduler{
		cron:      cron.New(cron.WithLocation(time.Local)),
		documents: documents,
		now:       time.Now,
	}
}

// Start registers the document refresh job on schedule and starts the
// scheduler. An empty schedule disables the job.
func (s *Scheduler) Start(schedule string) error {
	if schedule != "" {
		if _, err := s.cron.AddFunc(schedule, s.refreshDocuments); err != nil {
			return fmt.Errorf("register document refresh job %q: %w", schedule, err)
		}
		log.WithField("schedule", schedule).Info("Document refresh job registered")
	}
	s.cron.Start()
	log.Info("Scheduler started")
	return nil
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	log.Info("Scheduler stopped")
}

func (s *Scheduler) refreshDocuments() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	started := time.Now()
	changed, err := s.documents.RefreshDocumentStatuses(ctx, s.now())
	entry := log.WithFields(log.Fields{
		"changed":  changed,
		"duration": time.Since(started),
	})
	if err != nil {
		entry.WithError(err).Error("Document refresh failed")
		return
	}
	entry.Info("Document statuses refreshed")
}
