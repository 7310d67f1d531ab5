package daemon

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/TeamEOS/packages-apps-EOSUpdater/internal/foundation/errors"
	"github.com/TeamEOS/packages-apps-EOSUpdater/internal/logfields"
)

// Scheduler wraps gocron scheduler for managing periodic tasks.
type Scheduler struct {
	scheduler gocron.Scheduler
}

// NewScheduler creates a new scheduler instance.
func NewScheduler() (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, errors.DaemonError("failed to create scheduler").WithCause(err).Build()
	}
	return &Scheduler{scheduler: s}, nil
}

// Start begins the scheduler.
func (s *Scheduler) Start() {
	slog.Info("Starting scheduler")
	s.scheduler.Start()
}

// Stop gracefully shuts down the scheduler.
func (s *Scheduler) Stop(_ context.Context) error {
	slog.Info("Stopping scheduler")
	return s.scheduler.Shutdown()
}

// ScheduleEvery runs task every interval and returns the job ID.
func (s *Scheduler) ScheduleEvery(name string, interval time.Duration, task func()) (string, error) {
	if interval <= 0 {
		return "", errors.ValidationError("schedule interval must be positive").
			WithContext("name", name).
			WithContext("interval", interval.String()).
			Build()
	}
	return s.newJob(name, gocron.DurationJob(interval), task)
}

// ScheduleCron runs task on a five-field cron expression.
func (s *Scheduler) ScheduleCron(name, expr string, task func()) (string, error) {
	return s.newJob(name, gocron.CronJob(expr, false), task)
}

// ScheduleOnce runs task once after delay.
func (s *Scheduler) ScheduleOnce(name string, delay time.Duration, task func()) (string, error) {
	if delay < 0 {
		delay = 0
	}
	at := time.Now().Add(delay)
	return s.newJob(name, gocron.OneTimeJob(gocron.OneTimeJobStartDateTime(at)), task)
}

// Remove unschedules the job with the given ID. Unknown IDs are ignored.
func (s *Scheduler) Remove(id string) {
	for _, job := range s.scheduler.Jobs() {
		if job.ID().String() != id {
			continue
		}
		if err := s.scheduler.RemoveJob(job.ID()); err != nil {
			slog.Warn("Failed to remove scheduled job", logfields.JobID(id), logfields.Error(err))
		}
		return
	}
}

// NextRun returns the next run time of a job, or the zero time if unknown.
func (s *Scheduler) NextRun(id string) time.Time {
	for _, job := range s.scheduler.Jobs() {
		if job.ID().String() != id {
			continue
		}
		next, err := job.NextRun()
		if err != nil {
			return time.Time{}
		}
		return next
	}
	return time.Time{}
}

func (s *Scheduler) newJob(name string, def gocron.JobDefinition, task func()) (string, error) {
	job, err := s.scheduler.NewJob(def, gocron.NewTask(task), gocron.WithName(name))
	if err != nil {
		return "", errors.DaemonError("failed to schedule job").
			WithCause(err).
			WithContext("name", name).
			Build()
	}
	slog.Debug("Scheduled job", logfields.JobID(job.ID().String()), slog.String("name", name))
	return job.ID().String(), nil
}
