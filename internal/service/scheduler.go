package service

import (
	"sync"
	"time"

	"weekly_trivia_backend/pkg/logger"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Scheduler is the time substrate the bridge runs on. Schedule replaces any
// existing job with the same id; Cancel is a no-op when the id is absent.
type Scheduler interface {
	Schedule(jobID string, at time.Time, task func()) error
	ScheduleDaily(jobID string, hour, minute int, task func()) error
	Cancel(jobID string)
	Shutdown() error
}

// GocronScheduler keys gocron jobs by caller id so re-registering supersedes
// the previous job, matching replace-on-duplicate-id semantics.
type GocronScheduler struct {
	scheduler gocron.Scheduler

	mu   sync.Mutex
	jobs map[string]uuid.UUID
}

func NewGocronScheduler(tz string) (*GocronScheduler, error) {
	location, err := time.LoadLocation(tz)
	if err != nil {
		return nil, err
	}
	scheduler, err := gocron.NewScheduler(gocron.WithLocation(location))
	if err != nil {
		return nil, err
	}
	scheduler.Start()
	return &GocronScheduler{
		scheduler: scheduler,
		jobs:      make(map[string]uuid.UUID),
	}, nil
}

func (g *GocronScheduler) Schedule(jobID string, at time.Time, task func()) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.removeLocked(jobID)

	job, err := g.scheduler.NewJob(
		gocron.OneTimeJob(gocron.OneTimeJobStartDateTime(at)),
		gocron.NewTask(task),
		gocron.WithName(jobID),
	)
	if err != nil {
		return err
	}
	g.jobs[jobID] = job.ID()
	return nil
}

func (g *GocronScheduler) ScheduleDaily(jobID string, hour, minute int, task func()) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.removeLocked(jobID)

	job, err := g.scheduler.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(
			gocron.NewAtTime(uint(hour), uint(minute), 0),
		)),
		gocron.NewTask(task),
		gocron.WithName(jobID),
	)
	if err != nil {
		return err
	}
	g.jobs[jobID] = job.ID()
	return nil
}

func (g *GocronScheduler) Cancel(jobID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.removeLocked(jobID)
}

func (g *GocronScheduler) removeLocked(jobID string) {
	id, ok := g.jobs[jobID]
	if !ok {
		return
	}
	if err := g.scheduler.RemoveJob(id); err != nil {
		// Already fired one-shot jobs are gone from gocron; only the map
		// entry is stale.
		logger.Log.Debug("remove job", zap.String("job_id", jobID), zap.Error(err))
	}
	delete(g.jobs, jobID)
}

func (g *GocronScheduler) Shutdown() error {
	return g.scheduler.Shutdown()
}
