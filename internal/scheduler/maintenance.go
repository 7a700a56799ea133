// Package scheduler enqueues the periodic maintenance tasks on a cron
// schedule.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Enqueuer saves tasks to the queue.
type Enqueuer interface {
	Enqueue(tasks ...backlite.Task) ([]string, error)
}

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ValidateSchedule checks a standard five field cron expression.
func ValidateSchedule(schedule string) error {
	if _, err := parser.Parse(schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", schedule, err)
	}
	return nil
}

// MaintenanceScheduler enqueues a fixed set of tasks every time the
// schedule fires.
type MaintenanceScheduler struct {
	queue    Enqueuer
	schedule string
	tasks    func() []backlite.Task
	log      logrus.FieldLogger

	cron       *cron.Cron
	entryID    cron.EntryID
	mu         sync.RWMutex
	isRunning  bool
	cancelFunc context.CancelFunc
}

func NewMaintenanceScheduler(queue Enqueuer, schedule string, tasks func() []backlite.Task, log logrus.FieldLogger) *MaintenanceScheduler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &MaintenanceScheduler{
		queue:    queue,
		schedule: schedule,
		tasks:    tasks,
		log:      log.WithField("component", "scheduler"),
		cron:     cron.New(cron.WithParser(parser)),
	}
}

// Start registers the job and starts the cron loop. The scheduler stops on
// its own when ctx is cancelled.
func (s *MaintenanceScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	if err := ValidateSchedule(s.schedule); err != nil {
		return err
	}

	entryID, err := s.cron.AddFunc(s.schedule, s.RunNow)
	if err != nil {
		return fmt.Errorf("failed to schedule maintenance job: %w", err)
	}
	s.entryID = entryID

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true

	s.log.WithFields(logrus.Fields{
		"schedule": s.schedule,
		"next_run": s.cron.Entry(entryID).Next,
	}).Info("maintenance scheduler started")

	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop waits for a running job to finish and stops the scheduler.
func (s *MaintenanceScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()

	s.cron.Remove(s.entryID)
	s.isRunning = false
	if s.cancelFunc != nil {
		s.cancelFunc()
		s.cancelFunc = nil
	}

	s.log.Info("maintenance scheduler stopped")
}

// RunNow enqueues the maintenance tasks immediately.
func (s *MaintenanceScheduler) RunNow() {
	ids, err := s.queue.Enqueue(s.tasks()...)
	if err != nil {
		s.log.WithError(err).Error("failed to enqueue maintenance tasks")
		return
	}
	s.log.WithField("task_ids", ids).Info("maintenance tasks enqueued")
}

func (s *MaintenanceScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// NextRun returns when the job fires next, or nil when not running.
func (s *MaintenanceScheduler) NextRun() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}
	next := s.cron.Entry(s.entryID).Next
	return &next
}
