package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/sirupsen/logrus"

	"github.com/devbook/devbook/internal/entities"
)

// OverdueLister lists borrows that are past their due date.
type OverdueLister interface {
	Overdue(ctx context.Context) ([]entities.Borrow, error)
}

// OverdueSnapshotTask logs the loans that are currently overdue.
type OverdueSnapshotTask struct{}

func (t OverdueSnapshotTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "overdue_snapshot",
		MaxAttempts: 2,
		Backoff:     time.Minute,
		Timeout:     time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: true,
		},
	}
}

// OverdueSnapshotProcessor creates a processor function for OverdueSnapshotTask.
func OverdueSnapshotProcessor(lister OverdueLister, log logrus.FieldLogger) backlite.QueueProcessor[OverdueSnapshotTask] {
	return func(ctx context.Context, _ OverdueSnapshotTask) error {
		overdue, err := lister.Overdue(ctx)
		if err != nil {
			return fmt.Errorf("list overdue borrows: %w", err)
		}

		if len(overdue) == 0 {
			log.Info("no overdue borrows")
			return nil
		}

		loans := make([]logrus.Fields, 0, len(overdue))
		for _, b := range overdue {
			loans = append(loans, logrus.Fields{
				"borrow_id":    b.ID,
				"book":         b.BookTitle,
				"user":         b.UserName,
				"due":          b.ExpectedReturnDate,
				"days_overdue": b.DaysOverdue,
			})
		}
		log.WithFields(logrus.Fields{
			"count": len(overdue),
			"loans": loans,
		}).Warn("overdue borrows")
		return nil
	}
}

// NewOverdueSnapshotQueue creates a backlite queue for overdue snapshots.
func NewOverdueSnapshotQueue(lister OverdueLister, log logrus.FieldLogger) backlite.Queue {
	return backlite.NewQueue(OverdueSnapshotProcessor(lister, orStandard(log)))
}

// MaintenanceTasks returns one task of each maintenance queue.
func MaintenanceTasks(cfg Config) []backlite.Task {
	return []backlite.Task{
		CleanupAuditEventsTask{RetentionDays: cfg.AuditRetentionDays},
		OverdueSnapshotTask{},
	}
}
