package tasks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devbook/devbook/internal/entities"
)

type fakeCleaner struct {
	retention time.Duration
	deleted   int64
	err       error
}

func (f *fakeCleaner) DeleteOldEvents(_ context.Context, retention time.Duration) (int64, error) {
	f.retention = retention
	return f.deleted, f.err
}

type fakeOverdue struct {
	borrows []entities.Borrow
	err     error
}

func (f fakeOverdue) Overdue(context.Context) ([]entities.Borrow, error) {
	return f.borrows, f.err
}

func TestCleanupAuditEventsProcessor(t *testing.T) {
	log, hook := test.NewNullLogger()
	cleaner := &fakeCleaner{deleted: 4}

	err := CleanupAuditEventsProcessor(cleaner, log)(context.Background(), CleanupAuditEventsTask{RetentionDays: 2})

	require.NoError(t, err)
	assert.Equal(t, 48*time.Hour, cleaner.retention)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, int64(4), hook.LastEntry().Data["deleted"])
}

func TestCleanupAuditEventsProcessor_DefaultRetention(t *testing.T) {
	log, _ := test.NewNullLogger()
	cleaner := &fakeCleaner{}

	err := CleanupAuditEventsProcessor(cleaner, log)(context.Background(), CleanupAuditEventsTask{})

	require.NoError(t, err)
	assert.Equal(t, 90*24*time.Hour, cleaner.retention)
}

func TestCleanupAuditEventsProcessor_Errors(t *testing.T) {
	log, _ := test.NewNullLogger()

	err := CleanupAuditEventsProcessor(nil, log)(context.Background(), CleanupAuditEventsTask{})
	assert.Error(t, err)

	err = CleanupAuditEventsProcessor(&fakeCleaner{err: errors.New("disk full")}, log)(context.Background(), CleanupAuditEventsTask{})
	assert.ErrorContains(t, err, "disk full")
}

func TestOverdueSnapshotProcessor(t *testing.T) {
	log, hook := test.NewNullLogger()
	lister := fakeOverdue{borrows: []entities.Borrow{
		{ID: 1, BookTitle: "Dune", UserName: "Ada", ExpectedReturnDate: "2024-05-01", DaysOverdue: 9},
		{ID: 2, BookTitle: "Emma", UserName: "Bob", ExpectedReturnDate: "2024-05-08", DaysOverdue: 2},
	}}

	err := OverdueSnapshotProcessor(lister, log)(context.Background(), OverdueSnapshotTask{})

	require.NoError(t, err)
	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.WarnLevel, entry.Level)
	assert.Equal(t, 2, entry.Data["count"])
	loans, ok := entry.Data["loans"].([]logrus.Fields)
	require.True(t, ok)
	assert.Equal(t, "Dune", loans[0]["book"])
}

func TestOverdueSnapshotProcessor_Empty(t *testing.T) {
	log, hook := test.NewNullLogger()

	err := OverdueSnapshotProcessor(fakeOverdue{}, log)(context.Background(), OverdueSnapshotTask{})

	require.NoError(t, err)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.InfoLevel, hook.LastEntry().Level)
}

func TestOverdueSnapshotProcessor_Error(t *testing.T) {
	log, _ := test.NewNullLogger()

	err := OverdueSnapshotProcessor(fakeOverdue{err: errors.New("boom")}, log)(context.Background(), OverdueSnapshotTask{})

	assert.ErrorContains(t, err, "boom")
}
