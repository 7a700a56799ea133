package audit

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	auditRepo "github.com/devbook/devbook/internal/database/audit"
	"github.com/devbook/devbook/internal/entities"
)

func setupTestService(t *testing.T) (*Service, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "audit.db")), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(&entities.AuditEvent{})
	require.NoError(t, err)

	repo := auditRepo.NewRepository(db)
	svc := NewService(repo, nil)

	return svc, db
}

func TestService_Log(t *testing.T) {
	svc, db := setupTestService(t)

	event := &entities.AuditEvent{
		UserID:      1,
		EventType:   entities.AuditEventCatalog,
		Action:      "test_action",
		Description: "Test event",
		Status:      entities.AuditStatusSuccess,
	}

	err := svc.Log(context.Background(), event)
	require.NoError(t, err)

	var saved entities.AuditEvent
	err = db.First(&saved, event.ID).Error
	require.NoError(t, err)
	assert.Equal(t, "test_action", saved.Action)
}

func TestService_LogAuth(t *testing.T) {
	svc, db := setupTestService(t)

	t.Run("successful login", func(t *testing.T) {
		svc.LogAuth(1, "login", "ada@example.com", "192.168.1.1", true)
		svc.Wait()

		var event entities.AuditEvent
		err := db.Where("action = ?", "login").First(&event).Error
		require.NoError(t, err)
		assert.Equal(t, entities.AuditStatusSuccess, event.Status)
		assert.Equal(t, "192.168.1.1", event.IPAddress)
		require.NotNil(t, event.EntityID)
		assert.Equal(t, uint(1), *event.EntityID)
	})

	t.Run("failed login", func(t *testing.T) {
		svc.LogAuth(0, "login_failed", "nobody@example.com", "10.0.0.1", false)
		svc.Wait()

		var event entities.AuditEvent
		err := db.Where("action = ?", "login_failed").First(&event).Error
		require.NoError(t, err)
		assert.Equal(t, entities.AuditStatusFailed, event.Status)
		assert.Nil(t, event.EntityID)
		assert.Equal(t, "nobody@example.com", event.Description)
	})
}

func TestService_LogLending(t *testing.T) {
	svc, db := setupTestService(t)

	svc.LogLending(3, "borrow_create", 7, 42)
	svc.Wait()

	var event entities.AuditEvent
	err := db.Where("action = ?", "borrow_create").First(&event).Error
	require.NoError(t, err)
	assert.Equal(t, entities.AuditEventLending, event.EventType)
	assert.Equal(t, "borrow", event.EntityType)
	assert.Equal(t, uint(7), *event.EntityID)
	assert.Contains(t, event.Description, "42")
}

func TestService_LogDelete(t *testing.T) {
	svc, db := setupTestService(t)

	svc.LogDelete(1, entities.AuditEventCatalog, "book", 42)
	svc.Wait()

	var event entities.AuditEvent
	err := db.Where("action = ?", "book_delete").First(&event).Error
	require.NoError(t, err)
	assert.Equal(t, entities.AuditEventCatalog, event.EventType)
	assert.Equal(t, "book", event.EntityType)
	require.NotNil(t, event.EntityID)
	assert.Equal(t, uint(42), *event.EntityID)
}

func TestService_ListRecent(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()

	events, err := svc.ListRecent(ctx, "", 0)
	require.NoError(t, err)
	assert.NotNil(t, events)
	assert.Empty(t, events)

	for i := 0; i < 5; i++ {
		err := svc.Log(ctx, &entities.AuditEvent{
			UserID:    1,
			EventType: entities.AuditEventLending,
			Action:    "test",
			Status:    entities.AuditStatusSuccess,
		})
		require.NoError(t, err)
	}
	require.NoError(t, svc.Log(ctx, &entities.AuditEvent{
		EventType: entities.AuditEventAuth,
		Action:    "login",
		Status:    entities.AuditStatusSuccess,
	}))

	events, err = svc.ListRecent(ctx, "", 3)
	require.NoError(t, err)
	assert.Len(t, events, 3)
	assert.Equal(t, "login", events[0].Action, "newest first")

	events, err = svc.ListRecent(ctx, entities.AuditEventLending, 50)
	require.NoError(t, err)
	assert.Len(t, events, 5)
}

func TestService_DeleteOldEvents(t *testing.T) {
	svc, db := setupTestService(t)

	oldEvent := &entities.AuditEvent{
		UserID:    1,
		EventType: entities.AuditEventAuth,
		Action:    "old",
		Status:    entities.AuditStatusSuccess,
		CreatedAt: time.Now().Add(-48 * time.Hour),
	}
	require.NoError(t, db.Create(oldEvent).Error)

	newEvent := &entities.AuditEvent{
		UserID:    1,
		EventType: entities.AuditEventCatalog,
		Action:    "new",
		Status:    entities.AuditStatusSuccess,
		CreatedAt: time.Now(),
	}
	require.NoError(t, db.Create(newEvent).Error)

	deleted, err := svc.DeleteOldEvents(context.Background(), 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	var remaining []entities.AuditEvent
	db.Find(&remaining)
	assert.Len(t, remaining, 1)
	assert.Equal(t, "new", remaining[0].Action)
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		input    string
		maxLen   int
		expected string
	}{
		{"short", 10, "short"},
		{"exactly10c", 10, "exactly10c"},
		{"this is a very long string", 10, "this is..."},
		{"", 5, ""},
	}

	for _, tc := range tests {
		result := truncate(tc.input, tc.maxLen)
		assert.Equal(t, tc.expected, result)
	}
}
