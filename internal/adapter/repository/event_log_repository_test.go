package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/plateprep/plateprep/internal/domain/model"
)

func newEventLogDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.BillingEvent{}))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func TestRecordIfNew_FirstInsertWins(t *testing.T) {
	db := newEventLogDB(t)
	repo := NewEventLogRepository(db, zap.NewNop())

	payload := json.RawMessage(`{"id":"cs_1","amount":1999}`)

	isNew, err := repo.RecordIfNew(context.Background(), "evt_1", "checkout.session.completed", payload)
	require.NoError(t, err)
	assert.True(t, isNew)

	isNew, err = repo.RecordIfNew(context.Background(), "evt_1", "checkout.session.completed", payload)
	require.NoError(t, err)
	assert.False(t, isNew)

	var count int64
	require.NoError(t, db.Model(&model.BillingEvent{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestRecordIfNew_DistinctEventIDs(t *testing.T) {
	db := newEventLogDB(t)
	repo := NewEventLogRepository(db, zap.NewNop())

	for i := 0; i < 3; i++ {
		isNew, err := repo.RecordIfNew(context.Background(),
			fmt.Sprintf("evt_%d", i), "customer.subscription.updated", json.RawMessage(`{}`))
		require.NoError(t, err)
		assert.True(t, isNew)
	}

	var count int64
	require.NoError(t, db.Model(&model.BillingEvent{}).Count(&count).Error)
	assert.Equal(t, int64(3), count)
}

func TestGetByEventID(t *testing.T) {
	db := newEventLogDB(t)
	repo := NewEventLogRepository(db, zap.NewNop())

	_, err := repo.RecordIfNew(context.Background(), "evt_1", "checkout.session.completed", json.RawMessage(`{"id":"cs_1"}`))
	require.NoError(t, err)

	event, err := repo.GetByEventID(context.Background(), "evt_1")
	require.NoError(t, err)
	require.NotNil(t, event)
	assert.Equal(t, "checkout.session.completed", event.EventType)
	assert.False(t, event.ReceivedAt.IsZero())

	missing, err := repo.GetByEventID(context.Background(), "evt_missing")
	require.NoError(t, err)
	assert.Nil(t, missing)
}
