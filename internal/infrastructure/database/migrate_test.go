package database

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/plateprep/plateprep/internal/domain/model"
)

func newMigratedDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, Migrate(db, zap.NewNop()))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func testSubscription(userID uuid.UUID, stripeID string, active bool) *model.Subscription {
	return &model.Subscription{
		UserID:               userID,
		StripeCustomerID:     "cus_1",
		StripeSubscriptionID: stripeID,
		PackageName:          "Premium_month_1",
		Status:               model.SubscriptionStatusActive,
		CurrentPeriodEnd:     time.Now().Add(30 * 24 * time.Hour),
		IsActive:             active,
		StartDate:            time.Now(),
	}
}

func TestMigrate_SecondActiveSubscriptionPerUserRejected(t *testing.T) {
	db := newMigratedDB(t)
	userID := uuid.New()

	require.NoError(t, db.Create(testSubscription(userID, "sub_1", true)).Error)

	// The partial unique index backs the application-level checkout guard:
	// two concurrent webhook deliveries cannot both commit an active row.
	err := db.Create(testSubscription(userID, "sub_2", true)).Error
	require.Error(t, err)

	var count int64
	require.NoError(t, db.Model(&model.Subscription{}).Where("user_id = ? AND is_active", userID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestMigrate_InactiveRowsDoNotCollide(t *testing.T) {
	db := newMigratedDB(t)
	userID := uuid.New()

	require.NoError(t, db.Create(testSubscription(userID, "sub_1", true)).Error)

	// Canceled history rows for the same user are allowed alongside the
	// active one.
	require.NoError(t, db.Create(testSubscription(userID, "sub_2", false)).Error)
	require.NoError(t, db.Create(testSubscription(userID, "sub_3", false)).Error)
}

func TestMigrate_ActiveSubscriptionsForDifferentUsers(t *testing.T) {
	db := newMigratedDB(t)

	require.NoError(t, db.Create(testSubscription(uuid.New(), "sub_1", true)).Error)
	require.NoError(t, db.Create(testSubscription(uuid.New(), "sub_2", true)).Error)
}
