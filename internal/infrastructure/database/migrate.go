package database

import (
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/plateprep/plateprep/internal/domain/model"
)

// Migrate runs database migrations
func Migrate(db *gorm.DB, logger *zap.Logger) error {
	logger.Info("Running database migrations...")

	err := db.AutoMigrate(
		&model.User{},
		&model.Package{},
		&model.Subscription{},
		&model.BillingEvent{},
		&model.Task{},
	)
	if err != nil {
		logger.Error("Failed to run migrations", zap.Error(err))
		return err
	}

	if err := createCustomIndexes(db); err != nil {
		logger.Error("Failed to create custom indexes", zap.Error(err))
		return err
	}

	logger.Info("Database migrations completed successfully")
	return nil
}

// createCustomIndexes creates indexes GORM does not handle automatically.
func createCustomIndexes(db *gorm.DB) error {
	// One live subscription per user, enforced by the database so concurrent
	// webhook deliveries cannot race past the application-level guard.
	if err := db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS unique_active_subscription_per_user ON subscriptions (user_id) WHERE is_active`).Error; err != nil {
		return err
	}

	return nil
}
