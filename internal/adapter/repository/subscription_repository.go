package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/plateprep/plateprep/internal/domain/model"
)

// SubscriptionRepository owns subscription rows. Only the billing subsystem
// mutates them.
type SubscriptionRepository interface {
	Create(ctx context.Context, sub *model.Subscription) error
	GetByStripeSubscriptionID(ctx context.Context, subscriptionID string) (*model.Subscription, error)
	// GetActiveByUserID returns the user's active, unexpired subscription or
	// nil when none exists.
	GetActiveByUserID(ctx context.Context, userID uuid.UUID) (*model.Subscription, error)
	UpdateFields(ctx context.Context, subscriptionID string, fields map[string]interface{}) error
	WithTx(tx *gorm.DB) SubscriptionRepository
}

type subscriptionRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewSubscriptionRepository creates a new subscription repository
func NewSubscriptionRepository(db *gorm.DB, logger *zap.Logger) SubscriptionRepository {
	return &subscriptionRepository{
		db:     db,
		logger: logger,
	}
}

func (r *subscriptionRepository) WithTx(tx *gorm.DB) SubscriptionRepository {
	return &subscriptionRepository{db: tx, logger: r.logger}
}

// Create inserts a new subscription row
func (r *subscriptionRepository) Create(ctx context.Context, sub *model.Subscription) error {
	err := r.db.WithContext(ctx).Create(sub).Error
	if err != nil {
		r.logger.Error("Failed to save subscription",
			zap.String("stripe_subscription_id", sub.StripeSubscriptionID),
			zap.String("user_id", sub.UserID.String()),
			zap.Error(err))
		return fmt.Errorf("failed to save subscription: %w", err)
	}

	return nil
}

// GetByStripeSubscriptionID retrieves a subscription by its natural key
func (r *subscriptionRepository) GetByStripeSubscriptionID(ctx context.Context, subscriptionID string) (*model.Subscription, error) {
	var sub model.Subscription

	err := r.db.WithContext(ctx).
		Where("stripe_subscription_id = ?", subscriptionID).
		First(&sub).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Error("Failed to get subscription by ID",
			zap.String("subscription_id", subscriptionID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}

	return &sub, nil
}

// GetActiveByUserID retrieves the user's current active subscription
func (r *subscriptionRepository) GetActiveByUserID(ctx context.Context, userID uuid.UUID) (*model.Subscription, error) {
	var sub model.Subscription

	err := r.db.WithContext(ctx).
		Where("user_id = ? AND is_active = ? AND current_period_end > ?", userID, true, time.Now()).
		First(&sub).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Error("Failed to get active subscription",
			zap.String("user_id", userID.String()),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get active subscription: %w", err)
	}

	return &sub, nil
}

// UpdateFields applies a partial update keyed by the Stripe subscription id
func (r *subscriptionRepository) UpdateFields(ctx context.Context, subscriptionID string, fields map[string]interface{}) error {
	fields["updated_at"] = time.Now()

	result := r.db.WithContext(ctx).
		Model(&model.Subscription{}).
		Where("stripe_subscription_id = ?", subscriptionID).
		Updates(fields)

	if result.Error != nil {
		r.logger.Error("Failed to update subscription",
			zap.String("subscription_id", subscriptionID),
			zap.Error(result.Error))
		return fmt.Errorf("failed to update subscription: %w", result.Error)
	}

	return nil
}
