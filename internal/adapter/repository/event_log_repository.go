package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/plateprep/plateprep/internal/domain/model"
)

// EventLogRepository is the append-only dedup ledger for inbound billing events.
type EventLogRepository interface {
	// RecordIfNew inserts the event and reports whether this call created the
	// row. A concurrent or replayed delivery of the same event id resolves to
	// isNew=false, never to an error.
	RecordIfNew(ctx context.Context, eventID, eventType string, payload json.RawMessage) (bool, error)
	GetByEventID(ctx context.Context, eventID string) (*model.BillingEvent, error)
	WithTx(tx *gorm.DB) EventLogRepository
}

type eventLogRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewEventLogRepository creates a new event ledger repository
func NewEventLogRepository(db *gorm.DB, logger *zap.Logger) EventLogRepository {
	return &eventLogRepository{
		db:     db,
		logger: logger,
	}
}

func (r *eventLogRepository) WithTx(tx *gorm.DB) EventLogRepository {
	return &eventLogRepository{db: tx, logger: r.logger}
}

// RecordIfNew resolves the duplicate-insert race via ON CONFLICT DO NOTHING:
// exactly one caller ever observes RowsAffected == 1 for a given event id.
func (r *eventLogRepository) RecordIfNew(ctx context.Context, eventID, eventType string, payload json.RawMessage) (bool, error) {
	var eventData model.JSONB
	if err := json.Unmarshal(payload, &eventData); err != nil {
		r.logger.Warn("Failed to parse event payload",
			zap.String("event_id", eventID),
			zap.Error(err))
	}

	event := &model.BillingEvent{
		StripeEventID: eventID,
		EventType:     eventType,
		Payload:       eventData,
		ReceivedAt:    time.Now().UTC(),
	}

	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "stripe_event_id"}}, DoNothing: true}).
		Create(event)

	if result.Error != nil {
		r.logger.Error("Failed to record billing event",
			zap.String("event_id", eventID),
			zap.String("event_type", eventType),
			zap.Error(result.Error))
		return false, fmt.Errorf("failed to record billing event: %w", result.Error)
	}

	return result.RowsAffected > 0, nil
}

// GetByEventID retrieves a ledger entry by provider event id
func (r *eventLogRepository) GetByEventID(ctx context.Context, eventID string) (*model.BillingEvent, error) {
	var event model.BillingEvent

	err := r.db.WithContext(ctx).
		Where("stripe_event_id = ?", eventID).
		First(&event).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Error("Failed to get billing event",
			zap.String("event_id", eventID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get billing event: %w", err)
	}

	return &event, nil
}
