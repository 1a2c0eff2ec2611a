package model

import "time"

// BillingEvent is one row of the append-only webhook event ledger.
//
// The unique StripeEventID constraint is what makes replayed deliveries of the
// same event a no-op after the first successful application.
type BillingEvent struct {
	ID            int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	StripeEventID string    `gorm:"unique;not null;size:255" json:"stripe_event_id"`
	EventType     string    `gorm:"not null;size:100;index" json:"event_type"`
	Payload       JSONB     `gorm:"type:jsonb" json:"payload"`
	ReceivedAt    time.Time `json:"received_at"`
}

// TableName specifies the table name for GORM
func (BillingEvent) TableName() string {
	return "billing_events"
}
