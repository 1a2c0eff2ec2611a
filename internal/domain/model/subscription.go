package model

import (
	"database/sql/driver"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SubscriptionStatus represents the status of a subscription
type SubscriptionStatus string

const (
	SubscriptionStatusIncomplete SubscriptionStatus = "incomplete"
	SubscriptionStatusActive     SubscriptionStatus = "active"
	SubscriptionStatusPastDue    SubscriptionStatus = "past_due"
	SubscriptionStatusCanceled   SubscriptionStatus = "canceled"
	SubscriptionStatusUnknown    SubscriptionStatus = "unknown"
)

// Scan implements sql.Scanner interface
func (s *SubscriptionStatus) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		*s = SubscriptionStatus(v)
	case []byte:
		*s = SubscriptionStatus(v)
	default:
		*s = SubscriptionStatusUnknown
	}
	return nil
}

// Value implements driver.Valuer interface
func (s SubscriptionStatus) Value() (driver.Value, error) {
	return string(s), nil
}

// ParseSubscriptionStatus maps a provider status string onto the local enum.
func ParseSubscriptionStatus(s string) SubscriptionStatus {
	switch SubscriptionStatus(s) {
	case SubscriptionStatusIncomplete, SubscriptionStatusActive,
		SubscriptionStatusPastDue, SubscriptionStatusCanceled:
		return SubscriptionStatus(s)
	default:
		return SubscriptionStatusUnknown
	}
}

// Subscription maps a Stripe subscription onto a local user.
//
// StripeSubscriptionID is the natural key for webhook reconciliation.
// LastEventAt records the provider-side timestamp of the last applied event so
// that out-of-order webhook deliveries cannot overwrite newer state.
type Subscription struct {
	ID                   int64              `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID               uuid.UUID          `gorm:"type:uuid;not null;index" json:"user_id"`
	StripeCustomerID     string             `gorm:"not null;size:100" json:"stripe_customer_id"`
	StripeSubscriptionID string             `gorm:"unique;not null;size:100" json:"stripe_subscription_id"`
	PackageName          string             `gorm:"not null;size:255" json:"package_name"`
	StripePriceID        string             `gorm:"size:100" json:"stripe_price_id"`
	Price                decimal.Decimal    `gorm:"type:decimal(10,2)" json:"price"`
	Status               SubscriptionStatus `gorm:"not null;size:20;default:'incomplete'" json:"status"`
	CurrentPeriodEnd     time.Time          `gorm:"not null" json:"current_period_end"`
	CancelAtPeriodEnd    bool               `gorm:"not null;default:false" json:"cancel_at_period_end"`
	IsActive             bool               `gorm:"not null;default:false" json:"is_active"`
	LatestInvoiceID      *string            `gorm:"size:100" json:"latest_invoice_id,omitempty"`
	StartDate            time.Time          `gorm:"not null" json:"start_date"`
	EndDate              *time.Time         `json:"end_date,omitempty"`
	LastEventAt          *time.Time         `json:"last_event_at,omitempty"`
	CreatedAt            time.Time          `json:"created_at"`
	UpdatedAt            time.Time          `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (Subscription) TableName() string {
	return "subscriptions"
}
