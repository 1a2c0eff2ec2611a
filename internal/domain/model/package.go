package model

import "time"

// Package is a purchasable subscription plan.
//
// StripeProductID and StripePriceID are write-once: they are set when the
// package is first synced to Stripe and are never accepted from a client.
type Package struct {
	ID              int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name            string    `gorm:"not null;size:200" json:"name"`
	Description     string    `gorm:"type:text" json:"description"`
	Amount          int64     `gorm:"not null" json:"amount"` // minor currency units
	Currency        string    `gorm:"not null;size:3;default:'usd'" json:"currency"`
	BillingInterval string    `gorm:"not null;size:10" json:"billing_interval"`
	IntervalCount   int       `gorm:"not null;default:1" json:"interval_count"`
	Recurring       bool      `gorm:"not null;default:true" json:"recurring"`
	StripeProductID string    `gorm:"size:100" json:"stripe_product_id,omitempty"`
	StripePriceID   string    `gorm:"size:100" json:"stripe_price_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (Package) TableName() string {
	return "packages"
}
