package provider

import (
	"context"
	"time"
)

// CheckoutSession is a hosted checkout session opened at the billing provider.
type CheckoutSession struct {
	ID  string
	URL string
}

// CheckoutParams describes the session to open.
type CheckoutParams struct {
	CustomerEmail string
	PriceID       string
	SuccessURL    string
	CancelURL     string
}

// SubscriptionDetail is the authoritative view of a provider subscription,
// expanded with its first line item and product. Amounts always come from
// here, never from client input.
type SubscriptionDetail struct {
	ID                string
	CustomerID        string
	Status            string
	CurrentPeriodEnd  time.Time
	CancelAtPeriodEnd bool
	LatestInvoiceID   string
	PriceID           string
	UnitAmount        int64 // minor currency units
	Currency          string
	Interval          string
	IntervalCount     int
	ProductName       string
}

// ProductParams describes a product to create at the provider.
type ProductParams struct {
	Name        string
	Description string
}

// PriceParams describes a price to create at the provider.
type PriceParams struct {
	ProductID     string
	UnitAmount    int64
	Currency      string
	Recurring     bool
	Interval      string
	IntervalCount int
}

// BillingProvider is the outbound interface to the billing service.
type BillingProvider interface {
	CreateCheckoutSession(ctx context.Context, params CheckoutParams) (*CheckoutSession, error)
	GetSubscription(ctx context.Context, subscriptionID string) (*SubscriptionDetail, error)
	CancelAtPeriodEnd(ctx context.Context, subscriptionID string) error
	CreateProduct(ctx context.Context, params ProductParams) (string, error)
	UpdateProduct(ctx context.Context, productID string, params ProductParams) error
	DeactivateProduct(ctx context.Context, productID string) error
	CreatePrice(ctx context.Context, params PriceParams) (string, error)
}
