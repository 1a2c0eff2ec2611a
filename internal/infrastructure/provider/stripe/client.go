package stripe

import (
	"context"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v79"
	checkoutsession "github.com/stripe/stripe-go/v79/checkout/session"
	"github.com/stripe/stripe-go/v79/price"
	"github.com/stripe/stripe-go/v79/product"
	"github.com/stripe/stripe-go/v79/subscription"
	"go.uber.org/zap"

	"github.com/plateprep/plateprep/internal/domain/provider"
)

const defaultTimeout = 10 * time.Second

// Client implements provider.BillingProvider against the Stripe API.
type Client struct {
	logger  *zap.Logger
	timeout time.Duration
}

// NewClient creates a Stripe-backed billing provider. The global API key must
// already be set via stripe.Key.
func NewClient(logger *zap.Logger, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		logger:  logger,
		timeout: timeout,
	}
}

func (c *Client) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, c.timeout)
}

// CreateCheckoutSession opens a hosted subscription checkout session
func (c *Client) CreateCheckoutSession(ctx context.Context, p provider.CheckoutParams) (*provider.CheckoutSession, error) {
	ctx, cancel := c.callContext(ctx)
	defer cancel()

	params := &stripe.CheckoutSessionParams{
		Params:             stripe.Params{Context: ctx},
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(p.PriceID),
				Quantity: stripe.Int64(1),
			},
		},
		Mode:          stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		SuccessURL:    stripe.String(p.SuccessURL),
		CancelURL:     stripe.String(p.CancelURL),
		CustomerEmail: stripe.String(p.CustomerEmail),
	}

	s, err := checkoutsession.New(params)
	if err != nil {
		c.logger.Error("Failed to create checkout session",
			zap.String("price_id", p.PriceID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}

	return &provider.CheckoutSession{ID: s.ID, URL: s.URL}, nil
}

// GetSubscription fetches the authoritative subscription state, expanded with
// its first line item's price and product.
func (c *Client) GetSubscription(ctx context.Context, subscriptionID string) (*provider.SubscriptionDetail, error) {
	ctx, cancel := c.callContext(ctx)
	defer cancel()

	params := &stripe.SubscriptionParams{Params: stripe.Params{Context: ctx}}
	params.AddExpand("items.data.price")

	sub, err := subscription.Get(subscriptionID, params)
	if err != nil {
		c.logger.Error("Failed to retrieve subscription",
			zap.String("subscription_id", subscriptionID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to retrieve subscription: %w", err)
	}

	detail := &provider.SubscriptionDetail{
		ID:                sub.ID,
		Status:            string(sub.Status),
		CurrentPeriodEnd:  time.Unix(sub.CurrentPeriodEnd, 0).UTC(),
		CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
	}
	if sub.Customer != nil {
		detail.CustomerID = sub.Customer.ID
	}
	if sub.LatestInvoice != nil {
		detail.LatestInvoiceID = sub.LatestInvoice.ID
	}

	if sub.Items != nil && len(sub.Items.Data) > 0 {
		p := sub.Items.Data[0].Price
		if p != nil {
			detail.PriceID = p.ID
			detail.UnitAmount = p.UnitAmount
			detail.Currency = string(p.Currency)
			if p.Recurring != nil {
				detail.Interval = string(p.Recurring.Interval)
				detail.IntervalCount = int(p.Recurring.IntervalCount)
			}
			if p.Product != nil {
				prodParams := &stripe.ProductParams{Params: stripe.Params{Context: ctx}}
				prod, err := product.Get(p.Product.ID, prodParams)
				if err != nil {
					c.logger.Error("Failed to retrieve product",
						zap.String("product_id", p.Product.ID),
						zap.Error(err))
					return nil, fmt.Errorf("failed to retrieve product: %w", err)
				}
				detail.ProductName = prod.Name
			}
		}
	}

	return detail, nil
}

// CancelAtPeriodEnd flags the subscription for cancellation at period end
func (c *Client) CancelAtPeriodEnd(ctx context.Context, subscriptionID string) error {
	ctx, cancel := c.callContext(ctx)
	defer cancel()

	params := &stripe.SubscriptionParams{
		Params:            stripe.Params{Context: ctx},
		CancelAtPeriodEnd: stripe.Bool(true),
	}

	if _, err := subscription.Update(subscriptionID, params); err != nil {
		c.logger.Error("Failed to cancel subscription",
			zap.String("subscription_id", subscriptionID),
			zap.Error(err))
		return fmt.Errorf("failed to cancel subscription: %w", err)
	}

	return nil
}

// CreateProduct creates a Stripe product and returns its id
func (c *Client) CreateProduct(ctx context.Context, p provider.ProductParams) (string, error) {
	ctx, cancel := c.callContext(ctx)
	defer cancel()

	params := &stripe.ProductParams{
		Params:      stripe.Params{Context: ctx},
		Name:        stripe.String(p.Name),
		Description: stripe.String(p.Description),
	}

	prod, err := product.New(params)
	if err != nil {
		c.logger.Error("Failed to create product",
			zap.String("name", p.Name),
			zap.Error(err))
		return "", fmt.Errorf("failed to create product: %w", err)
	}

	return prod.ID, nil
}

// UpdateProduct propagates name/description changes to Stripe
func (c *Client) UpdateProduct(ctx context.Context, productID string, p provider.ProductParams) error {
	ctx, cancel := c.callContext(ctx)
	defer cancel()

	params := &stripe.ProductParams{
		Params:      stripe.Params{Context: ctx},
		Name:        stripe.String(p.Name),
		Description: stripe.String(p.Description),
	}

	if _, err := product.Update(productID, params); err != nil {
		c.logger.Error("Failed to update product",
			zap.String("product_id", productID),
			zap.Error(err))
		return fmt.Errorf("failed to update product: %w", err)
	}

	return nil
}

// DeactivateProduct marks a Stripe product inactive
func (c *Client) DeactivateProduct(ctx context.Context, productID string) error {
	ctx, cancel := c.callContext(ctx)
	defer cancel()

	params := &stripe.ProductParams{
		Params: stripe.Params{Context: ctx},
		Active: stripe.Bool(false),
	}

	if _, err := product.Update(productID, params); err != nil {
		c.logger.Error("Failed to deactivate product",
			zap.String("product_id", productID),
			zap.Error(err))
		return fmt.Errorf("failed to deactivate product: %w", err)
	}

	return nil
}

// CreatePrice creates a Stripe price for a product and returns its id
func (c *Client) CreatePrice(ctx context.Context, p provider.PriceParams) (string, error) {
	ctx, cancel := c.callContext(ctx)
	defer cancel()

	params := &stripe.PriceParams{
		Params:     stripe.Params{Context: ctx},
		Product:    stripe.String(p.ProductID),
		UnitAmount: stripe.Int64(p.UnitAmount),
		Currency:   stripe.String(p.Currency),
	}
	if p.Recurring {
		params.Recurring = &stripe.PriceRecurringParams{
			Interval:      stripe.String(p.Interval),
			IntervalCount: stripe.Int64(int64(p.IntervalCount)),
		}
	}

	pr, err := price.New(params)
	if err != nil {
		c.logger.Error("Failed to create price",
			zap.String("product_id", p.ProductID),
			zap.Error(err))
		return "", fmt.Errorf("failed to create price: %w", err)
	}

	return pr.ID, nil
}
