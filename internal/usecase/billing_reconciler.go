package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v79"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/plateprep/plateprep/internal/adapter/repository"
	"github.com/plateprep/plateprep/internal/domain/model"
	"github.com/plateprep/plateprep/internal/domain/provider"
)

// BillingReconciler keeps local subscription state consistent with the Stripe
// event stream. Events arrive at-least-once and possibly out of order; the
// ledger's unique event id plus the transaction wrapping below make replayed
// deliveries no-ops and keep a crash mid-processing from marking an event
// seen without applying it.
type BillingReconciler struct {
	db       *gorm.DB
	events   repository.EventLogRepository
	subs     repository.SubscriptionRepository
	users    repository.UserRepository
	provider provider.BillingProvider
	logger   *zap.Logger
}

// NewBillingReconciler creates a webhook event reconciler.
func NewBillingReconciler(
	db *gorm.DB,
	events repository.EventLogRepository,
	subs repository.SubscriptionRepository,
	users repository.UserRepository,
	billing provider.BillingProvider,
	logger *zap.Logger,
) *BillingReconciler {
	return &BillingReconciler{
		db:       db,
		events:   events,
		subs:     subs,
		users:    users,
		provider: billing,
		logger:   logger,
	}
}

// ProcessEvent records the event in the ledger and applies its state
// transition in one transaction. A non-nil return rolls everything back so
// Stripe's retry redelivers the event.
func (r *BillingReconciler) ProcessEvent(ctx context.Context, event stripe.Event) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		isNew, err := r.events.WithTx(tx).RecordIfNew(ctx, event.ID, string(event.Type), event.Data.Raw)
		if err != nil {
			return err
		}
		if !isNew {
			r.logger.Info("Skipping already processed event",
				zap.String("event_id", event.ID),
				zap.String("event_type", string(event.Type)))
			return nil
		}

		subs := r.subs.WithTx(tx)
		eventTime := time.Unix(event.Created, 0).UTC()

		switch event.Type {
		case stripe.EventTypeCheckoutSessionCompleted:
			return r.handleCheckoutCompleted(ctx, tx, event, eventTime)
		case stripe.EventTypeCustomerSubscriptionUpdated:
			return r.handleSubscriptionUpdated(ctx, subs, event, eventTime)
		case stripe.EventTypeCustomerSubscriptionDeleted:
			return r.handleSubscriptionDeleted(ctx, subs, event, eventTime)
		default:
			r.logger.Debug("Ignoring unhandled event type",
				zap.String("event_id", event.ID),
				zap.String("event_type", string(event.Type)))
			return nil
		}
	})
}

// handleCheckoutCompleted creates the local subscription row from the
// authoritative provider state. Client-side amounts are never trusted.
func (r *BillingReconciler) handleCheckoutCompleted(ctx context.Context, tx *gorm.DB, event stripe.Event, eventTime time.Time) error {
	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return fmt.Errorf("failed to parse checkout session: %w", err)
	}

	email := session.CustomerEmail
	if email == "" && session.CustomerDetails != nil {
		email = session.CustomerDetails.Email
	}
	if session.Subscription == nil || session.Subscription.ID == "" {
		r.logger.Warn("Checkout session has no subscription, consuming event",
			zap.String("event_id", event.ID),
			zap.String("session_id", session.ID))
		return nil
	}
	subscriptionID := session.Subscription.ID

	// A recoverable failure: the event stays consumed so it cannot wedge the
	// ledger for unrelated future events.
	user, err := r.users.WithTx(tx).GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user == nil {
		r.logger.Warn("No user for checkout session email, consuming event",
			zap.String("event_id", event.ID),
			zap.String("customer_email", email))
		return nil
	}

	subs := r.subs.WithTx(tx)

	// A different event id may already have created this subscription.
	existing, err := subs.GetByStripeSubscriptionID(ctx, subscriptionID)
	if err != nil {
		return err
	}
	if existing != nil {
		r.logger.Info("Subscription already exists, skipping create",
			zap.String("subscription_id", subscriptionID))
		return nil
	}

	detail, err := r.provider.GetSubscription(ctx, subscriptionID)
	if err != nil {
		// Provider failure rolls the transaction back; Stripe redelivers.
		return err
	}

	packageName := fmt.Sprintf("%s_%s_%d", detail.ProductName, detail.Interval, detail.IntervalCount)
	price := decimal.NewFromInt(detail.UnitAmount).Div(decimal.NewFromInt(100))

	sub := &model.Subscription{
		UserID:               user.ID,
		StripeCustomerID:     detail.CustomerID,
		StripeSubscriptionID: detail.ID,
		PackageName:          packageName,
		StripePriceID:        detail.PriceID,
		Price:                price,
		Status:               model.ParseSubscriptionStatus(detail.Status),
		CurrentPeriodEnd:     detail.CurrentPeriodEnd,
		CancelAtPeriodEnd:    detail.CancelAtPeriodEnd,
		IsActive:             true,
		StartDate:            time.Now().UTC(),
		LastEventAt:          &eventTime,
	}
	if detail.LatestInvoiceID != "" {
		sub.LatestInvoiceID = &detail.LatestInvoiceID
	}

	if err := subs.Create(ctx, sub); err != nil {
		return err
	}

	r.logger.Info("Subscription created",
		zap.String("subscription_id", detail.ID),
		zap.String("user_id", user.ID.String()),
		zap.String("package_name", packageName))
	return nil
}

// handleSubscriptionUpdated merges provider-side changes into the local row.
// Missing rows are a no-op; events older than the last applied one are
// dropped as stale so reordered deliveries cannot overwrite newer state.
func (r *BillingReconciler) handleSubscriptionUpdated(ctx context.Context, subs repository.SubscriptionRepository, event stripe.Event, eventTime time.Time) error {
	var stripeSub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &stripeSub); err != nil {
		return fmt.Errorf("failed to parse subscription: %w", err)
	}

	existing, err := subs.GetByStripeSubscriptionID(ctx, stripeSub.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		r.logger.Info("Update for unknown subscription, ignoring",
			zap.String("subscription_id", stripeSub.ID))
		return nil
	}

	if existing.LastEventAt != nil && eventTime.Before(*existing.LastEventAt) {
		r.logger.Warn("Dropping stale subscription update",
			zap.String("subscription_id", stripeSub.ID),
			zap.Time("event_time", eventTime),
			zap.Time("last_applied", *existing.LastEventAt))
		return nil
	}

	fields := map[string]interface{}{
		"status":               model.ParseSubscriptionStatus(string(stripeSub.Status)),
		"cancel_at_period_end": stripeSub.CancelAtPeriodEnd,
		"last_event_at":        eventTime,
	}
	if stripeSub.CurrentPeriodEnd > 0 {
		fields["current_period_end"] = time.Unix(stripeSub.CurrentPeriodEnd, 0).UTC()
	}
	if stripeSub.LatestInvoice != nil && stripeSub.LatestInvoice.ID != "" {
		fields["latest_invoice_id"] = stripeSub.LatestInvoice.ID
	}

	if err := subs.UpdateFields(ctx, stripeSub.ID, fields); err != nil {
		return err
	}

	r.logger.Info("Subscription updated",
		zap.String("subscription_id", stripeSub.ID),
		zap.String("status", string(stripeSub.Status)))
	return nil
}

// handleSubscriptionDeleted cancels the local row. A missing row means the
// subscription was never successfully created locally; that is a no-op.
func (r *BillingReconciler) handleSubscriptionDeleted(ctx context.Context, subs repository.SubscriptionRepository, event stripe.Event, eventTime time.Time) error {
	var stripeSub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &stripeSub); err != nil {
		return fmt.Errorf("failed to parse subscription: %w", err)
	}

	existing, err := subs.GetByStripeSubscriptionID(ctx, stripeSub.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		r.logger.Info("Delete for unknown subscription, ignoring",
			zap.String("subscription_id", stripeSub.ID))
		return nil
	}

	now := time.Now().UTC()
	fields := map[string]interface{}{
		"status":        model.SubscriptionStatusCanceled,
		"is_active":     false,
		"end_date":      now,
		"last_event_at": eventTime,
	}

	if err := subs.UpdateFields(ctx, stripeSub.ID, fields); err != nil {
		return err
	}

	r.logger.Info("Subscription canceled",
		zap.String("subscription_id", stripeSub.ID))
	return nil
}
