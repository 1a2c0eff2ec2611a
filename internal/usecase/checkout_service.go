package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/plateprep/plateprep/internal/adapter/repository"
	"github.com/plateprep/plateprep/internal/apperrors"
	"github.com/plateprep/plateprep/internal/domain/model"
	"github.com/plateprep/plateprep/internal/domain/provider"
)

// CheckoutService opens checkout sessions and serves subscription queries.
// Opening a session has no local side effect beyond the conflict guard read:
// the authoritative state change arrives later through the webhook stream, so
// an abandoned checkout leaves no orphaned local state.
type CheckoutService struct {
	subs      repository.SubscriptionRepository
	provider  provider.BillingProvider
	clientURL string
	logger    *zap.Logger
}

// NewCheckoutService creates a checkout service.
func NewCheckoutService(subs repository.SubscriptionRepository, billing provider.BillingProvider, clientURL string, logger *zap.Logger) *CheckoutService {
	return &CheckoutService{
		subs:      subs,
		provider:  billing,
		clientURL: clientURL,
		logger:    logger,
	}
}

// StartCheckout opens a hosted checkout session for the user, rejecting with
// a conflict while an active, unexpired subscription exists.
func (s *CheckoutService) StartCheckout(ctx context.Context, user *model.User, priceID string) (string, error) {
	if priceID == "" {
		return "", apperrors.NewAppError(apperrors.ErrInvalidArgument, "price_id is required", nil)
	}

	active, err := s.subs.GetActiveByUserID(ctx, user.ID)
	if err != nil {
		return "", err
	}
	if active != nil {
		return "", apperrors.NewAppError(apperrors.ErrConflict,
			"you already have an active subscription, cancel it before subscribing to a new package", nil)
	}

	session, err := s.provider.CreateCheckoutSession(ctx, provider.CheckoutParams{
		CustomerEmail: user.Email,
		PriceID:       priceID,
		SuccessURL:    s.clientURL + "/",
		CancelURL:     s.clientURL + "/",
	})
	if err != nil {
		return "", apperrors.Wrap(err, "failed to start checkout")
	}

	s.logger.Info("Checkout session created",
		zap.String("session_id", session.ID),
		zap.String("user_id", user.ID.String()),
		zap.String("price_id", priceID))

	return session.URL, nil
}

// CancelSubscription flags the user's active subscription for cancellation at
// period end, both at the provider and locally.
func (s *CheckoutService) CancelSubscription(ctx context.Context, user *model.User) error {
	active, err := s.subs.GetActiveByUserID(ctx, user.ID)
	if err != nil {
		return err
	}
	if active == nil {
		return apperrors.NewAppError(apperrors.ErrInvalidArgument, "no active subscription found", nil)
	}

	if err := s.provider.CancelAtPeriodEnd(ctx, active.StripeSubscriptionID); err != nil {
		return apperrors.Wrap(err, "failed to cancel subscription")
	}

	fields := map[string]interface{}{
		"cancel_at_period_end": true,
		"is_active":            false,
	}
	if err := s.subs.UpdateFields(ctx, active.StripeSubscriptionID, fields); err != nil {
		return err
	}

	s.logger.Info("Subscription flagged for cancellation",
		zap.String("subscription_id", active.StripeSubscriptionID),
		zap.String("user_id", user.ID.String()))

	return nil
}

// SubscriptionStatus describes the user's current subscription.
type SubscriptionStatus struct {
	PackageName       string    `json:"package_name"`
	Status            string    `json:"status"`
	CurrentPeriodEnd  time.Time `json:"current_period_end"`
	CancelAtPeriodEnd bool      `json:"cancel_at_period_end"`
}

// GetSubscriptionStatus returns the user's active subscription details or a
// not-found error.
func (s *CheckoutService) GetSubscriptionStatus(ctx context.Context, user *model.User) (*SubscriptionStatus, error) {
	active, err := s.subs.GetActiveByUserID(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if active == nil {
		return nil, apperrors.NewAppError(apperrors.ErrNotFound, "no active subscription found", nil)
	}

	return &SubscriptionStatus{
		PackageName:       active.PackageName,
		Status:            string(active.Status),
		CurrentPeriodEnd:  active.CurrentPeriodEnd,
		CancelAtPeriodEnd: active.CancelAtPeriodEnd,
	}, nil
}
