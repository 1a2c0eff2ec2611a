package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/plateprep/plateprep/internal/adapter/repository"
	"github.com/plateprep/plateprep/internal/apperrors"
	"github.com/plateprep/plateprep/internal/domain/model"
	"github.com/plateprep/plateprep/internal/domain/provider"
)

func TestStartCheckout_ReturnsHostedURL(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "member@example.com")

	billing := new(MockBillingProvider)
	billing.On("CreateCheckoutSession", mock.Anything, mock.MatchedBy(func(p provider.CheckoutParams) bool {
		return p.PriceID == "price_1" && p.CustomerEmail == user.Email
	})).Return(&provider.CheckoutSession{ID: "cs_1", URL: "https://checkout.stripe.com/c/cs_1"}, nil)

	svc := NewCheckoutService(repository.NewSubscriptionRepository(db, testLogger()), billing, "http://localhost:5173", testLogger())

	url, err := svc.StartCheckout(context.Background(), user, "price_1")
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.stripe.com/c/cs_1", url)
	billing.AssertExpectations(t)
}

func TestStartCheckout_RejectsMissingPriceID(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "member@example.com")

	svc := NewCheckoutService(repository.NewSubscriptionRepository(db, testLogger()), new(MockBillingProvider), "http://localhost:5173", testLogger())

	_, err := svc.StartCheckout(context.Background(), user, "")
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrInvalidArgument, apperrors.CodeOf(err))
}

func TestStartCheckout_ConflictWithActiveSubscription(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "member@example.com")
	seedSubscription(t, db, user.ID, time.Now().UTC())

	billing := new(MockBillingProvider)
	svc := NewCheckoutService(repository.NewSubscriptionRepository(db, testLogger()), billing, "http://localhost:5173", testLogger())

	_, err := svc.StartCheckout(context.Background(), user, "price_2")
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrConflict, apperrors.CodeOf(err))

	// No session was opened at the provider.
	billing.AssertNotCalled(t, "CreateCheckoutSession", mock.Anything, mock.Anything)
}

func TestStartCheckout_ExpiredSubscriptionDoesNotBlock(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "member@example.com")

	sub := seedSubscription(t, db, user.ID, time.Now().UTC())
	require.NoError(t, db.Model(sub).Update("current_period_end", time.Now().Add(-24*time.Hour)).Error)

	billing := new(MockBillingProvider)
	billing.On("CreateCheckoutSession", mock.Anything, mock.Anything).
		Return(&provider.CheckoutSession{ID: "cs_2", URL: "https://checkout.stripe.com/c/cs_2"}, nil)

	svc := NewCheckoutService(repository.NewSubscriptionRepository(db, testLogger()), billing, "http://localhost:5173", testLogger())

	url, err := svc.StartCheckout(context.Background(), user, "price_2")
	require.NoError(t, err)
	assert.NotEmpty(t, url)
}

func TestCancelSubscription_FlagsAtPeriodEnd(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "member@example.com")
	seedSubscription(t, db, user.ID, time.Now().UTC())

	billing := new(MockBillingProvider)
	billing.On("CancelAtPeriodEnd", mock.Anything, "sub_1").Return(nil)

	svc := NewCheckoutService(repository.NewSubscriptionRepository(db, testLogger()), billing, "http://localhost:5173", testLogger())

	require.NoError(t, svc.CancelSubscription(context.Background(), user))

	var sub model.Subscription
	require.NoError(t, db.Where("stripe_subscription_id = ?", "sub_1").First(&sub).Error)
	assert.True(t, sub.CancelAtPeriodEnd)
	assert.False(t, sub.IsActive)
	billing.AssertExpectations(t)
}

func TestCancelSubscription_NoActiveSubscription(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "member@example.com")

	svc := NewCheckoutService(repository.NewSubscriptionRepository(db, testLogger()), new(MockBillingProvider), "http://localhost:5173", testLogger())

	err := svc.CancelSubscription(context.Background(), user)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrInvalidArgument, apperrors.CodeOf(err))
}

func TestGetSubscriptionStatus(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "member@example.com")
	seedSubscription(t, db, user.ID, time.Now().UTC())

	svc := NewCheckoutService(repository.NewSubscriptionRepository(db, testLogger()), new(MockBillingProvider), "http://localhost:5173", testLogger())

	status, err := svc.GetSubscriptionStatus(context.Background(), user)
	require.NoError(t, err)
	assert.Equal(t, "Premium_month_1", status.PackageName)
	assert.Equal(t, "active", status.Status)
}

func TestGetSubscriptionStatus_NotFound(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "member@example.com")

	svc := NewCheckoutService(repository.NewSubscriptionRepository(db, testLogger()), new(MockBillingProvider), "http://localhost:5173", testLogger())

	_, err := svc.GetSubscriptionStatus(context.Background(), user)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrNotFound, apperrors.CodeOf(err))
}
