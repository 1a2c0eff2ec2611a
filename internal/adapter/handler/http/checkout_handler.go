package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/plateprep/plateprep/internal/middleware/auth"
	"github.com/plateprep/plateprep/internal/usecase"
)

type CheckoutHandler struct {
	checkout *usecase.CheckoutService
	logger   *zap.Logger
}

func NewCheckoutHandler(checkout *usecase.CheckoutService, logger *zap.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		checkout: checkout,
		logger:   logger,
	}
}

type CreateCheckoutRequest struct {
	PriceID string `json:"price_id" validate:"required"`
}

type CreateCheckoutResponse struct {
	CheckoutURL string `json:"checkout_url"`
}

func (h *CheckoutHandler) CreateCheckout(c echo.Context) error {
	user, err := auth.CurrentUser(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Authentication required"})
	}

	var req CreateCheckoutRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	h.logger.Info("Creating checkout session...",
		zap.String("user_id", user.ID.String()),
		zap.String("price_id", req.PriceID))

	url, err := h.checkout.StartCheckout(c.Request().Context(), user, req.PriceID)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(http.StatusOK, CreateCheckoutResponse{CheckoutURL: url})
}

func (h *CheckoutHandler) CancelSubscription(c echo.Context) error {
	user, err := auth.CurrentUser(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Authentication required"})
	}

	if err := h.checkout.CancelSubscription(c.Request().Context(), user); err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message": "subscription will be canceled at the end of the billing period",
	})
}

func (h *CheckoutHandler) GetSubscriptionStatus(c echo.Context) error {
	user, err := auth.CurrentUser(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Authentication required"})
	}

	status, err := h.checkout.GetSubscriptionStatus(c.Request().Context(), user)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(http.StatusOK, status)
}
