package http

import (
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stripe/stripe-go/v79/webhook"
	"go.uber.org/zap"

	"github.com/plateprep/plateprep/internal/usecase"
)

type WebhookHandler struct {
	reconciler    *usecase.BillingReconciler
	webhookSecret string
	logger        *zap.Logger
}

func NewWebhookHandler(reconciler *usecase.BillingReconciler, webhookSecret string, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{
		reconciler:    reconciler,
		webhookSecret: webhookSecret,
		logger:        logger,
	}
}

// HandleWebhook verifies the Stripe signature and hands the event to the
// reconciler. A failed signature is the sender's fault (400); a processing
// failure is ours (500) and makes Stripe redeliver.
func (h *WebhookHandler) HandleWebhook(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		h.logger.Error("Error reading request body", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Error reading request body"})
	}

	sig := c.Request().Header.Get("Stripe-Signature")

	event, err := webhook.ConstructEventWithOptions(
		body,
		sig,
		h.webhookSecret,
		webhook.ConstructEventOptions{
			IgnoreAPIVersionMismatch: true,
		},
	)
	if err != nil {
		h.logger.Error("Webhook signature verification failed",
			zap.Error(err),
			zap.String("signature", sig))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Webhook signature verification failed",
		})
	}

	h.logger.Info("Webhook event received",
		zap.String("type", string(event.Type)),
		zap.String("id", event.ID),
		zap.Time("created", time.Unix(event.Created, 0)))

	if err := h.reconciler.ProcessEvent(c.Request().Context(), event); err != nil {
		h.logger.Error("Failed to process webhook event",
			zap.String("event_id", event.ID),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to process event",
		})
	}

	return c.JSON(http.StatusOK, echo.Map{"received": true})
}
