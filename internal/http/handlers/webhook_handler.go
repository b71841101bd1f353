package handlers

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"

	applog "logbloga/internal/log"
	"logbloga/internal/payments"
	"logbloga/internal/services"
)

type WebhookHandler struct {
	Order  *services.OrderService
	Secret string
}

type checkoutSessionPayload struct {
	ID            string `json:"id"`
	PaymentIntent string `json:"payment_intent"`
	PaymentStatus string `json:"payment_status"`
}

// Stripe handles payment provider callbacks. Signature verification is the
// only authentication on this route, so a missing secret disables it.
func (h *WebhookHandler) Stripe(c *fiber.Ctx) error {
	if h.Secret == "" {
		return c.SendStatus(fiber.StatusNotFound)
	}

	event, err := payments.VerifyEvent(c.Body(), c.Get("Stripe-Signature"), h.Secret)
	if err != nil {
		applog.Security(c, "webhook.bad_signature", map[string]any{"error": err.Error()})
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid signature"})
	}

	switch event.Type {
	case "checkout.session.completed":
		var sess checkoutSessionPayload
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Malformed event payload"})
		}
		if sess.PaymentStatus != "paid" {
			// Async payment methods complete later via checkout.session.async_payment_succeeded.
			break
		}
		if err := h.Order.CompleteFromStripeSession(sess.ID, sess.PaymentIntent); err != nil {
			applog.Error(c, "webhook.complete", err, map[string]any{"stripe_session": sess.ID})
			// Non-2xx makes Stripe retry with backoff.
			return c.SendStatus(fiber.StatusInternalServerError)
		}
		applog.Audit(c, "order.paid", map[string]any{"stripe_session": sess.ID})
	case "checkout.session.async_payment_succeeded":
		var sess checkoutSessionPayload
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Malformed event payload"})
		}
		if err := h.Order.CompleteFromStripeSession(sess.ID, sess.PaymentIntent); err != nil {
			applog.Error(c, "webhook.complete", err, map[string]any{"stripe_session": sess.ID})
			return c.SendStatus(fiber.StatusInternalServerError)
		}
	default:
		applog.Info(c, "webhook.ignored", map[string]any{"type": string(event.Type)})
	}

	return c.JSON(fiber.Map{"received": true})
}
