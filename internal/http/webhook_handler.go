package http

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/renardbergson/self-checkout-donalds/internal/domain"
	"github.com/renardbergson/self-checkout-donalds/internal/payment"
	"github.com/renardbergson/self-checkout-donalds/internal/repository"
)

const maxWebhookBody = 1 << 20 // 1MB

type EventParser interface {
	Parse(payload []byte, sigHeader string) (payment.Event, error)
}

type PaymentApplier interface {
	ApplyPaymentResult(ctx context.Context, orderID uuid.UUID, status domain.OrderStatus) error
}

type WebhookHandler struct {
	parser  EventParser
	orders  PaymentApplier
	timeout time.Duration
}

func NewWebhookHandler(parser EventParser, orders PaymentApplier, timeout time.Duration) *WebhookHandler {
	return &WebhookHandler{parser: parser, orders: orders, timeout: timeout}
}

type WebhookAckDTO struct {
	Received bool `json:"received"`
}

// POST /api/v1/webhooks/payment
//
// Responds 200 only after the status transition is durably committed, so the
// provider keeps retrying anything we lost. Signature failures and missing
// correlation ids are 400 and cause no state change.
func (h *WebhookHandler) HandleEvent(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	signature := r.Header.Get("signature")
	if signature == "" {
		signature = r.Header.Get("Stripe-Signature")
	}
	if signature == "" {
		respondError(w, http.StatusBadRequest, "missing_signature", "signature header is required")
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_body", "failed to read request body")
		return
	}

	event, err := h.parser.Parse(body, signature)
	if err != nil {
		switch {
		case errors.Is(err, payment.ErrSignature):
			log.Printf("webhook signature rejected: %v", err)
			respondError(w, http.StatusBadRequest, "invalid_signature", "signature verification failed")
		case errors.Is(err, payment.ErrMissingOrderID):
			respondError(w, http.StatusBadRequest, "missing_order_id", "order id not found in event metadata")
		default:
			respondError(w, http.StatusBadRequest, "invalid_event", "failed to parse event")
		}
		return
	}

	var status domain.OrderStatus
	switch event.Kind {
	case payment.KindPaymentCompleted:
		status = domain.OrderStatusPaymentConfirmed
	case payment.KindChargeFailed:
		status = domain.OrderStatusPaymentFailed
	default:
		// Unhandled event kinds are acknowledged so the provider stops
		// redelivering them.
		respondJSON(w, http.StatusOK, WebhookAckDTO{Received: true})
		return
	}

	if err := h.orders.ApplyPaymentResult(ctx, event.OrderID, status); err != nil {
		switch {
		case errors.Is(err, repository.ErrOrderNotFound):
			// The order-creation transaction may not have committed yet;
			// a non-2xx keeps the provider retrying instead of losing the event.
			log.Printf("webhook for unknown order %s, leaving to provider retry", event.OrderID)
			respondError(w, http.StatusInternalServerError, "order_not_found", "order not available yet")
		case errors.Is(err, repository.ErrInvalidTransition):
			log.Printf("webhook transition rejected for order %s: %v", event.OrderID, err)
			respondError(w, http.StatusConflict, "invalid_transition", "order is not awaiting this payment outcome")
		default:
			log.Printf("webhook processing failed for order %s: %v", event.OrderID, err)
			respondError(w, http.StatusInternalServerError, "internal_error", "failed to apply payment result")
		}
		return
	}

	respondJSON(w, http.StatusOK, WebhookAckDTO{Received: true})
}
