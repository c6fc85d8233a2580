package payment

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

var (
	ErrMissingWebhookSecret = errors.New("webhook signing secret is not configured")
	ErrSignature            = errors.New("webhook signature verification failed")
	ErrMissingOrderID       = errors.New("order id not found in event metadata")
)

type Kind int

const (
	// KindOther covers every event kind this system does not react to;
	// such events are acknowledged and ignored.
	KindOther Kind = iota
	KindPaymentCompleted
	KindChargeFailed
)

// Event is the verified, already-dispatched form of a provider callback:
// a closed set of kinds, each carrying only the order correlation id.
type Event struct {
	Kind    Kind
	OrderID uuid.UUID
}

// Verifier checks provider signatures against the shared signing secret and
// parses the payload into an Event. No payload field is read before the
// signature is verified.
type Verifier struct {
	secret string
}

func NewVerifier(secret string) (*Verifier, error) {
	if secret == "" {
		return nil, ErrMissingWebhookSecret
	}
	return &Verifier{secret: secret}, nil
}

func (v *Verifier) Parse(payload []byte, sigHeader string) (Event, error) {
	stripeEvent, err := webhook.ConstructEventWithOptions(payload, sigHeader, v.secret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrSignature, err)
	}

	var kind Kind
	switch stripeEvent.Type {
	case stripe.EventTypeCheckoutSessionCompleted:
		kind = KindPaymentCompleted
	case stripe.EventTypeChargeFailed:
		kind = KindChargeFailed
	default:
		return Event{Kind: KindOther}, nil
	}

	var object struct {
		Metadata map[string]string `json:"metadata"`
	}
	if err := json.Unmarshal(stripeEvent.Data.Raw, &object); err != nil {
		return Event{}, fmt.Errorf("parse event object: %w", err)
	}

	raw := object.Metadata["orderId"]
	if raw == "" {
		return Event{}, ErrMissingOrderID
	}
	orderID, err := uuid.Parse(raw)
	if err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrMissingOrderID, err)
	}

	return Event{Kind: kind, OrderID: orderID}, nil
}
