package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"

	"github.com/renardbergson/self-checkout-donalds/internal/checkout"
	"github.com/renardbergson/self-checkout-donalds/internal/domain"
)

type SessionBuilder interface {
	CreateSession(ctx context.Context, req checkout.SessionRequest) (*checkout.Session, error)
}

type CheckoutHandler struct {
	bridge SessionBuilder
	// origin is the fallback public base URL when the request carries no
	// Origin header (the provider needs absolute return URLs).
	origin  string
	timeout time.Duration
}

func NewCheckoutHandler(bridge SessionBuilder, origin string, timeout time.Duration) *CheckoutHandler {
	return &CheckoutHandler{bridge: bridge, origin: origin, timeout: timeout}
}

type CheckoutRequestDTO struct {
	OrderID           string            `json:"orderId"`
	Slug              string            `json:"slug"`
	ConsumptionMethod string            `json:"consumptionMethod"`
	Products          []OrderProductDTO `json:"products"`
}

type CheckoutResponseDTO struct {
	SessionID string `json:"sessionId"`
	URL       string `json:"url"`
}

// POST /api/v1/checkout
func (h *CheckoutHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req CheckoutRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	orderID, err := uuid.Parse(req.OrderID)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_order_id", "orderId must be a valid id")
		return
	}
	method, err := domain.ParseConsumptionMethod(req.ConsumptionMethod)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_consumption_method", "consumptionMethod must be DINE_IN or TAKEAWAY")
		return
	}
	if req.Slug == "" {
		respondError(w, http.StatusBadRequest, "invalid_slug", "slug is required")
		return
	}
	if len(req.Products) == 0 {
		respondError(w, http.StatusBadRequest, "empty_products", "at least one product is required")
		return
	}

	origin := r.Header.Get("Origin")
	if origin == "" {
		origin = h.origin
	}

	products := make([]checkout.ProductQuantity, 0, len(req.Products))
	for _, p := range req.Products {
		products = append(products, checkout.ProductQuantity{ID: p.ID, Quantity: p.Quantity})
	}

	session, err := h.bridge.CreateSession(ctx, checkout.SessionRequest{
		OrderID:           orderID,
		RestaurantSlug:    req.Slug,
		ConsumptionMethod: method,
		Origin:            origin,
		Products:          products,
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			respondError(w, http.StatusServiceUnavailable, "provider_unavailable", "payment provider is unavailable")
			return
		}
		respondError(w, http.StatusInternalServerError, "checkout_failed", "failed to create checkout session")
		return
	}

	respondJSON(w, http.StatusOK, CheckoutResponseDTO{SessionID: session.ID, URL: session.URL})
}
