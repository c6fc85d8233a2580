package checkout

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"strings"

	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"

	"github.com/renardbergson/self-checkout-donalds/internal/domain"
)

var ErrMissingSecretKey = errors.New("payment provider secret key is not configured")

// Currency for hosted sessions. Stripe expects amounts in minor units.
const currency = "brl"

// ProductSource supplies canonical catalog products.
// Consumers define this interface, not the repository implementation.
type ProductSource interface {
	GetProductsByIDs(ctx context.Context, ids []int64) ([]*domain.Product, error)
}

// SessionCreator is the provider call itself, kept behind an interface so
// tests can capture the request instead of hitting Stripe.
type SessionCreator interface {
	Create(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

type stripeCreator struct{}

func (stripeCreator) Create(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	return session.New(params)
}

type SessionRequest struct {
	OrderID           uuid.UUID
	RestaurantSlug    string
	ConsumptionMethod domain.ConsumptionMethod
	Origin            string
	Products          []ProductQuantity
}

type ProductQuantity struct {
	ID       int64
	Quantity int
}

// Session is what the caller needs to redirect the browser. This package
// performs no redirect itself.
type Session struct {
	ID  string
	URL string
}

// Bridge builds hosted checkout sessions from an order and the canonical
// catalog. Provider calls run behind a circuit breaker so a degraded
// provider fails fast instead of piling up requests.
type Bridge struct {
	products ProductSource
	creator  SessionCreator
	breaker  *gobreaker.CircuitBreaker[*stripe.CheckoutSession]
}

func NewBridge(secretKey string, products ProductSource) (*Bridge, error) {
	if secretKey == "" {
		return nil, ErrMissingSecretKey
	}
	stripe.Key = secretKey

	return newBridge(products, stripeCreator{}), nil
}

func newBridge(products ProductSource, creator SessionCreator) *Bridge {
	return &Bridge{
		products: products,
		creator:  creator,
		breaker: gobreaker.NewCircuitBreaker[*stripe.CheckoutSession](gobreaker.Settings{
			Name: "checkout-session",
		}),
	}
}

// CreateSession prices every cart line from the catalog, attaches the order
// id as correlation metadata and uses one return URL for both success and
// cancellation; the storefront re-reads order status on return instead of
// trusting which URL was hit.
func (b *Bridge) CreateSession(ctx context.Context, req SessionRequest) (*Session, error) {
	ids := make([]int64, 0, len(req.Products))
	for _, p := range req.Products {
		ids = append(ids, p.ID)
	}

	catalog, err := b.products.GetProductsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("fetch catalog products: %w", err)
	}
	byID := make(map[int64]*domain.Product, len(catalog))
	for _, p := range catalog {
		byID[p.ID] = p
	}

	returnURL := fmt.Sprintf("%s/%s/menu?consumptionMethod=%s",
		strings.TrimRight(req.Origin, "/"), req.RestaurantSlug, req.ConsumptionMethod)

	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(req.Products))
	for _, line := range req.Products {
		name := fmt.Sprintf("product %d", line.ID)
		var amount int64
		var images []*string
		if product, ok := byID[line.ID]; ok {
			name = product.Name
			amount = minorUnits(product.Price)
			if product.ImageURL != "" {
				images = stripe.StringSlice([]string{product.ImageURL})
			}
		} else {
			// Keep the session buildable with a zero-amount line instead of
			// failing the whole checkout. See DESIGN.md.
			log.Printf("product %d not found in catalog, zero-amount session line", line.ID)
		}

		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(currency),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name:   stripe.String(name),
					Images: images,
				},
				UnitAmount: stripe.Int64(amount),
			},
			Quantity: stripe.Int64(int64(line.Quantity)),
		})
	}

	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems:          lineItems,
		SuccessURL:         stripe.String(returnURL),
		CancelURL:          stripe.String(returnURL),
	}
	params.AddMetadata("orderId", req.OrderID.String())

	created, err := b.breaker.Execute(func() (*stripe.CheckoutSession, error) {
		return b.creator.Create(params)
	})
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}

	return &Session{ID: created.ID, URL: created.URL}, nil
}

func minorUnits(price float64) int64 {
	return int64(math.Round(price * 100))
}
