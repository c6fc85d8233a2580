package cache

import (
	"context"
	"errors"

	"github.com/renardbergson/self-checkout-donalds/internal/domain"
)

// OrdersCache holds the per-customer orders view (keyed by normalized CPF).
// A restaurant index makes it possible to drop every cached view touched by
// a webhook status change for that restaurant.
type OrdersCache interface {
	Get(ctx context.Context, cpf string) ([]*domain.Order, error)
	Set(ctx context.Context, cpf string, orders []*domain.Order) error
	InvalidateCPF(ctx context.Context, cpf string) error
	InvalidateRestaurant(ctx context.Context, slug string) error
}

var ErrCacheMiss = errors.New("cache miss")
