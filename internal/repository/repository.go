package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/renardbergson/self-checkout-donalds/internal/domain"
)

var (
	ErrRestaurantNotFound = errors.New("restaurant not found")
	ErrOrderNotFound      = errors.New("order not found")
	ErrInvalidTransition  = errors.New("order status transition not allowed")
)

type Credentials struct {
	Host              string
	Port              int
	User              string
	Password          string
	DBName            string
	MigrationsDirPath string
}

// Repository defines the storage operations the services need.
// Consumers define this interface, not the Postgres implementation.
type Repository interface {
	GetRestaurantBySlug(ctx context.Context, slug string) (*domain.Restaurant, error)
	GetRestaurantMenu(ctx context.Context, slug string) (*domain.Menu, error)
	GetProductsByIDs(ctx context.Context, ids []int64) ([]*domain.Product, error)

	// CreateOrder persists the order and its line items as one transaction:
	// an order without lines (or lines without an order) is never observable.
	CreateOrder(ctx context.Context, order *domain.Order) error
	GetOrderByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	ListOrdersByCPF(ctx context.Context, cpf string) ([]*domain.Order, error)

	// UpdateOrderStatus applies next to the order if the lifecycle graph
	// allows it. Re-applying the order's current status is a no-op with
	// changed=false, which makes webhook replays safe. The restaurant slug
	// is returned so the caller can invalidate that restaurant's orders view.
	UpdateOrderStatus(ctx context.Context, id uuid.UUID, next domain.OrderStatus) (slug string, changed bool, err error)

	RunMigrations(*Credentials) error
	Close() error
}
