package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/renardbergson/self-checkout-donalds/internal/cache"
	"github.com/renardbergson/self-checkout-donalds/internal/domain"
	"github.com/renardbergson/self-checkout-donalds/internal/repository"
)

type OrderService struct {
	repo  repository.Repository
	cache cache.OrdersCache
	sfg   singleflight.Group // Prevents cache stampede
}

func NewOrderService(repo repository.Repository, cache cache.OrdersCache) *OrderService {
	return &OrderService{
		repo:  repo,
		cache: cache,
	}
}

type ProductQuantity struct {
	ID       int64
	Quantity int
}

// CreateOrderRequest deliberately carries no price fields: unit prices are
// resolved from the catalog at creation time, never taken from the client.
type CreateOrderRequest struct {
	CustomerName      string
	CustomerCPF       string
	ConsumptionMethod domain.ConsumptionMethod
	RestaurantSlug    string
	Products          []ProductQuantity
}

// CreateOrder resolves the restaurant, prices every requested line from the
// catalog and persists the order (status PENDING) with its line items as one
// atomic unit. Nothing is retried here: a retry belongs to the caller, and
// repeating the whole call may create a second order by design.
func (s *OrderService) CreateOrder(ctx context.Context, req CreateOrderRequest) (*domain.Order, error) {
	restaurant, err := s.repo.GetRestaurantBySlug(ctx, req.RestaurantSlug)
	if err != nil {
		return nil, err
	}

	if len(req.Products) == 0 {
		return nil, ErrEmptyOrder
	}

	ids := make([]int64, 0, len(req.Products))
	for _, p := range req.Products {
		ids = append(ids, p.ID)
	}

	catalog, err := s.repo.GetProductsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("fetch catalog products: %w", err)
	}
	byID := make(map[int64]*domain.Product, len(catalog))
	for _, p := range catalog {
		byID[p.ID] = p
	}

	var total float64
	items := make([]domain.OrderItem, 0, len(req.Products))
	for _, line := range req.Products {
		item := domain.OrderItem{
			ProductID: line.ID,
			Quantity:  line.Quantity,
		}
		if product, ok := byID[line.ID]; ok {
			item.ProductName = product.Name
			item.Price = product.Price
		} else {
			// A cart line whose product left the catalog is kept with price
			// zero rather than failing the whole order. See DESIGN.md.
			log.Printf("product %d not found in catalog, pricing line at zero", line.ID)
		}
		total += item.Price * float64(item.Quantity)
		items = append(items, item)
	}

	order := &domain.Order{
		ID:                uuid.New(),
		RestaurantID:      restaurant.ID,
		CustomerName:      req.CustomerName,
		CustomerCPF:       NormalizeCPF(req.CustomerCPF),
		ConsumptionMethod: req.ConsumptionMethod,
		TotalAmount:       total,
		Status:            domain.OrderStatusPending,
		Items:             items,
	}

	if err := s.repo.CreateOrder(ctx, order); err != nil {
		return nil, err
	}

	s.invalidateCPF(order.CustomerCPF)
	return order, nil
}

// ListOrders returns the customer's orders newest-first, with line items.
func (s *OrderService) ListOrders(ctx context.Context, cpf string) ([]*domain.Order, error) {
	cpf = NormalizeCPF(cpf)

	// Use singleflight to prevent multiple concurrent cache misses for same key
	v, err, _ := s.sfg.Do(cpf, func() (interface{}, error) {
		orders, err := s.cache.Get(ctx, cpf)
		if err == nil {
			return orders, nil
		}

		if !errors.Is(err, cache.ErrCacheMiss) {
			log.Printf("cache get error: %v", err) // log cache error but continue
		}

		orders, errList := s.repo.ListOrdersByCPF(ctx, cpf)
		if errList != nil {
			return nil, errList
		}

		go func() {
			if errSet := s.cache.Set(context.Background(), cpf, orders); errSet != nil {
				log.Printf("cache set error: %v", errSet)
			}
		}()

		return orders, nil
	})

	if err != nil {
		return nil, err
	}

	return v.([]*domain.Order), nil
}

// ApplyPaymentResult is the only path that moves a PENDING order to a payment
// outcome. Re-delivering the same outcome is a no-op; a conflicting outcome
// is ErrInvalidTransition; an order the provider knows about but we have not
// committed yet is ErrOrderNotFound, which the webhook layer surfaces as
// retryable.
func (s *OrderService) ApplyPaymentResult(ctx context.Context, orderID uuid.UUID, status domain.OrderStatus) error {
	if status != domain.OrderStatusPaymentConfirmed && status != domain.OrderStatusPaymentFailed {
		return fmt.Errorf("%w: %s", ErrInvalidPaymentStatus, status)
	}

	slug, changed, err := s.repo.UpdateOrderStatus(ctx, orderID, status)
	if err != nil {
		return err
	}

	if !changed {
		log.Printf("duplicate payment event for order %s, status already %s", orderID, status)
		return nil
	}

	s.invalidateRestaurant(slug)
	return nil
}

func (s *OrderService) invalidateCPF(cpf string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.InvalidateCPF(ctx, cpf); err != nil {
		log.Printf("cache invalidate error: %v", err)
	}
}

func (s *OrderService) invalidateRestaurant(slug string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.InvalidateRestaurant(ctx, slug); err != nil {
		log.Printf("cache invalidate error: %v", err)
	}
}
