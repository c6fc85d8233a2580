package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/renardbergson/self-checkout-donalds/internal/domain"
	"github.com/renardbergson/self-checkout-donalds/internal/repository"
	"github.com/renardbergson/self-checkout-donalds/internal/service"
)

type OrderCreator interface {
	CreateOrder(ctx context.Context, req service.CreateOrderRequest) (*domain.Order, error)
	ListOrders(ctx context.Context, cpf string) ([]*domain.Order, error)
}

type OrderHandler struct {
	orders  OrderCreator
	timeout time.Duration
}

func NewOrderHandler(orders OrderCreator, timeout time.Duration) *OrderHandler {
	return &OrderHandler{orders: orders, timeout: timeout}
}

type OrderProductDTO struct {
	ID       int64 `json:"id"`
	Quantity int   `json:"quantity"`
}

type CreateOrderRequestDTO struct {
	CustomerName      string            `json:"customerName"`
	CustomerCPF       string            `json:"customerCpf"`
	ConsumptionMethod string            `json:"consumptionMethod"`
	Slug              string            `json:"slug"`
	Products          []OrderProductDTO `json:"products"`
}

type CreateOrderResponseDTO struct {
	OrderID string `json:"orderId"`
}

type OrderItemDTO struct {
	ProductID   int64   `json:"product_id"`
	ProductName string  `json:"product_name"`
	Quantity    int     `json:"quantity"`
	Price       float64 `json:"price"`
}

type OrderResponseDTO struct {
	ID                string         `json:"id"`
	Status            string         `json:"status"`
	CustomerName      string         `json:"customer_name"`
	ConsumptionMethod string         `json:"consumption_method"`
	TotalAmount       float64        `json:"total_amount"`
	RestaurantName    string         `json:"restaurant_name"`
	RestaurantSlug    string         `json:"restaurant_slug"`
	RestaurantAvatar  string         `json:"restaurant_avatar_url"`
	Items             []OrderItemDTO `json:"items"`
	CreatedAt         string         `json:"created_at"`
}

// POST /api/v1/orders
func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req CreateOrderRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if req.CustomerName == "" {
		respondError(w, http.StatusBadRequest, "invalid_customer_name", "customerName is required")
		return
	}
	if !service.IsValidCPF(req.CustomerCPF) {
		respondError(w, http.StatusBadRequest, "invalid_cpf", "customerCpf is not a valid CPF")
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
	products := make([]service.ProductQuantity, 0, len(req.Products))
	for _, p := range req.Products {
		if p.ID <= 0 {
			respondError(w, http.StatusBadRequest, "invalid_product_id", "product id must be positive")
			return
		}
		if p.Quantity <= 0 || p.Quantity > 99 {
			respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be between 1 and 99")
			return
		}
		products = append(products, service.ProductQuantity{ID: p.ID, Quantity: p.Quantity})
	}

	order, err := h.orders.CreateOrder(ctx, service.CreateOrderRequest{
		CustomerName:      req.CustomerName,
		CustomerCPF:       req.CustomerCPF,
		ConsumptionMethod: method,
		RestaurantSlug:    req.Slug,
		Products:          products,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, CreateOrderResponseDTO{OrderID: order.ID.String()})
}

// GET /api/v1/orders?cpf=...
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	cpf := r.URL.Query().Get("cpf")
	if !service.IsValidCPF(cpf) {
		respondError(w, http.StatusBadRequest, "invalid_cpf", "cpf query parameter is not a valid CPF")
		return
	}

	orders, err := h.orders.ListOrders(ctx, cpf)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	dtos := make([]OrderResponseDTO, 0, len(orders))
	for _, o := range orders {
		dtos = append(dtos, convertOrder(o))
	}
	respondJSON(w, http.StatusOK, dtos)
}

func convertOrder(o *domain.Order) OrderResponseDTO {
	items := make([]OrderItemDTO, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, OrderItemDTO{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			Price:       item.Price,
		})
	}

	return OrderResponseDTO{
		ID:                o.ID.String(),
		Status:            string(o.Status),
		CustomerName:      o.CustomerName,
		ConsumptionMethod: string(o.ConsumptionMethod),
		TotalAmount:       o.TotalAmount,
		RestaurantName:    o.RestaurantName,
		RestaurantSlug:    o.RestaurantSlug,
		RestaurantAvatar:  o.RestaurantAvatarURL,
		Items:             items,
		CreatedAt:         o.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrRestaurantNotFound):
		respondError(w, http.StatusNotFound, "restaurant_not_found", "restaurant does not exist")
	case errors.Is(err, repository.ErrOrderNotFound):
		respondError(w, http.StatusNotFound, "order_not_found", "order does not exist")
	case errors.Is(err, service.ErrEmptyOrder):
		respondError(w, http.StatusBadRequest, "empty_products", "at least one product is required")
	default:
		respondError(w, http.StatusInternalServerError, "internal_error", "unexpected error")
	}
}
