package domain

import (
	"time"

	"github.com/google/uuid"
)

type OrderStatus string

const (
	OrderStatusPending          OrderStatus = "PENDING"
	OrderStatusPaymentConfirmed OrderStatus = "PAYMENT_CONFIRMED"
	OrderStatusPaymentFailed    OrderStatus = "PAYMENT_FAILED"
	OrderStatusInPreparation    OrderStatus = "IN_PREPARATION"
	OrderStatusFinished         OrderStatus = "FINISHED"
	OrderStatusCanceled         OrderStatus = "CANCELED"
)

// transitions is the full lifecycle graph. Payment outcomes are only ever
// applied through the webhook path; the kitchen moves confirmed orders forward.
var transitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:          {OrderStatusPaymentConfirmed, OrderStatusPaymentFailed, OrderStatusCanceled},
	OrderStatusPaymentConfirmed: {OrderStatusInPreparation},
	OrderStatusPaymentFailed:    {OrderStatusCanceled},
	OrderStatusInPreparation:    {OrderStatusFinished},
}

func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusFinished || s == OrderStatusCanceled
}

// String representation (for logging)
func (s OrderStatus) String() string {
	return string(s)
}

type OrderItem struct {
	ProductID   int64   `json:"product_id"`
	ProductName string  `json:"product_name"`
	Quantity    int     `json:"quantity"`
	Price       float64 `json:"price"`
}

type Order struct {
	ID                uuid.UUID
	RestaurantID      uuid.UUID
	CustomerName      string
	CustomerCPF       string
	ConsumptionMethod ConsumptionMethod
	TotalAmount       float64
	Status            OrderStatus
	Items             []OrderItem
	CreatedAt         time.Time
	UpdatedAt         time.Time

	// Denormalized restaurant fields, populated on reads that join the
	// restaurant row (order listing shows where the order was placed).
	RestaurantName      string
	RestaurantSlug      string
	RestaurantAvatarURL string
}
