package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/renardbergson/self-checkout-donalds/internal/domain"
	"github.com/renardbergson/self-checkout-donalds/internal/repository"
	"github.com/renardbergson/self-checkout-donalds/internal/service"
)

// --- Mock ---

type orderServiceMock struct {
	created *domain.Order
	orders  []*domain.Order
	lastReq service.CreateOrderRequest
	lastCPF string
	err     error
}

func (m *orderServiceMock) CreateOrder(_ context.Context, req service.CreateOrderRequest) (*domain.Order, error) {
	m.lastReq = req
	if m.err != nil {
		return nil, m.err
	}
	return m.created, nil
}

func (m *orderServiceMock) ListOrders(_ context.Context, cpf string) ([]*domain.Order, error) {
	m.lastCPF = cpf
	if m.err != nil {
		return nil, m.err
	}
	return m.orders, nil
}

const validBody = `{
	"customerName": "Ana",
	"customerCpf": "529.982.247-25",
	"consumptionMethod": "DINE_IN",
	"slug": "donalds",
	"products": [{"id": 1, "quantity": 2}]
}`

func TestCreateOrder_Success(t *testing.T) {
	orderID := uuid.New()
	mock := &orderServiceMock{created: &domain.Order{ID: orderID}}
	handler := NewOrderHandler(mock, 5*time.Second)

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest("POST", "/api/v1/orders", strings.NewReader(validBody))

	handler.CreateOrder(recorder, request)

	require.Equal(t, http.StatusCreated, recorder.Code)

	var resp CreateOrderResponseDTO
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&resp))
	assert.Equal(t, orderID.String(), resp.OrderID)

	assert.Equal(t, "Ana", mock.lastReq.CustomerName)
	assert.Equal(t, domain.ConsumptionMethodDineIn, mock.lastReq.ConsumptionMethod)
	require.Len(t, mock.lastReq.Products, 1)
	assert.Equal(t, int64(1), mock.lastReq.Products[0].ID)
	assert.Equal(t, 2, mock.lastReq.Products[0].Quantity)
}

func TestCreateOrder_InvalidCPF(t *testing.T) {
	handler := NewOrderHandler(&orderServiceMock{}, 5*time.Second)

	body := strings.Replace(validBody, "529.982.247-25", "111.111.111-11", 1)
	recorder := httptest.NewRecorder()
	request := httptest.NewRequest("POST", "/api/v1/orders", strings.NewReader(body))

	handler.CreateOrder(recorder, request)

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestCreateOrder_InvalidConsumptionMethod(t *testing.T) {
	handler := NewOrderHandler(&orderServiceMock{}, 5*time.Second)

	body := strings.Replace(validBody, "DINE_IN", "DELIVERY", 1)
	recorder := httptest.NewRecorder()
	request := httptest.NewRequest("POST", "/api/v1/orders", strings.NewReader(body))

	handler.CreateOrder(recorder, request)

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestCreateOrder_EmptyProducts(t *testing.T) {
	mock := &orderServiceMock{}
	handler := NewOrderHandler(mock, 5*time.Second)

	body := strings.Replace(validBody, `[{"id": 1, "quantity": 2}]`, `[]`, 1)
	recorder := httptest.NewRecorder()
	request := httptest.NewRequest("POST", "/api/v1/orders", strings.NewReader(body))

	handler.CreateOrder(recorder, request)

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Empty(t, mock.lastReq.CustomerName) // service never called
}

func TestCreateOrder_RestaurantNotFound(t *testing.T) {
	mock := &orderServiceMock{err: repository.ErrRestaurantNotFound}
	handler := NewOrderHandler(mock, 5*time.Second)

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest("POST", "/api/v1/orders", strings.NewReader(validBody))

	handler.CreateOrder(recorder, request)

	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestListOrders_Success(t *testing.T) {
	mock := &orderServiceMock{orders: []*domain.Order{
		{
			ID:             uuid.New(),
			Status:         domain.OrderStatusPaymentConfirmed,
			CustomerName:   "Ana",
			TotalAmount:    2000,
			RestaurantName: "Donalds",
			RestaurantSlug: "donalds",
			Items: []domain.OrderItem{
				{ProductID: 1, ProductName: "Burger", Quantity: 2, Price: 1000},
			},
			CreatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		},
	}}
	handler := NewOrderHandler(mock, 5*time.Second)

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest("GET", "/api/v1/orders?cpf=529.982.247-25", nil)

	handler.ListOrders(recorder, request)

	require.Equal(t, http.StatusOK, recorder.Code)

	var resp []OrderResponseDTO
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&resp))
	require.Len(t, resp, 1)
	assert.Equal(t, "PAYMENT_CONFIRMED", resp[0].Status)
	assert.Equal(t, "Donalds", resp[0].RestaurantName)
	require.Len(t, resp[0].Items, 1)
	assert.Equal(t, "Burger", resp[0].Items[0].ProductName)
}

func TestListOrders_EmptyListIsJSONArray(t *testing.T) {
	handler := NewOrderHandler(&orderServiceMock{}, 5*time.Second)

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest("GET", "/api/v1/orders?cpf=52998224725", nil)

	handler.ListOrders(recorder, request)

	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "[]\n", recorder.Body.String())
}

func TestListOrders_InvalidCPF(t *testing.T) {
	handler := NewOrderHandler(&orderServiceMock{}, 5*time.Second)

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest("GET", "/api/v1/orders?cpf=123", nil)

	handler.ListOrders(recorder, request)

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}
