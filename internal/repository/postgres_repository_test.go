package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/renardbergson/self-checkout-donalds/internal/domain"
)

func setupTestDB(t *testing.T) (*PostgresRepository, func()) {
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)

	host, err := pgContainer.Host(ctx)
	require.NoError(t, err)

	port, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	creds := &Credentials{
		Host:              host,
		Port:              port.Int(),
		User:              "testuser",
		Password:          "testpass",
		DBName:            "testdb",
		MigrationsDirPath: "./migrations",
	}

	repo, err := NewRepository(creds)
	require.NoError(t, err)

	err = repo.RunMigrations(creds)
	require.NoError(t, err)

	cleanup := func() {
		repo.Close()
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	}

	return repo, cleanup
}

func seedRestaurant(t *testing.T, repo *PostgresRepository) *domain.Restaurant {
	t.Helper()
	rest := &domain.Restaurant{
		ID:   uuid.New(),
		Name: "Donalds",
		Slug: "donalds",
	}
	_, err := repo.db.Exec(
		`INSERT INTO restaurants (id, name, slug) VALUES ($1, $2, $3)`,
		rest.ID, rest.Name, rest.Slug)
	require.NoError(t, err)
	return rest
}

func seedProduct(t *testing.T, repo *PostgresRepository, rest *domain.Restaurant, name string, price float64) int64 {
	t.Helper()
	var categoryID int64
	err := repo.db.QueryRow(
		`INSERT INTO menu_categories (restaurant_id, name) VALUES ($1, 'Burgers') RETURNING id`,
		rest.ID).Scan(&categoryID)
	require.NoError(t, err)

	var productID int64
	err = repo.db.QueryRow(
		`INSERT INTO products (restaurant_id, category_id, name, price, ingredients)
		 VALUES ($1, $2, $3, $4, '{"bread","meat"}') RETURNING id`,
		rest.ID, categoryID, name, price).Scan(&productID)
	require.NoError(t, err)
	return productID
}

func newTestOrder(rest *domain.Restaurant, productID int64) *domain.Order {
	return &domain.Order{
		ID:                uuid.New(),
		RestaurantID:      rest.ID,
		CustomerName:      "Ana",
		CustomerCPF:       "52998224725",
		ConsumptionMethod: domain.ConsumptionMethodDineIn,
		TotalAmount:       2000,
		Status:            domain.OrderStatusPending,
		Items: []domain.OrderItem{
			{ProductID: productID, ProductName: "Burger", Quantity: 2, Price: 1000},
		},
	}
}

func TestGetRestaurantBySlug(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	rest := seedRestaurant(t, repo)

	got, err := repo.GetRestaurantBySlug(context.Background(), "donalds")
	require.NoError(t, err)
	assert.Equal(t, rest.ID, got.ID)
	assert.Equal(t, "Donalds", got.Name)

	_, err = repo.GetRestaurantBySlug(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrRestaurantNotFound)
}

func TestGetRestaurantMenu(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	rest := seedRestaurant(t, repo)
	productID := seedProduct(t, repo, rest, "Burger", 25.5)

	menu, err := repo.GetRestaurantMenu(context.Background(), "donalds")
	require.NoError(t, err)
	assert.Equal(t, rest.ID, menu.Restaurant.ID)
	require.Len(t, menu.Categories, 1)
	require.Len(t, menu.Categories[0].Products, 1)
	assert.Equal(t, productID, menu.Categories[0].Products[0].ID)
	assert.Equal(t, []string{"bread", "meat"}, menu.Categories[0].Products[0].Ingredients)
}

func TestGetProductsByIDs(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	rest := seedRestaurant(t, repo)
	productID := seedProduct(t, repo, rest, "Burger", 25.5)

	products, err := repo.GetProductsByIDs(context.Background(), []int64{productID, 9999})
	require.NoError(t, err)
	require.Len(t, products, 1) // unknown ids simply absent
	assert.Equal(t, "Burger", products[0].Name)
	assert.InDelta(t, 25.5, products[0].Price, 1e-9)

	products, err = repo.GetProductsByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestCreateOrder_PersistsOrderWithItems(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	rest := seedRestaurant(t, repo)
	productID := seedProduct(t, repo, rest, "Burger", 1000)
	order := newTestOrder(rest, productID)

	err := repo.CreateOrder(context.Background(), order)
	require.NoError(t, err)

	fetched, err := repo.GetOrderByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, fetched.ID)
	assert.Equal(t, domain.OrderStatusPending, fetched.Status)
	assert.Equal(t, "52998224725", fetched.CustomerCPF)
	assert.Equal(t, "donalds", fetched.RestaurantSlug)
	require.Len(t, fetched.Items, 1)
	assert.Equal(t, productID, fetched.Items[0].ProductID)
	assert.InDelta(t, 1000, fetched.Items[0].Price, 1e-9)
}

func TestCreateOrder_UnknownRestaurantRollsBack(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	order := newTestOrder(&domain.Restaurant{ID: uuid.New()}, 1)
	err := repo.CreateOrder(context.Background(), order)
	require.Error(t, err) // FK violation

	_, err = repo.GetOrderByID(context.Background(), order.ID)
	assert.ErrorIs(t, err, ErrOrderNotFound)

	var count int
	require.NoError(t, repo.db.QueryRow(
		`SELECT COUNT(*) FROM order_products WHERE order_id = $1`, order.ID).Scan(&count))
	assert.Zero(t, count) // no orphan line items either
}

func TestListOrdersByCPF_NewestFirst(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	rest := seedRestaurant(t, repo)
	productID := seedProduct(t, repo, rest, "Burger", 1000)

	first := newTestOrder(rest, productID)
	require.NoError(t, repo.CreateOrder(context.Background(), first))
	time.Sleep(10 * time.Millisecond)
	second := newTestOrder(rest, productID)
	require.NoError(t, repo.CreateOrder(context.Background(), second))

	orders, err := repo.ListOrdersByCPF(context.Background(), "52998224725")
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, second.ID, orders[0].ID)
	assert.Equal(t, first.ID, orders[1].ID)
	require.Len(t, orders[0].Items, 1)

	orders, err = repo.ListOrdersByCPF(context.Background(), "11144477735")
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestUpdateOrderStatus_TransitionAndReplay(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	rest := seedRestaurant(t, repo)
	productID := seedProduct(t, repo, rest, "Burger", 1000)
	order := newTestOrder(rest, productID)
	require.NoError(t, repo.CreateOrder(context.Background(), order))

	slug, changed, err := repo.UpdateOrderStatus(context.Background(), order.ID, domain.OrderStatusPaymentConfirmed)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, "donalds", slug)

	// replaying the same status is a no-op, not an error
	slug, changed, err = repo.UpdateOrderStatus(context.Background(), order.ID, domain.OrderStatusPaymentConfirmed)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, "donalds", slug)

	fetched, err := repo.GetOrderByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPaymentConfirmed, fetched.Status)
}

func TestUpdateOrderStatus_InvalidTransition(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	rest := seedRestaurant(t, repo)
	productID := seedProduct(t, repo, rest, "Burger", 1000)
	order := newTestOrder(rest, productID)
	require.NoError(t, repo.CreateOrder(context.Background(), order))

	_, _, err := repo.UpdateOrderStatus(context.Background(), order.ID, domain.OrderStatusPaymentConfirmed)
	require.NoError(t, err)

	_, _, err = repo.UpdateOrderStatus(context.Background(), order.ID, domain.OrderStatusPaymentFailed)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestUpdateOrderStatus_UnknownOrder(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	seedRestaurant(t, repo)

	_, _, err := repo.UpdateOrderStatus(context.Background(), uuid.New(), domain.OrderStatusPaymentConfirmed)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}
