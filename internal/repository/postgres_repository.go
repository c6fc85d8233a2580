package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/lib/pq"
	_ "github.com/lib/pq"

	"github.com/renardbergson/self-checkout-donalds/internal/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

func NewRepository(cred *Credentials) (*PostgresRepository, error) {
	psqlconn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cred.Host,
		cred.Port,
		cred.User,
		cred.Password,
		cred.DBName)

	db, err := sql.Open("postgres", psqlconn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if e2 := db.Ping(); e2 != nil {
		return nil, fmt.Errorf("failed to ping database: %w", e2)
	}

	db.SetMaxOpenConns(100)
	db.SetMaxIdleConns(10)
	return &PostgresRepository{db: db}, nil
}

func (r *PostgresRepository) RunMigrations(cred *Credentials) error {
	driver, err := postgres.WithInstance(r.db, &postgres.Config{
		MigrationsTable: "checkout_schema_migrations",
	})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", cred.MigrationsDirPath),
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if e2 := m.Up(); e2 != nil && !errors.Is(e2, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", e2)
	}

	return nil
}

func (r *PostgresRepository) GetRestaurantBySlug(ctx context.Context, slug string) (*domain.Restaurant, error) {
	query := `SELECT id, name, slug, description, avatar_image_url, cover_image_url, created_at
	          FROM restaurants WHERE slug = $1`

	var rest domain.Restaurant
	err := r.db.QueryRowContext(ctx, query, slug).Scan(
		&rest.ID,
		&rest.Name,
		&rest.Slug,
		&rest.Description,
		&rest.AvatarImageURL,
		&rest.CoverImageURL,
		&rest.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRestaurantNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query restaurant by slug: %w", err)
	}

	return &rest, nil
}

func (r *PostgresRepository) GetRestaurantMenu(ctx context.Context, slug string) (*domain.Menu, error) {
	rest, err := r.GetRestaurantBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	query := `SELECT c.id, c.name,
	                 p.id, p.restaurant_id, p.category_id, p.name, p.description, p.price, p.image_url, p.ingredients, p.created_at
	          FROM menu_categories c
	          LEFT JOIN products p ON p.category_id = c.id
	          WHERE c.restaurant_id = $1
	          ORDER BY c.id, p.id`

	rows, err := r.db.QueryContext(ctx, query, rest.ID)
	if err != nil {
		return nil, fmt.Errorf("query restaurant menu: %w", err)
	}
	defer rows.Close()

	menu := &domain.Menu{Restaurant: *rest}
	byCategory := map[int64]int{} // category id -> index in menu.Categories

	for rows.Next() {
		var (
			catID   int64
			catName string
			p       struct {
				id           sql.NullInt64
				restaurantID sql.Null[uuid.UUID]
				categoryID   sql.NullInt64
				name         sql.NullString
				description  sql.NullString
				price        sql.NullFloat64
				imageURL     sql.NullString
				ingredients  pq.StringArray
				createdAt    sql.NullTime
			}
		)
		if err := rows.Scan(
			&catID,
			&catName,
			&p.id,
			&p.restaurantID,
			&p.categoryID,
			&p.name,
			&p.description,
			&p.price,
			&p.imageURL,
			&p.ingredients,
			&p.createdAt,
		); err != nil {
			return nil, fmt.Errorf("scan menu row: %w", err)
		}

		idx, ok := byCategory[catID]
		if !ok {
			menu.Categories = append(menu.Categories, domain.MenuCategory{ID: catID, Name: catName})
			idx = len(menu.Categories) - 1
			byCategory[catID] = idx
		}

		if !p.id.Valid { // category without products
			continue
		}
		menu.Categories[idx].Products = append(menu.Categories[idx].Products, domain.Product{
			ID:           p.id.Int64,
			RestaurantID: p.restaurantID.V,
			CategoryID:   p.categoryID.Int64,
			Name:         p.name.String,
			Description:  p.description.String,
			Price:        p.price.Float64,
			ImageURL:     p.imageURL.String,
			Ingredients:  p.ingredients,
			CreatedAt:    p.createdAt.Time,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return menu, nil
}

func (r *PostgresRepository) GetProductsByIDs(ctx context.Context, ids []int64) ([]*domain.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `SELECT id, restaurant_id, category_id, name, description, price, image_url, ingredients, created_at
	          FROM products WHERE id = ANY($1)`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("query products by ids: %w", err)
	}
	defer rows.Close()

	var products []*domain.Product
	for rows.Next() {
		p := &domain.Product{}
		var ingredients pq.StringArray
		if err := rows.Scan(
			&p.ID,
			&p.RestaurantID,
			&p.CategoryID,
			&p.Name,
			&p.Description,
			&p.Price,
			&p.ImageURL,
			&ingredients,
			&p.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan product row: %w", err)
		}
		p.Ingredients = ingredients
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return products, nil
}

func (r *PostgresRepository) CreateOrder(ctx context.Context, order *domain.Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin order transaction: %w", err)
	}
	defer tx.Rollback()

	orderQuery := `INSERT INTO orders (id, restaurant_id, customer_name, customer_cpf, consumption_method, total_amount, status, created_at, updated_at)
	               VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())`

	if _, err := tx.ExecContext(ctx, orderQuery,
		order.ID,
		order.RestaurantID,
		order.CustomerName,
		order.CustomerCPF,
		order.ConsumptionMethod,
		order.TotalAmount,
		order.Status,
	); err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	itemQuery := `INSERT INTO order_products (order_id, product_id, product_name, quantity, price)
	              VALUES ($1, $2, $3, $4, $5)`

	for _, item := range order.Items {
		if _, err := tx.ExecContext(ctx, itemQuery,
			order.ID,
			item.ProductID,
			item.ProductName,
			item.Quantity,
			item.Price,
		); err != nil {
			return fmt.Errorf("insert order product: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit order transaction: %w", err)
	}
	return nil
}

const orderColumns = `o.id, o.restaurant_id, o.customer_name, o.customer_cpf, o.consumption_method,
	o.total_amount, o.status, o.created_at, o.updated_at, r.name, r.slug, r.avatar_image_url`

func (r *PostgresRepository) GetOrderByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + `
	          FROM orders o JOIN restaurants r ON r.id = o.restaurant_id
	          WHERE o.id = $1`

	order, err := scanOrder(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query order by id: %w", err)
	}

	if err := r.loadOrderItems(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (r *PostgresRepository) ListOrdersByCPF(ctx context.Context, cpf string) ([]*domain.Order, error) {
	query := `SELECT ` + orderColumns + `
	          FROM orders o JOIN restaurants r ON r.id = o.restaurant_id
	          WHERE o.customer_cpf = $1 ORDER BY o.created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, cpf)
	if err != nil {
		return nil, fmt.Errorf("query orders by cpf: %w", err)
	}
	defer rows.Close()

	var orders []*domain.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	for _, order := range orders {
		if err := r.loadOrderItems(ctx, order); err != nil {
			return nil, err
		}
	}

	return orders, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	var order domain.Order
	err := row.Scan(
		&order.ID,
		&order.RestaurantID,
		&order.CustomerName,
		&order.CustomerCPF,
		&order.ConsumptionMethod,
		&order.TotalAmount,
		&order.Status,
		&order.CreatedAt,
		&order.UpdatedAt,
		&order.RestaurantName,
		&order.RestaurantSlug,
		&order.RestaurantAvatarURL,
	)
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *PostgresRepository) loadOrderItems(ctx context.Context, order *domain.Order) error {
	query := `SELECT product_id, product_name, quantity, price
	          FROM order_products WHERE order_id = $1 ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, order.ID)
	if err != nil {
		return fmt.Errorf("query order products: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(&item.ProductID, &item.ProductName, &item.Quantity, &item.Price); err != nil {
			return fmt.Errorf("scan order product row: %w", err)
		}
		order.Items = append(order.Items, item)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("row iteration error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) UpdateOrderStatus(ctx context.Context, id uuid.UUID, next domain.OrderStatus) (string, bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", false, fmt.Errorf("begin status transaction: %w", err)
	}
	defer tx.Rollback()

	var (
		current domain.OrderStatus
		slug    string
	)
	query := `SELECT o.status, r.slug
	          FROM orders o JOIN restaurants r ON r.id = o.restaurant_id
	          WHERE o.id = $1 FOR UPDATE OF o`
	err = tx.QueryRowContext(ctx, query, id).Scan(&current, &slug)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, ErrOrderNotFound
	}
	if err != nil {
		return "", false, fmt.Errorf("query order status: %w", err)
	}

	if current == next { // duplicate event delivery, nothing to apply
		return slug, false, tx.Commit()
	}

	if !current.CanTransitionTo(next) {
		return "", false, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current, next)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE orders SET status = $2, updated_at = NOW() WHERE id = $1`,
		id, next,
	); err != nil {
		return "", false, fmt.Errorf("update order status: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", false, fmt.Errorf("commit status transaction: %w", err)
	}
	return slug, true, nil
}

func (r *PostgresRepository) Close() error {
	return r.db.Close()
}
