package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/renardbergson/self-checkout-donalds/internal/cache"
	"github.com/renardbergson/self-checkout-donalds/internal/cart"
	"github.com/renardbergson/self-checkout-donalds/internal/checkout"
	"github.com/renardbergson/self-checkout-donalds/internal/payment"
	"github.com/renardbergson/self-checkout-donalds/internal/repository"
	"github.com/renardbergson/self-checkout-donalds/internal/service"

	h "github.com/renardbergson/self-checkout-donalds/internal/http"
)

type Config struct {
	HTTPPort        string
	PublicBaseURL   string
	RedisAddr       string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration

	StripeSecretKey     string
	StripeWebhookSecret string

	DB repository.Credentials
}

func loadConfig() *Config {
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		log.Fatalf("Invalid DB_PORT: %v", err)
	}

	return &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		PublicBaseURL:   getEnv("PUBLIC_BASE_URL", "http://localhost:8080"),
		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		RequestTimeout:  30 * time.Second,
		ShutdownTimeout: 10 * time.Second,

		StripeSecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET_KEY"),

		DB: repository.Credentials{
			Host:              getEnv("DB_HOST", "localhost"),
			Port:              dbPort,
			User:              getEnv("DB_USER", "postgres"),
			Password:          getEnv("DB_PASSWORD", "postgres"),
			DBName:            getEnv("DB_NAME", "selfcheckout"),
			MigrationsDirPath: getEnv("MIGRATIONS_PATH", "./internal/repository/migrations"),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	log.Println("self-checkout starting...")
	cfg := loadConfig()

	// Both payment secrets are hard requirements; running without them
	// would silently break checkout, so refuse to start instead.
	if cfg.StripeSecretKey == "" {
		log.Fatalf("STRIPE_SECRET_KEY is not set")
	}
	if cfg.StripeWebhookSecret == "" {
		log.Fatalf("STRIPE_WEBHOOK_SECRET_KEY is not set")
	}

	repo, err := repository.NewRepository(&cfg.DB)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer repo.Close()

	if err := repo.RunMigrations(&cfg.DB); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database migrations completed")

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	ordersCache := cache.NewRedisCache(redisClient)

	orderService := service.NewOrderService(repo, ordersCache)

	bridge, err := checkout.NewBridge(cfg.StripeSecretKey, repo)
	if err != nil {
		log.Fatalf("Failed to set up checkout bridge: %v", err)
	}

	verifier, err := payment.NewVerifier(cfg.StripeWebhookSecret)
	if err != nil {
		log.Fatalf("Failed to set up webhook verifier: %v", err)
	}

	cartStore := cart.NewStore()
	defer cartStore.Close()

	cartHandler := h.NewCartHandler(cartStore, repo)
	orderHandler := h.NewOrderHandler(orderService, cfg.RequestTimeout)
	checkoutHandler := h.NewCheckoutHandler(bridge, cfg.PublicBaseURL, cfg.RequestTimeout)
	webhookHandler := h.NewWebhookHandler(verifier, orderService, cfg.RequestTimeout)
	menuHandler := h.NewMenuHandler(repo, cfg.RequestTimeout)

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.Compress(5))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/cart", func(r chi.Router) {
			r.Use(h.SessionMiddleware)
			r.Get("/", cartHandler.GetCart)
			r.Delete("/", cartHandler.ClearCart)
			r.Post("/toggle", cartHandler.ToggleCart)
			r.Post("/items", cartHandler.AddItem)
			r.Post("/items/{product_id}/increase", cartHandler.IncreaseQuantity)
			r.Post("/items/{product_id}/decrease", cartHandler.DecreaseQuantity)
			r.Delete("/items/{product_id}", cartHandler.RemoveItem)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", orderHandler.CreateOrder)
			r.Get("/", orderHandler.ListOrders)
		})

		r.Post("/checkout", checkoutHandler.CreateSession)
		r.Post("/webhooks/payment", webhookHandler.HandleEvent)

		r.Route("/restaurants/{slug}", func(r chi.Router) {
			r.Get("/", menuHandler.GetRestaurant)
			r.Get("/menu", menuHandler.GetMenu)
		})
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("self-checkout listening on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	if err := redisClient.Close(); err != nil {
		log.Printf("failed to close redis client: %v", err)
	}

	log.Println("server exited")
}
