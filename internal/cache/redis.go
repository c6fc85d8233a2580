package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/renardbergson/self-checkout-donalds/internal/domain"
)

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{
		client:  client,
		baseTTL: 15 * time.Minute,
	}
}

type RedisCache struct {
	client  *redis.Client
	baseTTL time.Duration
}

func (r *RedisCache) Get(ctx context.Context, cpf string) ([]*domain.Order, error) {
	data, err := r.client.Get(ctx, ordersKey(cpf)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var orders []*domain.Order
	if err2 := json.Unmarshal(data, &orders); err2 != nil {
		return nil, fmt.Errorf("unmarshal orders failed: %w", err2)
	}

	return orders, nil
}

func (r *RedisCache) Set(ctx context.Context, cpf string, orders []*domain.Order) error {
	data, err := json.Marshal(orders)
	if err != nil {
		return fmt.Errorf("marshal orders failed: %w", err)
	}

	jitter := time.Duration(rand.Intn(5)) * time.Minute
	ttl := r.baseTTL + jitter

	key := ordersKey(cpf)
	if err := r.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}

	// Index this view under every restaurant it shows, so a status change
	// for one of them can find and drop it.
	for _, slug := range restaurantSlugs(orders) {
		idx := restaurantKey(slug)
		if err := r.client.SAdd(ctx, idx, key).Err(); err != nil {
			return fmt.Errorf("redis index add failed: %w", err)
		}
		if err := r.client.Expire(ctx, idx, ttl).Err(); err != nil {
			return fmt.Errorf("redis index expire failed: %w", err)
		}
	}

	return nil
}

func (r *RedisCache) InvalidateCPF(ctx context.Context, cpf string) error {
	if err := r.client.Del(ctx, ordersKey(cpf)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func (r *RedisCache) InvalidateRestaurant(ctx context.Context, slug string) error {
	idx := restaurantKey(slug)
	keys, err := r.client.SMembers(ctx, idx).Result()
	if err != nil {
		return fmt.Errorf("redis index read failed: %w", err)
	}

	if len(keys) > 0 {
		if err := r.client.Del(ctx, keys...).Err(); err != nil {
			return fmt.Errorf("redis delete failed: %w", err)
		}
	}
	if err := r.client.Del(ctx, idx).Err(); err != nil {
		return fmt.Errorf("redis index delete failed: %w", err)
	}
	return nil
}

func ordersKey(cpf string) string {
	return fmt.Sprintf("orders:cpf:%s", cpf)
}

func restaurantKey(slug string) string {
	return fmt.Sprintf("orders:restaurant:%s", slug)
}

func restaurantSlugs(orders []*domain.Order) []string {
	seen := make(map[string]struct{})
	var slugs []string
	for _, o := range orders {
		if o.RestaurantSlug == "" {
			continue
		}
		if _, ok := seen[o.RestaurantSlug]; ok {
			continue
		}
		seen[o.RestaurantSlug] = struct{}{}
		slugs = append(slugs, o.RestaurantSlug)
	}
	return slugs
}
