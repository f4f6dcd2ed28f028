// Package cache keeps the product listing in Redis in front of the
// products storage.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/niksmo/modelshop-admin/internal/core/domain"
	"github.com/niksmo/modelshop-admin/internal/core/port"
	"github.com/redis/go-redis/v9"
)

var _ port.ProductsStorage = (*ProductsCache)(nil)

const (
	DefaultTTL = 5 * time.Minute

	listKey = "modelshop:products:list"
)

type redisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, ttl time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

func NewRedisClient(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	const op = "cache.NewRedisClient"

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("%s: redis is unavailable: %w", op, err)
	}
	slog.Info("redis is available", "op", op, "addr", cfg.Addr)
	return rdb, nil
}

// ProductsCache serves the listing from Redis and drops it on every write.
// Redis failures are logged and fall through to the storage.
type ProductsCache struct {
	next port.ProductsStorage
	rdb  redisClient
	ttl  time.Duration
}

func NewProductsCache(
	next port.ProductsStorage, rdb redisClient, ttl time.Duration,
) ProductsCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return ProductsCache{next: next, rdb: rdb, ttl: ttl}
}

type cachedProduct struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       string    `json:"price"`
	Category    string    `json:"category"`
	PaymentLink string    `json:"paymentLink"`
	Images      []string  `json:"images"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (c ProductsCache) ListProducts(ctx context.Context) ([]domain.Product, error) {
	const op = "ProductsCache.ListProducts"
	log := slog.With("op", op)

	raw, err := c.rdb.Get(ctx, listKey).Bytes()
	switch {
	case err == nil:
		ps, err := decodeList(raw)
		if err == nil {
			return ps, nil
		}
		log.Warn("corrupted cache entry", "err", err)
	case errors.Is(err, redis.Nil):
	default:
		log.Warn("cache read failed", "err", err)
	}

	ps, err := c.next.ListProducts(ctx)
	if err != nil {
		return nil, err
	}

	data, err := encodeList(ps)
	if err != nil {
		log.Warn("failed to encode listing", "err", err)
		return ps, nil
	}
	if err := c.rdb.Set(ctx, listKey, data, c.ttl).Err(); err != nil {
		log.Warn("cache write failed", "err", err)
	}
	return ps, nil
}

func (c ProductsCache) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	return c.next.GetProduct(ctx, id)
}

func (c ProductsCache) CreateProduct(
	ctx context.Context, p domain.Product,
) (domain.Product, error) {
	out, err := c.next.CreateProduct(ctx, p)
	if err == nil {
		c.invalidate(ctx)
	}
	return out, err
}

func (c ProductsCache) UpdateProduct(
	ctx context.Context, p domain.Product,
) (domain.Product, error) {
	out, err := c.next.UpdateProduct(ctx, p)
	if err == nil {
		c.invalidate(ctx)
	}
	return out, err
}

func (c ProductsCache) DeleteProduct(ctx context.Context, id string) error {
	err := c.next.DeleteProduct(ctx, id)
	if err == nil {
		c.invalidate(ctx)
	}
	return err
}

func (c ProductsCache) invalidate(ctx context.Context) {
	if err := c.rdb.Del(ctx, listKey).Err(); err != nil {
		slog.Error(
			"failed to invalidate listing, stale for up to ttl",
			"op", "ProductsCache.invalidate", "ttl", c.ttl, "err", err,
		)
	}
}

func encodeList(ps []domain.Product) ([]byte, error) {
	out := make([]cachedProduct, len(ps))
	for i, p := range ps {
		out[i] = cachedProduct{
			ID:          p.ID,
			Name:        p.Name,
			Description: p.Description,
			Price:       p.Price,
			Category:    p.Category,
			PaymentLink: p.PaymentLink,
			Images:      p.Images.URLs(),
			CreatedAt:   p.CreatedAt,
			UpdatedAt:   p.UpdatedAt,
		}
	}
	return json.Marshal(out)
}

func decodeList(data []byte) ([]domain.Product, error) {
	var in []cachedProduct
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, err
	}

	ps := make([]domain.Product, len(in))
	for i, c := range in {
		images, err := domain.NewImageList(c.Images...)
		if err != nil {
			return nil, err
		}
		ps[i] = domain.Product{
			ID:          c.ID,
			Name:        c.Name,
			Description: c.Description,
			Price:       c.Price,
			Category:    c.Category,
			PaymentLink: c.PaymentLink,
			Images:      images,
			CreatedAt:   c.CreatedAt,
			UpdatedAt:   c.UpdatedAt,
		}
	}
	return ps, nil
}
