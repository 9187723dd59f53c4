package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	productListKey = "products:all"
	// productGenKey is bumped after every committed write. Listings are
	// cached under the generation they were read in, so a slow reader can
	// only refill a key nobody looks up anymore.
	productGenKey = "products:gen"
)

// CachedProducts serves the catalogue listing from redis. Redis failures fall
// back to the wrapped store and are logged.
type CachedProducts struct {
	ProductStore
	client  *redis.Client
	baseTTL time.Duration
	logger  *zap.SugaredLogger
}

func NewCachedProducts(inner ProductStore, client *redis.Client, ttl time.Duration, logger *zap.SugaredLogger) *CachedProducts {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &CachedProducts{ProductStore: inner, client: client, baseTTL: ttl, logger: logger}
}

func listKey(gen int64) string {
	return productListKey + ":" + strconv.FormatInt(gen, 10)
}

func (c *CachedProducts) List(ctx context.Context) ([]Product, error) {
	// The generation must be read before the store so that a write
	// committed after it always moves readers to a fresh key.
	gen, err := c.generation(ctx)
	if err != nil {
		c.logger.Warnw("product cache unavailable", "error", err.Error())
		return c.ProductStore.List(ctx)
	}

	products, err := c.get(ctx, gen)
	if err == nil {
		return products, nil
	}
	if !errors.Is(err, errCacheMiss) {
		c.logger.Warnw("product cache read failed", "key", listKey(gen), "error", err.Error())
	}

	products, err = c.ProductStore.List(ctx)
	if err != nil {
		return nil, err
	}

	if err := c.set(ctx, gen, products); err != nil {
		c.logger.Warnw("product cache write failed", "key", listKey(gen), "error", err.Error())
	}
	return products, nil
}

func (c *CachedProducts) Create(ctx context.Context, p *Product) error {
	if err := c.ProductStore.Create(ctx, p); err != nil {
		return err
	}
	c.invalidate(ctx)
	return nil
}

func (c *CachedProducts) Update(ctx context.Context, p *Product) error {
	if err := c.ProductStore.Update(ctx, p); err != nil {
		return err
	}
	c.invalidate(ctx)
	return nil
}

func (c *CachedProducts) Delete(ctx context.Context, id string) error {
	if err := c.ProductStore.Delete(ctx, id); err != nil {
		return err
	}
	c.invalidate(ctx)
	return nil
}

var errCacheMiss = errors.New("cache miss")

func (c *CachedProducts) generation(ctx context.Context) (int64, error) {
	gen, err := c.client.Get(ctx, productGenKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis get generation failed: %w", err)
	}
	return gen, nil
}

func (c *CachedProducts) get(ctx context.Context, gen int64) ([]Product, error) {
	data, err := c.client.Get(ctx, listKey(gen)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, errCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var products []Product
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, fmt.Errorf("unmarshal products failed: %w", err)
	}
	return products, nil
}

func (c *CachedProducts) set(ctx context.Context, gen int64, products []Product) error {
	data, err := json.Marshal(products)
	if err != nil {
		return fmt.Errorf("marshal products failed: %w", err)
	}

	jitter := time.Duration(rand.Intn(30)) * time.Second
	if err := c.client.Set(ctx, listKey(gen), data, c.baseTTL+jitter).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// invalidate moves readers to a new generation and drops the listing they
// were served. The old key also expires on its own.
func (c *CachedProducts) invalidate(ctx context.Context) {
	gen, err := c.client.Incr(ctx, productGenKey).Result()
	if err != nil {
		c.logger.Warnw("product cache invalidation failed, listing may be stale", "error", err.Error())
		return
	}
	if err := c.client.Del(ctx, listKey(gen-1)).Err(); err != nil {
		c.logger.Warnw("product cache delete failed", "key", listKey(gen-1), "error", err.Error())
	}
}
