package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type countingProducts struct {
	ProductStore
	mu        sync.Mutex
	listCalls int
	products  []Product

	// when set, the next List takes its snapshot, signals listing and
	// waits for release before returning.
	listing chan struct{}
	release chan struct{}
}

func (c *countingProducts) List(context.Context) ([]Product, error) {
	c.mu.Lock()
	c.listCalls++
	snapshot := append([]Product(nil), c.products...)
	listing, release := c.listing, c.release
	c.listing, c.release = nil, nil
	c.mu.Unlock()

	if listing != nil {
		close(listing)
		<-release
	}
	return snapshot, nil
}

func (c *countingProducts) Create(_ context.Context, p *Product) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	p.ID = "new"
	c.products = append([]Product{*p}, c.products...)
	return nil
}

func (c *countingProducts) Delete(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, p := range c.products {
		if p.ID == id {
			c.products = append(c.products[:i], c.products[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func setupCache(t *testing.T, logger *zap.SugaredLogger) (*CachedProducts, *countingProducts, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	inner := &countingProducts{products: []Product{{ID: "p1", Name: "Beans", Stock: 2}}}
	return NewCachedProducts(inner, client, time.Minute, logger), inner, mr
}

func names(products []Product) []string {
	out := make([]string, 0, len(products))
	for _, p := range products {
		out = append(out, p.Name)
	}
	return out
}

func TestCachedProducts_ListServedFromCache(t *testing.T) {
	cache, inner, mr := setupCache(t, nil)
	ctx := context.Background()

	first, err := cache.List(ctx)
	require.NoError(t, err)
	second, err := cache.List(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, inner.listCalls)
	assert.Equal(t, first, second)
	assert.True(t, mr.Exists(listKey(0)))
}

func TestCachedProducts_WriteInvalidates(t *testing.T) {
	cache, inner, mr := setupCache(t, nil)
	ctx := context.Background()

	_, err := cache.List(ctx)
	require.NoError(t, err)

	require.NoError(t, cache.Create(ctx, &Product{Name: "Rice", Stock: 1}))
	assert.False(t, mr.Exists(listKey(0)))

	list, err := cache.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, inner.listCalls)
	assert.Equal(t, []string{"Rice", "Beans"}, names(list))
	assert.True(t, mr.Exists(listKey(1)))
}

func TestCachedProducts_FailedWriteKeepsCache(t *testing.T) {
	cache, _, mr := setupCache(t, nil)
	ctx := context.Background()

	_, err := cache.List(ctx)
	require.NoError(t, err)

	assert.ErrorIs(t, cache.Delete(ctx, "missing"), ErrNotFound)
	assert.True(t, mr.Exists(listKey(0)))
	assert.False(t, mr.Exists(productGenKey))
}

func TestCachedProducts_SlowListCannotRestoreStaleSnapshot(t *testing.T) {
	tests := []struct {
		name  string
		write func(*CachedProducts) error
		want  []string
	}{
		{
			name:  "create during list",
			write: func(c *CachedProducts) error { return c.Create(context.Background(), &Product{Name: "Rice", Stock: 1}) },
			want:  []string{"Rice", "Beans"},
		},
		{
			name:  "delete during list",
			write: func(c *CachedProducts) error { return c.Delete(context.Background(), "p1") },
			want:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cache, inner, _ := setupCache(t, nil)
			ctx := context.Background()

			inner.listing = make(chan struct{})
			inner.release = make(chan struct{})
			listing, release := inner.listing, inner.release

			done := make(chan []Product)
			go func() {
				products, err := cache.List(ctx)
				assert.NoError(t, err)
				done <- products
			}()

			<-listing
			require.NoError(t, tt.write(cache))
			close(release)

			// the slow reader still answers with what it read
			assert.Equal(t, []string{"Beans"}, names(<-done))

			list, err := cache.List(ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.want, names(list))
		})
	}
}

func TestCachedProducts_RedisDownFallsBackAndLogs(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	cache, inner, mr := setupCache(t, zap.New(core).Sugar())
	mr.Close()

	list, err := cache.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Equal(t, 1, inner.listCalls)
	assert.Equal(t, 1, logs.FilterMessage("product cache unavailable").Len())
}

func TestCachedProducts_FailedInvalidationIsLogged(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	cache, inner, mr := setupCache(t, zap.New(core).Sugar())
	ctx := context.Background()

	_, err := cache.List(ctx)
	require.NoError(t, err)

	mr.Close()
	require.NoError(t, cache.Create(ctx, &Product{Name: "Rice", Stock: 1}))

	assert.Len(t, inner.products, 2)
	assert.Equal(t, 1, logs.FilterMessage("product cache invalidation failed, listing may be stale").Len())
}

func TestCachedProducts_UnreadableEntryIsLoggedAndRefilled(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	cache, inner, mr := setupCache(t, zap.New(core).Sugar())

	require.NoError(t, mr.Set(listKey(0), "not json"))

	list, err := cache.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Beans"}, names(list))
	assert.Equal(t, 1, inner.listCalls)
	assert.Equal(t, 1, logs.FilterMessage("product cache read failed").Len())
}
