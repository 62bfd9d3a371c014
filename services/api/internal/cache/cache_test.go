package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type entry struct {
	Title string `json:"title"`
	Score int    `json:"score"`
}

func TestMemoryCache_SetGet(t *testing.T) {
	c := NewMemoryCache(time.Minute)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "anime:naruto", entry{Title: "Naruto", Score: 80}))

	var got entry
	ok, err := c.Get(ctx, "anime:naruto", &got)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, entry{Title: "Naruto", Score: 80}, got)
}

func TestMemoryCache_Miss(t *testing.T) {
	c := NewMemoryCache(time.Minute)
	var got entry
	ok, err := c.Get(context.Background(), "absent", &got)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryCache_Expiry(t *testing.T) {
	c := NewMemoryCache(time.Minute)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", entry{Title: "x"}))
	now = now.Add(2 * time.Minute)

	var got entry
	ok, err := c.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.False(t, ok)

	c.mu.RLock()
	_, still := c.items["k"]
	c.mu.RUnlock()
	assert.False(t, still, "expired entry should be evicted on read")
}

func TestMemoryCache_ReturnsCopies(t *testing.T) {
	c := NewMemoryCache(time.Minute)
	ctx := context.Background()
	list := []string{"a", "b"}
	require.NoError(t, c.Set(ctx, "k", list))
	list[0] = "mutated"

	var got []string
	_, err := c.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got)
}

func TestMemoryCache_Concurrent(t *testing.T) {
	c := NewMemoryCache(time.Minute)
	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = c.Set(ctx, "k", entry{Score: i})
			var got entry
			_, _ = c.Get(ctx, "k", &got)
		}(i)
	}
	wg.Wait()
}

func TestNewRedisCache_InvalidURL(t *testing.T) {
	_, err := NewRedisCache("not-a-redis-url", time.Minute)
	assert.Error(t, err)
}

func TestNewRedisCache_ParsesURL(t *testing.T) {
	c, err := NewRedisCache("redis://localhost:6379/2", time.Minute)
	require.NoError(t, err)
	defer c.Close()
	assert.Equal(t, 2, c.Client.Options().DB)
	assert.Equal(t, time.Minute, c.TTL)
}
