package redis

import (
	"context"
	"os"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T) *goredis.Client {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	c := NewClient(addr)
	if err := c.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Redis not available at %s: %v", addr, err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestCacheRoundTrip(t *testing.T) {
	c := NewCache(testClient(t), "test:storefront:", time.Minute)
	ctx := context.Background()
	require.NoError(t, c.DeletePattern(ctx, "*"))

	var out map[string]int
	ok, err := c.Get(ctx, "products:list:a", &out)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "products:list:a", map[string]int{"total": 3}))
	require.NoError(t, c.Set(ctx, "categories:list", map[string]int{"total": 1}))
	ok, err = c.Get(ctx, "products:list:a", &out)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 3, out["total"])

	require.NoError(t, c.DeletePattern(ctx, "products:*"))
	ok, _ = c.Get(ctx, "products:list:a", &out)
	assert.False(t, ok)
	ok, _ = c.Get(ctx, "categories:list", &out)
	assert.True(t, ok)
	require.NoError(t, c.DeletePattern(ctx, "*"))
}

func TestLimiterSlidingWindow(t *testing.T) {
	client := testClient(t)
	ctx := context.Background()
	key := "ip-" + time.Now().Format("150405.000000")
	defer client.Del(ctx, "test:rl:"+key, "test:rl:"+key+":counter")

	l := NewLimiter(client, "test:rl:", 3, time.Minute)
	for i := 0; i < 3; i++ {
		ok, _, err := l.Allow(ctx, key)
		require.NoError(t, err)
		assert.True(t, ok, "request %d", i+1)
	}
	ok, retry, err := l.Allow(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Greater(t, retry, time.Duration(0))
}
