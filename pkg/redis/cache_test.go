package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeffhong58/ai-stock-selector/pkg/config"
)

func TestDisabledCacheMissesEverything(t *testing.T) {
	cfg := &config.Config{}
	cfg.Redis.Enabled = false

	client, err := New(cfg)
	require.NoError(t, err)
	cache := NewCache(client, "selector")

	ctx := context.Background()
	require.NoError(t, cache.Set(ctx, "recommendations:2024-03-15", []string{"2330"}, time.Hour))

	var dest []string
	hit, err := cache.Get(ctx, "recommendations:2024-03-15", &dest)
	require.NoError(t, err)
	assert.False(t, hit, "disabled cache never hits")
	assert.Empty(t, dest)

	assert.NoError(t, cache.Delete(ctx, "recommendations:2024-03-15"))
	assert.NoError(t, client.Close())
}

func TestCacheKeyNamespacing(t *testing.T) {
	cache := NewCache(&Client{}, "selector")
	assert.Equal(t, "selector:cache:runs:2024-03-15", cache.key("runs:2024-03-15"))
}
