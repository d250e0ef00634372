package roster

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"realty_portal_backend/internal/leads/domain"
	"realty_portal_backend/internal/leads/leadstest"
	"realty_portal_backend/platform/logger"
	"realty_portal_backend/platform/metrics"
)

type countingDirectory struct {
	*leadstest.Store
	listCalls atomic.Int32
}

func (d *countingDirectory) ListActiveAgents(ctx context.Context) ([]domain.Agent, error) {
	d.listCalls.Add(1)
	return d.Store.ListActiveAgents(ctx)
}

func setupCache(t *testing.T) (*Cache, *countingDirectory, *miniredis.Miniredis, *metrics.Metrics) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	dir := &countingDirectory{Store: leadstest.NewStore()}
	m := metrics.NewNop()
	return New(dir, rdb, 30*time.Second, m, logger.Nop()), dir, mr, m
}

func TestRosterCacheServesFromRedisUntilTTL(t *testing.T) {
	cache, dir, mr, m := setupCache(t)
	ctx := context.Background()
	bruno := dir.AddAgent("Bruno", "11900000001", true)

	first, err := cache.ListActiveAgents(ctx)
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, bruno.ID, first[0].ID)
	assert.True(t, mr.Exists(cacheKey))

	dir.AddAgent("Carla", "11900000002", true)
	second, err := cache.ListActiveAgents(ctx)
	require.NoError(t, err)
	assert.Len(t, second, 1, "cached roster should be served")
	assert.Equal(t, int32(1), dir.listCalls.Load())
	assert.Equal(t, float64(1), testutil.ToFloat64(m.CacheHits.WithLabelValues(cacheName)))

	mr.FastForward(31 * time.Second)
	third, err := cache.ListActiveAgents(ctx)
	require.NoError(t, err)
	assert.Len(t, third, 2)
	assert.Equal(t, int32(2), dir.listCalls.Load())
}

func TestRosterCacheInvalidate(t *testing.T) {
	cache, dir, _, _ := setupCache(t)
	ctx := context.Background()
	dir.AddAgent("Bruno", "11900000001", true)

	_, err := cache.ListActiveAgents(ctx)
	require.NoError(t, err)
	require.NoError(t, cache.invalidate(ctx))

	_, err = cache.ListActiveAgents(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(2), dir.listCalls.Load())
}

func TestRosterCacheFallsBackWhenRedisDown(t *testing.T) {
	cache, dir, mr, _ := setupCache(t)
	dir.AddAgent("Bruno", "11900000001", true)
	mr.Close()

	agents, err := cache.ListActiveAgents(context.Background())
	require.NoError(t, err)
	assert.Len(t, agents, 1)
}

func TestGetAgentBypassesCache(t *testing.T) {
	cache, dir, _, _ := setupCache(t)
	ctx := context.Background()
	bruno := dir.AddAgent("Bruno", "11900000001", true)
	_, err := cache.ListActiveAgents(ctx)
	require.NoError(t, err)

	dir.SetAgentActive(bruno.ID, false)
	got, err := cache.GetAgent(ctx, bruno.ID)
	require.NoError(t, err)
	assert.False(t, got.Active, "GetAgent must reflect the store, not the cached roster")

	_, err = cache.GetAgent(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrAgentNotFound)
}
