// Package roster caches the active agent roster in Redis for a short TTL.
// The cache only serves fan-out lists; the assuming agent is always read
// from the underlying directory and the claim itself never consults it.
package roster

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"realty_portal_backend/internal/leads/domain"
	"realty_portal_backend/internal/leads/ports"
	"realty_portal_backend/platform/logger"
	"realty_portal_backend/platform/metrics"
)

const (
	cacheKey  = "leads:roster:active_agents"
	cacheName = "agent_roster"
)

type cachedAgent struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Phone *string   `json:"phone,omitempty"`
	Role  string    `json:"role"`
}

// Cache is a read-through ports.AgentDirectory decorator.
type Cache struct {
	next    ports.AgentDirectory
	rdb     redis.Cmdable
	ttl     time.Duration
	group   singleflight.Group
	metrics *metrics.Metrics
	log     *logger.Logger
}

var _ ports.AgentDirectory = (*Cache)(nil)

func New(next ports.AgentDirectory, rdb redis.Cmdable, ttl time.Duration, m *metrics.Metrics, log *logger.Logger) *Cache {
	return &Cache{next: next, rdb: rdb, ttl: ttl, metrics: m, log: log}
}

// ListActiveAgents serves the roster from Redis when fresh. Redis failures
// degrade to a direct read.
func (c *Cache) ListActiveAgents(ctx context.Context) ([]domain.Agent, error) {
	if agents, ok := c.read(ctx); ok {
		c.metrics.RecordCache(cacheName, true)
		return agents, nil
	}
	c.metrics.RecordCache(cacheName, false)

	v, err, _ := c.group.Do(cacheKey, func() (any, error) {
		agents, err := c.next.ListActiveAgents(ctx)
		if err != nil {
			return nil, err
		}
		c.write(ctx, agents)
		return agents, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.Agent), nil
}

// GetAgent always reads through.
func (c *Cache) GetAgent(ctx context.Context, id uuid.UUID) (domain.Agent, error) {
	return c.next.GetAgent(ctx, id)
}

// invalidate drops the cached roster. Nothing in this service mutates agents,
// so the TTL is the only staleness path in production.
func (c *Cache) invalidate(ctx context.Context) error {
	return c.rdb.Del(ctx, cacheKey).Err()
}

func (c *Cache) read(ctx context.Context) ([]domain.Agent, bool) {
	raw, err := c.rdb.Get(ctx, cacheKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		c.log.WithContext(ctx).Warn("roster cache read failed", slog.String("error", err.Error()))
		return nil, false
	}

	var cached []cachedAgent
	if err := json.Unmarshal(raw, &cached); err != nil {
		c.log.WithContext(ctx).Warn("roster cache entry corrupt", slog.String("error", err.Error()))
		return nil, false
	}

	agents := make([]domain.Agent, 0, len(cached))
	for _, a := range cached {
		agents = append(agents, domain.Agent{ID: a.ID, Name: a.Name, WhatsAppPhone: a.Phone, Role: domain.Role(a.Role), Active: true})
	}
	return agents, true
}

func (c *Cache) write(ctx context.Context, agents []domain.Agent) {
	cached := make([]cachedAgent, 0, len(agents))
	for _, a := range agents {
		if !a.Active {
			continue
		}
		cached = append(cached, cachedAgent{ID: a.ID, Name: a.Name, Phone: a.WhatsAppPhone, Role: string(a.Role)})
	}
	raw, err := json.Marshal(cached)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, cacheKey, raw, c.ttl).Err(); err != nil {
		c.log.WithContext(ctx).Warn("roster cache write failed", slog.String("error", err.Error()))
	}
}
