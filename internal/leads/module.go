// Package leads provides the lead distribution bounded context module.
// This file defines the module that encapsulates all leads setup and route registration.
package leads

import (
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"realty_portal_backend/internal/events"
	apphttp "realty_portal_backend/internal/http"
	"realty_portal_backend/internal/leads/handler"
	"realty_portal_backend/internal/leads/ports"
	"realty_portal_backend/internal/leads/repository"
	"realty_portal_backend/internal/leads/roster"
	"realty_portal_backend/internal/leads/service"
	"realty_portal_backend/platform/config"
	"realty_portal_backend/platform/httpkit"
	"realty_portal_backend/platform/logger"
	"realty_portal_backend/platform/metrics"
	"realty_portal_backend/platform/validator"
)

const webhookSecretHeader = "X-Webhook-Secret"

// Module is the leads bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	cfg     config.LeadsConfig
}

// Deps groups the collaborators NewModule wires together. Redis and Drafter
// are optional.
type Deps struct {
	Pool         *pgxpool.Pool
	Redis        redis.Cmdable
	Drafter      ports.ReplyDrafter
	EventBus     events.Bus
	Metrics      *metrics.Metrics
	Logger       *logger.Logger
	Validator    *validator.Validator
	Config       config.LeadsConfig
	DraftTimeout time.Duration
}

// NewModule creates and initializes the leads module with all its dependencies.
func NewModule(d Deps) *Module {
	repo := repository.New(d.Pool)
	return newModule(repo, repo, d)
}

func newModule(store ports.LeadStore, directory ports.AgentDirectory, d Deps) *Module {
	agents := directory
	if d.Redis != nil {
		agents = roster.New(directory, d.Redis, d.Config.GetRosterCacheTTL(), d.Metrics, d.Logger)
	}

	var opts []service.Option
	if d.Drafter != nil {
		opts = append(opts, service.WithReplyDrafter(d.Drafter))
	}

	svc := service.New(store, agents, d.EventBus, d.Metrics, d.Logger, service.Config{
		ClaimKeyword: d.Config.GetLeadClaimKeyword(),
		StaleAfter:   d.Config.GetLeadStaleAfter(),
		DraftTimeout: d.DraftTimeout,
	}, opts...)

	return &Module{
		handler: handler.New(svc, d.Validator),
		service: svc,
		cfg:     d.Config,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "leads"
}

// Service exposes the protocol service to the composition root.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts leads routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	webhook := ctx.V1.Group("/leads")
	webhook.Use(ctx.WebhookRateLimiter.RateLimit(), httpkit.RequireSharedSecret(webhookSecretHeader, m.cfg.GetLeadWebhookSecret()))
	m.handler.RegisterWebhookRoutes(webhook)

	cron := ctx.V1.Group("/leads")
	cron.Use(httpkit.RequireSharedSecret("", m.cfg.GetCronSecret()))
	m.handler.RegisterCronRoutes(cron)

	m.handler.RegisterAdminRoutes(ctx.Admin.Group("/leads"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
