// Package financing provides the financing bounded context module:
// amortization simulation and the financing record lifecycle.
package financing

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"realty_portal_backend/internal/events"
	"realty_portal_backend/internal/financing/handler"
	"realty_portal_backend/internal/financing/ports"
	"realty_portal_backend/internal/financing/repository"
	"realty_portal_backend/internal/financing/service"
	apphttp "realty_portal_backend/internal/http"
	"realty_portal_backend/platform/logger"
	"realty_portal_backend/platform/metrics"
	"realty_portal_backend/platform/validator"
)

// Module is the financing bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the financing module with all its dependencies.
func NewModule(pool *pgxpool.Pool, eventBus events.Bus, m *metrics.Metrics, val *validator.Validator, log *logger.Logger) *Module {
	return newModule(repository.New(pool), eventBus, m, val, log)
}

func newModule(store ports.Store, eventBus events.Bus, m *metrics.Metrics, val *validator.Validator, log *logger.Logger) *Module {
	svc := service.New(store, eventBus, m, log)
	return &Module{handler: handler.New(svc, val), service: svc}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "financing"
}

// Service exposes the financing service to other modules.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts financing routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterPublicRoutes(ctx.V1.Group("/financing"), ctx.OptionalAuth)
	m.handler.RegisterAdminRoutes(ctx.Admin.Group("/financing"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
