// Package commissions provides the commission bookkeeping module.
package commissions

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"realty_portal_backend/internal/commissions/handler"
	"realty_portal_backend/internal/commissions/repository"
	"realty_portal_backend/internal/commissions/service"
	apphttp "realty_portal_backend/internal/http"
	"realty_portal_backend/platform/logger"
	"realty_portal_backend/platform/validator"
)

type Module struct {
	handler *handler.Handler
}

func NewModule(pool *pgxpool.Pool, val *validator.Validator, log *logger.Logger) *Module {
	svc := service.New(repository.New(pool), log)
	return &Module{handler: handler.New(svc, val)}
}

func (m *Module) Name() string {
	return "commissions"
}

// RegisterRoutes mounts the admin-only commission routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Admin.Group("/commissions"))
}

var _ apphttp.Module = (*Module)(nil)
