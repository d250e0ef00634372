// Package service implements commission bookkeeping.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"realty_portal_backend/internal/commissions/domain"
	"realty_portal_backend/internal/commissions/ports"
	"realty_portal_backend/platform/apperr"
	"realty_portal_backend/platform/logger"
)

type Service struct {
	store ports.Store
	log   *logger.Logger
	now   func() time.Time
}

func New(store ports.Store, log *logger.Logger) *Service {
	return &Service{store: store, log: log, now: time.Now}
}

type CreateInput struct {
	PropertyID uuid.UUID
	AgentID    uuid.UUID
	SaleValue  decimal.Decimal
	Percentage decimal.Decimal
}

func (s *Service) Create(ctx context.Context, in CreateInput) (domain.Commission, error) {
	if in.PropertyID == uuid.Nil || in.AgentID == uuid.Nil {
		return domain.Commission{}, apperr.Validation("propertyId and agentId are required")
	}
	value, err := domain.Compute(in.SaleValue, in.Percentage)
	if err != nil {
		return domain.Commission{}, apperr.Validation(err.Error())
	}

	ok, err := s.store.PropertyExists(ctx, in.PropertyID)
	if err != nil {
		return domain.Commission{}, s.mapStoreError(ctx, "check property", err)
	}
	if !ok {
		return domain.Commission{}, apperr.NotFound("property not found")
	}
	ok, err = s.store.AgentExists(ctx, in.AgentID)
	if err != nil {
		return domain.Commission{}, s.mapStoreError(ctx, "check agent", err)
	}
	if !ok {
		return domain.Commission{}, apperr.NotFound("agent not found")
	}

	created, err := s.store.Create(ctx, domain.Commission{
		PropertyID:      in.PropertyID,
		AgentID:         in.AgentID,
		SaleValue:       in.SaleValue.Round(2),
		Percentage:      in.Percentage,
		CommissionValue: value,
		Status:          domain.StatusPending,
	})
	if err != nil {
		return domain.Commission{}, s.mapStoreError(ctx, "create commission", err)
	}
	return created, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (domain.Commission, error) {
	c, err := s.store.GetByID(ctx, id)
	if err != nil {
		return domain.Commission{}, s.mapStoreError(ctx, "get commission", err)
	}
	return c, nil
}

type ListInput struct {
	Status   string
	AgentID  *uuid.UUID
	Page     int
	PageSize int
}

type ListResult struct {
	Items    []domain.Commission
	Total    int
	Page     int
	PageSize int
}

func (s *Service) List(ctx context.Context, in ListInput) (ListResult, error) {
	params := ports.ListParams{AgentID: in.AgentID, Page: max(in.Page, 1), PageSize: in.PageSize}
	if params.PageSize < 1 {
		params.PageSize = 20
	}
	params.PageSize = min(params.PageSize, 100)
	if in.Status != "" {
		st, err := domain.ParseStatus(in.Status)
		if err != nil {
			return ListResult{}, apperr.Validation("invalid status filter")
		}
		params.Status = &st
	}

	items, total, err := s.store.List(ctx, params)
	if err != nil {
		return ListResult{}, s.mapStoreError(ctx, "list commissions", err)
	}
	return ListResult{Items: items, Total: total, Page: params.Page, PageSize: params.PageSize}, nil
}

// UpdateStatus settles a pending commission as PAID or CANCELLED.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (domain.Commission, error) {
	next, err := domain.ParseStatus(status)
	if err != nil || !domain.IsSettlement(next) {
		return domain.Commission{}, apperr.Validation("status must be PAID or CANCELLED")
	}

	var paidAt *time.Time
	if next == domain.StatusPaid {
		now := s.now().UTC()
		paidAt = &now
	}

	updated, err := s.store.Settle(ctx, id, next, paidAt)
	if errors.Is(err, domain.ErrStatusConflict) {
		return domain.Commission{}, apperr.Conflict(fmt.Sprintf("commission is already %s", updated.Status)).
			WithDetails(map[string]string{"status": string(updated.Status)})
	}
	if err != nil {
		return domain.Commission{}, s.mapStoreError(ctx, "settle commission", err)
	}

	s.log.WithContext(ctx).Info("commission settled",
		slog.String("commission_id", id.String()),
		slog.String("status", string(next)),
	)
	return updated, nil
}

func (s *Service) mapStoreError(ctx context.Context, op string, err error) error {
	if errors.Is(err, domain.ErrCommissionNotFound) {
		return apperr.NotFound("commission not found")
	}
	s.log.WithContext(ctx).DatabaseError(op, err)
	return apperr.Wrap(apperr.KindInternal, "failed to "+op, err).WithOp(op)
}
