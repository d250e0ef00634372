// Package service implements financing simulation and the financing record
// lifecycle.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"realty_portal_backend/internal/events"
	"realty_portal_backend/internal/financing/domain"
	"realty_portal_backend/internal/financing/ports"
	"realty_portal_backend/platform/apperr"
	"realty_portal_backend/platform/logger"
	"realty_portal_backend/platform/metrics"
	"realty_portal_backend/platform/phone"
	"realty_portal_backend/platform/requester"
	"realty_portal_backend/platform/sanitize"
)

const (
	defaultPage     = 1
	defaultPageSize = 20
	maxPageSize     = 100
)

type Service struct {
	store    ports.Store
	eventBus events.Bus
	metrics  *metrics.Metrics
	log      *logger.Logger
}

func New(store ports.Store, eventBus events.Bus, m *metrics.Metrics, log *logger.Logger) *Service {
	return &Service{store: store, eventBus: eventBus, metrics: m, log: log}
}

// SimulateInput are the loan terms. InterestRate is an annual percentage.
type SimulateInput struct {
	PropertyValue decimal.Decimal
	DownPayment   decimal.Decimal
	InterestRate  decimal.Decimal
	TermMonths    int
	System        string
}

// Simulation echoes the terms next to the computed schedule.
type Simulation struct {
	PropertyValue  decimal.Decimal
	DownPayment    decimal.Decimal
	FinancedAmount decimal.Decimal
	InterestRate   decimal.Decimal
	TermMonths     int
	System         domain.System
	Schedule       domain.Schedule
}

// Simulate computes a schedule without touching storage.
func (s *Service) Simulate(in SimulateInput) (Simulation, error) {
	sim, err := simulate(in)
	if err != nil {
		return Simulation{}, err
	}
	s.metrics.RecordSimulation(string(sim.System), false)
	return sim, nil
}

func simulate(in SimulateInput) (Simulation, error) {
	system, err := domain.ParseSystem(in.System)
	if err != nil {
		return Simulation{}, apperr.Validation("type must be SAC or PRICE")
	}
	if in.PropertyValue.IsNegative() || in.DownPayment.IsNegative() {
		return Simulation{}, apperr.Validation("property value and down payment must not be negative")
	}

	financed := in.PropertyValue.Sub(in.DownPayment).Round(2)
	schedule, err := domain.Amortize(system, financed, in.InterestRate, in.TermMonths)
	switch {
	case errors.Is(err, domain.ErrNonPositivePrincipal):
		return Simulation{}, apperr.Validation("down payment must be lower than the property value")
	case err != nil:
		return Simulation{}, apperr.Validation(err.Error())
	}

	return Simulation{
		PropertyValue:  in.PropertyValue.Round(2),
		DownPayment:    in.DownPayment.Round(2),
		FinancedAmount: financed,
		InterestRate:   in.InterestRate,
		TermMonths:     in.TermMonths,
		System:         system,
		Schedule:       schedule,
	}, nil
}

// CreateInput persists a simulation. Status defaults to SIMULATING.
type CreateInput struct {
	SimulateInput
	PropertyID uuid.UUID
	Status     string
	Requester  requester.Requester
}

// CreateResult is the stored record plus the schedule it was computed from.
type CreateResult struct {
	Financing domain.Financing
	Schedule  domain.Schedule
}

func (s *Service) Create(ctx context.Context, in CreateInput) (CreateResult, error) {
	if in.PropertyID == uuid.Nil {
		return CreateResult{}, apperr.Validation("propertyId is required")
	}
	status := domain.StatusSimulating
	if in.Status != "" {
		st, err := domain.ParseStatus(in.Status)
		if err != nil || !domain.IsInitial(st) {
			return CreateResult{}, apperr.Validation("status must be SIMULATING or PENDING")
		}
		status = st
	}
	link, err := requesterLink(in.Requester)
	if err != nil {
		return CreateResult{}, err
	}

	sim, err := simulate(in.SimulateInput)
	if err != nil {
		return CreateResult{}, err
	}

	exists, err := s.store.PropertyExists(ctx, in.PropertyID)
	if err != nil {
		return CreateResult{}, s.mapStoreError(ctx, "check property", err)
	}
	if !exists {
		return CreateResult{}, apperr.NotFound("property not found")
	}

	created, err := s.store.Create(ctx, domain.Financing{
		PropertyID:     in.PropertyID,
		Requester:      link,
		PropertyValue:  sim.PropertyValue,
		DownPayment:    sim.DownPayment,
		FinancedAmount: sim.FinancedAmount,
		InterestRate:   sim.InterestRate,
		TermMonths:     sim.TermMonths,
		System:         sim.System,
		MonthlyPayment: sim.Schedule.MonthlyPayment,
		TotalAmount:    sim.Schedule.TotalAmount,
		TotalInterest:  sim.Schedule.TotalInterest,
		Status:         status,
	})
	if err != nil {
		return CreateResult{}, s.mapStoreError(ctx, "create financing", err)
	}

	s.metrics.RecordSimulation(string(sim.System), true)
	s.metrics.FinancingCreated.Inc()
	s.log.WithContext(ctx).Info("financing created",
		slog.String("financing_id", created.ID.String()),
		slog.String("requester", requester.Label(in.Requester)),
		slog.String("system", string(created.System)),
	)
	s.eventBus.Publish(ctx, financingCreatedEvent(created))

	return CreateResult{Financing: created, Schedule: sim.Schedule}, nil
}

// requesterLink maps the caller onto the record's owner columns.
func requesterLink(r requester.Requester) (domain.Requester, error) {
	switch v := r.(type) {
	case requester.LoggedAgent:
		id := v.UserID
		return domain.Requester{UserID: &id}, nil
	case requester.AnonymousClient:
		if !v.Complete() {
			return domain.Requester{}, apperr.Validation("client name and phone are required")
		}
		digits, err := phone.NormalizeDigits(v.Phone)
		if err != nil {
			return domain.Requester{}, apperr.Validation("client phone must contain 10 or 11 digits")
		}
		name := sanitize.Text(v.Name)
		return domain.Requester{
			ClientName:  &name,
			ClientPhone: &digits,
			ClientEmail: sanitize.TextPtr(&v.Email),
		}, nil
	}
	return domain.Requester{}, apperr.Validation("a client or a logged-in user is required")
}

func financingCreatedEvent(f domain.Financing) events.FinancingCreated {
	e := events.FinancingCreated{
		BaseEvent:   events.NewBaseEvent(f.CreatedAt),
		FinancingID: f.ID,
		PropertyID:  f.PropertyID,
		UserID:      f.Requester.UserID,
		System:      string(f.System),
		Status:      string(f.Status),
	}
	if f.Requester.ClientName != nil {
		e.ClientName = *f.Requester.ClientName
	}
	if f.Requester.ClientPhone != nil {
		e.ClientPhone = *f.Requester.ClientPhone
	}
	return e
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (domain.Financing, error) {
	f, err := s.store.GetByID(ctx, id)
	if err != nil {
		return domain.Financing{}, s.mapStoreError(ctx, "get financing", err)
	}
	return f, nil
}

type ListInput struct {
	Status   string
	Page     int
	PageSize int
}

type ListResult struct {
	Items    []domain.Financing
	Total    int
	Page     int
	PageSize int
}

func (s *Service) List(ctx context.Context, in ListInput) (ListResult, error) {
	params := ports.ListParams{Page: max(in.Page, defaultPage), PageSize: in.PageSize}
	if params.PageSize < 1 {
		params.PageSize = defaultPageSize
	}
	params.PageSize = min(params.PageSize, maxPageSize)
	if in.Status != "" {
		st, err := domain.ParseStatus(in.Status)
		if err != nil {
			return ListResult{}, apperr.Validation("invalid status filter")
		}
		params.Status = &st
	}

	items, total, err := s.store.List(ctx, params)
	if err != nil {
		return ListResult{}, s.mapStoreError(ctx, "list financings", err)
	}
	return ListResult{Items: items, Total: total, Page: params.Page, PageSize: params.PageSize}, nil
}

// StatusConflict is returned as error details when a transition is refused.
type StatusConflict struct {
	Status    domain.Status `json:"status"`
	Requested domain.Status `json:"requested"`
}

// UpdateStatus applies an admin transition with a guarded write.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (domain.Financing, error) {
	next, err := domain.ParseStatus(status)
	if err != nil {
		return domain.Financing{}, apperr.Validation("invalid status")
	}
	from := domain.Predecessors(next)
	if len(from) == 0 {
		return domain.Financing{}, apperr.Validation(fmt.Sprintf("no transition leads to %s", next))
	}

	updated, err := s.store.UpdateStatus(ctx, id, from, next)
	if errors.Is(err, domain.ErrStatusConflict) {
		return domain.Financing{}, apperr.Conflict(fmt.Sprintf("financing cannot move from %s to %s", updated.Status, next)).
			WithDetails(StatusConflict{Status: updated.Status, Requested: next})
	}
	if err != nil {
		return domain.Financing{}, s.mapStoreError(ctx, "update financing status", err)
	}

	s.log.WithContext(ctx).Info("financing status changed",
		slog.String("financing_id", id.String()),
		slog.String("status", string(next)),
	)
	return updated, nil
}

func (s *Service) mapStoreError(ctx context.Context, op string, err error) error {
	switch {
	case errors.Is(err, domain.ErrFinancingNotFound):
		return apperr.NotFound("financing not found")
	case errors.Is(err, domain.ErrPropertyNotFound):
		return apperr.NotFound("property not found")
	}
	s.log.WithContext(ctx).DatabaseError(op, err)
	return apperr.Wrap(apperr.KindInternal, "failed to "+op, err).WithOp(op)
}
