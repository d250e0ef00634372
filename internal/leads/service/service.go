// Package service implements the lead distribution protocol: intake, claim
// and expiry on top of the guarded transition primitive.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"realty_portal_backend/internal/events"
	"realty_portal_backend/internal/leads/domain"
	"realty_portal_backend/internal/leads/ports"
	"realty_portal_backend/platform/apperr"
	"realty_portal_backend/platform/logger"
	"realty_portal_backend/platform/metrics"
)

const (
	defaultPage     = 1
	defaultPageSize = 20
	maxPageSize     = 100

	defaultStatsDays = 30
	maxStatsDays     = 365
)

// Config holds the protocol's tunables.
type Config struct {
	ClaimKeyword string
	StaleAfter   time.Duration
	DraftTimeout time.Duration
}

// Service is the lead protocol entry point.
type Service struct {
	leads    ports.LeadStore
	agents   ports.AgentDirectory
	drafter  ports.ReplyDrafter
	eventBus events.Bus
	metrics  *metrics.Metrics
	log      *logger.Logger
	cfg      Config
	now      func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

// WithReplyDrafter enables AI reply drafts on intake.
func WithReplyDrafter(d ports.ReplyDrafter) Option {
	return func(s *Service) { s.drafter = d }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func New(leads ports.LeadStore, agents ports.AgentDirectory, eventBus events.Bus, m *metrics.Metrics, log *logger.Logger, cfg Config, opts ...Option) *Service {
	if cfg.ClaimKeyword == "" {
		cfg.ClaimKeyword = "assumir"
	}
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = 15 * time.Minute
	}
	if cfg.DraftTimeout <= 0 {
		cfg.DraftTimeout = 5 * time.Second
	}

	s := &Service{
		leads:    leads,
		agents:   agents,
		eventBus: eventBus,
		metrics:  m,
		log:      log,
		cfg:      cfg,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// StaleAfter is the default sweep window.
func (s *Service) StaleAfter() time.Duration {
	return s.cfg.StaleAfter
}

// Get returns a single lead.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (domain.Lead, error) {
	lead, err := s.leads.GetByID(ctx, id)
	if err != nil {
		return domain.Lead{}, s.mapStoreError(ctx, "get lead", err)
	}
	return lead, nil
}

// ListInput filters the admin listing. Zero values select defaults.
type ListInput struct {
	Status   string
	Page     int
	PageSize int
}

// ListResult is a page of leads.
type ListResult struct {
	Items    []domain.Lead
	Total    int
	Page     int
	PageSize int
}

func (s *Service) List(ctx context.Context, in ListInput) (ListResult, error) {
	params := ports.ListLeadsParams{Page: in.Page, PageSize: in.PageSize}
	if params.Page < 1 {
		params.Page = defaultPage
	}
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

	items, total, err := s.leads.List(ctx, params)
	if err != nil {
		return ListResult{}, s.mapStoreError(ctx, "list leads", err)
	}
	return ListResult{Items: items, Total: total, Page: params.Page, PageSize: params.PageSize}, nil
}

// Stats returns dashboard counts for leads created in the last days days,
// measured from the service clock.
func (s *Service) Stats(ctx context.Context, days int) (domain.Stats, error) {
	if days < 1 {
		days = defaultStatsDays
	}
	if days > maxStatsDays {
		return domain.Stats{}, apperr.Validation("days must be at most 365")
	}
	since := s.now().AddDate(0, 0, -days)
	stats, err := s.leads.Stats(ctx, since)
	if err != nil {
		return domain.Stats{}, s.mapStoreError(ctx, "lead stats", err)
	}
	return stats, nil
}

// mapStoreError turns repository errors into apperr values. Anything
// unrecognised is logged and reported as Internal with a generic message.
func (s *Service) mapStoreError(ctx context.Context, op string, err error) error {
	switch {
	case errors.Is(err, domain.ErrLeadNotFound):
		return apperr.NotFound("lead not found")
	case errors.Is(err, domain.ErrAgentNotFound):
		return apperr.NotFound("agent not found")
	}
	if _, ok := apperr.As(err); ok {
		return err
	}
	s.log.WithContext(ctx).DatabaseError(op, err)
	return apperr.Wrap(apperr.KindInternal, "failed to "+op, err).WithOp(op)
}

func snapshot(l domain.Lead) events.LeadSnapshot {
	snap := events.LeadSnapshot{ID: l.ID, Name: l.ContactName, Phone: l.Phone, Message: l.Message}
	if l.AIReply != nil {
		snap.AIReply = *l.AIReply
	}
	return snap
}

func contacts(agents []domain.Agent) []events.AgentContact {
	out := make([]events.AgentContact, 0, len(agents))
	for _, a := range agents {
		out = append(out, contact(a))
	}
	return out
}

func contact(a domain.Agent) events.AgentContact {
	c := events.AgentContact{ID: a.ID, Name: a.Name}
	if a.WhatsAppPhone != nil {
		c.Phone = *a.WhatsAppPhone
	}
	return c
}
