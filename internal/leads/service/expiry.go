package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"realty_portal_backend/internal/events"
	"realty_portal_backend/internal/leads/domain"
	"realty_portal_backend/platform/apperr"
	"realty_portal_backend/platform/sanitize"
)

const systemActor = "system"

// ExpireResult is a single manual expiry.
type ExpireResult struct {
	Lead   domain.Lead
	Reason string
}

// Expire moves one PENDING lead to EXPIRED. reason is only logged and
// forwarded to subscribers.
func (s *Service) Expire(ctx context.Context, leadID uuid.UUID, reason string) (ExpireResult, error) {
	if leadID == uuid.Nil {
		return ExpireResult{}, apperr.Validation("leadId is required")
	}
	reason = sanitize.Text(reason)
	if reason == "" {
		reason = events.ExpiryReasonManual
	}

	now := s.now().UTC()
	lead, err := s.leads.TryTransition(ctx, leadID, domain.StatusPending, domain.StatusExpired, func(l *domain.Lead) {
		l.ExpiredAt = &now
	})
	if errors.Is(err, domain.ErrStatusConflict) {
		return ExpireResult{}, apperr.Conflict(fmt.Sprintf("lead is not pending (status %s)", lead.Status)).
			WithDetails(ConflictDetails{Status: lead.Status, AssignedAgentID: lead.AssignedAgentID})
	}
	if err != nil {
		return ExpireResult{}, s.mapStoreError(ctx, "expire lead", err)
	}

	s.log.WithContext(ctx).LeadTransition(lead.ID.String(), string(domain.StatusPending), string(domain.StatusExpired), systemActor, reason)
	s.metrics.RecordExpired("manual", 1)
	s.eventBus.Publish(ctx, events.LeadExpired{
		BaseEvent: events.NewBaseEvent(now),
		Lead:      snapshot(lead),
		Reason:    reason,
	})
	return ExpireResult{Lead: lead, Reason: reason}, nil
}

// SweepResult lists the leads a sweep expired.
type SweepResult struct {
	Expired []domain.Lead
	MaxAge  time.Duration
}

// ExpireStale expires every PENDING lead older than maxAge at now. A
// non-positive maxAge selects the configured window. Repeating the call
// without new stale leads expires nothing.
func (s *Service) ExpireStale(ctx context.Context, maxAge time.Duration, now time.Time) (SweepResult, error) {
	if maxAge <= 0 {
		maxAge = s.cfg.StaleAfter
	}
	if now.IsZero() {
		now = s.now()
	}
	now = now.UTC()

	expired, err := s.leads.ExpireStale(ctx, now.Add(-maxAge), now)
	if err != nil {
		return SweepResult{}, s.mapStoreError(ctx, "expire stale leads", err)
	}

	result := SweepResult{Expired: expired, MaxAge: maxAge}
	if len(expired) == 0 {
		return result, nil
	}

	log := s.log.WithContext(ctx)
	ids := make([]string, 0, len(expired))
	snaps := make([]events.LeadSnapshot, 0, len(expired))
	for _, l := range expired {
		ids = append(ids, l.ID.String())
		snaps = append(snaps, snapshot(l))
	}
	log.Info("stale leads expired",
		slog.Int("count", len(expired)),
		slog.Duration("max_age", maxAge),
		slog.String("lead_ids", strings.Join(ids, ",")),
	)
	s.metrics.RecordExpired("sweep", len(expired))
	s.eventBus.Publish(ctx, events.LeadsExpiredBySweep{
		BaseEvent:  events.NewBaseEvent(now),
		Leads:      snaps,
		MaxAgeMins: int(maxAge / time.Minute),
	})
	return result, nil
}
