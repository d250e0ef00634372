package service

import (
	"context"
	"log/slog"
	"strings"

	"realty_portal_backend/internal/events"
	"realty_portal_backend/internal/leads/domain"
	"realty_portal_backend/internal/leads/ports"
	"realty_portal_backend/platform/apperr"
	"realty_portal_backend/platform/phone"
	"realty_portal_backend/platform/sanitize"
)

// IntakeInput is an inbound lead as delivered by the messaging webhook.
type IntakeInput struct {
	Name    string
	Phone   string
	Message string
	AIReply *string
}

// IntakeResult carries the created lead and the agents it must be broadcast
// to. Agents is empty exactly when the lead was created EXPIRED.
type IntakeResult struct {
	Lead   domain.Lead
	Agents []domain.Agent
}

// NoAgents reports whether the lead was expired at intake.
func (r IntakeResult) NoAgents() bool { return len(r.Agents) == 0 }

// Intake records a new lead. With no eligible agent the lead is created
// directly as EXPIRED so it never waits for a claim that cannot come.
func (s *Service) Intake(ctx context.Context, in IntakeInput) (IntakeResult, error) {
	name := sanitize.Text(in.Name)
	message := sanitize.Text(in.Message)
	if name == "" || strings.TrimSpace(in.Phone) == "" || message == "" {
		return IntakeResult{}, apperr.Validation("name, phone and message are required")
	}
	digits, err := phone.NormalizeDigits(in.Phone)
	if err != nil {
		return IntakeResult{}, apperr.Validation("phone must contain 10 or 11 digits")
	}

	roster, err := s.agents.ListActiveAgents(ctx)
	if err != nil {
		return IntakeResult{}, s.mapStoreError(ctx, "list active agents", err)
	}
	agents := domain.EligibleAgents(roster)

	aiReply := sanitize.TextPtr(in.AIReply)
	if aiReply == nil {
		aiReply = s.draftReply(ctx, name, message)
	}

	now := s.now().UTC()
	params := ports.CreateLeadParams{
		ContactName: name,
		Phone:       digits,
		Message:     message,
		AIReply:     aiReply,
		Status:      domain.StatusPending,
		CreatedAt:   now,
	}
	if len(agents) == 0 {
		params.Status = domain.StatusExpired
		params.ExpiredAt = &now
	}

	lead, err := s.leads.Create(ctx, params)
	if err != nil {
		return IntakeResult{}, s.mapStoreError(ctx, "create lead", err)
	}

	log := s.log.WithContext(ctx)
	if len(agents) == 0 {
		log.Warn("lead expired at intake, no active agents", slog.String("lead_id", lead.ID.String()))
		s.metrics.RecordIntake("expired_no_agents")
		s.metrics.RecordExpired("no_agents", 1)
		s.eventBus.Publish(ctx, events.LeadExpired{
			BaseEvent: events.NewBaseEvent(now),
			Lead:      snapshot(lead),
			Reason:    events.ExpiryReasonNoAgents,
		})
		return IntakeResult{Lead: lead}, nil
	}

	log.Info("lead received", slog.String("lead_id", lead.ID.String()), slog.Int("agents", len(agents)))
	s.metrics.RecordIntake("pending")
	s.eventBus.Publish(ctx, events.LeadReceived{
		BaseEvent: events.NewBaseEvent(now),
		Lead:      snapshot(lead),
		Agents:    contacts(agents),
	})
	return IntakeResult{Lead: lead, Agents: agents}, nil
}

func (s *Service) draftReply(ctx context.Context, name, message string) *string {
	if s.drafter == nil {
		return nil
	}
	draftCtx, cancel := context.WithTimeout(ctx, s.cfg.DraftTimeout)
	defer cancel()

	reply, err := s.drafter.DraftReply(draftCtx, name, message)
	if err != nil {
		s.log.WithContext(ctx).Warn("reply draft failed", slog.String("error", err.Error()))
		return nil
	}
	return sanitize.TextPtr(&reply)
}
