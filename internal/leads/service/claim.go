package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"realty_portal_backend/internal/events"
	"realty_portal_backend/internal/leads/domain"
	"realty_portal_backend/platform/apperr"
)

// AssumeInput is an agent's claim reply.
type AssumeInput struct {
	LeadID  uuid.UUID
	AgentID uuid.UUID
	Message string
}

// AssumeResult is the winning claim plus the agents to tell the lead is gone.
type AssumeResult struct {
	Lead         domain.Lead
	Agent        domain.Agent
	NotifyAgents []domain.Agent
}

// ConflictDetails is attached to Conflict errors so a losing caller learns
// what happened to the lead.
type ConflictDetails struct {
	Status            domain.Status `json:"status"`
	AssignedAgentID   *uuid.UUID    `json:"assignedAgentId,omitempty"`
	AssignedAgentName string        `json:"assignedAgentName,omitempty"`
}

// Assume lets an agent take exclusive ownership of a PENDING lead. Of any
// number of concurrent calls for the same lead exactly one succeeds; the
// rest receive a Conflict naming the winner.
func (s *Service) Assume(ctx context.Context, in AssumeInput) (AssumeResult, error) {
	if in.LeadID == uuid.Nil || in.AgentID == uuid.Nil {
		return AssumeResult{}, apperr.Validation("leadId and agentId are required")
	}
	if !domain.ContainsClaimKeyword(in.Message, s.cfg.ClaimKeyword) {
		s.metrics.RecordAssume("rejected")
		return AssumeResult{}, apperr.Validation(fmt.Sprintf("message must contain %q to claim the lead", s.cfg.ClaimKeyword))
	}

	agent, err := s.agents.GetAgent(ctx, in.AgentID)
	if err != nil {
		return AssumeResult{}, s.mapStoreError(ctx, "get agent", err)
	}
	if !agent.Active || !agent.AgentCapable() {
		s.metrics.RecordAssume("rejected")
		return AssumeResult{}, apperr.Forbidden("agent is not active")
	}

	now := s.now().UTC()
	lead, err := s.leads.TryTransition(ctx, in.LeadID, domain.StatusPending, domain.StatusAssumed, func(l *domain.Lead) {
		l.AssignedAgentID = &agent.ID
		l.AssumedAt = &now
	})
	if errors.Is(err, domain.ErrStatusConflict) {
		s.metrics.RecordAssume("conflict")
		return AssumeResult{}, s.claimConflict(ctx, lead)
	}
	if err != nil {
		return AssumeResult{}, s.mapStoreError(ctx, "assume lead", err)
	}

	s.log.WithContext(ctx).LeadTransition(lead.ID.String(), string(domain.StatusPending), string(domain.StatusAssumed), agent.ID.String(), "")
	s.metrics.RecordAssume("assumed")

	others := s.otherAgents(ctx, agent.ID)
	s.eventBus.Publish(ctx, events.LeadAssumed{
		BaseEvent:   events.NewBaseEvent(now),
		Lead:        snapshot(lead),
		Agent:       contact(agent),
		OtherAgents: contacts(others),
	})

	return AssumeResult{Lead: lead, Agent: agent, NotifyAgents: others}, nil
}

// claimConflict builds the Conflict returned to a losing claimant.
func (s *Service) claimConflict(ctx context.Context, current domain.Lead) error {
	details := ConflictDetails{Status: current.Status, AssignedAgentID: current.AssignedAgentID}
	msg := fmt.Sprintf("lead is no longer available (status %s)", current.Status)

	if current.Status == domain.StatusAssumed && current.AssignedAgentID != nil {
		msg = "lead already assumed by another agent"
		if winner, err := s.agents.GetAgent(ctx, *current.AssignedAgentID); err == nil {
			details.AssignedAgentName = winner.Name
			msg = fmt.Sprintf("lead already assumed by %s", winner.Name)
		}
	}
	return apperr.Conflict(msg).WithDetails(details)
}

// otherAgents is the roster minus the winner. A roster failure only costs
// the courtesy notification, so it is logged and ignored.
func (s *Service) otherAgents(ctx context.Context, winner uuid.UUID) []domain.Agent {
	roster, err := s.agents.ListActiveAgents(ctx)
	if err != nil {
		s.log.WithContext(ctx).Warn("roster unavailable for claim notification", slog.String("error", err.Error()))
		return []domain.Agent{}
	}
	others := make([]domain.Agent, 0, len(roster))
	for _, a := range domain.EligibleAgents(roster) {
		if a.ID != winner {
			others = append(others, a)
		}
	}
	return others
}
