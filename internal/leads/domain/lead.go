package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrLeadNotFound  = errors.New("lead not found")
	ErrAgentNotFound = errors.New("agent not found")
	// ErrStatusConflict means the lead was not in the expected status when
	// the guarded write ran.
	ErrStatusConflict = errors.New("lead status changed concurrently")
)

// Lead is an inbound contact awaiting (or past) assignment.
type Lead struct {
	ID              uuid.UUID
	ContactName     string
	Phone           string
	Message         string
	AIReply         *string
	Status          Status
	AssignedAgentID *uuid.UUID
	CreatedAt       time.Time
	AssumedAt       *time.Time
	ExpiredAt       *time.Time
	UpdatedAt       time.Time
}

// CheckInvariants verifies the timestamp and assignment fields agree with Status.
func (l Lead) CheckInvariants() error {
	assumed := l.Status == StatusAssumed
	if assumed != (l.AssumedAt != nil) || assumed != (l.AssignedAgentID != nil) {
		return errors.New("assumed_at and assigned agent must be set iff status is ASSUMED")
	}
	if (l.Status == StatusExpired) != (l.ExpiredAt != nil) {
		return errors.New("expired_at must be set iff status is EXPIRED")
	}
	return nil
}

// Role is a user role as stored on the users table.
type Role string

const (
	RoleAgent  Role = "AGENT"
	RoleAdmin  Role = "ADMIN"
	RoleClient Role = "CLIENT"
)

// Agent is a read-only snapshot of a user who may take leads.
type Agent struct {
	ID            uuid.UUID
	Name          string
	WhatsAppPhone *string
	Role          Role
	Active        bool
}

// AgentCapable reports whether the role may hold leads.
func (a Agent) AgentCapable() bool {
	return a.Role == RoleAgent || a.Role == RoleAdmin
}

// CanReceiveLeads is true for active, agent-capable agents with a contact channel.
func (a Agent) CanReceiveLeads() bool {
	return a.Active && a.AgentCapable() && a.WhatsAppPhone != nil && strings.TrimSpace(*a.WhatsAppPhone) != ""
}

// EligibleAgents filters a roster down to agents that can receive leads.
func EligibleAgents(agents []Agent) []Agent {
	out := make([]Agent, 0, len(agents))
	for _, a := range agents {
		if a.CanReceiveLeads() {
			out = append(out, a)
		}
	}
	return out
}

// ContainsClaimKeyword reports whether text contains keyword, ignoring case.
func ContainsClaimKeyword(text, keyword string) bool {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return false
	}
	return strings.Contains(strings.ToLower(text), strings.ToLower(keyword))
}

// Stats aggregates leads created in a window for the admin dashboard.
type Stats struct {
	Since   time.Time
	Total   int
	Pending int
	Assumed int
	Expired int
	// AvgSecondsToAssume is nil when no lead in the window was assumed.
	AvgSecondsToAssume *float64
}
