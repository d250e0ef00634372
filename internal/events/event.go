// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"realty_portal_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// AgentContact is the part of an agent a notifier needs.
type AgentContact struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Phone string    `json:"phone"`
}

// LeadSnapshot is the lead as seen by subscribers at publish time.
type LeadSnapshot struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	Phone   string    `json:"phone"`
	Message string    `json:"message"`
	AIReply string    `json:"aiReply,omitempty"`
}

// Expiry reasons carried by LeadExpired.
const (
	ExpiryReasonNoAgents = "no_agents"
	ExpiryReasonManual   = "manual"
)

// =============================================================================
// Leads Domain Events
// =============================================================================

// LeadReceived is published when intake creates a PENDING lead. Agents is
// the roster the lead must be broadcast to.
type LeadReceived struct {
	BaseEvent
	Lead   LeadSnapshot   `json:"lead"`
	Agents []AgentContact `json:"agents"`
}

func (e LeadReceived) EventName() string { return "leads.lead.received" }

// LeadAssumed is published once per lead, when an agent wins the claim.
// OtherAgents are the remaining roster to be told the lead is gone.
type LeadAssumed struct {
	BaseEvent
	Lead        LeadSnapshot   `json:"lead"`
	Agent       AgentContact   `json:"agent"`
	OtherAgents []AgentContact `json:"otherAgents"`
}

func (e LeadAssumed) EventName() string { return "leads.lead.assumed" }

// LeadExpired is published for single-lead expiries: no agents at intake or
// an explicit expire call.
type LeadExpired struct {
	BaseEvent
	Lead   LeadSnapshot `json:"lead"`
	Reason string       `json:"reason"`
}

func (e LeadExpired) EventName() string { return "leads.lead.expired" }

// LeadsExpiredBySweep is published once per sweep that expired at least one lead.
type LeadsExpiredBySweep struct {
	BaseEvent
	Leads      []LeadSnapshot `json:"leads"`
	MaxAgeMins int            `json:"maxAgeMinutes"`
}

func (e LeadsExpiredBySweep) EventName() string { return "leads.sweep.expired" }

// =============================================================================
// Financing Domain Events
// =============================================================================

// FinancingCreated is published after a financing record is persisted.
type FinancingCreated struct {
	BaseEvent
	FinancingID uuid.UUID  `json:"financingId"`
	PropertyID  uuid.UUID  `json:"propertyId"`
	UserID      *uuid.UUID `json:"userId,omitempty"`
	ClientName  string     `json:"clientName,omitempty"`
	ClientPhone string     `json:"clientPhone,omitempty"`
	System      string     `json:"system"`
	Status      string     `json:"status"`
}

func (e FinancingCreated) EventName() string { return "financing.record.created" }
