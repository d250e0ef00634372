// Package transport holds the JSON request and response shapes of the
// leads HTTP API. Webhook payload keys follow the messaging provider's
// Portuguese field names.
package transport

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"realty_portal_backend/internal/leads/domain"
)

// IntakeRequest is the inbound lead posted by the messaging webhook.
type IntakeRequest struct {
	Nome       string  `json:"nome" validate:"required,max=200"`
	Telefone   string  `json:"telefone" validate:"required,br_phone"`
	Mensagem   string  `json:"mensagem" validate:"required,max=4000"`
	RespostaIA *string `json:"respostaIA,omitempty" validate:"omitempty,max=4000"`
}

// AssumeRequest is an agent's claim reply relayed by the messaging webhook.
type AssumeRequest struct {
	LeadID  uuid.UUID `json:"leadId" validate:"required"`
	AgentID uuid.UUID `json:"agentId" validate:"required"`
	Message string    `json:"message" validate:"required,max=1000"`
}

// ExpireRequest expires a single lead.
type ExpireRequest struct {
	LeadID uuid.UUID `json:"leadId" validate:"required"`
	Reason string    `json:"reason,omitempty" validate:"max=500"`
}

// MaxSweepMinutes caps the ?maxAge window of the sweep endpoint (one week).
const MaxSweepMinutes = 10080

// SweepQuery is the query string of the sweep endpoint. MaxAge is minutes.
type SweepQuery struct {
	MaxAge string `form:"maxAge"`
}

// Window returns the requested sweep window. Absent, malformed or out of
// range values yield zero, which selects the configured window.
func (q SweepQuery) Window() time.Duration {
	minutes, err := strconv.Atoi(strings.TrimSpace(q.MaxAge))
	if err != nil || minutes < 1 || minutes > MaxSweepMinutes {
		return 0
	}
	return time.Duration(minutes) * time.Minute
}

// ListQuery filters the admin listing.
type ListQuery struct {
	Status   string `form:"status" validate:"omitempty,oneof=PENDING ASSUMED EXPIRED REJECTED"`
	Page     int    `form:"page" validate:"omitempty,min=1"`
	PageSize int    `form:"pageSize" validate:"omitempty,min=1,max=100"`
}

type StatsQuery struct {
	Days int `form:"days" validate:"omitempty,min=1,max=365"`
}

type LeadResponse struct {
	ID              uuid.UUID  `json:"id"`
	Name            string     `json:"name"`
	Phone           string     `json:"phone"`
	Message         string     `json:"message"`
	AIReply         *string    `json:"aiReply,omitempty"`
	Status          string     `json:"status"`
	AssignedAgentID *uuid.UUID `json:"assignedAgentId,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	AssumedAt       *time.Time `json:"assumedAt,omitempty"`
	ExpiredAt       *time.Time `json:"expiredAt,omitempty"`
}

type AgentResponse struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Phone string    `json:"phone,omitempty"`
}

type IntakeResponse struct {
	Success bool            `json:"success"`
	LeadID  uuid.UUID       `json:"leadId"`
	Message string          `json:"message,omitempty"`
	Lead    *LeadResponse   `json:"lead,omitempty"`
	Agents  []AgentResponse `json:"agents,omitempty"`
}

type AssumeResponse struct {
	Success      bool            `json:"success"`
	Message      string          `json:"message"`
	Lead         LeadResponse    `json:"lead"`
	Agent        AgentResponse   `json:"agent"`
	NotifyAgents []AgentResponse `json:"notifyAgents"`
}

type ExpireResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Lead    LeadResponse `json:"lead"`
	Reason  string       `json:"reason"`
}

type SweepResponse struct {
	Success       bool           `json:"success"`
	Message       string         `json:"message"`
	Expired       int            `json:"expired"`
	MaxAgeMinutes int            `json:"maxAgeMinutes"`
	Leads         []LeadResponse `json:"leads"`
}

type ListResponse struct {
	Items    []LeadResponse `json:"items"`
	Total    int            `json:"total"`
	Page     int            `json:"page"`
	PageSize int            `json:"pageSize"`
}

type StatsResponse struct {
	Since              time.Time `json:"since"`
	Total              int       `json:"total"`
	Pending            int       `json:"pending"`
	Assumed            int       `json:"assumed"`
	Expired            int       `json:"expired"`
	AvgSecondsToAssume *float64  `json:"avgSecondsToAssume"`
}

func ToStatsResponse(s domain.Stats) StatsResponse {
	return StatsResponse{
		Since:              s.Since,
		Total:              s.Total,
		Pending:            s.Pending,
		Assumed:            s.Assumed,
		Expired:            s.Expired,
		AvgSecondsToAssume: s.AvgSecondsToAssume,
	}
}

func ToLeadResponse(l domain.Lead) LeadResponse {
	return LeadResponse{
		ID:              l.ID,
		Name:            l.ContactName,
		Phone:           l.Phone,
		Message:         l.Message,
		AIReply:         l.AIReply,
		Status:          string(l.Status),
		AssignedAgentID: l.AssignedAgentID,
		CreatedAt:       l.CreatedAt,
		AssumedAt:       l.AssumedAt,
		ExpiredAt:       l.ExpiredAt,
	}
}

func ToLeadResponses(leads []domain.Lead) []LeadResponse {
	out := make([]LeadResponse, 0, len(leads))
	for _, l := range leads {
		out = append(out, ToLeadResponse(l))
	}
	return out
}

func ToAgentResponse(a domain.Agent) AgentResponse {
	r := AgentResponse{ID: a.ID, Name: a.Name}
	if a.WhatsAppPhone != nil {
		r.Phone = *a.WhatsAppPhone
	}
	return r
}

func ToAgentResponses(agents []domain.Agent) []AgentResponse {
	out := make([]AgentResponse, 0, len(agents))
	for _, a := range agents {
		out = append(out, ToAgentResponse(a))
	}
	return out
}
