// Package ports defines the interfaces the lead protocol needs from
// persistence, the agent directory and the optional reply drafter.
package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"realty_portal_backend/internal/leads/domain"
)

// Mutator adjusts a lead inside a guarded transition. It must not change
// ID or Status; TryTransition owns those.
type Mutator func(lead *domain.Lead)

// CreateLeadParams holds the fields intake persists.
type CreateLeadParams struct {
	ContactName string
	Phone       string
	Message     string
	AIReply     *string
	Status      domain.Status
	CreatedAt   time.Time
	ExpiredAt   *time.Time
}

// ListLeadsParams filters and paginates the admin lead listing.
type ListLeadsParams struct {
	Status   *domain.Status
	Page     int
	PageSize int
}

// LeadStore is the lead persistence the protocol relies on.
type LeadStore interface {
	Create(ctx context.Context, params CreateLeadParams) (domain.Lead, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.Lead, error)
	List(ctx context.Context, params ListLeadsParams) ([]domain.Lead, int, error)

	// TryTransition is the single guarded write. It re-reads the lead inside
	// one atomic unit, and only when its status still equals expected applies
	// mutate, sets next and commits. Otherwise it returns the current lead
	// with domain.ErrStatusConflict. Unknown ids yield domain.ErrLeadNotFound.
	TryTransition(ctx context.Context, id uuid.UUID, expected, next domain.Status, mutate Mutator) (domain.Lead, error)

	// ExpireStale moves every PENDING lead created before cutoff to EXPIRED
	// with expired_at = now in one statement and returns the affected leads.
	ExpireStale(ctx context.Context, cutoff, now time.Time) ([]domain.Lead, error)

	// Stats counts leads created at or after since.
	Stats(ctx context.Context, since time.Time) (domain.Stats, error)
}

// AgentDirectory reads agent snapshots. Implementations may cache
// ListActiveAgents; GetAgent must always reflect the store.
type AgentDirectory interface {
	ListActiveAgents(ctx context.Context) ([]domain.Agent, error)
	GetAgent(ctx context.Context, id uuid.UUID) (domain.Agent, error)
}

// ReplyDrafter drafts a first reply to a lead's message. Failures are
// tolerated by callers.
type ReplyDrafter interface {
	DraftReply(ctx context.Context, contactName, message string) (string, error)
}
