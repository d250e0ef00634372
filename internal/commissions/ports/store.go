// Package ports defines the persistence boundary of the commissions context.
package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"realty_portal_backend/internal/commissions/domain"
)

type ListParams struct {
	Status   *domain.Status
	AgentID  *uuid.UUID
	Page     int
	PageSize int
}

type Store interface {
	PropertyExists(ctx context.Context, id uuid.UUID) (bool, error)
	AgentExists(ctx context.Context, id uuid.UUID) (bool, error)
	Create(ctx context.Context, c domain.Commission) (domain.Commission, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.Commission, error)
	List(ctx context.Context, params ListParams) ([]domain.Commission, int, error)
	// Settle moves a PENDING commission to next. paidAt is stored as given.
	// A commission in any other status yields ErrStatusConflict and the
	// current record.
	Settle(ctx context.Context, id uuid.UUID, next domain.Status, paidAt *time.Time) (domain.Commission, error)
}
