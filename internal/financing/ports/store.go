// Package ports defines the persistence boundary of the financing context.
package ports

import (
	"context"

	"github.com/google/uuid"

	"realty_portal_backend/internal/financing/domain"
)

// ListParams filters List. A nil Status lists every status.
type ListParams struct {
	Status   *domain.Status
	Page     int
	PageSize int
}

// Store persists financing records.
type Store interface {
	PropertyExists(ctx context.Context, id uuid.UUID) (bool, error)
	Create(ctx context.Context, f domain.Financing) (domain.Financing, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.Financing, error)
	List(ctx context.Context, params ListParams) ([]domain.Financing, int, error)
	// UpdateStatus moves the record to next only if its current status is one
	// of from. It returns ErrFinancingNotFound for an unknown id and
	// ErrStatusConflict, together with the current record, otherwise.
	UpdateStatus(ctx context.Context, id uuid.UUID, from []domain.Status, next domain.Status) (domain.Financing, error)
}
