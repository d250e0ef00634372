// Package repository implements financing persistence on PostgreSQL.
// NUMERIC columns travel as shopspring decimals through their
// sql.Scanner and driver.Valuer implementations.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"realty_portal_backend/internal/financing/domain"
	"realty_portal_backend/internal/financing/ports"
)

const financingColumns = `id, property_id, user_id, client_name, client_phone, client_email,
	property_value, down_payment, financed_amount, interest_rate, term_months, amortization_system,
	monthly_payment, total_amount, total_interest, status, created_at, updated_at`

type Repository struct {
	pool *pgxpool.Pool
}

var _ ports.Store = (*Repository)(nil)

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanFinancing(row pgx.Row) (domain.Financing, error) {
	var (
		f      domain.Financing
		system string
		status string
	)
	err := row.Scan(
		&f.ID, &f.PropertyID, &f.Requester.UserID, &f.Requester.ClientName, &f.Requester.ClientPhone,
		&f.Requester.ClientEmail, &f.PropertyValue, &f.DownPayment, &f.FinancedAmount, &f.InterestRate,
		&f.TermMonths, &system, &f.MonthlyPayment, &f.TotalAmount, &f.TotalInterest, &status,
		&f.CreatedAt, &f.UpdatedAt,
	)
	if err != nil {
		return domain.Financing{}, err
	}
	f.System = domain.System(system)
	f.Status = domain.Status(status)
	return f, nil
}

func (r *Repository) PropertyExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM properties WHERE id = $1)`, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("check property: %w", err)
	}
	return exists, nil
}

func (r *Repository) Create(ctx context.Context, f domain.Financing) (domain.Financing, error) {
	created, err := scanFinancing(r.pool.QueryRow(ctx, `
		INSERT INTO financings (
			property_id, user_id, client_name, client_phone, client_email,
			property_value, down_payment, financed_amount, interest_rate, term_months, amortization_system,
			monthly_payment, total_amount, total_interest, status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING `+financingColumns,
		f.PropertyID, f.Requester.UserID, f.Requester.ClientName, f.Requester.ClientPhone, f.Requester.ClientEmail,
		f.PropertyValue, f.DownPayment, f.FinancedAmount, f.InterestRate, f.TermMonths, string(f.System),
		f.MonthlyPayment, f.TotalAmount, f.TotalInterest, string(f.Status),
	))
	if err != nil {
		return domain.Financing{}, fmt.Errorf("insert financing: %w", err)
	}
	return created, nil
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (domain.Financing, error) {
	f, err := scanFinancing(r.pool.QueryRow(ctx, `SELECT `+financingColumns+` FROM financings WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Financing{}, domain.ErrFinancingNotFound
	}
	if err != nil {
		return domain.Financing{}, fmt.Errorf("get financing: %w", err)
	}
	return f, nil
}

func (r *Repository) List(ctx context.Context, params ports.ListParams) ([]domain.Financing, int, error) {
	where := "TRUE"
	args := []any{}
	if params.Status != nil {
		where = "status = $1"
		args = append(args, string(*params.Status))
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM financings WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count financings: %w", err)
	}

	args = append(args, params.PageSize, (params.Page-1)*params.PageSize)
	query := fmt.Sprintf(`SELECT %s FROM financings WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		financingColumns, where, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list financings: %w", err)
	}
	defer rows.Close()

	items := make([]domain.Financing, 0)
	for rows.Next() {
		f, err := scanFinancing(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan financing: %w", err)
		}
		items = append(items, f)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// UpdateStatus is a single guarded UPDATE. When no row matches, a follow-up
// read tells a missing record apart from one in the wrong status.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, from []domain.Status, next domain.Status) (domain.Financing, error) {
	allowed := make([]string, 0, len(from))
	for _, st := range from {
		allowed = append(allowed, string(st))
	}

	updated, err := scanFinancing(r.pool.QueryRow(ctx, `
		UPDATE financings
		SET status = $2, updated_at = now()
		WHERE id = $1 AND status = ANY($3)
		RETURNING `+financingColumns,
		id, string(next), allowed,
	))
	if err == nil {
		return updated, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return domain.Financing{}, fmt.Errorf("update financing status: %w", err)
	}

	current, err := r.GetByID(ctx, id)
	if err != nil {
		return domain.Financing{}, err
	}
	return current, domain.ErrStatusConflict
}
