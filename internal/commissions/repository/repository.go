// Package repository implements commission persistence on PostgreSQL.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"realty_portal_backend/internal/commissions/domain"
	"realty_portal_backend/internal/commissions/ports"
)

const commissionColumns = `id, property_id, agent_id, sale_value, percentage, commission_value,
	status, paid_at, created_at, updated_at`

type Repository struct {
	pool *pgxpool.Pool
}

var _ ports.Store = (*Repository)(nil)

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanCommission(row pgx.Row) (domain.Commission, error) {
	var (
		c      domain.Commission
		status string
	)
	err := row.Scan(&c.ID, &c.PropertyID, &c.AgentID, &c.SaleValue, &c.Percentage, &c.CommissionValue,
		&status, &c.PaidAt, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return domain.Commission{}, err
	}
	c.Status = domain.Status(status)
	return c, nil
}

func (r *Repository) PropertyExists(ctx context.Context, id uuid.UUID) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM properties WHERE id = $1)`, id)
}

func (r *Repository) AgentExists(ctx context.Context, id uuid.UUID) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1 AND role IN ('AGENT', 'ADMIN'))`, id)
}

func (r *Repository) exists(ctx context.Context, query string, id uuid.UUID) (bool, error) {
	var ok bool
	if err := r.pool.QueryRow(ctx, query, id).Scan(&ok); err != nil {
		return false, fmt.Errorf("existence check: %w", err)
	}
	return ok, nil
}

func (r *Repository) Create(ctx context.Context, c domain.Commission) (domain.Commission, error) {
	created, err := scanCommission(r.pool.QueryRow(ctx, `
		INSERT INTO commissions (property_id, agent_id, sale_value, percentage, commission_value, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+commissionColumns,
		c.PropertyID, c.AgentID, c.SaleValue, c.Percentage, c.CommissionValue, string(c.Status),
	))
	if err != nil {
		return domain.Commission{}, fmt.Errorf("insert commission: %w", err)
	}
	return created, nil
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (domain.Commission, error) {
	c, err := scanCommission(r.pool.QueryRow(ctx, `SELECT `+commissionColumns+` FROM commissions WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Commission{}, domain.ErrCommissionNotFound
	}
	if err != nil {
		return domain.Commission{}, fmt.Errorf("get commission: %w", err)
	}
	return c, nil
}

func (r *Repository) List(ctx context.Context, params ports.ListParams) ([]domain.Commission, int, error) {
	conds := []string{"TRUE"}
	args := []any{}
	if params.Status != nil {
		args = append(args, string(*params.Status))
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if params.AgentID != nil {
		args = append(args, *params.AgentID)
		conds = append(conds, fmt.Sprintf("agent_id = $%d", len(args)))
	}
	where := strings.Join(conds, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM commissions WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count commissions: %w", err)
	}

	args = append(args, params.PageSize, (params.Page-1)*params.PageSize)
	query := fmt.Sprintf(`SELECT %s FROM commissions WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		commissionColumns, where, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list commissions: %w", err)
	}
	defer rows.Close()

	items := make([]domain.Commission, 0)
	for rows.Next() {
		c, err := scanCommission(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan commission: %w", err)
		}
		items = append(items, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *Repository) Settle(ctx context.Context, id uuid.UUID, next domain.Status, paidAt *time.Time) (domain.Commission, error) {
	updated, err := scanCommission(r.pool.QueryRow(ctx, `
		UPDATE commissions
		SET status = $2, paid_at = $3, updated_at = now()
		WHERE id = $1 AND status = 'PENDING'
		RETURNING `+commissionColumns,
		id, string(next), paidAt,
	))
	if err == nil {
		return updated, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return domain.Commission{}, fmt.Errorf("settle commission: %w", err)
	}

	current, err := r.GetByID(ctx, id)
	if err != nil {
		return domain.Commission{}, err
	}
	return current, domain.ErrStatusConflict
}
