// Package repository implements lead and agent persistence on PostgreSQL.
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

	"realty_portal_backend/internal/leads/domain"
	"realty_portal_backend/internal/leads/ports"
)

const leadColumns = `id, contact_name, phone, message, ai_reply, status, assigned_agent_id,
	created_at, assumed_at, expired_at, updated_at`

type Repository struct {
	pool *pgxpool.Pool
}

var (
	_ ports.LeadStore      = (*Repository)(nil)
	_ ports.AgentDirectory = (*Repository)(nil)
)

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanLead(row pgx.Row) (domain.Lead, error) {
	var (
		lead   domain.Lead
		status string
	)
	err := row.Scan(
		&lead.ID, &lead.ContactName, &lead.Phone, &lead.Message, &lead.AIReply, &status,
		&lead.AssignedAgentID, &lead.CreatedAt, &lead.AssumedAt, &lead.ExpiredAt, &lead.UpdatedAt,
	)
	if err != nil {
		return domain.Lead{}, err
	}
	lead.Status = domain.Status(status)
	return lead, nil
}

func (r *Repository) Create(ctx context.Context, params ports.CreateLeadParams) (domain.Lead, error) {
	lead, err := scanLead(r.pool.QueryRow(ctx, `
		INSERT INTO leads (contact_name, phone, message, ai_reply, status, created_at, expired_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $6)
		RETURNING `+leadColumns,
		params.ContactName, params.Phone, params.Message, params.AIReply, string(params.Status),
		params.CreatedAt, params.ExpiredAt,
	))
	if err != nil {
		return domain.Lead{}, fmt.Errorf("insert lead: %w", err)
	}
	return lead, nil
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (domain.Lead, error) {
	lead, err := scanLead(r.pool.QueryRow(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Lead{}, domain.ErrLeadNotFound
	}
	if err != nil {
		return domain.Lead{}, fmt.Errorf("get lead: %w", err)
	}
	return lead, nil
}

func (r *Repository) List(ctx context.Context, params ports.ListLeadsParams) ([]domain.Lead, int, error) {
	where := "TRUE"
	args := []any{}
	if params.Status != nil {
		where = "status = $1"
		args = append(args, string(*params.Status))
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM leads WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count leads: %w", err)
	}

	offset := (params.Page - 1) * params.PageSize
	args = append(args, params.PageSize, offset)
	query := fmt.Sprintf(`SELECT %s FROM leads WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		leadColumns, where, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list leads: %w", err)
	}
	defer rows.Close()

	items := make([]domain.Lead, 0)
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan lead: %w", err)
		}
		items = append(items, lead)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Status writes re-check the status they expect inside the statement, so a
// row moved by a concurrent writer affects zero rows instead of being
// overwritten.
const (
	lockLeadSQL = `SELECT ` + leadColumns + ` FROM leads WHERE id = $1 FOR UPDATE`

	transitionLeadSQL = `
		UPDATE leads
		SET status = $2, assigned_agent_id = $3, assumed_at = $4, expired_at = $5, updated_at = now()
		WHERE id = $1 AND status = $6`

	expireStaleSQL = `
		UPDATE leads
		SET status = 'EXPIRED', expired_at = $1, updated_at = $1
		WHERE status = 'PENDING' AND created_at < $2
		RETURNING ` + leadColumns
)

// TryTransition locks the row with SELECT ... FOR UPDATE, checks the status
// and writes with the expected status repeated in the WHERE clause. A
// concurrent winner either holds the lock (we wait, then see its status) or
// has committed (we see it directly).
func (r *Repository) TryTransition(ctx context.Context, id uuid.UUID, expected, next domain.Status, mutate ports.Mutator) (domain.Lead, error) {
	if !domain.CanTransition(expected, next) {
		return domain.Lead{}, fmt.Errorf("illegal lead transition %s -> %s", expected, next)
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return domain.Lead{}, fmt.Errorf("begin transition: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	current, err := scanLead(tx.QueryRow(ctx, lockLeadSQL, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Lead{}, domain.ErrLeadNotFound
	}
	if err != nil {
		return domain.Lead{}, fmt.Errorf("lock lead: %w", err)
	}
	if current.Status != expected {
		return current, domain.ErrStatusConflict
	}

	updated := current
	if mutate != nil {
		mutate(&updated)
	}
	updated.ID = current.ID
	updated.Status = next
	if err := updated.CheckInvariants(); err != nil {
		return domain.Lead{}, fmt.Errorf("transition %s -> %s: %w", expected, next, err)
	}

	tag, err := tx.Exec(ctx, transitionLeadSQL, id, string(next), updated.AssignedAgentID, updated.AssumedAt, updated.ExpiredAt, string(expected))
	if err != nil {
		return domain.Lead{}, fmt.Errorf("update lead status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return current, domain.ErrStatusConflict
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Lead{}, fmt.Errorf("commit transition: %w", err)
	}
	return updated, nil
}

// ExpireStale is one UPDATE; rows a concurrent assume has already moved out
// of PENDING fail the re-checked WHERE clause and are skipped.
func (r *Repository) ExpireStale(ctx context.Context, cutoff, now time.Time) ([]domain.Lead, error) {
	rows, err := r.pool.Query(ctx, expireStaleSQL, now, cutoff)
	if err != nil {
		return nil, fmt.Errorf("expire stale leads: %w", err)
	}
	defer rows.Close()

	expired := make([]domain.Lead, 0)
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expired lead: %w", err)
		}
		expired = append(expired, lead)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("expire stale leads: %w", err)
	}
	return expired, nil
}

// =====================================
// Agents (users table, read-only)
// =====================================

const agentColumns = `id, name, whatsapp_phone, role, is_active`

func scanAgent(row pgx.Row) (domain.Agent, error) {
	var (
		agent domain.Agent
		role  string
	)
	if err := row.Scan(&agent.ID, &agent.Name, &agent.WhatsAppPhone, &role, &agent.Active); err != nil {
		return domain.Agent{}, err
	}
	agent.Role = domain.Role(role)
	return agent, nil
}

// ListActiveAgents returns active, agent-capable users with a WhatsApp number.
func (r *Repository) ListActiveAgents(ctx context.Context) ([]domain.Agent, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+agentColumns+`
		FROM users
		WHERE is_active = TRUE
			AND role IN ('AGENT', 'ADMIN')
			AND whatsapp_phone IS NOT NULL
			AND btrim(whatsapp_phone) <> ''
		ORDER BY name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list active agents: %w", err)
	}
	defer rows.Close()

	agents := make([]domain.Agent, 0)
	for rows.Next() {
		agent, err := scanAgent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan agent: %w", err)
		}
		agents = append(agents, agent)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return agents, nil
}

func (r *Repository) GetAgent(ctx context.Context, id uuid.UUID) (domain.Agent, error) {
	agent, err := scanAgent(r.pool.QueryRow(ctx, `SELECT `+agentColumns+` FROM users WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Agent{}, domain.ErrAgentNotFound
	}
	if err != nil {
		return domain.Agent{}, fmt.Errorf("get agent: %w", err)
	}
	agent.Name = strings.TrimSpace(agent.Name)
	return agent, nil
}
