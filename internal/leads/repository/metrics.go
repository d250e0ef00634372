package repository

import (
	"context"
	"time"

	"realty_portal_backend/internal/leads/domain"
)

// Stats returns dashboard aggregates for leads created at or after since.
func (r *Repository) Stats(ctx context.Context, since time.Time) (domain.Stats, error) {
	stats := domain.Stats{Since: since}
	err := r.pool.QueryRow(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'PENDING'),
			COUNT(*) FILTER (WHERE status = 'ASSUMED'),
			COUNT(*) FILTER (WHERE status = 'EXPIRED'),
			(AVG(EXTRACT(EPOCH FROM (assumed_at - created_at)))
				FILTER (WHERE status = 'ASSUMED'))::float8
		FROM leads
		WHERE created_at >= $1
	`, since).Scan(
		&stats.Total,
		&stats.Pending,
		&stats.Assumed,
		&stats.Expired,
		&stats.AvgSecondsToAssume,
	)
	if err != nil {
		return domain.Stats{}, err
	}
	return stats, nil
}
