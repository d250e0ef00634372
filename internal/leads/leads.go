// Package leads provides lead distribution functionality.
// This file defines the public API of the leads bounded context.
// Only types and interfaces defined here should be imported by other domains.
package leads

import (
	"context"
	"time"
)

// Sweeper expires stale pending leads. The scheduler depends on this
// interface rather than on the service package.
type Sweeper interface {
	SweepStaleLeads(ctx context.Context, maxAge time.Duration) (int, error)
}

// SweepStaleLeads runs one sweep. A non-positive maxAge uses the configured
// stale window.
func (m *Module) SweepStaleLeads(ctx context.Context, maxAge time.Duration) (int, error) {
	res, err := m.service.ExpireStale(ctx, maxAge, time.Now())
	if err != nil {
		return 0, err
	}
	return len(res.Expired), nil
}

var _ Sweeper = (*Module)(nil)
