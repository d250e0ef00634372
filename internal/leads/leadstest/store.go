// Package leadstest provides in-memory implementations of the lead ports
// with the same atomicity guarantees as the PostgreSQL repository. It is
// meant for tests of the service, handlers and scheduler.
package leadstest

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"realty_portal_backend/internal/leads/domain"
	"realty_portal_backend/internal/leads/ports"
)

// Store is a mutex-guarded LeadStore and AgentDirectory.
type Store struct {
	mu     sync.RWMutex
	leads  map[uuid.UUID]domain.Lead
	agents map[uuid.UUID]domain.Agent

	// Err, when set, is returned by every method. Used to simulate outages.
	Err error
}

var (
	_ ports.LeadStore      = (*Store)(nil)
	_ ports.AgentDirectory = (*Store)(nil)
)

func NewStore() *Store {
	return &Store{
		leads:  make(map[uuid.UUID]domain.Lead),
		agents: make(map[uuid.UUID]domain.Agent),
	}
}

// AddAgent registers an agent and returns it with a generated id.
func (s *Store) AddAgent(name, phone string, active bool) domain.Agent {
	s.mu.Lock()
	defer s.mu.Unlock()

	agent := domain.Agent{ID: uuid.New(), Name: name, Role: domain.RoleAgent, Active: active}
	if phone != "" {
		p := phone
		agent.WhatsAppPhone = &p
	}
	s.agents[agent.ID] = agent
	return agent
}

// SetAgentActive flips an agent's active flag.
func (s *Store) SetAgentActive(id uuid.UUID, active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.agents[id]; ok {
		a.Active = active
		s.agents[id] = a
	}
}

// PutLead stores lead as-is, for seeding historical state.
func (s *Store) PutLead(lead domain.Lead) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.leads[lead.ID] = lead
}

func (s *Store) Create(_ context.Context, params ports.CreateLeadParams) (domain.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return domain.Lead{}, s.Err
	}

	lead := domain.Lead{
		ID:          uuid.New(),
		ContactName: params.ContactName,
		Phone:       params.Phone,
		Message:     params.Message,
		AIReply:     params.AIReply,
		Status:      params.Status,
		CreatedAt:   params.CreatedAt,
		ExpiredAt:   params.ExpiredAt,
		UpdatedAt:   params.CreatedAt,
	}
	s.leads[lead.ID] = lead
	return lead, nil
}

func (s *Store) GetByID(_ context.Context, id uuid.UUID) (domain.Lead, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.Err != nil {
		return domain.Lead{}, s.Err
	}
	lead, ok := s.leads[id]
	if !ok {
		return domain.Lead{}, domain.ErrLeadNotFound
	}
	return lead, nil
}

func (s *Store) List(_ context.Context, params ports.ListLeadsParams) ([]domain.Lead, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.Err != nil {
		return nil, 0, s.Err
	}

	all := make([]domain.Lead, 0, len(s.leads))
	for _, l := range s.leads {
		if params.Status == nil || l.Status == *params.Status {
			all = append(all, l)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })

	start := min((params.Page-1)*params.PageSize, len(all))
	end := min(start+params.PageSize, len(all))
	return slices.Clone(all[start:end]), len(all), nil
}

func (s *Store) Stats(_ context.Context, since time.Time) (domain.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.Err != nil {
		return domain.Stats{}, s.Err
	}

	stats := domain.Stats{Since: since}
	var assumeSeconds float64
	for _, l := range s.leads {
		if l.CreatedAt.Before(since) {
			continue
		}
		stats.Total++
		switch l.Status {
		case domain.StatusPending:
			stats.Pending++
		case domain.StatusAssumed:
			stats.Assumed++
			if l.AssumedAt != nil {
				assumeSeconds += l.AssumedAt.Sub(l.CreatedAt).Seconds()
			}
		case domain.StatusExpired:
			stats.Expired++
		}
	}
	if stats.Assumed > 0 {
		avg := assumeSeconds / float64(stats.Assumed)
		stats.AvgSecondsToAssume = &avg
	}
	return stats, nil
}

// TryTransition mirrors repository.TryTransition: the write lock stands in for
// its SELECT ... FOR UPDATE row lock, and the status comparison for the
// guarded UPDATE ... WHERE id = $1 AND status = $6. Keep the two in step.
func (s *Store) TryTransition(_ context.Context, id uuid.UUID, expected, next domain.Status, mutate ports.Mutator) (domain.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return domain.Lead{}, s.Err
	}

	current, ok := s.leads[id]
	if !ok {
		return domain.Lead{}, domain.ErrLeadNotFound
	}
	if current.Status != expected || !domain.CanTransition(expected, next) {
		return current, domain.ErrStatusConflict
	}

	updated := current
	if mutate != nil {
		mutate(&updated)
	}
	updated.ID = current.ID
	updated.Status = next
	updated.UpdatedAt = time.Now()
	if err := updated.CheckInvariants(); err != nil {
		return domain.Lead{}, err
	}
	s.leads[id] = updated
	return updated, nil
}

// ExpireStale mirrors the single UPDATE ... WHERE status = 'PENDING' AND
// created_at < cutoff of repository.ExpireStale, so leads already moved out
// of PENDING are skipped.
func (s *Store) ExpireStale(_ context.Context, cutoff, now time.Time) ([]domain.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}

	expired := make([]domain.Lead, 0)
	for id, l := range s.leads {
		if l.Status != domain.StatusPending || !l.CreatedAt.Before(cutoff) {
			continue
		}
		at := now
		l.Status = domain.StatusExpired
		l.ExpiredAt = &at
		l.UpdatedAt = now
		s.leads[id] = l
		expired = append(expired, l)
	}
	return expired, nil
}

func (s *Store) ListActiveAgents(_ context.Context) ([]domain.Agent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.Err != nil {
		return nil, s.Err
	}

	out := make([]domain.Agent, 0, len(s.agents))
	for _, a := range s.agents {
		if a.CanReceiveLeads() {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) GetAgent(_ context.Context, id uuid.UUID) (domain.Agent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.Err != nil {
		return domain.Agent{}, s.Err
	}
	a, ok := s.agents[id]
	if !ok {
		return domain.Agent{}, domain.ErrAgentNotFound
	}
	return a, nil
}
