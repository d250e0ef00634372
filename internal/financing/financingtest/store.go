// Package financingtest provides an in-memory ports.Store for tests.
package financingtest

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"realty_portal_backend/internal/financing/domain"
	"realty_portal_backend/internal/financing/ports"
)

type Store struct {
	mu         sync.Mutex
	properties map[uuid.UUID]bool
	records    map[uuid.UUID]domain.Financing

	// Err, when set, is returned by every method.
	Err error
}

var _ ports.Store = (*Store)(nil)

func NewStore() *Store {
	return &Store{
		properties: make(map[uuid.UUID]bool),
		records:    make(map[uuid.UUID]domain.Financing),
	}
}

// AddProperty registers a property id and returns it.
func (s *Store) AddProperty() uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.New()
	s.properties[id] = true
	return id
}

func (s *Store) PropertyExists(_ context.Context, id uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return false, s.Err
	}
	return s.properties[id], nil
}

func (s *Store) Create(_ context.Context, f domain.Financing) (domain.Financing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return domain.Financing{}, s.Err
	}
	if !s.properties[f.PropertyID] {
		return domain.Financing{}, domain.ErrPropertyNotFound
	}
	now := time.Now().UTC()
	f.ID = uuid.New()
	f.CreatedAt = now
	f.UpdatedAt = now
	s.records[f.ID] = f
	return f, nil
}

func (s *Store) GetByID(_ context.Context, id uuid.UUID) (domain.Financing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return domain.Financing{}, s.Err
	}
	f, ok := s.records[id]
	if !ok {
		return domain.Financing{}, domain.ErrFinancingNotFound
	}
	return f, nil
}

func (s *Store) List(_ context.Context, params ports.ListParams) ([]domain.Financing, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, 0, s.Err
	}

	all := make([]domain.Financing, 0, len(s.records))
	for _, f := range s.records {
		if params.Status == nil || f.Status == *params.Status {
			all = append(all, f)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })

	start := min((params.Page-1)*params.PageSize, len(all))
	end := min(start+params.PageSize, len(all))
	return all[start:end], len(all), nil
}

func (s *Store) UpdateStatus(_ context.Context, id uuid.UUID, from []domain.Status, next domain.Status) (domain.Financing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return domain.Financing{}, s.Err
	}
	f, ok := s.records[id]
	if !ok {
		return domain.Financing{}, domain.ErrFinancingNotFound
	}
	if !slices.Contains(from, f.Status) {
		return f, domain.ErrStatusConflict
	}
	f.Status = next
	f.UpdatedAt = time.Now().UTC()
	s.records[id] = f
	return f, nil
}
