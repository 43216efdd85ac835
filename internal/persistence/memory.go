package persistence

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/marketlens/go-foresight/internal/domain"
)

// MemoryStore implements Store in memory. Used in tests and for running the
// pipeline without a database.
type MemoryStore struct {
	mu        sync.RWMutex
	products  map[uuid.UUID]domain.Product
	cities    map[uuid.UUID]domain.City
	cityOrder []uuid.UUID
	forecasts map[uuid.UUID]*domain.ForecastRecord
	unitLogs  []domain.UnitLogEntry
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		products:  make(map[uuid.UUID]domain.Product),
		cities:    make(map[uuid.UUID]domain.City),
		forecasts: make(map[uuid.UUID]*domain.ForecastRecord),
	}
}

// PutProduct seeds a product.
func (s *MemoryStore) PutProduct(p domain.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = p
}

// PutCity seeds a city, preserving insertion order for unfiltered loads.
func (s *MemoryStore) PutCity(c domain.City) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.cities[c.ID]; !exists {
		s.cityOrder = append(s.cityOrder, c.ID)
	}
	s.cities[c.ID] = c
}

// LoadProduct implements Store.
func (s *MemoryStore) LoadProduct(_ context.Context, id uuid.UUID) (domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[id]
	if !ok {
		return domain.Product{}, fmt.Errorf("%w: product %s", ErrNotFound, id)
	}
	return p, nil
}

// LoadCities implements Store.
func (s *MemoryStore) LoadCities(_ context.Context, ids []uuid.UUID) ([]domain.City, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(ids) == 0 {
		out := make([]domain.City, 0, len(s.cityOrder))
		for _, id := range s.cityOrder {
			out = append(out, s.cities[id])
		}
		return out, nil
	}

	out := make([]domain.City, 0, len(ids))
	for _, id := range ids {
		c, ok := s.cities[id]
		if !ok {
			return nil, fmt.Errorf("%w: city %s", ErrNotFound, id)
		}
		out = append(out, c)
	}
	return out, nil
}

// CreateForecast implements Store.
func (s *MemoryStore) CreateForecast(_ context.Context, record *domain.ForecastRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.forecasts[record.ID]; exists {
		return fmt.Errorf("forecast %s already exists", record.ID)
	}
	clone := *record
	s.forecasts[record.ID] = &clone
	return nil
}

// UpdateForecast implements Store.
func (s *MemoryStore) UpdateForecast(_ context.Context, record *domain.ForecastRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.forecasts[record.ID]; !exists {
		return fmt.Errorf("%w: forecast %s", ErrNotFound, record.ID)
	}
	clone := *record
	s.forecasts[record.ID] = &clone
	return nil
}

// GetForecast implements Store.
func (s *MemoryStore) GetForecast(_ context.Context, id uuid.UUID) (*domain.ForecastRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.forecasts[id]
	if !ok {
		return nil, fmt.Errorf("%w: forecast %s", ErrNotFound, id)
	}
	clone := *record
	return &clone, nil
}

// AppendUnitLog implements Store.
func (s *MemoryStore) AppendUnitLog(_ context.Context, entry domain.UnitLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unitLogs = append(s.unitLogs, entry)
	return nil
}

// UnitLogs returns a snapshot of the appended audit rows.
func (s *MemoryStore) UnitLogs() []domain.UnitLogEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.UnitLogEntry, len(s.unitLogs))
	copy(out, s.unitLogs)
	return out
}

var _ Store = (*MemoryStore)(nil)
