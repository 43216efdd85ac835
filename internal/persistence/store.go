// Package persistence defines the storage contract of the forecast pipeline
// and its PostgreSQL and in-memory implementations. The pipeline reads
// products and cities, writes forecast records at their lifecycle
// transitions, and appends one audit row per unit execution.
package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/marketlens/go-foresight/internal/domain"
)

// ErrNotFound reports a lookup for a row that does not exist.
var ErrNotFound = errors.New("persistence: not found")

// Store is the storage contract the coordinator and audit sink depend on.
type Store interface {
	// LoadProduct fetches one product by ID, ErrNotFound when absent.
	LoadProduct(ctx context.Context, id uuid.UUID) (domain.Product, error)

	// LoadCities fetches the cities with the given IDs, preserving the
	// requested order. An empty ID list returns every known city.
	LoadCities(ctx context.Context, ids []uuid.UUID) ([]domain.City, error)

	// CreateForecast persists a new pending record.
	CreateForecast(ctx context.Context, record *domain.ForecastRecord) error

	// UpdateForecast persists a record's current state, ErrNotFound when the
	// record was never created.
	UpdateForecast(ctx context.Context, record *domain.ForecastRecord) error

	// GetForecast fetches one forecast record by ID, ErrNotFound when absent.
	GetForecast(ctx context.Context, id uuid.UUID) (*domain.ForecastRecord, error)

	// AppendUnitLog stores one unit-execution audit row.
	AppendUnitLog(ctx context.Context, entry domain.UnitLogEntry) error
}
