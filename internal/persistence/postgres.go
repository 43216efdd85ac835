package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/marketlens/go-foresight/internal/domain"
)

// defaultQueryTimeout bounds individual statements so a stalled database
// cannot wedge an activity past its Temporal timeout.
const defaultQueryTimeout = 10 * time.Second

// PostgresStore implements Store over PostgreSQL via sqlx. Forecast reports
// and scores are stored as JSONB; everything queried by the pipeline is a
// plain column.
type PostgresStore struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewPostgresStore wraps an open connection pool.
func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db, timeout: defaultQueryTimeout}
}

// LoadProduct fetches one product row with its JSONB specifications.
func (s *PostgresStore) LoadProduct(ctx context.Context, id uuid.UUID) (domain.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var row struct {
		domain.Product
		Specifications []byte `db:"specifications"`
	}
	const query = `
		SELECT id, name, description, category, base_price, production_method, specifications
		FROM products
		WHERE id = $1`
	if err := s.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Product{}, fmt.Errorf("%w: product %s", ErrNotFound, id)
		}
		return domain.Product{}, fmt.Errorf("load product: %w", err)
	}

	product := row.Product
	if len(row.Specifications) > 0 {
		if err := json.Unmarshal(row.Specifications, &product.Specifications); err != nil {
			return domain.Product{}, fmt.Errorf("decode product specifications: %w", err)
		}
	}
	return product, nil
}

// LoadCities fetches city rows, preserving the requested ID order.
func (s *PostgresStore) LoadCities(ctx context.Context, ids []uuid.UUID) ([]domain.City, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	const columns = `id, name, country, population, gdp_per_capita, purchasing_power_index,
		ecommerce_penetration, competition_density, average_order_value, internet_penetration`

	var cities []domain.City
	if len(ids) == 0 {
		query := fmt.Sprintf(`SELECT %s FROM cities ORDER BY name`, columns)
		if err := s.db.SelectContext(ctx, &cities, query); err != nil {
			return nil, fmt.Errorf("load cities: %w", err)
		}
		return cities, nil
	}

	query := fmt.Sprintf(`SELECT %s FROM cities WHERE id = ANY($1)`, columns)
	if err := s.db.SelectContext(ctx, &cities, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("load cities: %w", err)
	}

	byID := make(map[uuid.UUID]domain.City, len(cities))
	for _, c := range cities {
		byID[c.ID] = c
	}
	ordered := make([]domain.City, 0, len(ids))
	for _, id := range ids {
		c, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: city %s", ErrNotFound, id)
		}
		ordered = append(ordered, c)
	}
	return ordered, nil
}

// forecastRow is the flat representation of a forecast record with the unit
// reports and scores folded into JSONB columns.
type forecastRow struct {
	ID                        uuid.UUID `db:"id"`
	ProductID                 uuid.UUID `db:"product_id"`
	Status                    string    `db:"status"`
	ErrorMessage              string    `db:"error_message"`
	Reports                   []byte    `db:"reports"`
	Scores                    []byte    `db:"scores"`
	TokensUsed                int64     `db:"tokens_used"`
	CostUSD                   float64   `db:"cost_usd"`
	ProcessingStartedAt       time.Time `db:"processing_started_at"`
	ProcessingCompletedAt     time.Time `db:"processing_completed_at"`
	ProcessingDurationSeconds float64   `db:"processing_duration_seconds"`
}

// forecastReports groups the per-unit reports for JSONB storage.
type forecastReports struct {
	ProductAnalysis *domain.UnitReport `json:"product_analysis,omitempty"`
	MarketAnalysis  *domain.UnitReport `json:"market_analysis,omitempty"`
	AdvertisingPlan *domain.UnitReport `json:"advertising_plan,omitempty"`
	SupplyChainPlan *domain.UnitReport `json:"supply_chain_plan,omitempty"`
	SalesStrategy   *domain.UnitReport `json:"sales_strategy,omitempty"`
}

func toRow(record *domain.ForecastRecord) (forecastRow, error) {
	reports, err := json.Marshal(forecastReports{
		ProductAnalysis: record.ProductAnalysis,
		MarketAnalysis:  record.MarketAnalysis,
		AdvertisingPlan: record.AdvertisingPlan,
		SupplyChainPlan: record.SupplyChainPlan,
		SalesStrategy:   record.SalesStrategy,
	})
	if err != nil {
		return forecastRow{}, fmt.Errorf("encode forecast reports: %w", err)
	}
	scores := []byte("null")
	if record.Scores != nil {
		if scores, err = json.Marshal(record.Scores); err != nil {
			return forecastRow{}, fmt.Errorf("encode forecast scores: %w", err)
		}
	}
	return forecastRow{
		ID:                        record.ID,
		ProductID:                 record.ProductID,
		Status:                    string(record.Status),
		ErrorMessage:              record.ErrorMessage,
		Reports:                   reports,
		Scores:                    scores,
		TokensUsed:                record.TokensUsed,
		CostUSD:                   record.CostUSD,
		ProcessingStartedAt:       record.ProcessingStartedAt,
		ProcessingCompletedAt:     record.ProcessingCompletedAt,
		ProcessingDurationSeconds: record.ProcessingDurationSeconds,
	}, nil
}

func fromRow(row forecastRow) (*domain.ForecastRecord, error) {
	record := &domain.ForecastRecord{
		ID:                        row.ID,
		ProductID:                 row.ProductID,
		Status:                    domain.ForecastStatus(row.Status),
		ErrorMessage:              row.ErrorMessage,
		TokensUsed:                row.TokensUsed,
		CostUSD:                   row.CostUSD,
		ProcessingStartedAt:       row.ProcessingStartedAt,
		ProcessingCompletedAt:     row.ProcessingCompletedAt,
		ProcessingDurationSeconds: row.ProcessingDurationSeconds,
	}
	if len(row.Reports) > 0 {
		var reports forecastReports
		if err := json.Unmarshal(row.Reports, &reports); err != nil {
			return nil, fmt.Errorf("decode forecast reports: %w", err)
		}
		record.ProductAnalysis = reports.ProductAnalysis
		record.MarketAnalysis = reports.MarketAnalysis
		record.AdvertisingPlan = reports.AdvertisingPlan
		record.SupplyChainPlan = reports.SupplyChainPlan
		record.SalesStrategy = reports.SalesStrategy
	}
	if len(row.Scores) > 0 && string(row.Scores) != "null" {
		record.Scores = &domain.ScoreSet{}
		if err := json.Unmarshal(row.Scores, record.Scores); err != nil {
			return nil, fmt.Errorf("decode forecast scores: %w", err)
		}
	}
	return record, nil
}

// CreateForecast inserts a new record row.
func (s *PostgresStore) CreateForecast(ctx context.Context, record *domain.ForecastRecord) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	row, err := toRow(record)
	if err != nil {
		return err
	}
	const query = `
		INSERT INTO forecasts (id, product_id, status, error_message, reports, scores,
			tokens_used, cost_usd, processing_started_at, processing_completed_at,
			processing_duration_seconds)
		VALUES (:id, :product_id, :status, :error_message, :reports, :scores,
			:tokens_used, :cost_usd, :processing_started_at, :processing_completed_at,
			:processing_duration_seconds)`
	if _, err := s.db.NamedExecContext(ctx, query, row); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return fmt.Errorf("forecast %s already exists: %w", record.ID, err)
		}
		return fmt.Errorf("create forecast: %w", err)
	}
	return nil
}

// UpdateForecast overwrites the mutable columns of an existing record.
func (s *PostgresStore) UpdateForecast(ctx context.Context, record *domain.ForecastRecord) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	row, err := toRow(record)
	if err != nil {
		return err
	}
	const query = `
		UPDATE forecasts SET
			status = :status,
			error_message = :error_message,
			reports = :reports,
			scores = :scores,
			tokens_used = :tokens_used,
			cost_usd = :cost_usd,
			processing_started_at = :processing_started_at,
			processing_completed_at = :processing_completed_at,
			processing_duration_seconds = :processing_duration_seconds
		WHERE id = :id`
	res, err := s.db.NamedExecContext(ctx, query, row)
	if err != nil {
		return fmt.Errorf("update forecast: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update forecast: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: forecast %s", ErrNotFound, record.ID)
	}
	return nil
}

// GetForecast fetches one forecast row.
func (s *PostgresStore) GetForecast(ctx context.Context, id uuid.UUID) (*domain.ForecastRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var row forecastRow
	const query = `
		SELECT id, product_id, status, error_message, reports, scores, tokens_used,
			cost_usd, processing_started_at, processing_completed_at,
			processing_duration_seconds
		FROM forecasts
		WHERE id = $1`
	if err := s.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: forecast %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("get forecast: %w", err)
	}
	return fromRow(row)
}

// AppendUnitLog inserts one audit row.
func (s *PostgresStore) AppendUnitLog(ctx context.Context, entry domain.UnitLogEntry) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	const query = `
		INSERT INTO unit_logs (id, forecast_id, unit_name, status, is_successful,
			started_at, finished_at, duration_ms, tokens_used, cost_usd, model,
			summary, error_message)
		VALUES (:id, :forecast_id, :unit_name, :status, :is_successful,
			:started_at, :finished_at, :duration_ms, :tokens_used, :cost_usd, :model,
			:summary, :error_message)`
	if _, err := s.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("append unit log: %w", err)
	}
	return nil
}
