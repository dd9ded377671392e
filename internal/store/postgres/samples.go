package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/tradingquiz/internal/contracts"
	"github.com/wonny/tradingquiz/pkg/database"
)

// SampleRepository implements contracts.SampleRepository
type SampleRepository struct {
	pool *pgxpool.Pool
}

// NewSampleRepository creates a new sample repository
func NewSampleRepository(pool *pgxpool.Pool) *SampleRepository {
	return &SampleRepository{pool: pool}
}

const sampleColumns = `id::text, asset_name, timeframe, image_ref, outcome, created_at`

func scanSample(row pgx.Row) (*contracts.Sample, error) {
	var s contracts.Sample
	var outcome string
	if err := row.Scan(&s.ID, &s.AssetName, &s.Timeframe, &s.ImageRef, &outcome, &s.CreatedAt); err != nil {
		return nil, err
	}
	s.Outcome = contracts.Direction(outcome)
	return &s, nil
}

func getSample(ctx context.Context, q database.Querier, id string) (*contracts.Sample, error) {
	query := `SELECT ` + sampleColumns + ` FROM samples WHERE id = $1`
	sid, err := parseID("sample", id)
	if err != nil {
		return nil, err
	}
	s, err := scanSample(q.QueryRow(ctx, query, sid))
	if err != nil {
		return nil, notFound(err, "sample", id)
	}
	return s, nil
}

func insertSample(ctx context.Context, q database.Querier, s *contracts.Sample) error {
	if !s.Outcome.Valid() {
		return fmt.Errorf("sample outcome %q: %w", s.Outcome, contracts.ErrInvalidInput)
	}
	query := `
		INSERT INTO samples (id, asset_name, timeframe, image_ref, outcome, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := q.Exec(ctx, query, s.ID, s.AssetName, s.Timeframe, s.ImageRef, string(s.Outcome), s.CreatedAt)
	return mapError(err)
}

// Create inserts one sample
func (r *SampleRepository) Create(ctx context.Context, sample *contracts.Sample) error {
	return insertSample(ctx, r.pool, sample)
}

// CreateBatch inserts samples in a single transaction
func (r *SampleRepository) CreateBatch(ctx context.Context, samples []*contracts.Sample) error {
	if len(samples) == 0 {
		return nil
	}
	return database.WithTx(ctx, r.pool, pgx.TxOptions{}, func(ctx context.Context, tx pgx.Tx) error {
		for _, s := range samples {
			if err := insertSample(ctx, tx, s); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetByID retrieves a sample by id
func (r *SampleRepository) GetByID(ctx context.Context, id string) (*contracts.Sample, error) {
	return getSample(ctx, r.pool, id)
}

// Random picks one sample uniformly
func (r *SampleRepository) Random(ctx context.Context) (*contracts.Sample, error) {
	query := `SELECT ` + sampleColumns + ` FROM samples ORDER BY random() LIMIT 1`
	s, err := scanSample(r.pool.QueryRow(ctx, query))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("no charts available: %w", contracts.ErrNotAvailable)
	}
	return s, err
}

// Count returns the number of samples
func (r *SampleRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM samples`).Scan(&n)
	return n, err
}
