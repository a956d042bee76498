package historyrepo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"

	"github.com/yanqian/dupcheck/internal/domain/dedup"
	"github.com/yanqian/dupcheck/internal/domain/features"
)

var schemaStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS vector`,
	fmt.Sprintf(`CREATE TABLE IF NOT EXISTS predictions (
		id uuid PRIMARY KEY,
		question1 text NOT NULL,
		question2 text NOT NULL,
		normalized1 text NOT NULL,
		normalized2 text NOT NULL,
		features vector(%d) NOT NULL,
		probability double precision NOT NULL,
		duplicate boolean NOT NULL,
		model_version text NOT NULL,
		created_at timestamptz NOT NULL
	)`, features.Width),
	`CREATE INDEX IF NOT EXISTS predictions_created_at_idx ON predictions (created_at DESC)`,
}

// PostgresRepository implements dedup.HistoryRepository using pgx.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository constructs the repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// EnsureSchema creates the predictions table when it does not exist.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := r.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure prediction schema: %w", err)
		}
	}
	return nil
}

// Insert appends one prediction.
func (r *PostgresRepository) Insert(ctx context.Context, rec dedup.PredictionRecord) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO predictions (id, question1, question2, normalized1, normalized2, features, probability, duplicate, model_version, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, rec.ID, rec.Question1, rec.Question2, rec.Normalized1, rec.Normalized2,
		pgvector.NewVector(toFloat32(rec.Features)), rec.Probability, rec.Duplicate, rec.ModelVersion, rec.CreatedAt)
	return err
}

// Recent returns the newest predictions first.
func (r *PostgresRepository) Recent(ctx context.Context, limit int) ([]dedup.PredictionRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, question1, question2, normalized1, normalized2, features, probability, duplicate, model_version, created_at
		FROM predictions
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []dedup.PredictionRecord
	for rows.Next() {
		rec, err := scanPrediction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Nearest returns the closest pgvector matches by L2 distance.
func (r *PostgresRepository) Nearest(ctx context.Context, vector []float64, limit int) ([]dedup.HistoryMatch, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, question1, question2, normalized1, normalized2, features, probability, duplicate, model_version, created_at,
			features <-> $1 AS distance
		FROM predictions
		ORDER BY features <-> $1
		LIMIT $2
	`, pgvector.NewVector(toFloat32(vector)), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []dedup.HistoryMatch
	for rows.Next() {
		var distance float64
		rec, err := scanPrediction(rows, &distance)
		if err != nil {
			return nil, err
		}
		out = append(out, dedup.HistoryMatch{Record: rec, Distance: distance})
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPrediction(row rowScanner, extras ...any) (dedup.PredictionRecord, error) {
	var (
		rec    dedup.PredictionRecord
		vector pgvector.Vector
	)
	args := []any{
		&rec.ID, &rec.Question1, &rec.Question2, &rec.Normalized1, &rec.Normalized2,
		&vector, &rec.Probability, &rec.Duplicate, &rec.ModelVersion, &rec.CreatedAt,
	}
	args = append(args, extras...)
	if err := row.Scan(args...); err != nil {
		return dedup.PredictionRecord{}, err
	}
	rec.Features = toFloat64(vector.Slice())
	return rec, nil
}

func toFloat32(in []float64) []float32 {
	out := make([]float32, len(in))
	for i, v := range in {
		out[i] = float32(v)
	}
	return out
}

func toFloat64(in []float32) []float64 {
	out := make([]float64, len(in))
	for i, v := range in {
		out[i] = float64(v)
	}
	return out
}

var _ dedup.HistoryRepository = (*PostgresRepository)(nil)
