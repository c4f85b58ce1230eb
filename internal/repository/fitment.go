package repository

import (
	"context"
	"fmt"

	"bulbfinder/harvester/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const batchSize = 500

const createTableQuery = `
	CREATE TABLE IF NOT EXISTS bulb_fitments (
		year           TEXT NOT NULL,
		make           TEXT NOT NULL,
		model          TEXT NOT NULL,
		bulb_position  TEXT NOT NULL,
		year_value     TEXT NOT NULL,
		make_value     TEXT NOT NULL,
		model_value    TEXT NOT NULL,
		position_value TEXT NOT NULL,
		updated_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (year, make, model, bulb_position, year_value, make_value, model_value, position_value)
	)`

const upsertQuery = `
	INSERT INTO bulb_fitments (year, make, model, bulb_position, year_value, make_value, model_value, position_value)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	ON CONFLICT (year, make, model, bulb_position, year_value, make_value, model_value, position_value)
	DO UPDATE SET updated_at = now()`

// DB is the subset of *pgxpool.Pool the repository needs.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

type FitmentRepository interface {
	EnsureSchema(ctx context.Context) error
	SaveFitments(ctx context.Context, records []domain.FitmentRecord) (int, error)
}

type fitmentRepository struct {
	db DB
}

func NewFitmentRepository(db DB) FitmentRepository {
	return &fitmentRepository{
		db: db,
	}
}

func (r *fitmentRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, createTableQuery); err != nil {
		return fmt.Errorf("failed to create bulb_fitments table: %w", err)
	}
	return nil
}

// SaveFitments upserts records in batches and returns how many were written.
// Re-saving a record only refreshes its updated_at.
func (r *fitmentRepository) SaveFitments(ctx context.Context, records []domain.FitmentRecord) (int, error) {
	saved := 0
	for start := 0; start < len(records); start += batchSize {
		chunk := records[start:min(start+batchSize, len(records))]

		batch := &pgx.Batch{}
		for _, rec := range chunk {
			batch.Queue(upsertQuery,
				rec.Year, rec.Make, rec.Model, rec.Position,
				rec.YearCode, rec.MakeCode, rec.ModelCode, rec.PositionCode,
			)
		}

		if err := r.sendBatch(ctx, batch); err != nil {
			return saved, fmt.Errorf("failed to save fitments: %w", err)
		}
		saved += len(chunk)
	}
	return saved, nil
}

func (r *fitmentRepository) sendBatch(ctx context.Context, batch *pgx.Batch) (err error) {
	results := r.db.SendBatch(ctx, batch)
	defer func() {
		if closeErr := results.Close(); err == nil {
			err = closeErr
		}
	}()

	for range batch.Len() {
		if _, err := results.Exec(); err != nil {
			return err
		}
	}
	return nil
}
