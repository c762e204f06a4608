package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"portfolio-gallery/internal/domain"
	"portfolio-gallery/internal/repository/run"

	"github.com/lib/pq"
	"github.com/wb-go/wbf/dbpg"
	"github.com/wb-go/wbf/retry"
)

const schema = `
CREATE TABLE IF NOT EXISTS generation_runs (
	id          UUID PRIMARY KEY,
	task_id     TEXT NOT NULL DEFAULT '',
	status      TEXT NOT NULL,
	records     INTEGER NOT NULL DEFAULT 0,
	skipped     INTEGER NOT NULL DEFAULT 0,
	covers      INTEGER NOT NULL DEFAULT 0,
	started_at  TIMESTAMPTZ NOT NULL,
	finished_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS generation_runs_started_at_idx ON generation_runs (started_at DESC);

CREATE TABLE IF NOT EXISTS generation_skips (
	run_id    UUID NOT NULL REFERENCES generation_runs (id) ON DELETE CASCADE,
	category  TEXT NOT NULL,
	file_id   TEXT NOT NULL DEFAULT '',
	file_name TEXT NOT NULL DEFAULT '',
	reason    TEXT NOT NULL
);
`

const uniqueViolation = "23505"

type RunRepository struct {
	db      *dbpg.DB
	retries retry.Strategy
}

func NewRunRepository(db *dbpg.DB, retries retry.Strategy) *RunRepository {
	return &RunRepository{
		db:      db,
		retries: retries,
	}
}

// Migrate creates the run ledger tables when they are missing.
func (r *RunRepository) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecWithRetry(ctx, r.retries, schema); err != nil {
		return fmt.Errorf("failed to migrate run ledger: %w", err)
	}
	return nil
}

func (r *RunRepository) SaveRun(ctx context.Context, report *domain.GenerationReport) error {
	query := `
		INSERT INTO generation_runs (
			id, task_id, status, records, skipped, covers, started_at, finished_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.ExecWithRetry(ctx, r.retries, query,
		report.RunID,
		report.TaskID,
		report.Status,
		report.Records(),
		report.SkippedCount(),
		report.Covers,
		report.StartedAt,
		report.FinishedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return run.ErrDuplicateRun
		}
		return fmt.Errorf("failed to save run: %w", err)
	}

	skipQuery := `
		INSERT INTO generation_skips (run_id, category, file_id, file_name, reason)
		VALUES ($1, $2, $3, $4, $5)
	`
	for _, c := range report.Categories {
		for _, s := range c.Skipped {
			_, err := r.db.ExecWithRetry(ctx, r.retries, skipQuery,
				report.RunID, s.Category, s.FileID, s.FileName, s.Reason)
			if err != nil {
				return fmt.Errorf("failed to save skipped item: %w", err)
			}
		}
	}

	return nil
}

func (r *RunRepository) GetRun(ctx context.Context, id string) (*domain.GenerationRun, error) {
	query := `
		SELECT id, task_id, status, records, skipped, covers, started_at, finished_at
		FROM generation_runs
		WHERE id = $1
	`

	row, err := r.db.QueryRowWithRetry(ctx, r.retries, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query run: %w", err)
	}

	var gr domain.GenerationRun
	err = row.Scan(
		&gr.ID,
		&gr.TaskID,
		&gr.Status,
		&gr.Records,
		&gr.Skipped,
		&gr.Covers,
		&gr.StartedAt,
		&gr.FinishedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, run.ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	return &gr, nil
}

// ListRuns returns the most recent runs first.
func (r *RunRepository) ListRuns(ctx context.Context, limit int) ([]domain.GenerationRun, error) {
	query := `
		SELECT id, task_id, status, records, skipped, covers, started_at, finished_at
		FROM generation_runs
		ORDER BY started_at DESC
		LIMIT $1
	`

	rows, err := r.db.QueryWithRetry(ctx, r.retries, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	runs := make([]domain.GenerationRun, 0, limit)
	for rows.Next() {
		var gr domain.GenerationRun
		err := rows.Scan(
			&gr.ID,
			&gr.TaskID,
			&gr.Status,
			&gr.Records,
			&gr.Skipped,
			&gr.Covers,
			&gr.StartedAt,
			&gr.FinishedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, gr)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}

	return runs, nil
}
