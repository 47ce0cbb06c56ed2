package repository

import (
	"context"
	"errors"
	"time"

	"github.com/cloo-solutions/aliasgen/internal/domain"
	"github.com/cloo-solutions/aliasgen/internal/pagination"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AliasRunPage = pagination.PageResult[*domain.AliasRun]

// AliasRunRepository stores the history of alias generation runs.
type AliasRunRepository struct {
	pool *pgxpool.Pool
}

func NewAliasRunRepository(pool *pgxpool.Pool) *AliasRunRepository {
	return &AliasRunRepository{pool: pool}
}

const aliasRunColumns = `id, handle, mode, status, error_code, message, discovered, aliases, model, duration_ms, created_at`

func (r *AliasRunRepository) Create(ctx context.Context, run *domain.AliasRun) error {
	if err := domain.ValidateAliasRun(run); err != nil {
		return err
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	_, err := r.pool.Exec(ctx,
		`INSERT INTO alias_runs (`+aliasRunColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		run.ID,
		run.Handle,
		string(run.Mode),
		string(run.Status),
		run.ErrorCode,
		run.Message,
		nonNil(run.Discovered),
		nonNil(run.Aliases),
		run.Model,
		run.DurationMS,
		run.CreatedAt,
	)
	return err
}

func (r *AliasRunRepository) GetByID(ctx context.Context, id string) (*domain.AliasRun, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrRunNotFound
	}

	run, err := scanAliasRun(r.pool.QueryRow(ctx,
		`SELECT `+aliasRunColumns+` FROM alias_runs WHERE id = $1`,
		id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRunNotFound
		}
		return nil, err
	}
	return run, nil
}

// List returns the most recent runs, newest first.
func (r *AliasRunRepository) List(ctx context.Context, limit int) ([]*domain.AliasRun, error) {
	page, err := r.ListWithCursor(ctx, nil, limit)
	if err != nil {
		return nil, err
	}
	return page.Items, nil
}

func (r *AliasRunRepository) ListWithCursor(ctx context.Context, cursor *pagination.Cursor, limit int) (*AliasRunPage, error) {
	limit = pagination.ClampLimit(limit)

	var rows pgx.Rows
	var err error

	if cursor != nil {
		rows, err = r.pool.Query(ctx,
			`SELECT `+aliasRunColumns+` FROM alias_runs
			 WHERE (created_at, id) < ($1, $2)
			 ORDER BY created_at DESC, id DESC
			 LIMIT $3`,
			cursor.Timestamp, cursor.LastID, limit+1,
		)
	} else {
		rows, err = r.pool.Query(ctx,
			`SELECT `+aliasRunColumns+` FROM alias_runs
			 ORDER BY created_at DESC, id DESC
			 LIMIT $1`,
			limit+1,
		)
	}
	if err != nil {
		return nil, err
	}

	runs, err := collectAliasRuns(rows)
	if err != nil {
		return nil, err
	}

	return pagination.NewPage(runs, limit,
		func(run *domain.AliasRun) string { return run.ID },
		func(run *domain.AliasRun) time.Time { return run.CreatedAt },
	), nil
}

// ListByHandle returns the most recent runs for one document.
func (r *AliasRunRepository) ListByHandle(ctx context.Context, handle string, limit int) ([]*domain.AliasRun, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+aliasRunColumns+` FROM alias_runs
		 WHERE handle = $1
		 ORDER BY created_at DESC, id DESC
		 LIMIT $2`,
		handle, pagination.ClampLimit(limit),
	)
	if err != nil {
		return nil, err
	}
	return collectAliasRuns(rows)
}

// DeleteOlderThan removes runs created before cutoff and reports how many
// were deleted.
func (r *AliasRunRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM alias_runs WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func collectAliasRuns(rows pgx.Rows) ([]*domain.AliasRun, error) {
	defer rows.Close()

	var runs []*domain.AliasRun
	for rows.Next() {
		run, err := scanAliasRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func scanAliasRun(row pgx.Row) (*domain.AliasRun, error) {
	var run domain.AliasRun
	var mode, status string
	err := row.Scan(
		&run.ID,
		&run.Handle,
		&mode,
		&status,
		&run.ErrorCode,
		&run.Message,
		&run.Discovered,
		&run.Aliases,
		&run.Model,
		&run.DurationMS,
		&run.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	run.Mode = domain.Mode(mode)
	run.Status = domain.RunStatus(status)
	return &run, nil
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
