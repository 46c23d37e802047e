package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/cronpipe/pkg/scheduler"
)

// Postgres reads job specs from a scheduled_tasks table, grounded on the
// original system's schema: name, cron, a params JSONB column carrying
// cmd/arg, is_enabled, and retry_times. A row whose params cannot be
// decoded is logged and skipped rather than failing the whole read, so a
// single malformed row never takes down the rest of the catalog.
type Postgres struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewPostgres returns a Postgres-backed CatalogReader over pool. If logger
// is nil, row-decode failures are logged to slog.Default().
func NewPostgres(pool *pgxpool.Pool, logger *slog.Logger) *Postgres {
	if logger == nil {
		logger = slog.Default()
	}
	return &Postgres{pool: pool, logger: logger}
}

type scheduledTaskParams struct {
	Cmd string `json:"cmd"`
	Arg string `json:"arg"`
}

// ListAll implements scheduler.CatalogReader.
func (p *Postgres) ListAll(ctx context.Context) ([]scheduler.JobSpec, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT name, cron, params, retry_times
		FROM scheduled_tasks
		WHERE is_enabled
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}
	defer rows.Close()

	var specs []scheduler.JobSpec
	for rows.Next() {
		var (
			name       string
			cron       string
			rawParams  json.RawMessage
			retryTimes int
		)
		if err := rows.Scan(&name, &cron, &rawParams, &retryTimes); err != nil {
			p.logger.Error("skipping scheduled_tasks row: scan failed", slog.Any("error", err))
			continue
		}

		var params scheduledTaskParams
		if err := json.Unmarshal(rawParams, &params); err != nil {
			p.logger.Error("skipping scheduled_tasks row: invalid params",
				slog.String("job", name),
				slog.Any("error", err),
			)
			continue
		}

		specs = append(specs, scheduler.JobSpec{
			Name:        name,
			CronExpr:    cron,
			CommandName: params.Cmd,
			Argument:    params.Arg,
			RetryBudget: retryTimes,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}

	return specs, nil
}
