package runs

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/colefield/sift/pkg/pagination"
	"github.com/colefield/sift/pkg/query"
	"github.com/colefield/sift/pkg/repository"
)

type repo struct {
	db         *sql.DB
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates a run repository implementing the System interface.
func New(db *sql.DB, logger *slog.Logger, pagination pagination.Config) System {
	return &repo{
		db:         db,
		logger:     logger.With("system", "runs"),
		pagination: pagination,
	}
}

func (r *repo) Handler(launcher Launcher) *Handler {
	return NewHandler(r, launcher, r.logger, r.pagination)
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Run], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "Model", "RunID")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count runs: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanRun)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id int64) (*Run, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	run, err := repository.QueryOne(ctx, r.db, q, args, scanRun)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &run, nil
}

func (r *repo) FindByRunID(ctx context.Context, runID string) (*Run, error) {
	q, args := query.
		NewBuilder(projection).
		WhereEquals("RunID", runID).
		BuildSingleOrNull()

	run, err := repository.QueryOne(ctx, r.db, q, args, scanRun)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &run, nil
}

func (r *repo) Create(ctx context.Context, cmd CreateCommand) (*Run, error) {
	if strings.TrimSpace(cmd.Model) == "" {
		return nil, ErrInvalidModel
	}

	params := cmd.Params
	if params == nil {
		params = map[string]any{}
	}
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("marshal run params: %w", err)
	}

	q := `
		INSERT INTO classification_runs(run_id, project_id, model, prompt_version, params, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, run_id, project_id, model, prompt_version, params, status, total_count, completed_count, failed_count, started_at, completed_at, created_at`

	args := []any{
		uuid.NewString(),
		cmd.ProjectID,
		cmd.Model,
		cmd.PromptVersion,
		paramsJSON,
		StatusPending,
	}

	run, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Run, error) {
		return repository.QueryOne(ctx, tx, q, args, scanRun)
	})

	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info(
		"run created",
		"run_id", run.RunID,
		"project_id", run.ProjectID,
		"model", run.Model,
	)
	return &run, nil
}

func (r *repo) MarkRunning(ctx context.Context, runID string, total int) error {
	err := repository.ExecExpectOne(
		ctx, r.db,
		`UPDATE classification_runs
		SET status = $2, total_count = $3, started_at = now()
		WHERE run_id = $1 AND status = $4`,
		runID, StatusRunning, total, StatusPending,
	)
	if err != nil {
		return r.transitionError(ctx, runID, err)
	}
	return nil
}

func (r *repo) IncrementCompleted(ctx context.Context, runID string) error {
	return repository.ExecExpectOne(
		ctx, r.db,
		`UPDATE classification_runs
		SET completed_count = completed_count + 1
		WHERE run_id = $1`,
		runID,
	)
}

func (r *repo) IncrementFailed(ctx context.Context, runID string) error {
	return repository.ExecExpectOne(
		ctx, r.db,
		`UPDATE classification_runs
		SET failed_count = failed_count + 1
		WHERE run_id = $1`,
		runID,
	)
}

func (r *repo) Finish(ctx context.Context, runID, status string) error {
	if !Terminal(status) {
		return ErrInvalidTransition
	}

	err := repository.ExecExpectOne(
		ctx, r.db,
		`UPDATE classification_runs
		SET status = $2, completed_at = now()
		WHERE run_id = $1 AND status IN ($3, $4)`,
		runID, status, StatusPending, StatusRunning,
	)
	if err != nil {
		return r.transitionError(ctx, runID, err)
	}

	r.logger.Info("run finished", "run_id", runID, "status", status)
	return nil
}

func (r *repo) Cancel(ctx context.Context, runID string) (*Run, error) {
	if err := r.Finish(ctx, runID, StatusCancelled); err != nil {
		return nil, err
	}
	return r.FindByRunID(ctx, runID)
}

func (r *repo) Status(ctx context.Context, runID string) (string, error) {
	var status string
	err := r.db.QueryRowContext(
		ctx,
		`SELECT status FROM classification_runs WHERE run_id = $1`,
		runID,
	).Scan(&status)
	if err != nil {
		return "", repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return status, nil
}

// transitionError distinguishes a missing run from a run in the wrong state
// when a guarded UPDATE affects zero rows.
func (r *repo) transitionError(ctx context.Context, runID string, err error) error {
	mapped := repository.MapError(err, ErrNotFound, ErrDuplicate)
	if mapped != ErrNotFound {
		return mapped
	}

	if _, findErr := r.FindByRunID(ctx, runID); findErr == nil {
		return ErrInvalidTransition
	}
	return ErrNotFound
}
