package classifications

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/colefield/sift/pkg/pagination"
	"github.com/colefield/sift/pkg/query"
	"github.com/colefield/sift/pkg/repository"
)

type repo struct {
	db         *sql.DB
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates a classification repository implementing the System interface.
func New(db *sql.DB, logger *slog.Logger, pagination pagination.Config) System {
	return &repo{
		db:         db,
		logger:     logger.With("system", "classifications"),
		pagination: pagination,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Classification], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "Model", "Reason")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count classifications: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanClassification)
	if err != nil {
		return nil, fmt.Errorf("query classifications: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id int64) (*Classification, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	c, err := repository.QueryOne(ctx, r.db, q, args, scanClassification)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &c, nil
}

func (r *repo) LatestByEmail(ctx context.Context, emailID int64) (*Classification, error) {
	q, args := query.
		NewBuilder(projection, defaultSort).
		WhereEquals("EmailID", emailID).
		BuildSingleOrNull()

	c, err := repository.QueryOne(ctx, r.db, q, args, scanClassification)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &c, nil
}

const insertQuery = `
	INSERT INTO classifications(email_id, run_id, model, prompt_version, params, responsive, confidence, labels, reason, status, error_message)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	RETURNING id, email_id, run_id, model, prompt_version, params, responsive, confidence, labels, reason, status, error_message, created_at`

func (r *repo) Create(ctx context.Context, cmd CreateCommand) (*Classification, error) {
	params, err := marshalParams(cmd.Params)
	if err != nil {
		return nil, err
	}

	labels := cmd.Labels
	if labels == nil {
		labels = []string{}
	}
	labelsJSON, err := json.Marshal(labels)
	if err != nil {
		return nil, fmt.Errorf("marshal labels: %w", err)
	}

	args := []any{
		cmd.EmailID,
		cmd.RunID,
		cmd.Model,
		cmd.PromptVersion,
		params,
		cmd.Responsive,
		cmd.Confidence,
		labelsJSON,
		truncateReason(cmd.Reason),
		StatusCompleted,
		"",
	}

	c, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Classification, error) {
		return repository.QueryOne(ctx, tx, insertQuery, args, scanClassification)
	})

	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	return &c, nil
}

func (r *repo) CreateFailed(ctx context.Context, cmd FailCommand) (*Classification, error) {
	params, err := marshalParams(cmd.Params)
	if err != nil {
		return nil, err
	}

	args := []any{
		cmd.EmailID,
		cmd.RunID,
		cmd.Model,
		cmd.PromptVersion,
		params,
		nil,
		nil,
		[]byte("[]"),
		"",
		StatusFailed,
		cmd.ErrorMessage,
	}

	c, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Classification, error) {
		return repository.QueryOne(ctx, tx, insertQuery, args, scanClassification)
	})

	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Warn(
		"classification failed",
		"email_id", cmd.EmailID,
		"run_id", cmd.RunID,
		"error", cmd.ErrorMessage,
	)

	return &c, nil
}

func marshalParams(params map[string]any) ([]byte, error) {
	if params == nil {
		params = map[string]any{}
	}
	data, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("marshal params: %w", err)
	}
	return data, nil
}

func truncateReason(reason string) string {
	runes := []rune(reason)
	if len(runes) <= MaxReasonLength {
		return reason
	}
	return string(runes[:MaxReasonLength])
}
