package reviews

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/colefield/sift/internal/classifications"
	"github.com/colefield/sift/pkg/pagination"
	"github.com/colefield/sift/pkg/query"
	"github.com/colefield/sift/pkg/repository"
)

type repo struct {
	db              *sql.DB
	classifications classifications.System
	logger          *slog.Logger
	pagination      pagination.Config
}

// New creates a review repository implementing the System interface.
func New(
	db *sql.DB,
	classificationSys classifications.System,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	return &repo{
		db:              db,
		classifications: classificationSys,
		logger:          logger.With("system", "reviews"),
		pagination:      pagination,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Review], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "Reviewer", "Note")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count reviews: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanReview)
	if err != nil {
		return nil, fmt.Errorf("query reviews: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id int64) (*Review, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	rv, err := repository.QueryOne(ctx, r.db, q, args, scanReview)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &rv, nil
}

func (r *repo) LatestByEmail(ctx context.Context, emailID int64) (*Review, error) {
	q, args := query.
		NewBuilder(projection, defaultSort).
		WhereEquals("EmailID", emailID).
		BuildSingleOrNull()

	rv, err := repository.QueryOne(ctx, r.db, q, args, scanReview)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &rv, nil
}

func (r *repo) Create(ctx context.Context, cmd CreateCommand) (*Review, error) {
	if strings.TrimSpace(cmd.Reviewer) == "" {
		return nil, ErrInvalidReviewer
	}

	changed, err := r.changedFromPrediction(ctx, cmd.EmailID, cmd.FinalResponsive)
	if err != nil {
		return nil, err
	}

	q := `
		INSERT INTO reviews(email_id, reviewer, final_responsive, note, changed_from_pred)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, email_id, reviewer, final_responsive, note, changed_from_pred, created_at`

	args := []any{
		cmd.EmailID,
		cmd.Reviewer,
		cmd.FinalResponsive,
		cmd.Note,
		changed,
	}

	rv, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Review, error) {
		return repository.QueryOne(ctx, tx, q, args, scanReview)
	})

	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info(
		"review created",
		"email_id", rv.EmailID,
		"reviewer", rv.Reviewer,
		"changed_from_pred", rv.ChangedFromPred,
	)
	return &rv, nil
}

// changedFromPrediction compares the reviewer's determination against the
// email's latest completed classification. An email with no usable machine
// verdict records false.
func (r *repo) changedFromPrediction(ctx context.Context, emailID int64, final bool) (bool, error) {
	latest, err := r.classifications.LatestByEmail(ctx, emailID)
	if err != nil {
		if errors.Is(err, classifications.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("resolve latest classification: %w", err)
	}

	if latest.Responsive == nil {
		return false, nil
	}
	return *latest.Responsive != final, nil
}
