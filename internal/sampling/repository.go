package sampling

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/colefield/sift/pkg/pagination"
	"github.com/colefield/sift/pkg/query"
	"github.com/colefield/sift/pkg/repository"
)

type repo struct {
	db         *sql.DB
	threshold  float64
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates a sampling repository implementing the System interface.
// threshold is the confidence boundary between the low and high strata.
func New(db *sql.DB, threshold float64, logger *slog.Logger, pagination pagination.Config) System {
	return &repo{
		db:         db,
		threshold:  threshold,
		logger:     logger.With("system", "sampling"),
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
) (*pagination.PageResult[Sampling], error) {
	page.Normalize(r.pagination)

	qb := query.NewBuilder(projection, defaultSort)
	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count samplings: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanSampling)
	if err != nil {
		return nil, fmt.Errorf("query samplings: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id int64) (*Sampling, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	sp, err := repository.QueryOne(ctx, r.db, q, args, scanSampling)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &sp, nil
}

func (r *repo) Create(ctx context.Context, cmd CreateCommand) (*Sampling, error) {
	if cmd.Size <= 0 {
		return nil, ErrInvalidSize
	}

	candidates, err := r.candidates(ctx, cmd.ProjectID)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, ErrNoCandidates
	}

	drawn := Draw(candidates, cmd.Size, cmd.Seed, r.threshold)

	strataCounts := map[string]int{}
	for _, d := range drawn {
		strataCounts[d.Stratum]++
	}

	method, err := json.Marshal(map[string]any{
		"type":      "stratified_confidence",
		"threshold": r.threshold,
		"strata":    strataCounts,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal sampling method: %w", err)
	}

	insertSampling := `
		INSERT INTO samplings(project_id, seed, size, method)
		VALUES ($1, $2, $3, $4)
		RETURNING id, project_id, seed, size, method, completed, created_at`

	sp, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Sampling, error) {
		sp, err := repository.QueryOne(
			ctx, tx, insertSampling,
			[]any{cmd.ProjectID, cmd.Seed, len(drawn), method},
			scanSampling,
		)
		if err != nil {
			return sp, err
		}

		insertItem := `
			INSERT INTO sampling_items(sampling_id, email_id, stratum)
			VALUES ($1, $2, $3)`

		for _, d := range drawn {
			if _, err := tx.ExecContext(ctx, insertItem, sp.ID, d.EmailID, d.Stratum); err != nil {
				return sp, fmt.Errorf("insert sampling item: %w", err)
			}
		}

		return sp, nil
	})

	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info(
		"sampling created",
		"id", sp.ID,
		"project_id", sp.ProjectID,
		"size", sp.Size,
		"seed", sp.Seed,
	)
	return &sp, nil
}

func (r *repo) Items(ctx context.Context, samplingID int64, labeledOnly bool) ([]Item, error) {
	var conditions []string
	conditions = append(conditions, "si.sampling_id = $1")
	if labeledOnly {
		conditions = append(conditions, "si.human_label IS NOT NULL")
	}

	q := fmt.Sprintf(
		"SELECT %s FROM %s WHERE %s ORDER BY si.id",
		itemProjection.Columns(),
		itemProjection.From(),
		strings.Join(conditions, " AND "),
	)

	items, err := repository.QueryMany(ctx, r.db, q, []any{samplingID}, scanItem)
	if err != nil {
		return nil, fmt.Errorf("query sampling items: %w", err)
	}
	return items, nil
}

func (r *repo) NextUnlabeled(ctx context.Context, samplingID int64) (*Item, error) {
	q := fmt.Sprintf(
		"SELECT %s FROM %s WHERE si.sampling_id = $1 AND si.human_label IS NULL ORDER BY si.id LIMIT 1",
		itemProjection.Columns(),
		itemProjection.From(),
	)

	it, err := repository.QueryOne(ctx, r.db, q, []any{samplingID}, scanItem)
	if err != nil {
		return nil, repository.MapError(err, ErrAllLabeled, ErrDuplicate)
	}
	return &it, nil
}

func (r *repo) Label(ctx context.Context, itemID int64, cmd LabelCommand) (*Item, error) {
	if strings.TrimSpace(cmd.Reviewer) == "" {
		return nil, ErrInvalidReviewer
	}

	update := fmt.Sprintf(`
		UPDATE sampling_items
		SET human_label = $2, reviewer = $3, reviewed_at = now()
		WHERE id = $1
		RETURNING %s`,
		strings.ReplaceAll(itemProjection.Columns(), "si.", ""),
	)

	it, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Item, error) {
		it, err := repository.QueryOne(
			ctx, tx, update,
			[]any{itemID, cmd.HumanLabel, cmd.Reviewer},
			scanItem,
		)
		if err != nil {
			return it, err
		}

		var remaining int
		err = tx.QueryRowContext(
			ctx,
			`SELECT COUNT(*) FROM sampling_items WHERE sampling_id = $1 AND human_label IS NULL`,
			it.SamplingID,
		).Scan(&remaining)
		if err != nil {
			return it, fmt.Errorf("count unlabeled items: %w", err)
		}

		if remaining == 0 {
			if _, err := tx.ExecContext(
				ctx,
				`UPDATE samplings SET completed = true WHERE id = $1`,
				it.SamplingID,
			); err != nil {
				return it, fmt.Errorf("mark sampling completed: %w", err)
			}
		}

		return it, nil
	})

	if err != nil {
		return nil, repository.MapError(err, ErrItemNotFound, ErrDuplicate)
	}

	r.logger.Info(
		"sampling item labeled",
		"item_id", it.ID,
		"sampling_id", it.SamplingID,
		"reviewer", it.Reviewer,
	)
	return &it, nil
}

// candidates returns the project's emails joined to the confidence of their
// latest completed classification, ordered by email id for reproducibility.
func (r *repo) candidates(ctx context.Context, projectID int64) ([]Candidate, error) {
	q := `
		SELECT e.id, lc.confidence
		FROM emails e
		LEFT JOIN LATERAL (
			SELECT confidence FROM classifications
			WHERE email_id = e.id AND status = 'completed'
			ORDER BY created_at DESC
			LIMIT 1
		) lc ON true
		WHERE e.project_id = $1
		ORDER BY e.id`

	candidates, err := repository.QueryMany(
		ctx, r.db, q, []any{projectID},
		func(s repository.Scanner) (Candidate, error) {
			var c Candidate
			var confidence sql.NullFloat64
			if err := s.Scan(&c.EmailID, &confidence); err != nil {
				return c, err
			}
			if confidence.Valid {
				c.Confidence = &confidence.Float64
			}
			return c, nil
		},
	)
	if err != nil {
		return nil, fmt.Errorf("query sampling candidates: %w", err)
	}

	return candidates, nil
}
