package emails

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/colefield/sift/internal/projects"
	"github.com/colefield/sift/pkg/pagination"
	"github.com/colefield/sift/pkg/query"
	"github.com/colefield/sift/pkg/repository"
)

type repo struct {
	db         *sql.DB
	projects   projects.System
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates an email repository implementing the System interface.
func New(
	db *sql.DB,
	projectSys projects.System,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	return &repo{
		db:         db,
		projects:   projectSys,
		logger:     logger.With("system", "emails"),
		pagination: pagination,
	}
}

func (r *repo) Handler(maxUploadSize int64) *Handler {
	return NewHandler(r, r.logger, r.pagination, maxUploadSize)
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Email], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "Subject", "FromAddr", "ToAddr")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count emails: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanEmail)
	if err != nil {
		return nil, fmt.Errorf("query emails: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id int64) (*Email, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	e, err := repository.QueryOne(ctx, r.db, q, args, scanEmail)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &e, nil
}

func (r *repo) FindByHash(ctx context.Context, projectID int64, hash string) (*Email, error) {
	q, args := query.
		NewBuilder(projection).
		WhereEquals("ProjectID", projectID).
		WhereEquals("ContentHash", hash).
		BuildSingleOrNull()

	e, err := repository.QueryOne(ctx, r.db, q, args, scanEmail)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &e, nil
}

func (r *repo) Ingest(ctx context.Context, cmd IngestCommand) (*IngestResult, error) {
	if len(cmd.Items) == 0 {
		return nil, ErrEmptyBatch
	}

	project, err := r.resolveProject(ctx, cmd)
	if err != nil {
		return nil, err
	}

	result := &IngestResult{
		ProjectID:      project.ID,
		ProjectName:    project.Name,
		DuplicateFiles: []DuplicateFile{},
		ProcessedFiles: []string{},
		Errors:         []FileError{},
	}

	insert := `
		INSERT INTO emails(project_id, path, content_hash, subject, from_addr, to_addr, date, body_text, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, project_id, path, content_hash, subject, from_addr, to_addr, date, body_text, metadata, created_at`

	_, err = repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		dupQ := `SELECT id FROM emails WHERE project_id = $1 AND content_hash = $2`

		for _, item := range cmd.Items {
			var existingID int64
			err := tx.QueryRowContext(ctx, dupQ, project.ID, item.Hash).Scan(&existingID)
			if err != nil && !errors.Is(err, sql.ErrNoRows) {
				return struct{}{}, fmt.Errorf("check duplicate: %w", err)
			}

			if err == nil {
				result.Duplicates++
				result.DuplicateFiles = append(result.DuplicateFiles, DuplicateFile{
					Filename: item.Path,
					EmailID:  existingID,
				})
				continue
			}

			metadata, err := json.Marshal(item.Metadata)
			if err != nil {
				return struct{}{}, fmt.Errorf("marshal email metadata: %w", err)
			}

			args := []any{
				project.ID,
				item.Path,
				item.Hash,
				item.Subject,
				item.FromAddr,
				item.ToAddr,
				item.Date,
				item.BodyText,
				metadata,
			}

			if _, err := repository.QueryOne(ctx, tx, insert, args, scanEmail); err != nil {
				return struct{}{}, fmt.Errorf("insert email %q: %w", item.Path, err)
			}

			result.Created++
			result.ProcessedFiles = append(result.ProcessedFiles, item.Path)
		}

		return struct{}{}, nil
	})

	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info(
		"ingest complete",
		"project_id", project.ID,
		"created", result.Created,
		"duplicates", result.Duplicates,
	)

	return result, nil
}

func (r *repo) ListUnclassified(ctx context.Context, projectID int64, runID string) ([]Email, error) {
	q := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE e.project_id = $1
		AND e.id NOT IN (
			SELECT email_id FROM classifications WHERE run_id = $2
		)
		ORDER BY e.id`,
		projection.Columns(),
		projection.From(),
	)

	items, err := repository.QueryMany(ctx, r.db, q, []any{projectID, runID}, scanEmail)
	if err != nil {
		return nil, fmt.Errorf("query unclassified emails: %w", err)
	}

	return items, nil
}

func (r *repo) resolveProject(ctx context.Context, cmd IngestCommand) (*projects.Project, error) {
	if cmd.ProjectID != nil {
		return r.projects.Find(ctx, *cmd.ProjectID)
	}

	name := cmd.ProjectName
	if name == "" {
		name = "Import_" + time.Now().Format("20060102_150405")
	}

	createdVia := cmd.CreatedVia
	if createdVia == "" {
		createdVia = "api_ingest"
	}

	return r.projects.GetOrCreate(ctx, name, map[string]any{
		"created_via":      createdVia,
		"import_timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
