package projects

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/colefield/sift/pkg/pagination"
	"github.com/colefield/sift/pkg/query"
	"github.com/colefield/sift/pkg/repository"
)

type repo struct {
	db         *sql.DB
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates a project repository implementing the System interface.
func New(db *sql.DB, logger *slog.Logger, pagination pagination.Config) System {
	return &repo{
		db:         db,
		logger:     logger.With("system", "projects"),
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
) (*pagination.PageResult[Project], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "Name")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count projects: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanProject)
	if err != nil {
		return nil, fmt.Errorf("query projects: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id int64) (*Project, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	p, err := repository.QueryOne(ctx, r.db, q, args, scanProject)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &p, nil
}

func (r *repo) FindByName(ctx context.Context, name string) (*Project, error) {
	q, args := query.
		NewBuilder(projection).
		WhereEquals("Name", name).
		BuildSingleOrNull()

	p, err := repository.QueryOne(ctx, r.db, q, args, scanProject)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &p, nil
}

func (r *repo) Create(ctx context.Context, cmd CreateCommand) (*Project, error) {
	if strings.TrimSpace(cmd.Name) == "" {
		return nil, ErrInvalidName
	}

	config, err := marshalConfig(cmd.Config)
	if err != nil {
		return nil, fmt.Errorf("marshal project config: %w", err)
	}

	q := `
		INSERT INTO projects(name, config)
		VALUES ($1, $2)
		RETURNING id, name, config, created_at`

	p, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Project, error) {
		return repository.QueryOne(ctx, tx, q, []any{cmd.Name, config}, scanProject)
	})

	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("project created", "id", p.ID, "name", p.Name)
	return &p, nil
}

func (r *repo) Update(ctx context.Context, id int64, cmd UpdateCommand) (*Project, error) {
	current, err := r.Find(ctx, id)
	if err != nil {
		return nil, err
	}

	name := current.Name
	if cmd.Name != nil {
		if strings.TrimSpace(*cmd.Name) == "" {
			return nil, ErrInvalidName
		}
		name = *cmd.Name
	}

	configMap := current.Config
	if cmd.Config != nil {
		configMap = cmd.Config
	}

	config, err := marshalConfig(configMap)
	if err != nil {
		return nil, fmt.Errorf("marshal project config: %w", err)
	}

	q := `
		UPDATE projects
		SET name = $2, config = $3
		WHERE id = $1
		RETURNING id, name, config, created_at`

	p, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Project, error) {
		return repository.QueryOne(ctx, tx, q, []any{id, name, config}, scanProject)
	})

	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("project updated", "id", p.ID, "name", p.Name)
	return &p, nil
}

func (r *repo) GetOrCreate(ctx context.Context, name string, config map[string]any) (*Project, error) {
	p, err := r.FindByName(ctx, name)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	p, err = r.Create(ctx, CreateCommand{Name: name, Config: config})
	if err == nil {
		return p, nil
	}

	// A concurrent ingest may have created it between lookup and insert.
	if errors.Is(err, ErrDuplicate) {
		return r.FindByName(ctx, name)
	}
	return nil, err
}
