package store

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/persistorai/backlog/internal/models"
)

// ProjectStore handles project CRUD operations.
type ProjectStore struct {
	Base
	interceptor Interceptor[models.Project]
}

// NewProjectStore creates a ProjectStore that audits updates with ProjectAuditor.
func NewProjectStore(base Base) *ProjectStore {
	return &ProjectStore{Base: base, interceptor: ProjectAuditor{}}
}

// ListProjects returns projects ordered by creation time, newest first.
func (s *ProjectStore) ListProjects(ctx context.Context, f models.ProjectFilter) ([]models.Project, bool, error) {
	limit, offset := clampPage(f.Limit, f.Offset)

	q := psql.Select(projectColumns).From("projects").
		OrderBy("created_at DESC", "id").
		Limit(uint64(limit + 1)).
		Offset(uint64(offset))

	if f.Pinned != nil {
		q = q.Where(sq.Eq{"pinned": *f.Pinned})
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, false, fmt.Errorf("building project list query: %w", err)
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, false, fmt.Errorf("listing projects: %w", err)
	}
	defer rows.Close()

	projects := make([]models.Project, 0, limit+1)

	for rows.Next() {
		p, err := scanProject(rows.Scan)
		if err != nil {
			return nil, false, fmt.Errorf("scanning project row: %w", err)
		}

		projects = append(projects, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterating project rows: %w", err)
	}

	hasMore := len(projects) > limit
	if hasMore {
		projects = projects[:limit]
	}

	return projects, hasMore, nil
}

// GetProject returns a single project by id.
func (s *ProjectStore) GetProject(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	return s.getProjectBy(ctx, "id", id)
}

// GetProjectBySlug returns a single project by slug.
func (s *ProjectStore) GetProjectBySlug(ctx context.Context, slug string) (*models.Project, error) {
	return s.getProjectBy(ctx, "slug", slug)
}

func (s *ProjectStore) getProjectBy(ctx context.Context, column string, value any) (*models.Project, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	row := s.DB.QueryRow(ctx, `SELECT `+projectColumns+` FROM projects WHERE `+column+` = $1`, value)

	p, err := scanProject(row.Scan)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrProjectNotFound
		}

		return nil, fmt.Errorf("getting project: %w", err)
	}

	return p, nil
}

// CreateProject inserts a project and returns the stored row.
func (s *ProjectStore) CreateProject(ctx context.Context, p *models.Project) (*models.Project, error) {
	metaJSON, err := models.MarshalMeta(p.PluginMeta)
	if err != nil {
		return nil, err
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var created *models.Project

	err = s.inTx(ctx, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx,
			`INSERT INTO projects (name, slug, description, pinned, plugin_meta)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING `+projectColumns,
			p.Name, p.Slug, p.Description, p.Pinned, metaJSON,
		)

		created, err = scanProject(row.Scan)
		if err != nil {
			if pgCode(err) == pgUniqueViolation {
				return models.ErrDuplicateKey
			}

			return fmt.Errorf("inserting project: %w", err)
		}

		return s.interceptor.AfterInsert(ctx, tx, created)
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}

// UpdateProject replaces the writable fields of a project. Field changes are
// audited in the same transaction; plugin_meta is merged into the stored map.
// The slug can only change while no backlog references it.
func (s *ProjectStore) UpdateProject(ctx context.Context, id uuid.UUID, in *models.Project) (*models.Project, error) {
	metaJSON, err := models.MarshalMeta(in.PluginMeta)
	if err != nil {
		return nil, err
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var updated *models.Project

	err = s.inTx(ctx, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = $1 FOR UPDATE`, id)

		before, err := scanProject(row.Scan)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return models.ErrProjectNotFound
			}

			return fmt.Errorf("locking project: %w", err)
		}

		after := *before
		after.Apply(in)

		if err := s.interceptor.BeforeUpdate(ctx, tx, before, &after); err != nil {
			return err
		}

		row = tx.QueryRow(ctx,
			`UPDATE projects
			SET name = $1, slug = $2, description = $3, pinned = $4,
				plugin_meta = plugin_meta || $5::jsonb
			WHERE id = $6
			RETURNING `+projectColumns,
			after.Name, after.Slug, after.Description, after.Pinned, metaJSON, id,
		)

		updated, err = scanProject(row.Scan)
		if err != nil {
			switch pgCode(err) {
			case pgUniqueViolation:
				return models.ErrDuplicateKey
			case pgForeignKeyViolation:
				return models.ErrProjectHasBacklogs
			default:
				return fmt.Errorf("updating project: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// DeleteProject removes a project and returns the deleted row. Its backlogs
// and all audit rows go with it.
func (s *ProjectStore) DeleteProject(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	row := s.DB.QueryRow(ctx, `DELETE FROM projects WHERE id = $1 RETURNING `+projectColumns, id)

	p, err := scanProject(row.Scan)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrProjectNotFound
		}

		return nil, fmt.Errorf("deleting project: %w", err)
	}

	return p, nil
}

// SavePluginMeta overwrites plugin_meta without touching audited fields.
func (s *ProjectStore) SavePluginMeta(ctx context.Context, id uuid.UUID, meta models.PluginMeta) error {
	return savePluginMeta(ctx, s.DB, "projects", id, meta, models.ErrProjectNotFound)
}

func savePluginMeta(ctx context.Context, db DB, table string, id uuid.UUID, meta models.PluginMeta, notFound error) error {
	metaJSON, err := models.MarshalMeta(meta)
	if err != nil {
		return err
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tag, err := db.Exec(ctx, `UPDATE `+table+` SET plugin_meta = $1 WHERE id = $2`, metaJSON, id)
	if err != nil {
		return fmt.Errorf("saving %s plugin_meta: %w", table, err)
	}

	if tag.RowsAffected() == 0 {
		return notFound
	}

	return nil
}
