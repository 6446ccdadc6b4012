package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/persistorai/backlog/internal/models"
)

// BacklogStore handles backlog CRUD operations.
type BacklogStore struct {
	Base
	interceptor Interceptor[models.Backlog]
	now         func() time.Time
}

// NewBacklogStore creates a BacklogStore that audits updates and assigns
// ref_id with BacklogAuditor.
func NewBacklogStore(base Base) *BacklogStore {
	return &BacklogStore{Base: base, interceptor: BacklogAuditor{}, now: time.Now}
}

// ListBacklogs returns backlogs matching f, newest first.
func (s *BacklogStore) ListBacklogs(ctx context.Context, f models.BacklogFilter) ([]models.Backlog, bool, error) {
	limit, offset := clampPage(f.Limit, f.Offset)

	q := psql.Select(backlogColumns).From("backlogs").
		OrderBy("created_at DESC", "id").
		Limit(uint64(limit + 1)).
		Offset(uint64(offset))

	eq := sq.Eq{}
	if f.ProjectSlug != "" {
		eq["project_slug"] = f.ProjectSlug
	}
	if f.Status != "" {
		eq["status"] = f.Status
	}
	if f.Type != "" {
		eq["type"] = f.Type
	}
	if f.AssigneeName != "" {
		eq["assignee_name"] = f.AssigneeName
	}
	if f.SprintNumber != nil {
		eq["sprint_number"] = *f.SprintNumber
	}
	if len(eq) > 0 {
		q = q.Where(eq)
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, false, fmt.Errorf("building backlog list query: %w", err)
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, false, fmt.Errorf("listing backlogs: %w", err)
	}
	defer rows.Close()

	backlogs := make([]models.Backlog, 0, limit+1)

	for rows.Next() {
		b, err := scanBacklog(rows.Scan)
		if err != nil {
			return nil, false, fmt.Errorf("scanning backlog row: %w", err)
		}

		backlogs = append(backlogs, *b)
	}

	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterating backlog rows: %w", err)
	}

	hasMore := len(backlogs) > limit
	if hasMore {
		backlogs = backlogs[:limit]
	}

	return backlogs, hasMore, nil
}

// ListBacklogsByProject returns the backlogs of one project.
func (s *BacklogStore) ListBacklogsByProject(ctx context.Context, slug string, limit, offset int) ([]models.Backlog, bool, error) {
	return s.ListBacklogs(ctx, models.BacklogFilter{ProjectSlug: slug, Limit: limit, Offset: offset})
}

// GetBacklog returns a single backlog by id.
func (s *BacklogStore) GetBacklog(ctx context.Context, id uuid.UUID) (*models.Backlog, error) {
	return s.getBacklogBy(ctx, "id", id)
}

// GetBacklogByRefID returns a single backlog by its derived reference.
func (s *BacklogStore) GetBacklogByRefID(ctx context.Context, ref string) (*models.Backlog, error) {
	return s.getBacklogBy(ctx, "ref_id", ref)
}

func (s *BacklogStore) getBacklogBy(ctx context.Context, column string, value any) (*models.Backlog, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	row := s.DB.QueryRow(ctx, `SELECT `+backlogColumns+` FROM backlogs WHERE `+column+` = $1`, value)

	b, err := scanBacklog(row.Scan)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrBacklogNotFound
		}

		return nil, fmt.Errorf("getting backlog: %w", err)
	}

	return b, nil
}

// CreateBacklog inserts a backlog and assigns its ref_id in the same transaction.
func (s *BacklogStore) CreateBacklog(ctx context.Context, in *models.Backlog) (*models.Backlog, error) {
	b := in.Clone()
	b.ApplyDefaults(s.now())
	b.TruncateDates()

	metaJSON, err := models.MarshalMeta(b.PluginMeta)
	if err != nil {
		return nil, err
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var created *models.Backlog

	err = s.inTx(ctx, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx,
			`INSERT INTO backlogs (title, description, type, progress, sprint_number, priority,
				status, category, est_days, beg_date, end_date, due_date, assignee_name,
				project_slug, plugin_meta)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
			RETURNING `+backlogColumns,
			b.Title, b.Description, b.Type, b.Progress, b.SprintNumber, b.Priority,
			b.Status, b.Category, b.EstDays, b.BegDate, b.EndDate, b.DueDate, b.AssigneeName,
			b.ProjectSlug, metaJSON,
		)

		created, err = scanBacklog(row.Scan)
		if err != nil {
			return mapBacklogWriteErr("inserting backlog", err)
		}

		return s.interceptor.AfterInsert(ctx, tx, created)
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}

// UpdateBacklog replaces the writable fields of a backlog. Changed fields are
// audited and ref_id re-derived before the row is written; plugin_meta is
// merged into the stored map.
func (s *BacklogStore) UpdateBacklog(ctx context.Context, id uuid.UUID, in *models.Backlog) (*models.Backlog, error) {
	metaJSON, err := models.MarshalMeta(in.PluginMeta)
	if err != nil {
		return nil, err
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var updated *models.Backlog

	err = s.inTx(ctx, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `SELECT `+backlogColumns+` FROM backlogs WHERE id = $1 FOR UPDATE`, id)

		before, err := scanBacklog(row.Scan)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return models.ErrBacklogNotFound
			}

			return fmt.Errorf("locking backlog: %w", err)
		}

		after := before.Clone()
		after.Apply(in)
		after.TruncateDates()

		if err := s.interceptor.BeforeUpdate(ctx, tx, before, after); err != nil {
			return err
		}

		row = tx.QueryRow(ctx,
			`UPDATE backlogs
			SET title = $1, description = $2, type = $3, progress = $4, sprint_number = $5,
				priority = $6, status = $7, category = $8, est_days = $9, beg_date = $10,
				end_date = $11, due_date = $12, assignee_name = $13, project_slug = $14,
				ref_id = $15, plugin_meta = plugin_meta || $16::jsonb
			WHERE id = $17
			RETURNING `+backlogColumns,
			after.Title, after.Description, after.Type, after.Progress, after.SprintNumber,
			after.Priority, after.Status, after.Category, after.EstDays, after.BegDate,
			after.EndDate, after.DueDate, after.AssigneeName, after.ProjectSlug,
			after.RefID, metaJSON, id,
		)

		updated, err = scanBacklog(row.Scan)
		if err != nil {
			return mapBacklogWriteErr("updating backlog", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// DeleteBacklog removes a backlog and returns the deleted row. Its audit
// rows are removed by cascade.
func (s *BacklogStore) DeleteBacklog(ctx context.Context, id uuid.UUID) (*models.Backlog, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	row := s.DB.QueryRow(ctx, `DELETE FROM backlogs WHERE id = $1 RETURNING `+backlogColumns, id)

	b, err := scanBacklog(row.Scan)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrBacklogNotFound
		}

		return nil, fmt.Errorf("deleting backlog: %w", err)
	}

	return b, nil
}

// SavePluginMeta overwrites plugin_meta without touching audited fields.
func (s *BacklogStore) SavePluginMeta(ctx context.Context, id uuid.UUID, meta models.PluginMeta) error {
	return savePluginMeta(ctx, s.DB, "backlogs", id, meta, models.ErrBacklogNotFound)
}

func mapBacklogWriteErr(op string, err error) error {
	switch pgCode(err) {
	case pgUniqueViolation:
		return models.ErrDuplicateKey
	case pgForeignKeyViolation:
		return models.ErrUnknownProject
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
