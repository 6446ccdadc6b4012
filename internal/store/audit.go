package store

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/persistorai/backlog/internal/models"
)

// AuditStore reads the per-field change history of projects and backlogs.
type AuditStore struct {
	Base
}

// NewAuditStore creates an AuditStore.
func NewAuditStore(base Base) *AuditStore {
	return &AuditStore{Base: base}
}

// ListAudits returns the change history of one entity, newest first, with an
// optional field filter and has_more pagination.
func (s *AuditStore) ListAudits(
	ctx context.Context,
	kind models.EntityKind,
	entityID uuid.UUID,
	opts models.AuditQueryOpts,
) ([]models.AuditRecord, bool, error) {
	table, fk, err := auditTable(kind)
	if err != nil {
		return nil, false, err
	}

	limit, offset := clampPage(opts.Limit, opts.Offset)

	q := psql.Select(fmt.Sprintf(auditColumns, fk)).From(table).
		Where(sq.Eq{fk: entityID}).
		OrderBy("created_at DESC", "field_name").
		Limit(uint64(limit + 1)).
		Offset(uint64(offset))

	if opts.FieldName != "" {
		q = q.Where(sq.Eq{"field_name": opts.FieldName})
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, false, fmt.Errorf("building audit query: %w", err)
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, false, fmt.Errorf("querying %s audits: %w", kind, err)
	}
	defer rows.Close()

	records := make([]models.AuditRecord, 0, limit+1)

	for rows.Next() {
		a, err := scanAudit(rows.Scan)
		if err != nil {
			return nil, false, fmt.Errorf("scanning audit row: %w", err)
		}

		records = append(records, a)
	}

	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterating audit rows: %w", err)
	}

	hasMore := len(records) > limit
	if hasMore {
		records = records[:limit]
	}

	return records, hasMore, nil
}
