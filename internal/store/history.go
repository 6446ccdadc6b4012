package store

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/persistorai/backlog/internal/metrics"
	"github.com/persistorai/backlog/internal/models"
)

// Interceptor runs inside a store's write transaction. AfterInsert sees the
// freshly inserted row (with its generated id); BeforeUpdate sees the locked
// current row and the staged replacement, and may mutate the latter before
// it is written.
type Interceptor[E any] interface {
	AfterInsert(ctx context.Context, tx pgx.Tx, created *E) error
	BeforeUpdate(ctx context.Context, tx pgx.Tx, before, after *E) error
}

// fieldChange is one differing tracked field.
type fieldChange struct {
	field    string
	oldValue *string
	newValue *string
}

// diffFields compares two tracked-field maps by canonical string form and
// returns the differing fields sorted by name.
func diffFields(before, after map[string]any) []fieldChange {
	var changes []fieldChange

	for field, newVal := range after {
		oldStr := models.Stringify(before[field])
		newStr := models.Stringify(newVal)

		if sameValue(oldStr, newStr) {
			continue
		}

		changes = append(changes, fieldChange{field: field, oldValue: oldStr, newValue: newStr})
	}

	sort.Slice(changes, func(i, j int) bool { return changes[i].field < changes[j].field })

	return changes
}

func sameValue(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	return *a == *b
}

// RecordFieldChanges inserts one audit row per differing field in a single
// statement. Package-level so every store can call it within its transaction.
func RecordFieldChanges(
	ctx context.Context,
	tx pgx.Tx,
	kind models.EntityKind,
	entityID uuid.UUID,
	before, after map[string]any,
) (int, error) {
	changes := diffFields(before, after)
	if len(changes) == 0 {
		return 0, nil
	}

	table, fk, err := auditTable(kind)
	if err != nil {
		return 0, err
	}

	valueParts := make([]string, 0, len(changes))
	args := make([]any, 0, len(changes)*4)

	for i, c := range changes {
		base := i*4 + 1
		valueParts = append(valueParts, fmt.Sprintf("($%d, $%d, $%d, $%d)", base, base+1, base+2, base+3))
		args = append(args, entityID, c.field, c.oldValue, c.newValue)
	}

	sql := `INSERT INTO ` + table + ` (` + fk + `, field_name, old_value, new_value)
		VALUES ` + strings.Join(valueParts, ", ")

	if _, err := tx.Exec(ctx, sql, args...); err != nil {
		return 0, fmt.Errorf("inserting %s audit records: %w", kind, err)
	}

	metrics.AuditRecordsWritten.WithLabelValues(string(kind)).Add(float64(len(changes)))

	return len(changes), nil
}

// auditTable maps an entity kind to its audit table and foreign key column.
func auditTable(kind models.EntityKind) (table, fk string, err error) {
	switch kind {
	case models.EntityProject:
		return "project_audits", "project_id", nil
	case models.EntityBacklog:
		return "backlog_audits", "backlog_id", nil
	default:
		return "", "", fmt.Errorf("unknown audit entity %q", kind)
	}
}

// ProjectAuditor records project field changes.
type ProjectAuditor struct{}

// AfterInsert is a no-op; a new project has no history.
func (ProjectAuditor) AfterInsert(context.Context, pgx.Tx, *models.Project) error {
	return nil
}

// BeforeUpdate writes one audit row per changed tracked field.
func (ProjectAuditor) BeforeUpdate(ctx context.Context, tx pgx.Tx, before, after *models.Project) error {
	_, err := RecordFieldChanges(ctx, tx, models.EntityProject, before.ID, before.AuditFields(), after.AuditFields())
	return err
}

// BacklogAuditor records backlog field changes and maintains ref_id.
type BacklogAuditor struct{}

// AfterInsert assigns the derived ref_id once the generated id exists.
func (BacklogAuditor) AfterInsert(ctx context.Context, tx pgx.Tx, created *models.Backlog) error {
	ref := models.RefID(created.ProjectSlug, created.SprintNumber, created.ID)

	if _, err := tx.Exec(ctx, `UPDATE backlogs SET ref_id = $1 WHERE id = $2`, ref, created.ID); err != nil {
		if pgCode(err) == pgUniqueViolation {
			return models.ErrDuplicateKey
		}

		return fmt.Errorf("assigning ref_id: %w", err)
	}

	created.RefID = ref

	return nil
}

// BeforeUpdate writes one audit row per changed tracked field and, when
// anything changed, re-derives ref_id on the staged row.
func (BacklogAuditor) BeforeUpdate(ctx context.Context, tx pgx.Tx, before, after *models.Backlog) error {
	n, err := RecordFieldChanges(ctx, tx, models.EntityBacklog, before.ID, before.AuditFields(), after.AuditFields())
	if err != nil {
		return err
	}

	if n > 0 {
		after.RefID = models.RefID(after.ProjectSlug, after.SprintNumber, after.ID)
	}

	return nil
}
