package store

import (
	"github.com/persistorai/backlog/internal/models"
)

// projectColumns lists the columns selected for project queries.
const projectColumns = `id, name, slug, description, pinned, plugin_meta, created_at, updated_at`

// backlogColumns lists the columns selected for backlog queries. project_name
// is resolved from the owning project so it is always current.
const backlogColumns = `id, title, description, ref_id, type, progress, sprint_number,
	priority, status, category, est_days, beg_date, end_date, due_date,
	assignee_name, project_slug,
	(SELECT p.name FROM projects p WHERE p.slug = backlogs.project_slug) AS project_name,
	plugin_meta, created_at, updated_at`

// auditColumns lists the columns selected for audit queries (entity key aliased).
const auditColumns = `id, %s AS entity_id, field_name, old_value, new_value, created_at`

// scanProject scans a single row into a models.Project.
func scanProject(scan func(dest ...any) error) (*models.Project, error) {
	var p models.Project
	var meta []byte

	if err := scan(
		&p.ID,
		&p.Name,
		&p.Slug,
		&p.Description,
		&p.Pinned,
		&meta,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return nil, err
	}

	var err error
	if p.PluginMeta, err = models.UnmarshalMeta(meta); err != nil {
		return nil, err
	}

	return &p, nil
}

// scanBacklog scans a single row into a models.Backlog.
func scanBacklog(scan func(dest ...any) error) (*models.Backlog, error) {
	var b models.Backlog
	var refID, projectName *string
	var meta []byte

	if err := scan(
		&b.ID,
		&b.Title,
		&b.Description,
		&refID,
		&b.Type,
		&b.Progress,
		&b.SprintNumber,
		&b.Priority,
		&b.Status,
		&b.Category,
		&b.EstDays,
		&b.BegDate,
		&b.EndDate,
		&b.DueDate,
		&b.AssigneeName,
		&b.ProjectSlug,
		&projectName,
		&meta,
		&b.CreatedAt,
		&b.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if refID != nil {
		b.RefID = *refID
	}

	if projectName != nil {
		b.ProjectName = *projectName
	}

	var err error
	if b.PluginMeta, err = models.UnmarshalMeta(meta); err != nil {
		return nil, err
	}

	return &b, nil
}

// scanAudit scans a single row into a models.AuditRecord.
func scanAudit(scan func(dest ...any) error) (models.AuditRecord, error) {
	var a models.AuditRecord

	err := scan(&a.ID, &a.EntityID, &a.FieldName, &a.OldValue, &a.NewValue, &a.CreatedAt)

	return a, err
}
