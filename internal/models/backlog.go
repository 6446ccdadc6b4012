package models

import (
	"time"

	"github.com/google/uuid"
)

// DefaultBacklogType is assigned when a backlog is created without a type.
const DefaultBacklogType = "backlog"

// Customary marker values. Backlog fields accept any string; these are only
// the values the chat formatting was designed around.
const (
	PriorityLow    = "🟢"
	PriorityMedium = "🟡"
	PriorityHigh   = "🔴"

	ProgressNone  = "🟨🟨🟨"
	ProgressThird = "🟩🟨🟨"
	ProgressTwo   = "🟩🟩🟨"
	ProgressDone  = "🟩🟩🟩"

	StatusTodo      = "🔅"
	StatusWorking   = "🚧"
	StatusReview    = "✔️"
	StatusDone      = "✅"
	StatusCancelled = "🚫"
)

// Backlog is a single work item belonging to a project.
type Backlog struct {
	ID           uuid.UUID  `json:"id"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	RefID        string     `json:"ref_id"`
	Type         string     `json:"type"`
	Progress     string     `json:"progress"`
	SprintNumber int        `json:"sprint_number"`
	Priority     string     `json:"priority"`
	Status       string     `json:"status"`
	Category     string     `json:"category"`
	EstDays      *float64   `json:"est_days"`
	BegDate      time.Time  `json:"beg_date"`
	EndDate      time.Time  `json:"end_date"`
	DueDate      time.Time  `json:"due_date"`
	AssigneeName string     `json:"assignee_name"`
	ProjectSlug  string     `json:"project_slug"`
	ProjectName  string     `json:"project_name"`
	PluginMeta   PluginMeta `json:"plugin_meta"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// AuditFields returns the tracked fields of a backlog keyed by column name.
func (b *Backlog) AuditFields() map[string]any {
	return map[string]any{
		"title":         b.Title,
		"description":   b.Description,
		"type":          b.Type,
		"progress":      b.Progress,
		"sprint_number": b.SprintNumber,
		"priority":      b.Priority,
		"status":        b.Status,
		"category":      b.Category,
		"est_days":      b.EstDays,
		"beg_date":      b.BegDate,
		"end_date":      b.EndDate,
		"due_date":      b.DueDate,
		"assignee_name": b.AssigneeName,
		"project_slug":  b.ProjectSlug,
	}
}

// ApplyDefaults fills the fields a new backlog may omit.
func (b *Backlog) ApplyDefaults(now time.Time) {
	if b.Type == "" {
		b.Type = DefaultBacklogType
	}

	if b.BegDate.IsZero() {
		b.BegDate = now
	}

	if b.EndDate.IsZero() {
		b.EndDate = now
	}

	if b.DueDate.IsZero() {
		if b.EstDays != nil {
			b.DueDate = DueDateFrom(b.BegDate, *b.EstDays)
		} else {
			b.DueDate = now
		}
	}
}

// TruncateDates drops sub-microsecond precision from the dates, matching what
// the database stores.
func (b *Backlog) TruncateDates() {
	b.BegDate = b.BegDate.Truncate(time.Microsecond)
	b.EndDate = b.EndDate.Truncate(time.Microsecond)
	b.DueDate = b.DueDate.Truncate(time.Microsecond)
}

// Apply copies the writable fields of src onto b. Zero dates, an empty type
// and an empty project slug keep the current values.
func (b *Backlog) Apply(src *Backlog) {
	b.Title = src.Title
	b.Description = src.Description
	if src.Type != "" {
		b.Type = src.Type
	}
	b.Progress = src.Progress
	b.SprintNumber = src.SprintNumber
	b.Priority = src.Priority
	b.Status = src.Status
	b.Category = src.Category
	b.EstDays = src.EstDays
	if !src.BegDate.IsZero() {
		b.BegDate = src.BegDate
	}
	if !src.EndDate.IsZero() {
		b.EndDate = src.EndDate
	}
	if !src.DueDate.IsZero() {
		b.DueDate = src.DueDate
	}
	b.AssigneeName = src.AssigneeName
	if src.ProjectSlug != "" {
		b.ProjectSlug = src.ProjectSlug
	}
}

// Clone returns a copy that shares no mutable state with b.
func (b *Backlog) Clone() *Backlog {
	out := *b
	out.PluginMeta = b.PluginMeta.Clone()
	if b.EstDays != nil {
		est := *b.EstDays
		out.EstDays = &est
	}

	return &out
}

// BacklogInput is the payload for creating or replacing a backlog.
type BacklogInput struct {
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	Type         string     `json:"type"`
	Progress     string     `json:"progress"`
	SprintNumber int        `json:"sprint_number"`
	Priority     string     `json:"priority"`
	Status       string     `json:"status"`
	Category     string     `json:"category"`
	EstDays      *float64   `json:"est_days,omitempty"`
	BegDate      *time.Time `json:"beg_date,omitempty"`
	EndDate      *time.Time `json:"end_date,omitempty"`
	DueDate      *time.Time `json:"due_date,omitempty"`
	AssigneeName string     `json:"assignee_name"`
	ProjectSlug  string     `json:"project_slug"`
	PluginMeta   PluginMeta `json:"plugin_meta,omitempty"`
}

// Validate checks required fields and limits on BacklogInput.
func (r *BacklogInput) Validate() error {
	if r.Title == "" {
		return ErrMissingTitle
	}

	if len(r.Title) > 500 {
		return ErrFieldTooLong("title", 500)
	}

	if len(r.Description) > 20000 {
		return ErrFieldTooLong("description", 20000)
	}

	if r.ProjectSlug == "" {
		return ErrMissingProjectSlug
	}

	if len(r.ProjectSlug) > 64 {
		return ErrFieldTooLong("project_slug", 64)
	}

	if r.SprintNumber < 0 {
		return ErrNegativeSprint
	}

	if r.EstDays != nil && *r.EstDays < 0 {
		return ErrNegativeEstimate
	}

	for field, v := range map[string]string{
		"type":          r.Type,
		"progress":      r.Progress,
		"priority":      r.Priority,
		"status":        r.Status,
		"category":      r.Category,
		"assignee_name": r.AssigneeName,
	} {
		if len(v) > 100 {
			return ErrFieldTooLong(field, 100)
		}
	}

	return nil
}

// ToModel converts the payload to an unsaved Backlog. Omitted dates stay zero.
func (r *BacklogInput) ToModel() *Backlog {
	b := &Backlog{
		Title:        r.Title,
		Description:  r.Description,
		Type:         r.Type,
		Progress:     r.Progress,
		SprintNumber: r.SprintNumber,
		Priority:     r.Priority,
		Status:       r.Status,
		Category:     r.Category,
		EstDays:      r.EstDays,
		AssigneeName: r.AssigneeName,
		ProjectSlug:  r.ProjectSlug,
		PluginMeta:   r.PluginMeta.Clone(),
	}

	if r.BegDate != nil {
		b.BegDate = *r.BegDate
	}
	if r.EndDate != nil {
		b.EndDate = *r.EndDate
	}
	if r.DueDate != nil {
		b.DueDate = *r.DueDate
	}

	return b
}

// BacklogFilter narrows a backlog listing. Zero values are ignored.
type BacklogFilter struct {
	ProjectSlug  string
	Status       string
	Type         string
	AssigneeName string
	SprintNumber *int
	Limit        int
	Offset       int
}
