package client

import (
	"time"
)

// Project is a named, slugged container of backlogs.
type Project struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Slug        string         `json:"slug"`
	Description string         `json:"description"`
	Pinned      bool           `json:"pinned"`
	PluginMeta  map[string]any `json:"plugin_meta"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// ProjectInput is the body of project create and update requests.
type ProjectInput struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description,omitempty"`
	Pinned      bool   `json:"pinned"`
}

// ProjectListOptions filters a project listing.
type ProjectListOptions struct {
	Pinned *bool
	Limit  int
	Offset int
}

// Backlog is a single work item.
type Backlog struct {
	ID           string         `json:"id"`
	Title        string         `json:"title"`
	Description  string         `json:"description"`
	RefID        string         `json:"ref_id"`
	Type         string         `json:"type"`
	Progress     string         `json:"progress"`
	SprintNumber int            `json:"sprint_number"`
	Priority     string         `json:"priority"`
	Status       string         `json:"status"`
	Category     string         `json:"category"`
	EstDays      *float64       `json:"est_days"`
	BegDate      time.Time      `json:"beg_date"`
	EndDate      time.Time      `json:"end_date"`
	DueDate      time.Time      `json:"due_date"`
	AssigneeName string         `json:"assignee_name"`
	ProjectSlug  string         `json:"project_slug"`
	ProjectName  string         `json:"project_name"`
	PluginMeta   map[string]any `json:"plugin_meta"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// BacklogInput is the body of backlog create and update requests. Nil dates
// are filled in by the server.
type BacklogInput struct {
	Title        string     `json:"title"`
	Description  string     `json:"description,omitempty"`
	Type         string     `json:"type,omitempty"`
	Progress     string     `json:"progress,omitempty"`
	SprintNumber int        `json:"sprint_number"`
	Priority     string     `json:"priority,omitempty"`
	Status       string     `json:"status,omitempty"`
	Category     string     `json:"category,omitempty"`
	EstDays      *float64   `json:"est_days,omitempty"`
	BegDate      *time.Time `json:"beg_date,omitempty"`
	EndDate      *time.Time `json:"end_date,omitempty"`
	DueDate      *time.Time `json:"due_date,omitempty"`
	AssigneeName string     `json:"assignee_name,omitempty"`
	ProjectSlug  string     `json:"project_slug"`
}

// BacklogListOptions filters a backlog listing.
type BacklogListOptions struct {
	Project  string
	Status   string
	Type     string
	Assignee string
	Sprint   *int
	Limit    int
	Offset   int
}

// AuditRecord is one field change. A nil value means the field was absent.
type AuditRecord struct {
	ID        string    `json:"id"`
	EntityID  string    `json:"entity_id"`
	FieldName string    `json:"field_name"`
	OldValue  *string   `json:"old_value"`
	NewValue  *string   `json:"new_value"`
	CreatedAt time.Time `json:"created_at"`
}

// AuditListOptions filters an audit listing.
type AuditListOptions struct {
	Field  string
	Limit  int
	Offset int
}

// HealthResponse is the liveness payload.
type HealthResponse struct {
	Status        string  `json:"status"`
	Version       string  `json:"version"`
	SchemaVersion int     `json:"schema_version"`
	Database      string  `json:"database"`
	LiveClients   int     `json:"live_clients"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

// page is the envelope of every list response.
type page[T any] struct {
	Data    []T  `json:"data"`
	HasMore bool `json:"has_more"`
}
