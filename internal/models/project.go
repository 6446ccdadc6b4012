// Package models defines data types for the backlog tracker.
package models

import (
	"regexp"
	"time"

	"github.com/google/uuid"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// Project groups backlogs and owns the slug they reference.
type Project struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Slug        string     `json:"slug"`
	Description string     `json:"description"`
	Pinned      bool       `json:"pinned"`
	PluginMeta  PluginMeta `json:"plugin_meta"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// AuditFields returns the tracked fields of a project keyed by column name.
func (p *Project) AuditFields() map[string]any {
	return map[string]any{
		"name":        p.Name,
		"slug":        p.Slug,
		"description": p.Description,
		"pinned":      p.Pinned,
	}
}

// Apply copies the writable fields of src onto p. An empty slug keeps the current one.
func (p *Project) Apply(src *Project) {
	p.Name = src.Name
	if src.Slug != "" {
		p.Slug = src.Slug
	}
	p.Description = src.Description
	p.Pinned = src.Pinned
}

// Clone returns a copy that shares no mutable state with p.
func (p *Project) Clone() *Project {
	out := *p
	out.PluginMeta = p.PluginMeta.Clone()

	return &out
}

// ProjectInput is the payload for creating or replacing a project.
type ProjectInput struct {
	Name        string     `json:"name"`
	Slug        string     `json:"slug"`
	Description string     `json:"description"`
	Pinned      bool       `json:"pinned"`
	PluginMeta  PluginMeta `json:"plugin_meta,omitempty"`
}

// Validate checks required fields and limits on ProjectInput.
func (r *ProjectInput) Validate() error {
	if r.Name == "" {
		return ErrMissingName
	}

	if len(r.Name) > 200 {
		return ErrFieldTooLong("name", 200)
	}

	if r.Slug == "" {
		return ErrMissingSlug
	}

	if len(r.Slug) > 64 {
		return ErrFieldTooLong("slug", 64)
	}

	if !slugPattern.MatchString(r.Slug) {
		return ErrInvalidSlug
	}

	if len(r.Description) > 10000 {
		return ErrFieldTooLong("description", 10000)
	}

	return nil
}

// ToModel converts the payload to an unsaved Project.
func (r *ProjectInput) ToModel() *Project {
	return &Project{
		Name:        r.Name,
		Slug:        r.Slug,
		Description: r.Description,
		Pinned:      r.Pinned,
		PluginMeta:  r.PluginMeta.Clone(),
	}
}

// ProjectFilter narrows a project listing.
type ProjectFilter struct {
	Pinned *bool
	Limit  int
	Offset int
}
