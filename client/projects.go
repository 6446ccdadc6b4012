package client

import (
	"context"
	"net/url"
	"strconv"
)

// ProjectService handles project operations.
type ProjectService struct {
	c *Client
}

// List returns projects with optional filtering and pagination.
func (s *ProjectService) List(ctx context.Context, opts *ProjectListOptions) ([]Project, bool, error) {
	params := url.Values{}
	if opts != nil {
		if opts.Pinned != nil {
			params.Set("pinned", strconv.FormatBool(*opts.Pinned))
		}
		pageParams(params, opts.Limit, opts.Offset)
	}
	var resp page[Project]
	if err := s.c.get(ctx, "/api/v1/projects", params, &resp); err != nil {
		return nil, false, err
	}
	return resp.Data, resp.HasMore, nil
}

// Get returns a single project by ID.
func (s *ProjectService) Get(ctx context.Context, id string) (*Project, error) {
	var p Project
	if err := s.c.get(ctx, "/api/v1/projects/"+url.PathEscape(id), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Create creates a new project.
func (s *ProjectService) Create(ctx context.Context, req *ProjectInput) (*Project, error) {
	var p Project
	if err := s.c.post(ctx, "/api/v1/projects", req, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Update replaces a project's writable fields.
func (s *ProjectService) Update(ctx context.Context, id string, req *ProjectInput) (*Project, error) {
	var p Project
	if err := s.c.put(ctx, "/api/v1/projects/"+url.PathEscape(id), req, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Delete removes a project and its backlogs, returning the removed project.
func (s *ProjectService) Delete(ctx context.Context, id string) (*Project, error) {
	var p Project
	if err := s.c.del(ctx, "/api/v1/projects/"+url.PathEscape(id), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Audits returns the field history of a project.
func (s *ProjectService) Audits(ctx context.Context, id string, opts *AuditListOptions) ([]AuditRecord, bool, error) {
	return listAudits(ctx, s.c, "/api/v1/projects/"+url.PathEscape(id)+"/audits", opts)
}

func listAudits(ctx context.Context, c *Client, path string, opts *AuditListOptions) ([]AuditRecord, bool, error) {
	params := url.Values{}
	if opts != nil {
		if opts.Field != "" {
			params.Set("field", opts.Field)
		}
		pageParams(params, opts.Limit, opts.Offset)
	}
	var resp page[AuditRecord]
	if err := c.get(ctx, path, params, &resp); err != nil {
		return nil, false, err
	}
	return resp.Data, resp.HasMore, nil
}
