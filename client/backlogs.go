package client

import (
	"context"
	"net/url"
	"strconv"
)

// BacklogService handles backlog operations.
type BacklogService struct {
	c *Client
}

// List returns backlogs with optional filtering and pagination.
func (s *BacklogService) List(ctx context.Context, opts *BacklogListOptions) ([]Backlog, bool, error) {
	params := url.Values{}
	if opts != nil {
		if opts.Project != "" {
			params.Set("project", opts.Project)
		}
		if opts.Status != "" {
			params.Set("status", opts.Status)
		}
		if opts.Type != "" {
			params.Set("type", opts.Type)
		}
		if opts.Assignee != "" {
			params.Set("assignee", opts.Assignee)
		}
		if opts.Sprint != nil {
			params.Set("sprint", strconv.Itoa(*opts.Sprint))
		}
		pageParams(params, opts.Limit, opts.Offset)
	}
	var resp page[Backlog]
	if err := s.c.get(ctx, "/api/v1/backlogs", params, &resp); err != nil {
		return nil, false, err
	}
	return resp.Data, resp.HasMore, nil
}

// ListByProject returns the backlogs of one project.
func (s *BacklogService) ListByProject(ctx context.Context, slug string, limit, offset int) ([]Backlog, bool, error) {
	var resp page[Backlog]
	params := pageParams(url.Values{}, limit, offset)
	if err := s.c.get(ctx, "/api/v1/backlogs/project/"+url.PathEscape(slug), params, &resp); err != nil {
		return nil, false, err
	}
	return resp.Data, resp.HasMore, nil
}

// Get returns a single backlog by ID.
func (s *BacklogService) Get(ctx context.Context, id string) (*Backlog, error) {
	var b Backlog
	if err := s.c.get(ctx, "/api/v1/backlogs/"+url.PathEscape(id), nil, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// GetByRef returns a backlog by its ref_id.
func (s *BacklogService) GetByRef(ctx context.Context, ref string) (*Backlog, error) {
	var b Backlog
	if err := s.c.get(ctx, "/api/v1/backlogs/ref/"+url.PathEscape(ref), nil, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// Create creates a new backlog.
func (s *BacklogService) Create(ctx context.Context, req *BacklogInput) (*Backlog, error) {
	var b Backlog
	if err := s.c.post(ctx, "/api/v1/backlogs", req, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// Update replaces a backlog's writable fields.
func (s *BacklogService) Update(ctx context.Context, id string, req *BacklogInput) (*Backlog, error) {
	var b Backlog
	if err := s.c.put(ctx, "/api/v1/backlogs/"+url.PathEscape(id), req, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// Delete removes a backlog, returning the removed record.
func (s *BacklogService) Delete(ctx context.Context, id string) (*Backlog, error) {
	var b Backlog
	if err := s.c.del(ctx, "/api/v1/backlogs/"+url.PathEscape(id), &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// Audits returns the field history of a backlog.
func (s *BacklogService) Audits(ctx context.Context, id string, opts *AuditListOptions) ([]AuditRecord, bool, error) {
	return listAudits(ctx, s.c, "/api/v1/backlogs/"+url.PathEscape(id)+"/audits", opts)
}
