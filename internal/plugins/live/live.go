// Package live publishes project and backlog changes to the WebSocket feed.
package live

import (
	"context"

	"github.com/persistorai/backlog/internal/models"
	"github.com/persistorai/backlog/internal/plugin"
	"github.com/persistorai/backlog/internal/ws"
)

// Name is the registry name of the live plugins.
const Name = "live"

// Broadcaster is the part of the hub the plugins publish through.
type Broadcaster interface {
	BroadcastEvent(eventType, project string, data any)
}

// ProjectPlugin broadcasts project lifecycle events.
type ProjectPlugin struct {
	plugin.Base[models.Project]
	hub Broadcaster
}

// NewProjectPlugin creates a ProjectPlugin publishing to hub.
func NewProjectPlugin(hub Broadcaster) *ProjectPlugin {
	return &ProjectPlugin{hub: hub}
}

// Name implements plugin.Plugin.
func (p *ProjectPlugin) Name() string { return Name }

// AfterCreate publishes project.created.
func (p *ProjectPlugin) AfterCreate(_ context.Context, pr *models.Project) (*models.Project, error) {
	p.hub.BroadcastEvent(ws.EventProjectCreated, pr.Slug, pr)
	return pr, nil
}

// AfterUpdate publishes project.updated.
func (p *ProjectPlugin) AfterUpdate(_ context.Context, pr *models.Project) (*models.Project, error) {
	p.hub.BroadcastEvent(ws.EventProjectUpdated, pr.Slug, pr)
	return pr, nil
}

// AfterDelete publishes project.deleted.
func (p *ProjectPlugin) AfterDelete(_ context.Context, pr *models.Project) (*models.Project, error) {
	p.hub.BroadcastEvent(ws.EventProjectDeleted, pr.Slug, pr)
	return pr, nil
}

// BacklogPlugin broadcasts backlog lifecycle events on the owning project's
// channel.
type BacklogPlugin struct {
	plugin.Base[models.Backlog]
	hub Broadcaster
}

// NewBacklogPlugin creates a BacklogPlugin publishing to hub.
func NewBacklogPlugin(hub Broadcaster) *BacklogPlugin {
	return &BacklogPlugin{hub: hub}
}

// Name implements plugin.Plugin.
func (p *BacklogPlugin) Name() string { return Name }

// AfterCreate publishes backlog.created.
func (p *BacklogPlugin) AfterCreate(_ context.Context, b *models.Backlog) (*models.Backlog, error) {
	p.hub.BroadcastEvent(ws.EventBacklogCreated, b.ProjectSlug, b)
	return b, nil
}

// AfterUpdate publishes backlog.updated.
func (p *BacklogPlugin) AfterUpdate(_ context.Context, b *models.Backlog) (*models.Backlog, error) {
	p.hub.BroadcastEvent(ws.EventBacklogUpdated, b.ProjectSlug, b)
	return b, nil
}

// AfterDelete publishes backlog.deleted.
func (p *BacklogPlugin) AfterDelete(_ context.Context, b *models.Backlog) (*models.Backlog, error) {
	p.hub.BroadcastEvent(ws.EventBacklogDeleted, b.ProjectSlug, b)
	return b, nil
}
