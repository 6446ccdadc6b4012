// Package service provides the lifecycle layer between API handlers and data
// stores. Every create, update and delete goes through a service so plugin
// hooks run exactly once around each persistence call.
package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/backlog/internal/domain"
	"github.com/persistorai/backlog/internal/metrics"
	"github.com/persistorai/backlog/internal/models"
	"github.com/persistorai/backlog/internal/plugin"
)

// BacklogStore is the data-access interface BacklogService depends on.
type BacklogStore interface {
	domain.BacklogService
	SavePluginMeta(ctx context.Context, id uuid.UUID, meta models.PluginMeta) error
}

// Compile-time check: *BacklogService must satisfy domain.BacklogService.
var _ domain.BacklogService = (*BacklogService)(nil)

// BacklogService wraps BacklogStore with the plugin lifecycle.
type BacklogService struct {
	store BacklogStore
	hooks *Hooks[models.Backlog]
	log   *logrus.Logger
}

// NewBacklogService creates a BacklogService running plugins in order.
func NewBacklogService(store BacklogStore, plugins []plugin.BacklogPlugin, log *logrus.Logger) *BacklogService {
	return &BacklogService{
		store: store,
		hooks: NewHooks(models.EntityBacklog, plugins, (*models.Backlog).Clone, log),
		log:   log,
	}
}

// ListBacklogs returns a filtered, paginated list of backlogs (pass-through).
func (s *BacklogService) ListBacklogs(ctx context.Context, f models.BacklogFilter) ([]models.Backlog, bool, error) {
	return s.store.ListBacklogs(ctx, f)
}

// ListBacklogsByProject returns the backlogs of one project (pass-through).
func (s *BacklogService) ListBacklogsByProject(ctx context.Context, slug string, limit, offset int) ([]models.Backlog, bool, error) {
	return s.store.ListBacklogsByProject(ctx, slug, limit, offset)
}

// GetBacklog returns a single backlog by id (pass-through).
func (s *BacklogService) GetBacklog(ctx context.Context, id uuid.UUID) (*models.Backlog, error) {
	return s.store.GetBacklog(ctx, id)
}

// GetBacklogByRefID returns a single backlog by ref_id (pass-through).
func (s *BacklogService) GetBacklogByRefID(ctx context.Context, ref string) (*models.Backlog, error) {
	return s.store.GetBacklogByRefID(ctx, ref)
}

// CreateBacklog runs before-create hooks, persists, runs after-create hooks
// and saves plugin_meta again if the after hooks changed it.
func (s *BacklogService) CreateBacklog(ctx context.Context, b *models.Backlog) (*models.Backlog, error) {
	b = s.hooks.BeforeCreate(ctx, b)

	created, err := s.store.CreateBacklog(ctx, b)
	if err != nil {
		return nil, err
	}

	stored := created.PluginMeta.Clone()
	created = s.hooks.AfterCreate(ctx, created)
	s.saveMetaIfChanged(ctx, created.ID, stored, created.PluginMeta)

	return created, nil
}

// UpdateBacklog runs before-update hooks, persists (auditing changed fields),
// runs after-update hooks and saves plugin_meta again if it changed.
func (s *BacklogService) UpdateBacklog(ctx context.Context, id uuid.UUID, b *models.Backlog) (*models.Backlog, error) {
	b = s.hooks.BeforeUpdate(ctx, id, b)

	updated, err := s.store.UpdateBacklog(ctx, id, b)
	if err != nil {
		return nil, err
	}

	stored := updated.PluginMeta.Clone()
	updated = s.hooks.AfterUpdate(ctx, updated)
	s.saveMetaIfChanged(ctx, updated.ID, stored, updated.PluginMeta)

	return updated, nil
}

// DeleteBacklog runs before-delete hooks, deletes, and runs after-delete
// hooks on the removed row.
func (s *BacklogService) DeleteBacklog(ctx context.Context, id uuid.UUID) (*models.Backlog, error) {
	id = s.hooks.BeforeDelete(ctx, id)

	deleted, err := s.store.DeleteBacklog(ctx, id)
	if err != nil {
		return nil, err
	}

	return s.hooks.AfterDelete(ctx, deleted), nil
}

func (s *BacklogService) saveMetaIfChanged(ctx context.Context, id uuid.UUID, stored, current models.PluginMeta) {
	if stored.Equal(current) {
		return
	}

	if err := s.store.SavePluginMeta(ctx, id, current); err != nil {
		metrics.PluginMetaSaveFailures.WithLabelValues(string(models.EntityBacklog)).Inc()
		s.log.WithError(err).WithField("backlog_id", id).Error("saving plugin_meta after hooks")
	}
}
