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

// ProjectStore is the data-access interface ProjectService depends on.
type ProjectStore interface {
	domain.ProjectService
	SavePluginMeta(ctx context.Context, id uuid.UUID, meta models.PluginMeta) error
}

// Compile-time check: *ProjectService must satisfy domain.ProjectService.
var _ domain.ProjectService = (*ProjectService)(nil)

// ProjectService wraps ProjectStore with the plugin lifecycle.
type ProjectService struct {
	store ProjectStore
	hooks *Hooks[models.Project]
	log   *logrus.Logger
}

// NewProjectService creates a ProjectService running plugins in order.
func NewProjectService(store ProjectStore, plugins []plugin.ProjectPlugin, log *logrus.Logger) *ProjectService {
	return &ProjectService{
		store: store,
		hooks: NewHooks(models.EntityProject, plugins, (*models.Project).Clone, log),
		log:   log,
	}
}

// ListProjects returns a paginated list of projects (pass-through).
func (s *ProjectService) ListProjects(ctx context.Context, f models.ProjectFilter) ([]models.Project, bool, error) {
	return s.store.ListProjects(ctx, f)
}

// GetProject returns a single project by id (pass-through).
func (s *ProjectService) GetProject(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	return s.store.GetProject(ctx, id)
}

// GetProjectBySlug returns a single project by slug (pass-through).
func (s *ProjectService) GetProjectBySlug(ctx context.Context, slug string) (*models.Project, error) {
	return s.store.GetProjectBySlug(ctx, slug)
}

// CreateProject runs the create lifecycle around the store insert.
func (s *ProjectService) CreateProject(ctx context.Context, p *models.Project) (*models.Project, error) {
	p = s.hooks.BeforeCreate(ctx, p)

	created, err := s.store.CreateProject(ctx, p)
	if err != nil {
		return nil, err
	}

	stored := created.PluginMeta.Clone()
	created = s.hooks.AfterCreate(ctx, created)
	s.saveMetaIfChanged(ctx, created.ID, stored, created.PluginMeta)

	return created, nil
}

// UpdateProject runs the update lifecycle around the audited store update.
func (s *ProjectService) UpdateProject(ctx context.Context, id uuid.UUID, p *models.Project) (*models.Project, error) {
	p = s.hooks.BeforeUpdate(ctx, id, p)

	updated, err := s.store.UpdateProject(ctx, id, p)
	if err != nil {
		return nil, err
	}

	stored := updated.PluginMeta.Clone()
	updated = s.hooks.AfterUpdate(ctx, updated)
	s.saveMetaIfChanged(ctx, updated.ID, stored, updated.PluginMeta)

	return updated, nil
}

// DeleteProject runs the delete lifecycle around the store delete.
func (s *ProjectService) DeleteProject(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	id = s.hooks.BeforeDelete(ctx, id)

	deleted, err := s.store.DeleteProject(ctx, id)
	if err != nil {
		return nil, err
	}

	return s.hooks.AfterDelete(ctx, deleted), nil
}

func (s *ProjectService) saveMetaIfChanged(ctx context.Context, id uuid.UUID, stored, current models.PluginMeta) {
	if stored.Equal(current) {
		return
	}

	if err := s.store.SavePluginMeta(ctx, id, current); err != nil {
		metrics.PluginMetaSaveFailures.WithLabelValues(string(models.EntityProject)).Inc()
		s.log.WithError(err).WithField("project_id", id).Error("saving plugin_meta after hooks")
	}
}
