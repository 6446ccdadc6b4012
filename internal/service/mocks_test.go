package service

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/persistorai/backlog/internal/models"
	"github.com/persistorai/backlog/internal/plugin"
)

// mockBacklogStore records calls and returns configured responses.
type mockBacklogStore struct {
	mu    sync.Mutex
	calls []string

	createBacklog  func(ctx context.Context, b *models.Backlog) (*models.Backlog, error)
	updateBacklog  func(ctx context.Context, id uuid.UUID, b *models.Backlog) (*models.Backlog, error)
	deleteBacklog  func(ctx context.Context, id uuid.UUID) (*models.Backlog, error)
	savePluginMeta func(ctx context.Context, id uuid.UUID, meta models.PluginMeta) error
}

func (m *mockBacklogStore) record(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, name)
}

func (m *mockBacklogStore) called(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, c := range m.calls {
		if c == name {
			n++
		}
	}

	return n
}

func (m *mockBacklogStore) ListBacklogs(context.Context, models.BacklogFilter) ([]models.Backlog, bool, error) {
	m.record("ListBacklogs")
	return nil, false, nil
}

func (m *mockBacklogStore) ListBacklogsByProject(context.Context, string, int, int) ([]models.Backlog, bool, error) {
	m.record("ListBacklogsByProject")
	return nil, false, nil
}

func (m *mockBacklogStore) GetBacklog(context.Context, uuid.UUID) (*models.Backlog, error) {
	m.record("GetBacklog")
	return nil, models.ErrBacklogNotFound
}

func (m *mockBacklogStore) GetBacklogByRefID(context.Context, string) (*models.Backlog, error) {
	m.record("GetBacklogByRefID")
	return nil, models.ErrBacklogNotFound
}

func (m *mockBacklogStore) CreateBacklog(ctx context.Context, b *models.Backlog) (*models.Backlog, error) {
	m.record("CreateBacklog")
	return m.createBacklog(ctx, b)
}

func (m *mockBacklogStore) UpdateBacklog(ctx context.Context, id uuid.UUID, b *models.Backlog) (*models.Backlog, error) {
	m.record("UpdateBacklog")
	return m.updateBacklog(ctx, id, b)
}

func (m *mockBacklogStore) DeleteBacklog(ctx context.Context, id uuid.UUID) (*models.Backlog, error) {
	m.record("DeleteBacklog")
	return m.deleteBacklog(ctx, id)
}

func (m *mockBacklogStore) SavePluginMeta(ctx context.Context, id uuid.UUID, meta models.PluginMeta) error {
	m.record("SavePluginMeta")
	if m.savePluginMeta == nil {
		return nil
	}
	return m.savePluginMeta(ctx, id, meta)
}

// mockProjectStore records calls and returns configured responses.
type mockProjectStore struct {
	mu    sync.Mutex
	calls []string

	createProject  func(ctx context.Context, p *models.Project) (*models.Project, error)
	deleteProject  func(ctx context.Context, id uuid.UUID) (*models.Project, error)
	savePluginMeta func(ctx context.Context, id uuid.UUID, meta models.PluginMeta) error
}

func (m *mockProjectStore) record(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, name)
}

func (m *mockProjectStore) ListProjects(context.Context, models.ProjectFilter) ([]models.Project, bool, error) {
	m.record("ListProjects")
	return nil, false, nil
}

func (m *mockProjectStore) GetProject(context.Context, uuid.UUID) (*models.Project, error) {
	m.record("GetProject")
	return nil, models.ErrProjectNotFound
}

func (m *mockProjectStore) GetProjectBySlug(context.Context, string) (*models.Project, error) {
	m.record("GetProjectBySlug")
	return nil, models.ErrProjectNotFound
}

func (m *mockProjectStore) CreateProject(ctx context.Context, p *models.Project) (*models.Project, error) {
	m.record("CreateProject")
	return m.createProject(ctx, p)
}

func (m *mockProjectStore) UpdateProject(_ context.Context, _ uuid.UUID, p *models.Project) (*models.Project, error) {
	m.record("UpdateProject")
	return p, nil
}

func (m *mockProjectStore) DeleteProject(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	m.record("DeleteProject")
	return m.deleteProject(ctx, id)
}

func (m *mockProjectStore) SavePluginMeta(ctx context.Context, id uuid.UUID, meta models.PluginMeta) error {
	m.record("SavePluginMeta")
	if m.savePluginMeta == nil {
		return nil
	}
	return m.savePluginMeta(ctx, id, meta)
}

// recordingPlugin is a configurable backlog plugin that logs hook calls into
// a shared trace.
type recordingPlugin struct {
	plugin.Base[models.Backlog]
	name  string
	trace *[]string

	beforeCreate func(b *models.Backlog) (*models.Backlog, error)
	afterCreate  func(b *models.Backlog) (*models.Backlog, error)
	afterUpdate  func(b *models.Backlog) (*models.Backlog, error)
	beforeDelete func(id uuid.UUID) (uuid.UUID, error)
}

func (p *recordingPlugin) Name() string { return p.name }

func (p *recordingPlugin) note(hook string) {
	if p.trace != nil {
		*p.trace = append(*p.trace, p.name+":"+hook)
	}
}

func (p *recordingPlugin) BeforeCreate(_ context.Context, b *models.Backlog) (*models.Backlog, error) {
	p.note("before_create")
	if p.beforeCreate == nil {
		return b, nil
	}
	return p.beforeCreate(b)
}

func (p *recordingPlugin) AfterCreate(_ context.Context, b *models.Backlog) (*models.Backlog, error) {
	p.note("after_create")
	if p.afterCreate == nil {
		return b, nil
	}
	return p.afterCreate(b)
}

func (p *recordingPlugin) AfterUpdate(_ context.Context, b *models.Backlog) (*models.Backlog, error) {
	p.note("after_update")
	if p.afterUpdate == nil {
		return b, nil
	}
	return p.afterUpdate(b)
}

func (p *recordingPlugin) BeforeDelete(_ context.Context, id uuid.UUID) (uuid.UUID, error) {
	p.note("before_delete")
	if p.beforeDelete == nil {
		return id, nil
	}
	return p.beforeDelete(id)
}
