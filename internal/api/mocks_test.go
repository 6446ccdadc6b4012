package api_test

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/persistorai/backlog/internal/models"
)

// mockProjectSvc implements domain.ProjectService for testing. Unset
// functions report not found.
type mockProjectSvc struct {
	listFn   func(ctx context.Context, f models.ProjectFilter) ([]models.Project, bool, error)
	getFn    func(ctx context.Context, id uuid.UUID) (*models.Project, error)
	createFn func(ctx context.Context, p *models.Project) (*models.Project, error)
	updateFn func(ctx context.Context, id uuid.UUID, p *models.Project) (*models.Project, error)
	deleteFn func(ctx context.Context, id uuid.UUID) (*models.Project, error)
}

func (m *mockProjectSvc) ListProjects(ctx context.Context, f models.ProjectFilter) ([]models.Project, bool, error) {
	if m.listFn == nil {
		return nil, false, nil
	}
	return m.listFn(ctx, f)
}

func (m *mockProjectSvc) GetProject(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	if m.getFn == nil {
		return nil, models.ErrProjectNotFound
	}
	return m.getFn(ctx, id)
}

func (m *mockProjectSvc) GetProjectBySlug(context.Context, string) (*models.Project, error) {
	return nil, models.ErrProjectNotFound
}

func (m *mockProjectSvc) CreateProject(ctx context.Context, p *models.Project) (*models.Project, error) {
	return m.createFn(ctx, p)
}

func (m *mockProjectSvc) UpdateProject(ctx context.Context, id uuid.UUID, p *models.Project) (*models.Project, error) {
	if m.updateFn == nil {
		return nil, models.ErrProjectNotFound
	}
	return m.updateFn(ctx, id, p)
}

func (m *mockProjectSvc) DeleteProject(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	if m.deleteFn == nil {
		return nil, models.ErrProjectNotFound
	}
	return m.deleteFn(ctx, id)
}

// mockBacklogSvc implements domain.BacklogService for testing.
type mockBacklogSvc struct {
	listFn      func(ctx context.Context, f models.BacklogFilter) ([]models.Backlog, bool, error)
	byProjectFn func(ctx context.Context, slug string, limit, offset int) ([]models.Backlog, bool, error)
	getFn       func(ctx context.Context, id uuid.UUID) (*models.Backlog, error)
	byRefFn     func(ctx context.Context, ref string) (*models.Backlog, error)
	createFn    func(ctx context.Context, b *models.Backlog) (*models.Backlog, error)
	updateFn    func(ctx context.Context, id uuid.UUID, b *models.Backlog) (*models.Backlog, error)
	deleteFn    func(ctx context.Context, id uuid.UUID) (*models.Backlog, error)
}

func (m *mockBacklogSvc) ListBacklogs(ctx context.Context, f models.BacklogFilter) ([]models.Backlog, bool, error) {
	if m.listFn == nil {
		return nil, false, nil
	}
	return m.listFn(ctx, f)
}

func (m *mockBacklogSvc) ListBacklogsByProject(ctx context.Context, slug string, limit, offset int) ([]models.Backlog, bool, error) {
	if m.byProjectFn == nil {
		return nil, false, nil
	}
	return m.byProjectFn(ctx, slug, limit, offset)
}

func (m *mockBacklogSvc) GetBacklog(ctx context.Context, id uuid.UUID) (*models.Backlog, error) {
	if m.getFn == nil {
		return nil, models.ErrBacklogNotFound
	}
	return m.getFn(ctx, id)
}

func (m *mockBacklogSvc) GetBacklogByRefID(ctx context.Context, ref string) (*models.Backlog, error) {
	if m.byRefFn == nil {
		return nil, models.ErrBacklogNotFound
	}
	return m.byRefFn(ctx, ref)
}

func (m *mockBacklogSvc) CreateBacklog(ctx context.Context, b *models.Backlog) (*models.Backlog, error) {
	return m.createFn(ctx, b)
}

func (m *mockBacklogSvc) UpdateBacklog(ctx context.Context, id uuid.UUID, b *models.Backlog) (*models.Backlog, error) {
	if m.updateFn == nil {
		return nil, models.ErrBacklogNotFound
	}
	return m.updateFn(ctx, id, b)
}

func (m *mockBacklogSvc) DeleteBacklog(ctx context.Context, id uuid.UUID) (*models.Backlog, error) {
	if m.deleteFn == nil {
		return nil, models.ErrBacklogNotFound
	}
	return m.deleteFn(ctx, id)
}

// mockAuditSvc implements domain.AuditService for testing.
type mockAuditSvc struct {
	listFn func(ctx context.Context, kind models.EntityKind, id uuid.UUID, opts models.AuditQueryOpts) ([]models.AuditRecord, bool, error)
}

func (m *mockAuditSvc) ListAudits(ctx context.Context, kind models.EntityKind, id uuid.UUID, opts models.AuditQueryOpts) ([]models.AuditRecord, bool, error) {
	if m.listFn == nil {
		return nil, false, nil
	}
	return m.listFn(ctx, kind, id, opts)
}

// fakeDB implements api.DBChecker.
type fakeDB struct {
	pingErr error
	applied int64
	rowErr  error
}

func (f *fakeDB) HealthCheck(context.Context) error { return f.pingErr }

func (f *fakeDB) QueryRow(context.Context, string, ...any) pgx.Row {
	return fakeRow{val: f.applied, err: f.rowErr}
}

type fakeRow struct {
	val int64
	err error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}

	*(dest[0].(*int64)) = r.val

	return nil
}
