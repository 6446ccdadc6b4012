package store_test

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/persistorai/backlog/internal/models"
	"github.com/persistorai/backlog/internal/store"
	"github.com/persistorai/backlog/internal/testdb"
)

type stores struct {
	projects *store.ProjectStore
	backlogs *store.BacklogStore
	audits   *store.AuditStore
}

func setupStores(t *testing.T) stores {
	t.Helper()

	pool := testdb.Open(t)
	base := store.Base{DB: pool, Log: quietLogger()}

	return stores{
		projects: store.NewProjectStore(base),
		backlogs: store.NewBacklogStore(base),
		audits:   store.NewAuditStore(base),
	}
}

// createProject inserts a project with a unique slug, deleted after the test.
func createProject(t *testing.T, s stores) *models.Project {
	t.Helper()

	slug := "p" + strings.ReplaceAll(uuid.NewString()[:8], "-", "")

	p, err := s.projects.CreateProject(context.Background(), &models.Project{Name: "Project " + slug, Slug: slug})
	require.NoError(t, err)

	t.Cleanup(func() {
		s.projects.DeleteProject(context.Background(), p.ID) //nolint:errcheck // best-effort cleanup
	})

	return p
}

func TestIntegration_CreateBacklogAssignsRefID(t *testing.T) {
	s := setupStores(t)
	ctx := context.Background()
	p := createProject(t, s)

	b, err := s.backlogs.CreateBacklog(ctx, &models.Backlog{Title: "First", SprintNumber: 3, ProjectSlug: p.Slug})
	require.NoError(t, err)

	assert.Equal(t, models.RefID(p.Slug, 3, b.ID), b.RefID)
	assert.Equal(t, p.Name, b.ProjectName)
	assert.Equal(t, models.DefaultBacklogType, b.Type)

	byRef, err := s.backlogs.GetBacklogByRefID(ctx, b.RefID)
	require.NoError(t, err)
	assert.Equal(t, b.ID, byRef.ID)

	audits, _, err := s.audits.ListAudits(ctx, models.EntityBacklog, b.ID, models.AuditQueryOpts{})
	require.NoError(t, err)
	assert.Empty(t, audits, "insert must not write audit rows")
}

func TestIntegration_UpdateBacklogWritesOneAuditPerChangedField(t *testing.T) {
	s := setupStores(t)
	ctx := context.Background()
	p := createProject(t, s)

	b, err := s.backlogs.CreateBacklog(ctx, &models.Backlog{Title: "Draft", Status: models.StatusTodo, ProjectSlug: p.Slug})
	require.NoError(t, err)

	in := b.Clone()
	in.Title = "Final"
	in.Status = models.StatusDone
	in.SprintNumber = 2

	updated, err := s.backlogs.UpdateBacklog(ctx, b.ID, in)
	require.NoError(t, err)
	assert.Equal(t, models.RefID(p.Slug, 2, b.ID), updated.RefID)

	audits, hasMore, err := s.audits.ListAudits(ctx, models.EntityBacklog, b.ID, models.AuditQueryOpts{})
	require.NoError(t, err)
	assert.False(t, hasMore)
	require.Len(t, audits, 3)

	byField := map[string]models.AuditRecord{}
	for _, a := range audits {
		byField[a.FieldName] = a
	}

	require.Contains(t, byField, "title")
	assert.Equal(t, "Draft", *byField["title"].OldValue)
	assert.Equal(t, "Final", *byField["title"].NewValue)
	assert.Equal(t, "0", *byField["sprint_number"].OldValue)
	assert.Equal(t, models.StatusDone, *byField["status"].NewValue)

	// A no-op update leaves the history untouched.
	_, err = s.backlogs.UpdateBacklog(ctx, b.ID, updated.Clone())
	require.NoError(t, err)

	again, _, err := s.audits.ListAudits(ctx, models.EntityBacklog, b.ID, models.AuditQueryOpts{})
	require.NoError(t, err)
	assert.Len(t, again, 3)

	titleOnly, _, err := s.audits.ListAudits(ctx, models.EntityBacklog, b.ID, models.AuditQueryOpts{FieldName: "title"})
	require.NoError(t, err)
	assert.Len(t, titleOnly, 1)
}

func TestIntegration_NullEstimateAudit(t *testing.T) {
	s := setupStores(t)
	ctx := context.Background()
	p := createProject(t, s)

	b, err := s.backlogs.CreateBacklog(ctx, &models.Backlog{Title: "Estimate me", ProjectSlug: p.Slug})
	require.NoError(t, err)
	require.Nil(t, b.EstDays)

	est := 1.5
	in := b.Clone()
	in.EstDays = &est

	_, err = s.backlogs.UpdateBacklog(ctx, b.ID, in)
	require.NoError(t, err)

	audits, _, err := s.audits.ListAudits(ctx, models.EntityBacklog, b.ID, models.AuditQueryOpts{FieldName: "est_days"})
	require.NoError(t, err)
	require.Len(t, audits, 1)
	assert.Nil(t, audits[0].OldValue)
	assert.Equal(t, "1.5", *audits[0].NewValue)
}

func TestIntegration_DeleteBacklogCascadesAudits(t *testing.T) {
	s := setupStores(t)
	ctx := context.Background()
	p := createProject(t, s)

	b, err := s.backlogs.CreateBacklog(ctx, &models.Backlog{Title: "Doomed", ProjectSlug: p.Slug})
	require.NoError(t, err)

	in := b.Clone()
	in.Title = "Still doomed"
	_, err = s.backlogs.UpdateBacklog(ctx, b.ID, in)
	require.NoError(t, err)

	deleted, err := s.backlogs.DeleteBacklog(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "Still doomed", deleted.Title)

	audits, _, err := s.audits.ListAudits(ctx, models.EntityBacklog, b.ID, models.AuditQueryOpts{})
	require.NoError(t, err)
	assert.Empty(t, audits)

	_, err = s.backlogs.GetBacklog(ctx, b.ID)
	assert.ErrorIs(t, err, models.ErrBacklogNotFound)
}

func TestIntegration_BacklogRequiresProject(t *testing.T) {
	s := setupStores(t)

	_, err := s.backlogs.CreateBacklog(context.Background(), &models.Backlog{Title: "Orphan", ProjectSlug: "missing-" + uuid.NewString()[:8]})
	assert.ErrorIs(t, err, models.ErrUnknownProject)
}

func TestIntegration_ProjectDuplicateSlugAndAudit(t *testing.T) {
	s := setupStores(t)
	ctx := context.Background()
	p := createProject(t, s)

	_, err := s.projects.CreateProject(ctx, &models.Project{Name: "Again", Slug: p.Slug})
	assert.ErrorIs(t, err, models.ErrDuplicateKey)

	updated, err := s.projects.UpdateProject(ctx, p.ID, &models.Project{Name: p.Name, Description: "now documented", Pinned: true})
	require.NoError(t, err)
	assert.Equal(t, p.Slug, updated.Slug)
	assert.True(t, updated.Pinned)

	audits, _, err := s.audits.ListAudits(ctx, models.EntityProject, p.ID, models.AuditQueryOpts{})
	require.NoError(t, err)
	assert.Len(t, audits, 2)
}

func TestIntegration_ProjectSlugLockedWhileBacklogsReferenceIt(t *testing.T) {
	s := setupStores(t)
	ctx := context.Background()
	p := createProject(t, s)

	b, err := s.backlogs.CreateBacklog(ctx, &models.Backlog{Title: "Pinned to slug", SprintNumber: 1, ProjectSlug: p.Slug})
	require.NoError(t, err)

	renamed := p.Slug + "x"

	_, err = s.projects.UpdateProject(ctx, p.ID, &models.Project{Name: p.Name, Slug: renamed})
	assert.ErrorIs(t, err, models.ErrProjectHasBacklogs)

	current, err := s.projects.GetProject(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.Slug, current.Slug)

	got, err := s.backlogs.GetBacklog(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, p.Slug, got.ProjectSlug)
	assert.Equal(t, b.RefID, got.RefID)

	projectAudits, _, err := s.audits.ListAudits(ctx, models.EntityProject, p.ID, models.AuditQueryOpts{})
	require.NoError(t, err)
	assert.Empty(t, projectAudits, "rolled back rename must not leave audit rows")

	_, err = s.backlogs.DeleteBacklog(ctx, b.ID)
	require.NoError(t, err)

	updated, err := s.projects.UpdateProject(ctx, p.ID, &models.Project{Name: p.Name, Slug: renamed})
	require.NoError(t, err)
	assert.Equal(t, renamed, updated.Slug)

	projectAudits, _, err = s.audits.ListAudits(ctx, models.EntityProject, p.ID, models.AuditQueryOpts{FieldName: "slug"})
	require.NoError(t, err)
	require.Len(t, projectAudits, 1)
	assert.Equal(t, p.Slug, *projectAudits[0].OldValue)
	assert.Equal(t, renamed, *projectAudits[0].NewValue)
}

func TestIntegration_SavePluginMetaSkipsAudit(t *testing.T) {
	s := setupStores(t)
	ctx := context.Background()
	p := createProject(t, s)

	b, err := s.backlogs.CreateBacklog(ctx, &models.Backlog{
		Title:       "Notify",
		ProjectSlug: p.Slug,
		PluginMeta:  models.PluginMeta{"zulip_bot": "pipo"},
	})
	require.NoError(t, err)

	require.NoError(t, s.backlogs.SavePluginMeta(ctx, b.ID, b.PluginMeta.Merge(models.PluginMeta{"msg_id": 99})))

	got, err := s.backlogs.GetBacklog(ctx, b.ID)
	require.NoError(t, err)

	id, ok := got.PluginMeta.Int64("msg_id")
	assert.True(t, ok)
	assert.Equal(t, int64(99), id)

	audits, _, err := s.audits.ListAudits(ctx, models.EntityBacklog, b.ID, models.AuditQueryOpts{})
	require.NoError(t, err)
	assert.Empty(t, audits)
}

func TestIntegration_ListBacklogsByProjectPaginates(t *testing.T) {
	s := setupStores(t)
	ctx := context.Background()
	p := createProject(t, s)

	for _, title := range []string{"a", "b", "c"} {
		_, err := s.backlogs.CreateBacklog(ctx, &models.Backlog{Title: title, ProjectSlug: p.Slug})
		require.NoError(t, err)
	}

	page, hasMore, err := s.backlogs.ListBacklogsByProject(ctx, p.Slug, 2, 0)
	require.NoError(t, err)
	assert.Len(t, page, 2)
	assert.True(t, hasMore)

	rest, hasMore, err := s.backlogs.ListBacklogsByProject(ctx, p.Slug, 2, 2)
	require.NoError(t, err)
	assert.Len(t, rest, 1)
	assert.False(t, hasMore)
}
