package plugin_test

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/persistorai/backlog/internal/models"
	"github.com/persistorai/backlog/internal/plugin"
)

type namedBacklog struct {
	plugin.Base[models.Backlog]
	name string
}

func (p *namedBacklog) Name() string { return p.name }

type namedProject struct {
	plugin.Base[models.Project]
	name string
}

func (p *namedProject) Name() string { return p.name }

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	return log
}

func backlogFactory(p plugin.BacklogPlugin) plugin.Factory[models.Backlog] {
	return func() (plugin.BacklogPlugin, error) { return p, nil }
}

func names[E any](list []plugin.Plugin[E]) []string {
	out := make([]string, 0, len(list))
	for _, p := range list {
		out = append(out, p.Name())
	}

	return out
}

func TestRegistry_BuildKeepsOrderAndIsolatesFailures(t *testing.T) {
	r := plugin.NewRegistry(quietLogger())

	r.RegisterBacklog("first", backlogFactory(&namedBacklog{name: "first"}))
	r.RegisterBacklog("broken", func() (plugin.BacklogPlugin, error) { return nil, errors.New("no credentials") })
	r.RegisterBacklog("panicky", func() (plugin.BacklogPlugin, error) { panic("boom") })
	r.RegisterBacklog("second", backlogFactory(&namedBacklog{name: "second"}))

	set := r.Build(nil)

	got := names(set.Backlogs)
	if len(got) != 2 || got[0] != "first" || got[1] != "second" {
		t.Fatalf("backlog plugins = %v, want [first second]", got)
	}

	if len(set.Projects) != 0 {
		t.Errorf("project plugins = %v, want none", names(set.Projects))
	}
}

func TestRegistry_BuildCollapsesSameInstance(t *testing.T) {
	r := plugin.NewRegistry(quietLogger())

	shared := &namedBacklog{name: "shared"}
	r.RegisterBacklog("a", backlogFactory(shared))
	r.RegisterBacklog("b", backlogFactory(shared))
	r.RegisterBacklog("c", backlogFactory(&namedBacklog{name: "shared"}))

	if got := r.Build(nil).Backlogs; len(got) != 2 {
		t.Fatalf("got %d plugins, want 2 (same instance collapsed, equal-named distinct kept)", len(got))
	}
}

func TestRegistry_BuildHonoursEnabledList(t *testing.T) {
	r := plugin.NewRegistry(quietLogger())

	r.RegisterProject("zulip", func() (plugin.ProjectPlugin, error) { return &namedProject{name: "zulip"}, nil })
	r.RegisterProject("live", func() (plugin.ProjectPlugin, error) { return &namedProject{name: "live"}, nil })
	r.RegisterBacklog("zulip", backlogFactory(&namedBacklog{name: "zulip"}))

	set := r.Build([]string{"live"})

	if got := names(set.Projects); len(got) != 1 || got[0] != "live" {
		t.Errorf("project plugins = %v, want [live]", got)
	}

	if len(set.Backlogs) != 0 {
		t.Errorf("backlog plugins = %v, want none", names(set.Backlogs))
	}

	if got := r.Build([]string{}).Projects; len(got) != 0 {
		t.Errorf("empty enabled list should attach nothing, got %v", names(got))
	}
}

func TestBase_IsIdentity(t *testing.T) {
	var p plugin.Base[models.Backlog]

	ctx := context.Background()
	b := &models.Backlog{Title: "same"}

	for _, hook := range []func() (*models.Backlog, error){
		func() (*models.Backlog, error) { return p.BeforeCreate(ctx, b) },
		func() (*models.Backlog, error) { return p.AfterCreate(ctx, b) },
		func() (*models.Backlog, error) { return p.BeforeUpdate(ctx, b.ID, b) },
		func() (*models.Backlog, error) { return p.AfterUpdate(ctx, b) },
		func() (*models.Backlog, error) { return p.AfterDelete(ctx, b) },
	} {
		got, err := hook()
		if err != nil || got != b {
			t.Errorf("hook returned %v, %v; want identity", got, err)
		}
	}
}
