package plugin

import (
	"fmt"
	"reflect"

	"github.com/sirupsen/logrus"

	"github.com/persistorai/backlog/internal/models"
)

// Factory constructs a plugin instance. It is called at most once per Build.
type Factory[E any] func() (Plugin[E], error)

type entry[E any] struct {
	name    string
	factory Factory[E]
}

// Registry is the explicit startup-time list of plugin candidates, per entity
// type, in registration order.
type Registry struct {
	log      *logrus.Logger
	projects []entry[models.Project]
	backlogs []entry[models.Backlog]
}

// NewRegistry creates an empty Registry.
func NewRegistry(log *logrus.Logger) *Registry {
	return &Registry{log: log}
}

// RegisterProject adds a project plugin candidate under name.
func (r *Registry) RegisterProject(name string, f Factory[models.Project]) {
	r.projects = append(r.projects, entry[models.Project]{name: name, factory: f})
}

// RegisterBacklog adds a backlog plugin candidate under name.
func (r *Registry) RegisterBacklog(name string, f Factory[models.Backlog]) {
	r.backlogs = append(r.backlogs, entry[models.Backlog]{name: name, factory: f})
}

// Set holds the constructed plugins for each entity type, in registration order.
type Set struct {
	Projects []ProjectPlugin
	Backlogs []BacklogPlugin
}

// Build constructs every candidate whose name is in enabled. A nil enabled
// list enables all candidates. A candidate that fails to construct (error or
// panic) is logged and skipped without affecting the others. The same
// instance returned twice is attached once.
func (r *Registry) Build(enabled []string) Set {
	var allow map[string]bool
	if enabled != nil {
		allow = make(map[string]bool, len(enabled))
		for _, name := range enabled {
			allow[name] = true
		}
	}

	return Set{
		Projects: build(r.log, models.EntityProject, r.projects, allow),
		Backlogs: build(r.log, models.EntityBacklog, r.backlogs, allow),
	}
}

func build[E any](log *logrus.Logger, kind models.EntityKind, entries []entry[E], allow map[string]bool) []Plugin[E] {
	out := make([]Plugin[E], 0, len(entries))

	for _, e := range entries {
		if allow != nil && !allow[e.name] {
			continue
		}

		p, err := construct(e.factory)
		if err != nil {
			log.WithError(err).WithFields(logrus.Fields{
				"plugin": e.name,
				"entity": kind,
			}).Warn("plugin construction failed, skipping")

			continue
		}

		if p == nil || contains(out, p) {
			continue
		}

		out = append(out, p)

		log.WithFields(logrus.Fields{"plugin": p.Name(), "entity": kind}).Info("plugin attached")
	}

	return out
}

func construct[E any](f Factory[E]) (p Plugin[E], err error) {
	defer func() {
		if r := recover(); r != nil {
			p, err = nil, fmt.Errorf("panic: %v", r)
		}
	}()

	return f()
}

// contains compares by interface identity, which for pointer plugins is an
// instance check. Non-comparable plugin values are never considered duplicates.
func contains[E any](list []Plugin[E], p Plugin[E]) bool {
	if !reflect.TypeOf(p).Comparable() {
		return false
	}

	for _, q := range list {
		if reflect.TypeOf(q) != reflect.TypeOf(p) {
			continue
		}

		if q == p {
			return true
		}
	}

	return false
}
