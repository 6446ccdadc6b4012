// Package plugin defines the lifecycle hook contract that services run around
// every create, update and delete, and the registry that builds the enabled
// plugins at startup.
package plugin

import (
	"context"

	"github.com/google/uuid"

	"github.com/persistorai/backlog/internal/models"
)

// Plugin observes and may transform one entity type E across its lifecycle.
// Hooks run sequentially in registry order and receive a copy of the previous
// plugin's output, so they may edit it in place. Returning an error discards
// the hook's result and its edits; returning nil without an error keeps the
// previous value.
type Plugin[E any] interface {
	Name() string
	BeforeCreate(ctx context.Context, e *E) (*E, error)
	AfterCreate(ctx context.Context, e *E) (*E, error)
	BeforeUpdate(ctx context.Context, id uuid.UUID, e *E) (*E, error)
	AfterUpdate(ctx context.Context, e *E) (*E, error)
	BeforeDelete(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
	AfterDelete(ctx context.Context, e *E) (*E, error)
}

// ProjectPlugin is a plugin attached to the project service.
type ProjectPlugin = Plugin[models.Project]

// BacklogPlugin is a plugin attached to the backlog service.
type BacklogPlugin = Plugin[models.Backlog]

// Base implements every hook as the identity. Embed it and override only the
// hooks a plugin cares about.
type Base[E any] struct{}

// BeforeCreate returns e unchanged.
func (Base[E]) BeforeCreate(_ context.Context, e *E) (*E, error) { return e, nil }

// AfterCreate returns e unchanged.
func (Base[E]) AfterCreate(_ context.Context, e *E) (*E, error) { return e, nil }

// BeforeUpdate returns e unchanged.
func (Base[E]) BeforeUpdate(_ context.Context, _ uuid.UUID, e *E) (*E, error) { return e, nil }

// AfterUpdate returns e unchanged.
func (Base[E]) AfterUpdate(_ context.Context, e *E) (*E, error) { return e, nil }

// BeforeDelete returns id unchanged.
func (Base[E]) BeforeDelete(_ context.Context, id uuid.UUID) (uuid.UUID, error) { return id, nil }

// AfterDelete returns e unchanged.
func (Base[E]) AfterDelete(_ context.Context, e *E) (*E, error) { return e, nil }
