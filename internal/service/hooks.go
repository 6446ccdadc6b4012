package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/backlog/internal/metrics"
	"github.com/persistorai/backlog/internal/models"
	"github.com/persistorai/backlog/internal/plugin"
)

// Hook names used in logs and metrics.
const (
	hookBeforeCreate = "before_create"
	hookAfterCreate  = "after_create"
	hookBeforeUpdate = "before_update"
	hookAfterUpdate  = "after_update"
	hookBeforeDelete = "before_delete"
	hookAfterDelete  = "after_delete"
)

// Hooks runs one lifecycle hook across an ordered plugin list. Each plugin
// receives a private copy of the previous plugin's output. A hook that errors
// or panics is logged and counted, its copy is discarded (including any
// in-place edits), and the chain continues.
type Hooks[E any] struct {
	kind    models.EntityKind
	plugins []plugin.Plugin[E]
	clone   func(*E) *E
	log     *logrus.Logger
}

// NewHooks creates a Hooks runner for the given entity kind. clone must return
// a copy sharing no mutable state with its argument.
func NewHooks[E any](kind models.EntityKind, plugins []plugin.Plugin[E], clone func(*E) *E, log *logrus.Logger) *Hooks[E] {
	return &Hooks[E]{kind: kind, plugins: plugins, clone: clone, log: log}
}

// BeforeCreate runs every plugin's BeforeCreate hook.
func (h *Hooks[E]) BeforeCreate(ctx context.Context, e *E) *E {
	return h.chain(hookBeforeCreate, e, func(p plugin.Plugin[E], cur *E) (*E, error) {
		return p.BeforeCreate(ctx, cur)
	})
}

// AfterCreate runs every plugin's AfterCreate hook.
func (h *Hooks[E]) AfterCreate(ctx context.Context, e *E) *E {
	return h.chain(hookAfterCreate, e, func(p plugin.Plugin[E], cur *E) (*E, error) {
		return p.AfterCreate(ctx, cur)
	})
}

// BeforeUpdate runs every plugin's BeforeUpdate hook.
func (h *Hooks[E]) BeforeUpdate(ctx context.Context, id uuid.UUID, e *E) *E {
	return h.chain(hookBeforeUpdate, e, func(p plugin.Plugin[E], cur *E) (*E, error) {
		return p.BeforeUpdate(ctx, id, cur)
	})
}

// AfterUpdate runs every plugin's AfterUpdate hook.
func (h *Hooks[E]) AfterUpdate(ctx context.Context, e *E) *E {
	return h.chain(hookAfterUpdate, e, func(p plugin.Plugin[E], cur *E) (*E, error) {
		return p.AfterUpdate(ctx, cur)
	})
}

// AfterDelete runs every plugin's AfterDelete hook.
func (h *Hooks[E]) AfterDelete(ctx context.Context, e *E) *E {
	return h.chain(hookAfterDelete, e, func(p plugin.Plugin[E], cur *E) (*E, error) {
		return p.AfterDelete(ctx, cur)
	})
}

// BeforeDelete runs every plugin's BeforeDelete hook. A uuid.Nil result
// without an error keeps the previous id.
func (h *Hooks[E]) BeforeDelete(ctx context.Context, id uuid.UUID) uuid.UUID {
	for _, p := range h.plugins {
		h.safeCall(p, hookBeforeDelete, func() error {
			out, err := p.BeforeDelete(ctx, id)
			if err != nil {
				return err
			}

			if out != uuid.Nil {
				id = out
			}

			return nil
		})
	}

	return id
}

func (h *Hooks[E]) chain(hook string, e *E, call func(p plugin.Plugin[E], cur *E) (*E, error)) *E {
	for _, p := range h.plugins {
		h.safeCall(p, hook, func() error {
			out, err := call(p, h.clone(e))
			if err != nil {
				return err
			}

			if out != nil {
				e = out
			}

			return nil
		})
	}

	return e
}

// safeCall runs fn, converting a panic into an error, and logs and counts
// any failure.
func (h *Hooks[E]) safeCall(p plugin.Plugin[E], hook string, fn func() error) {
	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic: %v", r)
			}
		}()

		return fn()
	}()
	if err == nil {
		return
	}

	metrics.PluginHookFailures.WithLabelValues(string(h.kind), p.Name(), hook).Inc()
	h.log.WithError(err).WithFields(logrus.Fields{
		"plugin": p.Name(),
		"hook":   hook,
		"entity": h.kind,
	}).Error("plugin hook failed")
}
