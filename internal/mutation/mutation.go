// Package mutation defines the bulk mutations the batched pipeline can apply
// to a target record, behind a small strategy registry.
package mutation

import (
	"context"
	"fmt"

	"github.com/FallingWithStyle/Github-Notion-Logger-sub003/internal/domain"
	"github.com/FallingWithStyle/Github-Notion-Logger-sub003/internal/ports"
)

// Mutation applies one change to a single record through the record service.
type Mutation interface {
	Name() string
	Apply(ctx context.Context, svc ports.RecordService, rec domain.Record) error
}

// Registry keeps a mapping from mutation names to their implementations.
type Registry struct {
	mutations map[string]Mutation
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{mutations: map[string]Mutation{}}
}

// Register adds or replaces a mutation implementation.
func (r *Registry) Register(m Mutation) {
	if r.mutations == nil {
		r.mutations = map[string]Mutation{}
	}
	r.mutations[m.Name()] = m
}

// Resolve returns a mutation by name or an error if it is absent.
func (r *Registry) Resolve(name string) (Mutation, error) {
	if m, ok := r.mutations[name]; ok {
		return m, nil
	}
	return nil, fmt.Errorf("mutation %s is not registered", name)
}

// Archive soft-deletes the target record.
type Archive struct{}

// Name identifies the strategy inside the registry.
func (Archive) Name() string { return "archive" }

// Apply archives the record.
func (Archive) Apply(ctx context.Context, svc ports.RecordService, rec domain.Record) error {
	return svc.Archive(ctx, rec.ID)
}

// Rewrite copies the value of one property to another, optionally clearing
// the source. Records lacking the source property are left untouched.
type Rewrite struct {
	From        string
	To          string
	ClearSource bool
}

// Name identifies the strategy inside the registry.
func (Rewrite) Name() string { return "rewrite" }

// Apply writes the target property on the record.
func (m Rewrite) Apply(ctx context.Context, svc ports.RecordService, rec domain.Record) error {
	prop, ok := rec.Properties[m.From]
	if !ok {
		return nil
	}

	patch := domain.Patch{
		Properties: map[string]domain.Property{m.To: prop},
	}
	if m.ClearSource {
		patch.Clear = []string{m.From}
	}
	return svc.Update(ctx, rec.ID, patch)
}
