package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Entity is implemented by every persisted type.
type Entity interface {
	Kind() string
	Key() string
	ParentKey() string
}

// Repository is a typed view over a Backend for a single entity kind.
type Repository[T any, PT interface {
	*T
	Entity
}] struct {
	backend Backend
	kind    string
}

// NewRepository binds a repository for T to the backend.
func NewRepository[T any, PT interface {
	*T
	Entity
}](backend Backend) *Repository[T, PT] {
	return &Repository[T, PT]{
		backend: backend,
		kind:    PT(new(T)).Kind(),
	}
}

// Kind returns the entity kind handled by the repository.
func (r *Repository[T, PT]) Kind() string {
	return r.kind
}

// Load returns the entity with the given id, or nil when it does not exist.
func (r *Repository[T, PT]) Load(ctx context.Context, id string) (PT, error) {
	rec, err := r.backend.Get(ctx, r.kind, id)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load %s %s: %w", r.kind, id, err)
	}
	return r.decode(rec)
}

// Exists reports whether an entity with the given id is stored.
func (r *Repository[T, PT]) Exists(ctx context.Context, id string) (bool, error) {
	_, err := r.backend.Get(ctx, r.kind, id)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check %s %s: %w", r.kind, id, err)
	}
	return true, nil
}

// Save upserts the entity.
func (r *Repository[T, PT]) Save(ctx context.Context, e PT) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to encode %s %s: %w", r.kind, e.Key(), err)
	}
	rec := &Record{
		Kind:   r.kind,
		ID:     e.Key(),
		Parent: e.ParentKey(),
		Data:   data,
	}
	if err := r.backend.Put(ctx, rec); err != nil {
		return fmt.Errorf("failed to save %s %s: %w", r.kind, e.Key(), err)
	}
	return nil
}

// Remove deletes the entity with the given id.
func (r *Repository[T, PT]) Remove(ctx context.Context, id string) error {
	if err := r.backend.Delete(ctx, r.kind, id); err != nil {
		return fmt.Errorf("failed to remove %s %s: %w", r.kind, id, err)
	}
	return nil
}

// ChildrenOf returns the entities owned by parent in creation order.
func (r *Repository[T, PT]) ChildrenOf(ctx context.Context, parent string) ([]PT, error) {
	recs, err := r.backend.Children(ctx, r.kind, parent)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s children of %s: %w", r.kind, parent, err)
	}
	return r.decodeAll(recs)
}

// All returns every stored entity of this kind in creation order.
func (r *Repository[T, PT]) All(ctx context.Context) ([]PT, error) {
	recs, err := r.backend.List(ctx, r.kind)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", r.kind, err)
	}
	return r.decodeAll(recs)
}

func (r *Repository[T, PT]) decode(rec *Record) (PT, error) {
	e := PT(new(T))
	if err := json.Unmarshal(rec.Data, e); err != nil {
		return nil, fmt.Errorf("failed to decode %s %s: %w", r.kind, rec.ID, err)
	}
	return e, nil
}

func (r *Repository[T, PT]) decodeAll(recs []*Record) ([]PT, error) {
	out := make([]PT, 0, len(recs))
	for _, rec := range recs {
		e, err := r.decode(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}
