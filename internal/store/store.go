package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned by a Backend when no record exists for a key.
var ErrNotFound = errors.New("not found")

// Record is the storage representation of an entity. Seq is assigned on
// first insert and preserved across updates, so children listed by parent
// come back in creation order.
type Record struct {
	Kind   string
	ID     string
	Parent string
	Seq    int64
	Data   []byte
}

// Backend is the persistence primitive used by every repository.
type Backend interface {
	// Get returns ErrNotFound when the record is absent.
	Get(ctx context.Context, kind, id string) (*Record, error)

	// Put inserts or replaces a record.
	Put(ctx context.Context, rec *Record) error

	// Delete removes a record. Deleting an absent record is not an error.
	Delete(ctx context.Context, kind, id string) error

	// Children returns every record of kind owned by parent, ordered by Seq.
	Children(ctx context.Context, kind, parent string) ([]*Record, error)

	// List returns every record of kind, ordered by Seq.
	List(ctx context.Context, kind string) ([]*Record, error)

	// RunInTx applies fn atomically. Nested calls join the outer transaction.
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}
