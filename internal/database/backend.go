package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/mimic-fi/v3-subgraph/internal/store"
)

// Backend stores entity records as JSONB rows of the entities table.
type Backend struct {
	db *Database
}

func NewBackend(db *Database) *Backend {
	return &Backend{db: db}
}

func (b *Backend) Get(ctx context.Context, kind, id string) (*store.Record, error) {
	rec := &store.Record{Kind: kind, ID: id}
	err := b.db.conn(ctx).QueryRow(ctx,
		`SELECT parent, seq, data FROM entities WHERE kind = $1 AND id = $2`,
		kind, id,
	).Scan(&rec.Parent, &rec.Seq, &rec.Data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s %s: %w", kind, id, err)
	}
	return rec, nil
}

// Put keeps the seq of an existing row so children stay in creation order.
func (b *Backend) Put(ctx context.Context, rec *store.Record) error {
	_, err := b.db.conn(ctx).Exec(ctx, `
		INSERT INTO entities (kind, id, parent, data)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (kind, id) DO UPDATE
		SET parent = EXCLUDED.parent,
		    data = EXCLUDED.data,
		    updated_at = NOW()`,
		rec.Kind, rec.ID, rec.Parent, rec.Data,
	)
	if err != nil {
		return fmt.Errorf("failed to put %s %s: %w", rec.Kind, rec.ID, err)
	}
	return nil
}

func (b *Backend) Delete(ctx context.Context, kind, id string) error {
	if _, err := b.db.conn(ctx).Exec(ctx, `DELETE FROM entities WHERE kind = $1 AND id = $2`, kind, id); err != nil {
		return fmt.Errorf("failed to delete %s %s: %w", kind, id, err)
	}
	return nil
}

func (b *Backend) Children(ctx context.Context, kind, parent string) ([]*store.Record, error) {
	rows, err := b.db.conn(ctx).Query(ctx,
		`SELECT kind, id, parent, seq, data FROM entities WHERE kind = $1 AND parent = $2 ORDER BY seq`,
		kind, parent,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s children of %s: %w", kind, parent, err)
	}
	return collectRecords(rows)
}

func (b *Backend) List(ctx context.Context, kind string) ([]*store.Record, error) {
	rows, err := b.db.conn(ctx).Query(ctx,
		`SELECT kind, id, parent, seq, data FROM entities WHERE kind = $1 ORDER BY seq`,
		kind,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", kind, err)
	}
	return collectRecords(rows)
}

func (b *Backend) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return b.db.Transaction(ctx, fn)
}

func collectRecords(rows pgx.Rows) ([]*store.Record, error) {
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*store.Record, error) {
		var rec store.Record
		err := row.Scan(&rec.Kind, &rec.ID, &rec.Parent, &rec.Seq, &rec.Data)
		return &rec, err
	})
}
