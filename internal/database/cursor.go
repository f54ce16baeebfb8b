package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// Cursor persists the last block the indexer fully processed for a chain.
type Cursor struct {
	db      *Database
	chainID int64
}

func NewCursor(db *Database, chainID int64) *Cursor {
	return &Cursor{db: db, chainID: chainID}
}

// LastBlock returns the last processed block and whether one was recorded.
func (c *Cursor) LastBlock(ctx context.Context) (uint64, bool, error) {
	var blockNumber uint64
	err := c.db.conn(ctx).QueryRow(ctx,
		`SELECT last_block_number FROM indexer_state WHERE chain_id = $1`,
		c.chainID,
	).Scan(&blockNumber)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to get last block number: %w", err)
	}
	return blockNumber, true, nil
}

func (c *Cursor) SetLastBlock(ctx context.Context, blockNumber uint64, blockHash string) error {
	_, err := c.db.conn(ctx).Exec(ctx, `
		INSERT INTO indexer_state (chain_id, last_block_number, last_block_hash)
		VALUES ($1, $2, $3)
		ON CONFLICT (chain_id) DO UPDATE
		SET last_block_number = EXCLUDED.last_block_number,
		    last_block_hash = EXCLUDED.last_block_hash,
		    updated_at = NOW()`,
		c.chainID, blockNumber, blockHash,
	)
	if err != nil {
		return fmt.Errorf("failed to update last block number: %w", err)
	}
	return nil
}
