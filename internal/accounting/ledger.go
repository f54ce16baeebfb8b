// Package accounting records additive counters as an append-only ledger of
// deltas keyed by the event that produced them.
package accounting

import (
	"context"
	"fmt"
	"math/big"

	"github.com/mimic-fi/v3-subgraph/internal/entity"
	"github.com/mimic-fi/v3-subgraph/internal/store"
)

// Ledger appends deltas and derives balances from them.
type Ledger struct {
	deltas *store.Repository[entity.Delta, *entity.Delta]
}

func NewLedger(repos *entity.Repos) *Ledger {
	return &Ledger{deltas: repos.Deltas}
}

// DeltaID identifies the change an event makes to an account.
func DeltaID(account, event string) string {
	return account + "#" + event
}

// Apply records amount against account for event. It reports false, and
// records nothing, when the event was already applied to that account.
func (l *Ledger) Apply(ctx context.Context, account, event string, amount *big.Int) (bool, error) {
	id := DeltaID(account, event)
	exists, err := l.deltas.Exists(ctx, id)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	delta := &entity.Delta{
		ID:      id,
		Account: account,
		Event:   event,
		Amount:  new(big.Int).Set(amount),
	}
	if err := l.deltas.Save(ctx, delta); err != nil {
		return false, fmt.Errorf("failed to append delta %s: %w", id, err)
	}
	return true, nil
}

// Balance sums every delta recorded for account.
func (l *Ledger) Balance(ctx context.Context, account string) (*big.Int, error) {
	deltas, err := l.deltas.ChildrenOf(ctx, account)
	if err != nil {
		return nil, err
	}
	sum := new(big.Int)
	for _, d := range deltas {
		sum.Add(sum, d.Amount)
	}
	return sum, nil
}

// Account names a counter of an entity, e.g. Account("RelayerConfig", id, "balance").
func Account(kind, id, field string) string {
	return kind + "/" + id + "/" + field
}
