package accounting

import (
	"context"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/mimic-fi/v3-subgraph/internal/entity"
	"github.com/mimic-fi/v3-subgraph/internal/store"
)

func TestLedger_ApplyIsIdempotentPerEvent(t *testing.T) {
	ledger := NewLedger(entity.NewRepos(store.NewMemory()))
	ctx := context.Background()
	account := Account("RelayerConfig", "r/v", "balance")

	applied, err := ledger.Apply(ctx, account, "0xaa#1", big.NewInt(10))
	require.NoError(t, err)
	assert.True(t, applied)

	applied, err = ledger.Apply(ctx, account, "0xaa#1", big.NewInt(10))
	require.NoError(t, err)
	assert.False(t, applied)

	_, err = ledger.Apply(ctx, account, "0xaa#2", big.NewInt(-4))
	require.NoError(t, err)

	balance, err := ledger.Balance(ctx, account)
	require.NoError(t, err)
	assert.Equal(t, int64(6), balance.Int64())
}

func TestLedger_EmptyAccount(t *testing.T) {
	ledger := NewLedger(entity.NewRepos(store.NewMemory()))
	balance, err := ledger.Balance(context.Background(), "nothing")
	require.NoError(t, err)
	assert.Equal(t, 0, balance.Sign())
}

func TestLedger_BalanceIsSumOfDistinctEvents(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		ledger := NewLedger(entity.NewRepos(store.NewMemory()))
		ctx := context.Background()

		n := rapid.IntRange(1, 30).Draw(t, "events")
		want := map[int]int64{}
		for i := 0; i < n; i++ {
			event := rapid.IntRange(0, 9).Draw(t, "event")
			amount := rapid.Int64Range(-1000, 1000).Draw(t, "amount")
			applied, err := ledger.Apply(ctx, "acct", big.NewInt(int64(event)).String(), big.NewInt(amount))
			if err != nil {
				t.Fatal(err)
			}
			if _, seen := want[event]; seen == applied {
				t.Fatalf("event %d applied=%v but seen=%v", event, applied, seen)
			}
			if applied {
				want[event] = amount
			}
		}

		var sum int64
		for _, v := range want {
			sum += v
		}
		balance, err := ledger.Balance(ctx, "acct")
		if err != nil {
			t.Fatal(err)
		}
		if balance.Int64() != sum {
			t.Fatalf("balance %d, want %d", balance.Int64(), sum)
		}
	})
}
