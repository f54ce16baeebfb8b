package smartvault

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mimic-fi/v3-subgraph/internal/correlator"
	"github.com/mimic-fi/v3-subgraph/internal/entity"
	"github.com/mimic-fi/v3-subgraph/internal/modules/core"
	"github.com/mimic-fi/v3-subgraph/internal/modules/modtest"
)

const (
	sigUpdated  = "BalanceConnectorUpdated(indexed bytes32 id, indexed address token, uint256 amount, bool added)"
	sigExecuted = "Executed(indexed address connector, bytes data, bytes result)"
	sigCollect  = "Collected(indexed address token, indexed address from, uint256 amount)"
	sigWithdraw = "Withdrawn(indexed address token, indexed address recipient, uint256 amount, uint256 fee)"
)

var (
	vault     = modtest.Addr("0x00000000000000000000000000000000000000a1")
	token     = modtest.Addr("0x00000000000000000000000000000000000000d1")
	sender    = modtest.Addr("0x00000000000000000000000000000000000000e1")
	adapter   = modtest.Addr("0x00000000000000000000000000000000000000c1")
	connector = [32]byte{0x01}
)

func newModule(t *testing.T) (*modtest.Env, *Module) {
	t.Helper()
	env := modtest.New(t, "mainnet")
	m, err := New(env.Deps, env.Manifest(t, "smartvault"))
	require.NoError(t, err)
	return env, m
}

func TestCalls_NumberedInTransactionOrder(t *testing.T) {
	env, m := newModule(t)
	ctx := context.Background()
	hash := common.HexToHash("0x01")
	tx := func(index uint) modtest.Tx {
		return modtest.Tx{Hash: hash, Block: 10, Index: index, From: sender, Timestamp: 1700000000}
	}

	withdraw := modtest.Event(t, tx(7), vault, sigWithdraw, token, sender, big.NewInt(100), big.NewInt(3))
	require.NoError(t, env.Apply(t, m, modtest.Event(t, tx(2), vault, sigExecuted, adapter, []byte{0x01}, []byte{})))
	require.NoError(t, env.Apply(t, m, modtest.Event(t, tx(5), vault, sigCollect, token, sender, big.NewInt(9))))
	require.NoError(t, env.Apply(t, m, withdraw))
	require.NoError(t, env.Apply(t, m, withdraw))

	assert.Equal(t, 3, env.Backend.Count("SmartVaultCall"))
	want := []string{entity.CallExecute, entity.CallCollect, entity.CallWithdraw}
	for i, typ := range want {
		call, err := env.Deps.Repos.SmartVaultCalls.Load(ctx, correlator.RecordID(hash.Hex(), i))
		require.NoError(t, err)
		require.NotNil(t, call)
		assert.Equal(t, typ, call.Type)
		assert.Equal(t, core.AddressID(vault), call.SmartVault)
		assert.Equal(t, core.AddressID(sender), call.Sender)
		assert.Equal(t, uint64(1700000000), call.ExecutedAt)
	}

	last, err := env.Deps.Repos.SmartVaultCalls.Load(ctx, correlator.RecordID(hash.Hex(), 2))
	require.NoError(t, err)
	assert.Equal(t, int64(3), last.Fee.Int64())
}

func TestBalanceConnectorUpdated_AccumulatesOnce(t *testing.T) {
	env, m := newModule(t)
	ctx := context.Background()

	deposit := modtest.Event(t, modtest.Tx{Hash: common.HexToHash("0x01"), Block: 10, Index: 1}, vault, sigUpdated, connector, token, big.NewInt(100), true)
	withdraw := modtest.Event(t, modtest.Tx{Hash: common.HexToHash("0x02"), Block: 11, Index: 4}, vault, sigUpdated, connector, token, big.NewInt(30), false)

	require.NoError(t, env.Apply(t, m, deposit))
	require.NoError(t, env.Apply(t, m, withdraw))
	require.NoError(t, env.Apply(t, m, deposit))

	connectorID := BalanceConnectorID(core.AddressID(vault), core.Hex(connector[:]))
	balanceID := connectorID + "-" + core.AddressID(token)
	balance, err := env.Deps.Repos.BalanceConnectorBalances.Load(ctx, balanceID)
	require.NoError(t, err)
	require.NotNil(t, balance)
	assert.Equal(t, int64(70), balance.Amount.Int64())
	assert.Equal(t, connectorID, balance.Connector)

	ledger, err := env.Deps.Ledger.Balance(ctx, BalanceAccount(balanceID))
	require.NoError(t, err)
	assert.Equal(t, 0, ledger.Cmp(balance.Amount))

	assert.Equal(t, 2, env.Backend.Count("Movement"))
	assert.Equal(t, 1, env.Backend.Count("BalanceConnector"))

	mv, err := env.Deps.Repos.Movements.Load(ctx, correlator.RecordID(common.HexToHash("0x02").Hex(), 0))
	require.NoError(t, err)
	require.NotNil(t, mv)
	assert.False(t, mv.Added)
	assert.Equal(t, int64(30), mv.Amount.Int64())
	assert.Zero(t, mv.AmountUSD.Sign())
	assert.Equal(t, core.Hex(connector[:]), mv.Connector)
}

func TestPaused_MissingVaultIsIgnored(t *testing.T) {
	env, m := newModule(t)

	require.NoError(t, env.Apply(t, m, modtest.Event(t, modtest.Tx{Block: 1}, vault, "Paused()")))
	assert.Equal(t, 0, env.Backend.Count("SmartVault"))
}

func TestStatusChanges(t *testing.T) {
	env, m := newModule(t)
	ctx := context.Background()
	oracle := modtest.Addr("0x00000000000000000000000000000000000000b1")

	require.NoError(t, env.Deps.Repos.SmartVaults.Save(ctx, &entity.SmartVault{ID: core.AddressID(vault)}))
	require.NoError(t, env.Apply(t, m, modtest.Event(t, modtest.Tx{Block: 1}, vault, "Paused()")))
	require.NoError(t, env.Apply(t, m, modtest.Event(t, modtest.Tx{Block: 2}, vault, "PriceOracleSet(indexed address priceOracle)", oracle)))

	sv, err := env.Deps.Repos.SmartVaults.Load(ctx, core.AddressID(vault))
	require.NoError(t, err)
	assert.True(t, sv.Paused)
	assert.Equal(t, core.AddressID(oracle), sv.PriceOracle)

	require.NoError(t, env.Apply(t, m, modtest.Event(t, modtest.Tx{Block: 3}, vault, "Unpaused()")))
	sv, err = env.Deps.Repos.SmartVaults.Load(ctx, core.AddressID(vault))
	require.NoError(t, err)
	assert.False(t, sv.Paused)
}
