package registry

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mimic-fi/v3-subgraph/internal/modules/core"
	"github.com/mimic-fi/v3-subgraph/internal/modules/modtest"
)

var (
	registryAddr = modtest.Addr("0x0000000000000000000000000000000000000100")
	impl         = modtest.Addr("0x0000000000000000000000000000000000000101")
)

func TestRegisteredThenDeprecated(t *testing.T) {
	env := modtest.New(t, "mainnet")
	m, err := New(env.Deps, env.Manifest(t, "registry"))
	require.NoError(t, err)

	tx := modtest.Tx{Hash: common.HexToHash("0x1"), Block: 1}
	require.NoError(t, env.Apply(t, m, modtest.Event(t, tx, registryAddr,
		"Registered(indexed address implementation, string name, bool stateless)", impl, "SmartVault v1", true)))

	got, err := env.Deps.Repos.Implementations.Load(context.Background(), core.AddressID(impl))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "SmartVault v1", got.Name)
	assert.True(t, got.Stateless)
	assert.False(t, got.Deprecated)

	tx.Index = 1
	require.NoError(t, env.Apply(t, m, modtest.Event(t, tx, registryAddr, "Deprecated(indexed address implementation)", impl)))

	got, err = env.Deps.Repos.Implementations.Load(context.Background(), got.ID)
	require.NoError(t, err)
	assert.True(t, got.Deprecated)
	assert.Equal(t, "SmartVault v1", got.Name)
}

func TestDeprecatedUnknownImplementationCreatesIt(t *testing.T) {
	env := modtest.New(t, "mainnet")
	m, err := New(env.Deps, env.Manifest(t, "registry"))
	require.NoError(t, err)

	require.NoError(t, env.Apply(t, m, modtest.Event(t, modtest.Tx{Block: 3}, registryAddr, "Deprecated(indexed address implementation)", impl)))

	got, err := env.Deps.Repos.Implementations.Load(context.Background(), core.AddressID(impl))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Empty(t, got.Name)
	assert.True(t, got.Deprecated)
}
