package main

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mimic-fi/v3-subgraph/internal/config"
	"github.com/mimic-fi/v3-subgraph/internal/modules/modtest"
)

func TestBuildRegistry_AllModulesAndSources(t *testing.T) {
	env := modtest.New(t, "mainnet")
	sources := map[string]config.SourceConfig{
		"deployer":       {Address: "0x00000000000000000000000000000000000000a1", StartBlock: 10},
		"registry":       {Address: "0x00000000000000000000000000000000000000a2"},
		"relayer":        {Address: "0x00000000000000000000000000000000000000a3"},
		"fee_controller": {Address: "0x00000000000000000000000000000000000000a4"},
	}

	registry, err := buildRegistry(context.Background(), env.Deps, sources, zerolog.Nop())
	require.NoError(t, err)
	assert.Len(t, registry.ListModules(), len(constructors))
	assert.Equal(t, 4, registry.Routes())
	assert.NotEmpty(t, registry.Topics())
	assert.Same(t, registry, env.Deps.Templates)
}

func TestBuildRegistry_RejectsBadAddress(t *testing.T) {
	env := modtest.New(t, "mainnet")
	_, err := buildRegistry(context.Background(), env.Deps, map[string]config.SourceConfig{
		"relayer": {Address: "nope"},
	}, zerolog.Nop())
	assert.ErrorContains(t, err, "is not an address")
}

func TestStartBlock(t *testing.T) {
	cfg := &config.Config{Sources: map[string]config.SourceConfig{
		"deployer": {StartBlock: 300},
		"relayer":  {StartBlock: 200},
	}}
	assert.Equal(t, uint64(200), startBlock(cfg))

	cfg.Chain.StartBlock = 50
	assert.Equal(t, uint64(50), startBlock(cfg))
}

func TestResolveNetwork(t *testing.T) {
	net, err := resolveNetwork(config.ChainConfig{Name: "mainnet"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), net.ChainID)

	net, err = resolveNetwork(config.ChainConfig{Name: "devnet", ChainID: 31337})
	require.NoError(t, err)
	assert.Equal(t, int64(31337), net.ChainID)

	_, err = resolveNetwork(config.ChainConfig{Name: "devnet"})
	assert.Error(t, err)
}
