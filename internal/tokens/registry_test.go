package tokens

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mimic-fi/v3-subgraph/internal/contracts"
	"github.com/mimic-fi/v3-subgraph/internal/entity"
	"github.com/mimic-fi/v3-subgraph/internal/network"
	"github.com/mimic-fi/v3-subgraph/internal/store"
)

func newRegistry(t *testing.T, reader *contracts.StaticReader) (*Registry, *entity.Repos) {
	t.Helper()
	net, err := network.Lookup("polygon")
	require.NoError(t, err)
	repos := entity.NewRepos(store.NewMemory())
	client := contracts.NewClient(reader, nil, zerolog.Nop())
	return NewRegistry(repos, client, net, zerolog.Nop()), repos
}

func TestResolve_ReadsMetadataOnce(t *testing.T) {
	reader := contracts.NewStaticReader()
	usdc := common.HexToAddress("0x2791bca1f2de4661ed88a30c99a7a9449aa84174")
	reader.Set(contracts.ERC20, usdc, "name", []interface{}{"USD Coin"})
	reader.Set(contracts.ERC20, usdc, "symbol", []interface{}{"USDC"})
	reader.Set(contracts.ERC20, usdc, "decimals", []interface{}{uint8(6)})

	registry, repos := newRegistry(t, reader)
	ctx := context.Background()

	token, err := registry.Resolve(ctx, usdc)
	require.NoError(t, err)
	assert.Equal(t, "USD Coin", token.Name)
	assert.Equal(t, "USDC", token.Symbol)
	assert.Equal(t, uint8(6), token.Decimals)

	_, err = registry.Resolve(ctx, usdc)
	require.NoError(t, err)
	assert.Equal(t, 3, reader.TotalCalls())

	stored, err := repos.ERC20s.Load(ctx, ID(usdc))
	require.NoError(t, err)
	assert.Equal(t, token, stored)
}

func TestResolve_RevertedReadsUseSentinels(t *testing.T) {
	registry, _ := newRegistry(t, contracts.NewStaticReader())

	token, err := registry.Resolve(context.Background(), common.HexToAddress("0xbad"))
	require.NoError(t, err)
	assert.Equal(t, contracts.Unknown, token.Name)
	assert.Equal(t, contracts.Unknown, token.Symbol)
	assert.Equal(t, uint8(0), token.Decimals)
}

func TestResolve_NativeToken(t *testing.T) {
	reader := contracts.NewStaticReader()
	registry, _ := newRegistry(t, reader)

	token, err := registry.Resolve(context.Background(), network.NativeToken)
	require.NoError(t, err)
	assert.Equal(t, "Matic", token.Name)
	assert.Equal(t, "MATIC", token.Symbol)
	assert.Equal(t, uint8(18), token.Decimals)
	assert.Zero(t, reader.TotalCalls())
}
