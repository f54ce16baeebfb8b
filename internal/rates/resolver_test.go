package rates

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mimic-fi/v3-subgraph/internal/contracts"
	"github.com/mimic-fi/v3-subgraph/internal/network"
)

func newResolver(t *testing.T, name string, reader *contracts.StaticReader) (*Resolver, network.Network) {
	t.Helper()
	net, err := network.Lookup(name)
	require.NoError(t, err)
	client := contracts.NewClient(reader, nil, zerolog.Nop())
	return NewResolver(client, net, 1, nil, zerolog.Nop()), net
}

func TestValueInUSD_ZeroShortCircuits(t *testing.T) {
	reader := contracts.NewStaticReader()
	resolver, _ := newResolver(t, "mainnet", reader)

	token := common.HexToAddress("0x1234")
	assert.Equal(t, 0, resolver.ValueInUSD(context.Background(), token, big.NewInt(0)).Sign())
	assert.Equal(t, 0, resolver.ValueInUSD(context.Background(), token, nil).Sign())
	assert.Zero(t, reader.TotalCalls())
}

func TestValueInUSD_USDCRescales(t *testing.T) {
	reader := contracts.NewStaticReader()
	resolver, net := newResolver(t, "mainnet", reader)
	reader.Set(contracts.ERC20, net.USDC, "decimals", []interface{}{uint8(8)})

	got := resolver.ValueInUSD(context.Background(), net.USDC, big.NewInt(12345600))
	assert.Equal(t, int64(123456), got.Int64())

	// decimals are cached after the first read
	resolver.ValueInUSD(context.Background(), net.USDC, big.NewInt(1))
	assert.Equal(t, 1, reader.Calls(contracts.ERC20, "decimals"))
}

func TestValueInUSD_UniswapV3(t *testing.T) {
	reader := contracts.NewStaticReader()
	resolver, net := newResolver(t, "mainnet", reader)

	factory := common.HexToAddress("0xfac")
	pool := common.HexToAddress("0x9001")
	reader.Set(contracts.UniswapV3Router, network.UniswapV3Router, "factory", []interface{}{factory})
	reader.Set(contracts.UniswapV3Factory, factory, "getPool", []interface{}{common.Address{}}, net.WrappedNative, net.USDC, big.NewInt(500))
	reader.Set(contracts.UniswapV3Factory, factory, "getPool", []interface{}{pool}, net.WrappedNative, net.USDC, big.NewInt(3000))
	// token0 (USDC) priced at 1/4 token1, so one WETH unit is worth four USDC units
	sqrt := new(big.Int).Lsh(big.NewInt(1), 95)
	reader.Set(contracts.UniswapV3Pool, pool, "slot0", []interface{}{sqrt, big.NewInt(0)})
	reader.Set(contracts.ERC20, net.USDC, "decimals", []interface{}{uint8(6)})

	got := resolver.ValueInUSD(context.Background(), net.WrappedNative, big.NewInt(10))
	assert.Equal(t, int64(40), got.Int64())

	resolver.ValueInUSD(context.Background(), net.WrappedNative, big.NewInt(10))
	assert.Equal(t, 1, reader.Calls(contracts.UniswapV3Router, "factory"))
	assert.Equal(t, 3, reader.Calls(contracts.UniswapV3Factory, "getPool"), "zero pools are retried, found pools cached")
}

func TestValueInUSD_UniswapV2(t *testing.T) {
	reader := contracts.NewStaticReader()
	resolver, net := newResolver(t, "fantom", reader)

	pair := common.HexToAddress("0xbeef")
	reader.Set(contracts.UniswapV2Factory, net.Factory, "getPair", []interface{}{pair}, net.WrappedNative, net.USDC)
	reader.Set(contracts.UniswapV2Pair, pair, "getReserves", []interface{}{big.NewInt(2000), big.NewInt(1), uint32(0)})
	reader.Set(contracts.ERC20, net.USDC, "decimals", []interface{}{uint8(6)})

	got := resolver.ValueInUSD(context.Background(), net.WrappedNative, big.NewInt(3))
	assert.Equal(t, int64(6000), got.Int64())
}

func TestValueInUSD_UnresolvedIsZero(t *testing.T) {
	reader := contracts.NewStaticReader()
	resolver, _ := newResolver(t, "mainnet", reader)

	got := resolver.ValueInUSD(context.Background(), common.HexToAddress("0x1234"), big.NewInt(1e6))
	assert.Equal(t, 0, got.Sign())

	unsupported, _ := newResolver(t, "base", contracts.NewStaticReader())
	got = unsupported.ValueInUSD(context.Background(), common.HexToAddress("0x1234"), big.NewInt(1e6))
	assert.Equal(t, 0, got.Sign())
}

func TestNativeInUSD(t *testing.T) {
	reader := contracts.NewStaticReader()
	resolver, net := newResolver(t, "mainnet", reader)

	assert.Equal(t, 0, resolver.NativeInUSD(context.Background(), big.NewInt(1)).Sign(), "reverted feed")

	reader.Set(contracts.Aggregator, net.NativeUSDFeed, "decimals", []interface{}{uint8(8)})
	reader.Set(contracts.Aggregator, net.NativeUSDFeed, "latestRoundData", []interface{}{
		big.NewInt(1), big.NewInt(2000_00000000), big.NewInt(0), big.NewInt(0), big.NewInt(1),
	})
	got := resolver.NativeInUSD(context.Background(), big.NewInt(3))
	assert.Equal(t, int64(6000_000000), got.Int64())
}

func TestRescale(t *testing.T) {
	assert.Equal(t, int64(12), rescale(big.NewInt(1234), 8, 6).Int64())
	assert.Equal(t, int64(123400), rescale(big.NewInt(1234), 4, 6).Int64())
	assert.Equal(t, int64(1234), rescale(big.NewInt(1234), 6, 6).Int64())
}
