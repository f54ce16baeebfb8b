package network

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup_Aliases(t *testing.T) {
	for alias, want := range map[string]int64{
		"mainnet":       1,
		"arbitrum":      42161,
		"arbitrum-one":  42161,
		"matic":         137,
		"Polygon":       137,
		"polygon-zkevm": 1101,
		"gnosis":        100,
	} {
		n, err := Lookup(alias)
		require.NoError(t, err, alias)
		assert.Equal(t, want, n.ChainID, alias)
	}

	_, err := Lookup("zilliqa")
	assert.Error(t, err)
}

func TestRateSources(t *testing.T) {
	n, err := Lookup("gnosis")
	require.NoError(t, err)
	assert.Equal(t, RateSourceUniswapV2, n.RateSource)
	assert.Equal(t, HoneyswapFactory, n.Factory)

	n, err = Lookup("bsc")
	require.NoError(t, err)
	assert.Equal(t, SushiswapFactory, n.Factory)

	n, err = ByChainID(10)
	require.NoError(t, err)
	assert.Equal(t, RateSourceUniswapV3, n.RateSource)
	assert.Equal(t, "ETH", n.NativeSymbol)
}

func TestUnknown(t *testing.T) {
	n := Unknown("devnet", 31337)
	assert.Equal(t, RateSourceNone, n.RateSource)
	assert.True(t, IsZero(n.NativeUSDFeed))
	assert.Equal(t, "Unknown", n.NativeSymbol)
}
