package network

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// RateSource selects how token amounts are valued in USD on a chain.
type RateSource string

const (
	RateSourceNone      RateSource = "none"
	RateSourceUniswapV2 RateSource = "uniswap-v2"
	RateSourceUniswapV3 RateSource = "uniswap-v3"
)

var (
	// NativeToken is the placeholder address protocols use for the chain's native asset.
	NativeToken = common.HexToAddress("0xeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeee")

	UniswapV3Router  = common.HexToAddress("0xE592427A0AEce92De3Edee1F18E0157C05861564")
	SushiswapFactory = common.HexToAddress("0xc35dadb65012ec5796536bd9864ed8773abc74c4")
	HoneyswapFactory = common.HexToAddress("0xA818b4F111Ccac7AA31D0BCc0806d64F2E0737D7")
)

// Network holds the chain-specific constants the indexer needs.
type Network struct {
	Name          string
	ChainID       int64
	NativeName    string
	NativeSymbol  string
	USDC          common.Address
	WrappedNative common.Address
	NativeUSDFeed common.Address
	RateSource    RateSource
	// Factory is the constant-product factory for RateSourceUniswapV2.
	Factory common.Address
}

// IsZero reports whether addr is the zero address.
func IsZero(addr common.Address) bool {
	return addr == (common.Address{})
}

var eth = struct{ name, symbol string }{"Ether", "ETH"}

var networks = []Network{
	{
		Name: "mainnet", ChainID: 1, NativeName: eth.name, NativeSymbol: eth.symbol,
		USDC:          common.HexToAddress("0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48"),
		WrappedNative: common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"),
		NativeUSDFeed: common.HexToAddress("0x5f4eC3Df9cbd43714FE2740f5E3616155c5b8419"),
		RateSource:    RateSourceUniswapV3,
	},
	{
		Name: "arbitrum-one", ChainID: 42161, NativeName: eth.name, NativeSymbol: eth.symbol,
		USDC:          common.HexToAddress("0xFF970A61A04b1cA14834A43f5dE4533eBDDB5CC8"),
		WrappedNative: common.HexToAddress("0x82aF49447D8a07e3bd95BD0d56f35241523fBab1"),
		NativeUSDFeed: common.HexToAddress("0x639Fe6ab55C921f74e7fac1ee960C0B6293ba612"),
		RateSource:    RateSourceUniswapV3,
	},
	{
		Name: "optimism", ChainID: 10, NativeName: eth.name, NativeSymbol: eth.symbol,
		USDC:          common.HexToAddress("0x7f5c764cbc14f9669b88837ca1490cca17c31607"),
		WrappedNative: common.HexToAddress("0x4200000000000000000000000000000000000006"),
		NativeUSDFeed: common.HexToAddress("0x13e3Ee699D1909E989722E753853AE30b17e08c5"),
		RateSource:    RateSourceUniswapV3,
	},
	{
		Name: "polygon", ChainID: 137, NativeName: "Matic", NativeSymbol: "MATIC",
		USDC:          common.HexToAddress("0x2791bca1f2de4661ed88a30c99a7a9449aa84174"),
		WrappedNative: common.HexToAddress("0x0d500B1d8E8eF31E21C99d1Db9A6444d3ADf1270"),
		NativeUSDFeed: common.HexToAddress("0xAB594600376Ec9fD91F8e885dADF0CE036862dE0"),
		RateSource:    RateSourceUniswapV3,
	},
	{
		Name: "avalanche", ChainID: 43114, NativeName: "Avax", NativeSymbol: "AVAX",
		USDC:          common.HexToAddress("0xB97EF9Ef8734C71904D8002F8b6Bc66Dd9c48a6E"),
		WrappedNative: common.HexToAddress("0xB31f66AA3C1e785363F0875A1B74E27b85FD66c7"),
		NativeUSDFeed: common.HexToAddress("0x0A77230d17318075983913bC2145DB16C7366156"),
		RateSource:    RateSourceUniswapV2,
		Factory:       SushiswapFactory,
	},
	{
		Name: "bsc", ChainID: 56, NativeName: "BNB", NativeSymbol: "BNB",
		USDC:          common.HexToAddress("0x8AC76a51cc950d9822D68b83fE1Ad97B32Cd580d"),
		WrappedNative: common.HexToAddress("0xbb4CdB9CBd36B01bD1cBaEBF2De08d9173bc095c"),
		NativeUSDFeed: common.HexToAddress("0x0567F2323251f0Aab15c8dFb1967E4e8A7D42aeE"),
		RateSource:    RateSourceUniswapV2,
		Factory:       SushiswapFactory,
	},
	{
		Name: "fantom", ChainID: 250, NativeName: "Fantom", NativeSymbol: "FTM",
		USDC:          common.HexToAddress("0x04068DA6C83AFCFA0e13ba15A6696662335D5B75"),
		WrappedNative: common.HexToAddress("0x21be370D5312f44cB42ce377BC9b8a0cEF1A4C83"),
		NativeUSDFeed: common.HexToAddress("0xf4766552D15AE4d256Ad41B6cf2933482B0680dc"),
		RateSource:    RateSourceUniswapV2,
		Factory:       SushiswapFactory,
	},
	{
		Name: "gnosis", ChainID: 100, NativeName: "Dai", NativeSymbol: "DAI",
		USDC:          common.HexToAddress("0xddafbb505ad214d7b80b1f830fccc89b60fb7a83"),
		WrappedNative: common.HexToAddress("0xe91D153E0b41518A2Ce8Dd3D7944Fa863463a97d"),
		NativeUSDFeed: common.HexToAddress("0x678df3415fc31947dA4324eC63212874be5a82f8"),
		RateSource:    RateSourceUniswapV2,
		Factory:       HoneyswapFactory,
	},
	{
		Name: "base", ChainID: 8453, NativeName: eth.name, NativeSymbol: eth.symbol,
		USDC:          common.HexToAddress("0x833589fcd6edb6e08f4c7c32d4f71b54bda02913"),
		WrappedNative: common.HexToAddress("0x4200000000000000000000000000000000000006"),
		NativeUSDFeed: common.HexToAddress("0x71041dddad3595F9CEd3DcCFBe3D1F4b0a16Bb70"),
		RateSource:    RateSourceNone,
	},
	{
		Name: "zkevm", ChainID: 1101, NativeName: eth.name, NativeSymbol: eth.symbol,
		USDC:          common.HexToAddress("0xa8ce8aee21bc2a48a5ef670afcc9274c7bbbc035"),
		WrappedNative: common.HexToAddress("0x4F9A0e7FD2Bf6067db6994CF12E4495Df938E6e9"),
		RateSource:    RateSourceNone,
	},
	{Name: "aurora", ChainID: 1313161554, NativeName: eth.name, NativeSymbol: eth.symbol, RateSource: RateSourceNone},
	{Name: "sonic", ChainID: 146, NativeName: eth.name, NativeSymbol: eth.symbol, RateSource: RateSourceNone},
	{Name: "blast", ChainID: 81457, NativeName: eth.name, NativeSymbol: eth.symbol, RateSource: RateSourceNone},
	{Name: "mode", ChainID: 34443, NativeName: eth.name, NativeSymbol: eth.symbol, RateSource: RateSourceNone},
}

var aliases = map[string]string{
	"arbitrum":      "arbitrum-one",
	"matic":         "polygon",
	"polygon-zkevm": "zkevm",
}

// Lookup resolves a network by name or alias.
func Lookup(name string) (Network, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if canonical, ok := aliases[name]; ok {
		name = canonical
	}
	for _, n := range networks {
		if n.Name == name {
			return n, nil
		}
	}
	return Network{}, fmt.Errorf("unknown network %q", name)
}

// ByChainID resolves a network by chain id.
func ByChainID(chainID int64) (Network, error) {
	for _, n := range networks {
		if n.ChainID == chainID {
			return n, nil
		}
	}
	return Network{}, fmt.Errorf("unknown chain id %d", chainID)
}

// Unknown is used when the indexer runs against an unlisted chain. Every
// constant is zero so valuations resolve to zero.
func Unknown(name string, chainID int64) Network {
	return Network{
		Name:         name,
		ChainID:      chainID,
		NativeName:   "Unknown",
		NativeSymbol: "Unknown",
		RateSource:   RateSourceNone,
	}
}
