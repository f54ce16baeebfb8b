// Package rates values token amounts in USD using on-chain liquidity and
// the network's native/USD feed. A zero result means "unpriced".
package rates

import (
	"context"
	"math/big"
	"strings"

	"github.com/coocood/freecache"
	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"

	"github.com/mimic-fi/v3-subgraph/internal/contracts"
	"github.com/mimic-fi/v3-subgraph/internal/metrics"
	"github.com/mimic-fi/v3-subgraph/internal/network"
)

// Precision is the number of decimals of every USD amount.
const Precision = 6

var feeTiers = []*big.Int{big.NewInt(500), big.NewInt(3000), big.NewInt(10000)}

var pow2_192 = new(big.Int).Lsh(big.NewInt(1), 192)

// Resolver converts amounts into USD. Pool and factory addresses are cached
// once found since they never change afterwards.
type Resolver struct {
	client  *contracts.Client
	network network.Network
	cache   *freecache.Cache
	metrics *metrics.Metrics
	logger  zerolog.Logger
}

// NewResolver creates a resolver with a cache of cacheMB megabytes.
func NewResolver(client *contracts.Client, net network.Network, cacheMB int, m *metrics.Metrics, logger zerolog.Logger) *Resolver {
	if cacheMB <= 0 {
		cacheMB = 1
	}
	return &Resolver{
		client:  client,
		network: net,
		cache:   freecache.NewCache(cacheMB * 1024 * 1024),
		metrics: m,
		logger:  logger.With().Str("component", "rates").Logger(),
	}
}

// ValueInUSD returns amount of token valued in USD with Precision decimals.
// A zero amount returns zero without touching the chain.
func (r *Resolver) ValueInUSD(ctx context.Context, token common.Address, amount *big.Int) *big.Int {
	if amount == nil || amount.Sign() == 0 {
		return new(big.Int)
	}

	inUSDC := r.valueInUSDC(ctx, token, amount)
	resolved := inUSDC.Sign() != 0
	r.metrics.RateLookup(string(r.network.RateSource), resolved)
	if !resolved {
		return inUSDC
	}

	decimals, ok := r.usdcDecimals(ctx)
	if !ok {
		return new(big.Int)
	}
	return rescale(inUSDC, int(decimals), Precision)
}

// NativeInUSD values an amount of the native asset with the network's
// native/USD aggregator.
func (r *Resolver) NativeInUSD(ctx context.Context, amount *big.Int) *big.Int {
	feed := r.network.NativeUSDFeed
	if amount == nil || amount.Sign() == 0 || network.IsZero(feed) {
		return new(big.Int)
	}

	decimals := r.client.Uint8(ctx, contracts.Aggregator, feed, "decimals")
	if decimals == 0 {
		return new(big.Int)
	}
	price := r.client.BigAt(ctx, contracts.Aggregator, feed, "latestRoundData", 1)
	if price.Sign() == 0 {
		return new(big.Int)
	}

	value := new(big.Int).Mul(price, amount)
	return rescale(value, int(decimals), Precision)
}

func (r *Resolver) valueInUSDC(ctx context.Context, token common.Address, amount *big.Int) *big.Int {
	var convert func(ctx context.Context, in, out common.Address, amount *big.Int) *big.Int
	switch r.network.RateSource {
	case network.RateSourceUniswapV3:
		convert = r.convertV3
	case network.RateSourceUniswapV2:
		convert = r.convertV2
	default:
		r.logger.Warn().
			Str("token", token.Hex()).
			Str("network", r.network.Name).
			Msg("Could not compute rate in USD")
		return new(big.Int)
	}

	usdc, wrapped := r.network.USDC, r.network.WrappedNative
	switch token {
	case usdc:
		return new(big.Int).Set(amount)
	case wrapped:
		return convert(ctx, wrapped, usdc, amount)
	default:
		return convert(ctx, wrapped, usdc, convert(ctx, token, wrapped, amount))
	}
}

func (r *Resolver) convertV3(ctx context.Context, in, out common.Address, amount *big.Int) *big.Int {
	if amount.Sign() == 0 {
		return new(big.Int)
	}
	pool := r.lowestFeePool(ctx, in, out)
	if network.IsZero(pool) {
		r.logger.Warn().Str("tokenIn", in.Hex()).Str("tokenOut", out.Hex()).Msg("Could not find pool")
		return new(big.Int)
	}

	sqrtPrice := r.client.BigAt(ctx, contracts.UniswapV3Pool, pool, "slot0", 0)
	if sqrtPrice.Sign() == 0 {
		return new(big.Int)
	}

	// sqrtPriceX96 is Q64.96, so price = sqrt^2 / 2^192 for token0 in token1.
	value := new(big.Int)
	if isToken0(in, out) {
		value.Mul(amount, sqrtPrice).Mul(value, sqrtPrice).Div(value, pow2_192)
	} else {
		value.Mul(amount, pow2_192).Div(value, sqrtPrice).Div(value, sqrtPrice)
	}
	return value
}

func (r *Resolver) lowestFeePool(ctx context.Context, a, b common.Address) common.Address {
	factory := r.cached("v3factory", func() common.Address {
		return r.client.Address(ctx, contracts.UniswapV3Router, network.UniswapV3Router, "factory")
	})
	if network.IsZero(factory) {
		return common.Address{}
	}
	for _, fee := range feeTiers {
		pool := r.cached("v3pool/"+a.Hex()+"/"+b.Hex()+"/"+fee.String(), func() common.Address {
			return r.client.Address(ctx, contracts.UniswapV3Factory, factory, "getPool", a, b, fee)
		})
		if !network.IsZero(pool) {
			return pool
		}
	}
	return common.Address{}
}

func (r *Resolver) convertV2(ctx context.Context, in, out common.Address, amount *big.Int) *big.Int {
	if amount.Sign() == 0 {
		return new(big.Int)
	}
	factory := r.network.Factory
	pair := r.cached("v2pair/"+factory.Hex()+"/"+in.Hex()+"/"+out.Hex(), func() common.Address {
		return r.client.Address(ctx, contracts.UniswapV2Factory, factory, "getPair", in, out)
	})
	if network.IsZero(pair) {
		r.logger.Warn().Str("tokenIn", in.Hex()).Str("tokenOut", out.Hex()).Msg("Could not find pool")
		return new(big.Int)
	}

	out0, ok := r.client.Try(ctx, contracts.UniswapV2Pair, pair, "getReserves")
	if !ok || len(out0) < 2 {
		return new(big.Int)
	}
	reserve0, ok0 := out0[0].(*big.Int)
	reserve1, ok1 := out0[1].(*big.Int)
	if !ok0 || !ok1 {
		return new(big.Int)
	}

	inReserve, outReserve := reserve1, reserve0
	if isToken0(in, out) {
		inReserve, outReserve = reserve0, reserve1
	}
	if inReserve.Sign() == 0 {
		return new(big.Int)
	}
	value := new(big.Int).Mul(amount, outReserve)
	return value.Div(value, inReserve)
}

func (r *Resolver) usdcDecimals(ctx context.Context) (uint8, bool) {
	key := []byte("usdc/decimals")
	if v, err := r.cache.Get(key); err == nil && len(v) == 1 {
		return v[0], true
	}
	out, ok := r.client.Try(ctx, contracts.ERC20, r.network.USDC, "decimals")
	if !ok || len(out) == 0 {
		return 0, false
	}
	d, ok := out[0].(uint8)
	if !ok {
		return 0, false
	}
	_ = r.cache.Set(key, []byte{d}, 0)
	return d, true
}

// cached memoizes non-zero addresses. Zero results are retried since pools
// may be created later.
func (r *Resolver) cached(key string, lookup func() common.Address) common.Address {
	if v, err := r.cache.Get([]byte(key)); err == nil {
		return common.BytesToAddress(v)
	}
	addr := lookup()
	if !network.IsZero(addr) {
		_ = r.cache.Set([]byte(key), addr.Bytes(), 0)
	}
	return addr
}

func isToken0(a, b common.Address) bool {
	return strings.ToLower(a.Hex()) < strings.ToLower(b.Hex())
}

// rescale moves value from one number of decimals to another.
func rescale(value *big.Int, from, to int) *big.Int {
	out := new(big.Int).Set(value)
	switch {
	case from > to:
		return out.Div(out, new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(from-to)), nil))
	case from < to:
		return out.Mul(out, new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(to-from)), nil))
	default:
		return out
	}
}
