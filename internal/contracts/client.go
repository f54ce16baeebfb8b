package contracts

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"

	"github.com/mimic-fi/v3-subgraph/internal/metrics"
)

// Unknown is the sentinel for string reads that reverted.
const Unknown = "Unknown"

// Client wraps a Reader with typed, fail-soft accessors. A failed or
// malformed read is logged, counted and replaced by a sentinel; no accessor
// returns an error.
type Client struct {
	reader  Reader
	logger  zerolog.Logger
	metrics *metrics.Metrics
}

func NewClient(reader Reader, m *metrics.Metrics, logger zerolog.Logger) *Client {
	return &Client{
		reader:  reader,
		logger:  logger.With().Str("component", "contracts").Logger(),
		metrics: m,
	}
}

// Try performs the call and reports whether it succeeded.
func (c *Client) Try(ctx context.Context, contract string, address common.Address, method string, args ...interface{}) ([]interface{}, bool) {
	out, err := c.reader.Call(ctx, contract, address, method, args...)
	if err != nil {
		c.reverted(contract, address, method, err)
		return nil, false
	}
	return out, true
}

// Address returns the zero address on revert.
func (c *Client) Address(ctx context.Context, contract string, address common.Address, method string, args ...interface{}) common.Address {
	out, ok := c.Try(ctx, contract, address, method, args...)
	if !ok {
		return common.Address{}
	}
	if v, ok := first[common.Address](out); ok {
		return v
	}
	c.malformed(contract, address, method)
	return common.Address{}
}

// AddressOK is Address with an explicit success flag.
func (c *Client) AddressOK(ctx context.Context, contract string, address common.Address, method string, args ...interface{}) (common.Address, bool) {
	out, ok := c.Try(ctx, contract, address, method, args...)
	if !ok {
		return common.Address{}, false
	}
	v, ok := first[common.Address](out)
	if !ok {
		c.malformed(contract, address, method)
	}
	return v, ok
}

// String returns Unknown on revert.
func (c *Client) String(ctx context.Context, contract string, address common.Address, method string) string {
	out, ok := c.Try(ctx, contract, address, method)
	if !ok {
		return Unknown
	}
	if v, ok := first[string](out); ok {
		return v
	}
	c.malformed(contract, address, method)
	return Unknown
}

// Uint8 returns 0 on revert.
func (c *Client) Uint8(ctx context.Context, contract string, address common.Address, method string) uint8 {
	out, ok := c.Try(ctx, contract, address, method)
	if !ok {
		return 0
	}
	if v, ok := first[uint8](out); ok {
		return v
	}
	c.malformed(contract, address, method)
	return 0
}

// Bytes32 returns nil on revert.
func (c *Client) Bytes32(ctx context.Context, contract string, address common.Address, method string) []byte {
	out, ok := c.Try(ctx, contract, address, method)
	if !ok {
		return nil
	}
	if v, ok := first[[32]byte](out); ok {
		return v[:]
	}
	c.malformed(contract, address, method)
	return nil
}

// BigAt returns output i as a big integer, or zero on revert.
func (c *Client) BigAt(ctx context.Context, contract string, address common.Address, method string, i int) *big.Int {
	out, ok := c.Try(ctx, contract, address, method)
	if !ok {
		return new(big.Int)
	}
	if i < len(out) {
		if v, ok := out[i].(*big.Int); ok && v != nil {
			return v
		}
	}
	c.malformed(contract, address, method)
	return new(big.Int)
}

// PermissionParam mirrors the Authorizer's Param struct.
type PermissionParam struct {
	Op    uint8
	Value *big.Int
}

// PermissionParams reads an authorizer's constraints for a grant.
func (c *Client) PermissionParams(ctx context.Context, authorizer, who, where common.Address, what [4]byte) ([]PermissionParam, bool) {
	out, ok := c.Try(ctx, Authorizer, authorizer, "getPermissionParams", who, where, what)
	if !ok {
		return nil, false
	}
	if len(out) == 0 {
		c.malformed(Authorizer, authorizer, "getPermissionParams")
		return nil, false
	}
	params, ok := convert[[]PermissionParam](out[0])
	if !ok {
		c.malformed(Authorizer, authorizer, "getPermissionParams")
		return nil, false
	}
	return params, true
}

func (c *Client) reverted(contract string, address common.Address, method string, err error) {
	c.metrics.ContractReverted(contract, method)
	c.logger.Warn().
		Err(err).
		Str("contract", contract).
		Str("address", address.Hex()).
		Str("method", method).
		Msg("Contract call reverted")
}

func (c *Client) malformed(contract string, address common.Address, method string) {
	c.metrics.ContractReverted(contract, method)
	c.logger.Warn().
		Str("contract", contract).
		Str("address", address.Hex()).
		Str("method", method).
		Msg("Contract call returned unexpected output")
}

func first[T any](out []interface{}) (T, bool) {
	var zero T
	if len(out) == 0 {
		return zero, false
	}
	v, ok := out[0].(T)
	return v, ok
}

// convert maps abi-generated anonymous structs onto a named Go type.
func convert[T any](in interface{}) (result T, ok bool) {
	if v, ok := in.(T); ok {
		return v, true
	}
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	v, ok := abi.ConvertType(in, new(T)).(*T)
	if !ok {
		return result, false
	}
	return *v, true
}
