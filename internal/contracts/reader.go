package contracts

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
)

// Reader performs a read-only contract call. Any error is treated by callers
// as a revert.
type Reader interface {
	Call(ctx context.Context, contract string, address common.Address, method string, args ...interface{}) ([]interface{}, error)
}

type blockKey struct{}

// WithBlock pins contract reads issued with ctx to a block height.
func WithBlock(ctx context.Context, block uint64) context.Context {
	return context.WithValue(ctx, blockKey{}, block)
}

// BlockFrom returns the block pinned by WithBlock, or nil for latest.
func BlockFrom(ctx context.Context) *big.Int {
	if b, ok := ctx.Value(blockKey{}).(uint64); ok {
		return new(big.Int).SetUint64(b)
	}
	return nil
}

// ParseABIs parses every known read ABI.
func ParseABIs() (map[string]*abi.ABI, error) {
	out := make(map[string]*abi.ABI, len(abiJSON))
	for name, raw := range abiJSON {
		parsed, err := abi.JSON(strings.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s ABI: %w", name, err)
		}
		out[name] = &parsed
	}
	return out, nil
}

// EthReader issues calls through a go-ethereum contract caller, usually an
// *ethclient.Client.
type EthReader struct {
	caller bind.ContractCaller
	abis   map[string]*abi.ABI
}

func NewEthReader(caller bind.ContractCaller) (*EthReader, error) {
	abis, err := ParseABIs()
	if err != nil {
		return nil, err
	}
	return &EthReader{caller: caller, abis: abis}, nil
}

func (r *EthReader) Call(ctx context.Context, contract string, address common.Address, method string, args ...interface{}) ([]interface{}, error) {
	parsed, ok := r.abis[contract]
	if !ok {
		return nil, fmt.Errorf("unknown contract ABI %s", contract)
	}

	bound := bind.NewBoundContract(address, *parsed, r.caller, nil, nil)
	opts := &bind.CallOpts{Context: ctx, BlockNumber: BlockFrom(ctx)}

	var out []interface{}
	if err := bound.Call(opts, &out, method, args...); err != nil {
		return nil, fmt.Errorf("%s.%s at %s: %w", contract, method, address.Hex(), err)
	}
	return out, nil
}
