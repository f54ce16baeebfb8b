// Package modtest builds in-memory environments and synthetic logs for
// module tests.
package modtest

import (
	"context"
	"math/big"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/mimic-fi/v3-subgraph/internal/contracts"
	"github.com/mimic-fi/v3-subgraph/internal/modules/core"
	"github.com/mimic-fi/v3-subgraph/internal/modules/deps"
	"github.com/mimic-fi/v3-subgraph/internal/modules/loader"
	"github.com/mimic-fi/v3-subgraph/internal/network"
	"github.com/mimic-fi/v3-subgraph/internal/store"
)

// Env is a module environment over an in-memory backend and a stubbed
// contract reader.
type Env struct {
	Backend   *store.Memory
	Reader    *contracts.StaticReader
	Templates *Templates
	Deps      *deps.Deps
}

// New builds an environment for the named network.
func New(t *testing.T, networkName string) *Env {
	t.Helper()

	net, err := network.Lookup(networkName)
	require.NoError(t, err)

	backend := store.NewMemory()
	reader := contracts.NewStaticReader()
	d, err := deps.New(backend, reader, deps.Options{Network: net, Logger: zerolog.Nop()})
	require.NoError(t, err)

	templates := &Templates{}
	d.Templates = templates
	return &Env{Backend: backend, Reader: reader, Templates: templates, Deps: d}
}

// Manifest loads an embedded manifest.
func (e *Env) Manifest(t *testing.T, name string) *core.Manifest {
	t.Helper()
	m, err := loader.NewManifestLoader(zerolog.Nop()).Load(name)
	require.NoError(t, err)
	return m
}

// Apply runs module.HandleEvent inside a transaction pinned to the event's
// block, the way the registry does.
func (e *Env) Apply(t *testing.T, module core.Module, event *core.RawEvent) error {
	t.Helper()
	ctx := contracts.WithBlock(context.Background(), event.Log.BlockNumber)
	return e.Deps.Repos.RunInTx(ctx, func(ctx context.Context) error {
		return module.HandleEvent(ctx, event)
	})
}

// Created is a template instantiation recorded by Templates.
type Created struct {
	Template string
	Address  common.Address
	Block    uint64
}

// Templates records template instantiations instead of routing them.
type Templates struct {
	mu      sync.Mutex
	Created []Created
}

func (r *Templates) CreateTemplate(_ context.Context, template string, address common.Address, block uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Created = append(r.Created, Created{Template: template, Address: address, Block: block})
	return nil
}

// Tx carries the transaction context of a synthetic event.
type Tx struct {
	Hash      common.Hash
	Block     uint64
	Index     uint
	From      common.Address
	GasPrice  *big.Int
	Timestamp uint64
}

// Event encodes a log for the manifest signature sig emitted by address.
// values follow the signature's parameter order; indexed values become
// topics.
func Event(t *testing.T, tx Tx, address common.Address, sig string, values ...interface{}) *core.RawEvent {
	t.Helper()

	event, err := core.ParseEventSignature(sig)
	require.NoError(t, err)
	require.Len(t, values, len(event.Inputs), "values for %s", sig)

	topics := []common.Hash{event.ID}
	var data []interface{}
	for i, input := range event.Inputs {
		if input.Indexed {
			topics = append(topics, topic(t, values[i]))
			continue
		}
		data = append(data, values[i])
	}
	packed, err := event.Inputs.NonIndexed().Pack(data...)
	require.NoError(t, err)

	gasPrice := tx.GasPrice
	if gasPrice == nil {
		gasPrice = new(big.Int)
	}
	return &core.RawEvent{
		Log: types.Log{
			Address:     address,
			Topics:      topics,
			Data:        packed,
			BlockNumber: tx.Block,
			TxHash:      tx.Hash,
			Index:       tx.Index,
		},
		Timestamp: tx.Timestamp,
		From:      tx.From,
		GasPrice:  gasPrice,
	}
}

func topic(t *testing.T, v interface{}) common.Hash {
	switch x := v.(type) {
	case common.Address:
		return common.BytesToHash(x.Bytes())
	case *big.Int:
		return common.BigToHash(x)
	case [32]byte:
		return x
	case common.Hash:
		return x
	case [4]byte:
		var h common.Hash
		copy(h[:], x[:])
		return h
	case bool:
		if x {
			return common.BigToHash(big.NewInt(1))
		}
		return common.Hash{}
	}
	t.Fatalf("unsupported indexed value %T", v)
	return common.Hash{}
}

// Addr builds an address from a short hex suffix.
func Addr(hex string) common.Address {
	return common.HexToAddress(hex)
}
