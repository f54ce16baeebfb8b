// Package tokens resolves ERC20 descriptors, creating them on first use.
package tokens

import (
	"context"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"

	"github.com/mimic-fi/v3-subgraph/internal/contracts"
	"github.com/mimic-fi/v3-subgraph/internal/entity"
	"github.com/mimic-fi/v3-subgraph/internal/network"
	"github.com/mimic-fi/v3-subgraph/internal/store"
)

const nativeDecimals = 18

// Registry loads or creates token descriptors.
type Registry struct {
	repo    *store.Repository[entity.ERC20, *entity.ERC20]
	client  *contracts.Client
	network network.Network
	logger  zerolog.Logger
}

func NewRegistry(repos *entity.Repos, client *contracts.Client, net network.Network, logger zerolog.Logger) *Registry {
	return &Registry{
		repo:    repos.ERC20s,
		client:  client,
		network: net,
		logger:  logger.With().Str("component", "tokens").Logger(),
	}
}

// ID is the storage key of a token.
func ID(address common.Address) string {
	return strings.ToLower(address.Hex())
}

// Resolve returns the descriptor for address, reading name, symbol and
// decimals from the chain the first time the token is seen. Reverted reads
// leave "Unknown" and 0.
func (r *Registry) Resolve(ctx context.Context, address common.Address) (*entity.ERC20, error) {
	id := ID(address)
	token, err := r.repo.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if token != nil {
		return token, nil
	}

	if address == network.NativeToken {
		token = &entity.ERC20{
			ID:       id,
			Name:     r.network.NativeName,
			Symbol:   r.network.NativeSymbol,
			Decimals: nativeDecimals,
		}
	} else {
		token = &entity.ERC20{
			ID:       id,
			Name:     r.client.String(ctx, contracts.ERC20, address, "name"),
			Symbol:   r.client.String(ctx, contracts.ERC20, address, "symbol"),
			Decimals: r.client.Uint8(ctx, contracts.ERC20, address, "decimals"),
		}
	}

	if err := r.repo.Save(ctx, token); err != nil {
		return nil, fmt.Errorf("failed to create token %s: %w", id, err)
	}
	r.logger.Debug().
		Str("token", id).
		Str("symbol", token.Symbol).
		Uint8("decimals", token.Decimals).
		Msg("Token registered")
	return token, nil
}
