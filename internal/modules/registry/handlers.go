package registry

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"github.com/mimic-fi/v3-subgraph/internal/entity"
	"github.com/mimic-fi/v3-subgraph/internal/modules/core"
)

func handleRegistered(ctx context.Context, m *Module, e *core.ParsedEvent) error {
	address, err := e.AddressArg("implementation")
	if err != nil {
		return err
	}
	name, err := e.StringArg("name")
	if err != nil {
		return err
	}
	stateless, err := e.BoolArg("stateless")
	if err != nil {
		return err
	}

	impl, err := LoadOrCreateImplementation(ctx, m.Repos, address)
	if err != nil {
		return err
	}
	impl.Name = name
	impl.Stateless = stateless
	impl.Deprecated = false

	m.logger.Debug().Str("implementation", impl.ID).Str("name", name).Msg("Implementation registered")
	return m.Repos.Implementations.Save(ctx, impl)
}

func handleDeprecated(ctx context.Context, m *Module, e *core.ParsedEvent) error {
	address, err := e.AddressArg("implementation")
	if err != nil {
		return err
	}

	impl, err := LoadOrCreateImplementation(ctx, m.Repos, address)
	if err != nil {
		return err
	}
	impl.Deprecated = true
	return m.Repos.Implementations.Save(ctx, impl)
}

// LoadOrCreateImplementation returns the implementation at address,
// creating it with empty defaults the first time it is seen.
func LoadOrCreateImplementation(ctx context.Context, repos *entity.Repos, address common.Address) (*entity.Implementation, error) {
	id := core.AddressID(address)
	impl, err := repos.Implementations.Load(ctx, id)
	if err != nil || impl != nil {
		return impl, err
	}

	impl = &entity.Implementation{ID: id}
	if err := repos.Implementations.Save(ctx, impl); err != nil {
		return nil, err
	}
	return impl, nil
}
