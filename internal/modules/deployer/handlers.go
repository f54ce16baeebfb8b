package deployer

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/mimic-fi/v3-subgraph/internal/contracts"
	"github.com/mimic-fi/v3-subgraph/internal/entity"
	"github.com/mimic-fi/v3-subgraph/internal/modules/core"
	"github.com/mimic-fi/v3-subgraph/internal/modules/registry"
)

// Template names instantiated for deployed contracts.
const (
	AuthorizerTemplate  = "Authorizer"
	PriceOracleTemplate = "PriceOracle"
	SmartVaultTemplate  = "SmartVault"
	TaskTemplate        = "Task"
)

// deployment holds the fields shared by every "...Deployed" event.
type deployment struct {
	instance       common.Address
	id             string
	name           string
	implementation string
	environment    string
}

func (m *Module) deployment(ctx context.Context, e *core.ParsedEvent) (*deployment, error) {
	namespace, err := e.StringArg("namespace")
	if err != nil {
		return nil, err
	}
	name, err := e.StringArg("name")
	if err != nil {
		return nil, err
	}
	instance, err := e.AddressArg("instance")
	if err != nil {
		return nil, err
	}
	implAddr, err := e.AddressArg("implementation")
	if err != nil {
		return nil, err
	}

	impl, err := registry.LoadOrCreateImplementation(ctx, m.Repos, implAddr)
	if err != nil {
		return nil, err
	}
	env, err := m.loadOrCreateEnvironment(ctx, e.From, namespace)
	if err != nil {
		return nil, err
	}

	return &deployment{
		instance:       instance,
		id:             core.AddressID(instance),
		name:           name,
		implementation: impl.ID,
		environment:    env.ID,
	}, nil
}

// EnvironmentID is keccak256(creator ++ utf8(namespace)).
func EnvironmentID(creator common.Address, namespace string) string {
	raw := append(creator.Bytes(), []byte(namespace)...)
	return core.Hex(crypto.Keccak256(raw))
}

func (m *Module) loadOrCreateEnvironment(ctx context.Context, creator common.Address, namespace string) (*entity.Environment, error) {
	id := EnvironmentID(creator, namespace)
	env, err := m.Repos.Environments.Load(ctx, id)
	if err != nil || env != nil {
		return env, err
	}

	env = &entity.Environment{
		ID:        id,
		Creator:   core.AddressID(creator),
		Namespace: namespace,
		Network:   m.Network.Name,
	}
	if err := m.Repos.Environments.Save(ctx, env); err != nil {
		return nil, err
	}
	m.logger.Info().Str("environment", id).Str("namespace", namespace).Msg("New environment")
	return env, nil
}

func handleAuthorizerDeployed(ctx context.Context, m *Module, e *core.ParsedEvent) error {
	d, err := m.deployment(ctx, e)
	if err != nil {
		return err
	}

	exists, err := m.Repos.Authorizers.Exists(ctx, d.id)
	if err != nil {
		return err
	}
	if !exists {
		m.logger.Info().Str("authorizer", d.id).Msg("New authorizer deployed")
		err := m.Repos.Authorizers.Save(ctx, &entity.Authorizer{
			ID:             d.id,
			Name:           d.name,
			Implementation: d.implementation,
			Environment:    d.environment,
		})
		if err != nil {
			return err
		}
	}
	return m.Templates.CreateTemplate(ctx, AuthorizerTemplate, d.instance, e.BlockNumber)
}

func handlePriceOracleDeployed(ctx context.Context, m *Module, e *core.ParsedEvent) error {
	d, err := m.deployment(ctx, e)
	if err != nil {
		return err
	}

	exists, err := m.Repos.PriceOracles.Exists(ctx, d.id)
	if err != nil {
		return err
	}
	if !exists {
		m.logger.Info().Str("price_oracle", d.id).Msg("New price oracle deployed")
		err := m.Repos.PriceOracles.Save(ctx, &entity.PriceOracle{
			ID:             d.id,
			Name:           d.name,
			Implementation: d.implementation,
			Environment:    d.environment,
		})
		if err != nil {
			return err
		}
	}
	return m.Templates.CreateTemplate(ctx, PriceOracleTemplate, d.instance, e.BlockNumber)
}

func handleSmartVaultDeployed(ctx context.Context, m *Module, e *core.ParsedEvent) error {
	d, err := m.deployment(ctx, e)
	if err != nil {
		return err
	}

	exists, err := m.Repos.SmartVaults.Exists(ctx, d.id)
	if err != nil {
		return err
	}
	if !exists {
		m.logger.Info().Str("smart_vault", d.id).Msg("New smart vault deployed")
		err := m.Repos.SmartVaults.Save(ctx, &entity.SmartVault{
			ID:             d.id,
			Name:           d.name,
			Implementation: d.implementation,
			Environment:    d.environment,
			Registry:       core.AddressID(m.Contracts.Address(ctx, contracts.SmartVault, d.instance, "registry")),
			Authorizer:     core.AddressID(m.Contracts.Address(ctx, contracts.SmartVault, d.instance, "authorizer")),
			PriceOracle:    core.AddressID(m.Contracts.Address(ctx, contracts.SmartVault, d.instance, "priceOracle")),
		})
		if err != nil {
			return err
		}
	}
	return m.Templates.CreateTemplate(ctx, SmartVaultTemplate, d.instance, e.BlockNumber)
}

func handleTaskDeployed(ctx context.Context, m *Module, e *core.ParsedEvent) error {
	d, err := m.deployment(ctx, e)
	if err != nil {
		return err
	}

	exists, err := m.Repos.Tasks.Exists(ctx, d.id)
	if err != nil {
		return err
	}
	if !exists {
		m.logger.Info().Str("task", d.id).Msg("New task deployed")

		var executionType string
		if raw := m.Contracts.Bytes32(ctx, contracts.Task, d.instance, "EXECUTION_TYPE"); raw != nil {
			executionType = core.Hex(raw)
		}
		err := m.Repos.Tasks.Save(ctx, &entity.Task{
			ID:             d.id,
			Name:           d.name,
			Implementation: d.implementation,
			Environment:    d.environment,
			SmartVault:     core.AddressID(m.Contracts.Address(ctx, contracts.Task, d.instance, "smartVault")),
			TokensSource:   core.AddressID(m.Contracts.Address(ctx, contracts.Task, d.instance, "getTokensSource")),
			ExecutionType:  executionType,
		})
		if err != nil {
			return err
		}
	}
	return m.Templates.CreateTemplate(ctx, TaskTemplate, d.instance, e.BlockNumber)
}
