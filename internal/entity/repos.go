package entity

import (
	"context"

	"github.com/mimic-fi/v3-subgraph/internal/store"
)

// Repos bundles the typed repositories handed to every materializer.
type Repos struct {
	backend store.Backend

	Implementations *store.Repository[Implementation, *Implementation]
	Environments    *store.Repository[Environment, *Environment]
	Authorizers     *store.Repository[Authorizer, *Authorizer]
	PriceOracles    *store.Repository[PriceOracle, *PriceOracle]
	SmartVaults     *store.Repository[SmartVault, *SmartVault]
	Tasks           *store.Repository[Task, *Task]
	DataSources     *store.Repository[DataSource, *DataSource]
	ERC20s          *store.Repository[ERC20, *ERC20]

	Permissions      *store.Repository[Permission, *Permission]
	PermissionParams *store.Repository[PermissionParam, *PermissionParam]

	TaskConfigs             *store.Repository[TaskConfig, *TaskConfig]
	CustomTokenThresholds   *store.Repository[CustomTokenThreshold, *CustomTokenThreshold]
	CustomVolumeLimits      *store.Repository[CustomVolumeLimit, *CustomVolumeLimit]
	CustomTokenOuts         *store.Repository[CustomTokenOut, *CustomTokenOut]
	CustomMaxSlippages      *store.Repository[CustomMaxSlippage, *CustomMaxSlippage]
	CustomDestinationChains *store.Repository[CustomDestinationChain, *CustomDestinationChain]
	CustomMaxBridgeFees     *store.Repository[CustomMaxBridgeFee, *CustomMaxBridgeFee]

	RelayedTransactions      *store.Repository[RelayedTransaction, *RelayedTransaction]
	RelayedExecutions        *store.Repository[RelayedExecution, *RelayedExecution]
	Movements                *store.Repository[Movement, *Movement]
	SmartVaultCalls          *store.Repository[SmartVaultCall, *SmartVaultCall]
	CorrelationLedgers       *store.Repository[CorrelationLedger, *CorrelationLedger]
	BalanceConnectors        *store.Repository[BalanceConnector, *BalanceConnector]
	BalanceConnectorBalances *store.Repository[BalanceConnectorBalance, *BalanceConnectorBalance]
	Deltas                   *store.Repository[Delta, *Delta]

	RelayerConfigs        *store.Repository[RelayerConfig, *RelayerConfig]
	RelayerDefaultConfigs *store.Repository[RelayerDefaultConfig, *RelayerDefaultConfig]
	Executors             *store.Repository[Executor, *Executor]
	FeeControllers        *store.Repository[FeeController, *FeeController]
	SmartVaultFees        *store.Repository[SmartVaultFee, *SmartVaultFee]
	PriceOracleSigners    *store.Repository[PriceOracleSigner, *PriceOracleSigner]
	PriceOracleFeeds      *store.Repository[PriceOracleFeed, *PriceOracleFeed]
}

// NewRepos binds every repository to backend.
func NewRepos(backend store.Backend) *Repos {
	return &Repos{
		backend: backend,

		Implementations: store.NewRepository[Implementation](backend),
		Environments:    store.NewRepository[Environment](backend),
		Authorizers:     store.NewRepository[Authorizer](backend),
		PriceOracles:    store.NewRepository[PriceOracle](backend),
		SmartVaults:     store.NewRepository[SmartVault](backend),
		Tasks:           store.NewRepository[Task](backend),
		DataSources:     store.NewRepository[DataSource](backend),
		ERC20s:          store.NewRepository[ERC20](backend),

		Permissions:      store.NewRepository[Permission](backend),
		PermissionParams: store.NewRepository[PermissionParam](backend),

		TaskConfigs:             store.NewRepository[TaskConfig](backend),
		CustomTokenThresholds:   store.NewRepository[CustomTokenThreshold](backend),
		CustomVolumeLimits:      store.NewRepository[CustomVolumeLimit](backend),
		CustomTokenOuts:         store.NewRepository[CustomTokenOut](backend),
		CustomMaxSlippages:      store.NewRepository[CustomMaxSlippage](backend),
		CustomDestinationChains: store.NewRepository[CustomDestinationChain](backend),
		CustomMaxBridgeFees:     store.NewRepository[CustomMaxBridgeFee](backend),

		RelayedTransactions:      store.NewRepository[RelayedTransaction](backend),
		RelayedExecutions:        store.NewRepository[RelayedExecution](backend),
		Movements:                store.NewRepository[Movement](backend),
		SmartVaultCalls:          store.NewRepository[SmartVaultCall](backend),
		CorrelationLedgers:       store.NewRepository[CorrelationLedger](backend),
		BalanceConnectors:        store.NewRepository[BalanceConnector](backend),
		BalanceConnectorBalances: store.NewRepository[BalanceConnectorBalance](backend),
		Deltas:                   store.NewRepository[Delta](backend),

		RelayerConfigs:        store.NewRepository[RelayerConfig](backend),
		RelayerDefaultConfigs: store.NewRepository[RelayerDefaultConfig](backend),
		Executors:             store.NewRepository[Executor](backend),
		FeeControllers:        store.NewRepository[FeeController](backend),
		SmartVaultFees:        store.NewRepository[SmartVaultFee](backend),
		PriceOracleSigners:    store.NewRepository[PriceOracleSigner](backend),
		PriceOracleFeeds:      store.NewRepository[PriceOracleFeed](backend),
	}
}

// RunInTx applies fn atomically on the underlying backend.
func (r *Repos) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.RunInTx(ctx, fn)
}
