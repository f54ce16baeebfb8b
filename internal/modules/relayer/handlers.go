package relayer

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/mimic-fi/v3-subgraph/internal/accounting"
	"github.com/mimic-fi/v3-subgraph/internal/contracts"
	"github.com/mimic-fi/v3-subgraph/internal/entity"
	"github.com/mimic-fi/v3-subgraph/internal/modules/core"
	"github.com/mimic-fi/v3-subgraph/internal/network"
)

// BalanceAccount and QuotaAccount are the ledger accounts of a relayer
// config.
func BalanceAccount(configID string) string {
	return accounting.Account("RelayerConfig", configID, "balance")
}

func QuotaAccount(configID string) string {
	return accounting.Account("RelayerConfig", configID, "quotaUsed")
}

// ExecutorID keys an executor within a relayer.
func ExecutorID(relayer, executor string) string {
	return relayer + "/" + executor
}

// ExecutionID keys a relayed execution by transaction and task index.
func ExecutionID(txHash string, index *big.Int) string {
	return txHash + "#" + index.String()
}

func handleDefaultCollectorSet(ctx context.Context, m *Module, e *core.ParsedEvent) error {
	collector, err := e.AddressArg("collector")
	if err != nil {
		return err
	}
	cfg, err := m.loadOrCreateDefaultConfig(ctx, e.Emitter())
	if err != nil {
		return err
	}
	cfg.DefaultFeeCollector = core.AddressID(collector)
	return m.Repos.RelayerDefaultConfigs.Save(ctx, cfg)
}

func handleExecutorSet(ctx context.Context, m *Module, e *core.ParsedEvent) error {
	address, err := e.AddressArg("executor")
	if err != nil {
		return err
	}
	allowed, err := e.BoolArg("allowed")
	if err != nil {
		return err
	}

	cfg, err := m.loadOrCreateDefaultConfig(ctx, e.Emitter())
	if err != nil {
		return err
	}
	if err := m.Repos.RelayerDefaultConfigs.Save(ctx, cfg); err != nil {
		return err
	}

	id := ExecutorID(cfg.ID, core.AddressID(address))
	executor, err := m.Repos.Executors.Load(ctx, id)
	if err != nil {
		return err
	}
	if executor == nil {
		executor = &entity.Executor{ID: id, Address: core.AddressID(address), RelayerDefaultConfig: cfg.ID}
	}
	executor.Allowed = allowed
	return m.Repos.Executors.Save(ctx, executor)
}

func handleSmartVaultCollectorSet(ctx context.Context, m *Module, e *core.ParsedEvent) error {
	vault, err := e.AddressArg("smartVault")
	if err != nil {
		return err
	}
	collector, err := e.AddressArg("collector")
	if err != nil {
		return err
	}
	cfg, err := m.loadOrCreateConfig(ctx, e.Address, vault)
	if err != nil {
		return err
	}
	if network.IsZero(collector) {
		cfg.FeeCollector = m.defaultCollector(ctx, e.Address)
	} else {
		cfg.FeeCollector = core.AddressID(collector)
	}
	return m.Repos.RelayerConfigs.Save(ctx, cfg)
}

func handleSmartVaultMaxQuotaSet(ctx context.Context, m *Module, e *core.ParsedEvent) error {
	vault, err := e.AddressArg("smartVault")
	if err != nil {
		return err
	}
	maxQuota, err := e.BigArg("maxQuota")
	if err != nil {
		return err
	}
	cfg, err := m.loadOrCreateConfig(ctx, e.Address, vault)
	if err != nil {
		return err
	}
	cfg.MaxQuota = maxQuota
	return m.Repos.RelayerConfigs.Save(ctx, cfg)
}

func handleDeposited(ctx context.Context, m *Module, e *core.ParsedEvent) error {
	return m.applyFunding(ctx, e, func(amount *big.Int, _ *core.ParsedEvent) (*big.Int, *big.Int, error) {
		return amount, nil, nil
	})
}

func handleWithdrawn(ctx context.Context, m *Module, e *core.ParsedEvent) error {
	return m.applyFunding(ctx, e, func(amount *big.Int, _ *core.ParsedEvent) (*big.Int, *big.Int, error) {
		return new(big.Int).Neg(amount), nil, nil
	})
}

func handleQuotaPaid(ctx context.Context, m *Module, e *core.ParsedEvent) error {
	return m.applyFunding(ctx, e, func(amount *big.Int, _ *core.ParsedEvent) (*big.Int, *big.Int, error) {
		return nil, new(big.Int).Neg(amount), nil
	})
}

func handleGasPaid(ctx context.Context, m *Module, e *core.ParsedEvent) error {
	vaultAddr, err := e.AddressArg("smartVault")
	if err != nil {
		return err
	}
	amount, err := e.BigArg("amount")
	if err != nil {
		return err
	}
	err = m.applyFunding(ctx, e, func(amount *big.Int, e *core.ParsedEvent) (*big.Int, *big.Int, error) {
		quota, err := e.BigArg("quota")
		if err != nil {
			return nil, nil, err
		}
		return new(big.Int).Sub(quota, amount), quota, nil
	})
	if err != nil {
		return err
	}

	vault, err := m.Repos.SmartVaults.Load(ctx, core.AddressID(vaultAddr))
	if err != nil {
		return err
	}
	if vault == nil {
		m.logger.Warn().Str("smart_vault", core.AddressID(vaultAddr)).Msg("Missing smart vault entity")
		return nil
	}

	tx, err := m.loadOrCreateTransaction(ctx, e, vault.Environment, vault.ID)
	if err != nil {
		return err
	}
	tx.GasUsed = new(big.Int)
	if e.GasPrice.Sign() > 0 {
		tx.GasUsed.Div(amount, e.GasPrice)
	}
	tx.GasPrice = e.GasPrice
	tx.CostNative = amount
	tx.CostUSD = m.Rates.NativeInUSD(ctx, amount)
	return m.Repos.RelayedTransactions.Save(ctx, tx)
}

// fundingDelta maps an event amount into balance and quota deltas. A nil
// delta leaves the account untouched.
type fundingDelta func(amount *big.Int, e *core.ParsedEvent) (balance, quota *big.Int, err error)

// applyFunding records the deltas of e in the ledger and refreshes the
// cached totals of the vault's relayer config. Replays change nothing.
func (m *Module) applyFunding(ctx context.Context, e *core.ParsedEvent, delta fundingDelta) error {
	vault, err := e.AddressArg("smartVault")
	if err != nil {
		return err
	}
	amount, err := e.BigArg("amount")
	if err != nil {
		return err
	}
	balance, quota, err := delta(amount, e)
	if err != nil {
		return err
	}

	cfg, err := m.loadOrCreateConfig(ctx, e.Address, vault)
	if err != nil {
		return err
	}
	if balance != nil {
		applied, err := m.Ledger.Apply(ctx, BalanceAccount(cfg.ID), e.ID(), balance)
		if err != nil {
			return err
		}
		if applied {
			cfg.Balance = new(big.Int).Add(cfg.Balance, balance)
		}
	}
	if quota != nil {
		applied, err := m.Ledger.Apply(ctx, QuotaAccount(cfg.ID), e.ID(), quota)
		if err != nil {
			return err
		}
		if applied {
			cfg.QuotaUsed = new(big.Int).Add(cfg.QuotaUsed, quota)
		}
	}
	return m.Repos.RelayerConfigs.Save(ctx, cfg)
}

func handleTaskExecuted(ctx context.Context, m *Module, e *core.ParsedEvent) error {
	vaultAddr, err := e.AddressArg("smartVault")
	if err != nil {
		return err
	}
	taskAddr, err := e.AddressArg("task")
	if err != nil {
		return err
	}
	success, err := e.BoolArg("success")
	if err != nil {
		return err
	}
	result, err := e.BytesArg("result")
	if err != nil {
		return err
	}
	gas, err := e.BigArg("gas")
	if err != nil {
		return err
	}
	index, err := e.BigArg("index")
	if err != nil {
		return err
	}

	task, err := m.Repos.Tasks.Load(ctx, core.AddressID(taskAddr))
	if err != nil {
		return err
	}
	if task == nil {
		m.logger.Warn().Str("task", core.AddressID(taskAddr)).Msg("Missing task entity")
		return nil
	}

	vault := m.executedVault(ctx, vaultAddr, taskAddr, task)
	tx, err := m.loadOrCreateTransaction(ctx, e, task.Environment, vault)
	if err != nil {
		return err
	}

	id := ExecutionID(e.TxHash(), index)
	exists, err := m.Repos.RelayedExecutions.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		costNative := new(big.Int).Mul(e.GasPrice, gas)
		err := m.Repos.RelayedExecutions.Save(ctx, &entity.RelayedExecution{
			ID:          id,
			Transaction: tx.ID,
			Environment: task.Environment,
			SmartVault:  vault,
			Task:        task.ID,
			Index:       index,
			ExecutedAt:  e.Timestamp,
			Succeeded:   success,
			Result:      core.Hex(result),
			GasUsed:     gas,
			GasPrice:    e.GasPrice,
			CostNative:  costNative,
			CostUSD:     m.Rates.NativeInUSD(ctx, costNative),
			Movements:   []string{},
			Calls:       []string{},
		})
		if err != nil {
			return err
		}
	}

	linked, err := m.Correlator.Link(ctx, e.TxHash(), id)
	if err != nil {
		return err
	}
	m.logger.Debug().Str("execution", id).Int("linked", linked).Msg("Relayed execution recorded")
	return nil
}

// executedVault prefers the vault named by the event, then the task's
// deployment record, and reads the task only when both are empty.
func (m *Module) executedVault(ctx context.Context, vault, taskAddr common.Address, task *entity.Task) string {
	if !network.IsZero(vault) {
		return core.AddressID(vault)
	}
	if task.SmartVault != "" {
		return task.SmartVault
	}
	return core.AddressID(m.Contracts.Address(ctx, contracts.Task, taskAddr, "smartVault"))
}

func (m *Module) loadOrCreateConfig(ctx context.Context, relayer, vault common.Address) (*entity.RelayerConfig, error) {
	id := entity.RelayerConfigID(core.AddressID(relayer), core.AddressID(vault))
	cfg, err := m.Repos.RelayerConfigs.Load(ctx, id)
	if err != nil || cfg != nil {
		return cfg, err
	}
	native, err := m.Tokens.Resolve(ctx, network.NativeToken)
	if err != nil {
		return nil, err
	}
	return &entity.RelayerConfig{
		ID:           id,
		Relayer:      core.AddressID(relayer),
		SmartVault:   core.AddressID(vault),
		FeeCollector: m.defaultCollector(ctx, relayer),
		Balance:      new(big.Int),
		QuotaUsed:    new(big.Int),
		MaxQuota:     new(big.Int),
		NativeToken:  native.ID,
	}, nil
}

func (m *Module) loadOrCreateDefaultConfig(ctx context.Context, id string) (*entity.RelayerDefaultConfig, error) {
	cfg, err := m.Repos.RelayerDefaultConfigs.Load(ctx, id)
	if err != nil || cfg != nil {
		return cfg, err
	}
	return &entity.RelayerDefaultConfig{ID: id}, nil
}

// loadOrCreateTransaction keys relayed transactions by hash; a relayer
// transaction never spans two vaults.
func (m *Module) loadOrCreateTransaction(ctx context.Context, e *core.ParsedEvent, environment, vault string) (*entity.RelayedTransaction, error) {
	tx, err := m.Repos.RelayedTransactions.Load(ctx, e.TxHash())
	if err != nil || tx != nil {
		return tx, err
	}
	tx = &entity.RelayedTransaction{
		ID:          e.TxHash(),
		Hash:        e.TxHash(),
		Environment: environment,
		SmartVault:  vault,
		Sender:      core.AddressID(e.From),
		ExecutedAt:  e.Timestamp,
		GasUsed:     new(big.Int),
		GasPrice:    new(big.Int),
		CostNative:  new(big.Int),
		CostUSD:     new(big.Int),
	}
	return tx, m.Repos.RelayedTransactions.Save(ctx, tx)
}

// defaultCollector reads the relayer's default collector, or Unknown when
// the read reverts.
func (m *Module) defaultCollector(ctx context.Context, relayer common.Address) string {
	collector, ok := m.Contracts.AddressOK(ctx, contracts.Relayer, relayer, "defaultCollector")
	if !ok {
		return contracts.Unknown
	}
	return core.AddressID(collector)
}
