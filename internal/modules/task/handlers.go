package task

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/mimic-fi/v3-subgraph/internal/entity"
	"github.com/mimic-fi/v3-subgraph/internal/modules/core"
	"github.com/mimic-fi/v3-subgraph/internal/taskconfig"
)

func handlePaused(ctx context.Context, m *Module, e *core.ParsedEvent) error {
	return m.updateTask(ctx, e, func(t *entity.Task) { t.Paused = true })
}

func handleUnpaused(ctx context.Context, m *Module, e *core.ParsedEvent) error {
	return m.updateTask(ctx, e, func(t *entity.Task) { t.Paused = false })
}

func handleTokensSourceSet(ctx context.Context, m *Module, e *core.ParsedEvent) error {
	source, err := e.AddressArg("value")
	if err != nil {
		return err
	}
	return m.updateTask(ctx, e, func(t *entity.Task) { t.TokensSource = core.AddressID(source) })
}

func (m *Module) updateTask(ctx context.Context, e *core.ParsedEvent, update func(*entity.Task)) error {
	task, err := m.Repos.Tasks.Load(ctx, e.Emitter())
	if err != nil {
		return err
	}
	if task == nil {
		m.logger.Warn().Str("task", e.Emitter()).Str("event", e.EventName).Msg("Missing task entity")
		return nil
	}
	update(task)
	return m.Repos.Tasks.Save(ctx, task)
}

// configure writes a change into the emitting task's version for the
// event's block.
func (m *Module) configure(ctx context.Context, e *core.ParsedEvent, mutation taskconfig.Mutation) error {
	_, err := m.Versioner.Apply(ctx, e.Emitter(), e.BlockNumber, mutation)
	return err
}

// token resolves an address into its ERC20 id, creating the token if needed.
func (m *Module) token(ctx context.Context, address common.Address) (string, error) {
	t, err := m.Tokens.Resolve(ctx, address)
	if err != nil {
		return "", err
	}
	return t.ID, nil
}

func handleBalanceConnectorsSet(ctx context.Context, m *Module, e *core.ParsedEvent) error {
	previous, err := e.BytesArg("previous")
	if err != nil {
		return err
	}
	next, err := e.BytesArg("next")
	if err != nil {
		return err
	}
	return m.configure(ctx, e, func(_ context.Context, cfg *entity.TaskConfig, _ *taskconfig.Overrides) error {
		cfg.PreviousBalanceConnector = core.Hex(previous)
		cfg.NextBalanceConnector = core.Hex(next)
		return nil
	})
}

func handleTokensAcceptanceTypeSet(ctx context.Context, m *Module, e *core.ParsedEvent) error {
	acceptance, err := e.Uint8Arg("acceptanceType")
	if err != nil {
		return err
	}
	return m.configure(ctx, e, func(_ context.Context, cfg *entity.TaskConfig, _ *taskconfig.Overrides) error {
		cfg.AcceptanceList.Type = entity.ParseAcceptanceType(acceptance)
		return nil
	})
}

func handleTokensAcceptanceListSet(ctx context.Context, m *Module, e *core.ParsedEvent) error {
	address, err := e.AddressArg("token")
	if err != nil {
		return err
	}
	added, err := e.BoolArg("added")
	if err != nil {
		return err
	}
	token, err := m.token(ctx, address)
	if err != nil {
		return err
	}
	return m.configure(ctx, e, func(_ context.Context, cfg *entity.TaskConfig, _ *taskconfig.Overrides) error {
		cfg.SetAccepted(token, added)
		return nil
	})
}

func handleGasLimitsSet(ctx context.Context, m *Module, e *core.ParsedEvent) error {
	var limits entity.GasLimits
	var err error
	if limits.GasPriceLimit, err = e.BigArg("gasPriceLimit"); err != nil {
		return err
	}
	if limits.PriorityFeeLimit, err = e.BigArg("priorityFeeLimit"); err != nil {
		return err
	}
	if limits.TxCostLimitPct, err = e.BigArg("txCostLimitPct"); err != nil {
		return err
	}
	if limits.TxCostLimit, err = e.BigArg("txCostLimit"); err != nil {
		return err
	}
	return m.configure(ctx, e, func(_ context.Context, cfg *entity.TaskConfig, _ *taskconfig.Overrides) error {
		cfg.GasLimits = limits
		return nil
	})
}

// gasLimitHandler sets a single gas limit from the event argument arg.
func gasLimitHandler(arg string, field func(*entity.GasLimits) **big.Int) core.Handler[*Module] {
	return func(ctx context.Context, m *Module, e *core.ParsedEvent) error {
		value, err := e.BigArg(arg)
		if err != nil {
			return err
		}
		return m.configure(ctx, e, func(_ context.Context, cfg *entity.TaskConfig, _ *taskconfig.Overrides) error {
			*field(&cfg.GasLimits) = value
			return nil
		})
	}
}

var (
	handleGasPriceLimitSet    = gasLimitHandler("gasPriceLimit", func(g *entity.GasLimits) **big.Int { return &g.GasPriceLimit })
	handlePriorityFeeLimitSet = gasLimitHandler("priorityFeeLimit", func(g *entity.GasLimits) **big.Int { return &g.PriorityFeeLimit })
	handleTxCostLimitPctSet   = gasLimitHandler("txCostLimitPct", func(g *entity.GasLimits) **big.Int { return &g.TxCostLimitPct })
	handleTxCostLimitSet      = gasLimitHandler("txCostLimit", func(g *entity.GasLimits) **big.Int { return &g.TxCostLimit })
)

func handleTimeLockSet(ctx context.Context, m *Module, e *core.ParsedEvent) error {
	mode, err := e.Uint8Arg("mode")
	if err != nil {
		return err
	}
	lock := entity.TimeLock{Mode: entity.ParseTimeLockMode(mode)}
	if lock.Frequency, err = e.BigArg("frequency"); err != nil {
		return err
	}
	if lock.AllowedAt, err = e.BigArg("allowedAt"); err != nil {
		return err
	}
	if lock.Window, err = e.BigArg("window"); err != nil {
		return err
	}
	return m.configure(ctx, e, func(_ context.Context, cfg *entity.TaskConfig, _ *taskconfig.Overrides) error {
		cfg.TimeLock = lock
		return nil
	})
}

func handleTimeLockAllowedAtSet(ctx context.Context, m *Module, e *core.ParsedEvent) error {
	allowedAt, err := e.BigArg("allowedAt")
	if err != nil {
		return err
	}
	return m.configure(ctx, e, func(_ context.Context, cfg *entity.TaskConfig, _ *taskconfig.Overrides) error {
		cfg.TimeLock.AllowedAt = allowedAt
		return nil
	})
}

func handleConnectorSet(ctx context.Context, m *Module, e *core.ParsedEvent) error {
	connector, err := e.AddressArg("connector")
	if err != nil {
		return err
	}
	return m.configure(ctx, e, func(_ context.Context, cfg *entity.TaskConfig, _ *taskconfig.Overrides) error {
		cfg.Connector = core.AddressID(connector)
		return nil
	})
}

func handleRecipientSet(ctx context.Context, m *Module, e *core.ParsedEvent) error {
	recipient, err := e.AddressArg("recipient")
	if err != nil {
		return err
	}
	return m.configure(ctx, e, func(_ context.Context, cfg *entity.TaskConfig, _ *taskconfig.Overrides) error {
		cfg.Recipient = core.AddressID(recipient)
		return nil
	})
}

func (m *Module) threshold(ctx context.Context, e *core.ParsedEvent, tokenArg string) (entity.TokenThreshold, error) {
	var t entity.TokenThreshold
	address, err := e.AddressArg(tokenArg)
	if err != nil {
		return t, err
	}
	if t.Min, err = e.BigArg("min"); err != nil {
		return t, err
	}
	if t.Max, err = e.BigArg("max"); err != nil {
		return t, err
	}
	t.Token, err = m.token(ctx, address)
	return t, err
}

func handleDefaultTokenThresholdSet(ctx context.Context, m *Module, e *core.ParsedEvent) error {
	threshold, err := m.threshold(ctx, e, "token")
	if err != nil {
		return err
	}
	return m.configure(ctx, e, func(_ context.Context, cfg *entity.TaskConfig, _ *taskconfig.Overrides) error {
		cfg.DefaultTokenThreshold = &threshold
		return nil
	})
}

func handleCustomTokenThresholdSet(ctx context.Context, m *Module, e *core.ParsedEvent) error {
	address, err := e.AddressArg("token")
	if err != nil {
		return err
	}
	token, err := m.token(ctx, address)
	if err != nil {
		return err
	}
	threshold, err := m.threshold(ctx, e, "thresholdToken")
	if err != nil {
		return err
	}
	return m.configure(ctx, e, func(ctx context.Context, _ *entity.TaskConfig, o *taskconfig.Overrides) error {
		return o.SetTokenThreshold(ctx, token, threshold)
	})
}

func (m *Module) volumeLimit(ctx context.Context, e *core.ParsedEvent, tokenArg string) (entity.VolumeLimit, error) {
	var v entity.VolumeLimit
	address, err := e.AddressArg(tokenArg)
	if err != nil {
		return v, err
	}
	if v.Amount, err = e.BigArg("amount"); err != nil {
		return v, err
	}
	if v.Period, err = e.BigArg("period"); err != nil {
		return v, err
	}
	v.Token, err = m.token(ctx, address)
	return v, err
}

func handleDefaultVolumeLimitSet(ctx context.Context, m *Module, e *core.ParsedEvent) error {
	limit, err := m.volumeLimit(ctx, e, "token")
	if err != nil {
		return err
	}
	return m.configure(ctx, e, func(_ context.Context, cfg *entity.TaskConfig, _ *taskconfig.Overrides) error {
		cfg.DefaultVolumeLimit = &limit
		return nil
	})
}

func handleCustomVolumeLimitSet(ctx context.Context, m *Module, e *core.ParsedEvent) error {
	address, err := e.AddressArg("token")
	if err != nil {
		return err
	}
	token, err := m.token(ctx, address)
	if err != nil {
		return err
	}
	limit, err := m.volumeLimit(ctx, e, "limitToken")
	if err != nil {
		return err
	}
	return m.configure(ctx, e, func(ctx context.Context, _ *entity.TaskConfig, o *taskconfig.Overrides) error {
		return o.SetVolumeLimit(ctx, token, limit)
	})
}

func handleDefaultTokenOutSet(ctx context.Context, m *Module, e *core.ParsedEvent) error {
	address, err := e.AddressArg("tokenOut")
	if err != nil {
		return err
	}
	tokenOut, err := m.token(ctx, address)
	if err != nil {
		return err
	}
	return m.configure(ctx, e, func(_ context.Context, cfg *entity.TaskConfig, _ *taskconfig.Overrides) error {
		cfg.DefaultTokenOut = tokenOut
		return nil
	})
}

func handleCustomTokenOutSet(ctx context.Context, m *Module, e *core.ParsedEvent) error {
	tokens, err := m.tokenPair(ctx, e, "token", "tokenOut")
	if err != nil {
		return err
	}
	return m.configure(ctx, e, func(ctx context.Context, _ *entity.TaskConfig, o *taskconfig.Overrides) error {
		return o.SetTokenOut(ctx, tokens[0], tokens[1])
	})
}

func handleDefaultMaxSlippageSet(ctx context.Context, m *Module, e *core.ParsedEvent) error {
	slippage, err := e.BigArg("maxSlippage")
	if err != nil {
		return err
	}
	return m.configure(ctx, e, func(_ context.Context, cfg *entity.TaskConfig, _ *taskconfig.Overrides) error {
		cfg.DefaultMaxSlippage = slippage
		return nil
	})
}

func handleCustomMaxSlippageSet(ctx context.Context, m *Module, e *core.ParsedEvent) error {
	address, err := e.AddressArg("token")
	if err != nil {
		return err
	}
	slippage, err := e.BigArg("maxSlippage")
	if err != nil {
		return err
	}
	token, err := m.token(ctx, address)
	if err != nil {
		return err
	}
	return m.configure(ctx, e, func(ctx context.Context, _ *entity.TaskConfig, o *taskconfig.Overrides) error {
		return o.SetMaxSlippage(ctx, token, slippage)
	})
}

func handleDefaultDestinationChainSet(ctx context.Context, m *Module, e *core.ParsedEvent) error {
	chain, err := e.BigArg("defaultDestinationChain")
	if err != nil {
		return err
	}
	return m.configure(ctx, e, func(_ context.Context, cfg *entity.TaskConfig, _ *taskconfig.Overrides) error {
		cfg.DefaultDestinationChain = chain
		return nil
	})
}

func handleCustomDestinationChainSet(ctx context.Context, m *Module, e *core.ParsedEvent) error {
	address, err := e.AddressArg("token")
	if err != nil {
		return err
	}
	chain, err := e.BigArg("destinationChain")
	if err != nil {
		return err
	}
	token, err := m.token(ctx, address)
	if err != nil {
		return err
	}
	return m.configure(ctx, e, func(ctx context.Context, _ *entity.TaskConfig, o *taskconfig.Overrides) error {
		return o.SetDestinationChain(ctx, token, chain)
	})
}

func handleDefaultMaxFeeSet(ctx context.Context, m *Module, e *core.ParsedEvent) error {
	address, err := e.AddressArg("maxFeeToken")
	if err != nil {
		return err
	}
	amount, err := e.BigArg("amount")
	if err != nil {
		return err
	}
	token, err := m.token(ctx, address)
	if err != nil {
		return err
	}
	return m.configure(ctx, e, func(_ context.Context, cfg *entity.TaskConfig, _ *taskconfig.Overrides) error {
		cfg.DefaultMaxBridgeFee = &entity.MaxBridgeFee{Token: token, Amount: amount}
		return nil
	})
}

func handleCustomMaxFeeSet(ctx context.Context, m *Module, e *core.ParsedEvent) error {
	tokens, err := m.tokenPair(ctx, e, "token", "maxFeeToken")
	if err != nil {
		return err
	}
	amount, err := e.BigArg("amount")
	if err != nil {
		return err
	}
	return m.configure(ctx, e, func(ctx context.Context, _ *entity.TaskConfig, o *taskconfig.Overrides) error {
		return o.SetMaxBridgeFee(ctx, tokens[0], entity.MaxBridgeFee{Token: tokens[1], Amount: amount})
	})
}

func (m *Module) tokenPair(ctx context.Context, e *core.ParsedEvent, a, b string) ([2]string, error) {
	var ids [2]string
	for i, arg := range []string{a, b} {
		address, err := e.AddressArg(arg)
		if err != nil {
			return ids, err
		}
		if ids[i], err = m.token(ctx, address); err != nil {
			return ids, err
		}
	}
	return ids, nil
}
