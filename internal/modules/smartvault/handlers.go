package smartvault

import (
	"context"
	"math/big"

	"github.com/mimic-fi/v3-subgraph/internal/accounting"
	"github.com/mimic-fi/v3-subgraph/internal/correlator"
	"github.com/mimic-fi/v3-subgraph/internal/entity"
	"github.com/mimic-fi/v3-subgraph/internal/modules/core"
)

func handlePaused(ctx context.Context, m *Module, e *core.ParsedEvent) error {
	return m.updateSmartVault(ctx, e, func(sv *entity.SmartVault) { sv.Paused = true })
}

func handleUnpaused(ctx context.Context, m *Module, e *core.ParsedEvent) error {
	return m.updateSmartVault(ctx, e, func(sv *entity.SmartVault) { sv.Paused = false })
}

func handlePriceOracleSet(ctx context.Context, m *Module, e *core.ParsedEvent) error {
	oracle, err := e.AddressArg("priceOracle")
	if err != nil {
		return err
	}
	return m.updateSmartVault(ctx, e, func(sv *entity.SmartVault) { sv.PriceOracle = core.AddressID(oracle) })
}

func (m *Module) updateSmartVault(ctx context.Context, e *core.ParsedEvent, update func(*entity.SmartVault)) error {
	sv, err := m.Repos.SmartVaults.Load(ctx, e.Emitter())
	if err != nil {
		return err
	}
	if sv == nil {
		m.logger.Warn().Str("smart_vault", e.Emitter()).Str("event", e.EventName).Msg("Missing smart vault entity")
		return nil
	}
	update(sv)
	return m.Repos.SmartVaults.Save(ctx, sv)
}

// callHandler records a vault call of the given type. feeArg names the
// event argument carrying the fee, if any.
func callHandler(callType, feeArg string) core.Handler[*Module] {
	return func(ctx context.Context, m *Module, e *core.ParsedEvent) error {
		fee := new(big.Int)
		if feeArg != "" {
			v, err := e.BigArg(feeArg)
			if err != nil {
				return err
			}
			fee = v
		}

		id, err := m.Correlator.Track(ctx, e.TxHash(), correlator.KindCall, e.LogIndex, e.BlockNumber)
		if err != nil {
			return err
		}
		exists, err := m.Repos.SmartVaultCalls.Exists(ctx, id)
		if err != nil || exists {
			return err
		}

		return m.Repos.SmartVaultCalls.Save(ctx, &entity.SmartVaultCall{
			ID:         id,
			Hash:       e.TxHash(),
			Sender:     core.AddressID(e.From),
			ExecutedAt: e.Timestamp,
			SmartVault: e.Emitter(),
			Type:       callType,
			Fee:        fee,
		})
	}
}

// BalanceConnectorID keys a connector within a vault.
func BalanceConnectorID(smartVault, connector string) string {
	return smartVault + "-" + connector
}

// BalanceAccount is the ledger account of a connector balance.
func BalanceAccount(balanceID string) string {
	return accounting.Account("BalanceConnectorBalance", balanceID, "amount")
}

func handleBalanceConnectorUpdated(ctx context.Context, m *Module, e *core.ParsedEvent) error {
	rawID, err := e.BytesArg("id")
	if err != nil {
		return err
	}
	tokenAddr, err := e.AddressArg("token")
	if err != nil {
		return err
	}
	amount, err := e.BigArg("amount")
	if err != nil {
		return err
	}
	added, err := e.BoolArg("added")
	if err != nil {
		return err
	}

	token, err := m.Tokens.Resolve(ctx, tokenAddr)
	if err != nil {
		return err
	}
	connector := core.Hex(rawID)

	id, err := m.Correlator.Track(ctx, e.TxHash(), correlator.KindMovement, e.LogIndex, e.BlockNumber)
	if err != nil {
		return err
	}
	exists, err := m.Repos.Movements.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		err := m.Repos.Movements.Save(ctx, &entity.Movement{
			ID:         id,
			Hash:       e.TxHash(),
			Sender:     core.AddressID(e.From),
			ExecutedAt: e.Timestamp,
			SmartVault: e.Emitter(),
			Connector:  connector,
			Token:      token.ID,
			Amount:     amount,
			AmountUSD:  m.Rates.ValueInUSD(ctx, tokenAddr, amount),
			Added:      added,
		})
		if err != nil {
			return err
		}
	}

	balance, err := m.loadOrCreateBalance(ctx, e.Emitter(), connector, token.ID)
	if err != nil {
		return err
	}
	delta := new(big.Int).Set(amount)
	if !added {
		delta.Neg(delta)
	}
	applied, err := m.Ledger.Apply(ctx, BalanceAccount(balance.ID), e.ID(), delta)
	if err != nil || !applied {
		return err
	}
	balance.Amount = new(big.Int).Add(balance.Amount, delta)
	return m.Repos.BalanceConnectorBalances.Save(ctx, balance)
}

func (m *Module) loadOrCreateBalance(ctx context.Context, smartVault, connector, token string) (*entity.BalanceConnectorBalance, error) {
	connectorID := BalanceConnectorID(smartVault, connector)
	exists, err := m.Repos.BalanceConnectors.Exists(ctx, connectorID)
	if err != nil {
		return nil, err
	}
	if !exists {
		err := m.Repos.BalanceConnectors.Save(ctx, &entity.BalanceConnector{
			ID:         connectorID,
			SmartVault: smartVault,
			Connector:  connector,
		})
		if err != nil {
			return nil, err
		}
	}

	id := connectorID + "-" + token
	balance, err := m.Repos.BalanceConnectorBalances.Load(ctx, id)
	if err != nil || balance != nil {
		return balance, err
	}
	return &entity.BalanceConnectorBalance{
		ID:        id,
		Connector: connectorID,
		Token:     token,
		Amount:    new(big.Int),
	}, nil
}
