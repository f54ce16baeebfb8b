package feecontroller

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/mimic-fi/v3-subgraph/internal/entity"
	"github.com/mimic-fi/v3-subgraph/internal/modules/core"
)

var zeroAddress = core.AddressID(common.Address{})

func handleDefaultFeeCollectorSet(ctx context.Context, m *Module, e *core.ParsedEvent) error {
	collector, err := e.AddressArg("collector")
	if err != nil {
		return err
	}
	controller, err := m.loadOrCreateFeeController(ctx, e.Emitter())
	if err != nil {
		return err
	}
	controller.FeeCollector = core.AddressID(collector)
	return m.Repos.FeeControllers.Save(ctx, controller)
}

func handleFeeCollectorSet(ctx context.Context, m *Module, e *core.ParsedEvent) error {
	collector, err := e.AddressArg("collector")
	if err != nil {
		return err
	}
	return m.updateSmartVaultFee(ctx, e, func(fee *entity.SmartVaultFee) {
		fee.FeeCollector = core.AddressID(collector)
	})
}

func handleFeePercentageSet(ctx context.Context, m *Module, e *core.ParsedEvent) error {
	pct, err := e.BigArg("pct")
	if err != nil {
		return err
	}
	return m.updateSmartVaultFee(ctx, e, func(fee *entity.SmartVaultFee) {
		fee.FeePercentage = pct
	})
}

func handleMaxFeePercentageSet(ctx context.Context, m *Module, e *core.ParsedEvent) error {
	maxPct, err := e.BigArg("maxPct")
	if err != nil {
		return err
	}
	return m.updateSmartVaultFee(ctx, e, func(fee *entity.SmartVaultFee) {
		fee.MaxFeePercentage = maxPct
	})
}

func (m *Module) updateSmartVaultFee(ctx context.Context, e *core.ParsedEvent, update func(*entity.SmartVaultFee)) error {
	smartVault, err := e.AddressArg("smartVault")
	if err != nil {
		return err
	}
	fee, err := m.loadOrCreateSmartVaultFee(ctx, core.AddressID(smartVault), e.Emitter())
	if err != nil {
		return err
	}
	update(fee)
	return m.Repos.SmartVaultFees.Save(ctx, fee)
}

// loadOrCreateSmartVaultFee keys a vault's fee settings by the vault.
func (m *Module) loadOrCreateSmartVaultFee(ctx context.Context, smartVault, controller string) (*entity.SmartVaultFee, error) {
	fee, err := m.Repos.SmartVaultFees.Load(ctx, smartVault)
	if err != nil || fee != nil {
		return fee, err
	}
	if _, err := m.loadOrCreateFeeController(ctx, controller); err != nil {
		return nil, err
	}
	return &entity.SmartVaultFee{
		ID:               smartVault,
		FeeController:    controller,
		SmartVault:       smartVault,
		FeeCollector:     zeroAddress,
		FeePercentage:    new(big.Int),
		MaxFeePercentage: new(big.Int),
	}, nil
}

func (m *Module) loadOrCreateFeeController(ctx context.Context, id string) (*entity.FeeController, error) {
	controller, err := m.Repos.FeeControllers.Load(ctx, id)
	if err != nil || controller != nil {
		return controller, err
	}
	controller = &entity.FeeController{ID: id, FeeCollector: zeroAddress}
	if err := m.Repos.FeeControllers.Save(ctx, controller); err != nil {
		return nil, err
	}
	return controller, nil
}
