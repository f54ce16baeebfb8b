// Package task materializes task status and the version chain of task
// configurations.
package task

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"

	"github.com/mimic-fi/v3-subgraph/internal/modules/core"
	"github.com/mimic-fi/v3-subgraph/internal/modules/deps"
)

// Module indexes the configuration events every task emits.
type Module struct {
	*deps.Deps

	manifest   *core.Manifest
	dispatcher *core.Dispatcher[*Module]
	logger     zerolog.Logger
}

func New(d *deps.Deps, manifest *core.Manifest) (*Module, error) {
	m := &Module{
		Deps:     d,
		manifest: manifest,
		logger:   d.Logger.With().Str("module", manifest.Name).Logger(),
	}
	dispatcher, err := core.NewDispatcher(manifest, map[string]core.Handler[*Module]{
		"handlePaused":                     handlePaused,
		"handleUnpaused":                   handleUnpaused,
		"handleTokensSourceSet":            handleTokensSourceSet,
		"handleBalanceConnectorsSet":       handleBalanceConnectorsSet,
		"handleTokensAcceptanceTypeSet":    handleTokensAcceptanceTypeSet,
		"handleTokensAcceptanceListSet":    handleTokensAcceptanceListSet,
		"handleGasLimitsSet":               handleGasLimitsSet,
		"handleGasPriceLimitSet":           handleGasPriceLimitSet,
		"handlePriorityFeeLimitSet":        handlePriorityFeeLimitSet,
		"handleTxCostLimitPctSet":          handleTxCostLimitPctSet,
		"handleTxCostLimitSet":             handleTxCostLimitSet,
		"handleTimeLockSet":                handleTimeLockSet,
		"handleTimeLockAllowedAtSet":       handleTimeLockAllowedAtSet,
		"handleConnectorSet":               handleConnectorSet,
		"handleRecipientSet":               handleRecipientSet,
		"handleDefaultTokenThresholdSet":   handleDefaultTokenThresholdSet,
		"handleCustomTokenThresholdSet":    handleCustomTokenThresholdSet,
		"handleDefaultVolumeLimitSet":      handleDefaultVolumeLimitSet,
		"handleCustomVolumeLimitSet":       handleCustomVolumeLimitSet,
		"handleDefaultTokenOutSet":         handleDefaultTokenOutSet,
		"handleCustomTokenOutSet":          handleCustomTokenOutSet,
		"handleDefaultMaxSlippageSet":      handleDefaultMaxSlippageSet,
		"handleCustomMaxSlippageSet":       handleCustomMaxSlippageSet,
		"handleDefaultDestinationChainSet": handleDefaultDestinationChainSet,
		"handleCustomDestinationChainSet":  handleCustomDestinationChainSet,
		"handleDefaultMaxFeeSet":           handleDefaultMaxFeeSet,
		"handleCustomMaxFeeSet":            handleCustomMaxFeeSet,
	}, d.Metrics)
	if err != nil {
		return nil, err
	}
	m.dispatcher = dispatcher
	return m, nil
}

func (m *Module) Name() string             { return m.manifest.Name }
func (m *Module) Version() string          { return m.manifest.Version }
func (m *Module) Manifest() *core.Manifest { return m.manifest }
func (m *Module) Topics() []common.Hash    { return m.dispatcher.Topics() }
func (m *Module) HandleEvent(ctx context.Context, event *core.RawEvent) error {
	return m.dispatcher.Dispatch(ctx, m, event)
}
