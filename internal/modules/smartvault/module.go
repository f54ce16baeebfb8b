// Package smartvault materializes the activity of deployed smart vaults.
package smartvault

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"

	"github.com/mimic-fi/v3-subgraph/internal/entity"
	"github.com/mimic-fi/v3-subgraph/internal/modules/core"
	"github.com/mimic-fi/v3-subgraph/internal/modules/deps"
)

// Module indexes vault status changes, vault calls and balance connector
// movements.
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
		"handlePaused":                  handlePaused,
		"handleUnpaused":                handleUnpaused,
		"handlePriceOracleSet":          handlePriceOracleSet,
		"handleBalanceConnectorUpdated": handleBalanceConnectorUpdated,
		"handleExecuted":                callHandler(entity.CallExecute, ""),
		"handleCalled":                  callHandler(entity.CallCall, ""),
		"handleCollected":               callHandler(entity.CallCollect, ""),
		"handleWithdrawn":               callHandler(entity.CallWithdraw, "fee"),
		"handleWrapped":                 callHandler(entity.CallWrap, ""),
		"handleUnwrapped":               callHandler(entity.CallUnwrap, ""),
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
