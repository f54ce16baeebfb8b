// Package deployer materializes deployments announced by the Deployer
// contract and starts indexing each deployed instance.
package deployer

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"

	"github.com/mimic-fi/v3-subgraph/internal/modules/core"
	"github.com/mimic-fi/v3-subgraph/internal/modules/deps"
)

// Module indexes the four "...Deployed" events.
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
		"handleAuthorizerDeployed":  handleAuthorizerDeployed,
		"handlePriceOracleDeployed": handlePriceOracleDeployed,
		"handleSmartVaultDeployed":  handleSmartVaultDeployed,
		"handleTaskDeployed":        handleTaskDeployed,
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
