package main

import (
	"github.com/mimic-fi/v3-subgraph/internal/modules/authorizer"
	"github.com/mimic-fi/v3-subgraph/internal/modules/core"
	"github.com/mimic-fi/v3-subgraph/internal/modules/deployer"
	"github.com/mimic-fi/v3-subgraph/internal/modules/deps"
	"github.com/mimic-fi/v3-subgraph/internal/modules/feecontroller"
	"github.com/mimic-fi/v3-subgraph/internal/modules/priceoracle"
	"github.com/mimic-fi/v3-subgraph/internal/modules/registry"
	"github.com/mimic-fi/v3-subgraph/internal/modules/relayer"
	"github.com/mimic-fi/v3-subgraph/internal/modules/smartvault"
	"github.com/mimic-fi/v3-subgraph/internal/modules/task"
)

type constructor func(*deps.Deps, *core.Manifest) (core.Module, error)

func module[M core.Module](newModule func(*deps.Deps, *core.Manifest) (M, error)) constructor {
	return func(d *deps.Deps, manifest *core.Manifest) (core.Module, error) {
		m, err := newModule(d, manifest)
		if err != nil {
			return nil, err
		}
		return m, nil
	}
}

// constructors maps manifest names to the module implementing them.
var constructors = map[string]constructor{
	"authorizer":    module(authorizer.New),
	"deployer":      module(deployer.New),
	"feecontroller": module(feecontroller.New),
	"priceoracle":   module(priceoracle.New),
	"registry":      module(registry.New),
	"relayer":       module(relayer.New),
	"smartvault":    module(smartvault.New),
	"task":          module(task.New),
}
