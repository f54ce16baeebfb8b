// Package deps bundles the collaborators shared by every materializer
// module.
package deps

import (
	"github.com/rs/zerolog"

	"github.com/mimic-fi/v3-subgraph/internal/accounting"
	"github.com/mimic-fi/v3-subgraph/internal/contracts"
	"github.com/mimic-fi/v3-subgraph/internal/correlator"
	"github.com/mimic-fi/v3-subgraph/internal/entity"
	"github.com/mimic-fi/v3-subgraph/internal/metrics"
	"github.com/mimic-fi/v3-subgraph/internal/modules/core"
	"github.com/mimic-fi/v3-subgraph/internal/network"
	"github.com/mimic-fi/v3-subgraph/internal/permissions"
	"github.com/mimic-fi/v3-subgraph/internal/rates"
	"github.com/mimic-fi/v3-subgraph/internal/store"
	"github.com/mimic-fi/v3-subgraph/internal/taskconfig"
	"github.com/mimic-fi/v3-subgraph/internal/tokens"
)

type Deps struct {
	Repos       *entity.Repos
	Contracts   *contracts.Client
	Tokens      *tokens.Registry
	Rates       *rates.Resolver
	Ledger      *accounting.Ledger
	Correlator  *correlator.Correlator
	Versioner   *taskconfig.Versioner
	Permissions *permissions.Dictionary
	Templates   core.TemplateCreator
	Network     network.Network
	Metrics     *metrics.Metrics
	Logger      zerolog.Logger
}

// Options configure New.
type Options struct {
	Network     network.Network
	RateCacheMB int
	Metrics     *metrics.Metrics
	Logger      zerolog.Logger
}

// New wires every shared collaborator over backend and reader. Templates is
// left for the caller, since the module registry is built from the modules.
func New(backend store.Backend, reader contracts.Reader, opts Options) (*Deps, error) {
	dictionary, err := permissions.Load()
	if err != nil {
		return nil, err
	}

	repos := entity.NewRepos(backend)
	client := contracts.NewClient(reader, opts.Metrics, opts.Logger)

	return &Deps{
		Repos:       repos,
		Contracts:   client,
		Tokens:      tokens.NewRegistry(repos, client, opts.Network, opts.Logger),
		Rates:       rates.NewResolver(client, opts.Network, opts.RateCacheMB, opts.Metrics, opts.Logger),
		Ledger:      accounting.NewLedger(repos),
		Correlator:  correlator.New(repos, opts.Logger),
		Versioner:   taskconfig.NewVersioner(repos, opts.Logger),
		Permissions: dictionary,
		Network:     opts.Network,
		Metrics:     opts.Metrics,
		Logger:      opts.Logger,
	}, nil
}
