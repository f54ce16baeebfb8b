package core

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"

	"github.com/mimic-fi/v3-subgraph/internal/contracts"
	"github.com/mimic-fi/v3-subgraph/internal/entity"
)

// ModuleRegistry routes every event to the single module owning the
// emitting contract and applies it inside one storage transaction.
type ModuleRegistry struct {
	repos  *entity.Repos
	logger zerolog.Logger

	mu        sync.RWMutex
	modules   map[string]Module
	order     []string
	templates map[string]Module // template name -> module
	routes    map[common.Address]route

	// pending holds template routes created by the event being applied.
	// They are merged once its transaction commits.
	pending map[common.Address]route
}

type route struct {
	module     Module
	source     string
	startBlock uint64
}

// NewModuleRegistry creates a new module registry
func NewModuleRegistry(repos *entity.Repos, logger zerolog.Logger) *ModuleRegistry {
	return &ModuleRegistry{
		repos:     repos,
		logger:    logger.With().Str("component", "module_registry").Logger(),
		modules:   make(map[string]Module),
		templates: make(map[string]Module),
		routes:    make(map[common.Address]route),
		pending:   make(map[common.Address]route),
	}
}

// RegisterModule registers a new module
func (r *ModuleRegistry) RegisterModule(module Module) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := module.Name()
	if _, exists := r.modules[name]; exists {
		return fmt.Errorf("module %s is already registered", name)
	}

	manifest := module.Manifest()
	if manifest == nil {
		return fmt.Errorf("module %s has no manifest", name)
	}
	if err := manifest.ValidateManifest(); err != nil {
		return fmt.Errorf("module %s has invalid manifest: %w", name, err)
	}

	for _, tpl := range manifest.Templates {
		if owner, ok := r.templates[tpl.Name]; ok {
			return fmt.Errorf("template %s is declared by both %s and %s", tpl.Name, owner.Name(), name)
		}
		r.templates[tpl.Name] = module
	}
	for _, ds := range manifest.DataSources {
		if ds.Source.Address == nil {
			continue
		}
		var start uint64
		if ds.Source.StartBlock != nil {
			start = *ds.Source.StartBlock
		}
		r.routes[common.HexToAddress(*ds.Source.Address)] = route{module: module, source: ds.Name, startBlock: start}
	}

	r.modules[name] = module
	r.order = append(r.order, name)

	r.logger.Info().
		Str("module", name).
		Str("version", module.Version()).
		Int("topics", len(module.Topics())).
		Msg("Module registered successfully")

	return nil
}

// BindSource points a static data source declared by a registered manifest
// at a deployed address. Names are matched case-insensitively.
func (r *ModuleRegistry) BindSource(name string, address common.Address, startBlock uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, moduleName := range r.order {
		module := r.modules[moduleName]
		for _, ds := range module.Manifest().DataSources {
			if !strings.EqualFold(ds.Name, name) {
				continue
			}
			r.routes[address] = route{module: module, source: ds.Name, startBlock: startBlock}
			r.logger.Info().
				Str("module", moduleName).
				Str("source", ds.Name).
				Str("address", address.Hex()).
				Uint64("start_block", startBlock).
				Msg("Bound data source")
			return nil
		}
	}
	return fmt.Errorf("no module declares data source %s", name)
}

// LoadTemplates restores the template routes created by earlier runs.
func (r *ModuleRegistry) LoadTemplates(ctx context.Context) error {
	sources, err := r.repos.DataSources.All(ctx)
	if err != nil {
		return fmt.Errorf("failed to load data sources: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, ds := range sources {
		module, ok := r.templates[ds.Template]
		if !ok {
			r.logger.Warn().
				Str("template", ds.Template).
				Str("address", ds.ID).
				Msg("Skipping data source of unknown template")
			continue
		}
		r.routes[common.HexToAddress(ds.ID)] = route{module: module, source: ds.Template, startBlock: ds.Block}
	}

	r.logger.Info().Int("data_sources", len(sources)).Msg("Restored template data sources")
	return nil
}

// CreateTemplate persists a template instance and routes events of address
// to the template's module once the current event commits.
func (r *ModuleRegistry) CreateTemplate(ctx context.Context, template string, address common.Address, block uint64) error {
	r.mu.RLock()
	module, ok := r.templates[template]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("unknown template %s", template)
	}

	id := AddressID(address)
	existing, err := r.repos.DataSources.Load(ctx, id)
	if err != nil {
		return err
	}
	if existing == nil {
		if err := r.repos.DataSources.Save(ctx, &entity.DataSource{ID: id, Template: template, Block: block}); err != nil {
			return err
		}
	}

	r.mu.Lock()
	r.pending[address] = route{module: module, source: template, startBlock: block}
	r.mu.Unlock()

	r.logger.Debug().
		Str("template", template).
		Str("address", id).
		Uint64("block", block).
		Msg("Created template data source")
	return nil
}

// Topics returns the union of the registered modules' topics.
func (r *ModuleRegistry) Topics() []common.Hash {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[common.Hash]bool)
	var out []common.Hash
	for _, name := range r.order {
		for _, topic := range r.modules[name].Topics() {
			if !seen[topic] {
				seen[topic] = true
				out = append(out, topic)
			}
		}
	}
	return out
}

// ListModules returns all registered module names in registration order.
func (r *ModuleRegistry) ListModules() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Routes reports how many contracts are currently routed.
func (r *ModuleRegistry) Routes() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.routes)
}

// Handles reports whether a log emitted by address at block is routed to a
// module.
func (r *ModuleRegistry) Handles(address common.Address, block uint64) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rt, ok := r.routes[address]
	return ok && block >= rt.startBlock
}

// ProcessEvent applies one event. Handler failures are logged and the
// transaction rolled back; they never stop the pipeline. Only a cancelled
// context is returned as an error.
func (r *ModuleRegistry) ProcessEvent(ctx context.Context, event *RawEvent) error {
	log := &event.Log

	r.mu.RLock()
	rt, ok := r.routes[log.Address]
	r.mu.RUnlock()
	if !ok || log.BlockNumber < rt.startBlock {
		return nil
	}

	txCtx := contracts.WithBlock(ctx, log.BlockNumber)
	err := r.repos.RunInTx(txCtx, func(ctx context.Context) error {
		return rt.module.HandleEvent(ctx, event)
	})

	r.mu.Lock()
	if err == nil {
		for addr, p := range r.pending {
			r.routes[addr] = p
		}
	}
	clear(r.pending)
	r.mu.Unlock()

	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		r.logger.Error().
			Err(err).
			Str("module", rt.module.Name()).
			Str("source", rt.source).
			Uint64("block", log.BlockNumber).
			Str("tx_hash", log.TxHash.Hex()).
			Uint("log_index", log.Index).
			Msg("Module failed to process event")
	}
	return nil
}
