package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/mimic-fi/v3-subgraph/internal/api"
	"github.com/mimic-fi/v3-subgraph/internal/config"
	"github.com/mimic-fi/v3-subgraph/internal/contracts"
	"github.com/mimic-fi/v3-subgraph/internal/database"
	"github.com/mimic-fi/v3-subgraph/internal/ingest"
	"github.com/mimic-fi/v3-subgraph/internal/metrics"
	"github.com/mimic-fi/v3-subgraph/internal/modules/core"
	"github.com/mimic-fi/v3-subgraph/internal/modules/deps"
	"github.com/mimic-fi/v3-subgraph/internal/modules/loader"
	"github.com/mimic-fi/v3-subgraph/internal/network"
	"github.com/mimic-fi/v3-subgraph/internal/scheduler"
	"github.com/mimic-fi/v3-subgraph/internal/store"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "config.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := setupLogger(cfg.Logging)
	logger.Info().
		Str("config", configPath).
		Str("network", cfg.Chain.Name).
		Str("storage", cfg.Storage.Backend).
		Msg("Starting Mimic indexer")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("Indexer failed")
	}
	logger.Info().Msg("Indexer shutdown complete")
}

func run(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	net, err := resolveNetwork(cfg.Chain)
	if err != nil {
		return err
	}
	m := metrics.New("mimic_indexer")

	eth, err := ethclient.DialContext(ctx, cfg.Chain.RPCEndpoint)
	if err != nil {
		return fmt.Errorf("failed to connect to RPC endpoint: %w", err)
	}
	defer eth.Close()

	reader, err := contracts.NewEthReader(eth)
	if err != nil {
		return err
	}

	backend, cursor, pinger, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	d, err := deps.New(backend, reader, deps.Options{
		Network:     net,
		RateCacheMB: cfg.Rates.CacheMB,
		Metrics:     m,
		Logger:      logger,
	})
	if err != nil {
		return err
	}

	registry, err := buildRegistry(ctx, d, cfg.Sources, logger)
	if err != nil {
		return err
	}

	quality, err := scheduler.NewQualityScheduler(d.Correlator, cursor, cfg.Quality.Interval, cfg.Quality.Lookback, m, logger)
	if err != nil {
		return err
	}
	if err := quality.Start(ctx); err != nil {
		return err
	}
	defer quality.Stop()

	poller := ingest.NewPoller(eth, registry, cursor, ingest.Options{
		StartBlock:    startBlock(cfg),
		BatchSize:     cfg.Processor.BatchSize,
		Confirmations: cfg.Processor.Confirmations,
		Workers:       cfg.Processor.Workers,
		PollInterval:  cfg.Chain.BlockTime,
	}, m, logger)

	server := metrics.NewServer(cfg.Server.MetricsPort, logger)
	api.NewHealth(eth, cursor, pinger, cfg.Server.MaxBlocksBehind, logger).Register(server)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return server.Run(gctx) })
	g.Go(func() error { return poller.Run(gctx) })
	return g.Wait()
}

func resolveNetwork(chain config.ChainConfig) (network.Network, error) {
	if net, err := network.Lookup(chain.Name); err == nil {
		return net, nil
	}
	if chain.ChainID != 0 {
		if net, err := network.ByChainID(chain.ChainID); err == nil {
			return net, nil
		}
		return network.Unknown(chain.Name, chain.ChainID), nil
	}
	return network.Network{}, fmt.Errorf("unknown network %q and no chain_id configured", chain.Name)
}

// openStore returns the entity backend, the cursor matching it and the
// storage health check.
func openStore(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (store.Backend, ingest.Cursor, api.Pinger, func(), error) {
	if cfg.Storage.Backend == "memory" {
		logger.Warn().Msg("Using in-memory storage, state is lost on exit")
		return store.NewMemory(), &ingest.MemoryCursor{}, nil, func() {}, nil
	}

	if err := database.RunMigrations(ctx, &cfg.Database, logger); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	db, err := database.New(ctx, &cfg.Database, logger)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	return database.NewBackend(db), database.NewCursor(db, cfg.Chain.ChainID), db, db.Close, nil
}

// buildRegistry registers every embedded manifest's module, binds the
// configured static sources and restores template routes.
func buildRegistry(ctx context.Context, d *deps.Deps, sources map[string]config.SourceConfig, logger zerolog.Logger) (*core.ModuleRegistry, error) {
	registry := core.NewModuleRegistry(d.Repos, logger)
	d.Templates = registry

	manifests, err := loader.NewManifestLoader(logger).LoadAll()
	if err != nil {
		return nil, err
	}
	for _, manifest := range manifests {
		newModule, ok := constructors[manifest.Name]
		if !ok {
			return nil, fmt.Errorf("no module implements manifest %s", manifest.Name)
		}
		module, err := newModule(d, manifest)
		if err != nil {
			return nil, fmt.Errorf("failed to create module %s: %w", manifest.Name, err)
		}
		if err := registry.RegisterModule(module); err != nil {
			return nil, err
		}
	}

	for name, source := range sources {
		if !common.IsHexAddress(source.Address) {
			return nil, fmt.Errorf("sources.%s.address %q is not an address", name, source.Address)
		}
		// fee_controller binds the FeeController data source.
		if err := registry.BindSource(strings.ReplaceAll(name, "_", ""), common.HexToAddress(source.Address), source.StartBlock); err != nil {
			return nil, err
		}
	}

	if err := registry.LoadTemplates(ctx); err != nil {
		return nil, fmt.Errorf("failed to restore templates: %w", err)
	}
	logger.Info().
		Strs("modules", registry.ListModules()).
		Int("routes", registry.Routes()).
		Msg("Module registry ready")
	return registry, nil
}

// startBlock is the configured start or, when unset, the earliest source.
func startBlock(cfg *config.Config) uint64 {
	if cfg.Chain.StartBlock > 0 {
		return cfg.Chain.StartBlock
	}
	var earliest uint64
	for _, s := range cfg.Sources {
		if earliest == 0 || (s.StartBlock > 0 && s.StartBlock < earliest) {
			earliest = s.StartBlock
		}
	}
	return earliest
}

func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339Nano

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	if cfg.Format == "console" {
		output := zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: "15:04:05.000",
		}
		return zerolog.New(output).Level(level).With().Timestamp().Caller().Logger()
	}
	return zerolog.New(os.Stdout).Level(level).With().Timestamp().Caller().Logger()
}
