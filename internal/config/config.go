package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig            `mapstructure:"server"`
	Chain     ChainConfig             `mapstructure:"chain"`
	Database  DatabaseConfig          `mapstructure:"database"`
	Storage   StorageConfig           `mapstructure:"storage"`
	Processor ProcessorConfig         `mapstructure:"processor"`
	Sources   map[string]SourceConfig `mapstructure:"sources"`
	Rates     RatesConfig             `mapstructure:"rates"`
	Quality   QualityConfig           `mapstructure:"quality"`
	Logging   LoggingConfig           `mapstructure:"logging"`
}

type ServerConfig struct {
	MetricsPort     int    `mapstructure:"metrics_port"`
	// MaxBlocksBehind is the lag past which /health reports degraded.
	MaxBlocksBehind uint64 `mapstructure:"max_blocks_behind"`
}

type ChainConfig struct {
	Name        string        `mapstructure:"name"`
	ChainID     int64         `mapstructure:"chain_id"`
	RPCEndpoint string        `mapstructure:"rpc_endpoint"`
	BlockTime   time.Duration `mapstructure:"block_time"`
	StartBlock  uint64        `mapstructure:"start_block"`
}

type DatabaseConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Name           string `mapstructure:"name"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	SSLMode        string `mapstructure:"ssl_mode"`
	MaxConnections int32  `mapstructure:"max_connections"`
}

// StorageConfig selects the entity backend: "postgres" or "memory".
type StorageConfig struct {
	Backend string `mapstructure:"backend"`
}

type ProcessorConfig struct {
	// BatchSize is the number of blocks requested per log query.
	BatchSize     uint64 `mapstructure:"batch_size"`
	Workers       int    `mapstructure:"workers"`
	Confirmations uint64 `mapstructure:"confirmations"`
}

// SourceConfig binds a manifest data source to a deployed contract.
type SourceConfig struct {
	Address    string `mapstructure:"address"`
	StartBlock uint64 `mapstructure:"start_block"`
}

type RatesConfig struct {
	CacheMB int `mapstructure:"cache_mb"`
}

type QualityConfig struct {
	Interval time.Duration `mapstructure:"interval"`
	// Lookback limits the report to ledgers written in the last Lookback blocks.
	Lookback uint64 `mapstructure:"lookback"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetEnvPrefix("INDEXER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.metrics_port", 9090)
	v.SetDefault("server.max_blocks_behind", 100)
	v.SetDefault("chain.name", "mainnet")
	v.SetDefault("chain.block_time", "12s")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_connections", 10)
	v.SetDefault("storage.backend", "postgres")
	v.SetDefault("processor.batch_size", 500)
	v.SetDefault("processor.workers", 8)
	v.SetDefault("processor.confirmations", 2)
	v.SetDefault("rates.cache_mb", 8)
	v.SetDefault("quality.interval", "10m")
	v.SetDefault("quality.lookback", 50000)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// Validate checks the settings the indexer cannot start without.
func (c *Config) Validate() error {
	if c.Chain.RPCEndpoint == "" {
		return fmt.Errorf("chain.rpc_endpoint is required")
	}
	switch c.Storage.Backend {
	case "postgres", "memory":
	default:
		return fmt.Errorf("unknown storage.backend %q", c.Storage.Backend)
	}
	if c.Processor.BatchSize == 0 {
		return fmt.Errorf("processor.batch_size must be positive")
	}
	return nil
}

func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode)
}
