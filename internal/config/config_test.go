package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_DefaultsAndSources(t *testing.T) {
	path := writeConfig(t, `
chain:
  name: arbitrum-one
  rpc_endpoint: http://localhost:8545
sources:
  deployer:
    address: "0x00000000000000000000000000000000000000aa"
    start_block: 100
  relayer:
    address: "0x00000000000000000000000000000000000000bb"
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "arbitrum-one", cfg.Chain.Name)
	assert.Equal(t, "postgres", cfg.Storage.Backend)
	assert.Equal(t, uint64(500), cfg.Processor.BatchSize)
	assert.Equal(t, 10*time.Minute, cfg.Quality.Interval)
	assert.Equal(t, uint64(100), cfg.Sources["deployer"].StartBlock)
	assert.Equal(t, "0x00000000000000000000000000000000000000bb", cfg.Sources["relayer"].Address)
}

func TestLoad_EnvOverride(t *testing.T) {
	path := writeConfig(t, "chain:\n  rpc_endpoint: http://localhost:8545\n")
	t.Setenv("INDEXER_STORAGE_BACKEND", "memory")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Storage.Backend)
}

func TestLoad_Invalid(t *testing.T) {
	_, err := Load(writeConfig(t, "logging:\n  level: debug\n"))
	assert.ErrorContains(t, err, "rpc_endpoint")

	_, err = Load(writeConfig(t, "chain:\n  rpc_endpoint: x\nstorage:\n  backend: sqlite\n"))
	assert.ErrorContains(t, err, "unknown storage.backend")
}

func TestConnectionString(t *testing.T) {
	c := DatabaseConfig{User: "u", Password: "p", Host: "h", Port: 5432, Name: "db", SSLMode: "disable"}
	assert.Equal(t, "postgres://u:p@h:5432/db?sslmode=disable", c.ConnectionString())
}
