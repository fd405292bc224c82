// This file loads config.yaml and environment overrides.
package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/mesh-intelligence/taskboard/internal/paths"
	"github.com/mesh-intelligence/taskboard/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"
	envPrefix      = "TASKBOARD"

	cfgKeyBackend       = "backend"
	cfgKeyDataDir       = "data_dir"
	cfgKeyLogLevel      = "log_level"
	cfgKeyDSN           = "postgres.dsn"
	cfgKeySyncStrategy  = "sqlite.sync_strategy"
	cfgKeyBatchSize     = "sqlite.batch_size"
	cfgKeyBatchInterval = "sqlite.batch_interval"
	cfgKeySeedDemo      = "local.seed_demo"
	cfgKeyServerAddr    = "server.addr"
	cfgKeyAuthRequired  = "auth.required"

	defaultServerAddr = "127.0.0.1:8080"
)

// defaultConfigYAML is written to config.yaml on first run.
const defaultConfigYAML = `# taskboard configuration
# Every key can be overridden with a TASKBOARD_ environment variable,
# for example TASKBOARD_BACKEND=local or TASKBOARD_POSTGRES_DSN=...

# Backend: sqlite, postgres or local
backend: sqlite

# Data directory (optional; overridable by --data-dir and TASKBOARD_DATA_DIR)
# data_dir:

# debug, info, warn or error
log_level: warn

sqlite:
  # immediate, on_close or batch
  sync_strategy: immediate
  batch_size: 10
  batch_interval: 5

postgres:
  dsn: ""

local:
  seed_demo: true

server:
  addr: 127.0.0.1:8080

auth:
  required: false
`

// loadConfig reads config.yaml from configDir using Viper. It creates the
// directory and a default config.yaml on first run.
func loadConfig(configDir string) (*viper.Viper, error) {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure config dir: %w", err)
	}
	if err := ensureDefaultConfigFile(configDir); err != nil {
		return nil, fmt.Errorf("ensure default config: %w", err)
	}

	v := viper.New()
	v.SetDefault(cfgKeyBackend, types.BackendSQLite)
	v.SetDefault(cfgKeyLogLevel, "warn")
	v.SetDefault(cfgKeySyncStrategy, types.SyncImmediate)
	v.SetDefault(cfgKeyBatchSize, types.DefaultBatchSize)
	v.SetDefault(cfgKeyBatchInterval, types.DefaultBatchInterval)
	v.SetDefault(cfgKeySeedDemo, true)
	v.SetDefault(cfgKeyServerAddr, defaultServerAddr)
	v.SetDefault(cfgKeyAuthRequired, false)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return v, nil
}

// ensureDefaultConfigFile creates a default config.yaml if the file does not
// exist in configDir.
func ensureDefaultConfigFile(configDir string) error {
	path := filepath.Join(configDir, configFileExt)

	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}
	return os.WriteFile(path, []byte(defaultConfigYAML), 0o644)
}

// dataDir resolves the data directory: flag > env > config.yaml > default.
func (a *app) dataDir() (string, error) {
	return paths.ResolveDataDir(a.dataDirFlag, a.cfg.GetString(cfgKeyDataDir), a.configDir)
}

// backendConfig assembles the Attach configuration from the loaded settings.
func (a *app) backendConfig() (types.Config, error) {
	dir, err := a.dataDir()
	if err != nil {
		return types.Config{}, fmt.Errorf("resolve data dir: %w", err)
	}
	return types.Config{
		Backend: a.cfg.GetString(cfgKeyBackend),
		DataDir: dir,
		SQLite: &types.SQLiteConfig{
			SyncStrategy:  a.cfg.GetString(cfgKeySyncStrategy),
			BatchSize:     a.cfg.GetInt(cfgKeyBatchSize),
			BatchInterval: a.cfg.GetInt(cfgKeyBatchInterval),
		},
		Postgres: &types.PostgresConfig{DSN: a.cfg.GetString(cfgKeyDSN)},
		Local:    &types.LocalConfig{SeedDemo: a.cfg.GetBool(cfgKeySeedDemo)},
	}, nil
}
