package types

import "errors"

// Config holds backend selection and parameters for Backend.Attach.
type Config struct {
	Backend  string          `json:"backend" yaml:"backend"`
	DataDir  string          `json:"data_dir" yaml:"data_dir"`
	SQLite   *SQLiteConfig   `json:"sqlite,omitempty" yaml:"sqlite,omitempty"`
	Postgres *PostgresConfig `json:"postgres,omitempty" yaml:"postgres,omitempty"`
	Local    *LocalConfig    `json:"local,omitempty" yaml:"local,omitempty"`
}

// Supported backend names.
const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendLocal    = "local"
)

// Sync strategies for the SQLite backend's JSONL persistence.
const (
	SyncImmediate = "immediate"
	SyncOnClose   = "on_close"
	SyncBatch     = "batch"
)

// Defaults for batch sync.
const (
	DefaultBatchSize     = 10
	DefaultBatchInterval = 5 // seconds
)

// SQLiteConfig tunes when tasks.jsonl is rewritten.
type SQLiteConfig struct {
	SyncStrategy  string `json:"sync_strategy" yaml:"sync_strategy"`
	BatchSize     int    `json:"batch_size" yaml:"batch_size"`
	BatchInterval int    `json:"batch_interval" yaml:"batch_interval"` // seconds
}

// GetSyncStrategy returns the configured strategy, or SyncImmediate when unset.
func (c *SQLiteConfig) GetSyncStrategy() string {
	if c == nil || c.SyncStrategy == "" {
		return SyncImmediate
	}
	return c.SyncStrategy
}

// GetBatchSize returns the configured batch size, or DefaultBatchSize when unset.
func (c *SQLiteConfig) GetBatchSize() int {
	if c == nil || c.BatchSize == 0 {
		return DefaultBatchSize
	}
	return c.BatchSize
}

// GetBatchInterval returns the configured interval in seconds, or
// DefaultBatchInterval when unset.
func (c *SQLiteConfig) GetBatchInterval() int {
	if c == nil || c.BatchInterval == 0 {
		return DefaultBatchInterval
	}
	return c.BatchInterval
}

// Validate checks the sync settings.
func (c *SQLiteConfig) Validate() error {
	if c == nil {
		return nil
	}
	switch c.GetSyncStrategy() {
	case SyncImmediate, SyncOnClose, SyncBatch:
	default:
		return ErrSyncStrategyUnknown
	}
	if c.BatchSize < 0 {
		return ErrBatchSizeInvalid
	}
	if c.BatchInterval < 0 {
		return ErrBatchIntervalInvalid
	}
	return nil
}

// PostgresConfig points at the hosted database.
type PostgresConfig struct {
	DSN string `json:"dsn" yaml:"dsn"`
}

// LocalConfig controls the single-file fallback store.
type LocalConfig struct {
	// SeedDemo fills a fresh store with example tasks.
	SeedDemo bool `json:"seed_demo" yaml:"seed_demo"`
}

// Config validation errors.
var (
	ErrBackendEmpty         = errors.New("backend must not be empty")
	ErrBackendUnknown       = errors.New("unknown backend")
	ErrDSNEmpty             = errors.New("postgres dsn must not be empty")
	ErrSyncStrategyUnknown  = errors.New("unknown sync strategy")
	ErrBatchSizeInvalid     = errors.New("batch size must be positive")
	ErrBatchIntervalInvalid = errors.New("batch interval must be positive")
)

// knownBackends lists the backends that Validate accepts.
var knownBackends = map[string]bool{
	BackendSQLite:   true,
	BackendPostgres: true,
	BackendLocal:    true,
}

// Validate checks that the Config is well-formed. It returns a sentinel error
// from this package on failure.
func (c Config) Validate() error {
	if c.Backend == "" {
		return ErrBackendEmpty
	}
	if !knownBackends[c.Backend] {
		return ErrBackendUnknown
	}
	if c.Backend == BackendPostgres && (c.Postgres == nil || c.Postgres.DSN == "") {
		return ErrDSNEmpty
	}
	return c.SQLite.Validate()
}
