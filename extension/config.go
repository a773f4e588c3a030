package extension

import "time"

// Backend names accepted by Config.Backend.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
	BackendMongo    = "mongo"
)

// Config holds the Larder extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.larder" or "larder" keys).
type Config struct {
	// DisableMigrate prevents auto-migration on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// Backend selects the store: memory, postgres, sqlite or mongo
	// (default: memory). The database backends need a grove.DB supplied
	// with WithGroveDB.
	Backend string `json:"backend" mapstructure:"backend" yaml:"backend"`

	// LowStockScanInterval enables the periodic low-stock scan when
	// positive (default: disabled).
	LowStockScanInterval time.Duration `json:"low_stock_scan_interval" mapstructure:"low_stock_scan_interval" yaml:"low_stock_scan_interval"`

	// Metrics registers the Prometheus metrics plugin on the default
	// registerer unless a factory was given with WithMetrics.
	Metrics bool `json:"metrics" mapstructure:"metrics" yaml:"metrics"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Backend: BackendMemory,
	}
}
