// Package extension provides the Forge extension adapter for Larder.
//
// It implements the forge.Extension interface to integrate Larder
// into a Forge application with DI registration and lifecycle management.
//
// Configuration can be provided programmatically via Option functions
// or via YAML configuration files under "extensions.larder" or "larder" keys.
package extension

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/xraph/forge"
	"github.com/xraph/grove"
	"github.com/xraph/vessel"

	"github.com/xraph/larder"
	"github.com/xraph/larder/observability"
	"github.com/xraph/larder/store"
	"github.com/xraph/larder/store/memory"
	"github.com/xraph/larder/store/mongo"
	"github.com/xraph/larder/store/postgres"
	"github.com/xraph/larder/store/sqlite"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "larder"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Inventory ledger and recipe costing engine"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts Larder as a Forge extension.
type Extension struct {
	*forge.BaseExtension

	config     Config
	engine     *larder.Larder
	store      store.Store
	groveDB    *grove.DB
	metrics    observability.MetricFactory
	larderOpts []larder.Option
}

// New creates a new Larder Forge extension with the given options.
func New(opts ...Option) *Extension {
	e := &Extension{
		BaseExtension: forge.NewBaseExtension(ExtensionName, ExtensionVersion, ExtensionDescription),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Engine returns the underlying Larder instance.
// This is nil until Register is called.
func (e *Extension) Engine() *larder.Larder { return e.engine }

// Register implements [forge.Extension]. It loads configuration,
// initializes the larder engine, and registers it in the DI container.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.BaseExtension.Register(fapp); err != nil {
		return err
	}

	if err := e.loadConfiguration(); err != nil {
		return err
	}

	if e.store == nil {
		s, err := newStore(e.config.Backend, e.groveDB)
		if err != nil {
			return err
		}
		e.store = s
	}

	e.engine = larder.New(e.store, e.buildLarderOpts()...)

	return vessel.Provide(fapp.Container(), func() (*larder.Larder, error) {
		return e.engine, nil
	})
}

// Start implements [forge.Extension].
func (e *Extension) Start(ctx context.Context) error {
	if e.engine == nil {
		return errors.New("larder: extension not initialized")
	}

	if err := e.engine.Start(ctx); err != nil {
		return err
	}

	e.MarkStarted()
	return nil
}

// Stop implements [forge.Extension].
func (e *Extension) Stop(_ context.Context) error {
	if e.engine != nil {
		if err := e.engine.Stop(); err != nil {
			e.MarkStopped()
			return err
		}
	}
	e.MarkStopped()
	return nil
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.store == nil {
		return errors.New("larder: store not initialized")
	}
	return e.store.Ping(ctx)
}

// newStore builds the store for a backend name. Database backends wrap db.
func newStore(backend string, db *grove.DB) (store.Store, error) {
	name := strings.ToLower(strings.TrimSpace(backend))
	if name == "" || name == BackendMemory {
		return memory.New(), nil
	}

	if db == nil {
		return nil, fmt.Errorf("larder: backend %q requires a grove database (use WithGroveDB)", name)
	}
	switch name {
	case BackendPostgres:
		return postgres.New(db), nil
	case BackendSQLite:
		return sqlite.New(db), nil
	case BackendMongo:
		return mongo.New(db), nil
	default:
		return nil, fmt.Errorf("larder: unknown backend %q", backend)
	}
}

// buildLarderOpts constructs larder.Option values from the resolved config.
func (e *Extension) buildLarderOpts() []larder.Option {
	opts := make([]larder.Option, 0, len(e.larderOpts)+3)

	if e.config.DisableMigrate {
		opts = append(opts, larder.WithoutMigrate())
	}
	if e.config.LowStockScanInterval > 0 {
		opts = append(opts, larder.WithLowStockScan(e.config.LowStockScanInterval))
	}
	if e.config.Metrics {
		factory := e.metrics
		if factory == nil {
			factory = observability.NewPrometheusFactory(nil)
		}
		opts = append(opts, larder.WithPlugin(observability.NewMetricsExtension(factory)))
	}

	// Append any pass-through larder options.
	opts = append(opts, e.larderOpts...)

	return opts
}

// --- Config Loading (mirrors grove/shield extension pattern) ---

// loadConfiguration loads config from YAML files or programmatic sources.
func (e *Extension) loadConfiguration() error {
	programmaticConfig := e.config

	// Try loading from config file.
	fileConfig, configLoaded := e.tryLoadFromConfigFile()

	if !configLoaded {
		if programmaticConfig.RequireConfig {
			return errors.New("larder: configuration is required but not found in config files; " +
				"ensure 'extensions.larder' or 'larder' key exists in your config")
		}

		e.config = mergeWithDefaults(programmaticConfig)
	} else {
		e.config = mergeConfigurations(fileConfig, programmaticConfig)
	}

	e.Logger().Debug("larder: configuration loaded",
		forge.F("disable_migrate", e.config.DisableMigrate),
		forge.F("backend", e.config.Backend),
		forge.F("low_stock_scan_interval", e.config.LowStockScanInterval),
		forge.F("metrics", e.config.Metrics),
	)

	return nil
}

// tryLoadFromConfigFile attempts to load config from YAML files.
func (e *Extension) tryLoadFromConfigFile() (Config, bool) {
	cm := e.App().Config()
	var cfg Config

	for _, key := range []string{"extensions.larder", "larder"} {
		if !cm.IsSet(key) {
			continue
		}
		if err := cm.Bind(key, &cfg); err == nil {
			e.Logger().Debug("larder: loaded config from file",
				forge.F("key", key),
			)
			return cfg, true
		}
		e.Logger().Warn("larder: failed to bind config",
			forge.F("key", key),
			forge.F("error", "bind failed"),
		)
	}

	return Config{}, false
}

// mergeWithDefaults fills zero-valued fields with defaults.
func mergeWithDefaults(cfg Config) Config {
	defaults := DefaultConfig()
	if cfg.Backend == "" {
		cfg.Backend = defaults.Backend
	}
	return cfg
}

// mergeConfigurations merges YAML config with programmatic options.
// YAML config takes precedence; programmatic values fill gaps.
func mergeConfigurations(yamlConfig, programmaticConfig Config) Config {
	// Programmatic bool flags override when true.
	if programmaticConfig.DisableMigrate {
		yamlConfig.DisableMigrate = true
	}
	if programmaticConfig.Metrics {
		yamlConfig.Metrics = true
	}

	if yamlConfig.Backend == "" && programmaticConfig.Backend != "" {
		yamlConfig.Backend = programmaticConfig.Backend
	}
	if yamlConfig.LowStockScanInterval == 0 && programmaticConfig.LowStockScanInterval != 0 {
		yamlConfig.LowStockScanInterval = programmaticConfig.LowStockScanInterval
	}

	return mergeWithDefaults(yamlConfig)
}
