package extension

import (
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/larder"
	audithook "github.com/xraph/larder/audit_hook"
	"github.com/xraph/larder/observability"
	"github.com/xraph/larder/plugin"
	"github.com/xraph/larder/store"
)

// Option configures the Larder Forge extension.
type Option func(*Extension)

// WithStore sets the store for the larder engine. It takes precedence over
// Backend.
func WithStore(s store.Store) Option {
	return func(e *Extension) {
		e.store = s
	}
}

// WithGroveDB supplies the database used by the postgres, sqlite and mongo
// backends.
func WithGroveDB(db *grove.DB) Option {
	return func(e *Extension) {
		e.groveDB = db
	}
}

// WithBackend selects the store backend by name.
func WithBackend(name string) Option {
	return func(e *Extension) { e.config.Backend = name }
}

// WithLarderOption passes a larder.Option through to the underlying engine.
func WithLarderOption(opt larder.Option) Option {
	return func(e *Extension) {
		e.larderOpts = append(e.larderOpts, opt)
	}
}

// WithPlugin registers a larder plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Extension) {
		e.larderOpts = append(e.larderOpts, larder.WithPlugin(p))
	}
}

// WithAuditRecorder registers the audit trail plugin writing to r.
func WithAuditRecorder(r audithook.Recorder, opts ...audithook.Option) Option {
	return func(e *Extension) {
		e.larderOpts = append(e.larderOpts, larder.WithPlugin(audithook.New(r, opts...)))
	}
}

// WithMetrics registers the metrics plugin on factory.
func WithMetrics(factory observability.MetricFactory) Option {
	return func(e *Extension) {
		e.metrics = factory
		e.config.Metrics = true
	}
}

// WithConfig sets the Forge extension configuration.
func WithConfig(cfg Config) Option {
	return func(e *Extension) { e.config = cfg }
}

// WithDisableMigrate prevents auto-migration on start.
func WithDisableMigrate() Option {
	return func(e *Extension) { e.config.DisableMigrate = true }
}

// WithLowStockScanInterval enables the periodic low-stock scan.
func WithLowStockScanInterval(d time.Duration) Option {
	return func(e *Extension) { e.config.LowStockScanInterval = d }
}

// WithRequireConfig requires config to be present in YAML files.
// If true and no config is found, Register returns an error.
func WithRequireConfig(require bool) Option {
	return func(e *Extension) { e.config.RequireConfig = require }
}
