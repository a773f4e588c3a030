package larder

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/xraph/larder/plugin"
	"github.com/xraph/larder/store"
)

// Larder is the inventory ledger and recipe costing engine.
type Larder struct {
	store   store.Store
	plugins *plugin.Registry
	logger  *slog.Logger
	now     func() time.Time

	// Background workers
	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	// Configuration
	lowStockScanInterval time.Duration
	skipMigrate          bool
}

// New creates a new Larder instance.
func New(s store.Store, opts ...Option) *Larder {
	l := &Larder{
		store:    s,
		plugins:  plugin.NewRegistry(),
		logger:   slog.Default(),
		now:      time.Now,
		stopChan: make(chan struct{}),
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Option configures a Larder instance.
type Option func(*Larder)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Larder) {
		l.logger = logger
		l.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(l *Larder) {
		_ = l.plugins.Register(p) //nolint:errcheck // best-effort plugin registration during init
	}
}

// WithClock overrides the time source used to stamp entities and movements.
func WithClock(now func() time.Time) Option {
	return func(l *Larder) {
		l.now = now
	}
}

// WithLowStockScan enables a background scan that emits OnLowStock for every
// ingredient at or below its minimum. A non-positive interval disables it.
func WithLowStockScan(interval time.Duration) Option {
	return func(l *Larder) {
		l.lowStockScanInterval = interval
	}
}

// WithoutMigrate makes Start skip store migrations, for schemas managed
// elsewhere.
func WithoutMigrate() Option {
	return func(l *Larder) {
		l.skipMigrate = true
	}
}

// Store returns the underlying store.
func (l *Larder) Store() store.Store { return l.store }

// Plugins returns the plugin registry.
func (l *Larder) Plugins() *plugin.Registry { return l.plugins }

// Start migrates the store, initializes plugins and begins background workers.
func (l *Larder) Start(ctx context.Context) error {
	if !l.skipMigrate {
		if err := l.store.Migrate(ctx); err != nil {
			return err
		}
	}

	l.plugins.EmitInit(ctx, l)

	if l.lowStockScanInterval > 0 {
		l.wg.Add(1)
		go l.lowStockWorker(context.WithoutCancel(ctx))
	}

	l.logger.Info("larder started",
		"plugins", l.plugins.Count(),
		"low_stock_scan_interval", l.lowStockScanInterval,
	)

	return nil
}

// Stop shuts down background workers, notifies plugins and closes the store.
func (l *Larder) Stop() error {
	l.stopOnce.Do(func() { close(l.stopChan) })
	l.wg.Wait()

	ctx := context.Background()
	l.plugins.EmitShutdown(ctx)

	l.logger.Info("larder stopped")
	return l.store.Close()
}

// lowStockWorker periodically reports low-stock ingredients to plugins.
func (l *Larder) lowStockWorker(ctx context.Context) {
	defer l.wg.Done()

	ticker := time.NewTicker(l.lowStockScanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-l.stopChan:
			return
		case <-ticker.C:
			l.scanLowStock(ctx)
		}
	}
}

func (l *Larder) scanLowStock(ctx context.Context) {
	start := time.Now()

	low, err := l.store.ListLowStock(ctx)
	if err != nil {
		l.logger.Error("low stock scan failed", "error", err)
		return
	}

	for _, i := range low {
		l.plugins.EmitLowStock(ctx, i)
	}

	l.logger.Debug("low stock scan completed",
		"low_stock", len(low),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
}

func (l *Larder) timestamp() time.Time {
	return l.now().UTC()
}
