// Package app wires the idle user bot together: the activity ledger, the
// messaging gateway, the message bus, the command dispatcher, the scheduled
// report and the metrics endpoint.
package app

import (
	"context"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aatumaykin/idlebot/internal/activity"
	"github.com/aatumaykin/idlebot/internal/bus"
	"github.com/aatumaykin/idlebot/internal/config"
	"github.com/aatumaykin/idlebot/internal/dispatch"
	"github.com/aatumaykin/idlebot/internal/gateway"
	"github.com/aatumaykin/idlebot/internal/logger"
	"github.com/aatumaykin/idlebot/internal/metrics"
	"github.com/aatumaykin/idlebot/internal/policy"
	"github.com/aatumaykin/idlebot/internal/retry"
	"github.com/aatumaykin/idlebot/internal/schedule"
)

const metricsNamespace = "idlebot"

// App represents the main application structure.
// It holds references to all major components and manages their lifecycle.
type App struct {
	// Configuration and core services
	config  *config.Config
	logger  *logger.Logger
	metrics *metrics.PrometheusMetrics

	// Communication infrastructure
	messageBus *bus.MessageBus
	gateway    gateway.Gateway

	// Moderation state
	backend    activity.Backend
	ledger     *activity.Ledger
	settings   *policy.Holder
	dispatcher *dispatch.Dispatcher

	// Scheduled idle report
	scheduler *schedule.Scheduler

	// Reply delivery retries
	deliveryRetry retry.Config

	// Context management
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// Thread-safety
	mu      sync.RWMutex
	started bool
}

// Option customizes an App.
type Option func(*App)

// WithGateway uses gw instead of building one from configuration.
func WithGateway(gw gateway.Gateway) Option {
	return func(a *App) { a.gateway = gw }
}

// WithBackend uses b instead of opening the configured storage.
func WithBackend(b activity.Backend) Option {
	return func(a *App) { a.backend = b }
}

// WithRegistry registers metrics on reg instead of a private registry.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(a *App) { a.metrics = metrics.InitPrometheusMetrics(metricsNamespace, reg) }
}

// WithDeliveryRetry overrides the reply delivery backoff.
func WithDeliveryRetry(cfg retry.Config) Option {
	return func(a *App) { a.deliveryRetry = cfg }
}

// New creates a new App. Components are created in Initialize.
func New(cfg *config.Config, log *logger.Logger, opts ...Option) *App {
	a := &App{
		config: cfg,
		logger: log,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.metrics == nil {
		a.metrics = metrics.InitPrometheusMetrics(metricsNamespace, prometheus.NewRegistry())
	}
	return a
}

// Run starts the application and blocks until the context is cancelled.
func (a *App) Run(ctx context.Context) error {
	if err := a.Initialize(ctx); err != nil {
		a.cleanupPartial()
		return err
	}

	if err := a.StartMessageProcessing(a.ctx); err != nil {
		_ = a.Shutdown()
		return err
	}

	a.logger.Info("Application is running")

	<-ctx.Done()

	return a.Shutdown()
}

// Settings returns the live moderation settings.
func (a *App) Settings() policy.Settings {
	return a.settings.Get()
}
