package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/aatumaykin/idlebot/internal/activity"
	"github.com/aatumaykin/idlebot/internal/app/builders"
	"github.com/aatumaykin/idlebot/internal/bus"
	"github.com/aatumaykin/idlebot/internal/dispatch"
	"github.com/aatumaykin/idlebot/internal/logger"
	"github.com/aatumaykin/idlebot/internal/moderation"
	"github.com/aatumaykin/idlebot/internal/policy"
	"github.com/aatumaykin/idlebot/internal/schedule"
	"github.com/aatumaykin/idlebot/internal/version"
)

// Initialize creates and starts every component. Order matters: the
// gateway is seeded from the ledger, and the dispatcher needs the bot's
// own ID which the gateway only knows once started.
func (a *App) Initialize(ctx context.Context) error {
	// 1. Create application context
	a.ctx, a.cancel = context.WithCancel(ctx)
	cfg := a.config

	// 2. Moderation settings
	settings, err := policy.NewHolder(cfg.Settings())
	if err != nil {
		return fmt.Errorf("invalid moderation settings: %w", err)
	}
	a.settings = settings

	// 3. Activity ledger
	if a.backend == nil {
		backend, err := builders.NewStorageBuilder(cfg, a.logger).Build(a.ctx)
		if err != nil {
			return err
		}
		a.backend = backend
	}
	a.ledger = activity.Open(a.ctx, a.backend, a.logger)
	a.metrics.SetTrackedUsers(a.ledger.Len())

	// 4. Message bus
	a.messageBus = bus.New(cfg.MessageBus.Capacity, a.logger)
	if err := a.messageBus.Start(a.ctx); err != nil {
		return fmt.Errorf("failed to start message bus: %w", err)
	}

	// 5. Gateway
	if a.gateway == nil {
		gw, err := builders.NewGatewayBuilder(cfg, a.logger).Build(a.ctx, knownUsers(a.ledger))
		if err != nil {
			return err
		}
		a.gateway = gw
	}
	if err := a.gateway.Start(a.ctx, a.messageBus.PublishInbound); err != nil {
		return fmt.Errorf("failed to start %s gateway: %w", a.gateway.Name(), err)
	}

	// 6. Executor and dispatcher
	executor := moderation.NewExecutor(a.gateway, a.ledger, a.logger, moderation.Options{
		Timeout:     cfg.Bot.RemovalTimeout(),
		Concurrency: cfg.Bot.RemovalConcurrency,
		Metrics:     a.metrics,
	})
	a.dispatcher = dispatch.New(a.ledger, a.gateway, executor, a.settings, a.logger, dispatch.Options{
		Prefix:       cfg.Bot.CommandPrefix,
		PreviewLimit: cfg.Bot.PreviewLimit,
		SelfID:       a.gateway.SelfID(),
		Metrics:      a.metrics,
	})

	// 7. Scheduled idle report
	if cfg.Schedule.IdleReport != "" {
		scheduler, err := schedule.New(schedule.Config{
			Spec:     cfg.Schedule.IdleReport,
			Timezone: cfg.Schedule.Timezone,
			GroupID:  cfg.Bot.GroupID,
			Prefix:   cfg.Bot.CommandPrefix,
		}, a.messageBus, a.logger)
		if err != nil {
			return fmt.Errorf("failed to create scheduler: %w", err)
		}
		if err := scheduler.Start(a.ctx); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
		a.scheduler = scheduler
	}

	// 8. Metrics endpoint
	if cfg.Metrics.Listen != "" {
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			if err := a.metrics.Serve(a.ctx, cfg.Metrics.Listen, a.logger); err != nil {
				a.logger.Error("metrics endpoint failed", err)
			}
		}()
	}

	a.logStartup()

	a.mu.Lock()
	a.started = true
	a.mu.Unlock()

	return nil
}

// cleanupPartial releases whatever Initialize managed to create before
// failing.
func (a *App) cleanupPartial() {
	if a.cancel != nil {
		a.cancel()
	}
	if a.scheduler != nil {
		_ = a.scheduler.Stop()
	}
	if a.gateway != nil {
		if err := a.gateway.Stop(); err != nil {
			a.logger.Debug("gateway stop after failed start", logger.Field{Key: "error", Value: err})
		}
	}
	if a.messageBus != nil && a.messageBus.IsStarted() {
		_ = a.messageBus.Stop()
	}
	if a.ledger != nil {
		_ = a.ledger.Close()
	} else if a.backend != nil {
		_ = a.backend.Close()
	}
	a.wg.Wait()
}

func (a *App) logStartup() {
	s := a.settings.Get()
	cfg := a.config

	a.logger.Info(strings.ReplaceAll(version.FormatStartupMessage(), "\n", " | "))
	a.logger.Info("moderation settings",
		logger.Field{Key: "gateway", Value: a.gateway.Name()},
		logger.Field{Key: "group_id", Value: cfg.Bot.GroupID},
		logger.Field{Key: "storage", Value: cfg.Storage.Driver},
		logger.Field{Key: "admins", Value: maskAll(s.AdminIDs)},
		logger.Field{Key: "protected", Value: maskAll(s.ProtectedIDs)},
		logger.Field{Key: "idle_threshold_days", Value: s.IdleThresholdDays},
		logger.Field{Key: "dry_run", Value: s.DryRun},
		logger.Field{Key: "users_tracked", Value: a.ledger.Len()})

	if len(s.AdminIDs) == 0 {
		a.logger.Warn("no admin ids configured, admin commands are disabled")
	}
}

func knownUsers(l *activity.Ledger) []string {
	ids := make([]string, 0, l.Len())
	for id := range l.LastSeenMap() {
		ids = append(ids, id)
	}
	return ids
}

func maskAll(ids []string) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = logger.MaskID(id)
	}
	return out
}
