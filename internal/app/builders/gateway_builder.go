package builders

import (
	"context"
	"fmt"

	"github.com/aatumaykin/idlebot/internal/config"
	"github.com/aatumaykin/idlebot/internal/gateway"
	"github.com/aatumaykin/idlebot/internal/gateway/signal"
	"github.com/aatumaykin/idlebot/internal/gateway/telegram"
	"github.com/aatumaykin/idlebot/internal/logger"
)

// GatewayBuilder creates the messaging gateway selected by gateway.driver.
type GatewayBuilder struct {
	config *config.Config
	logger *logger.Logger
}

func NewGatewayBuilder(cfg *config.Config, log *logger.Logger) *GatewayBuilder {
	return &GatewayBuilder{
		config: cfg,
		logger: log,
	}
}

// Build returns an unstarted gateway. The Telegram Bot API cannot list
// group members, so its roster is seeded with knownUsers.
func (b *GatewayBuilder) Build(ctx context.Context, knownUsers []string) (gateway.Gateway, error) {
	g := b.config.Gateway

	switch g.Driver {
	case config.GatewaySignal:
		return signal.New(signal.Config{
			Service:      g.Signal.Service,
			Number:       g.Signal.Number,
			PollInterval: g.Signal.PollInterval(),
			Timeout:      g.Signal.Timeout(),
		}, b.logger), nil

	case config.GatewayTelegram:
		tg := telegram.New(telegram.Config{Token: g.Telegram.Token}, b.logger)
		tg.Seed(b.config.Bot.GroupID, knownUsers)
		b.logger.InfoCtx(ctx, "telegram roster seeded from activity history",
			logger.Field{Key: "users", Value: len(knownUsers)})
		return tg, nil

	default:
		return nil, fmt.Errorf("unsupported gateway driver: %s", g.Driver)
	}
}
