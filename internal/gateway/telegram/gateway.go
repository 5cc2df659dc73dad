// Package telegram is a gateway to the Telegram Bot API built on telego.
//
// The bot must be a group administrator with the "ban users" right to remove
// members, and needs privacy mode disabled to see ordinary group messages.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/mymmrac/telego"
	telegoapi "github.com/mymmrac/telego/telegoapi"

	"github.com/aatumaykin/idlebot/internal/gateway"
	"github.com/aatumaykin/idlebot/internal/logger"
)

const (
	platform        = "telegram"
	longPollTimeout = 30
)

// Config for the telegram gateway.
type Config struct {
	Token string
}

// Gateway implements gateway.Gateway over the Bot API.
type Gateway struct {
	cfg    Config
	logger *logger.Logger
	roster *roster

	mu      sync.Mutex
	bot     BotInterface
	selfID  string
	started bool
	cancel  context.CancelFunc
	done    chan struct{}
}

var _ gateway.Gateway = (*Gateway)(nil)

// New creates a gateway that connects with cfg.Token on Start.
func New(cfg Config, log *logger.Logger) *Gateway {
	return &Gateway{
		cfg:    cfg,
		logger: log.With(logger.Field{Key: "gateway", Value: platform}),
		roster: newRoster(),
	}
}

// NewWithBot creates a gateway over an existing bot client.
func NewWithBot(bot BotInterface, log *logger.Logger) *Gateway {
	g := New(Config{}, log)
	g.bot = bot
	return g
}

func (g *Gateway) Name() string { return platform }

func (g *Gateway) SelfID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.selfID
}

// Seed adds known members of groupID, typically the users already in the
// activity ledger.
func (g *Gateway) Seed(groupID string, userIDs []string) {
	g.roster.add(groupID, userIDs...)
}

// Start connects to the Bot API and starts long polling.
func (g *Gateway) Start(ctx context.Context, publish gateway.PublishFunc) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.started {
		return errors.New("telegram gateway already started")
	}

	if g.bot == nil {
		if g.cfg.Token == "" {
			return errors.New("telegram token is required")
		}
		bot, err := telego.NewBot(g.cfg.Token)
		if err != nil {
			return fmt.Errorf("failed to initialize telegram bot: %w", err)
		}
		g.bot = NewBotAdapter(bot)
	}

	me, err := g.bot.GetMe(ctx)
	if err != nil {
		return fmt.Errorf("failed to get bot info: %w", convertError("get_me", err))
	}
	g.selfID = strconv.FormatInt(me.ID, 10)

	pollCtx, cancel := context.WithCancel(ctx)
	updates, err := g.bot.UpdatesViaLongPolling(pollCtx, &telego.GetUpdatesParams{
		Timeout:        longPollTimeout,
		AllowedUpdates: []string{"message", "chat_member"},
	})
	if err != nil {
		cancel()
		return fmt.Errorf("failed to start long polling: %w", convertError("get_updates", err))
	}

	g.cancel = cancel
	g.done = make(chan struct{})
	g.started = true
	go g.pollLoop(pollCtx, updates, publish, g.done)

	g.logger.Info("telegram bot initialized",
		logger.Field{Key: "bot_id", Value: me.ID},
		logger.Field{Key: "username", Value: me.Username})
	return nil
}

// Stop stops long polling.
func (g *Gateway) Stop() error {
	g.mu.Lock()
	if !g.started {
		g.mu.Unlock()
		return nil
	}
	g.started = false
	cancel, done := g.cancel, g.done
	g.mu.Unlock()

	cancel()
	<-done
	g.logger.Info("telegram gateway stopped")
	return nil
}

func (g *Gateway) pollLoop(ctx context.Context, updates <-chan telego.Update, publish gateway.PublishFunc, done chan struct{}) {
	defer close(done)
	g.logger.Info("starting long polling for telegram updates")

	for {
		select {
		case <-ctx.Done():
			g.logger.Info("long polling stopped")
			return
		case update, ok := <-updates:
			if !ok {
				g.logger.Info("updates channel closed")
				return
			}
			if err := g.handleUpdate(update, publish); err != nil {
				g.logger.ErrorCtx(ctx, "failed to handle update", err)
			}
		}
	}
}

// SendMessage sends text to the chat groupID.
func (g *Gateway) SendMessage(ctx context.Context, groupID, text string) error {
	chatID, err := parseID(groupID)
	if err != nil {
		return err
	}
	bot, err := g.client()
	if err != nil {
		return err
	}

	_, err = bot.SendMessage(ctx, &telego.SendMessageParams{
		ChatID: telego.ChatID{ID: chatID},
		Text:   text,
	})
	return convertError("send", err)
}

// GroupMembers returns the members learned so far.
func (g *Gateway) GroupMembers(ctx context.Context, groupID string) ([]string, error) {
	if _, err := parseID(groupID); err != nil {
		return nil, err
	}
	return g.roster.members(groupID), nil
}

// RemoveMember kicks userID: a ban immediately lifted, so the user may rejoin
// by invite.
func (g *Gateway) RemoveMember(ctx context.Context, groupID, userID string) error {
	chatID, err := parseID(groupID)
	if err != nil {
		return err
	}
	uid, err := parseID(userID)
	if err != nil {
		return err
	}
	bot, err := g.client()
	if err != nil {
		return err
	}

	if err := bot.BanChatMember(ctx, &telego.BanChatMemberParams{
		ChatID: telego.ChatID{ID: chatID},
		UserID: uid,
	}); err != nil {
		return convertError("ban_chat_member", err)
	}

	if err := bot.UnbanChatMember(ctx, &telego.UnbanChatMemberParams{
		ChatID:       telego.ChatID{ID: chatID},
		UserID:       uid,
		OnlyIfBanned: true,
	}); err != nil {
		// the user is out of the group either way
		g.logger.WarnCtx(ctx, "failed to lift ban after removal",
			logger.Field{Key: "error", Value: err},
			g.logger.User(userID))
	}

	g.roster.remove(groupID, userID)
	return nil
}

func (g *Gateway) client() (BotInterface, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.bot == nil {
		return nil, gateway.ErrNotStarted
	}
	return g.bot, nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid telegram id %q: %w", s, err)
	}
	return id, nil
}

// convertError maps Bot API errors to *gateway.APIError.
func convertError(op string, err error) error {
	if err == nil {
		return nil
	}

	var telErr *telegoapi.Error
	if !errors.As(err, &telErr) {
		return err
	}

	apiErr := &gateway.APIError{
		Platform:    platform,
		Op:          op,
		Code:        telErr.ErrorCode,
		Description: telErr.Description,
	}
	if telErr.Parameters != nil {
		apiErr.RetryAfter = time.Duration(telErr.Parameters.RetryAfter) * time.Second
	}
	return apiErr
}
