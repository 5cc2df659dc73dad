package telegram

import (
	"context"

	"github.com/mymmrac/telego"
)

// BotInterface is the part of the Telegram Bot API the gateway uses.
// It allows mocking telego.Bot in tests.
type BotInterface interface {
	// GetMe returns basic information about the bot.
	GetMe(ctx context.Context) (*telego.User, error)

	// SendMessage sends a text message to a chat.
	SendMessage(ctx context.Context, params *telego.SendMessageParams) (*telego.Message, error)

	// UpdatesViaLongPolling starts long polling for Telegram updates.
	UpdatesViaLongPolling(ctx context.Context, params *telego.GetUpdatesParams, opts ...telego.LongPollingOption) (<-chan telego.Update, error)

	// BanChatMember bans a user in a group.
	BanChatMember(ctx context.Context, params *telego.BanChatMemberParams) error

	// UnbanChatMember lifts a ban so the user may rejoin.
	UnbanChatMember(ctx context.Context, params *telego.UnbanChatMemberParams) error
}

// telegoAdapter delegates to telego.Bot.
type telegoAdapter struct {
	bot *telego.Bot
}

// NewBotAdapter wraps a telego.Bot as BotInterface.
func NewBotAdapter(bot *telego.Bot) BotInterface {
	return &telegoAdapter{bot: bot}
}

func (a *telegoAdapter) GetMe(ctx context.Context) (*telego.User, error) {
	return a.bot.GetMe(ctx)
}

func (a *telegoAdapter) SendMessage(ctx context.Context, params *telego.SendMessageParams) (*telego.Message, error) {
	return a.bot.SendMessage(ctx, params)
}

func (a *telegoAdapter) UpdatesViaLongPolling(ctx context.Context, params *telego.GetUpdatesParams, opts ...telego.LongPollingOption) (<-chan telego.Update, error) {
	return a.bot.UpdatesViaLongPolling(ctx, params, opts...)
}

func (a *telegoAdapter) BanChatMember(ctx context.Context, params *telego.BanChatMemberParams) error {
	return a.bot.BanChatMember(ctx, params)
}

func (a *telegoAdapter) UnbanChatMember(ctx context.Context, params *telego.UnbanChatMemberParams) error {
	return a.bot.UnbanChatMember(ctx, params)
}
