package telegram

import (
	"fmt"
	"strconv"
	"time"

	"github.com/mymmrac/telego"

	"github.com/aatumaykin/idlebot/internal/bus"
	"github.com/aatumaykin/idlebot/internal/gateway"
	"github.com/aatumaykin/idlebot/internal/logger"
)

// handleUpdate keeps the roster current and publishes group messages.
func (g *Gateway) handleUpdate(update telego.Update, publish gateway.PublishFunc) error {
	if update.ChatMember != nil {
		g.handleMemberChange(update.ChatMember)
		return nil
	}

	msg := update.Message
	if msg == nil || !isGroup(msg.Chat) {
		return nil
	}
	groupID := strconv.FormatInt(msg.Chat.ID, 10)

	for _, u := range msg.NewChatMembers {
		if !u.IsBot {
			g.roster.add(groupID, userID(u))
		}
	}
	if msg.LeftChatMember != nil {
		g.roster.remove(groupID, userID(*msg.LeftChatMember))
	}
	if len(msg.NewChatMembers) > 0 || msg.LeftChatMember != nil {
		return nil
	}

	if msg.From == nil || msg.From.IsBot {
		return nil
	}
	sender := userID(*msg.From)
	g.roster.add(groupID, sender)

	text := msg.Text
	if text == "" {
		text = msg.Caption
	}

	inbound := bus.NewInboundMessage(bus.ChannelTypeTelegram, groupID, sender, text, time.Unix(msg.Date, 0).UTC())
	if err := publish(inbound); err != nil {
		return fmt.Errorf("failed to publish inbound message: %w", err)
	}

	g.logger.Debug("inbound message published",
		logger.Field{Key: "group_id", Value: groupID},
		g.logger.User(sender))
	return nil
}

func (g *Gateway) handleMemberChange(upd *telego.ChatMemberUpdated) {
	if !isGroup(upd.Chat) || upd.NewChatMember == nil {
		return
	}
	user := upd.NewChatMember.MemberUser()
	if user.IsBot {
		return
	}

	groupID := strconv.FormatInt(upd.Chat.ID, 10)
	switch upd.NewChatMember.MemberStatus() {
	case "left", "kicked":
		g.roster.remove(groupID, userID(user))
	default:
		g.roster.add(groupID, userID(user))
	}
}

func isGroup(chat telego.Chat) bool {
	return chat.Type == "group" || chat.Type == "supergroup"
}

func userID(u telego.User) string {
	return strconv.FormatInt(u.ID, 10)
}
