// Package bus carries messages between the messaging gateway and the engine.
// Inbound messages are group events observed by the gateway; outbound
// messages are replies the engine wants delivered to a group.
package bus

import (
	"time"

	"github.com/google/uuid"
)

// ChannelType represents the messaging platform a message belongs to
type ChannelType string

const (
	ChannelTypeSignal    ChannelType = "signal"
	ChannelTypeTelegram  ChannelType = "telegram"
	ChannelTypeScheduler ChannelType = "scheduler"
)

// InboundMessage is one message observed in a group
type InboundMessage struct {
	ChannelType ChannelType `json:"channel_type"`
	GroupID     string      `json:"group_id"`
	SenderID    string      `json:"sender_id"`
	Text        string      `json:"text"`
	Timestamp   time.Time   `json:"timestamp"`
	// Synthetic marks events produced by the bot itself (scheduled reports).
	// They are dispatched but never counted as member activity.
	Synthetic bool `json:"synthetic,omitempty"`
}

// OutboundMessage is a reply to be delivered to a group
type OutboundMessage struct {
	ChannelType   ChannelType `json:"channel_type"`
	GroupID       string      `json:"group_id"`
	Text          string      `json:"text"`
	CorrelationID string      `json:"correlation_id"`
	Timestamp     time.Time   `json:"timestamp"`
}

// NewInboundMessage creates an InboundMessage. A zero ts means now.
func NewInboundMessage(channelType ChannelType, groupID, senderID, text string, ts time.Time) InboundMessage {
	if ts.IsZero() {
		ts = time.Now()
	}
	return InboundMessage{
		ChannelType: channelType,
		GroupID:     groupID,
		SenderID:    senderID,
		Text:        text,
		Timestamp:   ts,
	}
}

// NewOutboundMessage creates an OutboundMessage with a fresh correlation ID
func NewOutboundMessage(channelType ChannelType, groupID, text string) OutboundMessage {
	return OutboundMessage{
		ChannelType:   channelType,
		GroupID:       groupID,
		Text:          text,
		CorrelationID: uuid.NewString(),
		Timestamp:     time.Now(),
	}
}
