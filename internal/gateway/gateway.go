// Package gateway defines the messaging platform boundary of the bot.
package gateway

import (
	"context"

	"github.com/aatumaykin/idlebot/internal/bus"
)

// PublishFunc hands an observed group message to the engine.
type PublishFunc func(msg bus.InboundMessage) error

// Sender delivers text to a group.
type Sender interface {
	SendMessage(ctx context.Context, groupID, text string) error
}

// Roster lists the current members of a group.
type Roster interface {
	GroupMembers(ctx context.Context, groupID string) ([]string, error)
}

// Remover removes a member from a group. A nil error means the platform
// confirmed the removal.
type Remover interface {
	RemoveMember(ctx context.Context, groupID, userID string) error
}

// Gateway is a messaging platform connection.
type Gateway interface {
	Sender
	Roster
	Remover

	// Name identifies the platform in logs.
	Name() string
	// SelfID is the bot's own user ID on the platform.
	SelfID() string
	// Start begins receiving group messages and returns once receiving is
	// running. Messages are passed to publish until ctx is done or Stop is called.
	Start(ctx context.Context, publish PublishFunc) error
	Stop() error
}
