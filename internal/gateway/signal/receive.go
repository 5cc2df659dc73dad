package signal

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/url"
	"time"

	"github.com/aatumaykin/idlebot/internal/bus"
)

// Wire types of signal-cli-rest-api.

type sendRequest struct {
	Message    string   `json:"message"`
	Number     string   `json:"number"`
	Recipients []string `json:"recipients"`
}

type membersRequest struct {
	Members []string `json:"members"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type groupEntry struct {
	Name       string   `json:"name"`
	ID         string   `json:"id"`
	InternalID string   `json:"internal_id"`
	Members    []string `json:"members"`
	Admins     []string `json:"admins"`
}

type receivedItem struct {
	Envelope envelope `json:"envelope"`
	Account  string   `json:"account"`
}

type envelope struct {
	Source       string       `json:"source"`
	SourceNumber string       `json:"sourceNumber"`
	SourceUUID   string       `json:"sourceUuid"`
	Timestamp    int64        `json:"timestamp"`
	DataMessage  *dataMessage `json:"dataMessage"`
}

type dataMessage struct {
	Timestamp int64      `json:"timestamp"`
	Message   *string    `json:"message"`
	GroupInfo *groupInfo `json:"groupInfo"`
}

type groupInfo struct {
	GroupID string `json:"groupId"`
	Type    string `json:"type"`
}

// GroupID converts the internal group ID found in received messages to the
// ID the REST API expects.
func GroupID(internalID string) string {
	return "group." + base64.StdEncoding.EncodeToString([]byte(internalID))
}

// Receive fetches pending messages once. Only text messages sent to a group
// are returned; receipts, typing notices and direct messages are dropped.
func (c *Client) Receive(ctx context.Context) ([]bus.InboundMessage, error) {
	var items []receivedItem
	if err := c.do(ctx, http.MethodGet, "/v1/receive/"+url.PathEscape(c.number), nil, &items, "receive"); err != nil {
		return nil, err
	}

	out := make([]bus.InboundMessage, 0, len(items))
	for _, item := range items {
		msg, ok := toInbound(item.Envelope)
		if !ok {
			continue
		}
		out = append(out, msg)
	}
	return out, nil
}

func toInbound(env envelope) (bus.InboundMessage, bool) {
	dm := env.DataMessage
	if dm == nil || dm.GroupInfo == nil || dm.GroupInfo.GroupID == "" {
		return bus.InboundMessage{}, false
	}

	sender := env.SourceNumber
	if sender == "" {
		sender = env.Source
	}
	if sender == "" {
		sender = env.SourceUUID
	}
	if sender == "" {
		return bus.InboundMessage{}, false
	}

	ts := env.Timestamp
	if dm.Timestamp != 0 {
		ts = dm.Timestamp
	}

	// reactions and other non-text messages still count as activity
	text := ""
	if dm.Message != nil {
		text = *dm.Message
	}

	var when time.Time
	if ts > 0 {
		when = time.UnixMilli(ts).UTC()
	}
	return bus.NewInboundMessage(bus.ChannelTypeSignal, GroupID(dm.GroupInfo.GroupID), sender, text, when), true
}
