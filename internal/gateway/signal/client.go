// Package signal is a gateway to a signal-cli REST API service
// (bbernhard/signal-cli-rest-api).
package signal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aatumaykin/idlebot/internal/constants"
	"github.com/aatumaykin/idlebot/internal/gateway"
	"github.com/aatumaykin/idlebot/internal/logger"
)

const platform = "signal"

var (
	ErrNotRegistered = errors.New("number is not registered with the signal service")
	ErrGroupNotFound = errors.New("group not found")
)

// Config for the signal gateway.
type Config struct {
	// Service is host:port or a full URL of the REST service.
	Service string
	// Number is the bot account, in international format.
	Number       string
	PollInterval time.Duration
	Timeout      time.Duration
}

// Client talks to signal-cli-rest-api. It implements gateway.Gateway.
type Client struct {
	baseURL      string
	number       string
	pollInterval time.Duration
	http         *http.Client
	logger       *logger.Logger

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	done    chan struct{}
}

var _ gateway.Gateway = (*Client)(nil)

// New creates a Client.
func New(cfg Config, log *logger.Logger) *Client {
	if cfg.Service == "" {
		cfg.Service = constants.DefaultSignalService
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = constants.DefaultSignalPollInterval
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = constants.DefaultSignalTimeout
	}

	base := cfg.Service
	if !strings.Contains(base, "://") {
		base = "http://" + base
	}

	return &Client{
		baseURL:      strings.TrimRight(base, "/"),
		number:       cfg.Number,
		pollInterval: cfg.PollInterval,
		http:         &http.Client{Timeout: cfg.Timeout},
		logger:       log.With(logger.Field{Key: "gateway", Value: platform}),
	}
}

func (c *Client) Name() string   { return platform }
func (c *Client) SelfID() string { return c.number }

// Check verifies the service is reachable and knows the bot number.
func (c *Client) Check(ctx context.Context) error {
	var accounts []string
	if err := c.do(ctx, http.MethodGet, "/v1/accounts", nil, &accounts, "accounts"); err != nil {
		return err
	}
	for _, a := range accounts {
		if a == c.number {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrNotRegistered, logger.MaskID(c.number))
}

// Start checks the account and starts polling for messages.
func (c *Client) Start(ctx context.Context, publish gateway.PublishFunc) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.started {
		return errors.New("signal gateway already started")
	}
	if err := c.Check(ctx); err != nil {
		return err
	}

	pollCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.done = make(chan struct{})
	c.started = true

	go c.pollLoop(pollCtx, publish, c.done)

	c.logger.Info("signal gateway started",
		logger.Field{Key: "service", Value: c.baseURL},
		logger.Field{Key: "poll_interval", Value: c.pollInterval.String()})
	return nil
}

// Stop stops polling and waits for the loop to exit.
func (c *Client) Stop() error {
	c.mu.Lock()
	if !c.started {
		c.mu.Unlock()
		return nil
	}
	c.started = false
	cancel, done := c.cancel, c.done
	c.mu.Unlock()

	cancel()
	<-done
	c.logger.Info("signal gateway stopped")
	return nil
}

func (c *Client) pollLoop(ctx context.Context, publish gateway.PublishFunc, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		msgs, err := c.Receive(ctx)
		if err != nil && ctx.Err() == nil {
			c.logger.Warn("receive failed", logger.Field{Key: "error", Value: err})
		}
		for _, msg := range msgs {
			if err := publish(msg); err != nil {
				c.logger.Error("failed to publish inbound message", err,
					logger.Field{Key: "group_id", Value: msg.GroupID})
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// SendMessage posts text to a group.
func (c *Client) SendMessage(ctx context.Context, groupID, text string) error {
	req := sendRequest{
		Message:    text,
		Number:     c.number,
		Recipients: []string{groupID},
	}
	return c.do(ctx, http.MethodPost, "/v2/send", req, nil, "send")
}

// GroupMembers lists the members of groupID as seen by the bot account.
func (c *Client) GroupMembers(ctx context.Context, groupID string) ([]string, error) {
	var groups []groupEntry
	if err := c.do(ctx, http.MethodGet, "/v1/groups/"+url.PathEscape(c.number), nil, &groups, "groups"); err != nil {
		return nil, err
	}
	for _, g := range groups {
		if g.ID == groupID || g.InternalID == groupID {
			return g.Members, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrGroupNotFound, groupID)
}

// RemoveMember removes userID from groupID. The bot must be a group admin.
func (c *Client) RemoveMember(ctx context.Context, groupID, userID string) error {
	path := "/v1/groups/" + url.PathEscape(c.number) + "/" + url.PathEscape(groupID) + "/members"
	return c.do(ctx, http.MethodDelete, path, membersRequest{Members: []string{userID}}, nil, "remove_member")
}

// do performs one JSON request. Non-2xx answers become *gateway.APIError.
func (c *Client) do(ctx context.Context, method, path string, in, out any, op string) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode %s request: %w", op, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to build %s request: %w", op, err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("signal %s: %w", op, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("signal %s: failed to read response: %w", op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newAPIError(op, resp, data)
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("signal %s: failed to decode response: %w", op, err)
	}
	return nil
}

func newAPIError(op string, resp *http.Response, body []byte) *gateway.APIError {
	apiErr := &gateway.APIError{
		Platform: platform,
		Op:       op,
		Code:     resp.StatusCode,
	}

	var e errorResponse
	if json.Unmarshal(body, &e) == nil && e.Error != "" {
		apiErr.Description = e.Error
	} else {
		apiErr.Description = strings.TrimSpace(string(body))
	}

	if s := resp.Header.Get("Retry-After"); s != "" {
		if secs, err := strconv.Atoi(s); err == nil {
			apiErr.RetryAfter = time.Duration(secs) * time.Second
		}
	}
	return apiErr
}
