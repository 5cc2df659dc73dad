package app

import (
	"context"
	"errors"
	"time"

	"github.com/aatumaykin/idlebot/internal/bus"
	"github.com/aatumaykin/idlebot/internal/gateway"
	"github.com/aatumaykin/idlebot/internal/logger"
	"github.com/aatumaykin/idlebot/internal/retry"
)

// StartMessageProcessing starts the engine and delivery loops.
// Inbound messages are handled one at a time on a single goroutine, so the
// ledger sees events in arrival order and commands never interleave.
// Replies are delivered on a second goroutine with retries. Both loops run
// until Shutdown.
func (a *App) StartMessageProcessing(ctx context.Context) error {
	inboundCh := a.messageBus.SubscribeInbound(ctx)
	if inboundCh == nil {
		return bus.ErrNotStarted
	}
	outboundCh := a.messageBus.SubscribeOutbound(ctx)
	if outboundCh == nil {
		return bus.ErrNotStarted
	}

	loopCtx := a.ctx

	a.wg.Add(2)
	go func() {
		defer a.wg.Done()
		a.logger.Info("Message processing started")
		for {
			select {
			case <-loopCtx.Done():
				a.logger.Info("Message processing stopped")
				return
			case msg, ok := <-inboundCh:
				if !ok {
					a.logger.Info("Inbound channel closed")
					return
				}
				a.processMessage(loopCtx, msg)
			}
		}
	}()

	go func() {
		defer a.wg.Done()
		for {
			select {
			case <-loopCtx.Done():
				return
			case msg, ok := <-outboundCh:
				if !ok {
					return
				}
				a.deliver(loopCtx, msg)
			}
		}
	}()

	return nil
}

// processMessage handles one inbound event from the watched group.
func (a *App) processMessage(ctx context.Context, msg bus.InboundMessage) {
	if msg.GroupID != a.config.Bot.GroupID {
		a.logger.DebugCtx(ctx, "ignoring message from other group",
			logger.Field{Key: "group_id", Value: msg.GroupID})
		return
	}

	reply, ok := a.dispatcher.Handle(ctx, msg)
	a.metrics.SetTrackedUsers(a.ledger.Len())
	if !ok || reply == "" {
		return
	}

	out := bus.NewOutboundMessage(msg.ChannelType, msg.GroupID, reply)
	if err := a.messageBus.PublishOutbound(out); err != nil {
		a.logger.ErrorCtx(ctx, "Failed to publish outbound message", err,
			logger.Field{Key: "correlation_id", Value: out.CorrelationID})
	}
}

// deliver sends a reply, retrying transient gateway failures.
func (a *App) deliver(ctx context.Context, msg bus.OutboundMessage) {
	log := a.logger.With(logger.Field{Key: "correlation_id", Value: msg.CorrelationID})

	err := retry.Do(ctx, a.deliveryRetry, func(ctx context.Context) error {
		return a.gateway.SendMessage(ctx, msg.GroupID, msg.Text)
	}, func(attempt int, err error, wait time.Duration) {
		fields := append([]logger.Field{
			{Key: "attempt", Value: attempt},
			{Key: "wait", Value: wait.String()},
			{Key: "error", Value: err},
		}, apiErrorFields(err)...)
		log.WarnCtx(ctx, "reply delivery failed, retrying", fields...)
	})
	if err != nil {
		a.metrics.RecordDelivery("failed")
		log.ErrorCtx(ctx, "reply delivery failed", err, apiErrorFields(err)...)
		return
	}
	a.metrics.RecordDelivery("ok")
}

func apiErrorFields(err error) []logger.Field {
	var apiErr *gateway.APIError
	if errors.As(err, &apiErr) {
		return apiErr.LogFields()
	}
	return nil
}
