package bus

import (
	"context"
	"errors"
	"sync"

	"github.com/aatumaykin/idlebot/internal/logger"
)

var (
	ErrQueueFull      = errors.New("queue is full")
	ErrAlreadyStarted = errors.New("message bus is already started")
	ErrNotStarted     = errors.New("message bus is not started")
)

// MessageBus represents an asynchronous message queue for inbound and outbound messages
type MessageBus struct {
	mu      sync.RWMutex
	logger  *logger.Logger
	ctx     context.Context
	cancel  context.CancelFunc
	started bool
	wg      sync.WaitGroup

	capacity   int
	inboundCh  chan InboundMessage
	outboundCh chan OutboundMessage

	inboundSubscribers  map[int64]chan InboundMessage
	outboundSubscribers map[int64]chan OutboundMessage
	subscriberID        int64
}

// New creates a new MessageBus with the specified capacity for both queues
func New(capacity int, logger *logger.Logger) *MessageBus {
	if capacity <= 0 {
		capacity = 1
	}
	return &MessageBus{
		logger:              logger,
		capacity:            capacity,
		inboundSubscribers:  make(map[int64]chan InboundMessage),
		outboundSubscribers: make(map[int64]chan OutboundMessage),
	}
}

// Start starts the message bus goroutines
func (mb *MessageBus) Start(ctx context.Context) error {
	mb.mu.Lock()
	defer mb.mu.Unlock()

	if mb.started {
		return ErrAlreadyStarted
	}

	mb.ctx, mb.cancel = context.WithCancel(ctx)
	mb.inboundCh = make(chan InboundMessage, mb.capacity)
	mb.outboundCh = make(chan OutboundMessage, mb.capacity)
	mb.started = true

	mb.wg.Add(2)
	go mb.distributeInbound(mb.ctx, mb.inboundCh)
	go mb.distributeOutbound(mb.ctx, mb.outboundCh)

	mb.logger.Info("message bus started", logger.Field{Key: "capacity", Value: mb.capacity})
	return nil
}

// Stop stops distribution and closes every subscriber channel.
// Messages still queued are dropped.
func (mb *MessageBus) Stop() error {
	mb.mu.Lock()
	if !mb.started {
		mb.mu.Unlock()
		return ErrNotStarted
	}
	mb.logger.Info("stopping message bus")
	mb.cancel()
	mb.started = false
	mb.mu.Unlock()

	// distributors hold the read lock while forwarding
	mb.wg.Wait()

	mb.mu.Lock()
	defer mb.mu.Unlock()
	for id, ch := range mb.inboundSubscribers {
		close(ch)
		delete(mb.inboundSubscribers, id)
	}
	for id, ch := range mb.outboundSubscribers {
		close(ch)
		delete(mb.outboundSubscribers, id)
	}

	mb.logger.Info("message bus stopped")
	return nil
}

// PublishInbound publishes an inbound message to the queue
func (mb *MessageBus) PublishInbound(msg InboundMessage) error {
	mb.mu.RLock()
	defer mb.mu.RUnlock()

	if !mb.started {
		return ErrNotStarted
	}

	select {
	case mb.inboundCh <- msg:
		mb.logger.DebugCtx(mb.ctx, "inbound message published",
			logger.Field{Key: "group_id", Value: msg.GroupID},
			mb.logger.User(msg.SenderID))
		return nil
	default:
		mb.logger.WarnCtx(mb.ctx, "inbound queue full",
			logger.Field{Key: "capacity", Value: mb.capacity})
		return ErrQueueFull
	}
}

// PublishOutbound publishes an outbound message to the queue
func (mb *MessageBus) PublishOutbound(msg OutboundMessage) error {
	mb.mu.RLock()
	defer mb.mu.RUnlock()

	if !mb.started {
		return ErrNotStarted
	}

	select {
	case mb.outboundCh <- msg:
		mb.logger.DebugCtx(mb.ctx, "outbound message published",
			logger.Field{Key: "group_id", Value: msg.GroupID},
			logger.Field{Key: "correlation_id", Value: msg.CorrelationID})
		return nil
	default:
		mb.logger.WarnCtx(mb.ctx, "outbound queue full",
			logger.Field{Key: "capacity", Value: mb.capacity})
		return ErrQueueFull
	}
}

// SubscribeInbound subscribes to inbound messages. Returns nil if the bus
// is not started. The channel is closed by Stop.
func (mb *MessageBus) SubscribeInbound(ctx context.Context) <-chan InboundMessage {
	mb.mu.Lock()
	defer mb.mu.Unlock()

	if !mb.started {
		return nil
	}

	ch := make(chan InboundMessage, mb.capacity)
	mb.subscriberID++
	id := mb.subscriberID
	mb.inboundSubscribers[id] = ch

	mb.logger.DebugCtx(ctx, "inbound subscriber added",
		logger.Field{Key: "subscriber_id", Value: id})

	return ch
}

// SubscribeOutbound subscribes to outbound messages
func (mb *MessageBus) SubscribeOutbound(ctx context.Context) <-chan OutboundMessage {
	mb.mu.Lock()
	defer mb.mu.Unlock()

	if !mb.started {
		return nil
	}

	ch := make(chan OutboundMessage, mb.capacity)
	mb.subscriberID++
	id := mb.subscriberID
	mb.outboundSubscribers[id] = ch

	mb.logger.DebugCtx(ctx, "outbound subscriber added",
		logger.Field{Key: "subscriber_id", Value: id})

	return ch
}

func (mb *MessageBus) distributeInbound(ctx context.Context, in <-chan InboundMessage) {
	defer mb.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-in:
			mb.mu.RLock()
			for _, ch := range mb.inboundSubscribers {
				select {
				case ch <- msg:
				default:
					mb.logger.WarnCtx(ctx, "inbound subscriber channel full, skipping message")
				}
			}
			mb.mu.RUnlock()
		}
	}
}

func (mb *MessageBus) distributeOutbound(ctx context.Context, in <-chan OutboundMessage) {
	defer mb.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-in:
			mb.mu.RLock()
			for _, ch := range mb.outboundSubscribers {
				select {
				case ch <- msg:
				default:
					mb.logger.WarnCtx(ctx, "outbound subscriber channel full, skipping message")
				}
			}
			mb.mu.RUnlock()
		}
	}
}

// IsStarted returns true if the message bus is started
func (mb *MessageBus) IsStarted() bool {
	mb.mu.RLock()
	defer mb.mu.RUnlock()
	return mb.started
}
