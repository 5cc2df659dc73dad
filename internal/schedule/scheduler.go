// Package schedule runs the periodic idle report. It uses robfig/cron/v3;
// each run publishes a synthetic idle command to the inbound queue so the
// report goes through the same dispatcher as a typed command.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/aatumaykin/idlebot/internal/bus"
	"github.com/aatumaykin/idlebot/internal/constants"
	"github.com/aatumaykin/idlebot/internal/logger"
)

// SenderID is the sender of scheduled events.
const SenderID = "scheduler"

var parser = cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Publisher accepts inbound events.
type Publisher interface {
	PublishInbound(msg bus.InboundMessage) error
}

// Config of the idle report job.
type Config struct {
	// Spec is a cron expression, seconds optional, descriptors allowed.
	Spec string
	// Timezone is an IANA name, local time when empty.
	Timezone string
	GroupID  string
	Prefix   string
}

// Validate checks a cron expression.
func Validate(spec string) error {
	if _, err := parser.Parse(spec); err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", spec, err)
	}
	return nil
}

// Scheduler fires the idle report.
type Scheduler struct {
	cron      *cron.Cron
	entryID   cron.EntryID
	publisher Publisher
	logger    *logger.Logger
	cfg       Config
	now       func() time.Time

	mu      sync.Mutex
	started bool
}

// New creates a Scheduler. It does not run until Start.
func New(cfg Config, publisher Publisher, log *logger.Logger) (*Scheduler, error) {
	if cfg.GroupID == "" {
		return nil, errors.New("schedule: group id is required")
	}
	if cfg.Prefix == "" {
		cfg.Prefix = constants.DefaultCommandPrefix
	}
	if err := Validate(cfg.Spec); err != nil {
		return nil, err
	}

	loc := time.Local
	if cfg.Timezone != "" {
		l, err := time.LoadLocation(cfg.Timezone)
		if err != nil {
			return nil, fmt.Errorf("invalid timezone %q: %w", cfg.Timezone, err)
		}
		loc = l
	}

	s := &Scheduler{
		cron:      cron.New(cron.WithParser(parser), cron.WithLocation(loc)),
		publisher: publisher,
		logger:    log.With(logger.Field{Key: "component", Value: "schedule"}),
		cfg:       cfg,
		now:       time.Now,
	}

	id, err := s.cron.AddFunc(cfg.Spec, func() {
		if err := s.Fire(); err != nil {
			s.logger.Error("failed to publish scheduled idle report", err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add idle report job: %w", err)
	}
	s.entryID = id

	return s, nil
}

// Start runs the scheduler until ctx is done or Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return fmt.Errorf("scheduler already started")
	}
	s.started = true
	s.cron.Start()

	s.logger.Info("idle report scheduled",
		logger.Field{Key: "spec", Value: s.cfg.Spec},
		logger.Field{Key: "next_run", Value: s.Next()})

	go func() {
		<-ctx.Done()
		_ = s.Stop()
	}()
	return nil
}

// Stop stops the scheduler and waits for a running job.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = false
	s.mu.Unlock()

	<-s.cron.Stop().Done()
	s.logger.Info("idle report scheduler stopped")
	return nil
}

// Next returns the next run time, zero if not started.
func (s *Scheduler) Next() time.Time {
	return s.cron.Entry(s.entryID).Next
}

// Fire publishes the idle report event now.
func (s *Scheduler) Fire() error {
	msg := bus.InboundMessage{
		ChannelType: bus.ChannelTypeScheduler,
		GroupID:     s.cfg.GroupID,
		SenderID:    SenderID,
		Text:        s.cfg.Prefix + constants.CommandIdle,
		Timestamp:   s.now(),
		Synthetic:   true,
	}
	if err := s.publisher.PublishInbound(msg); err != nil {
		return fmt.Errorf("failed to publish idle report event: %w", err)
	}
	s.logger.Debug("idle report event published",
		logger.Field{Key: "group_id", Value: s.cfg.GroupID})
	return nil
}
