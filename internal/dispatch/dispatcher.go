// Package dispatch turns inbound chat events into engine operations: it
// records activity, parses and authorizes commands, runs them and renders the
// reply.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aatumaykin/idlebot/internal/activity"
	"github.com/aatumaykin/idlebot/internal/auth"
	"github.com/aatumaykin/idlebot/internal/bus"
	"github.com/aatumaykin/idlebot/internal/commands"
	"github.com/aatumaykin/idlebot/internal/constants"
	"github.com/aatumaykin/idlebot/internal/gateway"
	"github.com/aatumaykin/idlebot/internal/idle"
	"github.com/aatumaykin/idlebot/internal/logger"
	"github.com/aatumaykin/idlebot/internal/metrics"
	"github.com/aatumaykin/idlebot/internal/moderation"
	"github.com/aatumaykin/idlebot/internal/policy"
)

// Command results for metrics.
const (
	resultOK       = "ok"
	resultDenied   = "denied"
	resultRejected = "rejected"
	resultError    = "error"
	resultPanic    = "panic"
)

// Ledger is the part of the activity ledger the dispatcher uses.
type Ledger interface {
	Record(ctx context.Context, userID string, ts time.Time) (activity.Record, error)
	LastSeenMap() map[string]time.Time
	Len() int
}

// Executor runs removals.
type Executor interface {
	Execute(ctx context.Context, groupID string, candidates []idle.Candidate, dryRun bool) moderation.Result
}

// Options configures a Dispatcher.
type Options struct {
	// Prefix marks commands, "!" when empty.
	Prefix string
	// PreviewLimit caps the idle list in replies.
	PreviewLimit int
	// SelfID is the bot's own identifier. It is never reported idle.
	SelfID  string
	Metrics *metrics.PrometheusMetrics
	// Now returns the current time, time.Now when nil.
	Now func() time.Time
}

// Dispatcher handles one inbound event at a time.
type Dispatcher struct {
	ledger   Ledger
	roster   gateway.Roster
	executor Executor
	settings *policy.Holder
	logger   *logger.Logger
	metrics  *metrics.PrometheusMetrics
	prefix   string
	limit    int
	selfID   string
	now      func() time.Time
}

// New creates a Dispatcher.
func New(
	ledger Ledger,
	roster gateway.Roster,
	executor Executor,
	settings *policy.Holder,
	log *logger.Logger,
	opts Options,
) *Dispatcher {
	if opts.Prefix == "" {
		opts.Prefix = constants.DefaultCommandPrefix
	}
	if opts.PreviewLimit <= 0 {
		opts.PreviewLimit = moderation.DefaultPreviewLimit
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Dispatcher{
		ledger:   ledger,
		roster:   roster,
		executor: executor,
		settings: settings,
		logger:   log,
		metrics:  opts.Metrics,
		prefix:   opts.Prefix,
		limit:    opts.PreviewLimit,
		selfID:   opts.SelfID,
		now:      opts.Now,
	}
}

// Handle processes msg. Activity is recorded for every real message, command
// or not. ok is false when msg is ordinary chat and needs no reply.
// Handle never panics: an unexpected failure becomes a generic error reply.
func (d *Dispatcher) Handle(ctx context.Context, msg bus.InboundMessage) (reply string, ok bool) {
	name := "none"
	defer func() {
		if r := recover(); r != nil {
			d.logger.ErrorCtx(ctx, "command handler panicked", fmt.Errorf("panic: %v", r),
				logger.Field{Key: "command", Value: name},
				logger.Field{Key: "group_id", Value: msg.GroupID})
			d.metrics.RecordCommand(name, resultPanic)
			reply, ok = constants.MsgInternalError, true
		}
	}()

	warning := d.recordActivity(ctx, msg)

	cmd, isCommand := commands.Parse(msg.Text, d.prefix)
	if !isCommand {
		return "", false
	}
	name = cmd.Name()

	settings := d.settings.Get()
	if decision := auth.Authorize(cmd, msg.SenderID, settings); !decision.Allowed {
		d.logger.WarnCtx(ctx, "command denied",
			logger.Field{Key: "command", Value: name},
			logger.Field{Key: "reason", Value: decision.Reason},
			d.logger.User(msg.SenderID))
		d.metrics.RecordCommand(name, resultDenied)
		return constants.MsgNotAdmin + warning, true
	}

	d.logger.InfoCtx(ctx, "command received",
		logger.Field{Key: "command", Value: name},
		logger.Field{Key: "group_id", Value: msg.GroupID},
		logger.Field{Key: "synthetic", Value: msg.Synthetic},
		d.logger.User(msg.SenderID))

	text, result := d.run(ctx, msg, cmd, settings)
	d.metrics.RecordCommand(name, result)
	return text + warning, true
}

// recordActivity notes the sender and returns a warning line for the reply
// when the ledger could not be saved.
func (d *Dispatcher) recordActivity(ctx context.Context, msg bus.InboundMessage) string {
	if msg.Synthetic || msg.SenderID == "" {
		return ""
	}

	d.metrics.IncMessages()
	_, err := d.ledger.Record(ctx, msg.SenderID, msg.Timestamp)
	d.metrics.SetTrackedUsers(d.ledger.Len())
	if err == nil {
		return ""
	}

	d.metrics.IncPersistFailures()
	var perr *activity.PersistError
	if errors.As(err, &perr) {
		return fmt.Sprintf(constants.MsgPersistWarning, perr.Err)
	}
	return fmt.Sprintf(constants.MsgPersistWarning, err)
}

func (d *Dispatcher) run(ctx context.Context, msg bus.InboundMessage, cmd commands.Command, settings policy.Settings) (string, string) {
	switch c := cmd.(type) {
	case commands.Help:
		return commands.HelpText(d.prefix, auth.IsAdmin(msg.SenderID, settings.AdminIDs)), resultOK

	case commands.Stats:
		return d.stats(settings), resultOK

	case commands.Idle:
		candidates, err := d.candidates(ctx, msg.GroupID, settings)
		if err != nil {
			return fmt.Sprintf(constants.MsgMembersError, err), resultError
		}
		return moderation.Preview(candidates, settings.IdleThresholdDays, d.limit, settings.DryRun), resultOK

	case commands.RemoveIdle:
		candidates, err := d.candidates(ctx, msg.GroupID, settings)
		if err != nil {
			return fmt.Sprintf(constants.MsgMembersError, err), resultError
		}
		res := d.executor.Execute(ctx, msg.GroupID, candidates, settings.DryRun)
		return res.Summary(), resultOK

	case commands.ConfigShow:
		return formatConfig(settings, d.prefix), resultOK

	case commands.ConfigSetThreshold:
		if err := d.settings.SetThreshold(c.Days); err != nil {
			d.logger.WarnCtx(ctx, "threshold change rejected",
				logger.Field{Key: "days", Value: c.Days},
				logger.Field{Key: "error", Value: err})
			return fmt.Sprintf(constants.MsgThresholdInvalid, c.Days), resultRejected
		}
		d.logger.InfoCtx(ctx, "idle threshold changed",
			logger.Field{Key: "from", Value: settings.IdleThresholdDays},
			logger.Field{Key: "to", Value: c.Days},
			d.logger.User(msg.SenderID))
		return fmt.Sprintf(constants.MsgThresholdSet, c.Days), resultOK

	case commands.ConfigSetDryRun:
		d.settings.SetDryRun(c.Value)
		d.logger.InfoCtx(ctx, "dry run changed",
			logger.Field{Key: "from", Value: settings.DryRun},
			logger.Field{Key: "to", Value: c.Value},
			d.logger.User(msg.SenderID))
		if c.Value {
			return constants.MsgDryRunEnabled, resultOK
		}
		return constants.MsgDryRunDisabled, resultOK

	case commands.Invalid:
		return fmt.Sprintf(constants.MsgInvalidUsage, c.Problem, c.Usage), resultRejected

	case commands.Unknown:
		return fmt.Sprintf(constants.MsgUnknownCommand, d.prefix, c.Word, d.prefix), resultRejected

	default:
		panic(fmt.Sprintf("unhandled command %T", cmd))
	}
}

// candidates fetches the roster and evaluates it against the ledger.
func (d *Dispatcher) candidates(ctx context.Context, groupID string, settings policy.Settings) ([]idle.Candidate, error) {
	members, err := d.roster.GroupMembers(ctx, groupID)
	if err != nil {
		d.logger.ErrorCtx(ctx, "failed to fetch group members", err,
			logger.Field{Key: "group_id", Value: groupID})
		return nil, err
	}

	protected := settings.ProtectedSet()
	if d.selfID != "" {
		protected[d.selfID] = struct{}{}
	}

	candidates := idle.Compute(d.ledger.LastSeenMap(), d.now(), settings.IdleThresholdDays, protected, members)
	d.metrics.SetIdleUsers(len(candidates))
	return candidates, nil
}

func (d *Dispatcher) stats(settings policy.Settings) string {
	lastSeen := d.ledger.LastSeenMap()
	if len(lastSeen) == 0 {
		return constants.MsgNoActivity
	}
	return formatStats(idle.Summarize(lastSeen, d.now(), settings.IdleThresholdDays), settings)
}
