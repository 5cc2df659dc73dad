// Package moderation turns idle candidates into removals, or into a report of
// what would be removed when dry-run is on.
package moderation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"

	"github.com/aatumaykin/idlebot/internal/constants"
	"github.com/aatumaykin/idlebot/internal/gateway"
	"github.com/aatumaykin/idlebot/internal/idle"
	"github.com/aatumaykin/idlebot/internal/logger"
	"github.com/aatumaykin/idlebot/internal/metrics"
)

const (
	DefaultRemovalTimeout = constants.DefaultRemovalTimeout
	summaryListLimit      = 5
)

// Status is the outcome of one candidate.
type Status string

const (
	StatusRemoved   Status = "removed"
	StatusSimulated Status = "simulated"
	StatusFailed    Status = "failed"
)

// Failure reasons that are not gateway messages.
const (
	ReasonTimeout   = "timeout"
	ReasonCancelled = "cancelled"
)

// Store is the part of the activity ledger the executor may touch.
type Store interface {
	Remove(ctx context.Context, userID string) error
}

// Outcome is what happened to one candidate.
type Outcome struct {
	Candidate idle.Candidate
	Status    Status
	// Reason explains a failure.
	Reason string
	// StoreErr is set when the gateway removed the user but deleting the
	// activity record failed. The status stays removed.
	StoreErr error
}

// Result of one execution.
type Result struct {
	RunID    string
	DryRun   bool
	Outcomes []Outcome
	Duration time.Duration
}

// Count returns the number of outcomes with status s.
func (r Result) Count(s Status) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == s {
			n++
		}
	}
	return n
}

// Summary renders the result for the chat.
func (r Result) Summary() string {
	if len(r.Outcomes) == 0 {
		return "✅ No idle users to remove."
	}

	var sb strings.Builder
	if r.DryRun {
		fmt.Fprintf(&sb, "🔍 DRY RUN: Would remove %d idle users:\n\n", len(r.Outcomes))
		for i, o := range r.Outcomes {
			if i == summaryListLimit {
				fmt.Fprintf(&sb, "... and %d more\n", len(r.Outcomes)-summaryListLimit)
				break
			}
			fmt.Fprintf(&sb, "• %s\n", Describe(o.Candidate))
		}
		sb.WriteString("\nTo actually remove users, run `!config dry_run false`")
		return sb.String()
	}

	removed, failed := r.Count(StatusRemoved), r.Count(StatusFailed)
	fmt.Fprintf(&sb, "🧹 Removal finished: %d removed, %d failed\n", removed, failed)

	if removed > 0 {
		sb.WriteString("\nRemoved:\n")
		for _, o := range r.Outcomes {
			if o.Status == StatusRemoved {
				fmt.Fprintf(&sb, "• %s\n", Describe(o.Candidate))
			}
		}
	}
	if failed > 0 {
		sb.WriteString("\nFailed:\n")
		for _, o := range r.Outcomes {
			if o.Status == StatusFailed {
				fmt.Fprintf(&sb, "• %s: %s\n", o.Candidate.UserID, o.Reason)
			}
		}
	}

	var storeWarnings int
	for _, o := range r.Outcomes {
		if o.StoreErr != nil {
			storeWarnings++
		}
	}
	if storeWarnings > 0 {
		fmt.Fprintf(&sb, "\n⚠️ %d activity records could not be deleted from storage\n", storeWarnings)
	}

	return strings.TrimRight(sb.String(), "\n")
}

// Options configures an Executor.
type Options struct {
	// Timeout bounds each gateway removal call (default DefaultRemovalTimeout).
	Timeout time.Duration
	// Concurrency is the number of candidates processed at once (default 1).
	Concurrency int
	Metrics     *metrics.PrometheusMetrics
}

// Executor removes idle members through the gateway.
type Executor struct {
	remover     gateway.Remover
	store       Store
	logger      *logger.Logger
	metrics     *metrics.PrometheusMetrics
	timeout     time.Duration
	concurrency int
}

// NewExecutor creates an Executor.
func NewExecutor(remover gateway.Remover, store Store, log *logger.Logger, opts Options) *Executor {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultRemovalTimeout
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	return &Executor{
		remover:     remover,
		store:       store,
		logger:      log,
		metrics:     opts.Metrics,
		timeout:     opts.Timeout,
		concurrency: opts.Concurrency,
	}
}

// Execute processes every candidate independently, in input order for the
// result. With dryRun set nothing outside the executor is touched. Otherwise
// each candidate is removed through the gateway and, only once the gateway
// confirms, its activity record is deleted. A candidate listed twice is
// processed once.
func (e *Executor) Execute(ctx context.Context, groupID string, candidates []idle.Candidate, dryRun bool) Result {
	start := time.Now()
	runID := uuid.NewString()
	log := e.logger.With(logger.Field{Key: "run_id", Value: runID})

	unique := dedupe(candidates)
	result := Result{
		RunID:    runID,
		DryRun:   dryRun,
		Outcomes: make([]Outcome, len(unique)),
	}

	log.InfoCtx(ctx, "removal run started",
		logger.Field{Key: "group_id", Value: groupID},
		logger.Field{Key: "candidates", Value: len(unique)},
		logger.Field{Key: "dry_run", Value: dryRun})

	if dryRun {
		for i, c := range unique {
			result.Outcomes[i] = Outcome{Candidate: c, Status: StatusSimulated}
			e.metrics.RecordRemoval(string(StatusSimulated))
		}
	} else {
		p := pool.New().WithMaxGoroutines(e.concurrency)
		for i, c := range unique {
			p.Go(func() {
				// each index is written by exactly one goroutine
				result.Outcomes[i] = e.removeOne(ctx, log, groupID, c)
			})
		}
		p.Wait()
	}

	result.Duration = time.Since(start)
	e.metrics.ObserveRemovalRun(result.Duration)

	log.InfoCtx(ctx, "removal run finished",
		logger.Field{Key: "removed", Value: result.Count(StatusRemoved)},
		logger.Field{Key: "simulated", Value: result.Count(StatusSimulated)},
		logger.Field{Key: "failed", Value: result.Count(StatusFailed)},
		logger.Field{Key: "duration", Value: result.Duration.String()})

	return result
}

func (e *Executor) removeOne(ctx context.Context, log *logger.Logger, groupID string, c idle.Candidate) Outcome {
	out := Outcome{Candidate: c}

	if err := ctx.Err(); err != nil {
		out.Status, out.Reason = StatusFailed, ReasonCancelled
		e.metrics.RecordRemoval(string(StatusFailed))
		return out
	}

	if err := e.callRemove(ctx, groupID, c.UserID); err != nil {
		out.Status, out.Reason = StatusFailed, failureReason(ctx, err)
		log.ErrorCtx(ctx, "member removal failed", err,
			log.User(c.UserID),
			logger.Field{Key: "reason", Value: out.Reason})
		e.metrics.RecordRemoval(string(StatusFailed))
		return out
	}

	out.Status = StatusRemoved
	e.metrics.RecordRemoval(string(StatusRemoved))
	log.InfoCtx(ctx, "member removed", log.User(c.UserID))

	if err := e.store.Remove(ctx, c.UserID); err != nil {
		out.StoreErr = err
		e.metrics.IncPersistFailures()
	}
	return out
}

// callRemove bounds the gateway call by the per-candidate timeout even when
// the gateway ignores its context.
func (e *Executor) callRemove(ctx context.Context, groupID, userID string) error {
	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- e.remover.RemoveMember(callCtx, groupID, userID)
	}()

	select {
	case err := <-done:
		return err
	case <-callCtx.Done():
		return callCtx.Err()
	}
}

func failureReason(ctx context.Context, err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return ReasonTimeout
	case errors.Is(err, context.Canceled) || ctx.Err() != nil:
		return ReasonCancelled
	default:
		return err.Error()
	}
}

func dedupe(candidates []idle.Candidate) []idle.Candidate {
	seen := make(map[string]struct{}, len(candidates))
	out := make([]idle.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if _, ok := seen[c.UserID]; ok {
			continue
		}
		seen[c.UserID] = struct{}{}
		out = append(out, c)
	}
	return out
}
