package dispatch

import (
	"context"
	"sync"
	"time"

	"github.com/aatumaykin/idlebot/internal/activity"
	"github.com/aatumaykin/idlebot/internal/idle"
	"github.com/aatumaykin/idlebot/internal/moderation"
)

// mockLedger is an in-memory Ledger.
type mockLedger struct {
	mu         sync.Mutex
	lastSeen   map[string]time.Time
	recorded   []string
	persistErr error
	panicOnMap bool
}

func newMockLedger(seen map[string]time.Time) *mockLedger {
	if seen == nil {
		seen = make(map[string]time.Time)
	}
	return &mockLedger{lastSeen: seen}
}

func (m *mockLedger) Record(ctx context.Context, userID string, ts time.Time) (activity.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recorded = append(m.recorded, userID)
	if ts.After(m.lastSeen[userID]) {
		m.lastSeen[userID] = ts
	}
	rec := activity.Record{UserID: userID, LastSeen: m.lastSeen[userID]}
	if m.persistErr != nil {
		return rec, &activity.PersistError{Op: "record", UserID: userID, Err: m.persistErr}
	}
	return rec, nil
}

func (m *mockLedger) LastSeenMap() map[string]time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.panicOnMap {
		panic("ledger exploded")
	}
	out := make(map[string]time.Time, len(m.lastSeen))
	for k, v := range m.lastSeen {
		out[k] = v
	}
	return out
}

func (m *mockLedger) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.lastSeen)
}

func (m *mockLedger) Recorded() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.recorded...)
}

// mockRoster returns a fixed member list.
type mockRoster struct {
	mu      sync.Mutex
	members []string
	err     error
	calls   int
}

func (m *mockRoster) GroupMembers(ctx context.Context, groupID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return append([]string(nil), m.members...), nil
}

// mockExecutor records Execute calls and simulates every candidate.
type mockExecutor struct {
	mu         sync.Mutex
	calls      int
	lastDryRun bool
	lastIDs    []string
}

func (m *mockExecutor) Execute(ctx context.Context, groupID string, candidates []idle.Candidate, dryRun bool) moderation.Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.lastDryRun = dryRun
	m.lastIDs = idle.UserIDs(candidates)

	res := moderation.Result{DryRun: dryRun}
	status := moderation.StatusRemoved
	if dryRun {
		status = moderation.StatusSimulated
	}
	for _, c := range candidates {
		res.Outcomes = append(res.Outcomes, moderation.Outcome{Candidate: c, Status: status})
	}
	return res
}

func (m *mockExecutor) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
