package activity

import (
	"context"
	"errors"
	"maps"
	"sync"
	"time"

	"github.com/aatumaykin/idlebot/internal/logger"
)

// Ledger is the in-memory activity map with write-through persistence.
// All mutations are serialized; the read-modify-write upsert in Record is a
// critical section so concurrent out-of-order events never lose an update.
//
// IDs whose write failed stay pending and are written again, from the
// in-memory state, on every later mutation until the backend accepts them.
type Ledger struct {
	mu      sync.Mutex
	records map[string]Record
	pending map[string]struct{}
	backend Backend
	logger  *logger.Logger
}

// Open loads the ledger from backend. A missing or unreadable history is
// not fatal: the failure is logged and the ledger starts empty.
func Open(ctx context.Context, backend Backend, log *logger.Logger) *Ledger {
	l := &Ledger{
		records: make(map[string]Record),
		pending: make(map[string]struct{}),
		backend: backend,
		logger:  log,
	}

	loaded, err := backend.Load(ctx)
	if err != nil {
		log.WarnCtx(ctx, "failed to load activity history, starting empty",
			logger.Field{Key: "error", Value: err})
		return l
	}

	l.records = loaded
	if l.records == nil {
		l.records = make(map[string]Record)
	}

	log.InfoCtx(ctx, "activity history loaded",
		logger.Field{Key: "users", Value: len(l.records)})

	return l
}

// Record notes that userID was active at ts. LastSeen only moves forward so
// late or out-of-order events cannot rewind it. A non-nil error is always a
// *PersistError: the in-memory update has already happened.
func (l *Ledger) Record(ctx context.Context, userID string, ts time.Time) (Record, error) {
	ts = ts.UTC()

	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.records[userID]
	if !ok {
		rec = Record{UserID: userID, LastSeen: ts, FirstSeen: ts}
	} else {
		if ts.After(rec.LastSeen) {
			rec.LastSeen = ts
		}
		if rec.FirstSeen.IsZero() || ts.Before(rec.FirstSeen) {
			rec.FirstSeen = ts
		}
	}
	rec.MessageCount++
	l.records[userID] = rec

	if err := l.persistLocked(ctx, userID); err != nil {
		l.logger.ErrorCtx(ctx, "failed to persist activity", err, l.logger.User(userID))
		return rec, &PersistError{Op: "record", UserID: userID, Err: err}
	}

	return rec, nil
}

// Merge folds an externally sourced record into the ledger: the later
// LastSeen, the earlier FirstSeen and the larger MessageCount win.
func (l *Ledger) Merge(ctx context.Context, in Record) error {
	in.LastSeen = in.LastSeen.UTC()
	in.FirstSeen = in.FirstSeen.UTC()

	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.records[in.UserID]
	if !ok {
		rec = in
	} else {
		if in.LastSeen.After(rec.LastSeen) {
			rec.LastSeen = in.LastSeen
		}
		if !in.FirstSeen.IsZero() && (rec.FirstSeen.IsZero() || in.FirstSeen.Before(rec.FirstSeen)) {
			rec.FirstSeen = in.FirstSeen
		}
		rec.MessageCount = max(rec.MessageCount, in.MessageCount)
	}
	l.records[in.UserID] = rec

	if err := l.persistLocked(ctx, in.UserID); err != nil {
		return &PersistError{Op: "merge", UserID: in.UserID, Err: err}
	}
	return nil
}

// Remove deletes the record of userID, if any.
func (l *Ledger) Remove(ctx context.Context, userID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.records[userID]; !ok {
		return nil
	}
	delete(l.records, userID)

	if err := l.persistLocked(ctx, userID); err != nil {
		l.logger.ErrorCtx(ctx, "failed to persist activity removal", err, l.logger.User(userID))
		return &PersistError{Op: "remove", UserID: userID, Err: err}
	}
	return nil
}

// Flush writes every pending ID to the backend.
func (l *Ledger) Flush(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var errs []error
	for id := range l.pending {
		if err := l.writeLocked(ctx, id); err != nil {
			errs = append(errs, &PersistError{Op: "flush", UserID: id, Err: err})
		}
	}
	return errors.Join(errs...)
}

// Pending returns the number of IDs not yet accepted by the backend.
func (l *Ledger) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.pending)
}

// persistLocked marks userID pending and writes all pending IDs. It returns
// the error for userID only; other IDs that still fail stay pending.
func (l *Ledger) persistLocked(ctx context.Context, userID string) error {
	l.pending[userID] = struct{}{}

	var target error
	for id := range l.pending {
		err := l.writeLocked(ctx, id)
		switch {
		case id == userID:
			target = err
		case err != nil:
			l.logger.WarnCtx(ctx, "pending activity still not persisted",
				l.logger.User(id), logger.Field{Key: "error", Value: err})
		}
	}
	return target
}

// writeLocked stores the current state of id: a Put if the record exists,
// a Delete otherwise. On success id is no longer pending.
func (l *Ledger) writeLocked(ctx context.Context, id string) error {
	var err error
	if rec, ok := l.records[id]; ok {
		err = l.backend.Put(ctx, rec)
	} else {
		err = l.backend.Delete(ctx, id)
	}
	if err != nil {
		return err
	}
	delete(l.pending, id)
	return nil
}

// LastSeen returns the last activity time of userID.
func (l *Ledger) LastSeen(userID string) (time.Time, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.records[userID]
	return rec.LastSeen, ok
}

// Get returns the full record of userID.
func (l *Ledger) Get(userID string) (Record, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.records[userID]
	return rec, ok
}

// Snapshot returns a copy of all records.
func (l *Ledger) Snapshot() map[string]Record {
	l.mu.Lock()
	defer l.mu.Unlock()
	return maps.Clone(l.records)
}

// LastSeenMap returns user ID -> last seen, the shape the idle evaluator reads.
func (l *Ledger) LastSeenMap() map[string]time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make(map[string]time.Time, len(l.records))
	for id, rec := range l.records {
		out[id] = rec.LastSeen
	}
	return out
}

// Len returns the number of tracked users.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}

// Close writes pending IDs one last time and closes the backend.
func (l *Ledger) Close() error {
	flushErr := l.Flush(context.Background())
	if flushErr != nil {
		l.logger.Error("activity lost on close", flushErr,
			logger.Field{Key: "pending", Value: l.Pending()})
	}
	return errors.Join(flushErr, l.backend.Close())
}
