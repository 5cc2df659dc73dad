// Package activity keeps the per-user activity ledger: when each group member
// was last seen speaking. The Ledger is the single writer and holds the
// authoritative state in memory; every mutation is written through to a
// Backend (JSON file, SQLite or Redis).
package activity

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Record is the activity entry of a single user.
type Record struct {
	UserID       string
	LastSeen     time.Time
	FirstSeen    time.Time
	MessageCount int
}

// Backend persists ledger records.
type Backend interface {
	// Load returns every stored record keyed by user ID.
	Load(ctx context.Context) (map[string]Record, error)
	// Put inserts or overwrites a record.
	Put(ctx context.Context, rec Record) error
	// Delete removes a record. Deleting a missing record is not an error.
	Delete(ctx context.Context, userID string) error
	Close() error
}

// PersistError reports a backend write that failed after the in-memory
// ledger was already updated. It is a warning, not a failure of the operation.
type PersistError struct {
	Op     string
	UserID string
	Err    error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("activity %s for %s not persisted: %v", e.Op, e.UserID, e.Err)
}

func (e *PersistError) Unwrap() error {
	return e.Err
}

// legacyLayouts are zoneless ISO timestamps found in older activity files,
// read as local time.
var legacyLayouts = []string{
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
}

// storedRecord is the on-disk shape shared by the file and Redis backends.
// Field names are kept stable so older activity files load unchanged.
type storedRecord struct {
	PhoneNumber  string  `json:"phone_number"`
	LastSeen     string  `json:"last_seen"`
	MessageCount int     `json:"message_count"`
	FirstSeen    *string `json:"first_seen"`
}

func encodeRecord(rec Record) storedRecord {
	out := storedRecord{
		PhoneNumber:  rec.UserID,
		LastSeen:     formatTime(rec.LastSeen),
		MessageCount: rec.MessageCount,
	}
	if !rec.FirstSeen.IsZero() {
		first := formatTime(rec.FirstSeen)
		out.FirstSeen = &first
	}
	return out
}

func decodeRecord(userID string, in storedRecord) (Record, error) {
	lastSeen, err := parseTime(in.LastSeen)
	if err != nil {
		return Record{}, fmt.Errorf("user %s: last_seen: %w", userID, err)
	}

	rec := Record{
		UserID:       userID,
		LastSeen:     lastSeen,
		MessageCount: in.MessageCount,
	}
	if in.FirstSeen != nil && *in.FirstSeen != "" {
		firstSeen, err := parseTime(*in.FirstSeen)
		if err != nil {
			return Record{}, fmt.Errorf("user %s: first_seen: %w", userID, err)
		}
		rec.FirstSeen = firstSeen
	}
	return rec, nil
}

func marshalRecord(rec Record) ([]byte, error) {
	return json.Marshal(encodeRecord(rec))
}

func unmarshalRecord(userID string, data []byte) (Record, error) {
	var stored storedRecord
	if err := json.Unmarshal(data, &stored); err != nil {
		return Record{}, fmt.Errorf("user %s: %w", userID, err)
	}
	return decodeRecord(userID, stored)
}

// formatTime writes timestamps as RFC 3339 in UTC with full precision so a
// save/load cycle is lossless.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}
	for _, layout := range legacyLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}
