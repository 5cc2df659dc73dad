package activity

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	"github.com/aatumaykin/idlebot/internal/constants"
)

// DefaultSQLitePath is the database file used by the sqlite driver.
const DefaultSQLitePath = constants.DefaultActivityDB

type activityRow struct {
	bun.BaseModel `bun:"table:user_activity"`

	UserID       string `bun:"user_id,pk"`
	LastSeenNs   int64  `bun:"last_seen_ns,notnull"`
	FirstSeenNs  int64  `bun:"first_seen_ns,notnull,default:0"`
	MessageCount int    `bun:"message_count,notnull,default:0"`
}

// SQLiteBackend keeps one row per user in a SQLite table. Timestamps are
// stored as Unix nanoseconds to keep the round trip exact.
type SQLiteBackend struct {
	db    *bun.DB
	owned bool
}

// OpenSQLite opens (creating if needed) the database at path.
func OpenSQLite(ctx context.Context, path string) (*SQLiteBackend, error) {
	sqldb, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database %s: %w", path, err)
	}
	sqldb.SetMaxOpenConns(1)

	b, err := NewSQLiteBackend(ctx, bun.NewDB(sqldb, sqlitedialect.New()))
	if err != nil {
		sqldb.Close()
		return nil, err
	}
	b.owned = true
	return b, nil
}

// NewSQLiteBackend uses an existing bun handle and ensures the table exists.
func NewSQLiteBackend(ctx context.Context, db *bun.DB) (*SQLiteBackend, error) {
	_, err := db.NewCreateTable().
		Model((*activityRow)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create user_activity table: %w", err)
	}
	return &SQLiteBackend{db: db}, nil
}

func (b *SQLiteBackend) Load(ctx context.Context) (map[string]Record, error) {
	var rows []activityRow
	if err := b.db.NewSelect().Model(&rows).Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to load user_activity: %w", err)
	}

	records := make(map[string]Record, len(rows))
	for _, row := range rows {
		records[row.UserID] = row.record()
	}
	return records, nil
}

func (b *SQLiteBackend) Put(ctx context.Context, rec Record) error {
	row := newActivityRow(rec)
	_, err := b.db.NewInsert().
		Model(&row).
		On("CONFLICT (user_id) DO UPDATE").
		Set("last_seen_ns = EXCLUDED.last_seen_ns").
		Set("first_seen_ns = EXCLUDED.first_seen_ns").
		Set("message_count = EXCLUDED.message_count").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to upsert activity: %w", err)
	}
	return nil
}

func (b *SQLiteBackend) Delete(ctx context.Context, userID string) error {
	_, err := b.db.NewDelete().
		Model((*activityRow)(nil)).
		Where("user_id = ?", userID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete activity: %w", err)
	}
	return nil
}

// Close closes the database if this backend opened it.
func (b *SQLiteBackend) Close() error {
	if !b.owned {
		return nil
	}
	return b.db.Close()
}

func newActivityRow(rec Record) activityRow {
	row := activityRow{
		UserID:       rec.UserID,
		LastSeenNs:   rec.LastSeen.UnixNano(),
		MessageCount: rec.MessageCount,
	}
	if !rec.FirstSeen.IsZero() {
		row.FirstSeenNs = rec.FirstSeen.UnixNano()
	}
	return row
}

func (r activityRow) record() Record {
	rec := Record{
		UserID:       r.UserID,
		LastSeen:     time.Unix(0, r.LastSeenNs).UTC(),
		MessageCount: r.MessageCount,
	}
	if r.FirstSeenNs != 0 {
		rec.FirstSeen = time.Unix(0, r.FirstSeenNs).UTC()
	}
	return rec
}
