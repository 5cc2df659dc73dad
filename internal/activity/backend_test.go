package activity

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aatumaykin/idlebot/internal/logger"
)

func sampleRecords() map[string]Record {
	est := time.FixedZone("EST", -5*3600)
	return map[string]Record{
		"+12035550100": {
			UserID:       "+12035550100",
			LastSeen:     time.Date(2025, 1, 2, 3, 4, 5, 123456789, time.UTC),
			FirstSeen:    time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC),
			MessageCount: 42,
		},
		"+12035550101": {
			UserID:       "+12035550101",
			LastSeen:     time.Date(2025, 2, 3, 4, 5, 6, 7, est),
			MessageCount: 1,
		},
	}
}

// assertSameRecords compares two mappings by instant, ignoring location.
func assertSameRecords(t *testing.T, want, got map[string]Record) {
	t.Helper()
	require.Len(t, got, len(want))
	for id, w := range want {
		g, ok := got[id]
		require.True(t, ok, "missing %s", id)
		assert.Equal(t, w.UserID, g.UserID)
		assert.True(t, w.LastSeen.Equal(g.LastSeen), "%s last seen: want %s got %s", id, w.LastSeen, g.LastSeen)
		assert.True(t, w.FirstSeen.Equal(g.FirstSeen), "%s first seen: want %s got %s", id, w.FirstSeen, g.FirstSeen)
		assert.Equal(t, w.MessageCount, g.MessageCount)
	}
}

func roundTrip(t *testing.T, b Backend) {
	t.Helper()
	ctx := context.Background()

	want := sampleRecords()
	for _, rec := range want {
		require.NoError(t, b.Put(ctx, rec))
	}

	got, err := b.Load(ctx)
	require.NoError(t, err)
	assertSameRecords(t, want, got)

	// saving what was loaded and loading again changes nothing
	for _, rec := range got {
		require.NoError(t, b.Put(ctx, rec))
	}
	again, err := b.Load(ctx)
	require.NoError(t, err)
	assertSameRecords(t, got, again)

	require.NoError(t, b.Delete(ctx, "+12035550100"))
	require.NoError(t, b.Delete(ctx, "+19999999999"))
	after, err := b.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, after, 1)
	assert.Contains(t, after, "+12035550101")
}

func TestFileBackend_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "activity.json")
	b := NewFileBackend(path, logger.NewNop())
	roundTrip(t, b)

	// a fresh backend on the same file sees the same data
	fresh := NewFileBackend(path, logger.NewNop())
	got, err := fresh.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestFileBackend_MissingFileIsEmpty(t *testing.T) {
	b := NewFileBackend(filepath.Join(t.TempDir(), "none.json"), logger.NewNop())
	got, err := b.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFileBackend_CorruptFileMovedAside(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "activity.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	b := NewFileBackend(path, logger.NewNop())
	_, err := b.Load(context.Background())
	require.Error(t, err)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, strings.HasPrefix(entries[0].Name(), "activity.json.corrupt-"))

	// ledger still comes up empty and writable
	l := Open(context.Background(), b, logger.NewNop())
	assert.Equal(t, 0, l.Len())
	_, err = l.Record(context.Background(), "+1", time.Now())
	require.NoError(t, err)
	_, err = os.Stat(path)
	require.NoError(t, err)
}

func TestFileBackend_ReadsLegacyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "user_activity.json")
	legacy := `{
  "+12035550100": {
    "phone_number": "+12035550100",
    "last_seen": "2025-01-15T10:30:00.123456",
    "message_count": 5,
    "first_seen": "2025-01-01T08:00:00"
  },
  "+12035550101": {
    "phone_number": "+12035550101",
    "last_seen": "2025-01-16T09:00:00",
    "message_count": 1,
    "first_seen": null
  }
}`
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0644))

	got, err := ReadFile(path)
	require.NoError(t, err)
	require.Len(t, got, 2)

	want := time.Date(2025, 1, 15, 10, 30, 0, 123456000, time.Local)
	assert.True(t, got["+12035550100"].LastSeen.Equal(want))
	assert.Equal(t, 5, got["+12035550100"].MessageCount)
	assert.True(t, got["+12035550101"].FirstSeen.IsZero())
}

func TestFileBackend_WritesUTC(t *testing.T) {
	path := filepath.Join(t.TempDir(), "activity.json")
	require.NoError(t, WriteFile(path, sampleRecords()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"last_seen": "2025-01-02T03:04:05.123456789Z"`)
	assert.Contains(t, string(data), `"last_seen": "2025-02-03T09:05:06.000000007Z"`)
	assert.Contains(t, string(data), `"first_seen": null`)
}

func TestSQLiteBackend_RoundTrip(t *testing.T) {
	ctx := context.Background()
	b, err := OpenSQLite(ctx, filepath.Join(t.TempDir(), "activity.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })

	roundTrip(t, b)
}

func TestSQLiteBackend_Upsert(t *testing.T) {
	ctx := context.Background()
	b, err := OpenSQLite(ctx, filepath.Join(t.TempDir(), "activity.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })

	rec := Record{UserID: "+1", LastSeen: day0, FirstSeen: day0, MessageCount: 1}
	require.NoError(t, b.Put(ctx, rec))
	rec.LastSeen = day0.Add(time.Hour)
	rec.MessageCount = 2
	require.NoError(t, b.Put(ctx, rec))

	got, err := b.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got["+1"].LastSeen.Equal(day0.Add(time.Hour)))
	assert.Equal(t, 2, got["+1"].MessageCount)
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	server, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
		server.Close()
	})
	return server, client
}

func TestRedisBackend_RoundTrip(t *testing.T) {
	_, client := newTestRedis(t)
	roundTrip(t, NewRedisBackend(client, "test:activity"))
}

func TestRedisBackend_DefaultKey(t *testing.T) {
	server, client := newTestRedis(t)
	b := NewRedisBackend(client, "")

	require.NoError(t, b.Put(context.Background(), Record{UserID: "+1", LastSeen: day0}))
	assert.True(t, server.Exists(DefaultRedisKey))
	assert.Contains(t, server.HGet(DefaultRedisKey, "+1"), `"phone_number":"+1"`)
}

func TestRedisBackend_CorruptValue(t *testing.T) {
	server, client := newTestRedis(t)
	server.HSet(DefaultRedisKey, "+1", "garbage")

	_, err := NewRedisBackend(client, "").Load(context.Background())
	require.Error(t, err)
}

func TestDialRedis(t *testing.T) {
	server, err := miniredis.Run()
	require.NoError(t, err)
	defer server.Close()

	b, err := DialRedis(context.Background(), RedisOptions{Addr: server.Addr()})
	require.NoError(t, err)
	require.NoError(t, b.Put(context.Background(), Record{UserID: "+1", LastSeen: day0}))
	require.NoError(t, b.Close())

	_, err = DialRedis(context.Background(), RedisOptions{Addr: "127.0.0.1:1"})
	require.Error(t, err)
}

func TestRedisBackend_LedgerRecoversFailedWrite(t *testing.T) {
	ctx := context.Background()
	server, client := newTestRedis(t)

	l := Open(ctx, NewRedisBackend(client, "test:activity"), logger.NewNop())

	server.SetError("ERR backend unavailable")
	_, err := l.Record(ctx, "+B", day0)
	require.Error(t, err)

	server.SetError("")
	_, err = l.Record(ctx, "+C", day0.Add(time.Minute))
	require.NoError(t, err)

	reopened := Open(ctx, NewRedisBackend(client, "test:activity"), logger.NewNop())
	_, hasB := reopened.Get("+B")
	_, hasC := reopened.Get("+C")
	assert.True(t, hasB)
	assert.True(t, hasC)
}
