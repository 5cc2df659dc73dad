package activity

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/aatumaykin/idlebot/internal/constants"
)

// DefaultRedisKey is the hash that holds the ledger.
const DefaultRedisKey = constants.DefaultRedisKey

// RedisBackend keeps the ledger in a single Redis hash: one field per user,
// the value is the same JSON record the file backend writes.
type RedisBackend struct {
	client redis.UniversalClient
	key    string
	owned  bool
}

// RedisOptions configures DialRedis.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Key      string
}

// DialRedis connects to Redis and pings it.
func DialRedis(ctx context.Context, opts RedisOptions) (*RedisBackend, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", opts.Addr, err)
	}

	b := NewRedisBackend(client, opts.Key)
	b.owned = true
	return b, nil
}

// NewRedisBackend wraps an existing client. An empty key uses DefaultRedisKey.
func NewRedisBackend(client redis.UniversalClient, key string) *RedisBackend {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisBackend{client: client, key: key}
}

func (b *RedisBackend) Load(ctx context.Context) (map[string]Record, error) {
	fields, err := b.client.HGetAll(ctx, b.key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", b.key, err)
	}

	records := make(map[string]Record, len(fields))
	for userID, raw := range fields {
		rec, err := unmarshalRecord(userID, []byte(raw))
		if err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", b.key, err)
		}
		records[userID] = rec
	}
	return records, nil
}

func (b *RedisBackend) Put(ctx context.Context, rec Record) error {
	data, err := marshalRecord(rec)
	if err != nil {
		return fmt.Errorf("failed to encode activity: %w", err)
	}
	if err := b.client.HSet(ctx, b.key, rec.UserID, data).Err(); err != nil {
		return fmt.Errorf("failed to store activity: %w", err)
	}
	return nil
}

func (b *RedisBackend) Delete(ctx context.Context, userID string) error {
	if err := b.client.HDel(ctx, b.key, userID).Err(); err != nil {
		return fmt.Errorf("failed to delete activity: %w", err)
	}
	return nil
}

// Close closes the client if this backend dialed it.
func (b *RedisBackend) Close() error {
	if !b.owned {
		return nil
	}
	return b.client.Close()
}
