// Package store keeps captured exchanges in redis so other processes can list and inspect them.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pb33f/mataki/capture"
	"github.com/redis/go-redis/v9"
)

const (
	DefaultKeyPrefix = "mataki"
	DefaultTTL       = 24 * time.Hour
)

var ErrNotFound = errors.New("exchange not found")

var _ capture.ExchangeSink = (*RedisSink)(nil)

// Options configures the redis connection and retention
type Options struct {
	Addr     string
	Password string
	DB       int

	// KeyPrefix namespaces every key, DefaultKeyPrefix when empty
	KeyPrefix string

	// TTL bounds how long an exchange is kept, DefaultTTL when zero
	TTL time.Duration

	// MaxEntries trims the timeline to the newest entries, unbounded when zero
	MaxEntries int64
}

// RedisSink stores each exchange as a JSON envelope under <prefix>:exchange:<id>
// and indexes it in the sorted set <prefix>:timeline scored by start time.
type RedisSink struct {
	rdb        *redis.Client
	prefix     string
	ttl        time.Duration
	maxEntries int64
}

// NewRedisSink connects to redis and verifies the connection with a ping
func NewRedisSink(ctx context.Context, opts Options) (*RedisSink, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", opts.Addr, err)
	}
	return NewRedisSinkWithClient(rdb, opts), nil
}

// NewRedisSinkWithClient wraps an existing client, the connection fields of opts are ignored
func NewRedisSinkWithClient(rdb *redis.Client, opts Options) *RedisSink {
	if opts.KeyPrefix == "" {
		opts.KeyPrefix = DefaultKeyPrefix
	}
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	return &RedisSink{
		rdb:        rdb,
		prefix:     opts.KeyPrefix,
		ttl:        opts.TTL,
		maxEntries: opts.MaxEntries,
	}
}

func (s *RedisSink) exchangeKey(id string) string {
	return s.prefix + ":exchange:" + id
}

func (s *RedisSink) timelineKey() string {
	return s.prefix + ":timeline"
}

// Record stores exchange and adds it to the timeline in one transaction
func (s *RedisSink) Record(ctx context.Context, exchange *capture.Exchange) error {
	id := exchange.ID
	if id == "" {
		id = uuid.NewString()
	}

	data, err := Encode(exchange)
	if err != nil {
		return fmt.Errorf("encode exchange %s: %w", id, err)
	}

	started := exchange.StartedAt
	if started.IsZero() {
		started = time.Now()
	}

	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.exchangeKey(id), data, s.ttl)
		pipe.ZAdd(ctx, s.timelineKey(), redis.Z{
			Score:  float64(started.UnixMilli()),
			Member: id,
		})
		cutoff := fmt.Sprintf("%d", time.Now().Add(-s.ttl).UnixMilli())
		pipe.ZRemRangeByScore(ctx, s.timelineKey(), "-inf", "("+cutoff)
		if s.maxEntries > 0 {
			pipe.ZRemRangeByRank(ctx, s.timelineKey(), 0, -s.maxEntries-1)
		}
		pipe.Expire(ctx, s.timelineKey(), s.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("store exchange %s: %w", id, err)
	}
	return nil
}

// Get loads one exchange by id
func (s *RedisSink) Get(ctx context.Context, id string) (*capture.Exchange, error) {
	data, err := s.rdb.Get(ctx, s.exchangeKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get exchange %s: %w", id, err)
	}
	return Decode(data)
}

// List returns up to limit exchanges, newest first. entries whose payload
// already expired are skipped.
func (s *RedisSink) List(ctx context.Context, limit int64) ([]*capture.Exchange, error) {
	if limit <= 0 {
		limit = 100
	}

	ids, err := s.rdb.ZRevRange(ctx, s.timelineKey(), 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("read timeline: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.exchangeKey(id)
	}

	values, err := s.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("read exchanges: %w", err)
	}

	exchanges := make([]*capture.Exchange, 0, len(values))
	for i, value := range values {
		raw, ok := value.(string)
		if !ok {
			continue
		}
		exchange, err := Decode([]byte(raw))
		if err != nil {
			return nil, fmt.Errorf("exchange %s: %w", ids[i], err)
		}
		exchanges = append(exchanges, exchange)
	}
	return exchanges, nil
}

// Len returns the number of exchanges on the timeline
func (s *RedisSink) Len(ctx context.Context) (int64, error) {
	return s.rdb.ZCard(ctx, s.timelineKey()).Result()
}

// Clear removes every stored exchange and the timeline
func (s *RedisSink) Clear(ctx context.Context) error {
	ids, err := s.rdb.ZRange(ctx, s.timelineKey(), 0, -1).Result()
	if err != nil {
		return fmt.Errorf("read timeline: %w", err)
	}
	keys := make([]string, 0, len(ids)+1)
	for _, id := range ids {
		keys = append(keys, s.exchangeKey(id))
	}
	keys = append(keys, s.timelineKey())
	return s.rdb.Del(ctx, keys...).Err()
}

func (s *RedisSink) Close() error {
	return s.rdb.Close()
}
