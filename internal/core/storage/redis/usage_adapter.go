package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stratahq/strata/internal/core/storage"
)

const (
	// keyUsageCounter holds one hash per (metering key, day) with "weight" and "count" fields.
	keyUsageCounter = "usage:%s:%s"

	fieldWeight = "weight"
	fieldCount  = "count"

	connectPingTimeout = 5 * time.Second
)

// UsageAdapter implements storage.UsageStore on Redis hashes.
// HINCRBYFLOAT/HINCRBY give the additive upsert the store contract requires.
type UsageAdapter struct {
	client goredis.UniversalClient
	ttl    time.Duration
}

// NewClient connects to Redis and verifies the connection.
func NewClient(addr, password string, db int) (*goredis.Client, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, errors.New("redis addr is required")
	}

	client := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(password),
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), connectPingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis at %s: %w", addr, err)
	}

	slog.Info("[Redis] Connected", "addr", addr, "db", db)
	return client, nil
}

// NewUsageAdapter creates a usage store on client. A positive ttl expires counters
// that have not been written for that long; zero keeps them forever.
func NewUsageAdapter(client goredis.UniversalClient, ttl time.Duration) *UsageAdapter {
	return &UsageAdapter{client: client, ttl: ttl}
}

// Ping reports whether the Redis server is reachable.
func (a *UsageAdapter) Ping(ctx context.Context) error {
	return a.client.Ping(ctx).Err()
}

func usageKey(key string, day time.Time) string {
	return fmt.Sprintf(keyUsageCounter, key, truncateToDay(day).Format(time.DateOnly))
}

// AddUsage increments the (key, day) hash in one MULTI/EXEC transaction.
func (a *UsageAdapter) AddUsage(ctx context.Context, day time.Time, key string, weight decimal.Decimal, count int64) error {
	k := usageKey(key, day)

	pipe := a.client.TxPipeline()
	pipe.HIncrByFloat(ctx, k, fieldWeight, weight.InexactFloat64())
	pipe.HIncrBy(ctx, k, fieldCount, count)
	if a.ttl > 0 {
		pipe.Expire(ctx, k, a.ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("add usage %s: %w", k, err)
	}
	return nil
}

// QueryUsage reads every day of [from, to] in one pipeline and returns the days that have data.
func (a *UsageAdapter) QueryUsage(ctx context.Context, key string, from, to time.Time) ([]storage.StoredUsage, error) {
	from, to = truncateToDay(from), truncateToDay(to)
	if to.Before(from) {
		return nil, nil
	}

	days := int(to.Sub(from).Hours()/24) + 1

	pipe := a.client.Pipeline()
	cmds := make([]*goredis.SliceCmd, days)
	for i := 0; i < days; i++ {
		cmds[i] = pipe.HMGet(ctx, usageKey(key, from.AddDate(0, 0, i)), fieldWeight, fieldCount)
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, goredis.Nil) {
		return nil, fmt.Errorf("query usage %s: %w", key, err)
	}

	var results []storage.StoredUsage
	for i, cmd := range cmds {
		vals, err := cmd.Result()
		if err != nil {
			return nil, fmt.Errorf("query usage %s: %w", key, err)
		}

		rec, ok, err := parseUsage(from.AddDate(0, 0, i), vals)
		if err != nil {
			return nil, fmt.Errorf("query usage %s: %w", key, err)
		}
		if ok {
			results = append(results, rec)
		}
	}
	return results, nil
}

// parseUsage converts an HMGET reply into a record. ok is false when the hash does not exist.
func parseUsage(day time.Time, vals []interface{}) (storage.StoredUsage, bool, error) {
	if len(vals) != 2 || (vals[0] == nil && vals[1] == nil) {
		return storage.StoredUsage{}, false, nil
	}

	rec := storage.StoredUsage{Date: day, Weight: decimal.Zero}

	if s, ok := vals[0].(string); ok {
		w, err := decimal.NewFromString(s)
		if err != nil {
			return rec, false, fmt.Errorf("parse weight %q: %w", s, err)
		}
		rec.Weight = w
	}

	if s, ok := vals[1].(string); ok {
		c, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return rec, false, fmt.Errorf("parse count %q: %w", s, err)
		}
		rec.Count = c
	}

	return rec, true, nil
}

// truncateToDay truncates a timestamp to 00:00:00 UTC of its day.
func truncateToDay(t time.Time) time.Time {
	year, month, day := t.UTC().Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
