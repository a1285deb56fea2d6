package memory

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stratahq/strata/internal/core/storage"
)

type usageKey struct {
	key string
	day time.Time
}

// UsageStore is an in-memory implementation of storage.UsageStore.
// Writes are additive per (key, day), matching the durable stores.
type UsageStore struct {
	mu      sync.RWMutex
	records map[usageKey]storage.StoredUsage
}

// NewUsageStore creates an empty in-memory usage store.
func NewUsageStore() *UsageStore {
	return &UsageStore{
		records: make(map[usageKey]storage.StoredUsage),
	}
}

func (s *UsageStore) AddUsage(ctx context.Context, day time.Time, key string, weight decimal.Decimal, count int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := usageKey{key: key, day: truncateToDay(day)}
	rec, exists := s.records[k]
	if !exists {
		rec = storage.StoredUsage{Date: k.day, Weight: decimal.Zero}
	}
	rec.Weight = rec.Weight.Add(weight)
	rec.Count += count
	s.records[k] = rec
	return nil
}

func (s *UsageStore) QueryUsage(ctx context.Context, key string, from, to time.Time) ([]storage.StoredUsage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	from, to = truncateToDay(from), truncateToDay(to)

	var result []storage.StoredUsage
	for k, rec := range s.records {
		if k.key != key || k.day.Before(from) || k.day.After(to) {
			continue
		}
		result = append(result, rec)
	}
	return result, nil
}

// truncateToDay truncates a timestamp to 00:00:00 UTC of its day.
func truncateToDay(t time.Time) time.Time {
	year, month, day := t.UTC().Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
