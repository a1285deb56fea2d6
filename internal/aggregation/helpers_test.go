package aggregation

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stratahq/strata/internal/core/storage"
	"github.com/stretchr/testify/require"
)

// recordedWrite is one AddUsage call seen by recordingStore.
type recordedWrite struct {
	Day    time.Time
	Key    string
	Weight decimal.Decimal
	Count  int64
}

// recordingStore is a UsageStore that records every write and serves preset query results.
type recordingStore struct {
	mu      sync.Mutex
	writes  []recordedWrite
	records map[string][]storage.StoredUsage
	failFor map[string]error

	inFlight    atomic.Int32
	maxInFlight atomic.Int32
	hold        time.Duration
}

func newRecordingStore() *recordingStore {
	return &recordingStore{
		records: make(map[string][]storage.StoredUsage),
		failFor: make(map[string]error),
	}
}

func (s *recordingStore) AddUsage(ctx context.Context, day time.Time, key string, weight decimal.Decimal, count int64) error {
	n := s.inFlight.Add(1)
	defer s.inFlight.Add(-1)
	for {
		cur := s.maxInFlight.Load()
		if n <= cur || s.maxInFlight.CompareAndSwap(cur, n) {
			break
		}
	}
	if s.hold > 0 {
		select {
		case <-time.After(s.hold):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err, ok := s.failFor[key]; ok {
		return err
	}
	s.writes = append(s.writes, recordedWrite{Day: day, Key: key, Weight: weight, Count: count})
	return nil
}

func (s *recordingStore) QueryUsage(ctx context.Context, key string, from, to time.Time) ([]storage.StoredUsage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err, ok := s.failFor[key]; ok {
		return nil, err
	}
	var out []storage.StoredUsage
	for _, r := range s.records[key] {
		if !r.Date.Before(from) && !r.Date.After(to) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *recordingStore) seed(key string, day time.Time, weight string, count int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[key] = append(s.records[key], storage.StoredUsage{
		Date:   day,
		Weight: decimal.RequireFromString(weight),
		Count:  count,
	})
}

func (s *recordingStore) failKey(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failFor[key] = errors.New("store unavailable")
}

func (s *recordingStore) recorded() []recordedWrite {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]recordedWrite, len(s.writes))
	copy(out, s.writes)
	return out
}

// manualTicker is a Ticker driven by the test.
type manualTicker struct {
	ch      chan time.Time
	stopped atomic.Bool
}

func newManualTicker() *manualTicker {
	return &manualTicker{ch: make(chan time.Time)}
}

func (m *manualTicker) C() <-chan time.Time { return m.ch }
func (m *manualTicker) Stop()               { m.stopped.Store(true) }

// newTestAggregator returns an Aggregator pinned to now.
func newTestAggregator(store storage.UsageStore, now time.Time) *Aggregator {
	agg := NewAggregator(store, Options{FlushInterval: time.Hour})
	agg.nowFn = func() time.Time { return now }
	return agg
}

func waitStarted(t *testing.T, agg *Aggregator) {
	t.Helper()
	require.Eventually(t, func() bool {
		agg.stateMu.RLock()
		defer agg.stateMu.RUnlock()
		return agg.cancel != nil
	}, time.Second, time.Millisecond)
}
