package aggregation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stratahq/strata/internal/core/storage"
	"github.com/stratahq/strata/internal/metrics"
	"golang.org/x/sync/singleflight"
)

const (
	defaultFlushInterval = 30 * time.Second
	flushFlightKey       = "flush"
)

// ErrDisposed is returned by every Aggregator operation invoked after Dispose.
var ErrDisposed = errors.New("usage aggregator is disposed")

// Options controls the background flush of an Aggregator.
type Options struct {
	FlushInterval time.Duration
}

// DefaultOptions returns the production flush settings.
func DefaultOptions() Options {
	return Options{FlushInterval: defaultFlushInterval}
}

func (o Options) normalized() Options {
	n := o
	if n.FlushInterval <= 0 {
		n.FlushInterval = defaultFlushInterval
	}
	return n
}

// FlushStats summarizes one flush cycle.
type FlushStats struct {
	Buckets int // buckets detached from the live buffer
	Failed  int // bucket writes the store rejected
}

// Aggregator accumulates usage increments in memory per (key, UTC day) and
// writes them to a UsageStore in the background.
//
// Track never performs I/O. A flush detaches the whole live buffer before writing
// it, so increments tracked during a flush land in the next cycle. Writes that fail
// are logged and dropped; nothing is retried.
type Aggregator struct {
	store  storage.UsageStore
	buffer *buffer
	opts   Options

	// flights coalesces concurrent Trigger calls onto the in-flight flush.
	flights singleflight.Group
	// flushMu serializes flush bodies, including the final drain in Dispose.
	flushMu sync.Mutex

	// stateMu guards disposed and the scheduler handles. Track holds the read lock
	// across its merge so Dispose cannot drain between the check and the merge.
	stateMu  sync.RWMutex
	disposed bool
	cancel   context.CancelFunc
	done     chan struct{}

	nowFn     func() time.Time
	newTicker func(time.Duration) Ticker
}

// NewAggregator creates an active Aggregator writing to store.
// The background flush loop does not run until Start is called.
func NewAggregator(store storage.UsageStore, opts Options) *Aggregator {
	if store == nil {
		panic("aggregation: usage store must not be nil")
	}
	return &Aggregator{
		store:  store,
		buffer: newBuffer(),
		opts:   opts.normalized(),
		nowFn: func() time.Time {
			return time.Now().UTC()
		},
		newTicker: newRealTicker,
	}
}

// Track adds weight and count to today's bucket for key.
// A non-positive weight is ignored without error.
func (a *Aggregator) Track(key string, weight float64, count int64) error {
	a.stateMu.RLock()
	defer a.stateMu.RUnlock()

	if a.disposed {
		return ErrDisposed
	}
	if key == "" {
		return fmt.Errorf("%w: usage key is required", storage.ErrInvalidArgument)
	}
	if math.IsNaN(weight) || math.IsInf(weight, 0) {
		return fmt.Errorf("%w: usage weight must be finite", storage.ErrInvalidArgument)
	}
	if weight <= 0 {
		metrics.UsageIgnored.Inc()
		return nil
	}

	live := a.buffer.add(key, truncateToDay(a.nowFn()), decimal.NewFromFloat(weight), count)

	metrics.UsageTracked.Inc()
	metrics.UsageBufferedBuckets.Set(float64(live))
	return nil
}

// Trigger runs a flush cycle now and returns when it has finished.
// Callers arriving while a flush is in flight share its result instead of starting another.
func (a *Aggregator) Trigger(ctx context.Context) FlushStats {
	v, _, _ := a.flights.Do(flushFlightKey, func() (interface{}, error) {
		return a.flush(ctx), nil
	})
	return v.(FlushStats)
}

// flush detaches the live buffer and writes every bucket to the store.
func (a *Aggregator) flush(ctx context.Context) FlushStats {
	a.flushMu.Lock()
	defer a.flushMu.Unlock()

	batch := a.buffer.detach()
	metrics.UsageBufferedBuckets.Set(0)

	stats := FlushStats{Buckets: len(batch)}
	if len(batch) == 0 {
		return stats
	}

	start := time.Now()
	for _, k := range sortedKeys(batch) {
		b := batch[k]
		if err := a.store.AddUsage(ctx, k.Day, k.Key, b.Weight, b.Count); err != nil {
			stats.Failed++
			metrics.UsageFlushErrors.Inc()
			slog.Error("[Aggregator] Failed to write usage bucket, dropping it",
				"key", k.Key,
				"day", k.Day.Format(time.DateOnly),
				"weight", b.Weight.String(),
				"count", b.Count,
				"error", err,
			)
			continue
		}
		metrics.UsageFlushedBuckets.Inc()
	}

	metrics.UsageFlushes.Inc()
	metrics.UsageFlushDuration.Observe(float64(time.Since(start).Milliseconds()))

	slog.Info("[Aggregator] Flushed",
		"buckets", stats.Buckets,
		"failed", stats.Failed,
		"duration", time.Since(start),
	)
	return stats
}

// Start runs the periodic flush loop until ctx is cancelled or Dispose is called.
func (a *Aggregator) Start(ctx context.Context) error {
	a.stateMu.Lock()
	if a.disposed {
		a.stateMu.Unlock()
		return ErrDisposed
	}
	if a.cancel != nil {
		a.stateMu.Unlock()
		return errors.New("usage aggregator already started")
	}
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	a.cancel, a.done = cancel, done
	a.stateMu.Unlock()

	defer close(done)

	// runCtx only stops the ticking. A flush that is already writing runs to
	// completion so Dispose never abandons a detached batch.
	scheduler := NewScheduler("usage-flush", a.opts.FlushInterval, func(ctx context.Context) {
		a.Trigger(context.WithoutCancel(ctx))
	})
	scheduler.newTicker = a.newTicker

	return scheduler.Start(runCtx)
}

// Dispose stops the flush loop, waits for it to exit, and drains the live buffer
// with one final flush before returning. Every later Track, Query and MonthlyTotal
// fails with ErrDisposed. Calling Dispose again is a no-op.
//
// If ctx ends while waiting for the loop, Dispose returns ctx.Err() without draining.
func (a *Aggregator) Dispose(ctx context.Context) error {
	a.stateMu.Lock()
	if a.disposed {
		a.stateMu.Unlock()
		return nil
	}
	a.disposed = true
	cancel, done := a.cancel, a.done
	a.stateMu.Unlock()

	if cancel != nil {
		cancel()
		select {
		case <-done:
		case <-ctx.Done():
			return fmt.Errorf("dispose: waiting for flush loop: %w", ctx.Err())
		}
	}

	slog.Info("[Aggregator] Running final drain before shutdown...")
	stats := a.flush(ctx)
	slog.Info("[Aggregator] Final drain complete", "buckets", stats.Buckets, "failed", stats.Failed)

	return nil
}

// Buffered returns the number of buckets waiting for the next flush.
func (a *Aggregator) Buffered() int {
	return a.buffer.len()
}

func (a *Aggregator) checkActive() error {
	a.stateMu.RLock()
	defer a.stateMu.RUnlock()
	if a.disposed {
		return ErrDisposed
	}
	return nil
}

// truncateToDay truncates a timestamp to the start of its day (00:00:00 UTC).
func truncateToDay(t time.Time) time.Time {
	year, month, day := t.UTC().Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
