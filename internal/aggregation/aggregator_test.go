package aggregation

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stratahq/strata/internal/core/storage"
	storagemocks "github.com/stratahq/strata/internal/mocks/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func decimalEq(s string) interface{} {
	want := decimal.RequireFromString(s)
	return mock.MatchedBy(func(d decimal.Decimal) bool { return d.Equal(want) })
}

func TestAggregator_FlushMergesPerKeyAndDay(t *testing.T) {
	now := time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)
	today := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

	store := storagemocks.NewUsageStore(t)
	store.EXPECT().AddUsage(mock.Anything, today, "key1", decimalEq("1.0"), int64(1000)).Return(nil).Once()
	store.EXPECT().AddUsage(mock.Anything, today, "key2", decimalEq("1.5"), int64(5000)).Return(nil).Once()
	store.EXPECT().AddUsage(mock.Anything, today, "key3", decimalEq("0.9"), int64(15000)).Return(nil).Once()

	agg := newTestAggregator(store, now)

	require.NoError(t, agg.Track("key1", 1, 1000))
	require.NoError(t, agg.Track("key2", 1.0, 2000))
	require.NoError(t, agg.Track("key2", 0.5, 3000))
	require.NoError(t, agg.Track("key3", 0.3, 4000))
	require.NoError(t, agg.Track("key3", 0.1, 5000))
	require.NoError(t, agg.Track("key3", 0.5, 6000))

	stats := agg.Trigger(context.Background())
	require.Equal(t, FlushStats{Buckets: 3}, stats)
	require.Zero(t, agg.Buffered())
}

func TestAggregator_NonPositiveWeightNeverWrites(t *testing.T) {
	store := storagemocks.NewUsageStore(t)
	agg := newTestAggregator(store, time.Now().UTC())

	for _, w := range []float64{0, -1, -0.0001} {
		require.NoError(t, agg.Track("key", w, 100))
	}

	stats := agg.Trigger(context.Background())
	require.Zero(t, stats.Buckets)
	store.AssertNotCalled(t, "AddUsage", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAggregator_TrackInvalidArguments(t *testing.T) {
	agg := newTestAggregator(newRecordingStore(), time.Now().UTC())

	tests := []struct {
		name   string
		key    string
		weight float64
	}{
		{name: "empty key", key: "", weight: 1},
		{name: "NaN weight", key: "key", weight: math.NaN()},
		{name: "infinite weight", key: "key", weight: math.Inf(1)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := agg.Track(tc.key, tc.weight, 1)
			require.ErrorIs(t, err, storage.ErrInvalidArgument)
		})
	}
	require.Zero(t, agg.Buffered())
}

func TestAggregator_SplitsBucketsAcrossDays(t *testing.T) {
	store := newRecordingStore()
	agg := NewAggregator(store, DefaultOptions())

	now := time.Date(2026, 1, 31, 23, 59, 0, 0, time.UTC)
	agg.nowFn = func() time.Time { return now }
	require.NoError(t, agg.Track("key", 2, 1))

	now = now.Add(2 * time.Minute)
	require.NoError(t, agg.Track("key", 3, 1))

	agg.Trigger(context.Background())

	writes := store.recorded()
	require.Len(t, writes, 2)
	require.Equal(t, time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC), writes[0].Day)
	require.True(t, writes[0].Weight.Equal(decimal.NewFromInt(2)))
	require.Equal(t, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), writes[1].Day)
	require.True(t, writes[1].Weight.Equal(decimal.NewFromInt(3)))
}

func TestAggregator_EachIncrementFlushedOnce(t *testing.T) {
	store := newRecordingStore()
	agg := newTestAggregator(store, time.Now().UTC())

	require.NoError(t, agg.Track("key", 1, 1))
	first := agg.Trigger(context.Background())
	second := agg.Trigger(context.Background())

	require.Equal(t, 1, first.Buckets)
	require.Zero(t, second.Buckets)
	require.Len(t, store.recorded(), 1)
}

func TestAggregator_WriteErrorDoesNotStopCycle(t *testing.T) {
	store := newRecordingStore()
	store.failKey("b")
	agg := newTestAggregator(store, time.Now().UTC())

	require.NoError(t, agg.Track("a", 1, 1))
	require.NoError(t, agg.Track("b", 1, 1))
	require.NoError(t, agg.Track("c", 1, 1))

	stats := agg.Trigger(context.Background())
	require.Equal(t, FlushStats{Buckets: 3, Failed: 1}, stats)

	writes := store.recorded()
	require.Len(t, writes, 2)
	require.Equal(t, "a", writes[0].Key)
	require.Equal(t, "c", writes[1].Key)

	// failed buckets are not re-queued
	require.Zero(t, agg.Buffered())
}

func TestAggregator_ConcurrentTrack(t *testing.T) {
	store := newRecordingStore()
	agg := newTestAggregator(store, time.Now().UTC())

	const workers, perWorker = 20, 250
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				assert.NoError(t, agg.Track("key", 0.5, 2))
			}
		}()
	}
	wg.Wait()

	agg.Trigger(context.Background())

	writes := store.recorded()
	require.Len(t, writes, 1)
	require.True(t, writes[0].Weight.Equal(decimal.NewFromInt(workers*perWorker/2)), writes[0].Weight.String())
	require.Equal(t, int64(workers*perWorker*2), writes[0].Count)
}

func TestAggregator_TrackDuringFlushIsNotLost(t *testing.T) {
	store := newRecordingStore()
	store.hold = 5 * time.Millisecond
	agg := newTestAggregator(store, time.Now().UTC())

	var wg sync.WaitGroup
	var tracked sync.WaitGroup
	stop := make(chan struct{})

	tracked.Add(1)
	go func() {
		defer tracked.Done()
		for i := 0; i < 200; i++ {
			assert.NoError(t, agg.Track("key", 1, 1))
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
				agg.Trigger(context.Background())
			}
		}
	}()

	tracked.Wait()
	close(stop)
	wg.Wait()
	agg.Trigger(context.Background())

	total := decimal.Zero
	var count int64
	for _, w := range store.recorded() {
		total = total.Add(w.Weight)
		count += w.Count
	}
	require.True(t, total.Equal(decimal.NewFromInt(200)), total.String())
	require.Equal(t, int64(200), count)
}

func TestAggregator_AtMostOneFlushInFlight(t *testing.T) {
	store := newRecordingStore()
	store.hold = time.Millisecond
	agg := newTestAggregator(store, time.Now().UTC())

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, agg.Track(string(rune('a'+i)), 1, 1))
			agg.Trigger(context.Background())
		}(i)
	}
	wg.Wait()
	agg.Trigger(context.Background())

	require.Equal(t, int32(1), store.maxInFlight.Load())
	require.Len(t, store.recorded(), 16)
}

func TestAggregator_TickerDrivesFlush(t *testing.T) {
	store := newRecordingStore()
	agg := newTestAggregator(store, time.Now().UTC())

	ticker := newManualTicker()
	agg.newTicker = func(time.Duration) Ticker { return ticker }

	errCh := make(chan error, 1)
	go func() { errCh <- agg.Start(context.Background()) }()

	require.NoError(t, agg.Track("key", 1, 1))
	ticker.ch <- time.Now()

	require.Eventually(t, func() bool { return len(store.recorded()) == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, agg.Dispose(context.Background()))
	require.NoError(t, <-errCh)
	require.True(t, ticker.stopped.Load())
}

func TestAggregator_StartTwice(t *testing.T) {
	agg := newTestAggregator(newRecordingStore(), time.Now().UTC())
	ticker := newManualTicker()
	agg.newTicker = func(time.Duration) Ticker { return ticker }

	errCh := make(chan error, 1)
	go func() { errCh <- agg.Start(context.Background()) }()
	waitStarted(t, agg)

	require.Error(t, agg.Start(context.Background()))
	require.NoError(t, agg.Dispose(context.Background()))
	require.NoError(t, <-errCh)
}

func TestAggregator_DisposeDrainsBuffer(t *testing.T) {
	store := newRecordingStore()
	agg := newTestAggregator(store, time.Now().UTC())
	ticker := newManualTicker()
	agg.newTicker = func(time.Duration) Ticker { return ticker }

	errCh := make(chan error, 1)
	go func() { errCh <- agg.Start(context.Background()) }()
	waitStarted(t, agg)

	require.NoError(t, agg.Track("key", 2.5, 3))
	require.NoError(t, agg.Dispose(context.Background()))
	require.NoError(t, <-errCh)

	writes := store.recorded()
	require.Len(t, writes, 1)
	require.True(t, writes[0].Weight.Equal(decimal.RequireFromString("2.5")))
	require.Equal(t, int64(3), writes[0].Count)
}

func TestAggregator_DisposeDuringTickFlushPersistsBatch(t *testing.T) {
	store := newRecordingStore()
	store.hold = 200 * time.Millisecond
	agg := newTestAggregator(store, time.Now().UTC())
	ticker := newManualTicker()
	agg.newTicker = func(time.Duration) Ticker { return ticker }

	errCh := make(chan error, 1)
	go func() { errCh <- agg.Start(context.Background()) }()
	waitStarted(t, agg)

	require.NoError(t, agg.Track("key1", 1, 1000))
	ticker.ch <- time.Now()
	require.Eventually(t, func() bool { return store.inFlight.Load() == 1 }, time.Second, time.Millisecond)

	require.NoError(t, agg.Dispose(context.Background()))
	require.NoError(t, <-errCh)

	writes := store.recorded()
	require.Len(t, writes, 1)
	require.Equal(t, "key1", writes[0].Key)
	require.Equal(t, int64(1000), writes[0].Count)
	require.Zero(t, agg.Buffered())
}

func TestAggregator_DisposeWithoutStart(t *testing.T) {
	store := newRecordingStore()
	agg := newTestAggregator(store, time.Now().UTC())

	require.NoError(t, agg.Track("key", 1, 1))
	require.NoError(t, agg.Dispose(context.Background()))
	require.Len(t, store.recorded(), 1)

	// second dispose is a no-op
	require.NoError(t, agg.Dispose(context.Background()))
	require.Len(t, store.recorded(), 1)
}

func TestAggregator_OperationsAfterDispose(t *testing.T) {
	agg := newTestAggregator(newRecordingStore(), time.Now().UTC())
	require.NoError(t, agg.Dispose(context.Background()))

	require.ErrorIs(t, agg.Track("key", 1, 1), ErrDisposed)
	require.ErrorIs(t, agg.Track("key", 0, 1), ErrDisposed)

	_, err := agg.Query(context.Background(), "key", time.Now(), time.Now())
	require.ErrorIs(t, err, ErrDisposed)

	_, err = agg.MonthlyTotal(context.Background(), "key", time.Now())
	require.ErrorIs(t, err, ErrDisposed)

	require.ErrorIs(t, agg.Start(context.Background()), ErrDisposed)
}

func TestAggregator_ConcurrentTrackAndDispose(t *testing.T) {
	store := newRecordingStore()
	agg := newTestAggregator(store, time.Now().UTC())

	var accepted sync.WaitGroup
	var mu sync.Mutex
	var acceptedCount int64

	for i := 0; i < 8; i++ {
		accepted.Add(1)
		go func() {
			defer accepted.Done()
			for j := 0; j < 100; j++ {
				err := agg.Track("key", 1, 1)
				if errors.Is(err, ErrDisposed) {
					return
				}
				if assert.NoError(t, err) {
					mu.Lock()
					acceptedCount++
					mu.Unlock()
				}
			}
		}()
	}

	require.NoError(t, agg.Dispose(context.Background()))
	accepted.Wait()

	var flushed int64
	for _, w := range store.recorded() {
		flushed += w.Count
	}
	require.Equal(t, acceptedCount, flushed)
}

func TestOptions_Normalized(t *testing.T) {
	require.Equal(t, defaultFlushInterval, Options{}.normalized().FlushInterval)
	require.Equal(t, time.Second, Options{FlushInterval: time.Second}.normalized().FlushInterval)
}
