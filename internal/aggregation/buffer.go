package aggregation

import (
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// bucketKey identifies one usage bucket: a metering key on one UTC day.
type bucketKey struct {
	Key string
	Day time.Time
}

// bucket is the running sum for one bucketKey.
type bucket struct {
	Weight decimal.Decimal
	Count  int64
}

// buffer owns the live bucket map. Accumulation and detachment both go through mu,
// so a detached map is never touched by later merges.
type buffer struct {
	mu   sync.Mutex
	live map[bucketKey]bucket
}

func newBuffer() *buffer {
	return &buffer{live: make(map[bucketKey]bucket)}
}

// add merges one increment and returns the number of live buckets afterwards.
func (b *buffer) add(key string, day time.Time, weight decimal.Decimal, count int64) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	k := bucketKey{Key: key, Day: day}
	cur, ok := b.live[k]
	if !ok {
		cur = bucket{Weight: decimal.Zero}
	}
	cur.Weight = cur.Weight.Add(weight)
	cur.Count += count
	b.live[k] = cur

	return len(b.live)
}

// detach hands the live map to the caller and installs an empty one.
func (b *buffer) detach() map[bucketKey]bucket {
	b.mu.Lock()
	defer b.mu.Unlock()

	detached := b.live
	b.live = make(map[bucketKey]bucket)
	return detached
}

func (b *buffer) len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.live)
}

// sortedKeys orders a detached batch by day then key so flush writes are deterministic.
func sortedKeys(batch map[bucketKey]bucket) []bucketKey {
	keys := make([]bucketKey, 0, len(batch))
	for k := range batch {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if !keys[i].Day.Equal(keys[j].Day) {
			return keys[i].Day.Before(keys[j].Day)
		}
		return keys[i].Key < keys[j].Key
	})
	return keys
}
