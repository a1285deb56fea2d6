package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stratahq/strata/internal/core/partition"
	"github.com/stratahq/strata/internal/core/storage"
)

// UsageAdapter implements storage.UsageStore using PostgreSQL.
// Rows are keyed by (partition_id, usage_key, day); partition_id is derived from the key.
type UsageAdapter struct {
	db    *sql.DB
	nowFn func() time.Time
}

// NewUsageAdapter creates a new UsageAdapter sharing the given connection.
func NewUsageAdapter(db *sql.DB) *UsageAdapter {
	return &UsageAdapter{
		db: db,
		nowFn: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// AddUsage adds weight and count to the (key, day) row, creating it when missing.
func (a *UsageAdapter) AddUsage(ctx context.Context, day time.Time, key string, weight decimal.Decimal, count int64) error {
	_, err := a.db.ExecContext(ctx, queryAddUsage,
		partition.For(key),
		key,
		truncateToDay(day),
		weight,
		count,
		a.nowFn(),
	)
	if err != nil {
		return fmt.Errorf("add usage %s@%s: %w", key, day.Format(time.DateOnly), err)
	}
	return nil
}

// QueryUsage returns stored usage for key over the inclusive day range [from, to].
func (a *UsageAdapter) QueryUsage(ctx context.Context, key string, from, to time.Time) ([]storage.StoredUsage, error) {
	rows, err := a.db.QueryContext(ctx, queryRangeUsage,
		partition.For(key),
		key,
		truncateToDay(from),
		truncateToDay(to),
	)
	if err != nil {
		return nil, fmt.Errorf("query usage: %w", err)
	}
	defer rows.Close()

	var results []storage.StoredUsage
	for rows.Next() {
		var rec storage.StoredUsage
		var weightStr string

		if err := rows.Scan(&rec.Date, &weightStr, &rec.Count); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}

		weight, err := decimal.NewFromString(weightStr)
		if err != nil {
			return nil, fmt.Errorf("parse weight %q: %w", weightStr, err)
		}
		rec.Weight = weight
		rec.Date = truncateToDay(rec.Date)

		results = append(results, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return results, nil
}
