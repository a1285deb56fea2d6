package aggregation

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stratahq/strata/internal/core/storage"
)

// maxQueryDays bounds the number of days one Query may densify.
const maxQueryDays = 3660

// Query returns the stored usage for key over the inclusive day range [from, to].
//
// The result is dense: exactly one entry per day in ascending order, with zero
// weight and count for days the store has no record of. Increments still in the
// live buffer are not included.
func (a *Aggregator) Query(ctx context.Context, key string, from, to time.Time) ([]storage.StoredUsage, error) {
	if err := a.checkActive(); err != nil {
		return nil, err
	}
	if key == "" {
		return nil, fmt.Errorf("%w: usage key is required", storage.ErrInvalidArgument)
	}

	from, to = truncateToDay(from), truncateToDay(to)
	if to.Before(from) {
		return nil, fmt.Errorf("%w: range end %s is before start %s",
			storage.ErrInvalidArgument, to.Format(time.DateOnly), from.Format(time.DateOnly))
	}
	days := int(to.Sub(from).Hours()/24) + 1
	if days > maxQueryDays {
		return nil, fmt.Errorf("%w: usage range of %d days exceeds %d",
			storage.ErrInvalidArgument, days, maxQueryDays)
	}

	records, err := a.store.QueryUsage(ctx, key, from, to)
	if err != nil {
		return nil, fmt.Errorf("query usage %q: %w", key, err)
	}

	byDay := make(map[time.Time]storage.StoredUsage, len(records))
	for _, r := range records {
		day := truncateToDay(r.Date)
		cur, ok := byDay[day]
		if !ok {
			cur = storage.StoredUsage{Date: day, Weight: decimal.Zero}
		}
		cur.Weight = cur.Weight.Add(r.Weight)
		cur.Count += r.Count
		byDay[day] = cur
	}

	result := make([]storage.StoredUsage, 0, days)
	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		if r, ok := byDay[day]; ok {
			result = append(result, r)
			continue
		}
		result = append(result, storage.StoredUsage{Date: day, Weight: decimal.Zero})
	}

	return result, nil
}

// MonthlyTotal returns the summed weight for key over the calendar month containing date.
func (a *Aggregator) MonthlyTotal(ctx context.Context, key string, date time.Time) (decimal.Decimal, error) {
	from, to := monthBounds(date)

	usage, err := a.Query(ctx, key, from, to)
	if err != nil {
		return decimal.Zero, err
	}

	total := decimal.Zero
	for _, u := range usage {
		total = total.Add(u.Weight)
	}
	return total, nil
}

// monthBounds returns the first and last day of the UTC calendar month containing t.
func monthBounds(t time.Time) (time.Time, time.Time) {
	year, month, _ := t.UTC().Date()
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return first, first.AddDate(0, 1, -1)
}
