package stats

import (
	"time"

	"trade-journal-go/internal/models"

	"github.com/shopspring/decimal"
)

// chartKeyLayout keeps chronological and lexicographic key order identical.
const chartKeyLayout = "2006-01-02 15:04:05"

// BalanceChart replays the user's trades chronologically and returns a
// timestamp-keyed cumulative-profit series. The input should include
// top-up pseudo-trades and be ordered newest close first, as produced by
// the store. When from and to are both given the series is restricted to
// that range; otherwise the range runs from one day before the oldest
// trade's close-or-open time up to now.
//
// The cumulative value is recomputed from scratch for every point. That is
// quadratic in the number of trades, which is fine for per-user journal
// volumes, and keeps the replay trivially deterministic.
func BalanceChart(trades []models.Trade, from, to *time.Time, now time.Time) map[string]decimal.Decimal {
	timed := make([]models.Trade, 0, len(trades))
	for i := range trades {
		if trades[i].OpenTime != nil {
			timed = append(timed, trades[i])
		}
	}

	chart := make(map[string]decimal.Decimal)
	if len(timed) == 0 {
		return chart
	}

	var fromAt, toAt time.Time
	if from != nil && to != nil {
		fromAt, toAt = *from, *to
	} else {
		oldest := timed[len(timed)-1]
		fromAt = oldest.CloseOrOpenTime().Add(-24 * time.Hour)
		toAt = now
	}

	addForDate := func(at time.Time, disallowZero bool) {
		cumulative := decimal.Zero
		for i := range timed {
			if !timed[i].CloseOrOpenTime().After(at) {
				cumulative = cumulative.Add(timed[i].Profit)
			}
		}
		// A zero seed point at the range start carries no information.
		if disallowZero && cumulative.IsZero() {
			return
		}
		chart[at.Format(chartKeyLayout)] = cumulative
	}

	addForDate(fromAt, true)
	for i := range timed {
		addForDate(*timed[i].CloseOrOpenTime(), false)
	}
	addForDate(toAt, false)

	// Shared instants are fine: the value recomputed at a timestamp is the
	// same no matter which trade produced the key, so last write wins.
	fromKey := fromAt.Format(chartKeyLayout)
	toKey := toAt.Format(chartKeyLayout)
	filtered := make(map[string]decimal.Decimal, len(chart))
	for key, value := range chart {
		if key >= fromKey && key <= toKey {
			filtered[key] = value
		}
	}
	return filtered
}
