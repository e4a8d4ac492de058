package stats

import (
	"time"

	"trade-journal-go/internal/models"
)

// sessionWindow is an inclusive-both-ends hour-of-day range. Windows
// overlap on purpose: a trade opened at hour 13 counts for both London and
// New York. A window whose lower bound exceeds its upper bound wraps past
// midnight.
type sessionWindow struct {
	name  string
	lower int
	upper int
}

// The Pacific window [23,0] matches only hours 23 and 0, not the full
// overnight span. Downstream consumers already expect this narrow window;
// widening it needs product sign-off first.
var sessionWindows = []sessionWindow{
	{name: "london", lower: 7, upper: 13},
	{name: "new-york", lower: 13, upper: 22},
	{name: "asia", lower: 0, upper: 6},
	{name: "pacific", lower: 23, upper: 0},
}

func (w sessionWindow) contains(hour int) bool {
	if w.lower <= w.upper {
		return hour >= w.lower && hour <= w.upper
	}
	return hour >= w.lower || hour <= w.upper
}

// SessionDistribution buckets trades into the four trading-session windows
// by open-time hour and normalizes each bucket against the busiest one.
// Trades without an open time are skipped; a trade may land in zero, one,
// or several sessions.
func SessionDistribution(trades []models.Trade) Distribution {
	counts := make(map[string]int, len(sessionWindows))
	for _, window := range sessionWindows {
		counts[window.name] = 0
	}

	for i := range trades {
		openTime := trades[i].OpenTime
		if openTime == nil {
			continue
		}
		hour := openTime.Hour()
		for _, window := range sessionWindows {
			if window.contains(hour) {
				counts[window.name]++
			}
		}
	}

	return normalize(counts)
}

var weekdays = []time.Weekday{
	time.Monday,
	time.Tuesday,
	time.Wednesday,
	time.Thursday,
	time.Friday,
	time.Saturday,
	time.Sunday,
}

// DayOfWeekDistribution buckets trades by the weekday of their open time
// and normalizes each bucket against the busiest one. Trades without an
// open time are skipped.
func DayOfWeekDistribution(trades []models.Trade) Distribution {
	counts := make(map[string]int, len(weekdays))
	for _, day := range weekdays {
		counts[day.String()] = 0
	}

	for i := range trades {
		openTime := trades[i].OpenTime
		if openTime == nil {
			continue
		}
		counts[openTime.Weekday().String()]++
	}

	return normalize(counts)
}

// normalize divides every bucket by the maximum bucket count. When all
// buckets are empty every entry is 0; the denominator never reaches zero.
func normalize(counts map[string]int) Distribution {
	maxCount := 0
	total := 0
	for _, count := range counts {
		total += count
		if count > maxCount {
			maxCount = count
		}
	}

	distribution := make(map[string]float64, len(counts))
	for name, count := range counts {
		if maxCount > 0 {
			distribution[name] = float64(count) / float64(maxCount)
		} else {
			distribution[name] = 0
		}
	}

	return Distribution{
		Distribution: distribution,
		RawCounts:    counts,
		TotalTrades:  total,
	}
}
