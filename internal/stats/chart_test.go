package stats

import (
	"testing"
	"time"

	"trade-journal-go/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBalanceChart_NoTrades(t *testing.T) {
	chart := BalanceChart(nil, nil, nil, time.Now())
	assert.Empty(t, chart)
}

func TestBalanceChart_IgnoresTimelessTrades(t *testing.T) {
	trades := []models.Trade{
		{Symbol: "EURUSD", TradeType: models.TradeTypeBuy, Profit: dec(100)},
	}
	chart := BalanceChart(trades, nil, nil, time.Now())
	assert.Empty(t, chart)
}

func TestBalanceChart_KeysWithinDerivedRange(t *testing.T) {
	now := *mkTime(t, "2024-03-10 12:00:00")

	// Newest close first, as the store returns them.
	trades := []models.Trade{
		closedTrade(t, 25, "2024-03-06 15:00:00"),
		closedTrade(t, -50, "2024-03-05 09:00:00"),
		closedTrade(t, 100, "2024-03-04 10:00:00"),
	}

	chart := BalanceChart(trades, nil, nil, now)

	fromKey := "2024-03-03 10:00:00" // oldest close minus one day
	toKey := "2024-03-10 12:00:00"
	for key := range chart {
		assert.GreaterOrEqual(t, key, fromKey)
		assert.LessOrEqual(t, key, toKey)
	}

	// The point at the last close carries the whole history's sum.
	value, ok := chart["2024-03-06 15:00:00"]
	require.True(t, ok)
	assertDecimal(t, "75", value)

	// The final point at `to` matches it, since nothing closed later.
	value, ok = chart[toKey]
	require.True(t, ok)
	assertDecimal(t, "75", value)
}

func TestBalanceChart_ZeroOriginSuppressed(t *testing.T) {
	now := *mkTime(t, "2024-03-10 12:00:00")
	trades := []models.Trade{
		closedTrade(t, 100, "2024-03-04 10:00:00"),
	}

	chart := BalanceChart(trades, nil, nil, now)

	// No trade closed at or before the derived start, so there is no
	// meaningless zero point there.
	_, ok := chart["2024-03-03 10:00:00"]
	assert.False(t, ok)
}

func TestBalanceChart_SeedPointCarriesEarlierProfit(t *testing.T) {
	from := mkTime(t, "2024-03-05 00:00:00")
	to := mkTime(t, "2024-03-10 00:00:00")

	trades := []models.Trade{
		closedTrade(t, 40, "2024-03-06 10:00:00"),
		closedTrade(t, 100, "2024-03-01 10:00:00"), // before the range
	}

	chart := BalanceChart(trades, from, to, time.Now())

	// The early trade's key is filtered out...
	_, ok := chart["2024-03-01 10:00:00"]
	assert.False(t, ok)

	// ...but its profit seeds the range start and the later points.
	value, ok := chart["2024-03-05 00:00:00"]
	require.True(t, ok)
	assertDecimal(t, "100", value)

	value, ok = chart["2024-03-06 10:00:00"]
	require.True(t, ok)
	assertDecimal(t, "140", value)
}

func TestBalanceChart_TopUpsMoveTheCurve(t *testing.T) {
	now := *mkTime(t, "2024-03-10 12:00:00")

	topUp := closedTrade(t, 500, "2024-03-05 08:00:00")
	topUp.IsTopUp = true

	trades := []models.Trade{
		closedTrade(t, -50, "2024-03-06 10:00:00"),
		topUp,
		closedTrade(t, 100, "2024-03-04 10:00:00"),
	}

	chart := BalanceChart(trades, nil, nil, now)

	value, ok := chart["2024-03-06 10:00:00"]
	require.True(t, ok)
	assertDecimal(t, "550", value)
}

func TestBalanceChart_SharedInstantLastWriteWins(t *testing.T) {
	now := *mkTime(t, "2024-03-10 12:00:00")
	trades := []models.Trade{
		closedTrade(t, 30, "2024-03-05 10:00:00"),
		closedTrade(t, 20, "2024-03-05 10:00:00"),
	}

	chart := BalanceChart(trades, nil, nil, now)

	// Both trades share the instant; the recomputed value is identical
	// regardless of which write landed last.
	value, ok := chart["2024-03-05 10:00:00"]
	require.True(t, ok)
	assertDecimal(t, "50", value)
}
