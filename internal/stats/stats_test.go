package stats

import (
	"testing"
	"time"

	"trade-journal-go/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mkTime parses a "2006-01-02 15:04:05" timestamp for test fixtures.
func mkTime(t *testing.T, value string) *time.Time {
	t.Helper()
	parsed, err := time.Parse("2006-01-02 15:04:05", value)
	require.NoError(t, err)
	return &parsed
}

func dec(value float64) decimal.Decimal {
	return decimal.NewFromFloat(value)
}

// assertDecimal compares a decimal against its expected string form.
func assertDecimal(t *testing.T, expected string, actual decimal.Decimal) {
	t.Helper()
	assert.True(t, actual.Equal(decimal.RequireFromString(expected)),
		"expected %s, got %s", expected, actual.String())
}

func closedTrade(t *testing.T, profit float64, closeAt string) models.Trade {
	t.Helper()
	closeTime := mkTime(t, closeAt)
	openTime := closeTime.Add(-time.Hour)
	return models.Trade{
		Symbol:    "EURUSD",
		TradeType: models.TradeTypeBuy,
		Profit:    dec(profit),
		OpenTime:  &openTime,
		CloseTime: closeTime,
	}
}
