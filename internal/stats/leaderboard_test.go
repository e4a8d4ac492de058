package stats

import (
	"testing"

	"trade-journal-go/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildLeaderboard_Ordering(t *testing.T) {
	rows := []UserTrades{
		{Username: "user1", Trades: []models.Trade{
			closedTrade(t, 100, "2024-03-04 10:00:00"),
			closedTrade(t, -50, "2024-03-05 10:00:00"),
		}},
		{Username: "user2", Trades: []models.Trade{
			closedTrade(t, -10, "2024-03-04 10:00:00"),
		}},
		{Username: "user3", Trades: []models.Trade{
			closedTrade(t, 200, "2024-03-04 10:00:00"),
		}},
	}

	leaderboard := BuildLeaderboard(rows)

	require.Len(t, leaderboard, 3)
	assert.Equal(t, "user3", leaderboard[0].Username)
	assert.Equal(t, "user1", leaderboard[1].Username)
	assert.Equal(t, "user2", leaderboard[2].Username)

	assertDecimal(t, "200", leaderboard[0].TotalProfit)
	assert.Equal(t, 1, leaderboard[0].TotalTrades)
	assert.Equal(t, 100.0, leaderboard[0].WinRate)
	assert.Equal(t, 50.0, leaderboard[1].WinRate)
}

func TestBuildLeaderboard_TiesKeepInputOrder(t *testing.T) {
	rows := []UserTrades{
		{Username: "first", Trades: []models.Trade{closedTrade(t, 10, "2024-03-04 10:00:00")}},
		{Username: "second", Trades: []models.Trade{closedTrade(t, 10, "2024-03-05 10:00:00")}},
	}

	leaderboard := BuildLeaderboard(rows)

	require.Len(t, leaderboard, 2)
	assert.Equal(t, "first", leaderboard[0].Username)
	assert.Equal(t, "second", leaderboard[1].Username)
}

func TestBuildLeaderboard_Empty(t *testing.T) {
	assert.Empty(t, BuildLeaderboard(nil))
}
