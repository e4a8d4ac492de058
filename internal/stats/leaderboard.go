package stats

import (
	"sort"

	"trade-journal-go/internal/models"
)

// UserTrades pairs a username with that user's full trade history.
type UserTrades struct {
	Username string
	Trades   []models.Trade
}

// BuildLeaderboard ranks users by aggregate profit, descending. Ties keep
// the order the rows were supplied in.
func BuildLeaderboard(rows []UserTrades) []LeaderboardEntry {
	entries := make([]LeaderboardEntry, 0, len(rows))
	for _, row := range rows {
		report := Calculate(row.Trades, nil)
		entries = append(entries, LeaderboardEntry{
			Username:    row.Username,
			TotalProfit: report.Overall.TotalProfit,
			TotalTrades: report.Overall.TotalTrades,
			WinRate:     report.Overall.WinRate,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].TotalProfit.GreaterThan(entries[j].TotalProfit)
	})
	return entries
}
