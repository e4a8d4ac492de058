package stats

import (
	"trade-journal-go/internal/models"

	"github.com/shopspring/decimal"
)

// AccountPerformances computes user-wide totals plus a per-account
// breakdown. The trade set is fetched once for the whole user; each
// account's slice is selected in memory by owner identity rather than
// re-queried.
func AccountPerformances(trades []models.Trade, accounts []models.TradeAccount) PerformanceReport {
	report := PerformanceReport{
		AccountPerformances: []AccountPerformance{},
	}

	for i := range trades {
		report.TotalProfit = report.TotalProfit.Add(trades[i].Profit)
		report.TotalTrades++
	}

	for _, account := range accounts {
		perf := AccountPerformance{
			AccountID:      account.ID,
			AccountName:    account.Name,
			CurrentBalance: account.Balance,
			TotalProfit:    decimal.Zero,
			LastUpdated:    account.UpdatedAt,
		}

		for i := range trades {
			if trades[i].AccountID != account.ID {
				continue
			}
			perf.TotalTrades++
			perf.TotalProfit = perf.TotalProfit.Add(trades[i].Profit)
		}

		report.AccountPerformances = append(report.AccountPerformances, perf)
	}

	return report
}
