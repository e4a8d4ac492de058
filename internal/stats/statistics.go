package stats

import (
	"trade-journal-go/internal/models"

	"github.com/shopspring/decimal"
)

const (
	dayKeyLayout   = "2006-01-02"
	monthKeyLayout = "2006-01"
)

// Calculate computes the full statistics report for the given trades and
// accounts. The caller is responsible for scoping both collections to a
// single user and applying any date-range filter beforehand. An empty
// trade set yields an all-zero report with empty breakdowns.
func Calculate(trades []models.Trade, accounts []models.TradeAccount) Report {
	report := Report{
		SymbolPerformances: []SymbolPerformance{},
		MonthlySummary:     []MonthSummary{},
		DayPerformances:    map[string]*DayPerformance{},
		DayOfWeekAnalysis:  DayOfWeekDistribution(nil),
		SessionAnalysis:    SessionDistribution(nil),
	}

	if len(trades) == 0 {
		return report
	}

	balance := decimal.Zero
	for _, account := range accounts {
		balance = balance.Add(account.Balance)
	}

	var (
		totalProfit   = decimal.Zero
		totalInvested = decimal.Zero
		totalWon      = decimal.Zero
		totalLost     = decimal.Zero
		bestWin       = decimal.Zero
		worstLoss     = decimal.Zero

		long, short     int
		winning, losing int
		countable       int
		breakeven       int
		totalDuration   int64
		timedTradeCount int
	)

	for i := range trades {
		trade := &trades[i]

		totalProfit = totalProfit.Add(trade.Profit)
		totalInvested = totalInvested.Add(trade.Quantity)

		switch trade.TradeType {
		case models.TradeTypeBuy:
			long++
		case models.TradeTypeSell:
			short++
		}

		if trade.DurationInMinutes > 0 {
			totalDuration += trade.DurationInMinutes
			timedTradeCount++
		}

		if trade.IsBreakeven() {
			breakeven++
			continue
		}
		countable++

		if trade.Profit.IsPositive() {
			winning++
			totalWon = totalWon.Add(trade.Profit)
			if trade.Profit.GreaterThan(bestWin) {
				bestWin = trade.Profit
			}
		} else {
			losing++
			totalLost = totalLost.Add(trade.Profit.Abs())
			if trade.Profit.LessThan(worstLoss) {
				worstLoss = trade.Profit
			}
		}
	}

	overall := Overall{
		Balance:         balance,
		TotalTrades:     len(trades),
		TotalProfit:     totalProfit,
		TotalInvested:   totalInvested,
		Long:            long,
		Short:           short,
		BestWin:         bestWin,
		WorstLoss:       worstLoss,
		TotalWon:        totalWon,
		TotalLost:       totalLost,
		BreakevenTrades: breakeven,
		CountableTrades: countable,
	}

	if countable > 0 {
		overall.WinRate = float64(winning) / float64(countable) * 100
	}
	if winning > 0 {
		overall.AverageWin = totalWon.Div(decimal.NewFromInt(int64(winning)))
	}
	if losing > 0 {
		overall.AverageLoss = totalLost.Neg().Div(decimal.NewFromInt(int64(losing)))
	}
	if !totalLost.IsZero() {
		overall.ProfitFactor = totalWon.Div(totalLost)
	}
	if timedTradeCount > 0 {
		overall.AverageHoldingTimeMinutes = float64(totalDuration) / float64(timedTradeCount)
	}

	report.Overall = overall
	report.SymbolPerformances = symbolPerformances(trades)
	report.DayPerformances = dayPerformances(trades)
	report.MonthlySummary = monthlySummaries(trades)
	report.DayOfWeekAnalysis = DayOfWeekDistribution(trades)
	report.SessionAnalysis = SessionDistribution(trades)

	return report
}

// symbolPerformances groups trades by instrument, preserving the order in
// which each symbol was first encountered.
func symbolPerformances(trades []models.Trade) []SymbolPerformance {
	bySymbol := make(map[string]*SymbolPerformance)
	var order []string

	for i := range trades {
		trade := &trades[i]
		if trade.Symbol == "" {
			continue
		}

		perf, ok := bySymbol[trade.Symbol]
		if !ok {
			perf = &SymbolPerformance{Symbol: trade.Symbol}
			bySymbol[trade.Symbol] = perf
			order = append(order, trade.Symbol)
		}

		perf.TotalTrades++
		perf.TotalProfit = perf.TotalProfit.Add(trade.Profit)
		perf.TotalInvested = perf.TotalInvested.Add(trade.Quantity)
		if trade.IsBreakeven() {
			perf.BreakevenTrades++
		}
	}

	performances := make([]SymbolPerformance, 0, len(order))
	for _, symbol := range order {
		performances = append(performances, *bySymbol[symbol])
	}
	return performances
}

// dayPerformances buckets trades by close date. Trades without a close
// time are skipped entirely.
func dayPerformances(trades []models.Trade) map[string]*DayPerformance {
	days := make(map[string]*DayPerformance)

	for i := range trades {
		trade := &trades[i]
		if trade.CloseTime == nil {
			continue
		}

		key := trade.CloseTime.Format(dayKeyLayout)
		perf, ok := days[key]
		if !ok {
			perf = &DayPerformance{Day: key}
			days[key] = perf
		}

		perf.TotalTrades++
		perf.TotalProfit = perf.TotalProfit.Add(trade.Profit)
		if trade.Profit.IsPositive() {
			perf.TotalWon = perf.TotalWon.Add(trade.Profit)
		} else {
			perf.TotalLoss = perf.TotalLoss.Add(trade.Profit)
		}
		// Accumulates profit, not quantity; see DayPerformance.
		perf.TotalInvested = perf.TotalInvested.Add(trade.Profit)
	}

	return days
}

// monthlySummaries buckets trades by open month, preserving first-occurrence
// order. Trades without an open time are skipped.
func monthlySummaries(trades []models.Trade) []MonthSummary {
	byMonth := make(map[string]*MonthSummary)
	var order []string

	for i := range trades {
		trade := &trades[i]
		if trade.OpenTime == nil {
			continue
		}

		key := trade.OpenTime.Format(monthKeyLayout)
		summary, ok := byMonth[key]
		if !ok {
			summary = &MonthSummary{Month: key}
			byMonth[key] = summary
			order = append(order, key)
		}

		summary.TotalTrades++
		summary.TotalProfit = summary.TotalProfit.Add(trade.Profit)
		summary.TotalInvested = summary.TotalInvested.Add(trade.Profit)
	}

	summaries := make([]MonthSummary, 0, len(order))
	for _, month := range order {
		summaries = append(summaries, *byMonth[month])
	}
	return summaries
}
