// Package stats computes performance analytics over already-materialized
// trade and account collections. Every function here is pure: no shared
// state, safe to call concurrently for different users.
package stats

import (
	"time"

	"github.com/shopspring/decimal"
)

// Overall aggregates a whole trade set into headline metrics. Balance is
// the sum of the supplied accounts' current balances, never recomputed
// from trades.
type Overall struct {
	Balance                   decimal.Decimal `json:"balance"`
	TotalTrades               int             `json:"total_trades"`
	TotalProfit               decimal.Decimal `json:"total_profit"`
	TotalInvested             decimal.Decimal `json:"total_invested"`
	Long                      int             `json:"long"`
	Short                     int             `json:"short"`
	WinRate                   float64         `json:"win_rate"`
	BestWin                   decimal.Decimal `json:"best_win"`
	WorstLoss                 decimal.Decimal `json:"worst_loss"`
	AverageWin                decimal.Decimal `json:"average_win"`
	AverageLoss               decimal.Decimal `json:"average_loss"`
	ProfitFactor              decimal.Decimal `json:"profit_factor"`
	TotalWon                  decimal.Decimal `json:"total_won"`
	TotalLost                 decimal.Decimal `json:"total_lost"`
	AverageHoldingTimeMinutes float64         `json:"average_holding_time_minutes"`
	BreakevenTrades           int             `json:"breakeven_trades"`
	CountableTrades           int             `json:"countable_trades"`
}

// SymbolPerformance aggregates trades for a single instrument.
type SymbolPerformance struct {
	Symbol          string          `json:"symbol"`
	TotalTrades     int             `json:"total_trades"`
	TotalProfit     decimal.Decimal `json:"total_profit"`
	TotalInvested   decimal.Decimal `json:"total_invested"`
	BreakevenTrades int             `json:"breakeven_trades"`
}

// DayPerformance aggregates trades closed on a single calendar day.
// TotalInvested accumulates profit, not quantity; the field name is kept
// for compatibility with existing consumers of the report.
type DayPerformance struct {
	Day           string          `json:"day"`
	TotalTrades   int             `json:"total_trades"`
	TotalProfit   decimal.Decimal `json:"total_profit"`
	TotalWon      decimal.Decimal `json:"total_won"`
	TotalLoss     decimal.Decimal `json:"total_loss"`
	TotalInvested decimal.Decimal `json:"total_invested"`
}

// MonthSummary aggregates trades opened in a single calendar month.
// TotalInvested accumulates profit, matching DayPerformance.
type MonthSummary struct {
	Month         string          `json:"month"`
	TotalTrades   int             `json:"total_trades"`
	TotalProfit   decimal.Decimal `json:"total_profit"`
	TotalInvested decimal.Decimal `json:"total_invested"`
}

// Distribution is a bucketed activity analysis normalized 0-1 against the
// busiest bucket. An all-zero input yields 0 for every bucket.
type Distribution struct {
	Distribution map[string]float64 `json:"distribution"`
	RawCounts    map[string]int     `json:"raw_counts"`
	TotalTrades  int                `json:"total_trades"`
}

// Report is the full statistics output for one user-scoped trade set.
type Report struct {
	Overall            Overall                    `json:"overall_statistics"`
	SymbolPerformances []SymbolPerformance        `json:"symbol_performances"`
	MonthlySummary     []MonthSummary             `json:"monthly_summary"`
	DayPerformances    map[string]*DayPerformance `json:"day_performances"`
	DayOfWeekAnalysis  Distribution               `json:"day_of_week_analysis"`
	SessionAnalysis    Distribution               `json:"session_analysis"`
}

// LeaderboardEntry ranks one user by aggregate profit.
type LeaderboardEntry struct {
	Username    string          `json:"username"`
	TotalProfit decimal.Decimal `json:"total_profit"`
	TotalTrades int             `json:"total_trades"`
	WinRate     float64         `json:"win_rate"`
}

// AccountPerformance holds per-account totals for the performance view.
type AccountPerformance struct {
	AccountID      uint            `json:"account_id"`
	AccountName    string          `json:"account_name"`
	CurrentBalance decimal.Decimal `json:"current_balance"`
	TotalTrades    int             `json:"total_trades"`
	TotalProfit    decimal.Decimal `json:"total_profit"`
	LastUpdated    time.Time       `json:"last_updated"`
}

// PerformanceReport combines user-wide totals with per-account rows.
type PerformanceReport struct {
	TotalProfit         decimal.Decimal      `json:"total_profit"`
	TotalTrades         int                  `json:"total_trades"`
	AccountPerformances []AccountPerformance `json:"accounts_performance"`
}
