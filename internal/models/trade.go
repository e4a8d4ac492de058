package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	TradeTypeBuy  = "buy"
	TradeTypeSell = "sell"
)

// Trade represents a single normalized position, regardless of which
// integration produced it. Quantity is kept non-negative; direction is
// encoded by TradeType.
type Trade struct {
	gorm.Model
	AccountID         uint            `gorm:"uniqueIndex:idx_account_order" json:"account_id"`
	SourceOrderID     string          `gorm:"uniqueIndex:idx_account_order" json:"source_order_id"`
	Symbol            string          `json:"symbol"`
	TradeType         string          `json:"trade_type"` // "buy" or "sell"
	Quantity          decimal.Decimal `gorm:"type:decimal(20,8)" json:"quantity"`
	Price             decimal.Decimal `gorm:"type:decimal(20,8)" json:"price"`
	ActualPrice       decimal.Decimal `gorm:"type:decimal(20,8)" json:"actual_price"`
	Profit            decimal.Decimal `gorm:"type:decimal(20,8)" json:"profit"`
	DurationInMinutes int64           `json:"duration_in_minutes"`
	OpenTime          *time.Time      `json:"open_time"`
	CloseTime         *time.Time      `json:"close_time"`
	IsTopUp           bool            `json:"is_top_up"`
}

// BeforeCreate assigns a synthetic order id to trades that arrive without
// one, so every trade satisfies the (account_id, source_order_id) unique
// index. Broker-ingested trades keep the id the broker reported.
func (t *Trade) BeforeCreate(tx *gorm.DB) error {
	if t.SourceOrderID == "" {
		t.SourceOrderID = uuid.NewString()
	}
	return nil
}

// IsBreakeven reports whether the trade closed with exactly zero profit.
func (t *Trade) IsBreakeven() bool {
	return t.Profit.IsZero()
}

// ShouldCountForStatistics reports whether the trade participates in
// win/loss ratios. Breakeven trades count toward totals but are excluded
// from ratio calculations.
func (t *Trade) ShouldCountForStatistics() bool {
	return !t.IsBreakeven()
}

// CloseOrOpenTime returns the close time when the position is closed,
// otherwise the open time. Nil when the trade carries no timestamps at all.
func (t *Trade) CloseOrOpenTime() *time.Time {
	if t.CloseTime != nil {
		return t.CloseTime
	}
	return t.OpenTime
}
