package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	AccountStatusActive = "active"
	AccountStatusError  = "error"
)

const (
	SourceManual     = "manual"
	SourceMetaTrader = "metatrader"
	SourceCTrader    = "ctrader"
)

// TradeAccount is a single linked brokerage account. Balance is the
// authoritative snapshot maintained by the broker adapters; the statistics
// engine never recomputes it from trades. Accounts are soft-disabled rather
// than deleted.
type TradeAccount struct {
	gorm.Model
	UserID      uint            `gorm:"index" json:"user_id"`
	Name        string          `json:"name"`
	Source      string          `json:"source"`
	Balance     decimal.Decimal `gorm:"type:decimal(20,8)" json:"balance"`
	Disabled    bool            `json:"disabled"`
	Status      string          `gorm:"default:'active'" json:"status"`
	ExternalID  string          `gorm:"index" json:"external_id"`
	CachedAt    *time.Time      `json:"cached_at"`
	CachedUntil *time.Time      `json:"cached_until"`
}

// CacheExpired reports whether the adapter-maintained snapshot for this
// account is due for a refresh.
func (a *TradeAccount) CacheExpired(now time.Time) bool {
	return a.CachedUntil == nil || a.CachedUntil.Before(now)
}
