// Package refresher keeps locally cached broker data fresh. It is a
// best-effort, stale-read-allowed collaborator: callers wait a bounded
// time for a refresh and then proceed with whatever is persisted. The
// statistics engine never talks to it directly; it only ever sees
// already-resolved trade records.
package refresher

import (
	"context"
	"strings"
	"time"

	"trade-journal-go/internal/config"
	"trade-journal-go/internal/ctrader"
	"trade-journal-go/internal/metaapi"
	"trade-journal-go/internal/models"
	"trade-journal-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// brokerTimeLayouts are tried in order when parsing adapter timestamps.
var brokerTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05.000",
	"2006-01-02 15:04:05",
}

// Refresher refreshes each linked account whose cached snapshot has
// passed its TTL, upserting trades keyed by source order id and updating
// the account balance.
type Refresher struct {
	logger  *zap.Logger
	cfg     *config.Config
	repo    *store.Repository
	meta    metaapi.ClientInterface
	ctrader ctrader.ClientInterface
}

// NewRefresher creates a refresher over the given broker clients.
func NewRefresher(logger *zap.Logger, cfg *config.Config, repo *store.Repository, meta metaapi.ClientInterface, ct ctrader.ClientInterface) *Refresher {
	return &Refresher{
		logger:  logger,
		cfg:     cfg,
		repo:    repo,
		meta:    meta,
		ctrader: ct,
	}
}

// Refresh kicks off a refresh of the user's stale accounts and waits at
// most the configured bound for it to finish. Failures are logged, never
// returned; the caller proceeds with the data currently persisted.
func (r *Refresher) Refresh(ctx context.Context, userID uint) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		// Detached from the caller's context so a slow broker call can
		// finish in the background after the caller stops waiting.
		r.RefreshUser(context.Background(), userID)
	}()

	select {
	case <-done:
	case <-time.After(r.cfg.Refresh.WaitTimeoutDuration()):
		r.logger.Warn("Broker refresh still running, proceeding with cached data",
			zap.Uint("user_id", userID))
	case <-ctx.Done():
	}
}

// RefreshUser synchronously refreshes every stale account of one user.
func (r *Refresher) RefreshUser(ctx context.Context, userID uint) {
	accounts, err := r.repo.AccountsForUser(userID, nil, nil)
	if err != nil {
		r.logger.Error("Failed to list accounts for refresh", zap.Uint("user_id", userID), zap.Error(err))
		return
	}

	now := time.Now()
	for i := range accounts {
		account := &accounts[i]
		if !account.CacheExpired(now) {
			continue
		}

		switch account.Source {
		case models.SourceMetaTrader:
			r.refreshMetaTrader(ctx, account)
		case models.SourceCTrader:
			r.refreshCTrader(ctx, account)
		default:
			// Manual accounts have nothing to refresh.
		}
	}
}

// Run periodically refreshes every user's accounts until the context is
// cancelled.
func (r *Refresher) Run(ctx context.Context) {
	interval := time.Duration(r.cfg.Refresh.Interval) * time.Second
	if interval <= 0 {
		// A zero or negative configured interval would panic the ticker.
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	r.logger.Info("Starting broker refresh loop", zap.Duration("interval", interval))

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("Stopping broker refresh loop...")
			return
		case <-ticker.C:
			users, err := r.repo.AllUsers()
			if err != nil {
				r.logger.Error("Failed to list users for refresh", zap.Error(err))
				continue
			}
			for _, user := range users {
				r.RefreshUser(ctx, user.ID)
			}
		}
	}
}

func (r *Refresher) refreshMetaTrader(ctx context.Context, account *models.TradeAccount) {
	l := r.logger.With(zap.Uint("account_id", account.ID), zap.String("external_id", account.ExternalID))

	end := time.Now()
	start := end.AddDate(0, 0, -r.cfg.MetaAPI.HistoryDays)

	rawTrades, err := r.meta.GetAccountTrades(ctx, account.ExternalID, start, end)
	if err != nil {
		l.Error("Failed to fetch MetaTrader trades", zap.Error(err))
		r.markError(account)
		return
	}

	for _, raw := range rawTrades {
		// Balance rows are deposits/withdrawals, not positions.
		if raw.Type == metaapi.DealTypeBalance {
			continue
		}

		trade := models.Trade{
			AccountID:         account.ID,
			SourceOrderID:     raw.ID,
			Symbol:            raw.Symbol,
			TradeType:         metaTradeType(raw.Type),
			Quantity:          decimal.NewFromFloat(raw.Volume),
			Price:             decimal.NewFromFloat(raw.OpenPrice),
			ActualPrice:       decimal.NewFromFloat(raw.ClosePrice),
			Profit:            decimal.NewFromFloat(raw.Profit),
			DurationInMinutes: raw.DurationInMinutes,
			OpenTime:          parseBrokerTime(raw.OpenTime),
			CloseTime:         parseBrokerTime(raw.CloseTime),
		}
		if err := r.repo.UpsertTrade(&trade); err != nil {
			l.Error("Failed to upsert MetaTrader trade", zap.String("order_id", raw.ID), zap.Error(err))
		}
	}

	info, err := r.meta.GetAccountInformation(ctx, account.ExternalID)
	if err != nil {
		l.Error("Failed to fetch MetaTrader account information", zap.Error(err))
		r.markError(account)
		return
	}

	r.markFresh(account, decimal.NewFromFloat(info.Balance))
	l.Info("Refreshed MetaTrader account", zap.Int("trades", len(rawTrades)))
}

func (r *Refresher) refreshCTrader(ctx context.Context, account *models.TradeAccount) {
	l := r.logger.With(zap.Uint("account_id", account.ID), zap.String("external_id", account.ExternalID))

	orders, err := r.ctrader.GetOrders(ctx, account.ExternalID)
	if err != nil {
		l.Error("Failed to fetch cTrader orders", zap.Error(err))
		r.markError(account)
		return
	}

	for _, order := range orders {
		trade := models.Trade{
			AccountID:     account.ID,
			SourceOrderID: order.OrdID,
			Symbol:        order.Name,
			TradeType:     strings.ToLower(order.Side),
			Quantity:      decimal.NewFromFloat(order.Amount),
			Price:         decimal.NewFromFloat(order.Price),
			ActualPrice:   decimal.NewFromFloat(order.ActualPrice),
			Profit:        decimal.NewFromFloat(order.Profit),
			OpenTime:      parseBrokerTime(order.OpenTime),
			CloseTime:     parseBrokerTime(order.CloseTime),
		}
		if err := r.repo.UpsertTrade(&trade); err != nil {
			l.Error("Failed to upsert cTrader order", zap.String("order_id", order.OrdID), zap.Error(err))
		}
	}

	state, err := r.ctrader.GetAccountState(ctx, account.ExternalID)
	if err != nil {
		l.Error("Failed to fetch cTrader account state", zap.Error(err))
		r.markError(account)
		return
	}

	r.markFresh(account, decimal.NewFromFloat(state.Balance))
	l.Info("Refreshed cTrader account", zap.Int("orders", len(orders)))
}

// markFresh stores the new balance and stamps the freshness window.
func (r *Refresher) markFresh(account *models.TradeAccount, balance decimal.Decimal) {
	now := time.Now()
	until := now.Add(r.cfg.Refresh.TTL())
	account.Balance = balance
	account.Status = models.AccountStatusActive
	account.CachedAt = &now
	account.CachedUntil = &until
	if err := r.repo.SaveAccount(account); err != nil {
		r.logger.Error("Failed to save refreshed account", zap.Uint("account_id", account.ID), zap.Error(err))
	}
}

// markError flags the account without touching the cached snapshot, so
// the next caller retries instead of serving a bogus balance.
func (r *Refresher) markError(account *models.TradeAccount) {
	account.Status = models.AccountStatusError
	if err := r.repo.SaveAccount(account); err != nil {
		r.logger.Error("Failed to save account error status", zap.Uint("account_id", account.ID), zap.Error(err))
	}
}

func metaTradeType(dealType string) string {
	if dealType == metaapi.DealTypeSell {
		return models.TradeTypeSell
	}
	return models.TradeTypeBuy
}

// parseBrokerTime tries the known adapter timestamp layouts, returning
// nil for empty or unparseable values so the trade is simply excluded
// from time-keyed aggregations.
func parseBrokerTime(value string) *time.Time {
	if value == "" {
		return nil
	}
	for _, layout := range brokerTimeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return &t
		}
	}
	return nil
}
