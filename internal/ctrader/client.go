package ctrader

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"time"

	"trade-journal-go/internal/config"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Order is one closed order exactly as the cTrader API reports it.
type Order struct {
	OrdID       string  `json:"ord_id"`
	Name        string  `json:"name"` // instrument name
	Side        string  `json:"side"` // "buy" or "sell"
	Amount      float64 `json:"amount"`
	Price       float64 `json:"price"`
	ActualPrice float64 `json:"actual_price"`
	PosID       string  `json:"pos_id"`
	ClID        string  `json:"clid"`
	Type        string  `json:"type"`
	OpenTime    string  `json:"open_time"`
	CloseTime   string  `json:"close_time"`
	Profit      float64 `json:"profit"`
}

// AccountState is the broker-side balance snapshot.
type AccountState struct {
	Balance float64 `json:"balance"`
	Demo    bool    `json:"demo"`
}

// ClientInterface defines the cTrader API surface the journal needs.
type ClientInterface interface {
	GetAccountState(ctx context.Context, account string) (*AccountState, error)
	GetOrders(ctx context.Context, account string) ([]Order, error)
}

// Client is a REST client for a cTrader gateway.
type Client struct {
	client  *resty.Client
	token   string
	logger  *zap.Logger
	limiter *rate.Limiter
}

var _ ClientInterface = (*Client)(nil)

// NewClient creates a new cTrader gateway client.
func NewClient(cfg *config.CTrader, logger *zap.Logger) *Client {
	return &Client{
		client:  resty.New().SetBaseURL(cfg.BaseURL),
		token:   cfg.Token,
		logger:  logger,
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateLimitBurst),
	}
}

func (c *Client) doRequest(ctx context.Context, method, url string, req *resty.Request) (*resty.Response, error) {
	var resp *resty.Response
	var err error
	const maxRetries = 3

	for i := 0; i < maxRetries; i++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter wait failed: %w", err)
		}

		resp, err = req.Execute(method, url)
		if err == nil && !resp.IsError() {
			return resp, nil
		}

		shouldRetry := err != nil ||
			resp.StatusCode() == http.StatusTooManyRequests ||
			resp.StatusCode() >= 500
		if !shouldRetry {
			return nil, fmt.Errorf("request failed with status %s: %s", resp.Status(), resp.String())
		}

		retryAfter := time.Duration(math.Pow(2, float64(i))) * time.Second
		c.logger.Warn("Request failed, retrying...",
			zap.Int("attempt", i+1),
			zap.Duration("retry_after", retryAfter),
			zap.Error(err),
		)

		select {
		case <-time.After(retryAfter):
			continue
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return nil, fmt.Errorf("request failed after %d attempts: %w", maxRetries, err)
}

// GetAccountState fetches the current balance snapshot for an account.
func (c *Client) GetAccountState(ctx context.Context, account string) (*AccountState, error) {
	req := c.client.R().
		SetHeader("Authorization", "Bearer "+c.token).
		SetResult(&AccountState{})

	resp, err := c.doRequest(ctx, "GET", fmt.Sprintf("/accounts/%s", account), req)
	if err != nil {
		return nil, fmt.Errorf("failed to get account state for %s: %w", account, err)
	}
	return resp.Result().(*AccountState), nil
}

// GetOrders fetches the account's order history.
func (c *Client) GetOrders(ctx context.Context, account string) ([]Order, error) {
	var orders []Order
	req := c.client.R().
		SetHeader("Authorization", "Bearer "+c.token).
		SetResult(&orders)

	resp, err := c.doRequest(ctx, "GET", fmt.Sprintf("/accounts/%s/orders", account), req)
	if err != nil {
		return nil, fmt.Errorf("failed to get orders for %s: %w", account, err)
	}
	return *resp.Result().(*[]Order), nil
}
