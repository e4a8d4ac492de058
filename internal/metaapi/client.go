package metaapi

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"trade-journal-go/internal/config"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const timeQueryLayout = "2006-01-02 15:04:05.000"

// Trade type values as reported by the MetaTrader API. Balance rows are
// deposits/withdrawals, not positions.
const (
	DealTypeBuy     = "DEAL_TYPE_BUY"
	DealTypeSell    = "DEAL_TYPE_SELL"
	DealTypeBalance = "DEAL_TYPE_BALANCE"
)

// AccountInformation is the broker-side snapshot of one account.
type AccountInformation struct {
	Balance  float64 `json:"balance"`
	Equity   float64 `json:"equity"`
	Currency string  `json:"currency"`
	Broker   string  `json:"broker"`
}

// RawTrade is one historical trade exactly as the API reports it.
// Timestamps stay strings here; normalization into trade records happens
// at the ingest layer.
type RawTrade struct {
	ID                string  `json:"_id"`
	Type              string  `json:"type"`
	Symbol            string  `json:"symbol"`
	Volume            float64 `json:"volume"`
	Profit            float64 `json:"profit"`
	Gain              float64 `json:"gain"`
	Success           string  `json:"success"`
	DurationInMinutes int64   `json:"durationInMinutes"`
	OpenPrice         float64 `json:"openPrice"`
	ClosePrice        float64 `json:"closePrice"`
	OpenTime          string  `json:"openTime"`
	CloseTime         string  `json:"closeTime"`
}

// ClientInterface defines the MetaTrader API surface the journal needs.
type ClientInterface interface {
	GetAccountInformation(ctx context.Context, accountID string) (*AccountInformation, error)
	GetAccountTrades(ctx context.Context, accountID string, start, end time.Time) ([]RawTrade, error)
}

// Client is a REST client for a MetaTrader cloud API.
// It implements ClientInterface.
type Client struct {
	client  *resty.Client
	token   string
	logger  *zap.Logger
	limiter *rate.Limiter
}

// ensure Client implements the interface
var _ ClientInterface = (*Client)(nil)

// NewClient creates a new MetaTrader API client.
func NewClient(cfg *config.MetaAPI, logger *zap.Logger) *Client {
	client := resty.New().SetBaseURL(cfg.BaseURL)

	// rate.Limit is requests per second.
	limiter := rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateLimitBurst)

	return &Client{
		client:  client,
		token:   cfg.Token,
		logger:  logger,
		limiter: limiter,
	}
}

// doRequest handles the actual request execution with rate limiting and retry logic.
func (c *Client) doRequest(ctx context.Context, method, url string, req *resty.Request) (*resty.Response, error) {
	var resp *resty.Response
	var err error
	const maxRetries = 3

	for i := 0; i < maxRetries; i++ {
		// Wait for the rate limiter
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter wait failed: %w", err)
		}

		c.logger.Debug("Executing request", zap.String("method", method), zap.String("url", c.client.BaseURL+url))
		resp, err = req.Execute(method, url)

		if err == nil && !resp.IsError() {
			return resp, nil // Success
		}

		// Analyze error and decide whether to retry
		shouldRetry := false
		var retryAfter time.Duration

		if resp != nil {
			statusCode := resp.StatusCode()
			if statusCode == http.StatusTooManyRequests {
				shouldRetry = true
				retryAfterHeader := resp.Header().Get("Retry-After")
				if seconds, err := strconv.Atoi(retryAfterHeader); err == nil {
					retryAfter = time.Duration(seconds) * time.Second
				}
			} else if statusCode >= 500 { // Server errors
				shouldRetry = true
			}
		} else { // Network or other client-side errors
			shouldRetry = true
		}

		if !shouldRetry {
			return nil, fmt.Errorf("request failed with status %s: %s", resp.Status(), resp.String())
		}

		// If we should retry, calculate wait time
		if retryAfter == 0 {
			// Exponential backoff: 1s, 2s, 4s
			retryAfter = time.Duration(math.Pow(2, float64(i))) * time.Second
		}

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

// GetAccountInformation fetches the current balance snapshot for an account.
func (c *Client) GetAccountInformation(ctx context.Context, accountID string) (*AccountInformation, error) {
	req := c.client.R().
		SetHeader("auth-token", c.token).
		SetResult(&AccountInformation{})

	url := fmt.Sprintf("/users/current/accounts/%s/account-information", accountID)
	resp, err := c.doRequest(ctx, "GET", url, req)
	if err != nil {
		return nil, fmt.Errorf("failed to get account information for %s: %w", accountID, err)
	}

	return resp.Result().(*AccountInformation), nil
}

// GetAccountTrades fetches the account's historical trades in [start, end].
func (c *Client) GetAccountTrades(ctx context.Context, accountID string, start, end time.Time) ([]RawTrade, error) {
	var trades []RawTrade

	req := c.client.R().
		SetHeader("auth-token", c.token).
		SetQueryParam("startTime", start.UTC().Format(timeQueryLayout)).
		SetQueryParam("endTime", end.UTC().Format(timeQueryLayout)).
		SetResult(&trades)

	url := fmt.Sprintf("/users/current/accounts/%s/historical-trades", accountID)
	resp, err := c.doRequest(ctx, "GET", url, req)
	if err != nil {
		return nil, fmt.Errorf("failed to get trades for %s: %w", accountID, err)
	}

	result := resp.Result().(*[]RawTrade)
	return *result, nil
}
