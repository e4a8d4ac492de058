package metaapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// setupTestServer creates a new test server and a Client configured to use it.
func setupTestServer(handler http.Handler) (*Client, *httptest.Server) {
	server := httptest.NewServer(handler)

	c := &Client{
		client:  resty.New().SetBaseURL(server.URL),
		token:   "test_token",
		logger:  zap.NewNop(),
		limiter: rate.NewLimiter(rate.Inf, 1), // Allow all requests in tests
	}

	return c, server
}

func TestGetAccountInformation(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/users/current/accounts/acc-1/account-information", r.URL.Path)
			assert.Equal(t, "test_token", r.Header.Get("auth-token"))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"balance": 10500.25, "equity": 10400.0, "currency": "USD", "broker": "TestBroker"}`))
		})

		c, server := setupTestServer(handler)
		defer server.Close()

		info, err := c.GetAccountInformation(context.Background(), "acc-1")

		assert.NoError(t, err)
		assert.Equal(t, 10500.25, info.Balance)
		assert.Equal(t, "USD", info.Currency)
	})

	t.Run("APIError", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message": "invalid token"}`))
		})

		c, server := setupTestServer(handler)
		defer server.Close()

		info, err := c.GetAccountInformation(context.Background(), "acc-1")

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to get account information")
		assert.Nil(t, info)
	})
}

func TestGetAccountTrades(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/users/current/accounts/acc-1/historical-trades", r.URL.Path)
			assert.NotEmpty(t, r.URL.Query().Get("startTime"))
			assert.NotEmpty(t, r.URL.Query().Get("endTime"))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`[
				{"_id": "t-1", "type": "DEAL_TYPE_BUY", "symbol": "EURUSD", "volume": 0.5,
				 "profit": 120.5, "durationInMinutes": 45,
				 "openTime": "2024-03-04 10:00:00.000", "closeTime": "2024-03-04 10:45:00.000"},
				{"_id": "t-2", "type": "DEAL_TYPE_BALANCE", "profit": 1000}
			]`))
		})

		c, server := setupTestServer(handler)
		defer server.Close()

		end := time.Now()
		trades, err := c.GetAccountTrades(context.Background(), "acc-1", end.AddDate(0, 0, -30), end)

		assert.NoError(t, err)
		assert.Len(t, trades, 2)
		assert.Equal(t, "t-1", trades[0].ID)
		assert.Equal(t, DealTypeBuy, trades[0].Type)
		assert.Equal(t, 120.5, trades[0].Profit)
		assert.Equal(t, DealTypeBalance, trades[1].Type)
	})

	t.Run("ServerError", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"message": "bad request"}`))
		})

		c, server := setupTestServer(handler)
		defer server.Close()

		trades, err := c.GetAccountTrades(context.Background(), "acc-1", time.Now().AddDate(0, 0, -1), time.Now())

		assert.Error(t, err)
		assert.Nil(t, trades)
	})
}
