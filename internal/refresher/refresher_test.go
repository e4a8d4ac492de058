package refresher

import (
	"context"
	"testing"
	"time"

	"trade-journal-go/internal/config"
	"trade-journal-go/internal/ctrader"
	"trade-journal-go/internal/metaapi"
	"trade-journal-go/internal/models"
	"trade-journal-go/internal/store"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// MockMetaClient is a mock implementation of metaapi.ClientInterface.
type MockMetaClient struct {
	mock.Mock
}

func (m *MockMetaClient) GetAccountInformation(ctx context.Context, accountID string) (*metaapi.AccountInformation, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*metaapi.AccountInformation), args.Error(1)
}

func (m *MockMetaClient) GetAccountTrades(ctx context.Context, accountID string, start, end time.Time) ([]metaapi.RawTrade, error) {
	args := m.Called(ctx, accountID, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]metaapi.RawTrade), args.Error(1)
}

// MockCTraderClient is a mock implementation of ctrader.ClientInterface.
type MockCTraderClient struct {
	mock.Mock
}

func (m *MockCTraderClient) GetAccountState(ctx context.Context, account string) (*ctrader.AccountState, error) {
	args := m.Called(ctx, account)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ctrader.AccountState), args.Error(1)
}

func (m *MockCTraderClient) GetOrders(ctx context.Context, account string) ([]ctrader.Order, error) {
	args := m.Called(ctx, account)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ctrader.Order), args.Error(1)
}

// setupTest creates a refresher over an in-memory database and mock clients.
func setupTest(t *testing.T) (*Refresher, *store.Repository, *MockMetaClient, *MockCTraderClient) {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.TradeAccount{}, &models.Trade{}))

	repo := store.NewRepository(db)
	metaClient := new(MockMetaClient)
	ctraderClient := new(MockCTraderClient)

	cfg := &config.Config{
		MetaAPI: config.MetaAPI{HistoryDays: 30},
		Refresh: config.Refresh{WaitTimeout: 1, TTLMinutes: 30, Interval: 300},
	}

	r := NewRefresher(zap.NewNop(), cfg, repo, metaClient, ctraderClient)
	return r, repo, metaClient, ctraderClient
}

func seedAccount(t *testing.T, repo *store.Repository, source string, cachedUntil *time.Time) *models.TradeAccount {
	t.Helper()
	user := &models.User{Username: "alice"}
	require.NoError(t, repo.CreateUser(user))

	account := &models.TradeAccount{
		UserID:      user.ID,
		Name:        "broker-account",
		Source:      source,
		ExternalID:  "ext-1",
		Status:      models.AccountStatusActive,
		CachedUntil: cachedUntil,
	}
	require.NoError(t, repo.CreateAccount(account))
	return account
}

func TestRefreshUser_MetaTrader(t *testing.T) {
	r, repo, metaClient, _ := setupTest(t)
	account := seedAccount(t, repo, models.SourceMetaTrader, nil)

	metaClient.On("GetAccountTrades", mock.Anything, "ext-1", mock.Anything, mock.Anything).
		Return([]metaapi.RawTrade{
			{
				ID:                "ord-1",
				Type:              metaapi.DealTypeBuy,
				Symbol:            "EURUSD",
				Volume:            0.5,
				Profit:            120.5,
				DurationInMinutes: 45,
				OpenTime:          "2024-03-04 10:00:00.000",
				CloseTime:         "2024-03-04 10:45:00.000",
			},
			{ID: "dep-1", Type: metaapi.DealTypeBalance, Profit: 1000},
		}, nil)
	metaClient.On("GetAccountInformation", mock.Anything, "ext-1").
		Return(&metaapi.AccountInformation{Balance: 10500.25}, nil)

	r.RefreshUser(context.Background(), account.UserID)

	trades, err := repo.TradesForUser(account.UserID, store.TradeFilter{IncludeDeposits: true})
	require.NoError(t, err)
	require.Len(t, trades, 1) // balance row skipped
	assert.Equal(t, "ord-1", trades[0].SourceOrderID)
	assert.Equal(t, models.TradeTypeBuy, trades[0].TradeType)
	assert.NotNil(t, trades[0].OpenTime)
	assert.NotNil(t, trades[0].CloseTime)
	assert.Equal(t, int64(45), trades[0].DurationInMinutes)

	refreshed, err := repo.AccountByID(account.ID)
	require.NoError(t, err)
	assert.True(t, refreshed.Balance.Equal(decimal.NewFromFloat(10500.25)))
	assert.Equal(t, models.AccountStatusActive, refreshed.Status)
	assert.NotNil(t, refreshed.CachedUntil)
	metaClient.AssertExpectations(t)
}

func TestRefreshUser_RepeatedRefreshDoesNotDuplicate(t *testing.T) {
	r, repo, metaClient, _ := setupTest(t)
	account := seedAccount(t, repo, models.SourceMetaTrader, nil)

	metaClient.On("GetAccountTrades", mock.Anything, "ext-1", mock.Anything, mock.Anything).
		Return([]metaapi.RawTrade{
			{ID: "ord-1", Type: metaapi.DealTypeSell, Symbol: "EURUSD", Profit: 10},
		}, nil)
	metaClient.On("GetAccountInformation", mock.Anything, "ext-1").
		Return(&metaapi.AccountInformation{Balance: 500}, nil)

	r.RefreshUser(context.Background(), account.UserID)

	// Force the cache stale again and refresh a second time.
	stale, err := repo.AccountByID(account.ID)
	require.NoError(t, err)
	past := time.Now().Add(-time.Hour)
	stale.CachedUntil = &past
	require.NoError(t, repo.SaveAccount(stale))

	r.RefreshUser(context.Background(), account.UserID)

	trades, err := repo.TradesForUser(account.UserID, store.TradeFilter{IncludeDeposits: true})
	require.NoError(t, err)
	assert.Len(t, trades, 1)
}

func TestRefreshUser_SkipsFreshAccounts(t *testing.T) {
	r, repo, metaClient, _ := setupTest(t)
	future := time.Now().Add(time.Hour)
	account := seedAccount(t, repo, models.SourceMetaTrader, &future)

	r.RefreshUser(context.Background(), account.UserID)

	metaClient.AssertNotCalled(t, "GetAccountTrades", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRefreshUser_ErrorMarksAccount(t *testing.T) {
	r, repo, metaClient, _ := setupTest(t)
	account := seedAccount(t, repo, models.SourceMetaTrader, nil)

	metaClient.On("GetAccountTrades", mock.Anything, "ext-1", mock.Anything, mock.Anything).
		Return(nil, assert.AnError)

	r.RefreshUser(context.Background(), account.UserID)

	refreshed, err := repo.AccountByID(account.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AccountStatusError, refreshed.Status)
	assert.Nil(t, refreshed.CachedUntil)
}

func TestRefreshUser_CTrader(t *testing.T) {
	r, repo, _, ctraderClient := setupTest(t)
	account := seedAccount(t, repo, models.SourceCTrader, nil)

	ctraderClient.On("GetOrders", mock.Anything, "ext-1").
		Return([]ctrader.Order{
			{
				OrdID:       "c-1",
				Name:        "XAUUSD",
				Side:        "SELL",
				Amount:      1.5,
				Price:       2100,
				ActualPrice: 2101.5,
				Profit:      -42,
				OpenTime:    "2024-03-04 09:00:00",
				CloseTime:   "2024-03-04 12:00:00",
			},
		}, nil)
	ctraderClient.On("GetAccountState", mock.Anything, "ext-1").
		Return(&ctrader.AccountState{Balance: 2500}, nil)

	r.RefreshUser(context.Background(), account.UserID)

	trades, err := repo.TradesForUser(account.UserID, store.TradeFilter{})
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, models.TradeTypeSell, trades[0].TradeType)
	assert.Equal(t, "XAUUSD", trades[0].Symbol)

	refreshed, err := repo.AccountByID(account.ID)
	require.NoError(t, err)
	assert.True(t, refreshed.Balance.Equal(decimal.NewFromInt(2500)))
	ctraderClient.AssertExpectations(t)
}

// slowMetaClient blocks long enough to outlast the caller's wait bound.
type slowMetaClient struct{}

func (s *slowMetaClient) GetAccountTrades(ctx context.Context, accountID string, start, end time.Time) ([]metaapi.RawTrade, error) {
	time.Sleep(3 * time.Second)
	return nil, nil
}

func (s *slowMetaClient) GetAccountInformation(ctx context.Context, accountID string) (*metaapi.AccountInformation, error) {
	return &metaapi.AccountInformation{}, nil
}

func TestRefresh_BoundedWait(t *testing.T) {
	r, repo, _, _ := setupTest(t)
	account := seedAccount(t, repo, models.SourceMetaTrader, nil)
	r.meta = &slowMetaClient{}

	started := time.Now()
	r.Refresh(context.Background(), account.UserID)

	// The caller proceeds after the wait bound, not after the slow call.
	assert.Less(t, time.Since(started), 2500*time.Millisecond)
}

func TestRun_ZeroIntervalDoesNotPanic(t *testing.T) {
	r, _, _, _ := setupTest(t)
	r.cfg.Refresh.Interval = 0

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Must fall back to a sane interval and exit on the dead context.
	r.Run(ctx)
}

func TestParseBrokerTime(t *testing.T) {
	assert.Nil(t, parseBrokerTime(""))
	assert.Nil(t, parseBrokerTime("not-a-time"))

	parsed := parseBrokerTime("2024-03-04 10:00:00.000")
	require.NotNil(t, parsed)
	assert.Equal(t, 10, parsed.Hour())

	parsed = parseBrokerTime("2024-03-04T10:00:00Z")
	require.NotNil(t, parsed)
	assert.Equal(t, 2024, parsed.Year())
}
