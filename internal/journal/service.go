package journal

import (
	"context"
	"fmt"
	"time"

	"trade-journal-go/internal/models"
	"trade-journal-go/internal/stats"
	"trade-journal-go/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// BrokerRefresher is the bounded-wait cache refresh collaborator. Refresh
// returns once the caches are up to date or the wait bound elapses,
// whichever comes first.
type BrokerRefresher interface {
	Refresh(ctx context.Context, userID uint)
}

// Service aggregates trades from every integration into per-user reports.
type Service struct {
	UUID      string
	StartTime time.Time

	logger    *zap.Logger
	repo      *store.Repository
	refresher BrokerRefresher
}

// NewService creates the journal service.
func NewService(logger *zap.Logger, repo *store.Repository, refresher BrokerRefresher) *Service {
	return &Service{
		UUID:      uuid.NewString(),
		StartTime: time.Now(),
		logger:    logger,
		repo:      repo,
		refresher: refresher,
	}
}

// AllTrades returns the user's trades, newest close first, after a
// bounded-wait broker refresh.
func (s *Service) AllTrades(ctx context.Context, userID uint, from, to *time.Time, includeDeposits bool) ([]models.Trade, error) {
	s.refresher.Refresh(ctx, userID)
	return s.repo.TradesForUser(userID, store.TradeFilter{
		From:            from,
		To:              to,
		IncludeDeposits: includeDeposits,
	})
}

// Statistics computes the full statistics report for the user, optionally
// restricted to a close-time range.
func (s *Service) Statistics(ctx context.Context, userID uint, from, to *time.Time) (stats.Report, error) {
	trades, err := s.AllTrades(ctx, userID, from, to, false)
	if err != nil {
		return stats.Report{}, err
	}

	accounts, err := s.repo.AccountsForUser(userID, nil, nil)
	if err != nil {
		return stats.Report{}, err
	}

	return stats.Calculate(trades, accounts), nil
}

// BalanceChart reconstructs the user's cumulative-profit series. Top-up
// pseudo-trades are included so deposits and withdrawals move the curve.
func (s *Service) BalanceChart(ctx context.Context, userID uint, from, to *time.Time) (map[string]decimal.Decimal, error) {
	trades, err := s.AllTrades(ctx, userID, nil, nil, true)
	if err != nil {
		return nil, err
	}
	return stats.BalanceChart(trades, from, to, time.Now()), nil
}

// AccountPerformance computes per-account totals over a single trade
// fetch for the user.
func (s *Service) AccountPerformance(ctx context.Context, userID uint, disabled *bool) (stats.PerformanceReport, error) {
	trades, err := s.AllTrades(ctx, userID, nil, nil, false)
	if err != nil {
		return stats.PerformanceReport{}, err
	}

	accounts, err := s.repo.AccountsForUser(userID, nil, disabled)
	if err != nil {
		return stats.PerformanceReport{}, err
	}

	return stats.AccountPerformances(trades, accounts), nil
}

// Leaderboard ranks every user by aggregate profit across their full
// trade history.
func (s *Service) Leaderboard(ctx context.Context) ([]stats.LeaderboardEntry, error) {
	users, err := s.repo.AllUsers()
	if err != nil {
		return nil, err
	}

	rows := make([]stats.UserTrades, 0, len(users))
	for _, user := range users {
		trades, err := s.repo.TradesForUser(user.ID, store.TradeFilter{})
		if err != nil {
			return nil, err
		}
		rows = append(rows, stats.UserTrades{Username: user.Username, Trades: trades})
	}

	return stats.BuildLeaderboard(rows), nil
}

// ManualTradeInput is the payload for the manual entry source.
type ManualTradeInput struct {
	AccountID uint            `json:"account_id"`
	Symbol    string          `json:"symbol"`
	TradeType string          `json:"trade_type"`
	Quantity  decimal.Decimal `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Profit    decimal.Decimal `json:"profit"`
	OpenTime  *time.Time      `json:"open_time"`
	CloseTime *time.Time      `json:"close_time"`
	IsTopUp   bool            `json:"is_top_up"`
}

// RecordManualTrade validates and persists a manually entered trade on
// one of the user's own accounts.
func (s *Service) RecordManualTrade(ctx context.Context, userID uint, input ManualTradeInput) (*models.Trade, error) {
	account, err := s.repo.AccountByID(input.AccountID)
	if err != nil {
		return nil, fmt.Errorf("could not load account %d: %w", input.AccountID, err)
	}
	if account.UserID != userID {
		return nil, fmt.Errorf("account %d does not belong to user %d", input.AccountID, userID)
	}

	if !input.IsTopUp && input.TradeType != models.TradeTypeBuy && input.TradeType != models.TradeTypeSell {
		return nil, fmt.Errorf("invalid trade type %q", input.TradeType)
	}
	if input.Quantity.IsNegative() {
		return nil, fmt.Errorf("quantity must not be negative")
	}

	trade := models.Trade{
		AccountID: input.AccountID,
		Symbol:    input.Symbol,
		TradeType: input.TradeType,
		Quantity:  input.Quantity,
		Price:     input.Price,
		Profit:    input.Profit,
		OpenTime:  input.OpenTime,
		CloseTime: input.CloseTime,
		IsTopUp:   input.IsTopUp,
	}
	if input.OpenTime != nil && input.CloseTime != nil {
		trade.DurationInMinutes = int64(input.CloseTime.Sub(*input.OpenTime).Minutes())
	}

	if err := s.repo.CreateTrade(&trade); err != nil {
		return nil, fmt.Errorf("could not save trade: %w", err)
	}

	s.logger.Info("Recorded manual trade",
		zap.Uint("user_id", userID),
		zap.Uint("account_id", input.AccountID),
		zap.String("symbol", input.Symbol),
	)
	return &trade, nil
}

// TradeNoteInput is the payload for creating or updating a trade note.
type TradeNoteInput struct {
	TradeID  uint       `json:"trade_id"`
	Note     string     `json:"trade_note"`
	NoteDate *time.Time `json:"note_date"`
}

// AddTradeNote validates and persists a journal note for the user. The
// trade reference is optional; when present it must point at one of the
// user's own trades.
func (s *Service) AddTradeNote(ctx context.Context, userID uint, input TradeNoteInput) (*models.TradeNote, error) {
	if input.Note == "" {
		return nil, fmt.Errorf("note text must not be empty")
	}
	if input.TradeID != 0 {
		if _, err := s.repo.TradeForUser(userID, input.TradeID); err != nil {
			return nil, fmt.Errorf("trade %d does not belong to user %d: %w", input.TradeID, userID, err)
		}
	}

	note := models.TradeNote{
		UserID:   userID,
		TradeID:  input.TradeID,
		Note:     input.Note,
		NoteDate: input.NoteDate,
	}
	if err := s.repo.CreateNote(&note); err != nil {
		return nil, fmt.Errorf("could not save note: %w", err)
	}
	return &note, nil
}

// TradeNotes returns the user's notes, newest first.
func (s *Service) TradeNotes(ctx context.Context, userID uint) ([]models.TradeNote, error) {
	return s.repo.NotesForUser(userID)
}

// TradeNote returns a single note owned by the user.
func (s *Service) TradeNote(ctx context.Context, userID, noteID uint) (*models.TradeNote, error) {
	return s.repo.NoteByID(userID, noteID)
}

// UpdateTradeNote replaces the text, trade reference and date of one of
// the user's notes.
func (s *Service) UpdateTradeNote(ctx context.Context, userID, noteID uint, input TradeNoteInput) (*models.TradeNote, error) {
	note, err := s.repo.NoteByID(userID, noteID)
	if err != nil {
		return nil, err
	}
	if input.Note == "" {
		return nil, fmt.Errorf("note text must not be empty")
	}
	if input.TradeID != 0 && input.TradeID != note.TradeID {
		if _, err := s.repo.TradeForUser(userID, input.TradeID); err != nil {
			return nil, fmt.Errorf("trade %d does not belong to user %d: %w", input.TradeID, userID, err)
		}
	}

	note.Note = input.Note
	note.TradeID = input.TradeID
	note.NoteDate = input.NoteDate
	if err := s.repo.SaveNote(note); err != nil {
		return nil, fmt.Errorf("could not save note: %w", err)
	}
	return note, nil
}

// DeleteTradeNote removes one of the user's notes.
func (s *Service) DeleteTradeNote(ctx context.Context, userID, noteID uint) error {
	return s.repo.DeleteNote(userID, noteID)
}

// CreateAccount creates a manual trade account for the user.
func (s *Service) CreateAccount(ctx context.Context, userID uint, name string, balance decimal.Decimal) (*models.TradeAccount, error) {
	account := models.TradeAccount{
		UserID:  userID,
		Name:    name,
		Source:  models.SourceManual,
		Balance: balance,
		Status:  models.AccountStatusActive,
	}
	if err := s.repo.CreateAccount(&account); err != nil {
		return nil, fmt.Errorf("could not create account: %w", err)
	}
	return &account, nil
}
