package store

import (
	"fmt"
	"time"

	"trade-journal-go/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository wraps all journal persistence. Trades are always scoped to a
// user through the owning account.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a repository over an already-migrated database.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// TradeFilter narrows a per-user trade query.
type TradeFilter struct {
	From            *time.Time
	To              *time.Time
	IncludeDeposits bool
}

// TradesForUser fetches every trade belonging to the user's accounts,
// newest close first. Top-up pseudo-trades are excluded unless requested,
// and an optional close-time range can be applied.
func (r *Repository) TradesForUser(userID uint, filter TradeFilter) ([]models.Trade, error) {
	query := r.db.
		Joins("JOIN trade_accounts ON trade_accounts.id = trades.account_id").
		Where("trade_accounts.user_id = ?", userID)

	if filter.From != nil && filter.To != nil {
		query = query.Where("trades.close_time BETWEEN ? AND ?", *filter.From, *filter.To)
	}

	if !filter.IncludeDeposits {
		query = query.Where("trades.is_top_up = ?", false)
	}

	var trades []models.Trade
	if err := query.Order("trades.close_time DESC").Find(&trades).Error; err != nil {
		return nil, fmt.Errorf("could not fetch trades for user %d: %w", userID, err)
	}
	return trades, nil
}

// AccountsForUser fetches the user's accounts, optionally filtered by
// status and the soft-disabled flag.
func (r *Repository) AccountsForUser(userID uint, status *string, disabled *bool) ([]models.TradeAccount, error) {
	query := r.db.Where("user_id = ?", userID)
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	if disabled != nil {
		query = query.Where("disabled = ?", *disabled)
	}

	var accounts []models.TradeAccount
	if err := query.Find(&accounts).Error; err != nil {
		return nil, fmt.Errorf("could not fetch accounts for user %d: %w", userID, err)
	}
	return accounts, nil
}

// AccountByID fetches a single account.
func (r *Repository) AccountByID(accountID uint) (*models.TradeAccount, error) {
	var account models.TradeAccount
	if err := r.db.First(&account, accountID).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

// CreateAccount persists a new trade account.
func (r *Repository) CreateAccount(account *models.TradeAccount) error {
	return r.db.Create(account).Error
}

// SaveAccount persists balance and cache bookkeeping updates.
func (r *Repository) SaveAccount(account *models.TradeAccount) error {
	return r.db.Save(account).Error
}

// CreateTrade persists a manually entered trade.
func (r *Repository) CreateTrade(trade *models.Trade) error {
	return r.db.Create(trade).Error
}

// UpsertTrade inserts a broker-ingested trade or, when the
// (account_id, source_order_id) key already exists, updates its mutable
// columns in place. The conflict is resolved inside the database, so
// concurrent refreshes of the same account cannot duplicate a trade.
func (r *Repository) UpsertTrade(trade *models.Trade) error {
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "account_id"}, {Name: "source_order_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"symbol", "trade_type", "quantity", "price", "actual_price",
			"profit", "duration_in_minutes", "open_time", "close_time",
			"is_top_up", "updated_at",
		}),
	}).Create(trade).Error
}

// TradeForUser fetches a single trade, scoped to the owning user.
func (r *Repository) TradeForUser(userID, tradeID uint) (*models.Trade, error) {
	var trade models.Trade
	err := r.db.
		Joins("JOIN trade_accounts ON trade_accounts.id = trades.account_id").
		Where("trade_accounts.user_id = ? AND trades.id = ?", userID, tradeID).
		First(&trade).Error
	if err != nil {
		return nil, err
	}
	return &trade, nil
}

// CreateNote persists a trade note.
func (r *Repository) CreateNote(note *models.TradeNote) error {
	return r.db.Create(note).Error
}

// NotesForUser fetches the user's notes, newest first.
func (r *Repository) NotesForUser(userID uint) ([]models.TradeNote, error) {
	var notes []models.TradeNote
	if err := r.db.Where("user_id = ?", userID).Order("id DESC").Find(&notes).Error; err != nil {
		return nil, fmt.Errorf("could not fetch notes for user %d: %w", userID, err)
	}
	return notes, nil
}

// NoteByID fetches a single note, scoped to the owning user.
func (r *Repository) NoteByID(userID, noteID uint) (*models.TradeNote, error) {
	var note models.TradeNote
	if err := r.db.Where("user_id = ?", userID).First(&note, noteID).Error; err != nil {
		return nil, err
	}
	return &note, nil
}

// SaveNote persists edits to an existing note.
func (r *Repository) SaveNote(note *models.TradeNote) error {
	return r.db.Save(note).Error
}

// DeleteNote removes one of the user's notes. Deleting a note that does
// not exist, or that belongs to someone else, reports ErrRecordNotFound.
func (r *Repository) DeleteNote(userID, noteID uint) error {
	result := r.db.Where("user_id = ?", userID).Delete(&models.TradeNote{}, noteID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// AllUsers returns every registered user, in primary key order.
func (r *Repository) AllUsers() ([]models.User, error) {
	var users []models.User
	if err := r.db.Order("id").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("could not fetch users: %w", err)
	}
	return users, nil
}

// UserByName looks a user up by username.
func (r *Repository) UserByName(username string) (*models.User, error) {
	var user models.User
	if err := r.db.Where("username = ?", username).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// CreateUser persists a new user.
func (r *Repository) CreateUser(user *models.User) error {
	return r.db.Create(user).Error
}
