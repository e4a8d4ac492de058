package models

import (
	"time"

	"gorm.io/gorm"
)

// TradeNote is a journal annotation. A note always belongs to a user and
// may reference one of that user's trades; free-standing notes carry only
// their text and an optional date.
type TradeNote struct {
	gorm.Model
	UserID   uint       `gorm:"index" json:"user_id"`
	TradeID  uint       `gorm:"index" json:"trade_id"` // 0 when not attached to a trade
	Note     string     `json:"trade_note"`
	NoteDate *time.Time `json:"note_date"`
}
