package models

import "gorm.io/gorm"

// User owns a set of trade accounts. Statistics are always scoped to a user
// across all of that user's accounts unless an account filter is applied.
type User struct {
	gorm.Model
	Username string `gorm:"uniqueIndex;not null" json:"username"`
	Email    string `json:"email"`
}
