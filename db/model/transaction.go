package model

import "time"

// Transaction records one completed tip addressed to a user. Amounts are
// stored as decimal strings; the chain, not this table, is the source of
// truth for settlement.
type Transaction struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	ToUserID  uint      `gorm:"index" json:"to_user_id"`
	Amount    string    `json:"amount"`
	Message   string    `json:"message"`
}
