package model

import "time"

// User is a registered creator or viewer account.
type User struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	CreatedAt     time.Time `json:"created_at"`
	Name          string    `json:"name"`
	Username      string    `gorm:"uniqueIndex" json:"username"`
	Email         string    `gorm:"uniqueIndex" json:"email"`
	PasswordHash  string    `json:"-"`
	AvatarURL     string    `json:"avatar_url"`
	WalletAddress string    `json:"wallet_address"`
}
