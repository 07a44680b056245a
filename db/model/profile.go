package model

import "time"

// Profile links a user to the identity tippers see on a video platform.
// The platform username is what the extension reads off the page, so the
// (platform, platform_username) pair is the directory lookup key.
type Profile struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	CreatedAt        time.Time `json:"created_at"`
	UserID           uint      `gorm:"index" json:"user_id"`
	Platform         string    `gorm:"index:idx_platform_username" json:"platform"`
	PlatformUsername string    `gorm:"index:idx_platform_username" json:"platform_username"`
	DisplayName      string    `json:"display_name"`
	Description      string    `json:"description"`
	WebsiteURL       string    `json:"website_url"`
	TwitterURL       string    `json:"twitter_url"`
	YoutubeURL       string    `json:"youtube_url"`
}
