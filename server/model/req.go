package model

// RegisterRequest creates a new account.
type RegisterRequest struct {
	Name          string `json:"name" binding:"required"`
	Username      string `json:"username" binding:"required"`
	Email         string `json:"email" binding:"required,email"`
	Password      string `json:"password" binding:"required,min=8"`
	Avatar        string `json:"avatar"`
	WalletAddress string `json:"walletAddress" binding:"required"`
}

// LoginRequest signs in with a username or email.
type LoginRequest struct {
	Identifier string `json:"identifier" binding:"required"`
	Password   string `json:"password" binding:"required"`
}

// CreateProfileRequest links a platform identity to the current user.
type CreateProfileRequest struct {
	Platform         string `json:"platform" binding:"required"`
	PlatformUsername string `json:"platformUsername" binding:"required"`
	DisplayName      string `json:"displayName"`
	Description      string `json:"description"`
}

// UpdateSocialsRequest edits the social links on a profile.
type UpdateSocialsRequest struct {
	WebsiteURL string `json:"websiteUrl"`
	TwitterURL string `json:"twitterUrl"`
	YoutubeURL string `json:"youtubeUrl"`
}

// FindProfileRequest looks a creator up by platform username.
type FindProfileRequest struct {
	Platform string `json:"platform" binding:"required"`
}

// CreateTransactionRequest records a completed tip.
type CreateTransactionRequest struct {
	To      string `json:"to" binding:"required"`
	Amount  string `json:"amount" binding:"required"`
	Message string `json:"message"`
}
