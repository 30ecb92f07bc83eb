package api

// RegisterRequest creates a creator account.
type RegisterRequest struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Password    string `json:"password"`
}

// RegisterResponse returns the account and a session token.
type RegisterResponse struct {
	User      User   `json:"user"`
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expires_at"`
}

// LoginRequest authenticates a creator.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse returns the account and a session token.
type LoginResponse struct {
	User      User   `json:"user"`
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expires_at"`
}

// GetCurrentUserRequest is empty; the caller comes from the token.
type GetCurrentUserRequest struct{}

// GetCurrentUserResponse holds the caller's profile.
type GetCurrentUserResponse struct {
	User User `json:"user"`
}

// UpdatePayoutAccountRequest connects the account that receives payments.
type UpdatePayoutAccountRequest struct {
	AccountID string `json:"account_id"`
}

// UpdatePayoutAccountResponse holds the updated profile.
type UpdatePayoutAccountResponse struct {
	User User `json:"user"`

	// Token replaces the caller's session; the old one still reports no
	// payout account.
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expires_at"`
}
