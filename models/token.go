package models

// TokenResponse is returned by POST /users/token.
type TokenResponse struct {
	Token     string `json:"token"`
	TokenType string `json:"token_type"` // "Bearer"
	ExpiresIn int64  `json:"expires_in"` // seconds
}
