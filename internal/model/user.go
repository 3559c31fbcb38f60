package model

import "time"

// User represents a registered account in the database.
type User struct {
	ID                 int64
	Email              string
	PasswordHash       string
	AvatarURL          string
	RefreshFingerprint string
	IsVerified         bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// SignupRequest represents a user registration request.
type SignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest represents a user login request.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RequestEmailRequest asks for the verification email to be re-sent.
type RequestEmailRequest struct {
	Email string `json:"email"`
}

// TokenPair represents an issued access/refresh token pair.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// UserResponse represents user data safe for API responses (no sensitive fields).
type UserResponse struct {
	ID         int64     `json:"id"`
	Email      string    `json:"email"`
	AvatarURL  string    `json:"avatar_url,omitempty"`
	IsVerified bool      `json:"is_verified"`
	CreatedAt  time.Time `json:"created_at"`
}
