package auth

import "time"

// Config drives authentication behavior.
type Config struct {
	Secret          string
	TokenTTL        time.Duration
	RefreshTokenTTL time.Duration
}

// User is a persisted advertiser account. Every user belongs to one company;
// stats and catalog access are scoped by that company id.
type User struct {
	ID           int64     `json:"id"`
	CompanyID    int64     `json:"companyId"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// RegisterRequest captures the registration payload. CompanyName creates the
// advertiser identity alongside the first user.
type RegisterRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	Name        string `json:"name"`
	CompanyName string `json:"companyName"`
}

// LoginRequest captures login details.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse returns the signed tokens.
type LoginResponse struct {
	Token        string   `json:"token"`
	RefreshToken string   `json:"refreshToken"`
	User         UserView `json:"user"`
}

// UserView trims sensitive fields.
type UserView struct {
	ID        int64     `json:"id"`
	CompanyID int64     `json:"companyId"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// Claims are extracted from the JWT token.
type Claims struct {
	UserID    int64
	CompanyID int64
	Email     string
	TokenType string
	ExpiresAt time.Time
}

// RefreshRequest encapsulates the refresh token payload.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}
