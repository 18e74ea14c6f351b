package auth

import "context"

// Repository abstracts advertiser account persistence.
type Repository interface {
	// Create persists a new user, creating the named company when it does
	// not exist yet.
	Create(ctx context.Context, email, name, companyName, passwordHash string) (User, error)
	GetByEmail(ctx context.Context, email string) (User, bool, error)
	GetByID(ctx context.Context, id int64) (User, bool, error)
}
