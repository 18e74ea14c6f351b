package userrepo

import (
	"context"
	"sync"
	"time"

	"github.com/openrx/admatch/internal/domain/auth"
)

// MemoryRepository is an in-memory auth.Repository used for tests/dev.
type MemoryRepository struct {
	mu sync.RWMutex

	nextUserID    int64
	nextCompanyID int64
	users         map[int64]auth.User
	byEmail       map[string]int64
	companies     map[string]int64
}

// NewMemoryRepository constructs a repo backed by memory.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		nextUserID:    1,
		nextCompanyID: 1,
		users:         make(map[int64]auth.User),
		byEmail:       make(map[string]int64),
		companies:     make(map[string]int64),
	}
}

// Create implements auth.Repository.
func (r *MemoryRepository) Create(_ context.Context, email, name, companyName, passwordHash string) (auth.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byEmail[email]; exists {
		return auth.User{}, auth.ErrEmailExists
	}
	companyID, ok := r.companies[companyName]
	if !ok {
		companyID = r.nextCompanyID
		r.nextCompanyID++
		r.companies[companyName] = companyID
	}
	user := auth.User{
		ID:           r.nextUserID,
		CompanyID:    companyID,
		Email:        email,
		Name:         name,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	r.nextUserID++
	r.users[user.ID] = user
	r.byEmail[email] = user.ID
	return user, nil
}

// GetByEmail implements auth.Repository.
func (r *MemoryRepository) GetByEmail(_ context.Context, email string) (auth.User, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byEmail[email]
	if !ok {
		return auth.User{}, false, nil
	}
	return r.users[id], true, nil
}

// GetByID implements auth.Repository.
func (r *MemoryRepository) GetByID(_ context.Context, id int64) (auth.User, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.users[id]
	return user, ok, nil
}

var _ auth.Repository = (*MemoryRepository)(nil)
