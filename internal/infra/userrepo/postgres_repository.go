package userrepo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/openrx/admatch/internal/domain/auth"
)

const uniqueViolation = "23505"

// PostgresRepository implements auth.Repository using pgx.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository constructs the repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Create inserts the user, creating the company row first when needed.
func (r *PostgresRepository) Create(ctx context.Context, email, name, companyName, passwordHash string) (auth.User, error) {
	companyID, err := r.ensureCompany(ctx, companyName)
	if err != nil {
		return auth.User{}, err
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO users (company_id, email, name, password_hash, created_at)
		VALUES ($1, $2, $3, $4, now())
		RETURNING id, company_id, email, name, password_hash, created_at
	`, companyID, email, name, passwordHash)
	user, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return auth.User{}, auth.ErrEmailExists
		}
		return auth.User{}, err
	}
	return user, nil
}

// GetByEmail fetches by the unique email.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (auth.User, bool, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, company_id, email, name, password_hash, created_at
		FROM users WHERE email = $1
	`, email)
	return scanUserMaybe(row)
}

// GetByID fetches by primary key.
func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (auth.User, bool, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, company_id, email, name, password_hash, created_at
		FROM users WHERE id = $1
	`, id)
	return scanUserMaybe(row)
}

func (r *PostgresRepository) ensureCompany(ctx context.Context, name string) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `SELECT id FROM companies WHERE name = $1`, name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, err
	}
	err = r.pool.QueryRow(ctx, `
		INSERT INTO companies (name) VALUES ($1) RETURNING id
	`, name).Scan(&id)
	return id, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (auth.User, error) {
	var user auth.User
	err := row.Scan(&user.ID, &user.CompanyID, &user.Email, &user.Name, &user.PasswordHash, &user.CreatedAt)
	return user, err
}

func scanUserMaybe(row rowScanner) (auth.User, bool, error) {
	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return auth.User{}, false, nil
	}
	if err != nil {
		return auth.User{}, false, err
	}
	return user, true, nil
}

var _ auth.Repository = (*PostgresRepository)(nil)
