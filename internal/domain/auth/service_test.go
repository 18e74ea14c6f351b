package auth

import (
	"context"
	"io"
	"testing"
	"time"

	"log/slog"

	"github.com/stretchr/testify/require"
)

func TestRegisterThenLogin(t *testing.T) {
	svc := newServiceUnderTest(t, newStubUserRepo())

	view, err := svc.Register(context.Background(), RegisterRequest{
		Email:       "Ops@AcmePharma.com",
		Password:    "correct horse",
		Name:        "Acme Ops",
		CompanyName: "Acme Pharma",
	})
	require.NoError(t, err)
	require.Equal(t, "ops@acmepharma.com", view.Email, "emails are normalized to lowercase")
	require.NotZero(t, view.CompanyID)

	resp, err := svc.Login(context.Background(), LoginRequest{Email: "ops@acmepharma.com", Password: "correct horse"})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Token)
	require.NotEmpty(t, resp.RefreshToken)
	require.Equal(t, view.ID, resp.User.ID)
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	repo := newStubUserRepo()
	svc := newServiceUnderTest(t, repo)

	req := RegisterRequest{Email: "ops@acme.com", Password: "correct horse", Name: "Ops", CompanyName: "Acme"}
	_, err := svc.Register(context.Background(), req)
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), req)
	require.ErrorContains(t, err, "already registered")
}

func TestRegisterValidation(t *testing.T) {
	svc := newServiceUnderTest(t, newStubUserRepo())

	_, err := svc.Register(context.Background(), RegisterRequest{Email: "not-an-email", Password: "correct horse", Name: "x", CompanyName: "y"})
	require.Error(t, err)

	_, err = svc.Register(context.Background(), RegisterRequest{Email: "a@b.com", Password: "short", Name: "x", CompanyName: "y"})
	require.ErrorContains(t, err, "at least 8 characters")
}

func TestLoginWrongPassword(t *testing.T) {
	svc := newServiceUnderTest(t, newStubUserRepo())

	_, err := svc.Register(context.Background(), RegisterRequest{Email: "ops@acme.com", Password: "correct horse", Name: "Ops", CompanyName: "Acme"})
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), LoginRequest{Email: "ops@acme.com", Password: "wrong horse"})
	require.ErrorContains(t, err, "invalid email or password")
}

func TestValidateTokenRoundTrip(t *testing.T) {
	svc := newServiceUnderTest(t, newStubUserRepo())

	_, err := svc.Register(context.Background(), RegisterRequest{Email: "ops@acme.com", Password: "correct horse", Name: "Ops", CompanyName: "Acme"})
	require.NoError(t, err)
	resp, err := svc.Login(context.Background(), LoginRequest{Email: "ops@acme.com", Password: "correct horse"})
	require.NoError(t, err)

	claims, err := svc.ValidateToken(context.Background(), resp.Token)
	require.NoError(t, err)
	require.Equal(t, resp.User.ID, claims.UserID)
	require.Equal(t, resp.User.CompanyID, claims.CompanyID)
	require.Equal(t, "access", claims.TokenType)

	_, err = svc.ValidateToken(context.Background(), resp.RefreshToken)
	require.ErrorContains(t, err, "token type mismatch", "refresh tokens cannot act as access tokens")
}

func TestRefreshIssuesNewTokens(t *testing.T) {
	svc := newServiceUnderTest(t, newStubUserRepo())

	_, err := svc.Register(context.Background(), RegisterRequest{Email: "ops@acme.com", Password: "correct horse", Name: "Ops", CompanyName: "Acme"})
	require.NoError(t, err)
	login, err := svc.Login(context.Background(), LoginRequest{Email: "ops@acme.com", Password: "correct horse"})
	require.NoError(t, err)

	refreshed, err := svc.Refresh(context.Background(), login.RefreshToken)
	require.NoError(t, err)
	require.NotEmpty(t, refreshed.Token)
	require.Equal(t, login.User.ID, refreshed.User.ID)

	_, err = svc.Refresh(context.Background(), login.Token)
	require.ErrorContains(t, err, "token type mismatch", "access tokens cannot be refreshed")
}

func newServiceUnderTest(t *testing.T, repo Repository) Service {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := Config{Secret: "test-secret", TokenTTL: time.Hour, RefreshTokenTTL: 24 * time.Hour}
	return NewService(cfg, repo, logger)
}

type stubUserRepo struct {
	byEmail   map[string]User
	companies map[string]int64
	nextUser  int64
	nextCo    int64
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{
		byEmail:   make(map[string]User),
		companies: make(map[string]int64),
		nextUser:  1,
		nextCo:    1,
	}
}

func (r *stubUserRepo) Create(_ context.Context, email, name, companyName, passwordHash string) (User, error) {
	if _, exists := r.byEmail[email]; exists {
		return User{}, ErrEmailExists
	}
	companyID, ok := r.companies[companyName]
	if !ok {
		companyID = r.nextCo
		r.nextCo++
		r.companies[companyName] = companyID
	}
	user := User{
		ID:           r.nextUser,
		CompanyID:    companyID,
		Email:        email,
		Name:         name,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	r.nextUser++
	r.byEmail[email] = user
	return user, nil
}

func (r *stubUserRepo) GetByEmail(_ context.Context, email string) (User, bool, error) {
	user, ok := r.byEmail[email]
	return user, ok, nil
}

func (r *stubUserRepo) GetByID(_ context.Context, id int64) (User, bool, error) {
	for _, user := range r.byEmail {
		if user.ID == id {
			return user, true, nil
		}
	}
	return User{}, false, nil
}
