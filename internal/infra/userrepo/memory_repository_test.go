package userrepo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/openrx/admatch/internal/domain/auth"
)

func TestCreateSharesCompanyAcrossUsers(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	first, err := repo.Create(ctx, "ops@acme.com", "Ops", "Acme Pharma", "hash")
	require.NoError(t, err)
	second, err := repo.Create(ctx, "sales@acme.com", "Sales", "Acme Pharma", "hash")
	require.NoError(t, err)

	require.Equal(t, first.CompanyID, second.CompanyID, "same company name joins the existing advertiser")

	other, err := repo.Create(ctx, "ops@rival.com", "Ops", "Rival Labs", "hash")
	require.NoError(t, err)
	require.NotEqual(t, first.CompanyID, other.CompanyID)
}

func TestCreateRejectsDuplicateEmail(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	_, err := repo.Create(ctx, "ops@acme.com", "Ops", "Acme Pharma", "hash")
	require.NoError(t, err)

	_, err = repo.Create(ctx, "ops@acme.com", "Ops Again", "Acme Pharma", "hash")
	require.ErrorIs(t, err, auth.ErrEmailExists)
}

func TestGetByEmailAndID(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	created, err := repo.Create(ctx, "ops@acme.com", "Ops", "Acme Pharma", "hash")
	require.NoError(t, err)

	byEmail, found, err := repo.GetByEmail(ctx, "ops@acme.com")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, created.ID, byEmail.ID)

	byID, found, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "ops@acme.com", byID.Email)

	_, found, err = repo.GetByID(ctx, 999)
	require.NoError(t, err)
	require.False(t, found)
}
