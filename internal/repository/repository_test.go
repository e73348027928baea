package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/storefront/internal/database"
	"github.com/iliyamo/storefront/internal/database/databasetest"
	"github.com/iliyamo/storefront/internal/model"
	"github.com/iliyamo/storefront/internal/repository"
)

func newAccount(email, role string, active bool) *model.Account {
	return &model.Account{Email: email, HashedPassword: "hash", Role: role, IsActive: active}
}

func TestAccountRepoCreateAndLookup(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewAccountRepo(databasetest.Open(t, database.AccountsMigrations))

	a := newAccount("  Alice@Example.com ", model.RoleAdmin, true)
	require.NoError(t, repo.Create(ctx, a))
	assert.NotEqual(t, uuid.Nil, a.ID)

	got, err := repo.GetByEmail(ctx, "ALICE@example.com")
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)
	assert.Equal(t, "alice@example.com", got.Email)

	byID, err := repo.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, byID.Role)

	_, err = repo.GetByID(ctx, uuid.New())
	assert.True(t, errors.Is(err, errors.NotFound))

	err = repo.Create(ctx, newAccount("alice@example.com", model.RoleAnonymous, true))
	assert.True(t, errors.Is(err, errors.AlreadyExists))
}

func TestAccountRepoSavePersistsZeroValues(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewAccountRepo(databasetest.Open(t, database.AccountsMigrations))

	a := newAccount("bob@example.com", model.RoleAdmin, true)
	require.NoError(t, repo.Create(ctx, a))

	a.IsActive = false
	require.NoError(t, repo.Save(ctx, a))

	got, err := repo.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)
}

func TestAccountRepoList(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewAccountRepo(databasetest.Open(t, database.AccountsMigrations))

	require.NoError(t, repo.Create(ctx, newAccount("a@example.com", model.RoleAdmin, true)))
	require.NoError(t, repo.Create(ctx, newAccount("b@example.com", model.RoleAdmin, false)))
	require.NoError(t, repo.Create(ctx, newAccount("c@example.com", model.RoleAnonymous, true)))

	tests := []struct {
		name   string
		filter repository.AccountFilter
		want   []string
		total  int64
	}{
		{"active only", repository.AccountFilter{Limit: 100}, []string{"a@example.com", "c@example.com"}, 2},
		{"admins", repository.AccountFilter{Role: model.RoleAdmin, Limit: 100}, []string{"a@example.com"}, 1},
		{"all", repository.AccountFilter{Role: model.RoleAll, Limit: 100}, []string{"a@example.com", "b@example.com", "c@example.com"}, 3},
		{"paged", repository.AccountFilter{Role: model.RoleAll, Skip: 1, Limit: 1}, []string{"b@example.com"}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, total, err := repo.List(ctx, tt.filter)
			require.NoError(t, err)
			var emails []string
			for _, a := range got {
				emails = append(emails, a.Email)
			}
			assert.Equal(t, tt.want, emails)
			assert.Equal(t, tt.total, total)
		})
	}
}

func TestProductRepo(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewProductRepo(databasetest.Open(t, database.ProductsMigrations))

	p := &model.Product{SKU: "SKU-1", Name: "Kettle", Price: 19.5, Brand: "Acme"}
	require.NoError(t, repo.Create(ctx, p))
	require.NoError(t, repo.Create(ctx, &model.Product{SKU: "SKU-2", Name: "Lamp", Price: 5, Brand: "Acme"}))

	err := repo.Create(ctx, &model.Product{SKU: "SKU-1", Name: "Other", Price: 1, Brand: "X"})
	assert.True(t, errors.Is(err, errors.AlreadyExists))

	bySKU, err := repo.GetBySKU(ctx, "SKU-1")
	require.NoError(t, err)
	assert.Equal(t, p.ID, bySKU.ID)

	p.IsDiscontinued = true
	require.NoError(t, repo.Save(ctx, p))

	list, total, err := repo.ListAvailable(ctx, 0, 100)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "SKU-2", list[0].SKU)
	assert.EqualValues(t, 1, total)

	all, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, all)

	still, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, still.IsDiscontinued)
}

func TestAnalyticsRepoIncrement(t *testing.T) {
	ctx := context.Background()
	db := databasetest.Open(t, database.ProductsMigrations)
	products := repository.NewProductRepo(db)
	repo := repository.NewAnalyticsRepo(db)

	p := &model.Product{SKU: "SKU-1", Name: "Kettle", Price: 19.5, Brand: "Acme"}
	require.NoError(t, products.Create(ctx, p))

	_, err := repo.GetByProductID(ctx, p.ID)
	assert.True(t, errors.Is(err, errors.NotFound))

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Increment(ctx, p.ID, now))
	first, err := repo.GetByProductID(ctx, p.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, first.QueryCount)
	assert.Nil(t, first.LastQueriedAt)

	require.NoError(t, repo.Increment(ctx, p.ID, now))
	require.NoError(t, repo.Increment(ctx, p.ID, now.Add(time.Minute)))
	got, err := repo.GetByProductID(ctx, p.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, got.QueryCount)
	require.NotNil(t, got.LastQueriedAt)
	assert.True(t, got.LastQueriedAt.Equal(now.Add(time.Minute)))
}
