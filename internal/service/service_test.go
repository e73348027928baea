package service_test

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/storefront/internal/database"
	"github.com/iliyamo/storefront/internal/database/databasetest"
	"github.com/iliyamo/storefront/internal/model"
	"github.com/iliyamo/storefront/internal/queue"
	"github.com/iliyamo/storefront/internal/repository"
	"github.com/iliyamo/storefront/internal/service"
)

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool { return &b }
func floatPtr(f float64) *float64 { return &f }

func newAccounts(t *testing.T) *service.AccountService {
	db := databasetest.Open(t, database.AccountsMigrations)
	return service.NewAccountService(repository.NewAccountRepo(db), bcrypt.MinCost)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.AuditEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev queue.AuditEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) last(t *testing.T) queue.AuditEvent {
	t.Helper()
	p.mu.Lock()
	defer p.mu.Unlock()
	require.NotEmpty(t, p.events)
	return p.events[len(p.events)-1]
}

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()
	svc := newAccounts(t)
	_, err := svc.Create(ctx, model.AccountCreate{Email: "Root@Example.com", Password: "s3cretpass", Role: model.RoleAdmin})
	require.NoError(t, err)

	a, err := svc.Authenticate(ctx, "root@example.com", "s3cretpass")
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, a.Role)

	_, err = svc.Authenticate(ctx, "root@example.com", "wrong-password")
	assert.True(t, errors.Is(err, errors.NotFound))
	_, err = svc.Authenticate(ctx, "nobody@example.com", "s3cretpass")
	assert.True(t, errors.Is(err, errors.NotFound))
}

func TestCreateAccountDefaults(t *testing.T) {
	ctx := context.Background()
	svc := newAccounts(t)

	a, err := svc.Create(ctx, model.AccountCreate{Email: "user@example.com", Password: "password1"})
	require.NoError(t, err)
	assert.Equal(t, model.RoleAnonymous, a.Role)
	assert.True(t, a.IsActive)
	assert.NotEqual(t, "password1", a.HashedPassword)

	_, err = svc.Create(ctx, model.AccountCreate{Email: "USER@example.com", Password: "password2"})
	assert.True(t, errors.Is(err, errors.AlreadyExists))
}

func TestUpdateAccount(t *testing.T) {
	ctx := context.Background()
	svc := newAccounts(t)
	a, err := svc.Create(ctx, model.AccountCreate{Email: "a@example.com", Password: "password1"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, model.AccountCreate{Email: "b@example.com", Password: "password1"})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, a.ID, model.AccountUpdate{FullName: strPtr("Alice"), Password: strPtr("newpassword")})
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", updated.Email)
	require.NotNil(t, updated.FullName)
	assert.Equal(t, "Alice", *updated.FullName)

	_, err = svc.Authenticate(ctx, "a@example.com", "newpassword")
	assert.NoError(t, err)

	_, err = svc.Update(ctx, a.ID, model.AccountUpdate{Email: strPtr("b@example.com")})
	assert.True(t, errors.Is(err, repository.ErrConflict))

	// keeping its own email is not a conflict
	_, err = svc.Update(ctx, a.ID, model.AccountUpdate{Email: strPtr("a@example.com")})
	assert.NoError(t, err)

	_, err = svc.Update(ctx, uuid.New(), model.AccountUpdate{Role: strPtr("admin")})
	assert.True(t, errors.Is(err, errors.NotFound))
}

func TestDeleteAccount(t *testing.T) {
	ctx := context.Background()
	svc := newAccounts(t)
	root, err := svc.Create(ctx, model.AccountCreate{Email: "root@example.com", Password: "password1", Role: model.RoleAdmin})
	require.NoError(t, err)
	other, err := svc.Create(ctx, model.AccountCreate{Email: "other@example.com", Password: "password1", Role: model.RoleAdmin})
	require.NoError(t, err)

	_, err = svc.Delete(ctx, "root@example.com", root.ID)
	assert.True(t, errors.Is(err, errors.Forbidden))

	deleted, err := svc.Delete(ctx, "root@example.com", other.ID)
	require.NoError(t, err)
	assert.False(t, deleted.IsActive)

	// second delete is a no-op
	again, err := svc.Delete(ctx, "root@example.com", other.ID)
	require.NoError(t, err)
	assert.False(t, again.IsActive)

	_, err = svc.Get(ctx, other.ID)
	assert.True(t, errors.Is(err, errors.NotFound))

	_, err = svc.Delete(ctx, "root@example.com", uuid.New())
	assert.True(t, errors.Is(err, errors.NotFound))
}

func TestListAccounts(t *testing.T) {
	ctx := context.Background()
	svc := newAccounts(t)
	for _, in := range []model.AccountCreate{
		{Email: "a@example.com", Password: "password1", Role: model.RoleAdmin},
		{Email: "b@example.com", Password: "password1", Role: model.RoleAdmin, IsActive: boolPtr(false)},
		{Email: "c@example.com", Password: "password1"},
	} {
		_, err := svc.Create(ctx, in)
		require.NoError(t, err)
	}

	admins, total, err := svc.List(ctx, model.RoleAdmin, service.Page{})
	require.NoError(t, err)
	require.Len(t, admins, 1)
	assert.Equal(t, "a@example.com", admins[0].Email)
	assert.EqualValues(t, 1, total)

	all, total, err := svc.List(ctx, model.RoleAll, service.Page{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.EqualValues(t, 3, total)
}

func TestEnsureRoot(t *testing.T) {
	ctx := context.Background()
	svc := newAccounts(t)

	created, err := svc.EnsureRoot(ctx, "root@example.com", "password1")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = svc.EnsureRoot(ctx, "root@example.com", "password1")
	require.NoError(t, err)
	assert.False(t, created)

	a, err := svc.Authenticate(ctx, "root@example.com", "password1")
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, a.Role)

	_, err = svc.EnsureRoot(ctx, "", "")
	assert.True(t, errors.Is(err, errors.NotValid))
}

func newProducts(t *testing.T) (*service.ProductService, *recordingPublisher, *repository.ProductRepo) {
	db := databasetest.Open(t, database.ProductsMigrations)
	repo := repository.NewProductRepo(db)
	pub := &recordingPublisher{}
	return service.NewProductService(repo, pub), pub, repo
}

func kettle() model.ProductCreate {
	return model.ProductCreate{SKU: "KET-1", Name: "Kettle", Price: 20, Brand: "Acme"}
}

func TestCreateProductPublishes(t *testing.T) {
	ctx := context.Background()
	svc, pub, _ := newProducts(t)

	p, err := svc.Create(ctx, "root@example.com", kettle())
	require.NoError(t, err)

	ev := pub.last(t)
	assert.Equal(t, queue.ActionCreate, ev.Action)
	assert.Equal(t, "Product", ev.Model)
	assert.Equal(t, "root@example.com", ev.User)
	assert.Equal(t, p.ID.String(), ev.RecordID)
	require.Contains(t, ev.Changes, "sku")
	assert.Nil(t, ev.Changes["sku"].Old)
	assert.Equal(t, "KET-1", ev.Changes["sku"].New)
	for field, c := range ev.Changes {
		assert.Nil(t, c.Old, field)
	}

	_, err = svc.Create(ctx, "root@example.com", kettle())
	assert.True(t, errors.Is(err, errors.AlreadyExists))
}

func TestBlankFieldsAreRejected(t *testing.T) {
	ctx := context.Background()
	svc, pub, repo := newProducts(t)

	blank := kettle()
	blank.Name, blank.Brand = "   ", "  "
	_, err := svc.Create(ctx, "root@example.com", blank)
	assert.True(t, errors.Is(err, errors.NotValid))

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	p, err := svc.Create(ctx, "root@example.com", kettle())
	require.NoError(t, err)
	_, err = svc.Update(ctx, "root@example.com", p.ID, model.ProductUpdate{Brand: strPtr(" \t")})
	assert.True(t, errors.Is(err, errors.NotValid))
	assert.Len(t, pub.events, 1)

	got, err := svc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme", got.Brand)

	accounts := newAccounts(t)
	a, err := accounts.Create(ctx, model.AccountCreate{Email: "a@example.com", Password: "password1"})
	require.NoError(t, err)
	_, err = accounts.Update(ctx, a.ID, model.AccountUpdate{Role: strPtr("  ")})
	assert.True(t, errors.Is(err, errors.NotValid))
}

func TestUpdateProduct(t *testing.T) {
	ctx := context.Background()
	svc, pub, _ := newProducts(t)
	p, err := svc.Create(ctx, "root@example.com", kettle())
	require.NoError(t, err)
	other := kettle()
	other.SKU = "KET-2"
	_, err = svc.Create(ctx, "root@example.com", other)
	require.NoError(t, err)

	updated, err := svc.Update(ctx, "root@example.com", p.ID, model.ProductUpdate{Price: floatPtr(25)})
	require.NoError(t, err)
	assert.Equal(t, 25.0, updated.Price)
	assert.Equal(t, "Kettle", updated.Name)

	ev := pub.last(t)
	assert.Equal(t, queue.ActionUpdate, ev.Action)
	assert.Equal(t, queue.FieldChange{Old: 20.0, New: 25.0}, ev.Changes["price"])
	assert.Equal(t, queue.FieldChange{Old: "Kettle", New: "Kettle"}, ev.Changes["name"])

	_, err = svc.Update(ctx, "root@example.com", p.ID, model.ProductUpdate{SKU: strPtr("KET-2")})
	assert.True(t, errors.Is(err, repository.ErrConflict))

	_, err = svc.Update(ctx, "root@example.com", uuid.New(), model.ProductUpdate{Name: strPtr("x")})
	assert.True(t, errors.Is(err, errors.NotFound))
}

func TestDeleteProductIsIdempotent(t *testing.T) {
	ctx := context.Background()
	svc, pub, repo := newProducts(t)
	p, err := svc.Create(ctx, "root@example.com", kettle())
	require.NoError(t, err)

	_, err = svc.Delete(ctx, "root@example.com", p.ID)
	require.NoError(t, err)
	ev := pub.last(t)
	assert.Equal(t, queue.ActionSoftDelete, ev.Action)
	assert.Equal(t, queue.FieldChange{Old: false, New: true}, ev.Changes["is_discontinued"])

	_, err = svc.Get(ctx, p.ID)
	assert.True(t, errors.Is(err, errors.NotFound))

	_, err = svc.Delete(ctx, "root@example.com", p.ID)
	require.NoError(t, err)
	ev = pub.last(t)
	assert.Equal(t, queue.FieldChange{Old: true, New: true}, ev.Changes["is_discontinued"])
	assert.Len(t, pub.events, 3)

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	list, total, err := svc.List(ctx, service.Page{})
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Zero(t, total)
}

func TestPublishFailureFailsMutation(t *testing.T) {
	ctx := context.Background()
	svc, pub, repo := newProducts(t)
	pub.err = errors.New("broker down")

	_, err := svc.Create(ctx, "root@example.com", kettle())
	require.Error(t, err)

	// the row was written before the publish
	_, err = repo.GetBySKU(ctx, "KET-1")
	assert.NoError(t, err)
}

func TestAnalytics(t *testing.T) {
	ctx := context.Background()
	db := databasetest.Open(t, database.ProductsMigrations)
	products := service.NewProductService(repository.NewProductRepo(db), &recordingPublisher{})
	svc := service.NewAnalyticsService(repository.NewAnalyticsRepo(db))

	p, err := products.Create(ctx, "root@example.com", kettle())
	require.NoError(t, err)

	_, err = svc.Get(ctx, p.ID)
	assert.True(t, errors.Is(err, errors.NotFound))

	for i := 0; i < 3; i++ {
		require.NoError(t, svc.Increment(ctx, p.ID))
	}
	a, err := svc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, a.QueryCount)
	assert.NotNil(t, a.LastQueriedAt)
}

func TestChanges(t *testing.T) {
	type rec struct {
		A string  `json:"a"`
		B *string `json:"b"`
	}
	created, err := service.Changes(nil, rec{A: "x"})
	require.NoError(t, err)
	assert.Equal(t, map[string]queue.FieldChange{
		"a": {Old: nil, New: "x"},
		"b": {Old: nil, New: nil},
	}, created)

	updated, err := service.Changes(rec{A: "x"}, rec{A: "y", B: strPtr("z")})
	require.NoError(t, err)
	assert.Equal(t, queue.FieldChange{Old: "x", New: "y"}, updated["a"])
	assert.Equal(t, queue.FieldChange{Old: nil, New: "z"}, updated["b"])
}

func TestPageNormalize(t *testing.T) {
	assert.Equal(t, service.Page{Skip: 0, Limit: service.DefaultLimit}, service.Page{Skip: -3}.Normalize())
	assert.Equal(t, service.Page{Skip: 5, Limit: service.MaxLimit}, service.Page{Skip: 5, Limit: 5000}.Normalize())
	assert.Equal(t, service.Page{Skip: 1, Limit: 10}, service.Page{Skip: 1, Limit: 10}.Normalize())
}
