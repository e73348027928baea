package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/juju/errors"
	"github.com/juju/loggo"

	"github.com/iliyamo/storefront/internal/model"
	"github.com/iliyamo/storefront/internal/repository"
	"github.com/iliyamo/storefront/internal/utils"
)

var logger = loggo.GetLogger("storefront.service")

type AccountService struct {
	repo       *repository.AccountRepo
	bcryptCost int
	// compared against for unknown emails so both failures cost the same
	dummyHash string
}

func NewAccountService(repo *repository.AccountRepo, bcryptCost int) *AccountService {
	dummy, err := utils.HashPassword(uuid.NewString(), bcryptCost)
	if err != nil {
		logger.Warningf("cannot prepare dummy hash: %v", err)
	}
	return &AccountService{repo: repo, bcryptCost: bcryptCost, dummyHash: dummy}
}

// Authenticate returns the account matching email and password.  Unknown
// emails and wrong passwords both yield a NotFound error.  Inactive accounts
// are returned; the caller decides how to treat them.
func (s *AccountService) Authenticate(ctx context.Context, email, password string) (*model.Account, error) {
	a, err := s.repo.GetByEmail(ctx, email)
	if errors.Is(err, errors.NotFound) {
		utils.VerifyPassword(s.dummyHash, password)
		return nil, errors.NotFoundf("account")
	}
	if err != nil {
		return nil, errors.Trace(err)
	}
	if !utils.VerifyPassword(a.HashedPassword, password) {
		return nil, errors.NotFoundf("account")
	}
	return a, nil
}

// Create stores a new account.  A taken email yields AlreadyExists.
func (s *AccountService) Create(ctx context.Context, in model.AccountCreate) (*model.Account, error) {
	if _, err := s.repo.GetByEmail(ctx, in.Email); err == nil {
		return nil, errors.AlreadyExistsf("account with this email")
	} else if !errors.Is(err, errors.NotFound) {
		return nil, errors.Trace(err)
	}

	hash, err := utils.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, errors.Annotate(err, "hash password")
	}
	a := &model.Account{
		Email:          in.Email,
		HashedPassword: hash,
		Role:           strings.TrimSpace(in.Role),
		IsActive:       true,
		FullName:       in.FullName,
	}
	if a.Role == "" {
		a.Role = model.RoleAnonymous
	}
	if in.IsActive != nil {
		a.IsActive = *in.IsActive
	}
	if err := s.repo.Create(ctx, a); err != nil {
		if errors.Is(err, errors.AlreadyExists) {
			return nil, errors.AlreadyExistsf("account with this email")
		}
		return nil, errors.Trace(err)
	}
	logger.Infof("created account %s (%s)", a.ID, a.Role)
	return a, nil
}

// Update applies the non-nil fields of in.  Moving to an email owned by a
// different account yields repository.ErrConflict.
func (s *AccountService) Update(ctx context.Context, id uuid.UUID, in model.AccountUpdate) (*model.Account, error) {
	if in.Role != nil && strings.TrimSpace(*in.Role) == "" {
		return nil, errors.NotValidf("blank role")
	}
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Email != nil {
		other, err := s.repo.GetByEmail(ctx, *in.Email)
		switch {
		case err == nil && other.ID != a.ID:
			return nil, repository.ErrConflict
		case err != nil && !errors.Is(err, errors.NotFound):
			return nil, errors.Trace(err)
		}
		a.Email = *in.Email
	}
	if in.Password != nil {
		hash, err := utils.HashPassword(*in.Password, s.bcryptCost)
		if err != nil {
			return nil, errors.Annotate(err, "hash password")
		}
		a.HashedPassword = hash
	}
	if in.Role != nil {
		a.Role = strings.TrimSpace(*in.Role)
	}
	if in.IsActive != nil {
		a.IsActive = *in.IsActive
	}
	if in.FullName != nil {
		a.FullName = in.FullName
	}

	if err := s.repo.Save(ctx, a); err != nil {
		if errors.Is(err, errors.AlreadyExists) {
			return nil, repository.ErrConflict
		}
		return nil, errors.Trace(err)
	}
	return a, nil
}

// Delete deactivates the account.  actor is the email of the caller, who
// may not deactivate their own account.  Deactivating an inactive account
// changes nothing.
func (s *AccountService) Delete(ctx context.Context, actor string, id uuid.UUID) (*model.Account, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if strings.EqualFold(a.Email, strings.TrimSpace(actor)) {
		return nil, errors.Forbiddenf("admins cannot delete their own account")
	}
	if !a.IsActive {
		return a, nil
	}
	a.IsActive = false
	if err := s.repo.Save(ctx, a); err != nil {
		return nil, errors.Trace(err)
	}
	logger.Infof("account %s deactivated by %s", a.ID, actor)
	return a, nil
}

// List returns a page of accounts and the number of matching accounts.
// Inactive accounts are only listed for the model.RoleAll filter.
func (s *AccountService) List(ctx context.Context, role string, page Page) ([]model.Account, int64, error) {
	page = page.Normalize()
	out, total, err := s.repo.List(ctx, repository.AccountFilter{
		Role:  strings.TrimSpace(role),
		Skip:  page.Skip,
		Limit: page.Limit,
	})
	return out, total, errors.Trace(err)
}

// Get returns an active account.
func (s *AccountService) Get(ctx context.Context, id uuid.UUID) (*model.Account, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !a.IsActive {
		return nil, errors.NotFoundf("account")
	}
	return a, nil
}

// EnsureRoot creates an active admin with the given credentials unless an
// account with that email already exists.  It reports whether one was
// created.
func (s *AccountService) EnsureRoot(ctx context.Context, email, password string) (bool, error) {
	if email == "" || password == "" {
		return false, errors.NotValidf("empty root credentials")
	}
	_, err := s.Create(ctx, model.AccountCreate{Email: email, Password: password, Role: model.RoleAdmin})
	switch {
	case err == nil:
		logger.Infof("seeded root account %s", strings.ToLower(email))
		return true, nil
	case errors.Is(err, errors.AlreadyExists):
		return false, nil
	}
	return false, errors.Annotate(err, "seed root account")
}
