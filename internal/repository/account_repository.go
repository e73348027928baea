package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/iliyamo/storefront/internal/model"
)

// AccountFilter narrows List.  An empty Role matches every role; the
// model.RoleAll sentinel also includes inactive accounts.
type AccountFilter struct {
	Role  string
	Skip  int
	Limit int
}

type AccountRepo struct{ DB *gorm.DB }

func NewAccountRepo(db *gorm.DB) *AccountRepo { return &AccountRepo{DB: db} }

// Create inserts a and fills in its ID when unset.
func (r *AccountRepo) Create(ctx context.Context, a *model.Account) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	a.Email = normalizeEmail(a.Email)
	return translate(r.DB.WithContext(ctx).Create(a).Error, "account")
}

// GetByID fetches an account regardless of its active flag.
func (r *AccountRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Account, error) {
	var a model.Account
	if err := r.DB.WithContext(ctx).Where("id = ?", id).Take(&a).Error; err != nil {
		return nil, translate(err, "account")
	}
	return &a, nil
}

// GetByEmail fetches an account by normalized email.
func (r *AccountRepo) GetByEmail(ctx context.Context, email string) (*model.Account, error) {
	var a model.Account
	err := r.DB.WithContext(ctx).Where("email = ?", normalizeEmail(email)).Take(&a).Error
	if err != nil {
		return nil, translate(err, "account")
	}
	return &a, nil
}

// Save writes every column of a back to its row.
func (r *AccountRepo) Save(ctx context.Context, a *model.Account) error {
	a.Email = normalizeEmail(a.Email)
	res := r.DB.WithContext(ctx).Model(a).Select("*").Omit("created_at").Updates(a)
	if res.Error != nil {
		return translate(res.Error, "account")
	}
	return nil
}

// List returns one page of accounts ordered by email together with the
// number of matching rows.
func (r *AccountRepo) List(ctx context.Context, f AccountFilter) ([]model.Account, int64, error) {
	q := r.DB.WithContext(ctx).Model(&model.Account{})
	if f.Role != model.RoleAll {
		q = q.Where("is_active = ?", true)
		if f.Role != "" {
			q = q.Where("role = ?", f.Role)
		}
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, translate(err, "account")
	}
	var out []model.Account
	err := q.Order("email").Offset(f.Skip).Limit(f.Limit).Find(&out).Error
	if err != nil {
		return nil, 0, translate(err, "account")
	}
	return out, total, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
