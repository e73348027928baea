package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/iliyamo/storefront/internal/model"
)

type ProductRepo struct{ DB *gorm.DB }

func NewProductRepo(db *gorm.DB) *ProductRepo { return &ProductRepo{DB: db} }

// Create inserts p and fills in its ID when unset.
func (r *ProductRepo) Create(ctx context.Context, p *model.Product) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.SKU = strings.TrimSpace(p.SKU)
	return translate(r.DB.WithContext(ctx).Create(p).Error, "product")
}

// GetByID fetches a product including discontinued ones.
func (r *ProductRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var p model.Product
	if err := r.DB.WithContext(ctx).Where("id = ?", id).Take(&p).Error; err != nil {
		return nil, translate(err, "product")
	}
	return &p, nil
}

// GetBySKU fetches a product by its exact SKU.
func (r *ProductRepo) GetBySKU(ctx context.Context, sku string) (*model.Product, error) {
	var p model.Product
	err := r.DB.WithContext(ctx).Where("sku = ?", strings.TrimSpace(sku)).Take(&p).Error
	if err != nil {
		return nil, translate(err, "product")
	}
	return &p, nil
}

// Save writes every column of p back to its row.
func (r *ProductRepo) Save(ctx context.Context, p *model.Product) error {
	p.SKU = strings.TrimSpace(p.SKU)
	err := r.DB.WithContext(ctx).Model(p).Select("*").Omit("created_at").Updates(p).Error
	return translate(err, "product")
}

// ListAvailable returns one page of products that are not discontinued,
// ordered by name, and the number of such products.
func (r *ProductRepo) ListAvailable(ctx context.Context, skip, limit int) ([]model.Product, int64, error) {
	q := r.DB.WithContext(ctx).Model(&model.Product{}).Where("is_discontinued = ?", false)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, translate(err, "product")
	}
	var out []model.Product
	if err := q.Order("name").Order("id").Offset(skip).Limit(limit).Find(&out).Error; err != nil {
		return nil, 0, translate(err, "product")
	}
	return out, total, nil
}

// Count returns the number of product rows, discontinued included.
func (r *ProductRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.Product{}).Count(&n).Error
	return n, translate(err, "product")
}
