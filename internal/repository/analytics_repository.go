package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/iliyamo/storefront/internal/model"
)

type AnalyticsRepo struct{ DB *gorm.DB }

func NewAnalyticsRepo(db *gorm.DB) *AnalyticsRepo { return &AnalyticsRepo{DB: db} }

// Increment bumps the query counter of productID.  The first call only
// creates the row with a zero count and no timestamp.
func (r *AnalyticsRepo) Increment(ctx context.Context, productID uuid.UUID, now time.Time) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.ProductAnalytics{}).
			Where("product_id = ?", productID).
			Updates(map[string]interface{}{
				"query_count":     gorm.Expr("query_count + 1"),
				"last_queried_at": now.UTC(),
			})
		if res.Error != nil {
			return translate(res.Error, "product analytics")
		}
		if res.RowsAffected > 0 {
			return nil
		}
		row := model.ProductAnalytics{ID: uuid.New(), ProductID: productID}
		return translate(tx.Create(&row).Error, "product analytics")
	})
}

// GetByProductID returns the analytics row of productID.
func (r *AnalyticsRepo) GetByProductID(ctx context.Context, productID uuid.UUID) (*model.ProductAnalytics, error) {
	var a model.ProductAnalytics
	err := r.DB.WithContext(ctx).Where("product_id = ?", productID).Take(&a).Error
	if err != nil {
		return nil, translate(err, "product analytics")
	}
	return &a, nil
}
