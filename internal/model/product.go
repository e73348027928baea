package model

import (
	"time"

	"github.com/google/uuid"
)

// Product represents a row in the `products` table.  Deleting a product only
// sets IsDiscontinued; read endpoints hide discontinued rows.
type Product struct {
	ID             uuid.UUID `gorm:"type:char(36);primaryKey"`
	SKU            string    `gorm:"column:sku;size:100;not null;uniqueIndex"`
	Name           string    `gorm:"size:255;not null"`
	Description    *string   `gorm:"size:255"`
	Price          float64   `gorm:"not null"`
	Brand          string    `gorm:"size:100;not null"`
	IsDiscontinued bool      `gorm:"not null"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (Product) TableName() string { return "products" }

// ProductPublic is the projection returned over HTTP and diffed for audit
// events.
type ProductPublic struct {
	ID             uuid.UUID `json:"id"`
	SKU            string    `json:"sku"`
	Name           string    `json:"name"`
	Description    *string   `json:"description"`
	Price          float64   `json:"price"`
	Brand          string    `json:"brand"`
	IsDiscontinued bool      `json:"is_discontinued"`
}

func (p *Product) Public() ProductPublic {
	return ProductPublic{
		ID:             p.ID,
		SKU:            p.SKU,
		Name:           p.Name,
		Description:    p.Description,
		Price:          p.Price,
		Brand:          p.Brand,
		IsDiscontinued: p.IsDiscontinued,
	}
}

// ProductCreate is the payload of POST /products.
type ProductCreate struct {
	SKU            string  `json:"sku" validate:"required,notblank,max=100"`
	Name           string  `json:"name" validate:"required,notblank,max=255"`
	Description    *string `json:"description" validate:"omitempty,max=255"`
	Price          float64 `json:"price" validate:"gt=0"`
	Brand          string  `json:"brand" validate:"required,notblank,max=100"`
	IsDiscontinued bool    `json:"is_discontinued"`
}

// ProductUpdate is the payload of PATCH /products/:id.
type ProductUpdate struct {
	SKU            *string  `json:"sku" validate:"omitempty,notblank,max=100"`
	Name           *string  `json:"name" validate:"omitempty,notblank,max=255"`
	Description    *string  `json:"description" validate:"omitempty,max=255"`
	Price          *float64 `json:"price" validate:"omitempty,gt=0"`
	Brand          *string  `json:"brand" validate:"omitempty,notblank,max=100"`
	IsDiscontinued *bool    `json:"is_discontinued"`
}

// ProductsPublic is the list envelope.
type ProductsPublic struct {
	Data  []ProductPublic `json:"data"`
	Count int             `json:"count"`
}

// ProductAnalytics counts reads of a single product.  The row is created
// lazily on the first increment.
type ProductAnalytics struct {
	ID            uuid.UUID  `gorm:"type:char(36);primaryKey" json:"id"`
	ProductID     uuid.UUID  `gorm:"type:char(36);not null;uniqueIndex" json:"product_id"`
	QueryCount    int64      `gorm:"not null" json:"query_count"`
	LastQueriedAt *time.Time `json:"last_queried_at"`
}

func (ProductAnalytics) TableName() string { return "product_query_logs" }
