package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/juju/errors"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/storefront/internal/middleware"
	"github.com/iliyamo/storefront/internal/model"
	"github.com/iliyamo/storefront/internal/repository"
	"github.com/iliyamo/storefront/internal/service"
)

// Purger drops cached product reads.  *middleware.ResponseCache implements it.
type Purger interface {
	Purge(ctx context.Context) error
}

// ProductHandler serves the product endpoints.  Reads of a single product
// are counted only when Track is set.
type ProductHandler struct {
	Products  *service.ProductService
	Analytics *service.AnalyticsService
	Cache     Purger
	Track     bool
}

func NewProductHandler(products *service.ProductService, analytics *service.AnalyticsService, cache Purger, track bool) *ProductHandler {
	return &ProductHandler{Products: products, Analytics: analytics, Cache: cache, Track: track}
}

var productDetails = details{
	errors.NotFound:        "Product not found",
	errors.AlreadyExists:   "The product with this sku already exists in the system.",
	repository.ErrConflict: "Product with this sku already exists",
}

func (h *ProductHandler) Create(c echo.Context) error {
	var req model.ProductCreate
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, err, nil)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	p, err := h.Products.Create(ctx, middleware.Subject(c), req)
	h.purge(ctx)
	if err != nil {
		return respondError(c, err, productDetails)
	}
	return c.JSON(http.StatusOK, p.Public())
}

func (h *ProductHandler) Update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return respondError(c, err, nil)
	}
	var req model.ProductUpdate
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, err, nil)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	p, err := h.Products.Update(ctx, middleware.Subject(c), id, req)
	h.purge(ctx)
	if err != nil {
		return respondError(c, err, details{
			errors.NotFound:        "The product with this id does not exist in the system",
			repository.ErrConflict: productDetails[repository.ErrConflict],
		})
	}
	return c.JSON(http.StatusOK, p.Public())
}

// Delete marks the product discontinued.
func (h *ProductHandler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return respondError(c, err, nil)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	_, err = h.Products.Delete(ctx, middleware.Subject(c), id)
	h.purge(ctx)
	if err != nil {
		return respondError(c, err, productDetails)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Product soft deleted successfully"})
}

// List handles GET /products?skip=&limit=.  Discontinued products are left out.
func (h *ProductHandler) List(c echo.Context) error {
	page, err := pageParams(c)
	if err != nil {
		return respondError(c, err, nil)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rows, total, err := h.Products.List(ctx, page)
	if err != nil {
		return respondError(c, err, nil)
	}
	out := model.ProductsPublic{Data: make([]model.ProductPublic, 0, len(rows)), Count: int(total)}
	for i := range rows {
		out.Data = append(out.Data, rows[i].Public())
	}
	return c.JSON(http.StatusOK, out)
}

func (h *ProductHandler) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return respondError(c, err, nil)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	p, err := h.Products.Get(ctx, id)
	if err != nil {
		return respondError(c, err, productDetails)
	}
	h.track(ctx, id)
	return c.JSON(http.StatusOK, p.Public())
}

// GetAnalytics handles GET /products/:id/analytics.
func (h *ProductHandler) GetAnalytics(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return respondError(c, err, nil)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	a, err := h.Analytics.Get(ctx, id)
	if err != nil {
		return respondError(c, err, productDetails)
	}
	return c.JSON(http.StatusOK, a)
}

// track counts a successful read.  Counting never fails the read.
func (h *ProductHandler) track(ctx context.Context, id uuid.UUID) {
	if !h.Track {
		return
	}
	if err := h.Analytics.Increment(ctx, id); err != nil {
		logger.Warningf("count read of product %s: %v", id, err)
	}
}

// purge runs after every mutation attempt, failed ones included.
func (h *ProductHandler) purge(ctx context.Context) {
	if h.Cache == nil {
		return
	}
	if err := h.Cache.Purge(ctx); err != nil {
		logger.Warningf("purge product cache: %v", err)
	}
}
