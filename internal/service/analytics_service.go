package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/juju/errors"

	"github.com/iliyamo/storefront/internal/model"
	"github.com/iliyamo/storefront/internal/repository"
)

// AnalyticsService counts product reads.
type AnalyticsService struct {
	repo *repository.AnalyticsRepo
	now  func() time.Time
}

func NewAnalyticsService(repo *repository.AnalyticsRepo) *AnalyticsService {
	return &AnalyticsService{repo: repo, now: time.Now}
}

// Increment records one read of productID.  The first read only creates the
// counter row.
func (s *AnalyticsService) Increment(ctx context.Context, productID uuid.UUID) error {
	return errors.Trace(s.repo.Increment(ctx, productID, s.now()))
}

// Get returns the counters of productID, NotFound when it was never read.
func (s *AnalyticsService) Get(ctx context.Context, productID uuid.UUID) (*model.ProductAnalytics, error) {
	return s.repo.GetByProductID(ctx, productID)
}
