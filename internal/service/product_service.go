package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/juju/errors"

	"github.com/iliyamo/storefront/internal/model"
	"github.com/iliyamo/storefront/internal/queue"
	"github.com/iliyamo/storefront/internal/repository"
)

// productModel names products in audit events.
const productModel = "Product"

// EventPublisher hands audit events to the broker.  *queue.Publisher
// implements it.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.AuditEvent) error
}

type ProductService struct {
	repo *repository.ProductRepo
	pub  EventPublisher
	now  func() time.Time
}

func NewProductService(repo *repository.ProductRepo, pub EventPublisher) *ProductService {
	return &ProductService{repo: repo, pub: pub, now: time.Now}
}

// Create stores a new product and publishes a create event.  A taken SKU
// yields AlreadyExists.
func (s *ProductService) Create(ctx context.Context, actor string, in model.ProductCreate) (*model.Product, error) {
	if err := notBlank("sku", in.SKU, "name", in.Name, "brand", in.Brand); err != nil {
		return nil, err
	}
	if _, err := s.repo.GetBySKU(ctx, in.SKU); err == nil {
		return nil, errors.AlreadyExistsf("product with this sku")
	} else if !errors.Is(err, errors.NotFound) {
		return nil, errors.Trace(err)
	}

	p := &model.Product{
		SKU:            in.SKU,
		Name:           strings.TrimSpace(in.Name),
		Description:    in.Description,
		Price:          in.Price,
		Brand:          strings.TrimSpace(in.Brand),
		IsDiscontinued: in.IsDiscontinued,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		if errors.Is(err, errors.AlreadyExists) {
			return nil, errors.AlreadyExistsf("product with this sku")
		}
		return nil, errors.Trace(err)
	}
	if err := s.emit(ctx, actor, queue.ActionCreate, nil, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Update applies the non-nil fields of in and publishes an update event.
// Discontinued products can still be updated.  Moving to a SKU owned by a
// different product yields repository.ErrConflict.
func (s *ProductService) Update(ctx context.Context, actor string, id uuid.UUID, in model.ProductUpdate) (*model.Product, error) {
	for field, v := range map[string]*string{"sku": in.SKU, "name": in.Name, "brand": in.Brand} {
		if v != nil && strings.TrimSpace(*v) == "" {
			return nil, errors.NotValidf("blank %s", field)
		}
	}
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	before := p.Public()

	if in.SKU != nil {
		other, err := s.repo.GetBySKU(ctx, *in.SKU)
		switch {
		case err == nil && other.ID != p.ID:
			return nil, repository.ErrConflict
		case err != nil && !errors.Is(err, errors.NotFound):
			return nil, errors.Trace(err)
		}
		p.SKU = *in.SKU
	}
	if in.Name != nil {
		p.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		p.Description = in.Description
	}
	if in.Price != nil {
		p.Price = *in.Price
	}
	if in.Brand != nil {
		p.Brand = strings.TrimSpace(*in.Brand)
	}
	if in.IsDiscontinued != nil {
		p.IsDiscontinued = *in.IsDiscontinued
	}

	if err := s.repo.Save(ctx, p); err != nil {
		if errors.Is(err, errors.AlreadyExists) {
			return nil, repository.ErrConflict
		}
		return nil, errors.Trace(err)
	}
	if err := s.emit(ctx, actor, queue.ActionUpdate, &before, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Delete marks the product discontinued and publishes a soft delete event.
// Deleting a discontinued product writes nothing but still publishes.
func (s *ProductService) Delete(ctx context.Context, actor string, id uuid.UUID) (*model.Product, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	before := p.Public()

	if !p.IsDiscontinued {
		p.IsDiscontinued = true
		if err := s.repo.Save(ctx, p); err != nil {
			return nil, errors.Trace(err)
		}
	}
	if err := s.emit(ctx, actor, queue.ActionSoftDelete, &before, p); err != nil {
		return nil, err
	}
	return p, nil
}

// List returns a page of available products and their total number.
func (s *ProductService) List(ctx context.Context, page Page) ([]model.Product, int64, error) {
	page = page.Normalize()
	out, total, err := s.repo.ListAvailable(ctx, page.Skip, page.Limit)
	return out, total, errors.Trace(err)
}

// Get returns an available product; discontinued products are NotFound.
func (s *ProductService) Get(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.IsDiscontinued {
		return nil, errors.NotFoundf("product")
	}
	return p, nil
}

// emit publishes the audit event for a mutation that has already been
// written.  A failure is returned to the caller.
func (s *ProductService) emit(ctx context.Context, actor, action string, before *model.ProductPublic, after *model.Product) error {
	var old interface{}
	if before != nil {
		old = before
	}
	changes, err := Changes(old, after.Public())
	if err != nil {
		return errors.Trace(err)
	}
	ev := queue.AuditEvent{
		User:      actor,
		Action:    action,
		Timestamp: s.now().UTC(),
		Model:     productModel,
		RecordID:  after.ID.String(),
		Changes:   changes,
	}
	if err := s.pub.Publish(ctx, ev); err != nil {
		logger.Errorf("audit event %s on product %s not published: %v", action, after.ID, err)
		return errors.Annotate(err, "publish audit event")
	}
	return nil
}

// notBlank takes name/value pairs and rejects the first value that is empty
// once trimmed.
func notBlank(pairs ...string) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if strings.TrimSpace(pairs[i+1]) == "" {
			return errors.NotValidf("blank %s", pairs[i])
		}
	}
	return nil
}
