// Package registry implements CRUD over the Product → Domain → Context →
// Schema → SchemaVersion hierarchy. Every mutation is reported to the change
// recorder; recorder failures are absorbed so change tracking never rolls back
// or blocks the mutation it observes.
package registry

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/schemahub/schemahub/internal/model"
	"github.com/schemahub/schemahub/internal/notifications"
	"github.com/schemahub/schemahub/internal/repository"
	"github.com/schemahub/schemahub/pkg/timeutil"
)

// ChangeRecorder is the slice of the notification service the registry needs.
type ChangeRecorder interface {
	RecordChange(ctx context.Context, input notifications.RecordChangeInput) (notifications.RecordResult, error)
}

// Service wraps the hierarchy store with change recording.
type Service struct {
	store    repository.HierarchyRepository
	recorder ChangeRecorder

	now func() time.Time
}

// Option configures the service.
type Option func(*Service)

// WithClock overrides the clock, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService creates a new registry service.
func NewService(store repository.HierarchyRepository, recorder ChangeRecorder, opts ...Option) *Service {
	s := &Service{
		store:    store,
		recorder: recorder,
		now:      timeutil.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// recordChange reports a mutation to the change recorder. All failures are
// logged and absorbed.
func (s *Service) recordChange(ctx context.Context, input notifications.RecordChangeInput) {
	result, err := s.recorder.RecordChange(ctx, input)
	if err != nil {
		log.Printf("failed to record %s change for %s %s: %v", input.ChangeType, input.EntityType, input.EntityID, err)
		return
	}
	if !result.Recorded {
		log.Printf("change for %s %s not recorded: %s", input.EntityType, input.EntityID, result.Reason)
	}
}

func productPayload(p model.Product) map[string]any {
	return map[string]any{"name": p.Name, "description": p.Description}
}

// CreateProduct creates a product at the root of the hierarchy.
func (s *Service) CreateProduct(ctx context.Context, name, description string, actor *uuid.UUID) (model.Product, error) {
	product := model.Product{
		ID:          uuid.New(),
		Name:        name,
		Description: description,
		CreatedAt:   s.now(),
	}

	product, err := s.store.CreateProduct(ctx, product)
	if err != nil {
		return model.Product{}, err
	}

	s.recordChange(ctx, notifications.RecordChangeInput{
		EntityType: model.EntityTypeProduct,
		EntityID:   product.ID,
		EntityName: product.Name,
		ChangeType: model.ChangeTypeCreated,
		ChangeData: model.ChangeData{After: productPayload(product)},
		ChangedBy:  actor,
	})

	return product, nil
}

// UpdateProduct updates a product's name and description.
func (s *Service) UpdateProduct(ctx context.Context, id uuid.UUID, name, description string, actor *uuid.UUID) (model.Product, error) {
	before, err := s.store.GetProduct(ctx, id)
	if err != nil {
		return model.Product{}, err
	}

	after := before
	after.Name = name
	after.Description = description
	after.UpdatedAt = s.now()

	after, err = s.store.UpdateProduct(ctx, after)
	if err != nil {
		return model.Product{}, err
	}

	s.recordChange(ctx, notifications.RecordChangeInput{
		EntityType: model.EntityTypeProduct,
		EntityID:   after.ID,
		EntityName: after.Name,
		ChangeType: model.ChangeTypeUpdated,
		ChangeData: model.ChangeData{Before: productPayload(before), After: productPayload(after)},
		ChangedBy:  actor,
	})

	return after, nil
}

// DeleteProduct deletes a product and everything below it.
func (s *Service) DeleteProduct(ctx context.Context, id uuid.UUID, actor *uuid.UUID) error {
	before, err := s.store.GetProduct(ctx, id)
	if err != nil {
		return err
	}

	if err := s.store.DeleteProduct(ctx, id); err != nil {
		return err
	}

	s.recordChange(ctx, notifications.RecordChangeInput{
		EntityType: model.EntityTypeProduct,
		EntityID:   id,
		EntityName: before.Name,
		ChangeType: model.ChangeTypeDeleted,
		ChangeData: model.ChangeData{Before: productPayload(before)},
		ChangedBy:  actor,
	})

	return nil
}

func domainPayload(d model.Domain) map[string]any {
	return map[string]any{"name": d.Name, "description": d.Description, "productId": d.ProductID.String()}
}

// CreateDomain creates a domain under a product.
func (s *Service) CreateDomain(ctx context.Context, productID uuid.UUID, name, description string, actor *uuid.UUID) (model.Domain, error) {
	// Parent must exist; the FK would catch it, but this gives a clean error.
	if _, err := s.store.GetProduct(ctx, productID); err != nil {
		return model.Domain{}, err
	}

	domain := model.Domain{
		ID:          uuid.New(),
		ProductID:   productID,
		Name:        name,
		Description: description,
		CreatedAt:   s.now(),
	}

	domain, err := s.store.CreateDomain(ctx, domain)
	if err != nil {
		return model.Domain{}, err
	}

	s.recordChange(ctx, notifications.RecordChangeInput{
		EntityType: model.EntityTypeDomain,
		EntityID:   domain.ID,
		EntityName: domain.Name,
		ChangeType: model.ChangeTypeCreated,
		ChangeData: model.ChangeData{After: domainPayload(domain)},
		ChangedBy:  actor,
	})

	return domain, nil
}

// UpdateDomain updates a domain's name and description.
func (s *Service) UpdateDomain(ctx context.Context, id uuid.UUID, name, description string, actor *uuid.UUID) (model.Domain, error) {
	before, err := s.store.GetDomain(ctx, id)
	if err != nil {
		return model.Domain{}, err
	}

	after := before
	after.Name = name
	after.Description = description
	after.UpdatedAt = s.now()

	after, err = s.store.UpdateDomain(ctx, after)
	if err != nil {
		return model.Domain{}, err
	}

	s.recordChange(ctx, notifications.RecordChangeInput{
		EntityType: model.EntityTypeDomain,
		EntityID:   after.ID,
		EntityName: after.Name,
		ChangeType: model.ChangeTypeUpdated,
		ChangeData: model.ChangeData{Before: domainPayload(before), After: domainPayload(after)},
		ChangedBy:  actor,
	})

	return after, nil
}

// DeleteDomain deletes a domain.
func (s *Service) DeleteDomain(ctx context.Context, id uuid.UUID, actor *uuid.UUID) error {
	before, err := s.store.GetDomain(ctx, id)
	if err != nil {
		return err
	}

	if err := s.store.DeleteDomain(ctx, id); err != nil {
		return err
	}

	s.recordChange(ctx, notifications.RecordChangeInput{
		EntityType: model.EntityTypeDomain,
		EntityID:   id,
		EntityName: before.Name,
		ChangeType: model.ChangeTypeDeleted,
		ChangeData: model.ChangeData{Before: domainPayload(before)},
		ChangedBy:  actor,
	})

	return nil
}

func contextPayload(c model.Context) map[string]any {
	return map[string]any{"name": c.Name, "description": c.Description, "domainId": c.DomainID.String()}
}

// CreateContext creates a context under a domain.
func (s *Service) CreateContext(ctx context.Context, domainID uuid.UUID, name, description string, actor *uuid.UUID) (model.Context, error) {
	if _, err := s.store.GetDomain(ctx, domainID); err != nil {
		return model.Context{}, err
	}

	bctx := model.Context{
		ID:          uuid.New(),
		DomainID:    domainID,
		Name:        name,
		Description: description,
		CreatedAt:   s.now(),
	}

	bctx, err := s.store.CreateContext(ctx, bctx)
	if err != nil {
		return model.Context{}, err
	}

	s.recordChange(ctx, notifications.RecordChangeInput{
		EntityType: model.EntityTypeContext,
		EntityID:   bctx.ID,
		EntityName: bctx.Name,
		ChangeType: model.ChangeTypeCreated,
		ChangeData: model.ChangeData{After: contextPayload(bctx)},
		ChangedBy:  actor,
	})

	return bctx, nil
}

// UpdateContext updates a context's name and description.
func (s *Service) UpdateContext(ctx context.Context, id uuid.UUID, name, description string, actor *uuid.UUID) (model.Context, error) {
	before, err := s.store.GetContext(ctx, id)
	if err != nil {
		return model.Context{}, err
	}

	after := before
	after.Name = name
	after.Description = description
	after.UpdatedAt = s.now()

	after, err = s.store.UpdateContext(ctx, after)
	if err != nil {
		return model.Context{}, err
	}

	s.recordChange(ctx, notifications.RecordChangeInput{
		EntityType: model.EntityTypeContext,
		EntityID:   after.ID,
		EntityName: after.Name,
		ChangeType: model.ChangeTypeUpdated,
		ChangeData: model.ChangeData{Before: contextPayload(before), After: contextPayload(after)},
		ChangedBy:  actor,
	})

	return after, nil
}

// DeleteContext deletes a context.
func (s *Service) DeleteContext(ctx context.Context, id uuid.UUID, actor *uuid.UUID) error {
	before, err := s.store.GetContext(ctx, id)
	if err != nil {
		return err
	}

	if err := s.store.DeleteContext(ctx, id); err != nil {
		return err
	}

	s.recordChange(ctx, notifications.RecordChangeInput{
		EntityType: model.EntityTypeContext,
		EntityID:   id,
		EntityName: before.Name,
		ChangeType: model.ChangeTypeDeleted,
		ChangeData: model.ChangeData{Before: contextPayload(before)},
		ChangedBy:  actor,
	})

	return nil
}

// Read-side passthroughs used by the HTTP layer.

func (s *Service) GetProduct(ctx context.Context, id uuid.UUID) (model.Product, error) {
	return s.store.GetProduct(ctx, id)
}

func (s *Service) ListProducts(ctx context.Context) ([]model.Product, error) {
	return s.store.ListProducts(ctx)
}

func (s *Service) GetDomain(ctx context.Context, id uuid.UUID) (model.Domain, error) {
	return s.store.GetDomain(ctx, id)
}

func (s *Service) ListDomains(ctx context.Context, productID uuid.UUID) ([]model.Domain, error) {
	return s.store.ListDomains(ctx, productID)
}

func (s *Service) GetContext(ctx context.Context, id uuid.UUID) (model.Context, error) {
	return s.store.GetContext(ctx, id)
}

func (s *Service) ListContexts(ctx context.Context, domainID uuid.UUID) ([]model.Context, error) {
	return s.store.ListContexts(ctx, domainID)
}
