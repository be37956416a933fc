package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/greencart/backend/internal/actor"
	"github.com/greencart/backend/internal/logging"
	"github.com/greencart/backend/internal/models"
	"github.com/greencart/backend/internal/repo"
)

// ProductIndexer mirrors catalog changes into the search index. Indexing is
// best effort, like event publishing.
type ProductIndexer interface {
	IndexProduct(ctx context.Context, p models.Product) error
	RemoveProduct(ctx context.Context, id uint) error
}

type ProductService struct {
	Repo   *repo.GormRepo
	Events EventPublisher
	Index  ProductIndexer
}

type ProductInput struct {
	Name              string `json:"name"`
	Description       string `json:"description"`
	Price             int64  `json:"price"`
	QuantityAvailable *uint  `json:"quantity_available"`
	IsActive          *bool  `json:"is_active"`
}

func (s *ProductService) Get(ctx context.Context, id uint) (*models.Product, error) {
	p, err := s.Repo.ProductByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: product %d", ErrNotFound, id)
		}
		return nil, err
	}
	return p, nil
}

func (s *ProductService) List(ctx context.Context, offset, limit int) ([]models.Product, int64, error) {
	return s.Repo.ListProducts(ctx, offset, limit)
}

func (s *ProductService) Create(ctx context.Context, act actor.Actor, in ProductInput) (*models.Product, error) {
	if !act.IsProducer() && !act.IsStaff() {
		return nil, fmt.Errorf("%w: only producers create products", ErrPermissionDenied)
	}
	if in.Name == "" {
		return nil, fmt.Errorf("%w: name required", ErrValidation)
	}
	if in.Price < 0 {
		return nil, fmt.Errorf("%w: price must be >= 0", ErrValidation)
	}

	p := &models.Product{
		ProducerID:  act.ProducerID,
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		IsActive:    true,
	}
	if in.QuantityAvailable != nil {
		p.QuantityAvailable = *in.QuantityAvailable
	}
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}
	if err := s.Repo.CreateProduct(ctx, p); err != nil {
		return nil, err
	}

	s.index(ctx, *p)
	s.publishProduct(ctx, "product_created", p.ID, p.Name)
	return p, nil
}

func (s *ProductService) Update(ctx context.Context, act actor.Actor, id uint, in ProductInput) (*models.Product, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.canManage(act, p) {
		return nil, fmt.Errorf("%w: not your product", ErrPermissionDenied)
	}
	if in.Price < 0 {
		return nil, fmt.Errorf("%w: price must be >= 0", ErrValidation)
	}

	if in.Name != "" {
		p.Name = in.Name
	}
	if in.Description != "" {
		p.Description = in.Description
	}
	if in.Price > 0 {
		p.Price = in.Price
	}
	if in.QuantityAvailable != nil {
		p.QuantityAvailable = *in.QuantityAvailable
	}
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}

	if err := s.Repo.SaveProduct(ctx, p); err != nil {
		return nil, err
	}

	s.index(ctx, *p)
	s.publishProduct(ctx, "product_updated", p.ID, p.Name)
	return p, nil
}

func (s *ProductService) Delete(ctx context.Context, act actor.Actor, id uint) error {
	p, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if !s.canManage(act, p) {
		return fmt.Errorf("%w: not your product", ErrPermissionDenied)
	}
	if err := s.Repo.DeleteProduct(ctx, id); err != nil {
		return err
	}

	if s.Index != nil {
		if err := s.Index.RemoveProduct(ctx, id); err != nil {
			logging.FromContext(ctx).Warn("search deindex failed", "product_id", id, "error", err)
		}
	}
	s.publishProduct(ctx, "product_deleted", id, p.Name)
	return nil
}

func (s *ProductService) canManage(act actor.Actor, p *models.Product) bool {
	if act.IsStaff() {
		return true
	}
	return act.IsProducer() && act.ProducerID == p.ProducerID
}

func (s *ProductService) index(ctx context.Context, p models.Product) {
	if s.Index == nil {
		return
	}
	if err := s.Index.IndexProduct(ctx, p); err != nil {
		logging.FromContext(ctx).Warn("search index failed", "product_id", p.ID, "error", err)
	}
}

func (s *ProductService) publishProduct(ctx context.Context, eventType string, id uint, name string) {
	if s.Events == nil {
		return
	}
	event := map[string]any{
		"type":       eventType,
		"product_id": id,
		"name":       name,
	}
	if err := s.Events.PublishEvent(ctx, fmt.Sprint(id), event); err != nil {
		logging.FromContext(ctx).Warn("event publish failed", "type", eventType, "error", err)
	}
}
