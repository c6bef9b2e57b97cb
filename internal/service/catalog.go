package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/storefront/internal/events"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

type CreateProductInput struct {
	Name        string          `json:"name"`
	Description *string         `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
}

type UpdateProductInput struct {
	Name        *string          `json:"name,omitempty"`
	Description *string          `json:"description,omitempty"`
	Price       *decimal.Decimal `json:"price,omitempty"`
}

// ProductIndex is the full-text search side of the catalog.
type ProductIndex interface {
	IndexProduct(ctx context.Context, p *models.Product) error
	DeleteProduct(ctx context.Context, id uint) error
	Search(ctx context.Context, query string, from, size int) (int64, []models.Product, error)
}

type CatalogService struct {
	Products repo.ProductRepository
	// Index is optional; searches fall back to SQL without it.
	Index  ProductIndex
	Events events.Publisher
}

func (s *CatalogService) List(ctx context.Context, page, limit int, q string) (*Page[models.Product], error) {
	page, offset, limit := pageBounds(page, limit)
	q = strings.TrimSpace(q)

	var (
		total    int64
		products []models.Product
		err      error
	)
	switch {
	case q == "":
		total, products, err = s.Products.ListProducts(ctx, offset, limit)
	case s.Index != nil:
		total, products, err = s.Index.Search(ctx, q, offset, limit)
		if err != nil {
			logging.FromContext(ctx).Warnw("search_error", "reason", "index unavailable, using sql", "error", err)
			total, products, err = s.Products.SearchProducts(ctx, q, offset, limit)
		}
	default:
		total, products, err = s.Products.SearchProducts(ctx, q, offset, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: list products: %v", ErrInternal, err)
	}
	return newPage(page, limit, total, products), nil
}

func (s *CatalogService) Get(ctx context.Context, id uint) (*models.Product, error) {
	p, err := s.Products.GetProduct(ctx, id)
	if err != nil {
		return nil, productErr(err)
	}
	return p, nil
}

func (s *CatalogService) Create(ctx context.Context, in CreateProductInput) (*models.Product, error) {
	if err := ValidateCreateProduct(&in); err != nil {
		return nil, err
	}

	p := &models.Product{Name: in.Name, Description: in.Description, Price: in.Price}
	if err := s.Products.CreateProduct(ctx, p); err != nil {
		return nil, fmt.Errorf("%w: create product: %v", ErrInternal, err)
	}

	s.sync(ctx, p, "product_created")
	return p, nil
}

func (s *CatalogService) Update(ctx context.Context, id uint, in UpdateProductInput) (*models.Product, error) {
	if err := ValidateUpdateProduct(&in); err != nil {
		return nil, err
	}

	p, err := s.Products.UpdateProduct(ctx, id, repo.ProductPatch{
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
	})
	if err != nil {
		return nil, productErr(err)
	}

	s.sync(ctx, p, "product_updated")
	return p, nil
}

func (s *CatalogService) Delete(ctx context.Context, id uint) error {
	if err := s.Products.DeleteProduct(ctx, id); err != nil {
		if errors.Is(err, repo.ErrReferenced) {
			return fmt.Errorf("%w: product is referenced by orders", ErrConflict)
		}
		return productErr(err)
	}

	if s.Index != nil {
		if err := s.Index.DeleteProduct(ctx, id); err != nil {
			logging.FromContext(ctx).Warnw("search_index_error", "product_id", id, "error", err)
		}
	}
	events.Emit(ctx, s.Events, events.TopicProducts, id, events.New("product_deleted", events.Event{"productId": id}))
	return nil
}

func (s *CatalogService) sync(ctx context.Context, p *models.Product, eventType string) {
	if s.Index != nil {
		if err := s.Index.IndexProduct(ctx, p); err != nil {
			logging.FromContext(ctx).Warnw("search_index_error", "product_id", p.ID, "error", err)
		}
	}
	events.Emit(ctx, s.Events, events.TopicProducts, p.ID, events.New(eventType, events.Event{
		"productId": p.ID,
		"name":      p.Name,
		"price":     p.Price.StringFixed(2),
	}))
}

func productErr(err error) error {
	if errors.Is(err, repo.ErrNotFound) {
		return fmt.Errorf("%w: product not found", ErrNotFound)
	}
	return fmt.Errorf("%w: %v", ErrInternal, err)
}
