package service

import (
	"context"
	"errors"
	"html"
	"strings"
	"time"

	"github.com/aussiebroadwan/greenbite/internal/shop/domain"
	"github.com/aussiebroadwan/greenbite/internal/shop/store"
	"github.com/aussiebroadwan/greenbite/pkg/idx"
	"github.com/aussiebroadwan/greenbite/pkg/slogx"
	"github.com/microcosm-cc/bluemonday"
)

type CategoryInput struct {
	Name  string
	Image string
}

type ProductInput struct {
	Name        string
	Description *string
	Price       float64
	Image       string
	CategoryID  string
	Stock       int
}

// CatalogService serves categories and products. Text supplied by admins is
// sanitised before it is stored: names lose all markup, descriptions keep
// basic formatting only.
type CatalogService struct {
	Store        store.Store
	StoreTimeout time.Duration

	plain *bluemonday.Policy
	rich  *bluemonday.Policy
}

func NewCatalogService(st store.Store, timeout time.Duration) *CatalogService {
	return &CatalogService{
		Store:        st,
		StoreTimeout: timeout,
		plain:        bluemonday.StrictPolicy(),
		rich:         bluemonday.UGCPolicy(),
	}
}

func (s *CatalogService) plainText(v string) string {
	return strings.TrimSpace(html.UnescapeString(s.plain.Sanitize(v)))
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]domain.Category, error) {
	ctx, cancel := bounded(ctx, s.StoreTimeout)
	defer cancel()

	cats, err := s.Store.Categories().ListCategories(ctx)
	if err != nil {
		return nil, classify("list categories", err)
	}
	return cats, nil
}

// GetCategory returns the category with its products.
func (s *CatalogService) GetCategory(ctx context.Context, id string) (domain.Category, error) {
	ctx, cancel := bounded(ctx, s.StoreTimeout)
	defer cancel()

	cat, err := s.Store.Categories().GetCategory(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Category{}, ErrCategoryNotFound
		}
		return domain.Category{}, classify("get category", err)
	}

	cat.Products, err = s.Store.Products().ListProductsByCategory(ctx, id)
	if err != nil {
		return domain.Category{}, classify("list category products", err)
	}
	return cat, nil
}

func (s *CatalogService) CreateCategory(ctx context.Context, in CategoryInput) (domain.Category, error) {
	ctx, cancel := bounded(ctx, s.StoreTimeout)
	defer cancel()

	cat := domain.Category{
		ID:        idx.New().String(),
		Name:      s.plainText(in.Name),
		Image:     in.Image,
		CreatedAt: time.Now().UTC(),
	}
	if len(cat.Name) < 2 {
		return domain.Category{}, ErrValidation
	}

	if err := s.Store.Categories().CreateCategory(ctx, cat); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.Category{}, ErrCategoryExists
		}
		return domain.Category{}, classify("create category", err)
	}

	slogx.FromContext(ctx).Info("category created", "category_id", cat.ID)
	return cat, nil
}

func (s *CatalogService) ListProducts(ctx context.Context) ([]domain.Product, error) {
	ctx, cancel := bounded(ctx, s.StoreTimeout)
	defer cancel()

	products, err := s.Store.Products().ListProducts(ctx)
	if err != nil {
		return nil, classify("list products", err)
	}
	return products, nil
}

// GetProduct returns the product with its category attached.
func (s *CatalogService) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	ctx, cancel := bounded(ctx, s.StoreTimeout)
	defer cancel()

	p, err := s.Store.Products().GetProduct(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Product{}, ErrProductNotFound
		}
		return domain.Product{}, classify("get product", err)
	}
	return p, nil
}

func (s *CatalogService) CreateProduct(ctx context.Context, in ProductInput) (domain.Product, error) {
	ctx, cancel := bounded(ctx, s.StoreTimeout)
	defer cancel()

	p := domain.Product{
		ID:         idx.New().String(),
		Name:       s.plainText(in.Name),
		Price:      in.Price,
		Image:      in.Image,
		CategoryID: in.CategoryID,
		Stock:      in.Stock,
		CreatedAt:  time.Now().UTC(),
	}
	if in.Description != nil {
		d := strings.TrimSpace(s.rich.Sanitize(*in.Description))
		p.Description = &d
	}
	if len(p.Name) < 2 || p.Price <= 0 || p.Stock < 1 {
		return domain.Product{}, ErrValidation
	}

	if err := s.Store.Products().CreateProduct(ctx, p); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Product{}, ErrCategoryNotFound
		}
		return domain.Product{}, classify("create product", err)
	}

	slogx.FromContext(ctx).Info("product created", "product_id", p.ID, "category_id", p.CategoryID)
	return p, nil
}
