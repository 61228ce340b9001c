package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/internal/app/repository"
	"github.com/ikkim/storefront-backend/pkg/logger"
	"gorm.io/gorm"
)

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrInvalidProduct    = errors.New("invalid product")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// ProductCache holds the full product listing between catalog changes.
// GetProducts reports the current cache version even on a miss; SetProducts
// stores under that version, so a listing read before an Invalidate can never
// be served after it.
type ProductCache interface {
	GetProducts(ctx context.Context) ([]model.Product, int64, bool, error)
	SetProducts(ctx context.Context, version int64, products []model.Product) error
	Invalidate(ctx context.Context) error
}

type CreateProductInput struct {
	Name        string
	Description string
	Price       float64
	Stock       int
	ImageURL    string
}

type ProductService interface {
	ListProducts(ctx context.Context) ([]model.Product, error)
	GetProduct(ctx context.Context, id string) (*model.Product, error)
	CreateProduct(ctx context.Context, input CreateProductInput) (*model.Product, error)
	ImportProducts(ctx context.Context, inputs []CreateProductInput) ([]model.Product, error)
	SeedCatalog(ctx context.Context) (int, error)
	ListLowStock(ctx context.Context, threshold int) ([]model.Product, error)
}

type productService struct {
	db          *gorm.DB
	productRepo repository.ProductRepository
	cache       ProductCache
}

// NewProductService builds the catalog service. cache may be nil.
func NewProductService(db *gorm.DB, productRepo repository.ProductRepository, cache ProductCache) ProductService {
	return &productService{
		db:          db,
		productRepo: productRepo,
		cache:       cache,
	}
}

func (s *productService) ListProducts(ctx context.Context) ([]model.Product, error) {
	cacheable := false
	var version int64
	if s.cache != nil {
		products, v, ok, err := s.cache.GetProducts(ctx)
		if err != nil {
			logger.Warn("Product cache read failed, falling back to database", map[string]interface{}{
				"error": err.Error(),
			})
		} else if ok {
			logger.Debug("Product list served from cache", map[string]interface{}{
				"count": len(products),
			})
			return products, nil
		} else {
			cacheable = true
			version = v
		}
	}

	products, err := s.productRepo.FindAll(ctx)
	if err != nil {
		logger.Error("Failed to list products", err)
		return nil, err
	}

	if cacheable {
		if err := s.cache.SetProducts(ctx, version, products); err != nil {
			logger.Warn("Failed to populate product cache", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	logger.Info("Products listed", map[string]interface{}{
		"count": len(products),
	})
	return products, nil
}

func (s *productService) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Product not found", map[string]interface{}{
				"product_id": id,
			})
			return nil, ErrProductNotFound
		}
		logger.Error("Failed to fetch product", err, map[string]interface{}{
			"product_id": id,
		})
		return nil, err
	}
	return product, nil
}

func (s *productService) CreateProduct(ctx context.Context, input CreateProductInput) (*model.Product, error) {
	logger.Info("Creating product", map[string]interface{}{
		"name":  input.Name,
		"price": input.Price,
		"stock": input.Stock,
	})

	product, err := newProduct(input)
	if err != nil {
		logger.Warn("Rejected product input", map[string]interface{}{
			"name":  input.Name,
			"error": err.Error(),
		})
		return nil, err
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		logger.Error("Failed to create product", err, map[string]interface{}{
			"name": input.Name,
		})
		return nil, err
	}

	s.invalidateCache(ctx)

	logger.Info("Product created successfully", map[string]interface{}{
		"product_id": product.ID,
		"name":       product.Name,
	})
	return product, nil
}

// ImportProducts validates every row before inserting any, then inserts all
// rows in one transaction.
func (s *productService) ImportProducts(ctx context.Context, inputs []CreateProductInput) ([]model.Product, error) {
	logger.Info("Importing products", map[string]interface{}{
		"count": len(inputs),
	})

	products := make([]model.Product, 0, len(inputs))
	for i, input := range inputs {
		product, err := newProduct(input)
		if err != nil {
			logger.Warn("Rejected product row", map[string]interface{}{
				"row":   i + 1,
				"name":  input.Name,
				"error": err.Error(),
			})
			return nil, err
		}
		products = append(products, *product)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.productRepo.WithTx(tx).CreateBatch(ctx, products)
	})
	if err != nil {
		logger.Error("Failed to import products", err, map[string]interface{}{
			"count": len(products),
		})
		return nil, err
	}

	s.invalidateCache(ctx)

	logger.Info("Products imported successfully", map[string]interface{}{
		"count": len(products),
	})
	return products, nil
}

// SeedCatalog inserts the sample catalog into an empty products table and
// reports how many products were added.
func (s *productService) SeedCatalog(ctx context.Context) (int, error) {
	count, err := s.productRepo.Count(ctx)
	if err != nil {
		logger.Error("Failed to count products before seeding", err)
		return 0, err
	}

	if count > 0 {
		logger.Info("Catalog already seeded, skipping...", map[string]interface{}{
			"existing_count": count,
		})
		return 0, nil
	}

	products, err := s.ImportProducts(ctx, sampleCatalog)
	if err != nil {
		return 0, err
	}

	logger.Info("Catalog seeded successfully", map[string]interface{}{
		"total_products": len(products),
	})
	return len(products), nil
}

func (s *productService) ListLowStock(ctx context.Context, threshold int) ([]model.Product, error) {
	products, err := s.productRepo.FindLowStock(ctx, threshold)
	if err != nil {
		logger.Error("Failed to list low stock products", err, map[string]interface{}{
			"threshold": threshold,
		})
		return nil, err
	}
	return products, nil
}

func (s *productService) invalidateCache(ctx context.Context) {
	invalidateProductCache(ctx, s.cache)
}

func invalidateProductCache(ctx context.Context, cache ProductCache) {
	if cache == nil {
		return
	}
	if err := cache.Invalidate(ctx); err != nil {
		logger.Warn("Failed to invalidate product cache", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

func newProduct(input CreateProductInput) (*model.Product, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidProduct)
	}
	if input.Price < 0 || math.IsNaN(input.Price) || math.IsInf(input.Price, 0) {
		return nil, fmt.Errorf("%w: price must be a non-negative number", ErrInvalidProduct)
	}
	if input.Stock < 0 {
		return nil, fmt.Errorf("%w: stock must not be negative", ErrInvalidProduct)
	}

	return &model.Product{
		ID:          uuid.NewString(),
		Name:        name,
		Description: input.Description,
		Price:       input.Price,
		Stock:       input.Stock,
		ImageURL:    strings.TrimSpace(input.ImageURL),
	}, nil
}
