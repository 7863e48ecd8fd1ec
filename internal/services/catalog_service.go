package services

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"catalogd/internal/caching"
	"catalogd/internal/models"
	"catalogd/internal/repositories"
	"catalogd/internal/storage"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const productCacheTTL = 15 * time.Minute

type CatalogService interface {
	// ListProducts and FindByID return products whose image URL is a freshly
	// signed, time-bounded URL, never the stored canonical reference.
	ListProducts(ctx context.Context) ([]*models.Product, error)
	FindByID(ctx context.Context, id int64) (*models.Product, error)
	AddProduct(ctx context.Context, create *models.ProductCreate, image io.Reader, size int64, fileName, contentType string) (*models.Product, error)
	DeleteProduct(ctx context.Context, id int64) error
}

type catalogService struct {
	productRepo  repositories.ProductRepository
	store        storage.ObjectStorage
	cacheService caching.CacheService
	logger       *zap.Logger
}

func NewCatalogService(productRepo repositories.ProductRepository, store storage.ObjectStorage, cacheService caching.CacheService, logger *zap.Logger) CatalogService {
	return &catalogService{
		productRepo:  productRepo,
		store:        store,
		cacheService: cacheService,
		logger:       logger,
	}
}

func (s *catalogService) ListProducts(ctx context.Context) ([]*models.Product, error) {
	products, err := s.productRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	for _, product := range products {
		if err := s.signImage(ctx, product); err != nil {
			// No fallback to the stale canonical URL; a failed signing fails
			// the read.
			return nil, err
		}
	}
	return products, nil
}

func (s *catalogService) FindByID(ctx context.Context, id int64) (*models.Product, error) {
	if cached, err := s.cacheService.GetProduct(ctx, id); err != nil {
		s.logger.Warn("product cache read failed", zap.Int64("product_id", id), zap.Error(err))
	} else if cached != nil {
		// A hit is served as-is without refreshing the TTL, so a product
		// changed elsewhere can read stale for up to productCacheTTL; deletes
		// invalidate the entry eagerly.
		if err := s.signImage(ctx, cached); err != nil {
			return nil, err
		}
		return cached, nil
	}

	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil || product == nil {
		return nil, err
	}

	// Cache the stored representation; signing happens per read so cached
	// entries never pin an expiring URL.
	if err := s.cacheService.SetProduct(ctx, product, productCacheTTL); err != nil {
		s.logger.Warn("product cache write failed", zap.Int64("product_id", id), zap.Error(err))
	}

	if err := s.signImage(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

func (s *catalogService) AddProduct(ctx context.Context, create *models.ProductCreate, image io.Reader, size int64, fileName, contentType string) (*models.Product, error) {
	if create.Name == "" {
		return nil, ErrNameRequired
	}
	if create.Price <= 0 {
		return nil, ErrInvalidPrice
	}

	// Prefix the key so uploads with the same original name never collide.
	objectName := fmt.Sprintf("%s%s", uuid.New().String(), filepath.Ext(fileName))
	canonicalURL, err := s.store.Store(ctx, image, size, objectName, contentType)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("stored product image",
		zap.String("object", objectName), zap.String("product", create.Name))

	product := &models.Product{
		Name:        create.Name,
		Description: create.Description,
		Price:       create.Price,
		Image: &models.Image{
			FileName:    objectName,
			URL:         canonicalURL,
			ContentType: contentType,
			Size:        size,
		},
	}
	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

func (s *catalogService) DeleteProduct(ctx context.Context, id int64) error {
	if err := s.productRepo.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.cacheService.DeleteProduct(ctx, id); err != nil {
		s.logger.Warn("product cache invalidation failed", zap.Int64("product_id", id), zap.Error(err))
	}
	return nil
}

func (s *catalogService) signImage(ctx context.Context, product *models.Product) error {
	if product.Image == nil {
		return nil
	}
	signed, err := s.store.SignedURL(ctx, product.Image.FileName)
	if err != nil {
		return fmt.Errorf("sign image for product %d: %w", product.ID, err)
	}
	product.Image.URL = signed
	return nil
}
