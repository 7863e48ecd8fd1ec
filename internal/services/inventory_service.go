package services

import (
	"context"
	"fmt"
	"time"

	"catalogd/internal/caching"
	"catalogd/internal/models"
	"catalogd/internal/repositories"

	"go.uber.org/zap"
)

// Applied-message markers outlive any reasonable broker redelivery window.
const appliedMarkerTTL = 24 * time.Hour

type InventoryService interface {
	FindByProduct(ctx context.Context, productID int64) (*models.Inventory, error)
	// Register sets the absolute stock level for a product: an update when a
	// row already exists, an insert binding the product otherwise.
	Register(ctx context.Context, productID int64, quantity int) (*models.Inventory, error)
	// ApplyAdjustment applies one order event against persisted stock.
	// Rejections (ErrInventoryNotFound, ErrInsufficientStock,
	// ErrInvalidAdjustment) leave the row untouched.
	ApplyAdjustment(ctx context.Context, adjustment *models.StockAdjustment) error
}

type inventoryService struct {
	inventoryRepo repositories.InventoryRepository
	cacheService  caching.CacheService
	logger        *zap.Logger
}

func NewInventoryService(inventoryRepo repositories.InventoryRepository, cacheService caching.CacheService, logger *zap.Logger) InventoryService {
	return &inventoryService{
		inventoryRepo: inventoryRepo,
		cacheService:  cacheService,
		logger:        logger,
	}
}

func (s *inventoryService) FindByProduct(ctx context.Context, productID int64) (*models.Inventory, error) {
	return s.inventoryRepo.FindByProduct(ctx, productID)
}

func (s *inventoryService) Register(ctx context.Context, productID int64, quantity int) (*models.Inventory, error) {
	if quantity < 0 {
		return nil, ErrInvalidQuantity
	}

	existing, err := s.inventoryRepo.FindByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	if existing != nil {
		if err := s.inventoryRepo.UpdateQuantity(ctx, existing.ID, quantity); err != nil {
			return nil, err
		}
		existing.Quantity = quantity
		return existing, nil
	}

	inventory := &models.Inventory{ProductID: productID, Quantity: quantity}
	if err := s.inventoryRepo.Create(ctx, inventory); err != nil {
		return nil, err
	}
	return inventory, nil
}

func (s *inventoryService) ApplyAdjustment(ctx context.Context, adjustment *models.StockAdjustment) error {
	if adjustment.AmountOrdered <= 0 {
		return fmt.Errorf("product %d: %w", adjustment.ProductID, ErrInvalidAdjustment)
	}

	// Claim the message id before touching stock so a duplicate delivery of
	// an already-applied event cannot decrement twice. The claim is released
	// if this attempt does not apply.
	claimed := false
	if adjustment.MessageID != "" {
		first, err := s.cacheService.MarkAdjustmentApplied(ctx, adjustment.MessageID, appliedMarkerTTL)
		switch {
		case err != nil:
			// A cache outage must not stall reconciliation; fall back to the
			// transport's works-once semantics.
			s.logger.Warn("adjustment dedup unavailable",
				zap.String("message_id", adjustment.MessageID), zap.Error(err))
		case !first:
			s.logger.Info("skipping duplicate adjustment",
				zap.String("message_id", adjustment.MessageID),
				zap.Int64("product_id", adjustment.ProductID))
			return nil
		default:
			claimed = true
		}
	}

	err := s.applyOnce(ctx, adjustment)
	if err != nil && claimed {
		s.releaseClaim(ctx, adjustment.MessageID)
	}
	return err
}

func (s *inventoryService) applyOnce(ctx context.Context, adjustment *models.StockAdjustment) error {
	// The read is for cause classification only; the decrement below carries
	// its own quantity guard and never trusts this snapshot.
	inventory, err := s.inventoryRepo.FindByProduct(ctx, adjustment.ProductID)
	if err != nil {
		return fmt.Errorf("look up inventory for product %d: %w", adjustment.ProductID, err)
	}
	if inventory == nil {
		return fmt.Errorf("product %d: %w", adjustment.ProductID, ErrInventoryNotFound)
	}

	applied, err := s.inventoryRepo.DecrementIfAvailable(ctx, adjustment.ProductID, adjustment.AmountOrdered)
	if err != nil {
		return fmt.Errorf("decrement stock for product %d: %w", adjustment.ProductID, err)
	}
	if !applied {
		return fmt.Errorf("product %d has %d, ordered %d: %w",
			adjustment.ProductID, inventory.Quantity, adjustment.AmountOrdered, ErrInsufficientStock)
	}

	s.logger.Info("stock adjusted",
		zap.Int64("product_id", adjustment.ProductID),
		zap.Int("amount_ordered", adjustment.AmountOrdered))
	return nil
}

func (s *inventoryService) releaseClaim(ctx context.Context, messageID string) {
	if err := s.cacheService.DeleteAdjustmentMarker(ctx, messageID); err != nil {
		s.logger.Warn("failed to release adjustment marker",
			zap.String("message_id", messageID), zap.Error(err))
	}
}
