package repository

import (
	"context"

	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CartRepository interface {
	WithTx(tx *gorm.DB) CartRepository
	FindBySession(ctx context.Context, sessionID string) (*model.Cart, error)
	GetOrCreate(ctx context.Context, sessionID string) (*model.Cart, error)
	FindItems(ctx context.Context, cartID uint) ([]model.CartItem, error)
	FindItem(ctx context.Context, cartID uint, productID string) (*model.CartItem, error)
	CreateItem(ctx context.Context, item *model.CartItem) error
	UpdateItemQuantity(ctx context.Context, item *model.CartItem, quantity int) error
	DeleteItem(ctx context.Context, cartID uint, productID string) error
	DeleteItems(ctx context.Context, cartID uint) error
}

type cartRepository struct {
	db *gorm.DB
}

func NewCartRepository(db *gorm.DB) CartRepository {
	return &cartRepository{db: db}
}

func (r *cartRepository) WithTx(tx *gorm.DB) CartRepository {
	return &cartRepository{db: tx}
}

func (r *cartRepository) FindBySession(ctx context.Context, sessionID string) (*model.Cart, error) {
	logger.Debug("Finding cart by session in database", map[string]interface{}{
		"session_id": sessionID,
	})

	var cart model.Cart
	if err := r.db.WithContext(ctx).Where("session_id = ?", sessionID).First(&cart).Error; err != nil {
		return nil, err
	}

	logger.Debug("Cart found by session in database", map[string]interface{}{
		"cart_id":    cart.ID,
		"session_id": sessionID,
	})
	return &cart, nil
}

// GetOrCreate returns the cart for sessionID, inserting it first if needed.
// Concurrent first requests for the same session converge on one row.
func (r *cartRepository) GetOrCreate(ctx context.Context, sessionID string) (*model.Cart, error) {
	logger.Debug("Getting or creating cart in database", map[string]interface{}{
		"session_id": sessionID,
	})

	cart := &model.Cart{SessionID: sessionID}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "session_id"}}, DoNothing: true}).
		Create(cart).Error
	if err != nil {
		logger.Error("Failed to create cart in database", err, map[string]interface{}{
			"session_id": sessionID,
		})
		return nil, err
	}

	existing, err := r.FindBySession(ctx, sessionID)
	if err != nil {
		logger.Error("Failed to load cart after upsert", err, map[string]interface{}{
			"session_id": sessionID,
		})
		return nil, err
	}
	return existing, nil
}

func (r *cartRepository) FindItems(ctx context.Context, cartID uint) ([]model.CartItem, error) {
	logger.Debug("Finding cart items in database", map[string]interface{}{
		"cart_id": cartID,
	})

	var items []model.CartItem
	if err := r.db.WithContext(ctx).Where("cart_id = ?", cartID).Order("id ASC").Find(&items).Error; err != nil {
		logger.Error("Failed to find cart items in database", err, map[string]interface{}{
			"cart_id": cartID,
		})
		return nil, err
	}

	logger.Debug("Cart items found in database", map[string]interface{}{
		"cart_id": cartID,
		"count":   len(items),
	})
	return items, nil
}

func (r *cartRepository) FindItem(ctx context.Context, cartID uint, productID string) (*model.CartItem, error) {
	logger.Debug("Finding cart item by product in database", map[string]interface{}{
		"cart_id":    cartID,
		"product_id": productID,
	})

	var item model.CartItem
	err := r.db.WithContext(ctx).
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		First(&item).Error
	if err != nil {
		return nil, err
	}

	logger.Debug("Cart item found by product in database", map[string]interface{}{
		"cart_item_id": item.ID,
		"quantity":     item.Quantity,
	})
	return &item, nil
}

func (r *cartRepository) CreateItem(ctx context.Context, item *model.CartItem) error {
	logger.Debug("Creating cart item in database", map[string]interface{}{
		"cart_id":    item.CartID,
		"product_id": item.ProductID,
		"quantity":   item.Quantity,
	})

	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		logger.Error("Failed to create cart item in database", err, map[string]interface{}{
			"cart_id":    item.CartID,
			"product_id": item.ProductID,
			"quantity":   item.Quantity,
		})
		return err
	}

	logger.Debug("Cart item created in database", map[string]interface{}{
		"cart_item_id": item.ID,
		"cart_id":      item.CartID,
		"product_id":   item.ProductID,
	})
	return nil
}

func (r *cartRepository) UpdateItemQuantity(ctx context.Context, item *model.CartItem, quantity int) error {
	logger.Debug("Updating cart item quantity in database", map[string]interface{}{
		"cart_item_id": item.ID,
		"product_id":   item.ProductID,
		"quantity":     quantity,
	})

	if err := r.db.WithContext(ctx).Model(item).Update("quantity", quantity).Error; err != nil {
		logger.Error("Failed to update cart item quantity in database", err, map[string]interface{}{
			"cart_item_id": item.ID,
			"quantity":     quantity,
		})
		return err
	}
	item.Quantity = quantity

	logger.Debug("Cart item quantity updated in database", map[string]interface{}{
		"cart_item_id": item.ID,
		"quantity":     item.Quantity,
	})
	return nil
}

func (r *cartRepository) DeleteItem(ctx context.Context, cartID uint, productID string) error {
	logger.Debug("Deleting cart item from database", map[string]interface{}{
		"cart_id":    cartID,
		"product_id": productID,
	})

	err := r.db.WithContext(ctx).
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		Delete(&model.CartItem{}).Error
	if err != nil {
		logger.Error("Failed to delete cart item from database", err, map[string]interface{}{
			"cart_id":    cartID,
			"product_id": productID,
		})
		return err
	}

	logger.Debug("Cart item deleted from database", map[string]interface{}{
		"cart_id":    cartID,
		"product_id": productID,
	})
	return nil
}

func (r *cartRepository) DeleteItems(ctx context.Context, cartID uint) error {
	logger.Debug("Deleting cart items from database", map[string]interface{}{
		"cart_id": cartID,
	})

	if err := r.db.WithContext(ctx).Where("cart_id = ?", cartID).Delete(&model.CartItem{}).Error; err != nil {
		logger.Error("Failed to delete cart items from database", err, map[string]interface{}{
			"cart_id": cartID,
		})
		return err
	}

	logger.Debug("Cart items deleted from database", map[string]interface{}{
		"cart_id": cartID,
	})
	return nil
}
