package service

import (
	"context"
	"errors"

	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/internal/app/repository"
	"github.com/ikkim/storefront-backend/pkg/logger"
	"gorm.io/gorm"
)

var (
	ErrCartItemNotFound = errors.New("item not in cart")
	ErrInvalidQuantity  = errors.New("quantity must be at least 1")
)

type CartService interface {
	GetOrCreateCart(ctx context.Context, sessionID string) (*model.Cart, error)
	GetCart(ctx context.Context, sessionID string) ([]model.CartLine, error)
	AddItem(ctx context.Context, sessionID, productID string, quantity int) ([]model.CartLine, error)
	UpdateItem(ctx context.Context, sessionID, productID string, quantity int) ([]model.CartLine, error)
	RemoveItem(ctx context.Context, sessionID, productID string) ([]model.CartLine, error)
	ClearCart(ctx context.Context, sessionID string) error
}

type cartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
}

func NewCartService(cartRepo repository.CartRepository, productRepo repository.ProductRepository) CartService {
	return &cartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
	}
}

func (s *cartService) GetOrCreateCart(ctx context.Context, sessionID string) (*model.Cart, error) {
	cart, err := s.cartRepo.FindBySession(ctx, sessionID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Error("Failed to fetch cart", err, map[string]interface{}{
			"session_id": sessionID,
		})
		return nil, err
	}

	cart, err = s.cartRepo.GetOrCreate(ctx, sessionID)
	if err != nil {
		logger.Error("Failed to create cart", err, map[string]interface{}{
			"session_id": sessionID,
		})
		return nil, err
	}

	logger.Info("Cart created for session", map[string]interface{}{
		"session_id": sessionID,
		"cart_id":    cart.ID,
	})
	return cart, nil
}

func (s *cartService) GetCart(ctx context.Context, sessionID string) ([]model.CartLine, error) {
	logger.Debug("Fetching session cart", map[string]interface{}{
		"session_id": sessionID,
	})

	cart, err := s.GetOrCreateCart(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.lines(ctx, cart)
}

// AddItem adds quantity to the product's line, creating the line if needed.
// Stock is checked against the cumulative quantity.
func (s *cartService) AddItem(ctx context.Context, sessionID, productID string, quantity int) ([]model.CartLine, error) {
	logger.Info("Adding item to cart", map[string]interface{}{
		"session_id": sessionID,
		"product_id": productID,
		"quantity":   quantity,
	})

	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	product, err := s.findProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	if product.Stock < quantity {
		logger.Warn("Cannot add to cart: insufficient product stock", map[string]interface{}{
			"session_id": sessionID,
			"product_id": productID,
			"requested":  quantity,
			"available":  product.Stock,
		})
		return nil, ErrInsufficientStock
	}

	cart, err := s.GetOrCreateCart(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	existingItem, err := s.cartRepo.FindItem(ctx, cart.ID, productID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Error("Failed to check existing cart item", err, map[string]interface{}{
			"cart_id":    cart.ID,
			"product_id": productID,
		})
		return nil, err
	}

	if existingItem != nil {
		requestedQuantity := existingItem.Quantity + quantity
		if product.Stock < requestedQuantity {
			logger.Warn("Cannot add to cart: insufficient product stock", map[string]interface{}{
				"session_id": sessionID,
				"product_id": productID,
				"requested":  requestedQuantity,
				"available":  product.Stock,
			})
			return nil, ErrInsufficientStock
		}

		logger.Debug("Updating existing cart item", map[string]interface{}{
			"cart_item_id": existingItem.ID,
			"old_qty":      existingItem.Quantity,
			"new_qty":      requestedQuantity,
		})
		if err := s.cartRepo.UpdateItemQuantity(ctx, existingItem, requestedQuantity); err != nil {
			return nil, err
		}
		return s.lines(ctx, cart)
	}

	item := &model.CartItem{
		CartID:    cart.ID,
		ProductID: productID,
		Quantity:  quantity,
	}
	if err := s.cartRepo.CreateItem(ctx, item); err != nil {
		return nil, err
	}

	logger.Info("Cart item added successfully", map[string]interface{}{
		"cart_item_id": item.ID,
		"session_id":   sessionID,
	})
	return s.lines(ctx, cart)
}

// UpdateItem replaces the line's quantity. Stock is checked against the new
// quantity alone.
func (s *cartService) UpdateItem(ctx context.Context, sessionID, productID string, quantity int) ([]model.CartLine, error) {
	logger.Info("Updating cart item", map[string]interface{}{
		"session_id": sessionID,
		"product_id": productID,
		"quantity":   quantity,
	})

	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	cart, err := s.GetOrCreateCart(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	product, err := s.findProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	if product.Stock < quantity {
		logger.Warn("Cannot update cart item: insufficient product stock", map[string]interface{}{
			"session_id": sessionID,
			"product_id": productID,
			"requested":  quantity,
			"available":  product.Stock,
		})
		return nil, ErrInsufficientStock
	}

	item, err := s.cartRepo.FindItem(ctx, cart.ID, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Cart item not found", map[string]interface{}{
				"session_id": sessionID,
				"product_id": productID,
			})
			return nil, ErrCartItemNotFound
		}
		return nil, err
	}

	if err := s.cartRepo.UpdateItemQuantity(ctx, item, quantity); err != nil {
		return nil, err
	}

	logger.Info("Cart item updated successfully", map[string]interface{}{
		"cart_item_id": item.ID,
		"quantity":     quantity,
	})
	return s.lines(ctx, cart)
}

// RemoveItem deletes the product's line if present; a missing line is not an error.
func (s *cartService) RemoveItem(ctx context.Context, sessionID, productID string) ([]model.CartLine, error) {
	logger.Info("Removing item from cart", map[string]interface{}{
		"session_id": sessionID,
		"product_id": productID,
	})

	cart, err := s.GetOrCreateCart(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if err := s.cartRepo.DeleteItem(ctx, cart.ID, productID); err != nil {
		return nil, err
	}
	return s.lines(ctx, cart)
}

func (s *cartService) ClearCart(ctx context.Context, sessionID string) error {
	logger.Info("Clearing cart", map[string]interface{}{
		"session_id": sessionID,
	})

	cart, err := s.GetOrCreateCart(ctx, sessionID)
	if err != nil {
		return err
	}

	if err := s.cartRepo.DeleteItems(ctx, cart.ID); err != nil {
		return err
	}

	logger.Info("Cart cleared successfully", map[string]interface{}{
		"session_id": sessionID,
		"cart_id":    cart.ID,
	})
	return nil
}

func (s *cartService) findProduct(ctx context.Context, productID string) (*model.Product, error) {
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Product not found for cart operation", map[string]interface{}{
				"product_id": productID,
			})
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return product, nil
}

func (s *cartService) lines(ctx context.Context, cart *model.Cart) ([]model.CartLine, error) {
	items, err := s.cartRepo.FindItems(ctx, cart.ID)
	if err != nil {
		return nil, err
	}
	return model.Lines(items), nil
}
