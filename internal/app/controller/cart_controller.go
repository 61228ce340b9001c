package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/internal/app/service"
	apperrors "github.com/ikkim/storefront-backend/internal/errors"
	"github.com/ikkim/storefront-backend/internal/middleware"
	"github.com/ikkim/storefront-backend/pkg/logger"
)

type CartController struct {
	cartService service.CartService
}

func NewCartController(cartService service.CartService) *CartController {
	return &CartController{
		cartService: cartService,
	}
}

type AddToCartRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,gt=0"`
}

type UpdateCartRequest struct {
	Quantity int `json:"quantity" binding:"required,gt=0"`
}

type cartBody struct {
	Items []model.CartLine `json:"items"`
}

type cartResponse struct {
	Message string   `json:"message"`
	Cart    cartBody `json:"cart"`
}

func newCartBody(lines []model.CartLine) cartBody {
	if lines == nil {
		lines = []model.CartLine{}
	}
	return cartBody{Items: lines}
}

// GetCart returns the session's cart, creating it on first access
// GET /api/cart/:session_id
func (ctrl *CartController) GetCart(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	sessionID := c.Param("session_id")

	lines, err := ctrl.cartService.GetCart(c.Request.Context(), sessionID)
	if err != nil {
		log.Error("Failed to fetch cart", err, map[string]interface{}{
			"session_id": sessionID,
		})
		apperrors.ParseAndRespond(c, err, "get cart")
		return
	}

	c.JSON(http.StatusOK, newCartBody(lines))
}

// AddToCart adds a quantity of a product to the cart
// POST /api/cart/:session_id/items
func (ctrl *CartController) AddToCart(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	sessionID := c.Param("session_id")

	var req AddToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid add to cart request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.RespondWithValidationError(c, apperrors.ValidationFields(err))
		return
	}

	lines, err := ctrl.cartService.AddItem(c.Request.Context(), sessionID, req.ProductID, req.Quantity)
	if err != nil {
		respondCartError(c, log, err, "add to cart")
		return
	}

	c.JSON(http.StatusOK, cartResponse{Message: "Item added to cart", Cart: newCartBody(lines)})
}

// UpdateCartItem replaces the quantity of a cart item
// PUT /api/cart/:session_id/items/:product_id
func (ctrl *CartController) UpdateCartItem(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	sessionID := c.Param("session_id")
	productID := c.Param("product_id")

	var req UpdateCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid update cart request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.RespondWithValidationError(c, apperrors.ValidationFields(err))
		return
	}

	lines, err := ctrl.cartService.UpdateItem(c.Request.Context(), sessionID, productID, req.Quantity)
	if err != nil {
		respondCartError(c, log, err, "update cart")
		return
	}

	c.JSON(http.StatusOK, cartResponse{Message: "Cart updated", Cart: newCartBody(lines)})
}

// RemoveFromCart deletes a product from the cart; missing items are ignored
// DELETE /api/cart/:session_id/items/:product_id
func (ctrl *CartController) RemoveFromCart(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	sessionID := c.Param("session_id")

	lines, err := ctrl.cartService.RemoveItem(c.Request.Context(), sessionID, c.Param("product_id"))
	if err != nil {
		respondCartError(c, log, err, "delete cart item")
		return
	}

	c.JSON(http.StatusOK, cartResponse{Message: "Item removed from cart", Cart: newCartBody(lines)})
}

// ClearCart removes every item from the cart
// DELETE /api/cart/:session_id
func (ctrl *CartController) ClearCart(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	sessionID := c.Param("session_id")

	if err := ctrl.cartService.ClearCart(c.Request.Context(), sessionID); err != nil {
		respondCartError(c, log, err, "clear cart")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart cleared",
	})
}

func respondCartError(c *gin.Context, log *logger.Logger, err error, action string) {
	switch {
	case errors.Is(err, service.ErrProductNotFound):
		apperrors.NotFound(c, apperrors.ProductNotFound, "Product not found")
	case errors.Is(err, service.ErrCartItemNotFound):
		apperrors.NotFound(c, apperrors.CartItemNotFound, "Item not in cart")
	case errors.Is(err, service.ErrInsufficientStock):
		apperrors.BadRequest(c, apperrors.StockInsufficient, "Insufficient stock")
	case errors.Is(err, service.ErrInvalidQuantity):
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Quantity must be at least 1")
	default:
		log.Error("Cart operation failed", err, map[string]interface{}{
			"action":     action,
			"session_id": c.Param("session_id"),
		})
		apperrors.ParseAndRespond(c, err, action)
	}
}
