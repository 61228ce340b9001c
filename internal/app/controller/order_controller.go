package controller

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/storefront-backend/internal/app/service"
	apperrors "github.com/ikkim/storefront-backend/internal/errors"
	"github.com/ikkim/storefront-backend/internal/middleware"
	"github.com/ikkim/storefront-backend/internal/websocket"
)

type OrderController struct {
	orderService service.OrderService
	hub          *websocket.Hub
}

// NewOrderController wires the order endpoints. hub may be nil, in which case
// the stream endpoint is unavailable.
func NewOrderController(orderService service.OrderService, hub *websocket.Hub) *OrderController {
	return &OrderController{
		orderService: orderService,
		hub:          hub,
	}
}

type OrderItemRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,gt=0"`
}

type CreateOrderRequest struct {
	CartItems []OrderItemRequest `json:"cart_items" binding:"dive"`
}

// CreateOrder places an order for the submitted items
// POST /api/orders
func (ctrl *OrderController) CreateOrder(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid order creation request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.RespondWithValidationError(c, apperrors.ValidationFields(err))
		return
	}

	items := make([]service.OrderItemInput, 0, len(req.CartItems))
	for _, item := range req.CartItems {
		items = append(items, service.OrderItemInput{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		})
	}

	order, err := ctrl.orderService.CreateOrder(c.Request.Context(), items)
	if err != nil {
		var itemErr *service.OrderItemError
		switch {
		case errors.Is(err, service.ErrEmptyOrder):
			apperrors.BadRequest(c, apperrors.OrderEmpty, "Cart is empty")
		case errors.Is(err, service.ErrInvalidQuantity):
			apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Quantity must be at least 1")
		case errors.As(err, &itemErr) && errors.Is(err, service.ErrInsufficientStock):
			apperrors.BadRequest(c, apperrors.StockInsufficient, fmt.Sprintf("Insufficient stock for %s", itemErr.ProductName))
		case errors.As(err, &itemErr) && errors.Is(err, service.ErrProductNotFound):
			apperrors.NotFound(c, apperrors.ProductNotFound, fmt.Sprintf("Product %s not found", itemErr.ProductID))
		default:
			log.Error("Failed to create order", err, map[string]interface{}{
				"item_count": len(items),
			})
			apperrors.ParseAndRespond(c, err, "create order")
		}
		return
	}

	log.Info("Order created successfully", map[string]interface{}{
		"order_id": order.ID,
		"total":    order.Total,
	})

	c.JSON(http.StatusCreated, order)
}

// ListOrders returns every order, newest first
// GET /api/orders
func (ctrl *OrderController) ListOrders(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	orders, err := ctrl.orderService.ListOrders(c.Request.Context())
	if err != nil {
		log.Error("Failed to fetch orders", err)
		apperrors.ParseAndRespond(c, err, "list orders")
		return
	}

	c.JSON(http.StatusOK, orders)
}

// GetOrder returns a single order with its items
// GET /api/orders/:id
func (ctrl *OrderController) GetOrder(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	id := c.Param("id")

	order, err := ctrl.orderService.GetOrder(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			apperrors.NotFound(c, apperrors.OrderNotFound, "Order not found")
			return
		}
		log.Error("Failed to fetch order", err, map[string]interface{}{
			"order_id": id,
		})
		apperrors.ParseAndRespond(c, err, "get order")
		return
	}

	c.JSON(http.StatusOK, order)
}

// StreamOrders upgrades to a WebSocket that receives order_created messages
// GET /api/orders/stream
func (ctrl *OrderController) StreamOrders(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	if ctrl.hub == nil {
		apperrors.ServiceUnavailable(c, apperrors.InternalServerError, "Order stream is not available")
		return
	}

	if err := websocket.ServeWS(ctrl.hub, c.Writer, c.Request); err != nil {
		// The upgrader has already written the HTTP error
		log.Warn("WebSocket upgrade failed", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	log.Info("Order stream client connected")
}
