package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/internal/app/repository"
	"github.com/ikkim/storefront-backend/pkg/logger"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrOrderNotFound = errors.New("order not found")
	ErrEmptyOrder    = errors.New("order has no items")
)

type OrderItemInput struct {
	ProductID string
	Quantity  int
}

// OrderItemError reports which submitted item stopped an order.
// It unwraps to ErrProductNotFound or ErrInsufficientStock.
type OrderItemError struct {
	ProductID   string
	ProductName string
	Err         error
}

func (e *OrderItemError) Error() string {
	if e.ProductName != "" {
		return fmt.Sprintf("%s for %s", e.Err, e.ProductName)
	}
	return fmt.Sprintf("%s: %s", e.Err, e.ProductID)
}

func (e *OrderItemError) Unwrap() error {
	return e.Err
}

type OrderService interface {
	CreateOrder(ctx context.Context, items []OrderItemInput) (*model.Order, error)
	ListOrders(ctx context.Context) ([]model.Order, error)
	GetOrder(ctx context.Context, id string) (*model.Order, error)
}

type OrderServiceOption func(*orderService)

// WithOrderNotifier registers the receiver of committed orders.
func WithOrderNotifier(notifier OrderNotifier) OrderServiceOption {
	return func(s *orderService) {
		s.notifier = notifier
	}
}

// WithProductCache lets order creation drop the cached product listing once
// stock has changed.
func WithProductCache(cache ProductCache) OrderServiceOption {
	return func(s *orderService) {
		s.cache = cache
	}
}

type orderService struct {
	db          *gorm.DB
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	notifier    OrderNotifier
	cache       ProductCache
}

func NewOrderService(
	db *gorm.DB,
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	opts ...OrderServiceOption,
) OrderService {
	s := &orderService{
		db:          db,
		orderRepo:   orderRepo,
		productRepo: productRepo,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateOrder validates and reserves every item inside one transaction. Stock
// is decremented as each item passes, so a product repeated later in the same
// request sees the reduced stock. Any failure rolls back all of it.
func (s *orderService) CreateOrder(ctx context.Context, items []OrderItemInput) (*model.Order, error) {
	logger.Info("Creating order", map[string]interface{}{
		"item_count": len(items),
	})

	if len(items) == 0 {
		logger.Warn("Cannot create order: no items")
		return nil, ErrEmptyOrder
	}
	for _, item := range items {
		if item.Quantity < 1 {
			logger.Warn("Cannot create order: invalid quantity", map[string]interface{}{
				"product_id": item.ProductID,
				"quantity":   item.Quantity,
			})
			return nil, ErrInvalidQuantity
		}
	}

	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		logger.Error("Failed to begin order transaction", tx.Error)
		return nil, tx.Error
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			logger.Error("Panic during order creation, rolling back", fmt.Errorf("panic: %v", r))
			panic(r)
		}
	}()

	order, err := s.placeOrder(ctx, tx, items)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		logger.Error("Failed to commit order transaction", err, map[string]interface{}{
			"order_id": order.ID,
		})
		return nil, err
	}

	invalidateProductCache(ctx, s.cache)
	s.notify(ctx, order)

	logger.Info("Order created successfully", map[string]interface{}{
		"order_id":   order.ID,
		"total":      order.Total,
		"item_count": len(order.Items),
	})
	return order, nil
}

func (s *orderService) placeOrder(ctx context.Context, tx *gorm.DB, items []OrderItemInput) (*model.Order, error) {
	productRepo := s.productRepo.WithTx(tx)
	orderRepo := s.orderRepo.WithTx(tx)

	total := decimal.Zero
	orderItems := make([]model.OrderItem, 0, len(items))

	for _, item := range items {
		product, err := productRepo.FindByIDForUpdate(ctx, item.ProductID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				logger.Warn("Product not found during order creation", map[string]interface{}{
					"product_id": item.ProductID,
				})
				return nil, &OrderItemError{ProductID: item.ProductID, Err: ErrProductNotFound}
			}
			return nil, err
		}

		if product.Stock < item.Quantity {
			logger.Warn("Order creation failed: insufficient product stock", map[string]interface{}{
				"product_id": product.ID,
				"requested":  item.Quantity,
				"available":  product.Stock,
			})
			return nil, &OrderItemError{
				ProductID:   product.ID,
				ProductName: product.Name,
				Err:         ErrInsufficientStock,
			}
		}

		if err := productRepo.DecrementStock(ctx, product.ID, item.Quantity); err != nil {
			return nil, err
		}

		orderItems = append(orderItems, model.OrderItem{
			ProductID:   product.ID,
			ProductName: product.Name,
			Quantity:    item.Quantity,
			Price:       product.Price,
		})
		total = total.Add(decimal.NewFromFloat(product.Price).Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	order := &model.Order{
		ID:     uuid.NewString(),
		Total:  total.Round(2).InexactFloat64(),
		Status: model.OrderStatusPending,
		Items:  orderItems,
	}
	if err := orderRepo.Create(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *orderService) notify(ctx context.Context, order *model.Order) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.OrderCreated(ctx, order); err != nil {
		logger.Warn("Failed to publish order notification", map[string]interface{}{
			"order_id": order.ID,
			"error":    err.Error(),
		})
	}
}

func (s *orderService) ListOrders(ctx context.Context) ([]model.Order, error) {
	orders, err := s.orderRepo.FindAll(ctx)
	if err != nil {
		logger.Error("Failed to list orders", err)
		return nil, err
	}

	logger.Info("Orders listed", map[string]interface{}{
		"count": len(orders),
	})
	return orders, nil
}

func (s *orderService) GetOrder(ctx context.Context, id string) (*model.Order, error) {
	order, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Order not found", map[string]interface{}{
				"order_id": id,
			})
			return nil, ErrOrderNotFound
		}
		logger.Error("Failed to fetch order", err, map[string]interface{}{
			"order_id": id,
		})
		return nil, err
	}
	return order, nil
}
