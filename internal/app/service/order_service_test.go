package service

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/internal/app/repository"
	"github.com/ikkim/storefront-backend/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type recordingNotifier struct {
	orders []*model.Order
	err    error
}

func (n *recordingNotifier) OrderCreated(ctx context.Context, order *model.Order) error {
	n.orders = append(n.orders, order)
	return n.err
}

type orderTestFixture struct {
	service  OrderService
	db       *gorm.DB
	notifier *recordingNotifier
	cache    *fakeProductCache
	widget   *model.Product
	gadget   *model.Product
}

func setupOrderServiceTest(t *testing.T) *orderTestFixture {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	widget := &model.Product{ID: "widget", Name: "Widget", Price: 19.99, Stock: 5}
	gadget := &model.Product{ID: "gadget", Name: "Gadget", Price: 0.1, Stock: 10}
	require.NoError(t, testDB.Create(widget).Error)
	require.NoError(t, testDB.Create(gadget).Error)

	notifier := &recordingNotifier{}
	cache := &fakeProductCache{}
	orderService := NewOrderService(
		testDB,
		repository.NewOrderRepository(testDB),
		repository.NewProductRepository(testDB),
		WithOrderNotifier(notifier),
		WithProductCache(cache),
	)

	return &orderTestFixture{
		service:  orderService,
		db:       testDB,
		notifier: notifier,
		cache:    cache,
		widget:   widget,
		gadget:   gadget,
	}
}

func (f *orderTestFixture) stockOf(t *testing.T, id string) int {
	var product model.Product
	require.NoError(t, f.db.Where("id = ?", id).First(&product).Error)
	return product.Stock
}

func (f *orderTestFixture) orderCount(t *testing.T) int64 {
	var count int64
	require.NoError(t, f.db.Model(&model.Order{}).Count(&count).Error)
	return count
}

func TestOrderService_CreateOrder_Success(t *testing.T) {
	f := setupOrderServiceTest(t)

	order, err := f.service.CreateOrder(context.Background(), []OrderItemInput{
		{ProductID: f.widget.ID, Quantity: 2},
		{ProductID: f.gadget.ID, Quantity: 3},
	})
	require.NoError(t, err)

	assert.NotEmpty(t, order.ID)
	assert.Equal(t, model.OrderStatusPending, order.Status)
	// 2*19.99 + 3*0.1 = 40.28
	assert.Equal(t, 40.28, order.Total)
	require.Len(t, order.Items, 2)
	assert.Equal(t, "Widget", order.Items[0].ProductName)
	assert.Equal(t, 19.99, order.Items[0].Price)
	assert.Equal(t, 2, order.Items[0].Quantity)
	assert.Equal(t, "Gadget", order.Items[1].ProductName)

	assert.Equal(t, 3, f.stockOf(t, f.widget.ID))
	assert.Equal(t, 7, f.stockOf(t, f.gadget.ID))

	require.Len(t, f.notifier.orders, 1)
	assert.Equal(t, order.ID, f.notifier.orders[0].ID)
	assert.Equal(t, 1, f.cache.invalidated)
}

func TestOrderService_CreateOrder_SnapshotsPrice(t *testing.T) {
	f := setupOrderServiceTest(t)
	ctx := context.Background()

	order, err := f.service.CreateOrder(ctx, []OrderItemInput{{ProductID: f.widget.ID, Quantity: 1}})
	require.NoError(t, err)

	require.NoError(t, f.db.Model(&model.Product{}).Where("id = ?", f.widget.ID).
		Updates(map[string]interface{}{"price": 99.0, "name": "Renamed"}).Error)

	stored, err := f.service.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, stored.Items, 1)
	assert.Equal(t, 19.99, stored.Items[0].Price)
	assert.Equal(t, "Widget", stored.Items[0].ProductName)
	assert.Equal(t, 19.99, stored.Total)
}

func TestOrderService_CreateOrder_InsufficientStock(t *testing.T) {
	f := setupOrderServiceTest(t)

	_, err := f.service.CreateOrder(context.Background(), []OrderItemInput{
		{ProductID: f.widget.ID, Quantity: 6},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInsufficientStock)

	var itemErr *OrderItemError
	require.True(t, errors.As(err, &itemErr))
	assert.Equal(t, "Widget", itemErr.ProductName)

	assert.Equal(t, 5, f.stockOf(t, f.widget.ID))
	assert.Zero(t, f.orderCount(t))
	assert.Empty(t, f.notifier.orders)
}

func TestOrderService_CreateOrder_RollsBackEarlierItems(t *testing.T) {
	f := setupOrderServiceTest(t)

	_, err := f.service.CreateOrder(context.Background(), []OrderItemInput{
		{ProductID: f.gadget.ID, Quantity: 4},
		{ProductID: f.widget.ID, Quantity: 50},
	})
	assert.ErrorIs(t, err, ErrInsufficientStock)

	assert.Equal(t, 10, f.stockOf(t, f.gadget.ID))
	assert.Equal(t, 5, f.stockOf(t, f.widget.ID))
	assert.Zero(t, f.orderCount(t))
	assert.Zero(t, f.cache.invalidated)
}

func TestOrderService_CreateOrder_UnknownProduct(t *testing.T) {
	f := setupOrderServiceTest(t)

	_, err := f.service.CreateOrder(context.Background(), []OrderItemInput{
		{ProductID: f.gadget.ID, Quantity: 1},
		{ProductID: "missing", Quantity: 1},
	})
	assert.ErrorIs(t, err, ErrProductNotFound)

	var itemErr *OrderItemError
	require.True(t, errors.As(err, &itemErr))
	assert.Equal(t, "missing", itemErr.ProductID)

	assert.Equal(t, 10, f.stockOf(t, f.gadget.ID))
	assert.Zero(t, f.orderCount(t))
}

func TestOrderService_CreateOrder_RepeatedProductSeesDecrement(t *testing.T) {
	f := setupOrderServiceTest(t)

	_, err := f.service.CreateOrder(context.Background(), []OrderItemInput{
		{ProductID: f.widget.ID, Quantity: 3},
		{ProductID: f.widget.ID, Quantity: 3},
	})
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.Equal(t, 5, f.stockOf(t, f.widget.ID))

	order, err := f.service.CreateOrder(context.Background(), []OrderItemInput{
		{ProductID: f.widget.ID, Quantity: 2},
		{ProductID: f.widget.ID, Quantity: 3},
	})
	require.NoError(t, err)
	assert.Len(t, order.Items, 2)
	assert.Zero(t, f.stockOf(t, f.widget.ID))
}

func TestOrderService_CreateOrder_Empty(t *testing.T) {
	f := setupOrderServiceTest(t)

	_, err := f.service.CreateOrder(context.Background(), nil)
	assert.ErrorIs(t, err, ErrEmptyOrder)
	assert.Zero(t, f.orderCount(t))
}

func TestOrderService_CreateOrder_InvalidQuantity(t *testing.T) {
	f := setupOrderServiceTest(t)

	_, err := f.service.CreateOrder(context.Background(), []OrderItemInput{
		{ProductID: f.widget.ID, Quantity: 0},
	})
	assert.ErrorIs(t, err, ErrInvalidQuantity)
	assert.Equal(t, 5, f.stockOf(t, f.widget.ID))
}

func TestOrderService_CreateOrder_NotifierFailureIsIgnored(t *testing.T) {
	f := setupOrderServiceTest(t)
	f.notifier.err = errors.New("broker unavailable")

	order, err := f.service.CreateOrder(context.Background(), []OrderItemInput{
		{ProductID: f.widget.ID, Quantity: 1},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, order.ID)
	assert.Equal(t, int64(1), f.orderCount(t))
}

func TestOrderService_ListOrders_NewestFirst(t *testing.T) {
	f := setupOrderServiceTest(t)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 3; i++ {
		order, err := f.service.CreateOrder(ctx, []OrderItemInput{{ProductID: f.gadget.ID, Quantity: 1}})
		require.NoError(t, err)
		ids = append(ids, order.ID)
		time.Sleep(2 * time.Millisecond)
	}

	orders, err := f.service.ListOrders(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 3)
	assert.True(t, sort.SliceIsSorted(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	}))
	assert.Equal(t, ids[2], orders[0].ID)
	assert.Equal(t, ids[0], orders[2].ID)
	for _, order := range orders {
		assert.Len(t, order.Items, 1)
	}
}

func TestOrderService_GetOrder_NotFound(t *testing.T) {
	f := setupOrderServiceTest(t)

	_, err := f.service.GetOrder(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestMultiNotifier_JoinsErrors(t *testing.T) {
	ok := &recordingNotifier{}
	failing := &recordingNotifier{err: errors.New("boom")}
	order := &model.Order{ID: "order-1"}

	err := MultiNotifier{failing, ok}.OrderCreated(context.Background(), order)
	assert.EqualError(t, err, "boom")
	assert.Len(t, ok.orders, 1)
	assert.Len(t, failing.orders, 1)

	assert.NoError(t, MultiNotifier{}.OrderCreated(context.Background(), order))
}
