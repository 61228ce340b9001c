package repository

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupProductTest(t *testing.T) (*gorm.DB, ProductRepository) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	return testDB, NewProductRepository(testDB)
}

func newTestProduct(name string, price float64, stock int) *model.Product {
	return &model.Product{
		ID:          uuid.NewString(),
		Name:        name,
		Description: name + " description",
		Price:       price,
		Stock:       stock,
	}
}

func TestProductRepository_CreateAndFindByID(t *testing.T) {
	_, repo := setupProductTest(t)
	ctx := context.Background()

	product := newTestProduct("Desk Lamp", 24.5, 8)
	product.ImageURL = "https://example.com/lamp.jpg"
	require.NoError(t, repo.Create(ctx, product))

	found, err := repo.FindByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, "Desk Lamp", found.Name)
	assert.Equal(t, 24.5, found.Price)
	assert.Equal(t, 8, found.Stock)
	assert.Equal(t, "https://example.com/lamp.jpg", found.ImageURL)
}

func TestProductRepository_FindByID_NotFound(t *testing.T) {
	_, repo := setupProductTest(t)

	_, err := repo.FindByID(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestProductRepository_CreateBatchAndCount(t *testing.T) {
	_, repo := setupProductTest(t)
	ctx := context.Background()

	products := []model.Product{
		*newTestProduct("A", 1, 1),
		*newTestProduct("B", 2, 2),
		*newTestProduct("C", 3, 3),
	}
	require.NoError(t, repo.CreateBatch(ctx, products))
	require.NoError(t, repo.CreateBatch(ctx, nil))

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestProductRepository_FindLowStock(t *testing.T) {
	_, repo := setupProductTest(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newTestProduct("Plenty", 10, 50)))
	require.NoError(t, repo.Create(ctx, newTestProduct("Few", 10, 3)))
	require.NoError(t, repo.Create(ctx, newTestProduct("None", 10, 0)))

	low, err := repo.FindLowStock(ctx, 5)
	require.NoError(t, err)
	require.Len(t, low, 2)
	assert.Equal(t, "None", low[0].Name)
	assert.Equal(t, "Few", low[1].Name)
}

func TestProductRepository_DecrementStock(t *testing.T) {
	_, repo := setupProductTest(t)
	ctx := context.Background()

	product := newTestProduct("Mug", 7.25, 10)
	require.NoError(t, repo.Create(ctx, product))

	require.NoError(t, repo.DecrementStock(ctx, product.ID, 4))

	found, err := repo.FindByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, found.Stock)

	err = repo.DecrementStock(ctx, uuid.NewString(), 1)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestProductRepository_WithTxRollback(t *testing.T) {
	testDB, repo := setupProductTest(t)
	ctx := context.Background()

	product := newTestProduct("Notebook", 3, 20)
	require.NoError(t, repo.Create(ctx, product))

	tx := testDB.Begin()
	txRepo := repo.WithTx(tx)
	locked, err := txRepo.FindByIDForUpdate(ctx, product.ID)
	require.NoError(t, err)
	require.NoError(t, txRepo.DecrementStock(ctx, locked.ID, 5))
	require.NoError(t, tx.Rollback().Error)

	found, err := repo.FindByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 20, found.Stock)
}
