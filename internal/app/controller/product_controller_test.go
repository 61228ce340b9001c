package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/internal/app/repository"
	"github.com/ikkim/storefront-backend/internal/app/service"
	"github.com/ikkim/storefront-backend/internal/db"
	apperrors "github.com/ikkim/storefront-backend/internal/errors"
	"github.com/ikkim/storefront-backend/internal/spreadsheet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func performRequest(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		payload, _ := json.Marshal(body)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) apperrors.ErrorResponse {
	var resp apperrors.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func setupProductControllerTest(t *testing.T) (*ProductController, *gin.Engine, repository.ProductRepository) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	productRepo := repository.NewProductRepository(testDB)
	productService := service.NewProductService(testDB, productRepo, nil)
	productController := NewProductController(productService)

	gin.SetMode(gin.TestMode)
	router := gin.New()

	return productController, router, productRepo
}

func TestProductController_ListProducts_Success(t *testing.T) {
	controller, router, productRepo := setupProductControllerTest(t)
	ctx := context.Background()

	require.NoError(t, productRepo.Create(ctx, &model.Product{ID: "p-1", Name: "Laptop", Price: 999.99, Stock: 10}))
	require.NoError(t, productRepo.Create(ctx, &model.Product{ID: "p-2", Name: "Mouse", Price: 29.99, Stock: 50}))

	router.GET("/products", controller.ListProducts)
	w := performRequest(router, http.MethodGet, "/products", nil)

	assert.Equal(t, http.StatusOK, w.Code)

	var products []model.Product
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &products))
	require.Len(t, products, 2)
	assert.Equal(t, "Laptop", products[0].Name)
}

func TestProductController_ListProducts_Empty(t *testing.T) {
	controller, router, _ := setupProductControllerTest(t)

	router.GET("/products", controller.ListProducts)
	w := performRequest(router, http.MethodGet, "/products", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())
}

func TestProductController_GetProduct_Success(t *testing.T) {
	controller, router, productRepo := setupProductControllerTest(t)

	require.NoError(t, productRepo.Create(context.Background(), &model.Product{
		ID:          "p-1",
		Name:        "Keyboard",
		Description: "Mechanical keyboard",
		Price:       79.99,
		Stock:       25,
		ImageURL:    "https://example.com/keyboard.jpg",
	}))

	router.GET("/products/:id", controller.GetProduct)
	w := performRequest(router, http.MethodGet, "/products/p-1", nil)

	assert.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "p-1", body["id"])
	assert.Equal(t, "Keyboard", body["name"])
	assert.Equal(t, 79.99, body["price"])
	assert.Equal(t, float64(25), body["stock"])
	assert.Equal(t, "https://example.com/keyboard.jpg", body["image_url"])
}

func TestProductController_GetProduct_NotFound(t *testing.T) {
	controller, router, _ := setupProductControllerTest(t)

	router.GET("/products/:id", controller.GetProduct)
	w := performRequest(router, http.MethodGet, "/products/missing", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	resp := decodeError(t, w)
	assert.Equal(t, apperrors.ProductNotFound, resp.Error)
	assert.Equal(t, "Product not found", resp.Message)
}

func TestProductController_CreateProduct_Success(t *testing.T) {
	controller, router, productRepo := setupProductControllerTest(t)

	router.POST("/products", controller.CreateProduct)
	w := performRequest(router, http.MethodPost, "/products", map[string]interface{}{
		"name":        "Monitor",
		"description": "4K display",
		"price":       299.99,
		"stock":       15,
	})

	require.Equal(t, http.StatusCreated, w.Code)

	var created model.Product
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Monitor", created.Name)

	stored, err := productRepo.FindByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, 299.99, stored.Price)
	assert.Equal(t, 15, stored.Stock)
}

func TestProductController_CreateProduct_ZeroPriceAndStock(t *testing.T) {
	controller, router, _ := setupProductControllerTest(t)

	router.POST("/products", controller.CreateProduct)
	w := performRequest(router, http.MethodPost, "/products", map[string]interface{}{
		"name":        "Sticker",
		"description": "",
		"price":       0,
		"stock":       0,
	})

	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestProductController_CreateProduct_MissingField(t *testing.T) {
	controller, router, _ := setupProductControllerTest(t)

	router.POST("/products", controller.CreateProduct)
	w := performRequest(router, http.MethodPost, "/products", map[string]interface{}{
		"name":        "Monitor",
		"description": "4K display",
		"price":       299.99,
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp apperrors.ValidationError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, apperrors.ValidationInvalidInput, resp.Error)
	assert.Equal(t, map[string]string{"stock": "required"}, resp.Fields)
}

func TestProductController_CreateProduct_NegativePrice(t *testing.T) {
	controller, router, _ := setupProductControllerTest(t)

	router.POST("/products", controller.CreateProduct)
	w := performRequest(router, http.MethodPost, "/products", map[string]interface{}{
		"name":        "Monitor",
		"description": "4K display",
		"price":       -1,
		"stock":       3,
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProductController_CreateProduct_BlankName(t *testing.T) {
	controller, router, _ := setupProductControllerTest(t)

	router.POST("/products", controller.CreateProduct)
	w := performRequest(router, http.MethodPost, "/products", map[string]interface{}{
		"name":        "   ",
		"description": "",
		"price":       5,
		"stock":       3,
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decodeError(t, w).Message, "name is required")
}

func TestProductController_ExportProducts(t *testing.T) {
	controller, router, productRepo := setupProductControllerTest(t)
	ctx := context.Background()

	require.NoError(t, productRepo.Create(ctx, &model.Product{ID: "p-1", Name: "Laptop", Price: 999.99, Stock: 10}))
	require.NoError(t, productRepo.Create(ctx, &model.Product{ID: "p-2", Name: "Mouse", Price: 29.99, Stock: 50}))

	router.GET("/products/export", controller.ExportProducts)
	w := performRequest(router, http.MethodGet, "/products/export", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, spreadsheet.ContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "products.xlsx")

	rows, err := spreadsheet.ReadProducts(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Laptop", rows[0].Name)
	assert.Equal(t, 50, rows[1].Stock)
}
