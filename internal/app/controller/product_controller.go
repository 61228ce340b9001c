package controller

import (
	"bytes"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/storefront-backend/internal/app/service"
	apperrors "github.com/ikkim/storefront-backend/internal/errors"
	"github.com/ikkim/storefront-backend/internal/middleware"
	"github.com/ikkim/storefront-backend/internal/spreadsheet"
)

const exportFilename = "products.xlsx"

type ProductController struct {
	productService service.ProductService
}

func NewProductController(productService service.ProductService) *ProductController {
	return &ProductController{
		productService: productService,
	}
}

// Pointer fields let an explicit zero pass while a missing key fails binding.
type CreateProductRequest struct {
	Name        string   `json:"name" binding:"required"`
	Description *string  `json:"description" binding:"required"`
	Price       *float64 `json:"price" binding:"required,gte=0"`
	Stock       *int     `json:"stock" binding:"required,gte=0"`
	ImageURL    string   `json:"image_url"`
}

// ListProducts returns every product
// GET /api/products
func (ctrl *ProductController) ListProducts(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	products, err := ctrl.productService.ListProducts(c.Request.Context())
	if err != nil {
		log.Error("Failed to fetch products", err)
		apperrors.ParseAndRespond(c, err, "list products")
		return
	}

	log.Info("Products fetched successfully", map[string]interface{}{
		"count": len(products),
	})

	c.JSON(http.StatusOK, products)
}

// GetProduct returns a product by ID
// GET /api/products/:id
func (ctrl *ProductController) GetProduct(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	id := c.Param("id")

	product, err := ctrl.productService.GetProduct(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			log.Warn("Product not found", map[string]interface{}{
				"product_id": id,
			})
			apperrors.NotFound(c, apperrors.ProductNotFound, "Product not found")
			return
		}
		log.Error("Failed to fetch product", err, map[string]interface{}{
			"product_id": id,
		})
		apperrors.ParseAndRespond(c, err, "get product")
		return
	}

	c.JSON(http.StatusOK, product)
}

// CreateProduct adds a product to the catalog
// POST /api/products
func (ctrl *ProductController) CreateProduct(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid product creation request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.RespondWithValidationError(c, apperrors.ValidationFields(err))
		return
	}

	product, err := ctrl.productService.CreateProduct(c.Request.Context(), service.CreateProductInput{
		Name:        req.Name,
		Description: *req.Description,
		Price:       *req.Price,
		Stock:       *req.Stock,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		if errors.Is(err, service.ErrInvalidProduct) {
			apperrors.BadRequest(c, apperrors.ValidationInvalidInput, err.Error())
			return
		}
		log.Error("Failed to create product", err, map[string]interface{}{
			"name": req.Name,
		})
		apperrors.ParseAndRespond(c, err, "create product")
		return
	}

	log.Info("Product created successfully", map[string]interface{}{
		"product_id": product.ID,
	})

	c.JSON(http.StatusCreated, product)
}

// ExportProducts downloads the catalog as an xlsx workbook
// GET /api/products/export
func (ctrl *ProductController) ExportProducts(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	products, err := ctrl.productService.ListProducts(c.Request.Context())
	if err != nil {
		log.Error("Failed to fetch products for export", err)
		apperrors.ParseAndRespond(c, err, "export products")
		return
	}

	var buf bytes.Buffer
	if err := spreadsheet.WriteProducts(&buf, products); err != nil {
		log.Error("Failed to render product workbook", err)
		apperrors.InternalError(c, "Failed to export products")
		return
	}

	log.Info("Products exported", map[string]interface{}{
		"count": len(products),
		"bytes": buf.Len(),
	})

	c.Header("Content-Disposition", `attachment; filename="`+exportFilename+`"`)
	c.Data(http.StatusOK, spreadsheet.ContentType, buf.Bytes())
}
