package errors

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ErrorInfo pairs an error code with a message safe to show to clients
type ErrorInfo struct {
	Code    string
	Message string
}

// ParseError maps infrastructure errors (GORM, PostgreSQL, SQLite, network)
// onto an error code and a client-facing message. Driver details are hidden.
func ParseError(err error, context string) ErrorInfo {
	if err == nil {
		return ErrorInfo{
			Code:    InternalServerError,
			Message: "Internal server error",
		}
	}

	errStr := err.Error()
	errStrLower := strings.ToLower(errStr)

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrorInfo{
			Code:    notFoundCode(context),
			Message: notFoundMessage(context),
		}
	}

	// PostgreSQL 23505 / SQLite UNIQUE constraint failed
	if strings.Contains(errStrLower, "duplicate key") || strings.Contains(errStrLower, "unique constraint") {
		return parseDuplicateKeyError(errStrLower)
	}

	// PostgreSQL 23503 / SQLite FOREIGN KEY constraint failed
	if strings.Contains(errStrLower, "foreign key constraint") {
		return parseForeignKeyError(errStrLower)
	}

	if strings.Contains(errStrLower, "violates not-null constraint") || strings.Contains(errStrLower, "not null constraint failed") {
		return ErrorInfo{
			Code:    ValidationRequired,
			Message: "A required field is missing",
		}
	}

	if strings.Contains(errStrLower, "check constraint") {
		return ErrorInfo{
			Code:    ValidationInvalidInput,
			Message: "Input value is out of the allowed range",
		}
	}

	if strings.Contains(errStrLower, "connection refused") ||
		strings.Contains(errStrLower, "no such host") ||
		strings.Contains(errStrLower, "timeout") {
		return ErrorInfo{
			Code:    InternalExternalAPI,
			Message: "An upstream service is unavailable, please retry later",
		}
	}

	return ErrorInfo{
		Code:    InternalDatabaseError,
		Message: defaultErrorMessage(context),
	}
}

func parseDuplicateKeyError(errLower string) ErrorInfo {
	if strings.Contains(errLower, "cart_items") || strings.Contains(errLower, "idx_cart_items_cart_product") {
		return ErrorInfo{
			Code:    ResourceConflict,
			Message: "Product is already in the cart",
		}
	}
	if strings.Contains(errLower, "session_id") || strings.Contains(errLower, "idx_carts_session_id") {
		return ErrorInfo{
			Code:    ResourceConflict,
			Message: "Cart already exists for this session",
		}
	}

	return ErrorInfo{
		Code:    ResourceAlreadyExists,
		Message: "Resource already exists",
	}
}

func parseForeignKeyError(errLower string) ErrorInfo {
	if strings.Contains(errLower, "product") {
		return ErrorInfo{
			Code:    ProductNotFound,
			Message: "Product not found",
		}
	}

	return ErrorInfo{
		Code:    ResourceNotFound,
		Message: "Referenced resource not found",
	}
}

func notFoundCode(context string) string {
	contextLower := strings.ToLower(context)
	switch {
	case strings.Contains(contextLower, "product"):
		return ProductNotFound
	case strings.Contains(contextLower, "order"):
		return OrderNotFound
	case strings.Contains(contextLower, "cart"):
		return CartItemNotFound
	}
	return ResourceNotFound
}

func notFoundMessage(context string) string {
	switch notFoundCode(context) {
	case ProductNotFound:
		return "Product not found"
	case OrderNotFound:
		return "Order not found"
	case CartItemNotFound:
		return "Item not in cart"
	}
	return "Resource not found"
}

func defaultErrorMessage(context string) string {
	contextLower := strings.ToLower(context)

	if strings.Contains(contextLower, "create") {
		return "Failed to create resource, please retry later"
	}
	if strings.Contains(contextLower, "update") {
		return "Failed to update resource, please retry later"
	}
	if strings.Contains(contextLower, "delete") || strings.Contains(contextLower, "clear") {
		return "Failed to delete resource, please retry later"
	}

	return "Internal server error, please retry later"
}

// StatusForCode returns the HTTP status an error code is reported with
func StatusForCode(code string) int {
	switch code {
	case ProductNotFound, OrderNotFound, CartItemNotFound, ResourceNotFound:
		return http.StatusNotFound
	case ResourceConflict, ResourceAlreadyExists:
		return http.StatusConflict
	case ValidationInvalidInput, ValidationRequired:
		return http.StatusBadRequest
	case InternalExternalAPI:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// ParseAndRespond parses err and writes it with the status matching its code
func ParseAndRespond(c *gin.Context, err error, context string) {
	errorInfo := ParseError(err, context)

	switch status := StatusForCode(errorInfo.Code); status {
	case http.StatusNotFound:
		NotFound(c, errorInfo.Code, errorInfo.Message)
	case http.StatusConflict:
		Conflict(c, errorInfo.Code, errorInfo.Message)
	case http.StatusBadRequest:
		BadRequest(c, errorInfo.Code, errorInfo.Message)
	case http.StatusServiceUnavailable:
		ServiceUnavailable(c, errorInfo.Code, errorInfo.Message)
	default:
		RespondWithError(c, status, errorInfo.Code, errorInfo.Message)
	}
}
