// Package orders turns carts into orders with frozen prices and reconciles
// product stock when an order is paid.
package orders

import (
	"net/http"

	"github.com/mycoll/marketplace/internal/apperr"
)

var (
	ErrEmptyCart          = apperr.Validation("empty_cart", "cart is empty")
	ErrInvalidQuantity    = apperr.Validation("invalid_quantity", "quantity must be positive")
	ErrProductNotFound    = apperr.NotFound("product_not_found", "product does not exist")
	ErrProductNotSellable = apperr.Validation("product_not_sellable", "product is not for sale")
	ErrTotalTooLarge      = apperr.Validation("total_too_large", "order total exceeds 99999999.99")
	// ErrInsufficientStock is a validation failure at checkout and a
	// conflict at payment, where it is reported as errStockShortfall.
	ErrInsufficientStock = apperr.Validation("insufficient_stock", "insufficient stock")

	ErrOrderNotFound = apperr.NotFound("order_not_found", "order not found")
	ErrInvalidState  = apperr.Validation("invalid_state", "state must be 1 to 20 characters")

	// Payment conflicts are answered with 400.
	ErrOrderAlreadyProcessed = apperr.Conflict("order_already_processed", "order was already processed").WithStatus(http.StatusBadRequest)
	ErrEmptyOrderData        = apperr.Conflict("empty_order_data", "order has no line items").WithStatus(http.StatusBadRequest)
	errStockShortfall        = ErrInsufficientStock.WithKind(apperr.KindConflict).WithStatus(http.StatusBadRequest)
)
