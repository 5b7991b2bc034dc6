// Package catalog serves products and the category tree.
package catalog

import "github.com/mycoll/marketplace/internal/apperr"

var (
	ErrCategoryNotFound    = apperr.NotFound("category_not_found", "category not found")
	ErrParentNotFound      = apperr.Validation("parent_not_found", "parent category not found")
	ErrCategoryCycle       = apperr.Validation("category_cycle", "a category cannot be its own ancestor")
	ErrCategoryInUse       = apperr.Conflict("category_in_use", "category has associated products")
	ErrCategoryHasChildren = apperr.Conflict("category_has_children", "category has child categories")

	ErrProductNotFound = apperr.NotFound("product_not_found", "product not found")
	ErrNotProductOwner = apperr.Forbidden("not_product_owner", "only the supplier or an administrator may change this product")
)
