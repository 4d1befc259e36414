package apperr

import "github.com/atandjijero/Saas/pkg/zerror"

const (
	ValidationErrorCode = "VALIDATION_FAILED"
)

var (
	ValidationErr = zerror.NewValidationFailed(ValidationErrorCode, "validation error")

	// Authentication / authorization.
	MissingTokenErr       = zerror.NewUnauthorized("MISSING_TOKEN", "authentication token required")
	InvalidTokenErr       = zerror.NewUnauthorized("INVALID_TOKEN", "invalid or expired token")
	SaleRoleForbiddenErr  = zerror.NewForbidden("SALE_ROLE_FORBIDDEN", "only VENDEUR and DIRECTEUR can create sales")
	TenantAccessDeniedErr = zerror.NewForbidden("TENANT_ACCESS_DENIED", "access denied")

	// Sale creation.
	EmptySaleErr         = zerror.NewBadRequest("EMPTY_SALE", "a sale needs at least one item")
	InvalidQuantityErr   = zerror.NewBadRequest("INVALID_QUANTITY", "quantity must be a positive integer")
	ProductNotFoundErr   = zerror.NewNotFound("PRODUCT_NOT_FOUND", "product not found")
	InsufficientStockErr = zerror.NewConflict("INSUFFICIENT_STOCK", "insufficient stock")

	TenantNotFoundErr = zerror.NewNotFound("TENANT_NOT_FOUND", "tenant not found")
)
