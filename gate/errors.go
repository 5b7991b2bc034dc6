package gate

import "github.com/mycoll/marketplace/internal/apperr"

// Sentinel errors returned by Gate.Authorize.
var (
	ErrUnauthenticated = apperr.Unauthorized("unauthorized", "authentication required")
	ErrForbidden       = apperr.Forbidden("forbidden", "not allowed to perform this operation")
	ErrInactiveAccount = apperr.Forbidden("account_not_active", "account is pending approval or suspended")
	ErrNoPolicyDefined = apperr.Forbidden("no_policy", "no policy defined for operation")
)
