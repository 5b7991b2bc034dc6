package policy

import (
	"time"

	"gorm.io/gorm"

	"github.com/mycoll/marketplace/auth"
	"github.com/mycoll/marketplace/internal/catalog"
	"github.com/mycoll/marketplace/internal/clock"
	"github.com/mycoll/marketplace/internal/favorites"
	"github.com/mycoll/marketplace/internal/handlers"
	"github.com/mycoll/marketplace/internal/identity"
	"github.com/mycoll/marketplace/internal/metrics"
	"github.com/mycoll/marketplace/internal/orders"
	"github.com/mycoll/marketplace/internal/storage"
)

// Deps are the collaborators shared by every service.
type Deps struct {
	DB       *gorm.DB
	Signer   *auth.Signer
	Clock    clock.Clock
	Metrics  *metrics.Metrics
	Images   *storage.Images
	CacheTTL time.Duration
	// BcryptCost overrides the password hashing cost when non-zero.
	BcryptCost int
}

// RouterConfig holds the configured gate, services and handlers of the API.
type RouterConfig struct {
	AuthGate *AuthGate
	Signer   *auth.Signer
	Metrics  *metrics.Metrics
	Images   *storage.Images

	Identity *identity.Service
	Orders   *orders.Service

	AuthHandler      *handlers.AuthHandler
	UserAdminHandler *handlers.UserAdminHandler
	OrderHandler     *handlers.OrderHandler
	ProductHandler   *handlers.ProductHandler
	CategoryHandler  *handlers.CategoryHandler
	FavoriteHandler  *handlers.FavoriteHandler
}

// NewRouterConfig wires the services over d. The identity service invalidates
// the gate's principal cache whenever roles or account state change.
func NewRouterConfig(d Deps) *RouterConfig {
	if d.Clock == nil {
		d.Clock = clock.System{}
	}
	authGate := NewAuthGate(d.DB, d.CacheTTL)

	ids := identity.NewService(d.DB, d.Signer, authGate)
	if d.BcryptCost != 0 {
		ids.WithBcryptCost(d.BcryptCost)
	}
	orderSvc := orders.NewService(d.DB, d.Clock, d.Metrics)

	return &RouterConfig{
		AuthGate: authGate,
		Signer:   d.Signer,
		Metrics:  d.Metrics,
		Images:   d.Images,

		Identity: ids,
		Orders:   orderSvc,

		AuthHandler:      handlers.NewAuthHandler(ids, d.Signer),
		UserAdminHandler: handlers.NewUserAdminHandler(ids),
		OrderHandler:     handlers.NewOrderHandler(orderSvc),
		ProductHandler:   handlers.NewProductHandler(catalog.NewProductService(d.DB), d.Images),
		CategoryHandler:  handlers.NewCategoryHandler(catalog.NewCategoryService(d.DB)),
		FavoriteHandler:  handlers.NewFavoriteHandler(favorites.NewService(d.DB, d.Clock, d.Metrics)),
	}
}
