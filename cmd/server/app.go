package main

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/mycoll/marketplace/auth"
	"github.com/mycoll/marketplace/gate"
	"github.com/mycoll/marketplace/internal/handlers"
	"github.com/mycoll/marketplace/internal/policy"
	"github.com/mycoll/marketplace/internal/storage"
)

// App is the main application handler that sets up all routes.
type App struct {
	mux       *http.ServeMux
	routerCfg *policy.RouterConfig
	handler   http.Handler
}

// NewApp creates a new application with all routes configured.
func NewApp(routerCfg *policy.RouterConfig, logger *zap.Logger) *App {
	app := &App{
		mux:       http.NewServeMux(),
		routerCfg: routerCfg,
	}
	app.setupRoutes()

	route := func(r *http.Request) string {
		_, pattern := app.mux.Handler(r)
		return pattern
	}
	app.handler = handlers.Observability(logger, routerCfg.Metrics, route)(
		handlers.Recover(routerCfg.Signer.Middleware(app.mux)))
	return app
}

// ServeHTTP implements http.Handler.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.handler.ServeHTTP(w, r)
}

func (a *App) setupRoutes() {
	rc := a.routerCfg

	// Public
	a.mux.HandleFunc("GET /healthz", handlers.Health)
	if rc.Metrics != nil {
		a.mux.Handle("GET /metrics", rc.Metrics.Handler())
	}
	if rc.Images != nil {
		a.mux.Handle("GET "+storage.PublicPrefix, rc.Images.Handler())
	}

	ah := rc.AuthHandler
	a.mux.HandleFunc("POST /auth/register", ah.Register)
	a.mux.HandleFunc("POST /auth/login", ah.Login)
	a.mux.HandleFunc("POST /auth/forgot-password", ah.ForgotPassword)

	// Authenticated
	a.mux.Handle("POST /auth/refresh", auth.RequireAuth(http.HandlerFunc(ah.Refresh)))
	a.mux.Handle("POST /auth/logout", auth.RequireAuth(http.HandlerFunc(ah.Logout)))
	a.mux.Handle("GET /auth/manage/info", auth.RequireAuth(http.HandlerFunc(ah.Info)))
	a.mux.Handle("POST /auth/manage/info", auth.RequireAuth(http.HandlerFunc(ah.UpdateInfo)))
	a.mux.Handle("POST /auth/manage/password", auth.RequireAuth(http.HandlerFunc(ah.ChangePassword)))

	uh := rc.UserAdminHandler
	a.mux.Handle("PUT /auth/users/{id}/state", a.require(policy.UserUpdate, uh.SetState))
	a.mux.Handle("PUT /auth/users/{id}/roles", a.require(policy.UserUpdate, uh.SetRoles))

	// Orders
	oh := rc.OrderHandler
	a.mux.Handle("POST /orders", a.require(policy.OrderCreate, oh.Create))
	a.mux.Handle("GET /orders", a.require(policy.OrderList, oh.List))
	a.mux.Handle("GET /orders/{id}", a.require(policy.OrderView, oh.Get))
	a.mux.Handle("POST /orders/{id}/pay", a.require(policy.OrderPay, oh.Pay))
	a.mux.Handle("PUT /orders/{id}", a.require(policy.OrderUpdate, oh.SetState))
	a.mux.Handle("DELETE /orders/{id}", a.require(policy.OrderDelete, oh.Delete))

	// Products
	ph := rc.ProductHandler
	a.mux.HandleFunc("GET /products", ph.Search)
	a.mux.HandleFunc("GET /products/{id}", ph.Get)
	a.mux.Handle("GET /products/mine", a.require(policy.ProductListOwn, ph.Mine))
	a.mux.Handle("POST /products", a.require(policy.ProductCreate, ph.Create))
	a.mux.Handle("PUT /products/{id}", a.require(policy.ProductUpdate, ph.Update))
	a.mux.Handle("DELETE /products/{id}", a.require(policy.ProductDelete, ph.Delete))
	a.mux.Handle("PUT /products/{id}/state", a.require(policy.ProductApprove, ph.SetState))

	// Categories
	ch := rc.CategoryHandler
	a.mux.HandleFunc("GET /categories", ch.List)
	a.mux.HandleFunc("GET /categories/tree", ch.Tree)
	a.mux.HandleFunc("GET /categories/{id}", ch.Get)
	a.mux.Handle("POST /categories", a.require(policy.CategoryCreate, ch.Create))
	a.mux.Handle("PUT /categories/{id}", a.require(policy.CategoryUpdate, ch.Update))
	a.mux.Handle("DELETE /categories/{id}", a.require(policy.CategoryDelete, ch.Delete))

	// Favorites
	fh := rc.FavoriteHandler
	a.mux.Handle("GET /favorites", a.require(policy.FavoriteList, fh.List))
	a.mux.Handle("GET /favorites/ids", a.require(policy.FavoriteList, fh.IDs))
	a.mux.Handle("POST /favorites/toggle/{productId}", a.require(policy.FavoriteToggle, fh.Toggle))
}

// require guards h with authentication and perm's rule.
func (a *App) require(perm gate.Permission, h http.HandlerFunc) http.Handler {
	return auth.RequireAuth(a.routerCfg.AuthGate.Require(perm)(h))
}
