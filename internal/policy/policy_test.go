package policy_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mycoll/marketplace/auth"
	"github.com/mycoll/marketplace/gate"
	"github.com/mycoll/marketplace/internal/db/dbtest"
	"github.com/mycoll/marketplace/internal/models"
	"github.com/mycoll/marketplace/internal/policy"
)

func createUser(t *testing.T, conn *gorm.DB, email string, state models.AccountState, roles ...models.RoleName) *models.User {
	t.Helper()
	u := &models.User{Email: email, Password: "x", AccountState: state}
	for _, name := range roles {
		var r models.Role
		require.NoError(t, conn.Where("name = ?", string(name)).First(&r).Error)
		u.Roles = append(u.Roles, r)
	}
	require.NoError(t, conn.Create(u).Error)
	return u
}

func TestDBResolver(t *testing.T) {
	conn := dbtest.Open(t)
	u := createUser(t, conn, "sup@test", models.AccountActive, models.RoleSupplier, models.RoleCustomer)

	p, err := policy.NewDBResolver(conn).Resolve(context.Background(), u.ID)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, u.ID, p.UserID)
	assert.True(t, p.Active)
	assert.ElementsMatch(t, []string{"Fornecedor", "Cliente"}, p.Roles)

	p, err = policy.NewDBResolver(conn).Resolve(context.Background(), 9999)
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestPermissionNames(t *testing.T) {
	assert.Equal(t, gate.Permission("order:pay"), policy.OrderPay)
	assert.Equal(t, gate.Permission("product:list_own"), policy.ProductListOwn)
	assert.Equal(t, gate.Permission("favorite:toggle"), policy.FavoriteToggle)

	rules := policy.Rules()
	for _, perm := range []gate.Permission{policy.CategoryCreate, policy.CategoryUpdate, policy.CategoryDelete} {
		rule, ok := rules.Lookup(perm)
		require.True(t, ok, perm)
		assert.Equal(t, []string{"Administrador"}, rule.Roles, perm)
	}
	_, ok := rules[gate.Permission("category:*")]
	assert.True(t, ok, "categories are covered by one wildcard entry")
}

func TestRulesTable(t *testing.T) {
	conn := dbtest.Open(t)
	ag := policy.NewAuthGate(conn, time.Minute)
	customer := createUser(t, conn, "c@test", models.AccountActive, models.RoleCustomer)
	pending := createUser(t, conn, "p@test", models.AccountPending, models.RoleCustomer)
	admin := createUser(t, conn, "a@test", models.AccountActive, models.RoleAdmin)
	employee := createUser(t, conn, "e@test", models.AccountActive, models.RoleEmployee)

	tests := []struct {
		name string
		user uint
		perm gate.Permission
		ok   bool
	}{
		{"customer creates order", customer.ID, policy.OrderCreate, true},
		{"pending customer cannot create order", pending.ID, policy.OrderCreate, false},
		{"pending customer may still list orders", pending.ID, policy.OrderList, true},
		{"admin cannot check out", admin.ID, policy.OrderCreate, false},
		{"admin pays", admin.ID, policy.OrderPay, true},
		{"customer cannot override state", customer.ID, policy.OrderUpdate, false},
		{"customer cannot create product", customer.ID, policy.ProductCreate, false},
		{"employee approves product", employee.ID, policy.ProductApprove, true},
		{"admin manages categories", admin.ID, policy.CategoryDelete, true},
		{"employee cannot manage categories", employee.ID, policy.CategoryCreate, false},
		{"customer toggles favorite", customer.ID, policy.FavoriteToggle, true},
		{"admin has no favorites", admin.ID, policy.FavoriteList, false},
		{"admin updates users", admin.ID, policy.UserUpdate, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := auth.WithUserID(context.Background(), tt.user)
			_, err := ag.Authorize(ctx, tt.perm)
			assert.Equal(t, tt.ok, err == nil, "err=%v", err)
		})
	}
}

func TestAuthorizeActorScope(t *testing.T) {
	conn := dbtest.Open(t)
	ag := policy.NewAuthGate(conn, time.Minute)
	customer := createUser(t, conn, "c@test", models.AccountActive, models.RoleCustomer)
	admin := createUser(t, conn, "a@test", models.AccountActive, models.RoleAdmin)

	actor, err := ag.Authorize(auth.WithUserID(context.Background(), customer.ID), policy.OrderView)
	require.NoError(t, err)
	assert.Equal(t, gate.Actor{UserID: customer.ID}, actor)

	actor, err = ag.Authorize(auth.WithUserID(context.Background(), admin.ID), policy.OrderView)
	require.NoError(t, err)
	assert.True(t, actor.Unrestricted)

	other := &models.Order{CustomerID: customer.ID + 100}
	assert.True(t, actor.Owns(other))
	actor, err = ag.Authorize(auth.WithUserID(context.Background(), customer.ID), policy.OrderView)
	require.NoError(t, err)
	assert.False(t, actor.Owns(other))
	assert.True(t, actor.Owns(&models.Order{CustomerID: customer.ID}))
}

func TestRequireMiddleware(t *testing.T) {
	conn := dbtest.Open(t)
	ag := policy.NewAuthGate(conn, time.Minute)
	customer := createUser(t, conn, "c@test", models.AccountActive, models.RoleCustomer)

	var got gate.Actor
	h := ag.Require(policy.OrderCreate)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = gate.ActorFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/orders", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/orders", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req.WithContext(auth.WithUserID(req.Context(), customer.ID)))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, customer.ID, got.UserID)

	// Suspension is only seen after the cached principal is invalidated.
	require.NoError(t, conn.Model(customer).Update("account_state", models.AccountSuspended).Error)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req.WithContext(auth.WithUserID(req.Context(), customer.ID)))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	ag.Invalidate(customer.ID)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req.WithContext(auth.WithUserID(req.Context(), customer.ID)))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "account_not_active")
}
