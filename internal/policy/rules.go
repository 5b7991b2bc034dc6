// Package policy binds the generic gate to the marketplace: the rule table,
// a GORM-backed principal resolver and the HTTP middleware that enforces both.
package policy

import (
	"github.com/mycoll/marketplace/gate"
	"github.com/mycoll/marketplace/internal/models"
)

// Resource types named in permissions.
const (
	resOrder    = "order"
	resProduct  = "product"
	resCategory = "category"
	resFavorite = "favorite"
	resUser     = "user"
)

// Operations guarded by the rule table.
var (
	OrderCreate = gate.NewPermission(resOrder, gate.ActionCreate)
	OrderList   = gate.NewPermission(resOrder, gate.ActionList)
	OrderView   = gate.NewPermission(resOrder, gate.ActionView)
	OrderPay    = gate.NewPermission(resOrder, gate.ActionPay)
	OrderUpdate = gate.NewPermission(resOrder, gate.ActionUpdate)
	OrderDelete = gate.NewPermission(resOrder, gate.ActionDelete)

	ProductListOwn = gate.NewPermission(resProduct, gate.ActionListOwn)
	ProductCreate  = gate.NewPermission(resProduct, gate.ActionCreate)
	ProductUpdate  = gate.NewPermission(resProduct, gate.ActionUpdate)
	ProductDelete  = gate.NewPermission(resProduct, gate.ActionDelete)
	ProductApprove = gate.NewPermission(resProduct, gate.ActionApprove)

	CategoryCreate = gate.NewPermission(resCategory, gate.ActionCreate)
	CategoryUpdate = gate.NewPermission(resCategory, gate.ActionUpdate)
	CategoryDelete = gate.NewPermission(resCategory, gate.ActionDelete)

	FavoriteList   = gate.NewPermission(resFavorite, gate.ActionList)
	FavoriteToggle = gate.NewPermission(resFavorite, gate.ActionToggle)

	UserUpdate = gate.NewPermission(resUser, gate.ActionUpdate)
)

var (
	admin    = string(models.RoleAdmin)
	customer = string(models.RoleCustomer)
	supplier = string(models.RoleSupplier)
	employee = string(models.RoleEmployee)
)

// Rules is the marketplace authorization table.
func Rules() gate.Table {
	adminOnly := gate.Rule{Roles: []string{admin}}
	return gate.Table{
		OrderCreate: {Roles: []string{customer}, Active: true},
		OrderList:   {Roles: []string{customer, admin}, Owner: true, Bypass: []string{admin}},
		OrderView:   {Roles: []string{customer, admin}, Owner: true, Bypass: []string{admin}},
		OrderPay:    {Roles: []string{customer, admin}, Owner: true, Bypass: []string{admin}, Active: true},
		OrderUpdate: adminOnly,
		OrderDelete: adminOnly,

		ProductListOwn: {Roles: []string{supplier, admin}, Owner: true, Bypass: []string{admin}},
		ProductCreate:  {Roles: []string{supplier, admin}, Active: true},
		ProductUpdate:  {Roles: []string{supplier, admin}, Owner: true, Bypass: []string{admin}},
		ProductDelete:  {Roles: []string{supplier, admin}, Owner: true, Bypass: []string{admin}},
		ProductApprove: {Roles: []string{admin, employee}},

		gate.NewPermission(resCategory, gate.WildcardAll): adminOnly,

		FavoriteList:   {Roles: []string{customer}},
		FavoriteToggle: {Roles: []string{customer}},

		UserUpdate: adminOnly,
	}
}
