// Package models holds the GORM models of the marketplace.
package models

// All lists every model in migration order.
func All() []any {
	return []any{
		&Role{}, &User{}, &Category{}, &Product{}, &Order{}, &OrderLine{}, &Favorite{},
	}
}
