package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductState is the catalog lifecycle of a product.
type ProductState string

const (
	ProductPending  ProductState = "Pending"
	ProductActive   ProductState = "Active"
	ProductInactive ProductState = "Inactive"
	ProductSold     ProductState = "Sold"
)

// ProductStates lists every valid product state.
func ProductStates() []string {
	return []string{string(ProductPending), string(ProductActive), string(ProductInactive), string(ProductSold)}
}

// Product is a catalog item offered by a supplier.
// Stock and Sellable carry no column defaults: GORM would otherwise replace
// their meaningful zero values on insert.
type Product struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name        string `gorm:"size:255;not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`

	BasePrice decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"base_price"`
	// ProfitMargin is a fraction: 0.25 adds 25% on top of the base price.
	ProfitMargin decimal.Decimal `gorm:"type:decimal(6,4);not null" json:"profit_margin"`

	Stock    int          `gorm:"not null;check:chk_products_stock,stock >= 0" json:"stock"`
	Sellable bool         `gorm:"not null" json:"sellable"`
	State    ProductState `gorm:"size:20;not null;index" json:"state"`
	ImageURL string       `gorm:"size:500" json:"image_url,omitempty"`

	CategoryID uint      `gorm:"index;not null" json:"category_id"`
	Category   *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`

	SupplierID *uint `gorm:"index" json:"supplier_id,omitempty"`
	Supplier   *User `gorm:"foreignKey:SupplierID" json:"-"`
}

// FinalPrice is the customer-facing price: base + base×margin.
func (p *Product) FinalPrice() decimal.Decimal {
	return p.BasePrice.Add(p.BasePrice.Mul(p.ProfitMargin))
}

// SnapshotPrice is the final price rounded to cents, as frozen into order lines.
func (p *Product) SnapshotPrice() decimal.Decimal {
	return p.FinalPrice().Round(2)
}

// GetUserID implements the Ownable interface: the supplier owns the product.
func (p *Product) GetUserID() uint {
	if p.SupplierID == nil {
		return 0
	}
	return *p.SupplierID
}

// IsListed reports whether the product appears in the public catalog.
func (p *Product) IsListed() bool {
	return p.State == ProductActive && p.Sellable
}
