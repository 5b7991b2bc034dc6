package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order states driven by checkout and payment. Administrators may set any
// other free-form state.
const (
	OrderPending = "Pending"
	OrderPaid    = "Paid"
)

// Order is a customer's checkout record. Total is fixed at creation.
// Implements the Ownable interface for ownership-based authorization.
type Order struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"updated_at"`

	PlacedAt   time.Time       `gorm:"not null;index" json:"placed_at"`
	CustomerID uint            `gorm:"index;not null" json:"customer_id"`
	Customer   *User           `gorm:"foreignKey:CustomerID" json:"-"`
	Total      decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"total"`
	State      string          `gorm:"size:20;not null;index" json:"state"`

	Lines []OrderLine `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"lines,omitempty"`
}

// GetUserID implements the Ownable interface for authorization.
func (o *Order) GetUserID() uint {
	return o.CustomerID
}

// IsPending returns true while the order awaits payment.
func (o *Order) IsPending() bool {
	return o.State == OrderPending
}

// LinesTotal sums unit price × quantity over the lines.
func (o *Order) LinesTotal() decimal.Decimal {
	total := decimal.Zero
	for _, l := range o.Lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

// OrderLine is one product/quantity/frozen-price entry within an order.
// UnitPrice is captured at checkout and never re-read from the product.
type OrderLine struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"-"`

	OrderID   uint            `gorm:"index;not null" json:"order_id"`
	ProductID uint            `gorm:"index;not null" json:"product_id"`
	Product   *Product        `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	Quantity  int             `gorm:"not null;check:chk_order_lines_quantity,quantity > 0" json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"unit_price"`
}

// Subtotal returns unit price × quantity.
func (l OrderLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// OrderSummary is the checkout receipt: no line detail.
type OrderSummary struct {
	ID       uint            `json:"id"`
	PlacedAt time.Time       `json:"placed_at"`
	Total    decimal.Decimal `json:"total"`
	State    string          `json:"state"`
}

// Summary projects the order onto its receipt view.
func (o *Order) Summary() OrderSummary {
	return OrderSummary{ID: o.ID, PlacedAt: o.PlacedAt, Total: o.Total, State: o.State}
}
