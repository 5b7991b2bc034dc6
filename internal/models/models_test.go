package models

import (
	"testing"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestProduct_GetUserID(t *testing.T) {
	supplier := uint(42)
	product := &Product{SupplierID: &supplier}
	if got := product.GetUserID(); got != 42 {
		t.Errorf("GetUserID() = %d, want 42", got)
	}
	if got := (&Product{}).GetUserID(); got != 0 {
		t.Errorf("GetUserID() without supplier = %d, want 0", got)
	}
}

func TestProduct_FinalPrice(t *testing.T) {
	tests := []struct {
		name   string
		base   string
		margin string
		want   string
	}{
		{"25% margin on 100", "100", "0.25", "125"},
		{"no margin", "10", "0", "10"},
		{"fractional", "19.99", "0.1", "21.989"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Product{BasePrice: d(tt.base), ProfitMargin: d(tt.margin)}
			if got := p.FinalPrice(); !got.Equal(d(tt.want)) {
				t.Errorf("FinalPrice() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestProduct_SnapshotPriceRoundsToCents(t *testing.T) {
	p := &Product{BasePrice: d("19.99"), ProfitMargin: d("0.1")}
	if got := p.SnapshotPrice(); !got.Equal(d("21.99")) {
		t.Errorf("SnapshotPrice() = %s, want 21.99", got)
	}
}

func TestProduct_IsListed(t *testing.T) {
	tests := []struct {
		name     string
		state    ProductState
		sellable bool
		want     bool
	}{
		{"active sellable", ProductActive, true, true},
		{"active collection only", ProductActive, false, false},
		{"pending", ProductPending, true, false},
		{"inactive", ProductInactive, true, false},
		{"sold", ProductSold, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Product{State: tt.state, Sellable: tt.sellable}
			if got := p.IsListed(); got != tt.want {
				t.Errorf("IsListed() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOrder_GetUserID(t *testing.T) {
	order := &Order{CustomerID: 456}
	if got := order.GetUserID(); got != 456 {
		t.Errorf("GetUserID() = %d, want 456", got)
	}
}

func TestOrder_LinesTotal(t *testing.T) {
	order := &Order{
		Lines: []OrderLine{
			{Quantity: 2, UnitPrice: d("10.00")}, // 20
			{Quantity: 1, UnitPrice: d("5.00")},  // 5
		},
	}
	if got := order.LinesTotal(); !got.Equal(d("25")) {
		t.Errorf("LinesTotal() = %s, want 25", got)
	}
}

func TestOrder_IsPending(t *testing.T) {
	if !(&Order{State: OrderPending}).IsPending() {
		t.Error("Pending order should report IsPending")
	}
	if (&Order{State: OrderPaid}).IsPending() {
		t.Error("Paid order should not report IsPending")
	}
}

func TestUser_Roles(t *testing.T) {
	u := &User{Roles: []Role{{Name: string(RoleCustomer)}, {Name: string(RoleSupplier)}}}
	if !u.HasRole(RoleSupplier) {
		t.Error("expected supplier role")
	}
	if u.HasRole(RoleAdmin) {
		t.Error("did not expect admin role")
	}
	if got := u.PrimaryRole(); got != RoleSupplier {
		t.Errorf("PrimaryRole() = %s, want %s", got, RoleSupplier)
	}
	if got := (&User{}).PrimaryRole(); got != RoleCustomer {
		t.Errorf("PrimaryRole() without roles = %s, want %s", got, RoleCustomer)
	}
}

func TestUser_IsActive(t *testing.T) {
	for state, want := range map[AccountState]bool{
		AccountActive:    true,
		AccountPending:   false,
		AccountSuspended: false,
	} {
		u := &User{AccountState: state}
		if got := u.IsActive(); got != want {
			t.Errorf("IsActive() for %s = %v, want %v", state, got, want)
		}
	}
}
