package models

import "time"

// Favorite pairs a customer with a product. The pair is unique at the storage layer.
type Favorite struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	CustomerID uint      `gorm:"not null;uniqueIndex:idx_favorites_customer_product" json:"customer_id"`
	ProductID  uint      `gorm:"not null;uniqueIndex:idx_favorites_customer_product" json:"product_id"`
	Product    *Product  `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	AddedAt    time.Time `gorm:"not null" json:"added_at"`
}

// GetUserID implements the Ownable interface.
func (f *Favorite) GetUserID() uint {
	return f.CustomerID
}
