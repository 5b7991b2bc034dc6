package models

import "time"

// RoleName identifies one of the fixed marketplace roles.
type RoleName string

const (
	RoleAdmin    RoleName = "Administrador"
	RoleCustomer RoleName = "Cliente"
	RoleSupplier RoleName = "Fornecedor"
	RoleEmployee RoleName = "Funcionario"
)

// RoleNames lists every role the system seeds.
func RoleNames() []RoleName {
	return []RoleName{RoleAdmin, RoleCustomer, RoleSupplier, RoleEmployee}
}

// Role groups users for authorization. Users may hold several roles.
type Role struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time `json:"-"`
	UpdatedAt   time.Time `json:"-"`
	Name        string    `gorm:"uniqueIndex;size:50;not null" json:"name"`
	Description string    `gorm:"size:200" json:"description,omitempty"`
}

// Valid reports whether n is one of the fixed roles.
func (n RoleName) Valid() bool {
	for _, r := range RoleNames() {
		if r == n {
			return true
		}
	}
	return false
}
