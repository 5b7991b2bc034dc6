package models

import (
	"time"

	"gorm.io/gorm"
)

// AccountState gates login and purchase-affecting operations independently of roles.
type AccountState string

const (
	AccountActive    AccountState = "Ativo"
	AccountPending   AccountState = "Pendente"
	AccountSuspended AccountState = "Suspenso"
)

// AccountStates lists every accepted account state.
func AccountStates() []string {
	return []string{string(AccountActive), string(AccountPending), string(AccountSuspended)}
}

// User represents an authenticated user in the system.
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	Email     string         `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Name      string         `gorm:"size:255" json:"name,omitempty"`
	Password  string         `gorm:"size:255;not null" json:"-"` // Hashed, never exposed in JSON
	NIF       string         `gorm:"size:20" json:"nif,omitempty"`
	Address   string         `gorm:"size:500" json:"address,omitempty"`
	Phone     string         `gorm:"size:50" json:"phone,omitempty"`

	AccountState AccountState `gorm:"size:20;not null;index" json:"account_state"`

	// Roles is the set of role memberships, via the user_roles join table.
	Roles []Role `gorm:"many2many:user_roles;" json:"roles,omitempty"`
}

// IsActive reports whether the account may log in and purchase.
func (u *User) IsActive() bool {
	return u.AccountState == AccountActive
}

// HasRole reports membership of the named role.
func (u *User) HasRole(name RoleName) bool {
	for _, r := range u.Roles {
		if RoleName(r.Name) == name {
			return true
		}
	}
	return false
}

// RoleNames returns the names of all assigned roles.
func (u *User) RoleNames() []RoleName {
	out := make([]RoleName, 0, len(u.Roles))
	for _, r := range u.Roles {
		out = append(out, RoleName(r.Name))
	}
	return out
}

// PrimaryRole picks the most privileged role for display purposes.
func (u *User) PrimaryRole() RoleName {
	for _, name := range []RoleName{RoleAdmin, RoleEmployee, RoleSupplier, RoleCustomer} {
		if u.HasRole(name) {
			return name
		}
	}
	return RoleCustomer
}
