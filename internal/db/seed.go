package db

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mycoll/marketplace/internal/models"
)

var roleDescriptions = map[models.RoleName]string{
	models.RoleAdmin:    "Full platform administration",
	models.RoleCustomer: "Buys products and keeps favorites",
	models.RoleSupplier: "Lists and manages own products",
	models.RoleEmployee: "Approves catalog listings",
}

// Seed inserts the fixed roles. It is idempotent.
func Seed(ctx context.Context, conn *gorm.DB) error {
	for _, name := range models.RoleNames() {
		role := models.Role{Name: string(name), Description: roleDescriptions[name]}
		err := conn.WithContext(ctx).
			Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).
			Create(&role).Error
		if err != nil {
			return fmt.Errorf("seed role %s: %w", name, err)
		}
	}
	return nil
}
