package policy

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/mycoll/marketplace/gate"
	"github.com/mycoll/marketplace/internal/models"
)

// DBResolver loads principals from the users table with their roles.
type DBResolver struct {
	DB *gorm.DB
}

func NewDBResolver(db *gorm.DB) *DBResolver {
	return &DBResolver{DB: db}
}

// Resolve returns nil, nil for users that do not exist.
func (r *DBResolver) Resolve(ctx context.Context, userID uint) (*gate.Principal, error) {
	var user models.User
	err := r.DB.WithContext(ctx).Preload("Roles").First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	roles := make([]string, 0, len(user.Roles))
	for _, name := range user.RoleNames() {
		roles = append(roles, string(name))
	}
	return &gate.Principal{UserID: user.ID, Roles: roles, Active: user.IsActive()}, nil
}
