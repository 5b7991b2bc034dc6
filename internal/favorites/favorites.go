// Package favorites keeps each customer's bookmarked products.
package favorites

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mycoll/marketplace/internal/apperr"
	"github.com/mycoll/marketplace/internal/clock"
	"github.com/mycoll/marketplace/internal/logging"
	"github.com/mycoll/marketplace/internal/metrics"
	"github.com/mycoll/marketplace/internal/models"
)

// Toggle results.
const (
	Added   = "added"
	Removed = "removed"
)

var ErrProductNotFound = apperr.NotFound("product_not_found", "product does not exist")

// Result reports the state of the pair after a toggle.
type Result struct {
	Action     string `json:"action"`
	IsFavorite bool   `json:"is_favorite"`
}

type Service struct {
	db      *gorm.DB
	clock   clock.Clock
	metrics *metrics.Metrics
}

func NewService(db *gorm.DB, c clock.Clock, m *metrics.Metrics) *Service {
	return &Service{db: db, clock: c, metrics: m}
}

// Toggle adds productID to the customer's favorites, or removes it when
// already present. A concurrent duplicate insert counts as added.
func (s *Service) Toggle(ctx context.Context, customerID, productID uint) (Result, error) {
	var res Result
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.Product{}).Where("id = ?", productID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return ErrProductNotFound.Withf("product %d", productID)
		}

		del := tx.Where("customer_id = ? AND product_id = ?", customerID, productID).Delete(&models.Favorite{})
		if del.Error != nil {
			return del.Error
		}
		if del.RowsAffected > 0 {
			res = Result{Action: Removed}
			return nil
		}

		fav := models.Favorite{CustomerID: customerID, ProductID: productID, AddedAt: s.clock.Now()}
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "customer_id"}, {Name: "product_id"}},
			DoNothing: true,
		}).Create(&fav).Error
		if err != nil {
			return err
		}
		res = Result{Action: Added, IsFavorite: true}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrProductNotFound) {
			return Result{}, err
		}
		return Result{}, fmt.Errorf("toggle favorite: %w", err)
	}
	s.metrics.FavoriteToggled(res.Action)
	logging.FromContext(ctx).Debug("favorite_toggled",
		zap.Uint("customer_id", customerID), zap.Uint("product_id", productID), zap.String("action", res.Action))
	return res, nil
}

// List returns the customer's favorite products with their categories, most recent first.
func (s *Service) List(ctx context.Context, customerID uint) ([]models.Product, error) {
	var favs []models.Favorite
	err := s.db.WithContext(ctx).
		Preload("Product.Category").
		Where("customer_id = ?", customerID).
		Order("added_at DESC, id DESC").
		Find(&favs).Error
	if err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	out := make([]models.Product, 0, len(favs))
	for _, f := range favs {
		if f.Product != nil {
			out = append(out, *f.Product)
		}
	}
	return out, nil
}

// IDs returns the ids of the customer's favorite products.
func (s *Service) IDs(ctx context.Context, customerID uint) ([]uint, error) {
	ids := []uint{}
	err := s.db.WithContext(ctx).Model(&models.Favorite{}).
		Where("customer_id = ?", customerID).
		Order("product_id").
		Pluck("product_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("list favorite ids: %w", err)
	}
	return ids, nil
}
