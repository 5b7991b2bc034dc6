package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/mycoll/marketplace/gate"
	"github.com/mycoll/marketplace/internal/logging"
	"github.com/mycoll/marketplace/internal/models"
	"github.com/mycoll/marketplace/validation"
)

var maxMargin = decimal.NewFromInt(10)

// ProductInput carries the supplier-editable fields of a product.
type ProductInput struct {
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	BasePrice    decimal.Decimal `json:"base_price"`
	ProfitMargin decimal.Decimal `json:"profit_margin"`
	Stock        int             `json:"stock"`
	CategoryID   uint            `json:"category_id"`
	Sellable     bool            `json:"sellable"`
	// ImageURL is set from an upload, never from the request body.
	ImageURL string `json:"-"`
}

func (in ProductInput) validate() error {
	v := validation.Violations{}
	validation.Required("name", in.Name, v)
	validation.MaxLen("name", in.Name, 255, v)
	validation.PositiveDecimal("base_price", in.BasePrice, v)
	validation.RangeDecimal("profit_margin", in.ProfitMargin, decimal.Zero, maxMargin, v)
	validation.NonNegativeInt("stock", in.Stock, v)
	if in.CategoryID == 0 {
		v["category_id"] = "required"
	}
	return v.Err()
}

// SearchQuery filters the public catalog. Zero values disable a filter.
type SearchQuery struct {
	Term       string
	CategoryID uint
}

// DeleteResult tells whether a delete was downgraded to an inactivation
// because the product already appears on orders.
type DeleteResult struct {
	Inactivated bool `json:"inactivated"`
}

// ProductService manages catalog products.
type ProductService struct {
	db *gorm.DB
}

func NewProductService(db *gorm.DB) *ProductService {
	return &ProductService{db: db}
}

// Search lists active, sellable products matching q.
func (s *ProductService) Search(ctx context.Context, q SearchQuery) ([]models.Product, error) {
	tx := s.db.WithContext(ctx).
		Preload("Category").
		Where("state = ? AND sellable = ?", models.ProductActive, true)
	if term := strings.TrimSpace(q.Term); term != "" {
		like := "%" + strings.ToLower(term) + "%"
		tx = tx.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", like, like)
	}
	if q.CategoryID > 0 {
		tx = tx.Where("category_id = ?", q.CategoryID)
	}
	var out []models.Product
	if err := tx.Order("name").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("search products: %w", err)
	}
	return out, nil
}

// Get returns a product with its category.
func (s *ProductService) Get(ctx context.Context, id uint) (*models.Product, error) {
	return findProduct(s.db.WithContext(ctx).Preload("Category"), id)
}

func findProduct(tx *gorm.DB, id uint) (*models.Product, error) {
	var p models.Product
	err := tx.First(&p, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get product %d: %w", id, err)
	}
	return &p, nil
}

// Mine lists the actor's own products, or every product for unrestricted actors.
func (s *ProductService) Mine(ctx context.Context, actor gate.Actor) ([]models.Product, error) {
	tx := s.db.WithContext(ctx).Preload("Category")
	if !actor.Unrestricted {
		tx = tx.Where("supplier_id = ?", actor.UserID)
	}
	var out []models.Product
	if err := tx.Order("id DESC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list own products: %w", err)
	}
	return out, nil
}

// Create lists a new product owned by the actor. New products always await approval.
func (s *ProductService) Create(ctx context.Context, actor gate.Actor, in ProductInput) (*models.Product, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	supplier := actor.UserID
	p := models.Product{
		Name:         in.Name,
		Description:  in.Description,
		BasePrice:    in.BasePrice,
		ProfitMargin: in.ProfitMargin,
		Stock:        in.Stock,
		Sellable:     in.Sellable,
		State:        models.ProductPending,
		ImageURL:     in.ImageURL,
		CategoryID:   in.CategoryID,
		SupplierID:   &supplier,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireCategory(tx, in.CategoryID); err != nil {
			return err
		}
		return tx.Create(&p).Error
	})
	if err != nil {
		return nil, err
	}
	logging.FromContext(ctx).Info("product_created", zap.Uint("product_id", p.ID), zap.Uint("supplier_id", supplier))
	return &p, nil
}

// Update rewrites a product's fields and sends it back for approval.
// An empty ImageURL keeps the current image.
func (s *ProductService) Update(ctx context.Context, actor gate.Actor, id uint, in ProductInput) error {
	if err := in.validate(); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := findProduct(tx, id)
		if err != nil {
			return err
		}
		if !actor.Owns(p) {
			return ErrNotProductOwner
		}
		if err := requireCategory(tx, in.CategoryID); err != nil {
			return err
		}
		fields := map[string]any{
			"name":          in.Name,
			"description":   in.Description,
			"base_price":    in.BasePrice,
			"profit_margin": in.ProfitMargin,
			"stock":         in.Stock,
			"category_id":   in.CategoryID,
			"sellable":      in.Sellable,
			"state":         models.ProductPending,
		}
		if in.ImageURL != "" {
			fields["image_url"] = in.ImageURL
		}
		return tx.Model(p).Updates(fields).Error
	})
}

// Delete removes a product, or marks it Inactive when order lines reference it.
func (s *ProductService) Delete(ctx context.Context, actor gate.Actor, id uint) (DeleteResult, error) {
	var res DeleteResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := findProduct(tx, id)
		if err != nil {
			return err
		}
		if !actor.Owns(p) {
			return ErrNotProductOwner
		}
		var sold int64
		if err := tx.Model(&models.OrderLine{}).Where("product_id = ?", id).Count(&sold).Error; err != nil {
			return err
		}
		if sold > 0 {
			res.Inactivated = true
			return tx.Model(p).Update("state", models.ProductInactive).Error
		}
		if err := tx.Where("product_id = ?", id).Delete(&models.Favorite{}).Error; err != nil {
			return err
		}
		return tx.Delete(p).Error
	})
	if err != nil {
		return DeleteResult{}, err
	}
	logging.FromContext(ctx).Info("product_deleted", zap.Uint("product_id", id), zap.Bool("inactivated", res.Inactivated))
	return res, nil
}

// SetState moves a product through its approval lifecycle.
func (s *ProductService) SetState(ctx context.Context, id uint, state models.ProductState) (*models.Product, error) {
	v := validation.Violations{}
	validation.OneOf("state", string(state), models.ProductStates(), v)
	if err := v.Err(); err != nil {
		return nil, err
	}
	var p *models.Product
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if p, err = findProduct(tx, id); err != nil {
			return err
		}
		if err := tx.Model(p).Update("state", state).Error; err != nil {
			return err
		}
		p.State = state
		return nil
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func requireCategory(tx *gorm.DB, id uint) error {
	var n int64
	if err := tx.Model(&models.Category{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return validation.Violations{"category_id": "not_found"}.Err()
	}
	return nil
}
