package catalog

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/mycoll/marketplace/internal/logging"
	"github.com/mycoll/marketplace/internal/models"
	"github.com/mycoll/marketplace/validation"
)

// CategoryInput carries the writable fields of a category.
type CategoryInput struct {
	Name      string `json:"name"`
	ParentID  *uint  `json:"parent_id"`
	SortOrder *int   `json:"sort_order"`
	ImageURL  string `json:"image_url"`
}

func (in CategoryInput) validate() error {
	v := validation.Violations{}
	validation.Required("name", in.Name, v)
	validation.MaxLen("name", in.Name, 100, v)
	validation.MaxLen("image_url", in.ImageURL, 500, v)
	return v.Err()
}

// CategoryService manages the category tree.
type CategoryService struct {
	db *gorm.DB
}

func NewCategoryService(db *gorm.DB) *CategoryService {
	return &CategoryService{db: db}
}

// Tree returns the top-level categories with their immediate children, both
// levels ordered by sort order then name.
func (s *CategoryService) Tree(ctx context.Context) ([]models.Category, error) {
	var cats []models.Category
	if err := s.db.WithContext(ctx).Order("sort_order, name").Find(&cats).Error; err != nil {
		return nil, fmt.Errorf("load category tree: %w", err)
	}
	byID := make(map[uint]models.Category, len(cats))
	for _, c := range cats {
		byID[c.ID] = c
	}
	arena := NewArena(cats)
	roots := make([]models.Category, 0, len(arena.Roots()))
	for _, id := range arena.Roots() {
		root := byID[id]
		for _, child := range arena.Children(id) {
			root.Children = append(root.Children, byID[child])
		}
		roots = append(roots, root)
	}
	logging.FromContext(ctx).Debug("category_tree_loaded", zap.Int("categories", arena.Len()), zap.Int("roots", len(roots)))
	return roots, nil
}

// List returns every category, flat and sorted by name.
func (s *CategoryService) List(ctx context.Context) ([]models.Category, error) {
	var cats []models.Category
	if err := s.db.WithContext(ctx).Order("name").Find(&cats).Error; err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return cats, nil
}

// Get returns one category with its immediate children.
func (s *CategoryService) Get(ctx context.Context, id uint) (*models.Category, error) {
	var c models.Category
	err := s.db.WithContext(ctx).
		Preload("Children", func(tx *gorm.DB) *gorm.DB { return tx.Order("sort_order, name") }).
		First(&c, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCategoryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get category %d: %w", id, err)
	}
	return &c, nil
}

func loadArena(tx *gorm.DB) (*Arena, error) {
	var cats []models.Category
	if err := tx.Select("id", "name", "parent_id").Find(&cats).Error; err != nil {
		return nil, fmt.Errorf("load categories: %w", err)
	}
	return NewArena(cats), nil
}

// Create adds a category under an optional parent.
func (s *CategoryService) Create(ctx context.Context, in CategoryInput) (*models.Category, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	c := models.Category{Name: in.Name, ParentID: in.ParentID, SortOrder: in.SortOrder, ImageURL: in.ImageURL}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		arena, err := loadArena(tx)
		if err != nil {
			return err
		}
		if err := arena.CheckParent(0, deref(in.ParentID)); err != nil {
			return err
		}
		return tx.Create(&c).Error
	})
	if err != nil {
		return nil, err
	}
	logging.FromContext(ctx).Info("category_created", zap.Uint("category_id", c.ID))
	return &c, nil
}

// Update replaces a category's fields. Reparenting under itself or one of
// its descendants is rejected.
func (s *CategoryService) Update(ctx context.Context, id uint, in CategoryInput) (*models.Category, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	var c models.Category
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&c, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCategoryNotFound
			}
			return err
		}
		arena, err := loadArena(tx)
		if err != nil {
			return err
		}
		if err := arena.CheckParent(id, deref(in.ParentID)); err != nil {
			return err
		}
		c.Name, c.ParentID, c.SortOrder, c.ImageURL = in.Name, in.ParentID, in.SortOrder, in.ImageURL
		return tx.Model(&c).Updates(map[string]any{
			"name": in.Name, "parent_id": in.ParentID, "sort_order": in.SortOrder, "image_url": in.ImageURL,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Delete removes a category that no product and no child category references.
func (s *CategoryService) Delete(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var c models.Category
		if err := tx.First(&c, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCategoryNotFound
			}
			return err
		}
		var n int64
		if err := tx.Model(&models.Product{}).Where("category_id = ?", id).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return ErrCategoryInUse.Withf("%d product(s)", n)
		}
		if err := tx.Model(&models.Category{}).Where("parent_id = ?", id).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return ErrCategoryHasChildren.Withf("%d child(ren)", n)
		}
		return tx.Delete(&c).Error
	})
}

func deref(p *uint) uint {
	if p == nil {
		return 0
	}
	return *p
}
