package models

import "time"

// Category is a node of the catalog tree. A nil ParentID marks a root.
type Category struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`

	Name      string `gorm:"size:100;not null" json:"name"`
	SortOrder *int   `json:"sort_order,omitempty"`
	ImageURL  string `gorm:"size:500" json:"image_url,omitempty"`

	ParentID *uint      `gorm:"index" json:"parent_id,omitempty"`
	Children []Category `gorm:"foreignKey:ParentID" json:"children,omitempty"`
}
