package catalog

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mycoll/marketplace/internal/models"
)

func ptr(v uint) *uint { return &v }

// sampleArena holds two roots: 1 (children 2 and 3, grandchild 4 under 2) and 5.
func sampleArena() *Arena {
	return NewArena([]models.Category{
		{ID: 1, Name: "Coins"},
		{ID: 2, Name: "Euro", ParentID: ptr(1)},
		{ID: 3, Name: "Escudo", ParentID: ptr(1)},
		{ID: 4, Name: "Commemorative", ParentID: ptr(2)},
		{ID: 5, Name: "Stamps"},
	})
}

func TestArenaStructure(t *testing.T) {
	a := sampleArena()

	assert.Equal(t, 5, a.Len())
	assert.ElementsMatch(t, []uint{1, 5}, a.Roots())
	assert.ElementsMatch(t, []uint{2, 3}, a.Children(1))
	assert.Equal(t, uint(2), a.Parent(4))
	assert.Equal(t, uint(0), a.Parent(1))
	assert.True(t, a.IsDescendant(4, 1))
	assert.False(t, a.IsDescendant(1, 4))
	assert.False(t, a.IsDescendant(5, 1))
}

func TestArenaOrphanBecomesRoot(t *testing.T) {
	a := NewArena([]models.Category{{ID: 7, ParentID: ptr(99)}})
	assert.Equal(t, []uint{7}, a.Roots())
}

func TestArenaCheckParent(t *testing.T) {
	a := sampleArena()
	tests := []struct {
		name       string
		id, parent uint
		want       error
	}{
		{"new root", 0, 0, nil},
		{"new child", 0, 2, nil},
		{"missing parent", 0, 42, ErrParentNotFound},
		{"self parent", 2, 2, ErrCategoryCycle},
		{"descendant as parent", 1, 4, ErrCategoryCycle},
		{"move to sibling subtree", 3, 2, nil},
		{"move under other root", 2, 5, nil},
		{"detach to root", 4, 0, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := a.CheckParent(tt.id, tt.parent)
			if tt.want == nil {
				assert.NoError(t, err)
			} else {
				assert.True(t, errors.Is(err, tt.want), "got %v", err)
			}
		})
	}
}

func TestArenaCorruptCycleTerminates(t *testing.T) {
	a := NewArena([]models.Category{{ID: 1, ParentID: ptr(2)}, {ID: 2, ParentID: ptr(1)}})
	assert.False(t, a.IsDescendant(1, 3))
}
