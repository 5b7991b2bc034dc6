package catalog

import (
	"slices"

	"github.com/mycoll/marketplace/internal/models"
)

// Arena is an in-memory index of the category tree. Nodes live in one slice
// and refer to each other by category id, so walking the tree never chases
// pointers between records.
type Arena struct {
	nodes []arenaNode
	index map[uint]int
}

type arenaNode struct {
	id       uint
	name     string
	parent   uint // 0 for roots
	children []uint
}

// NewArena indexes cats. A parent id that is not among cats makes its child a root.
func NewArena(cats []models.Category) *Arena {
	a := &Arena{nodes: make([]arenaNode, 0, len(cats)), index: make(map[uint]int, len(cats))}
	for _, c := range cats {
		n := arenaNode{id: c.ID, name: c.Name}
		if c.ParentID != nil {
			n.parent = *c.ParentID
		}
		a.index[c.ID] = len(a.nodes)
		a.nodes = append(a.nodes, n)
	}
	for i := range a.nodes {
		p := a.nodes[i].parent
		if j, ok := a.index[p]; ok {
			a.nodes[j].children = append(a.nodes[j].children, a.nodes[i].id)
		} else {
			a.nodes[i].parent = 0
		}
	}
	return a
}

// Len is the number of indexed categories.
func (a *Arena) Len() int { return len(a.nodes) }

// Has reports whether id is indexed.
func (a *Arena) Has(id uint) bool {
	_, ok := a.index[id]
	return ok
}

// Parent returns the parent id of id, 0 for roots and unknown ids.
func (a *Arena) Parent(id uint) uint {
	if i, ok := a.index[id]; ok {
		return a.nodes[i].parent
	}
	return 0
}

// Children returns the ids of the immediate children of id.
func (a *Arena) Children(id uint) []uint {
	if i, ok := a.index[id]; ok {
		return slices.Clone(a.nodes[i].children)
	}
	return nil
}

// Roots returns the ids of all top-level categories.
func (a *Arena) Roots() []uint {
	var out []uint
	for _, n := range a.nodes {
		if n.parent == 0 {
			out = append(out, n.id)
		}
	}
	return out
}

// IsDescendant reports whether id sits strictly below ancestor.
func (a *Arena) IsDescendant(id, ancestor uint) bool {
	// The walk is bounded by the node count so a corrupted store cannot loop.
	cur := a.Parent(id)
	for steps := 0; cur != 0 && steps <= len(a.nodes); steps++ {
		if cur == ancestor {
			return true
		}
		cur = a.Parent(cur)
	}
	return false
}

// CheckParent validates making parent the parent of id. id is 0 for a
// category that does not exist yet; parent 0 means "make it a root".
func (a *Arena) CheckParent(id, parent uint) error {
	if parent == 0 {
		return nil
	}
	if !a.Has(parent) {
		return ErrParentNotFound
	}
	if id == 0 {
		return nil
	}
	if parent == id || a.IsDescendant(parent, id) {
		return ErrCategoryCycle
	}
	return nil
}
