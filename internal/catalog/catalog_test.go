package catalog_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mycoll/marketplace/gate"
	"github.com/mycoll/marketplace/internal/apperr"
	"github.com/mycoll/marketplace/internal/catalog"
	"github.com/mycoll/marketplace/internal/db/dbtest"
	"github.com/mycoll/marketplace/internal/models"
	"github.com/mycoll/marketplace/validation"
)

func newUser(t *testing.T, conn *gorm.DB, email string) *models.User {
	t.Helper()
	u := models.User{Email: email, Password: "x", AccountState: models.AccountActive}
	require.NoError(t, conn.Create(&u).Error)
	return &u
}

func newCategory(t *testing.T, svc *catalog.CategoryService, name string, parent *uint) *models.Category {
	t.Helper()
	c, err := svc.Create(context.Background(), catalog.CategoryInput{Name: name, ParentID: parent})
	require.NoError(t, err)
	return c
}

func productInput(categoryID uint) catalog.ProductInput {
	return catalog.ProductInput{
		Name:         "Silver Coin 1900",
		Description:  "Rare collectible",
		BasePrice:    decimal.RequireFromString("10.00"),
		ProfitMargin: decimal.RequireFromString("0.25"),
		Stock:        5,
		CategoryID:   categoryID,
		Sellable:     true,
	}
}

func TestCategoryTreeAndList(t *testing.T) {
	conn := dbtest.Open(t)
	svc := catalog.NewCategoryService(conn)

	coins := newCategory(t, svc, "Coins", nil)
	newCategory(t, svc, "Stamps", nil)
	euro := newCategory(t, svc, "Euro", &coins.ID)
	newCategory(t, svc, "Commemorative", &euro.ID)

	tree, err := svc.Tree(context.Background())
	require.NoError(t, err)
	require.Len(t, tree, 2)
	assert.Equal(t, "Coins", tree[0].Name)
	require.Len(t, tree[0].Children, 1)
	assert.Equal(t, "Euro", tree[0].Children[0].Name)
	assert.Empty(t, tree[0].Children[0].Children, "tree is one level deep")

	flat, err := svc.List(context.Background())
	require.NoError(t, err)
	var names []string
	for _, c := range flat {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"Coins", "Commemorative", "Euro", "Stamps"}, names)
}

func TestCategoryTreeFollowsSortOrder(t *testing.T) {
	conn := dbtest.Open(t)
	svc := catalog.NewCategoryService(conn)
	ctx := context.Background()
	order := func(n int) *int { return &n }

	b, err := svc.Create(ctx, catalog.CategoryInput{Name: "B", SortOrder: order(1)})
	require.NoError(t, err)
	a, err := svc.Create(ctx, catalog.CategoryInput{Name: "A", SortOrder: order(2)})
	require.NoError(t, err)
	_, err = svc.Create(ctx, catalog.CategoryInput{Name: "Z", ParentID: &b.ID, SortOrder: order(1)})
	require.NoError(t, err)
	_, err = svc.Create(ctx, catalog.CategoryInput{Name: "Y", ParentID: &b.ID, SortOrder: order(2)})
	require.NoError(t, err)

	tree, err := svc.Tree(ctx)
	require.NoError(t, err)
	require.Len(t, tree, 2)
	assert.Equal(t, b.ID, tree[0].ID)
	assert.Equal(t, a.ID, tree[1].ID)
	require.Len(t, tree[0].Children, 2)
	assert.Equal(t, "Z", tree[0].Children[0].Name)
	assert.Equal(t, "Y", tree[0].Children[1].Name)
	assert.Empty(t, tree[1].Children)
}

func TestCategoryUpdateRejectsCycle(t *testing.T) {
	conn := dbtest.Open(t)
	svc := catalog.NewCategoryService(conn)
	ctx := context.Background()

	root := newCategory(t, svc, "Coins", nil)
	child := newCategory(t, svc, "Euro", &root.ID)

	_, err := svc.Update(ctx, root.ID, catalog.CategoryInput{Name: "Coins", ParentID: &child.ID})
	assert.True(t, errors.Is(err, catalog.ErrCategoryCycle))
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = svc.Update(ctx, root.ID, catalog.CategoryInput{Name: "Coins", ParentID: &root.ID})
	assert.True(t, errors.Is(err, catalog.ErrCategoryCycle))

	updated, err := svc.Update(ctx, child.ID, catalog.CategoryInput{Name: "Euro coins"})
	require.NoError(t, err)
	assert.Nil(t, updated.ParentID)
	assert.Equal(t, "Euro coins", updated.Name)
}

func TestCategoryCreateValidation(t *testing.T) {
	conn := dbtest.Open(t)
	svc := catalog.NewCategoryService(conn)

	_, err := svc.Create(context.Background(), catalog.CategoryInput{})
	assert.True(t, errors.Is(err, validation.ErrFailed))

	missing := uint(404)
	_, err = svc.Create(context.Background(), catalog.CategoryInput{Name: "X", ParentID: &missing})
	assert.True(t, errors.Is(err, catalog.ErrParentNotFound))
}

func TestCategoryDelete(t *testing.T) {
	conn := dbtest.Open(t)
	cats := catalog.NewCategoryService(conn)
	products := catalog.NewProductService(conn)
	ctx := context.Background()
	supplier := newUser(t, conn, "s@test")

	used := newCategory(t, cats, "Coins", nil)
	_, err := products.Create(ctx, gate.Actor{UserID: supplier.ID}, productInput(used.ID))
	require.NoError(t, err)

	err = cats.Delete(ctx, used.ID)
	assert.True(t, errors.Is(err, catalog.ErrCategoryInUse))
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	parent := newCategory(t, cats, "Stamps", nil)
	newCategory(t, cats, "Europe", &parent.ID)
	assert.True(t, errors.Is(cats.Delete(ctx, parent.ID), catalog.ErrCategoryHasChildren))

	empty := newCategory(t, cats, "Medals", nil)
	require.NoError(t, cats.Delete(ctx, empty.ID))
	_, err = cats.Get(ctx, empty.ID)
	assert.True(t, errors.Is(err, catalog.ErrCategoryNotFound))

	assert.True(t, errors.Is(cats.Delete(ctx, 9999), catalog.ErrCategoryNotFound))
}

func TestProductLifecycle(t *testing.T) {
	conn := dbtest.Open(t)
	cats := catalog.NewCategoryService(conn)
	svc := catalog.NewProductService(conn)
	ctx := context.Background()

	supplier := newUser(t, conn, "s@test")
	other := newUser(t, conn, "o@test")
	cat := newCategory(t, cats, "Coins", nil)
	owner := gate.Actor{UserID: supplier.ID}

	p, err := svc.Create(ctx, owner, productInput(cat.ID))
	require.NoError(t, err)
	assert.Equal(t, models.ProductPending, p.State)
	assert.Equal(t, supplier.ID, p.GetUserID())

	// Pending products are not listed.
	found, err := svc.Search(ctx, catalog.SearchQuery{})
	require.NoError(t, err)
	assert.Empty(t, found)

	_, err = svc.SetState(ctx, p.ID, models.ProductActive)
	require.NoError(t, err)
	found, err = svc.Search(ctx, catalog.SearchQuery{Term: "silver", CategoryID: cat.ID})
	require.NoError(t, err)
	require.Len(t, found, 1)
	require.NotNil(t, found[0].Category)
	assert.Equal(t, "Coins", found[0].Category.Name)

	found, err = svc.Search(ctx, catalog.SearchQuery{Term: "gold"})
	require.NoError(t, err)
	assert.Empty(t, found)

	_, err = svc.SetState(ctx, p.ID, "Shiny")
	assert.True(t, errors.Is(err, validation.ErrFailed))

	// Foreign suppliers cannot edit; the owner can and the product returns to Pending.
	in := productInput(cat.ID)
	in.Stock = 0
	in.Sellable = false
	err = svc.Update(ctx, gate.Actor{UserID: other.ID}, p.ID, in)
	assert.True(t, errors.Is(err, catalog.ErrNotProductOwner))
	require.NoError(t, svc.Update(ctx, owner, p.ID, in))

	got, err := svc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Stock)
	assert.False(t, got.Sellable)
	assert.Equal(t, models.ProductPending, got.State)

	mine, err := svc.Mine(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, mine, 1)
	mine, err = svc.Mine(ctx, gate.Actor{UserID: other.ID})
	require.NoError(t, err)
	assert.Empty(t, mine)
	all, err := svc.Mine(ctx, gate.Actor{UserID: other.ID, Unrestricted: true})
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestProductValidation(t *testing.T) {
	conn := dbtest.Open(t)
	svc := catalog.NewProductService(conn)

	in := productInput(1)
	in.Name = ""
	in.BasePrice = decimal.Zero
	in.Stock = -1
	_, err := svc.Create(context.Background(), gate.Actor{UserID: 1}, in)
	e, ok := apperr.As(err)
	require.True(t, ok)
	v := e.Details.(validation.Violations)
	assert.Equal(t, "required", v["name"])
	assert.Equal(t, "must_be_positive", v["base_price"])
	assert.Equal(t, "must_not_be_negative", v["stock"])

	_, err = svc.Create(context.Background(), gate.Actor{UserID: 1}, productInput(77))
	assert.True(t, errors.Is(err, validation.ErrFailed), "unknown category")
}

func TestProductDeleteSoftWhenOrdered(t *testing.T) {
	conn := dbtest.Open(t)
	cats := catalog.NewCategoryService(conn)
	svc := catalog.NewProductService(conn)
	ctx := context.Background()

	supplier := newUser(t, conn, "s@test")
	customer := newUser(t, conn, "c@test")
	cat := newCategory(t, cats, "Coins", nil)
	owner := gate.Actor{UserID: supplier.ID}

	sold, err := svc.Create(ctx, owner, productInput(cat.ID))
	require.NoError(t, err)
	unsold, err := svc.Create(ctx, owner, productInput(cat.ID))
	require.NoError(t, err)

	order := models.Order{CustomerID: customer.ID, State: models.OrderPending, Total: decimal.RequireFromString("12.50"),
		Lines: []models.OrderLine{{ProductID: sold.ID, Quantity: 1, UnitPrice: decimal.RequireFromString("12.50")}}}
	require.NoError(t, conn.Create(&order).Error)

	_, err = svc.Delete(ctx, gate.Actor{UserID: customer.ID}, sold.ID)
	assert.True(t, errors.Is(err, catalog.ErrNotProductOwner))

	res, err := svc.Delete(ctx, owner, sold.ID)
	require.NoError(t, err)
	assert.True(t, res.Inactivated)
	got, err := svc.Get(ctx, sold.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ProductInactive, got.State)

	res, err = svc.Delete(ctx, gate.Actor{UserID: 999, Unrestricted: true}, unsold.ID)
	require.NoError(t, err)
	assert.False(t, res.Inactivated)
	_, err = svc.Get(ctx, unsold.ID)
	assert.True(t, errors.Is(err, catalog.ErrProductNotFound))
}
