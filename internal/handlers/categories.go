package handlers

import (
	"net/http"

	"github.com/mycoll/marketplace/httpx"
	"github.com/mycoll/marketplace/internal/catalog"
)

type CategoryHandler struct {
	svc *catalog.CategoryService
}

func NewCategoryHandler(svc *catalog.CategoryService) *CategoryHandler {
	return &CategoryHandler{svc: svc}
}

func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	cats, err := h.svc.List(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, cats)
}

// Tree returns root categories with their direct children.
func (h *CategoryHandler) Tree(w http.ResponseWriter, r *http.Request) {
	roots, err := h.svc.Tree(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, roots)
}

func (h *CategoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		fail(w, r, err)
		return
	}
	c, err := h.svc.Get(r.Context(), id)
	if err != nil {
		fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in catalog.CategoryInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		fail(w, r, err)
		return
	}
	c, err := h.svc.Create(r.Context(), in)
	if err != nil {
		fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, c)
}

func (h *CategoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		fail(w, r, err)
		return
	}
	var in catalog.CategoryInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		fail(w, r, err)
		return
	}
	if _, err := h.svc.Update(r.Context(), id, in); err != nil {
		fail(w, r, err)
		return
	}
	httpx.NoContent(w)
}

func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		fail(w, r, err)
		return
	}
	if err := h.svc.Delete(r.Context(), id); err != nil {
		fail(w, r, err)
		return
	}
	httpx.NoContent(w)
}
