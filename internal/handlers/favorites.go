package handlers

import (
	"net/http"

	"github.com/mycoll/marketplace/httpx"
	"github.com/mycoll/marketplace/internal/favorites"
)

type FavoriteHandler struct {
	svc *favorites.Service
}

func NewFavoriteHandler(svc *favorites.Service) *FavoriteHandler {
	return &FavoriteHandler{svc: svc}
}

func (h *FavoriteHandler) List(w http.ResponseWriter, r *http.Request) {
	products, err := h.svc.List(r.Context(), actor(r).UserID)
	if err != nil {
		fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, products)
}

func (h *FavoriteHandler) IDs(w http.ResponseWriter, r *http.Request) {
	ids, err := h.svc.IDs(r.Context(), actor(r).UserID)
	if err != nil {
		fail(w, r, err)
		return
	}
	if ids == nil {
		ids = []uint{}
	}
	httpx.JSON(w, http.StatusOK, ids)
}

func (h *FavoriteHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	productID, err := httpx.PathID(r, "productId")
	if err != nil {
		fail(w, r, err)
		return
	}
	res, err := h.svc.Toggle(r.Context(), actor(r).UserID, productID)
	if err != nil {
		fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, res)
}
