package handlers

import (
	"net/http"

	"github.com/mycoll/marketplace/httpx"
	"github.com/mycoll/marketplace/internal/orders"
)

type OrderHandler struct {
	svc *orders.Service
}

func NewOrderHandler(svc *orders.Service) *OrderHandler {
	return &OrderHandler{svc: svc}
}

type checkoutRequest struct {
	Lines []orders.LineRequest `json:"lines"`
}

// Create places an order for the calling customer.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		fail(w, r, err)
		return
	}
	summary, err := h.svc.Create(r.Context(), actor(r).UserID, req.Lines)
	if err != nil {
		fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, summary)
}

func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.List(r.Context(), actor(r))
	if err != nil {
		fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		fail(w, r, err)
		return
	}
	o, err := h.svc.Get(r.Context(), actor(r), id)
	if err != nil {
		fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, o)
}

// Pay confirms payment and decrements stock.
func (h *OrderHandler) Pay(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		fail(w, r, err)
		return
	}
	state, err := h.svc.Pay(r.Context(), actor(r), id)
	if err != nil {
		fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"state": state})
}

type stateRequest struct {
	State string `json:"state"`
}

// SetState is the administrative override; it never touches stock.
func (h *OrderHandler) SetState(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		fail(w, r, err)
		return
	}
	var req stateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		fail(w, r, err)
		return
	}
	o, err := h.svc.SetState(r.Context(), id, req.State)
	if err != nil {
		fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"id": o.ID, "state": o.State})
}

func (h *OrderHandler) Delete(w http.ResponseWriter, r *http.Request) {
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
