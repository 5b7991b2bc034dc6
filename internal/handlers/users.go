package handlers

import (
	"net/http"

	"github.com/mycoll/marketplace/httpx"
	"github.com/mycoll/marketplace/internal/identity"
)

// UserAdminHandler lets administrators approve, suspend and re-role accounts.
// The identity service invalidates cached principals on every change.
type UserAdminHandler struct {
	svc *identity.Service
}

func NewUserAdminHandler(svc *identity.Service) *UserAdminHandler {
	return &UserAdminHandler{svc: svc}
}

func (h *UserAdminHandler) SetState(w http.ResponseWriter, r *http.Request) {
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
	info, err := h.svc.ChangeState(r.Context(), id, req.State)
	if err != nil {
		fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, info)
}

type rolesRequest struct {
	Roles []string `json:"roles"`
}

func (h *UserAdminHandler) SetRoles(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		fail(w, r, err)
		return
	}
	var req rolesRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		fail(w, r, err)
		return
	}
	info, err := h.svc.AssignRoles(r.Context(), id, req.Roles)
	if err != nil {
		fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, info)
}
