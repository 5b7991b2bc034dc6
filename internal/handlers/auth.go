package handlers

import (
	"net/http"

	"github.com/mycoll/marketplace/auth"
	"github.com/mycoll/marketplace/httpx"
	"github.com/mycoll/marketplace/internal/identity"
)

type AuthHandler struct {
	svc    *identity.Service
	signer *auth.Signer
}

func NewAuthHandler(svc *identity.Service, signer *auth.Signer) *AuthHandler {
	return &AuthHandler{svc: svc, signer: signer}
}

// Register creates a pending customer account. No session is opened: the
// account must be approved first.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var in identity.RegisterInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		fail(w, r, err)
		return
	}
	u, err := h.svc.Register(r.Context(), in)
	if err != nil {
		fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, u)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		fail(w, r, err)
		return
	}
	s, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		fail(w, r, err)
		return
	}
	h.signer.SetCookie(w, s.Token)
	httpx.JSON(w, http.StatusOK, s)
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	s, err := h.svc.Refresh(r.Context(), userID(r))
	if err != nil {
		fail(w, r, err)
		return
	}
	h.signer.SetCookie(w, s.Token)
	httpx.JSON(w, http.StatusOK, s)
}

// Logout clears the session cookie. Bearer tokens stay valid until they expire.
func (h *AuthHandler) Logout(w http.ResponseWriter, _ *http.Request) {
	auth.ClearCookie(w)
	httpx.NoContent(w)
}

type forgotRequest struct {
	Email string `json:"email"`
}

func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		fail(w, r, err)
		return
	}
	h.svc.ForgotPassword(r.Context(), req.Email)
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "if the address is registered, reset instructions were sent"})
}

func (h *AuthHandler) Info(w http.ResponseWriter, r *http.Request) {
	info, err := h.svc.Info(r.Context(), userID(r))
	if err != nil {
		fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, info)
}

func (h *AuthHandler) UpdateInfo(w http.ResponseWriter, r *http.Request) {
	var in identity.InfoInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		fail(w, r, err)
		return
	}
	info, err := h.svc.UpdateInfo(r.Context(), userID(r), in)
	if err != nil {
		fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, info)
}

type passwordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req passwordRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		fail(w, r, err)
		return
	}
	if err := h.svc.ChangePassword(r.Context(), userID(r), req.CurrentPassword, req.NewPassword); err != nil {
		fail(w, r, err)
		return
	}
	httpx.NoContent(w)
}
