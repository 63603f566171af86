package handlers

import (
	"net/http"

	"github.com/diagnosis/vms/internal/domain"
	"github.com/diagnosis/vms/internal/http/middleware"
	"github.com/diagnosis/vms/internal/http/response"
)

func (h *Handlers) login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := h.auth.Login(r.Context(), &req)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handlers) profile(w http.ResponseWriter, r *http.Request) {
	admin, err := h.auth.Profile(r.Context(), middleware.Admin(r).ID)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, admin)
}

func (h *Handlers) updateProfile(w http.ResponseWriter, r *http.Request) {
	var req domain.UpdateProfileRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	admin, err := h.auth.UpdateProfile(r.Context(), middleware.Admin(r).ID, &req)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, admin)
}

func (h *Handlers) changePassword(w http.ResponseWriter, r *http.Request) {
	var req domain.ChangePasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.auth.ChangePassword(r.Context(), middleware.Admin(r).ID, &req); err != nil {
		response.FromError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Password updated successfully")
}

// Tokens are stateless; the client drops its copy.
func (h *Handlers) logout(w http.ResponseWriter, r *http.Request) {
	writeMessage(w, http.StatusOK, "Logged out successfully")
}
