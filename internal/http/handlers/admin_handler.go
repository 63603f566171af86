package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/diagnosis/vms/internal/domain"
	"github.com/diagnosis/vms/internal/http/middleware"
	"github.com/diagnosis/vms/internal/http/response"
)

func (h *Handlers) listAdmins(w http.ResponseWriter, r *http.Request) {
	admins, err := h.admins.List(r.Context(), middleware.Admin(r))
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, admins)
}

func (h *Handlers) createAdmin(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateAdminRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	admin, err := h.admins.CreateAdmin(r.Context(), middleware.Admin(r), &req)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, admin.ToAdminInfo())
}

func (h *Handlers) createUser(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateAdminRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	admin, err := h.admins.CreateUser(r.Context(), middleware.Admin(r), &req)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, admin.ToAdminInfo())
}

func (h *Handlers) updateAdmin(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var req domain.UpdateAdminRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	admin, err := h.admins.Update(r.Context(), middleware.Admin(r), id, &req)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, admin)
}

func (h *Handlers) deactivateAdmin(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	admin, err := h.admins.Deactivate(r.Context(), middleware.Admin(r), id)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, admin)
}

func (h *Handlers) listRoles(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, domain.Roles)
}

func (h *Handlers) adminsByRole(w http.ResponseWriter, r *http.Request) {
	admins, err := h.admins.ListByRole(r.Context(), domain.Role(chi.URLParam(r, "role")))
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, admins)
}

func (h *Handlers) adminStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.admins.Stats(r.Context())
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
