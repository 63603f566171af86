package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/diagnosis/vms/internal/http/middleware"
	"github.com/diagnosis/vms/internal/http/response"
	"github.com/diagnosis/vms/internal/service"
)

type Handlers struct {
	visitors    service.VisitorService
	resolver    service.IdentifierResolver
	auth        service.AuthService
	admins      service.AdminService
	emergencies service.EmergencyService
	demoMode    bool
}

func New(
	visitors service.VisitorService,
	resolver service.IdentifierResolver,
	auth service.AuthService,
	admins service.AdminService,
	emergencies service.EmergencyService,
	demoMode bool,
) *Handlers {
	return &Handlers{
		visitors:    visitors,
		resolver:    resolver,
		auth:        auth,
		admins:      admins,
		emergencies: emergencies,
		demoMode:    demoMode,
	}
}

// Routes mounts the API under /api. loginLimit wraps the login endpoint and may be nil.
func (h *Handlers) Routes(r chi.Router, loginLimit func(http.Handler) http.Handler) {
	requireJWT := middleware.RequireJWT(h.auth)
	manageVisitors := middleware.RequirePermission("canManageVisitors", middleware.CanManageVisitors)
	viewReports := middleware.RequirePermission("canViewReports", middleware.CanViewReports)
	manageAdmins := middleware.RequirePermission("canManageAdmins", middleware.CanManageAdmins)

	r.Get("/api/demo-status", h.demoStatus)

	r.Route("/api/auth", func(r chi.Router) {
		if loginLimit != nil {
			r.With(loginLimit).Post("/login", h.login)
		} else {
			r.Post("/login", h.login)
		}
		r.Group(func(r chi.Router) {
			r.Use(requireJWT)
			r.Get("/profile", h.profile)
			r.Put("/profile", h.updateProfile)
			r.Put("/change-password", h.changePassword)
			r.Post("/logout", h.logout)
		})
	})

	r.Route("/api/visitors", func(r chi.Router) {
		r.Use(requireJWT)
		r.Get("/", h.listVisitors)
		r.Get("/find", h.findVisitor)
		r.Get("/current/active", h.activeVisitors)
		r.Get("/current/overdue", h.overdueVisitors)
		r.With(viewReports).Get("/stats/summary", h.visitorStats)
		r.Get("/{id}", h.getVisitor)
		r.Get("/{id}/history", h.visitorHistory)

		r.Group(func(r chi.Router) {
			r.Use(manageVisitors)
			r.Post("/", h.checkIn)
			r.Put("/{id}/checkout", h.checkout)
			r.Put("/{id}", h.editVisitor)
			r.Delete("/{id}", h.deleteVisitor)
		})
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(requireJWT)
		r.Get("/", h.listAdmins)
		r.Post("/", h.createAdmin)
		r.Post("/users", h.createUser)
		r.Get("/roles/list", h.listRoles)
		r.Get("/by-role/{role}", h.adminsByRole)
		r.With(manageAdmins).Get("/stats", h.adminStats)
		r.Put("/{id}", h.updateAdmin)
		r.Put("/{id}/deactivate", h.deactivateAdmin)
	})

	r.Route("/api/emergencies", func(r chi.Router) {
		// Kiosks report without signing in.
		r.Post("/", h.reportEmergency)
		r.Group(func(r chi.Router) {
			r.Use(requireJWT)
			r.Get("/", h.listEmergencies)
			r.Put("/{id}/resolve", h.resolveEmergency)
			r.Put("/{id}/cancel", h.cancelEmergency)
		})
	})
}

type demoFeatures struct {
	CanView   bool `json:"canView"`
	CanAdd    bool `json:"canAdd"`
	CanEdit   bool `json:"canEdit"`
	CanDelete bool `json:"canDelete"`
}

// demoStatus feeds the client's demo banner.
func (h *Handlers) demoStatus(w http.ResponseWriter, r *http.Request) {
	msg := "Running in full mode"
	if h.demoMode {
		msg = "Running in demo mode - read-only access"
	}
	writable := !h.demoMode
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"demoMode": h.demoMode,
		"message":  msg,
		"features": demoFeatures{CanView: true, CanAdd: writable, CanEdit: writable, CanDelete: writable},
	})
}

func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	response.WriteJSON(w, statusCode, data)
}

func writeMessage(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"message": message})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		response.BadRequest(w, "Invalid request body")
		return false
	}
	return true
}

func idParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(w, "Invalid id")
		return 0, false
	}
	return id, true
}

// queryList accepts both repeated parameters and comma separated values.
func queryList(r *http.Request, key string) []string {
	var out []string
	for _, v := range r.URL.Query()[key] {
		for _, part := range strings.Split(v, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

func queryInt(r *http.Request, key string) int {
	n, _ := strconv.Atoi(r.URL.Query().Get(key))
	return n
}

// queryDay parses YYYY-MM-DD as local midnight. RFC 3339 timestamps are accepted as is.
func queryDay(r *http.Request, key string) (*time.Time, bool, error) {
	v := strings.TrimSpace(r.URL.Query().Get(key))
	if v == "" {
		return nil, false, nil
	}
	if t, err := time.ParseInLocation("2006-01-02", v, time.Local); err == nil {
		return &t, true, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil, false, err
	}
	return &t, false, nil
}
