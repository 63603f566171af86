package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/diagnosis/vms/internal/domain"
	"github.com/diagnosis/vms/internal/http/middleware"
	"github.com/diagnosis/vms/internal/http/response"
)

func (h *Handlers) reportEmergency(w http.ResponseWriter, r *http.Request) {
	var req domain.ReportEmergencyRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	e, err := h.emergencies.Report(r.Context(), &req, nil)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

func (h *Handlers) listEmergencies(w http.ResponseWriter, r *http.Request) {
	f, err := emergencyFilter(r)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	list, err := h.emergencies.List(r.Context(), f)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func emergencyFilter(r *http.Request) (domain.EmergencyFilter, error) {
	q := r.URL.Query()
	f := domain.EmergencyFilter{
		Query: q.Get("q"),
		Page:  queryInt(r, "page"),
		Limit: queryInt(r, "limit"),
	}
	if v := strings.TrimSpace(q.Get("type")); v != "" {
		t := domain.EmergencyType(v)
		if !t.Valid() {
			return f, domain.Validationf("invalid type")
		}
		f.Type = &t
	}
	if v := strings.TrimSpace(q.Get("status")); v != "" {
		s := domain.EmergencyStatus(v)
		if !s.Valid() {
			return f, domain.Validationf("invalid status")
		}
		f.Status = &s
	}
	if v := strings.TrimSpace(q.Get("location")); v != "" {
		f.Location = &v
	}

	from, _, err := queryDay(r, "from")
	if err != nil {
		return f, domain.Validationf("invalid from")
	}
	to, wholeDay, err := queryDay(r, "to")
	if err != nil {
		return f, domain.Validationf("invalid to")
	}
	if to != nil && wholeDay {
		// to is inclusive; cover the whole day.
		end := to.AddDate(0, 0, 1).Add(-1)
		to = &end
	}
	f.From, f.To = from, to
	return f, nil
}

func (h *Handlers) resolveEmergency(w http.ResponseWriter, r *http.Request) {
	h.closeEmergency(w, r, h.emergencies.Resolve)
}

func (h *Handlers) cancelEmergency(w http.ResponseWriter, r *http.Request) {
	h.closeEmergency(w, r, h.emergencies.Cancel)
}

func (h *Handlers) closeEmergency(w http.ResponseWriter, r *http.Request,
	transition func(ctx context.Context, id int64, by *int64) (*domain.Emergency, error)) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	by := middleware.Admin(r).ID
	e, err := transition(r.Context(), id, &by)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"emergency": e,
	})
}
