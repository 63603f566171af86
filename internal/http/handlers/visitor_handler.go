package handlers

import (
	"net/http"
	"strings"

	"github.com/diagnosis/vms/internal/domain"
	"github.com/diagnosis/vms/internal/http/response"
)

func (h *Handlers) checkIn(w http.ResponseWriter, r *http.Request) {
	var req domain.CheckInRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	v, err := h.visitors.CheckIn(r.Context(), &req)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, v)
}

func (h *Handlers) listVisitors(w http.ResponseWriter, r *http.Request) {
	f, err := visitorFilter(r)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	list, err := h.visitors.List(r.Context(), f)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func visitorFilter(r *http.Request) (domain.VisitorFilter, error) {
	f := domain.VisitorFilter{
		Page:      queryInt(r, "page"),
		Limit:     queryInt(r, "limit"),
		Companies: queryList(r, "visitorTypes"),
	}
	for _, s := range queryList(r, "status") {
		f.Statuses = append(f.Statuses, domain.VisitorStatus(s))
	}
	for _, s := range queryList(r, "securityLevels") {
		f.SecurityLevels = append(f.SecurityLevels, domain.SecurityLevel(s))
	}
	// Departments are recorded as the visit purpose.
	f.Purposes = append(queryList(r, "departments"), queryList(r, "purposes")...)

	startKey, endKey := "startDate", "endDate"
	if r.URL.Query().Get(startKey) == "" && r.URL.Query().Get(endKey) == "" {
		startKey, endKey = "date", "date"
	}
	from, _, err := queryDay(r, startKey)
	if err != nil {
		return f, domain.Validationf("invalid %s", startKey)
	}
	to, wholeDay, err := queryDay(r, endKey)
	if err != nil {
		return f, domain.Validationf("invalid %s", endKey)
	}
	if to != nil && wholeDay {
		end := to.AddDate(0, 0, 1)
		to = &end
	}
	f.From, f.To = from, to
	return f, nil
}

func (h *Handlers) findVisitor(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("id")
	if strings.TrimSpace(raw) == "" {
		response.BadRequest(w, "Identifier query parameter is missing.")
		return
	}
	v, err := h.resolver.Resolve(r.Context(), raw)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	if v == nil {
		response.NotFound(w, "Visitor not found.")
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *Handlers) activeVisitors(w http.ResponseWriter, r *http.Request) {
	rows, err := h.visitors.Active(r.Context())
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (h *Handlers) overdueVisitors(w http.ResponseWriter, r *http.Request) {
	rows, err := h.visitors.Overdue(r.Context())
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (h *Handlers) visitorStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.visitors.Stats(r.Context())
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handlers) getVisitor(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	v, err := h.visitors.Get(r.Context(), id)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *Handlers) visitorHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	rows, err := h.visitors.History(r.Context(), id)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (h *Handlers) checkout(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	v, err := h.visitors.Checkout(r.Context(), id)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *Handlers) editVisitor(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var patch domain.VisitorPatch
	if !decodeJSON(w, r, &patch) {
		return
	}
	v, err := h.visitors.Edit(r.Context(), id, &patch)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *Handlers) deleteVisitor(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	deleted, err := h.visitors.Delete(r.Context(), id)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	if !deleted {
		response.NotFound(w, "Visitor not found")
		return
	}
	writeMessage(w, http.StatusOK, "Visitor deleted successfully")
}
