package httpapi

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"estatehub.app/internal/estate"
)

func (a *API) listMaintenance(w http.ResponseWriter, r *http.Request) {
	q := queryOf(r)
	list, err := a.svc.Estate.ListMaintenance(r.Context(), actorOf(r), estate.MaintenanceFilter{
		Status:   estate.MaintenanceStatus(strings.ToLower(q.str("status"))),
		Priority: estate.Priority(strings.ToLower(q.str("priority"))),
		Page:     q.page(),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"requests": list.Items, "pagination": list.Pagination})
}

func (a *API) getMaintenance(w http.ResponseWriter, r *http.Request) {
	m, err := a.svc.Estate.GetMaintenance(r.Context(), actorOf(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"request": m})
}

func (a *API) createMaintenance(w http.ResponseWriter, r *http.Request) {
	var in estate.MaintenanceInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	m, err := a.svc.Estate.CreateMaintenance(r.Context(), actorOf(r), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	a.record(r, "maintenance.create", "maintenance_request", m.ID, map[string]any{
		"priority": m.Priority,
		"category": m.Category,
	})
	respond(w, http.StatusCreated, map[string]any{
		"request_id": m.ID,
		"request":    m,
		"message":    "Maintenance request submitted successfully",
	})
}

func (a *API) updateMaintenance(w http.ResponseWriter, r *http.Request) {
	var upd estate.MaintenanceUpdate
	if err := decodeJSON(r, &upd); err != nil {
		writeError(w, r, err)
		return
	}
	id := chi.URLParam(r, "id")
	m, err := a.svc.Estate.UpdateMaintenance(r.Context(), actorOf(r), id, upd)
	if err != nil {
		writeError(w, r, err)
		return
	}
	a.record(r, "maintenance.update", "maintenance_request", id, map[string]any{"status": m.Status})
	respond(w, http.StatusOK, map[string]any{"request": m, "message": "Maintenance request updated successfully"})
}

func (a *API) deleteMaintenance(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := a.svc.Estate.DeleteMaintenance(r.Context(), actorOf(r), id); err != nil {
		writeError(w, r, err)
		return
	}
	a.record(r, "maintenance.delete", "maintenance_request", id, nil)
	respond(w, http.StatusOK, map[string]string{"message": "Maintenance request deleted successfully"})
}
