package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"estatehub.app/internal/estate"
)

func (a *API) listTenancies(w http.ResponseWriter, r *http.Request) {
	q := queryOf(r)
	list, err := a.svc.Estate.ListTenancies(r.Context(), actorOf(r), estate.TenancyFilter{
		PropertyID: q.str("property_id"),
		Page:       q.page(),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"tenants": list.Items, "pagination": list.Pagination})
}

func (a *API) currentTenancy(w http.ResponseWriter, r *http.Request) {
	t, err := a.svc.Estate.CurrentTenancy(r.Context(), actorOf(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"tenant": t})
}

func (a *API) getTenancy(w http.ResponseWriter, r *http.Request) {
	t, err := a.svc.Estate.GetTenancy(r.Context(), actorOf(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"tenant": t})
}

func (a *API) createTenancy(w http.ResponseWriter, r *http.Request) {
	var in estate.TenancyInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	t, err := a.svc.Estate.CreateTenancy(r.Context(), actorOf(r), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	a.record(r, "tenant.create", "tenant", t.ID, map[string]any{
		"user_id":     t.UserID,
		"property_id": t.PropertyID,
	})
	respond(w, http.StatusCreated, map[string]any{
		"tenant_id": t.ID,
		"tenant":    t,
		"message":   "Tenant assigned successfully",
	})
}

func (a *API) updateTenancy(w http.ResponseWriter, r *http.Request) {
	var upd estate.TenancyUpdate
	if err := decodeJSON(r, &upd); err != nil {
		writeError(w, r, err)
		return
	}
	id := chi.URLParam(r, "id")
	t, err := a.svc.Estate.UpdateTenancy(r.Context(), actorOf(r), id, upd)
	if err != nil {
		writeError(w, r, err)
		return
	}
	a.record(r, "tenant.update", "tenant", id, nil)
	respond(w, http.StatusOK, map[string]any{"tenant": t, "message": "Tenant updated successfully"})
}

func (a *API) terminateTenancy(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := a.svc.Estate.TerminateTenancy(r.Context(), actorOf(r), id); err != nil {
		writeError(w, r, err)
		return
	}
	a.record(r, "tenant.terminate", "tenant", id, nil)
	respond(w, http.StatusOK, map[string]string{"message": "Tenancy terminated successfully"})
}
