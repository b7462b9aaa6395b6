package httpapi

import (
	"fmt"
	"net/http"
	"strconv"

	"estatehub.app/internal/report"
)

func (a *API) reportParams(r *http.Request) (report.Params, error) {
	q := queryOf(r)
	p, err := report.ParseParams(q.str("start_date"), q.str("end_date"), q.str("group_by"), a.svc.Reports.Now())
	if err != nil {
		return report.Params{}, err
	}
	p.Status = q.str("status")
	return p, nil
}

func (a *API) revenueReport(w http.ResponseWriter, r *http.Request) {
	p, err := a.reportParams(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	rep, err := a.svc.Reports.Revenue(r.Context(), p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond(w, http.StatusOK, rep)
}

func (a *API) occupancyReport(w http.ResponseWriter, r *http.Request) {
	p, err := a.reportParams(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	rep, err := a.svc.Reports.Occupancy(r.Context(), p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond(w, http.StatusOK, rep)
}

func (a *API) maintenanceReport(w http.ResponseWriter, r *http.Request) {
	p, err := a.reportParams(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	rep, err := a.svc.Reports.Maintenance(r.Context(), p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond(w, http.StatusOK, rep)
}

// exportReport streams the rendered file as an attachment, outside the envelope.
func (a *API) exportReport(w http.ResponseWriter, r *http.Request) {
	var req report.ExportRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	file, err := a.svc.Reports.Export(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	a.record(r, "report.export", "report", "", map[string]any{
		"report_type": req.ReportType,
		"file":        file.Name,
	})
	w.Header().Set("Content-Type", file.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Name))
	w.Header().Set("Content-Length", strconv.Itoa(len(file.Body)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(file.Body)
}
