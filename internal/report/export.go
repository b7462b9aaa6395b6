package report

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

type Kind string

const (
	KindRevenue             Kind = "revenue"
	KindOccupancy           Kind = "occupancy"
	KindMaintenance         Kind = "maintenance"
	KindPropertyPerformance Kind = "property_performance"
)

func (k Kind) Valid() bool {
	switch k {
	case KindRevenue, KindOccupancy, KindMaintenance, KindPropertyPerformance:
		return true
	}
	return false
}

type ExportRequest struct {
	ReportType string `json:"report_type"`
	Format     string `json:"format"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`
}

// File is a rendered export ready to be served as an attachment.
type File struct {
	Name        string
	ContentType string
	Body        []byte
}

// table is the tabular form of a report's detailed rows.
type table struct {
	header []string
	rows   [][]string
	data   any
}

func money(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) }

func revenueTable(rows []RevenueRow) table {
	t := table{
		header: []string{"period", "payment_type", "transaction_count", "total_amount", "average_amount", "min_amount", "max_amount"},
		data:   rows,
	}
	for _, r := range rows {
		t.rows = append(t.rows, []string{r.Period, string(r.PaymentType), strconv.Itoa(r.TransactionCount),
			money(r.TotalAmount), money(r.AverageAmount), money(r.MinAmount), money(r.MaxAmount)})
	}
	return t
}

func occupancyTable(rows []OccupancyRow) table {
	t := table{
		header: []string{"property_id", "property_name", "city", "property_status", "tenant_count", "active_tenants", "latest_lease_end", "monthly_rent"},
		data:   rows,
	}
	for _, r := range rows {
		t.rows = append(t.rows, []string{r.PropertyID, r.PropertyName, r.City, string(r.PropertyStatus),
			strconv.Itoa(r.TenantCount), strconv.Itoa(r.ActiveTenants), r.LatestLeaseEnd.String(), money(r.MonthlyRent)})
	}
	return t
}

func maintenanceTable(rows []MaintenanceRow) table {
	t := table{
		header: []string{"id", "title", "description", "priority", "status", "category", "cost", "created_at", "completed_at", "property_name", "days_to_resolve"},
		data:   rows,
	}
	for _, r := range rows {
		t.rows = append(t.rows, []string{r.ID, r.Title, r.Description, string(r.Priority), string(r.Status),
			string(r.Category), money(r.Cost), r.CreatedAt.UTC().Format(time.RFC3339), r.CompletedAt.String(),
			r.PropertyName, strconv.Itoa(r.DaysToResolve)})
	}
	return t
}

func performanceTable(rows []PerformanceRow) table {
	t := table{
		header: []string{"property_id", "name", "city", "monthly_rent", "payment_count", "total_revenue", "maintenance_count", "maintenance_cost", "net_income"},
		data:   rows,
	}
	for _, r := range rows {
		t.rows = append(t.rows, []string{r.PropertyID, r.Name, r.City, money(r.MonthlyRent), strconv.Itoa(r.PaymentCount),
			money(r.TotalRevenue), strconv.Itoa(r.MaintenanceCount), money(r.MaintenanceCost), money(r.NetIncome)})
	}
	return t
}

func (s *Service) tableFor(ctx context.Context, kind Kind, p Params) (table, error) {
	switch kind {
	case KindRevenue:
		rep, err := s.Revenue(ctx, p)
		return revenueTable(rep.DetailedData), err
	case KindOccupancy:
		rep, err := s.Occupancy(ctx, p)
		return occupancyTable(rep.DetailedData), err
	case KindMaintenance:
		rep, err := s.Maintenance(ctx, p)
		return maintenanceTable(rep.DetailedData), err
	default:
		rows, err := s.PropertyPerformance(ctx, p)
		return performanceTable(rows), err
	}
}

// Export renders a report as CSV (default) or JSON.
func (s *Service) Export(ctx context.Context, req ExportRequest) (File, error) {
	kind := Kind(strings.ToLower(strings.TrimSpace(req.ReportType)))
	if kind == "" {
		return File{}, invalid("report_type is required")
	}
	if !kind.Valid() {
		return File{}, invalid("report_type must be one of revenue, occupancy, maintenance, property_performance")
	}
	format := strings.ToLower(strings.TrimSpace(req.Format))
	if format == "" {
		format = "csv"
	}
	if format != "csv" && format != "json" {
		return File{}, invalid("format must be csv or json")
	}
	p, err := ParseParams(req.StartDate, req.EndDate, "", s.now())
	if err != nil {
		return File{}, err
	}
	tbl, err := s.tableFor(ctx, kind, p)
	if err != nil {
		return File{}, err
	}

	now := s.now().UTC()
	name := fmt.Sprintf("%s_report_%s.%s", kind, now.Format("2006-01-02_150405"), format)
	if format == "json" {
		body, err := json.MarshalIndent(map[string]any{
			"report_type":  kind,
			"generated_at": now.Format(time.RFC3339),
			"filters":      Filters{StartDate: p.Start, EndDate: p.End},
			"data":         tbl.data,
		}, "", "  ")
		if err != nil {
			return File{}, fmt.Errorf("encode report: %w", err)
		}
		return File{Name: name, ContentType: "application/json", Body: body}, nil
	}

	if len(tbl.rows) == 0 {
		return File{}, ErrNoData
	}
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(tbl.header); err != nil {
		return File{}, err
	}
	if err := w.WriteAll(tbl.rows); err != nil {
		return File{}, fmt.Errorf("encode report: %w", err)
	}
	return File{Name: name, ContentType: "text/csv; charset=utf-8", Body: buf.Bytes()}, nil
}
