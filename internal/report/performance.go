package report

import (
	"context"
	"sort"

	"estatehub.app/internal/estate"
)

type PerformanceRow struct {
	PropertyID       string  `json:"property_id"`
	Name             string  `json:"name"`
	City             string  `json:"city"`
	MonthlyRent      float64 `json:"monthly_rent"`
	PaymentCount     int     `json:"payment_count"`
	TotalRevenue     float64 `json:"total_revenue"`
	MaintenanceCount int     `json:"maintenance_count"`
	MaintenanceCost  float64 `json:"maintenance_cost"`
	NetIncome        float64 `json:"net_income"`
}

// PropertyPerformance nets paid revenue against maintenance cost per property.
func (s *Service) PropertyPerformance(ctx context.Context, p Params) ([]PerformanceRow, error) {
	props, err := s.src.AllProperties(ctx)
	if err != nil {
		return nil, err
	}
	payments, err := s.src.PaymentsBetween(ctx, p.Start, p.End, estate.PaymentPaid)
	if err != nil {
		return nil, err
	}
	reqs, err := s.src.MaintenanceBetween(ctx, p.Start, p.End, "")
	if err != nil {
		return nil, err
	}
	return buildPerformance(props, payments, reqs), nil
}

func buildPerformance(props []estate.Property, payments []estate.Payment, reqs []estate.MaintenanceRequest) []PerformanceRow {
	index := make(map[string]*PerformanceRow, len(props))
	rows := make([]*PerformanceRow, 0, len(props))
	for _, prop := range props {
		row := &PerformanceRow{PropertyID: prop.ID, Name: prop.Name, City: prop.City, MonthlyRent: prop.Price}
		index[prop.ID] = row
		rows = append(rows, row)
	}
	for _, pay := range payments {
		if row, ok := index[pay.PropertyID]; ok {
			row.PaymentCount++
			row.TotalRevenue += pay.Amount
		}
	}
	for _, m := range reqs {
		if row, ok := index[m.PropertyID]; ok {
			row.MaintenanceCount++
			row.MaintenanceCost += cost(m)
		}
	}
	out := make([]PerformanceRow, 0, len(rows))
	for _, row := range rows {
		row.TotalRevenue = round2(row.TotalRevenue)
		row.MaintenanceCost = round2(row.MaintenanceCost)
		row.NetIncome = round2(row.TotalRevenue - row.MaintenanceCost)
		out = append(out, *row)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].NetIncome > out[j].NetIncome })
	return out
}
