package report

import (
	"context"
	"sort"

	"estatehub.app/internal/estate"
)

type OccupancyRow struct {
	PropertyID     string                `json:"property_id"`
	PropertyName   string                `json:"property_name"`
	City           string                `json:"city"`
	PropertyStatus estate.PropertyStatus `json:"property_status"`
	TenantCount    int                   `json:"tenant_count"`
	ActiveTenants  int                   `json:"active_tenants"`
	LatestLeaseEnd estate.Date           `json:"latest_lease_end"`
	MonthlyRent    float64               `json:"monthly_rent"`
}

type OccupancySummary struct {
	TotalProperties       int     `json:"total_properties"`
	OccupiedProperties    int     `json:"occupied_properties"`
	AvailableProperties   int     `json:"available_properties"`
	MaintenanceProperties int     `json:"maintenance_properties"`
	ActiveTenants         int     `json:"active_tenants"`
	OccupancyRate         float64 `json:"occupancy_rate"`
}

type OccupancyReport struct {
	Summary      OccupancySummary `json:"summary"`
	DetailedData []OccupancyRow   `json:"detailed_data"`
	Filters      Filters          `json:"filters"`
}

// Occupancy reports every property with the leases overlapping the window.
func (s *Service) Occupancy(ctx context.Context, p Params) (OccupancyReport, error) {
	props, err := s.src.AllProperties(ctx)
	if err != nil {
		return OccupancyReport{}, err
	}
	leases, err := s.src.TenanciesOverlapping(ctx, p.Start, p.End)
	if err != nil {
		return OccupancyReport{}, err
	}
	f := p.filters()
	f.GroupBy = ""
	rep := buildOccupancy(props, leases)
	rep.Filters = f
	return rep, nil
}

func buildOccupancy(props []estate.Property, leases []estate.Tenancy) OccupancyReport {
	byProperty := make(map[string][]estate.Tenancy)
	for _, t := range leases {
		byProperty[t.PropertyID] = append(byProperty[t.PropertyID], t)
	}

	var sum OccupancySummary
	rows := make([]OccupancyRow, 0, len(props))
	for _, prop := range props {
		row := OccupancyRow{
			PropertyID:     prop.ID,
			PropertyName:   prop.Name,
			City:           prop.City,
			PropertyStatus: prop.Status,
			MonthlyRent:    prop.Price,
		}
		for _, t := range byProperty[prop.ID] {
			row.TenantCount++
			if t.Status == estate.TenancyActive {
				row.ActiveTenants++
			}
			if t.LeaseEnd.After(row.LatestLeaseEnd.Time) {
				row.LatestLeaseEnd = t.LeaseEnd
			}
		}
		rows = append(rows, row)

		sum.TotalProperties++
		sum.ActiveTenants += row.ActiveTenants
		switch prop.Status {
		case estate.PropertyOccupied:
			sum.OccupiedProperties++
		case estate.PropertyAvailable:
			sum.AvailableProperties++
		case estate.PropertyMaintenance:
			sum.MaintenanceProperties++
		}
	}
	if sum.TotalProperties > 0 {
		sum.OccupancyRate = round2(float64(sum.OccupiedProperties) / float64(sum.TotalProperties) * 100)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].City != rows[j].City {
			return rows[i].City < rows[j].City
		}
		return rows[i].PropertyName < rows[j].PropertyName
	})
	return OccupancyReport{Summary: sum, DetailedData: rows}
}
