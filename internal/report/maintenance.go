package report

import (
	"context"
	"strings"
	"time"

	"estatehub.app/internal/estate"
)

type MaintenanceRow struct {
	ID            string                   `json:"id"`
	Title         string                   `json:"title"`
	Description   string                   `json:"description"`
	Priority      estate.Priority          `json:"priority"`
	Status        estate.MaintenanceStatus `json:"status"`
	Category      estate.Category          `json:"category"`
	Cost          float64                  `json:"cost"`
	CreatedAt     time.Time                `json:"created_at"`
	CompletedAt   estate.Date              `json:"completed_at"`
	PropertyName  string                   `json:"property_name"`
	DaysToResolve int                      `json:"days_to_resolve"`
}

type MaintenanceSummary struct {
	TotalRequests        int     `json:"total_requests"`
	PendingRequests      int     `json:"pending_requests"`
	InProgressRequests   int     `json:"in_progress_requests"`
	CompletedRequests    int     `json:"completed_requests"`
	CancelledRequests    int     `json:"cancelled_requests"`
	EmergencyRequests    int     `json:"emergency_requests"`
	TotalCost            float64 `json:"total_cost"`
	AverageCost          float64 `json:"average_cost"`
	AverageDaysToResolve float64 `json:"average_days_to_resolve"`
}

type MaintenanceReport struct {
	Summary      MaintenanceSummary `json:"summary"`
	DetailedData []MaintenanceRow   `json:"detailed_data"`
	Filters      Filters            `json:"filters"`
}

// cost prefers the actual cost over the estimate.
func cost(m estate.MaintenanceRequest) float64 {
	switch {
	case m.ActualCost != nil:
		return *m.ActualCost
	case m.EstimatedCost != nil:
		return *m.EstimatedCost
	}
	return 0
}

// daysBetween counts whole calendar days from a to b.
func daysBetween(a, b estate.Date) int {
	return int(b.Sub(a.Time).Hours() / 24)
}

func (s *Service) Maintenance(ctx context.Context, p Params) (MaintenanceReport, error) {
	status := estate.MaintenanceStatus(strings.ToLower(strings.TrimSpace(p.Status)))
	if status != "" && !status.Valid() {
		return MaintenanceReport{}, invalid("status must be one of pending, in_progress, completed, cancelled")
	}
	p.Status = string(status)
	reqs, err := s.src.MaintenanceBetween(ctx, p.Start, p.End, status)
	if err != nil {
		return MaintenanceReport{}, err
	}
	f := p.filters()
	f.GroupBy = ""
	rep := buildMaintenance(reqs, estate.DateOf(s.now()))
	rep.Filters = f
	return rep, nil
}

func buildMaintenance(reqs []estate.MaintenanceRequest, today estate.Date) MaintenanceReport {
	var (
		sum      MaintenanceSummary
		costed   int
		daysSum  int
		resolved int
	)
	rows := make([]MaintenanceRow, 0, len(reqs))
	for _, m := range reqs {
		end := today
		if !m.CompletionDate.IsZero() {
			end = m.CompletionDate
		}
		days := daysBetween(estate.DateOf(m.CreatedAt), end)
		if days < 0 {
			days = 0
		}
		c := cost(m)
		rows = append(rows, MaintenanceRow{
			ID:            m.ID,
			Title:         m.Title,
			Description:   m.Description,
			Priority:      m.Priority,
			Status:        m.Status,
			Category:      m.Category,
			Cost:          c,
			CreatedAt:     m.CreatedAt,
			CompletedAt:   m.CompletionDate,
			PropertyName:  m.PropertyName,
			DaysToResolve: days,
		})

		sum.TotalRequests++
		switch m.Status {
		case estate.MaintenancePending:
			sum.PendingRequests++
		case estate.MaintenanceInProgress:
			sum.InProgressRequests++
		case estate.MaintenanceCompleted:
			sum.CompletedRequests++
			daysSum += days
			resolved++
		case estate.MaintenanceCancelled:
			sum.CancelledRequests++
		}
		if m.Priority == estate.PriorityEmergency {
			sum.EmergencyRequests++
		}
		if m.ActualCost != nil || m.EstimatedCost != nil {
			sum.TotalCost += c
			costed++
		}
	}
	if costed > 0 {
		sum.AverageCost = round2(sum.TotalCost / float64(costed))
	}
	if resolved > 0 {
		sum.AverageDaysToResolve = round2(float64(daysSum) / float64(resolved))
	}
	sum.TotalCost = round2(sum.TotalCost)
	return MaintenanceReport{Summary: sum, DetailedData: rows}
}
