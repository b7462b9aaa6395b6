package report

import (
	"context"
	"fmt"
	"math"
	"sort"

	"estatehub.app/internal/estate"
)

type RevenueRow struct {
	Period           string             `json:"period"`
	PaymentType      estate.PaymentType `json:"payment_type"`
	TransactionCount int                `json:"transaction_count"`
	TotalAmount      float64            `json:"total_amount"`
	AverageAmount    float64            `json:"average_amount"`
	MinAmount        float64            `json:"min_amount"`
	MaxAmount        float64            `json:"max_amount"`
}

type RevenueSummary struct {
	TotalTransactions  int     `json:"total_transactions"`
	TotalRevenue       float64 `json:"total_revenue"`
	AverageTransaction float64 `json:"average_transaction"`
	RentRevenue        float64 `json:"rent_revenue"`
	DepositRevenue     float64 `json:"deposit_revenue"`
	MaintenanceRevenue float64 `json:"maintenance_revenue"`
	PenaltyRevenue     float64 `json:"penalty_revenue"`
}

type RevenueReport struct {
	Summary      RevenueSummary `json:"summary"`
	DetailedData []RevenueRow   `json:"detailed_data"`
	Filters      Filters        `json:"filters"`
}

// Period labels d for the grouping: 2006-01-02, ISO 2006-W01, 2006-01 or 2006.
func Period(d estate.Date, g GroupBy) string {
	switch g {
	case ByDay:
		return d.Format("2006-01-02")
	case ByWeek:
		y, w := d.ISOWeek()
		return fmt.Sprintf("%d-W%02d", y, w)
	case ByYear:
		return d.Format("2006")
	default:
		return d.Format("2006-01")
	}
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

// Revenue groups paid payments by period and payment type.
func (s *Service) Revenue(ctx context.Context, p Params) (RevenueReport, error) {
	payments, err := s.src.PaymentsBetween(ctx, p.Start, p.End, estate.PaymentPaid)
	if err != nil {
		return RevenueReport{}, err
	}
	return buildRevenue(payments, p), nil
}

func buildRevenue(payments []estate.Payment, p Params) RevenueReport {
	type key struct {
		period string
		typ    estate.PaymentType
	}
	groups := map[key]*RevenueRow{}
	var sum RevenueSummary
	for _, pay := range payments {
		k := key{Period(pay.PaymentDate, p.GroupBy), pay.PaymentType}
		row, ok := groups[k]
		if !ok {
			row = &RevenueRow{Period: k.period, PaymentType: k.typ, MinAmount: pay.Amount, MaxAmount: pay.Amount}
			groups[k] = row
		}
		row.TransactionCount++
		row.TotalAmount += pay.Amount
		row.MinAmount = math.Min(row.MinAmount, pay.Amount)
		row.MaxAmount = math.Max(row.MaxAmount, pay.Amount)

		sum.TotalTransactions++
		sum.TotalRevenue += pay.Amount
		switch pay.PaymentType {
		case estate.PaymentRent:
			sum.RentRevenue += pay.Amount
		case estate.PaymentDeposit:
			sum.DepositRevenue += pay.Amount
		case estate.PaymentMaintenance:
			sum.MaintenanceRevenue += pay.Amount
		case estate.PaymentPenalty:
			sum.PenaltyRevenue += pay.Amount
		}
	}

	rows := make([]RevenueRow, 0, len(groups))
	for _, row := range groups {
		row.TotalAmount = round2(row.TotalAmount)
		row.AverageAmount = round2(row.TotalAmount / float64(row.TransactionCount))
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Period != rows[j].Period {
			return rows[i].Period > rows[j].Period
		}
		return rows[i].PaymentType < rows[j].PaymentType
	})
	if sum.TotalTransactions > 0 {
		sum.AverageTransaction = round2(sum.TotalRevenue / float64(sum.TotalTransactions))
	}
	sum.TotalRevenue = round2(sum.TotalRevenue)
	return RevenueReport{Summary: sum, DetailedData: rows, Filters: p.filters()}
}
