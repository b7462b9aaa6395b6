// Package report aggregates estate records into revenue, occupancy,
// maintenance and property performance reports and exports them.
package report

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"estatehub.app/internal/estate"
)

var (
	ErrInvalidInput = errors.New("report: invalid input")
	// ErrNoData is returned when a CSV export would contain no rows.
	ErrNoData = errors.New("report: no data available for export")
)

// Source supplies the raw rows reports are computed from.
type Source interface {
	// PaymentsBetween returns payments dated within [from, to]. An empty
	// status matches all.
	PaymentsBetween(ctx context.Context, from, to estate.Date, status estate.PaymentStatus) ([]estate.Payment, error)
	AllProperties(ctx context.Context) ([]estate.Property, error)
	// TenanciesOverlapping returns leases of any status overlapping [from, to].
	TenanciesOverlapping(ctx context.Context, from, to estate.Date) ([]estate.Tenancy, error)
	// MaintenanceBetween returns requests created within [from, to].
	MaintenanceBetween(ctx context.Context, from, to estate.Date, status estate.MaintenanceStatus) ([]estate.MaintenanceRequest, error)
}

type GroupBy string

const (
	ByDay   GroupBy = "day"
	ByWeek  GroupBy = "week"
	ByMonth GroupBy = "month"
	ByYear  GroupBy = "year"
)

func (g GroupBy) Valid() bool {
	switch g {
	case ByDay, ByWeek, ByMonth, ByYear:
		return true
	}
	return false
}

// Params selects the window and grouping of a report.
type Params struct {
	Start   estate.Date
	End     estate.Date
	GroupBy GroupBy
	Status  string
}

// Filters echoes the effective parameters back to the caller.
type Filters struct {
	StartDate estate.Date `json:"start_date"`
	EndDate   estate.Date `json:"end_date"`
	GroupBy   GroupBy     `json:"group_by,omitempty"`
	Status    string      `json:"status,omitempty"`
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// ParseParams parses YYYY-MM-DD bounds, defaulting to the month containing now.
func ParseParams(start, end, groupBy string, now time.Time) (Params, error) {
	today := estate.DateOf(now)
	first := estate.DateOf(time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC))
	p := Params{Start: first, End: estate.Date{Time: first.AddDate(0, 1, -1)}}

	var err error
	if s := strings.TrimSpace(start); s != "" {
		if p.Start, err = estate.ParseDate(s); err != nil {
			return Params{}, invalid("start_date must be YYYY-MM-DD")
		}
	}
	if s := strings.TrimSpace(end); s != "" {
		if p.End, err = estate.ParseDate(s); err != nil {
			return Params{}, invalid("end_date must be YYYY-MM-DD")
		}
	}
	if p.Start.After(p.End.Time) {
		return Params{}, invalid("start_date must not be after end_date")
	}
	p.GroupBy = ByMonth
	if g := GroupBy(strings.ToLower(strings.TrimSpace(groupBy))); g != "" {
		if !g.Valid() {
			return Params{}, invalid("group_by must be one of day, week, month, year")
		}
		p.GroupBy = g
	}
	return p, nil
}

func (p Params) filters() Filters {
	return Filters{StartDate: p.Start, EndDate: p.End, GroupBy: p.GroupBy, Status: p.Status}
}

// Service computes reports from a Source.
type Service struct {
	src Source
	now func() time.Time
}

func NewService(src Source, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{src: src, now: now}
}

func (s *Service) Now() time.Time { return s.now() }
