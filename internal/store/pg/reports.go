package pg

import (
	"context"

	"estatehub.app/internal/estate"
)

// The queries below feed report.Service. Aggregation happens in Go so the
// in-memory and Postgres backends produce identical reports.

func (s *Store) PaymentsBetween(ctx context.Context, from, to estate.Date, status estate.PaymentStatus) ([]estate.Payment, error) {
	w := paymentWhere(estate.PaymentFilter{Status: status, From: from, To: to})
	return queryAll(ctx, s.db, `select `+paymentColumns+` `+paymentFrom+w.String()+
		` order by pay.payment_date, pay.created_at`, w.args, scanPayment)
}

func (s *Store) AllProperties(ctx context.Context) ([]estate.Property, error) {
	return queryAll(ctx, s.db, `select `+propertyColumns+` `+propertyFrom+` order by p.city, p.name`, nil, scanProperty)
}

func (s *Store) TenanciesOverlapping(ctx context.Context, from, to estate.Date) ([]estate.Tenancy, error) {
	w := &where{}
	w.add("t.lease_start_date <= ?", to)
	w.add("t.lease_end_date >= ?", from)
	return queryAll(ctx, s.db, `select `+tenancyColumns+` `+tenancyFrom+w.String()+
		` order by t.lease_start_date`, w.args, scanTenancy)
}

func (s *Store) MaintenanceBetween(ctx context.Context, from, to estate.Date, status estate.MaintenanceStatus) ([]estate.MaintenanceRequest, error) {
	w := &where{}
	w.add("m.created_at::date >= ?", from)
	w.add("m.created_at::date <= ?", to)
	if status != "" {
		w.add("m.status = ?", string(status))
	}
	return queryAll(ctx, s.db, `select `+maintenanceColumns+` `+maintenanceFrom+w.String()+
		` order by m.created_at`, w.args, scanMaintenance)
}
