package estate

import (
	"context"
	"sort"
)

// The methods below expose raw rows for reporting.

func (s *MemoryStore) PaymentsBetween(ctx context.Context, from, to Date, status PaymentStatus) ([]Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Payment
	for _, p := range s.payments {
		if p.PaymentDate.Before(from.Time) || p.PaymentDate.After(to.Time) {
			continue
		}
		if status != "" && p.Status != status {
			continue
		}
		out = append(out, s.joinPayment(ctx, p))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].PaymentDate.Before(out[j].PaymentDate.Time) })
	return out, nil
}

func (s *MemoryStore) AllProperties(_ context.Context) ([]Property, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Property, 0, len(s.properties))
	for _, p := range s.properties {
		out = append(out, cloneProperty(p))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) TenanciesOverlapping(ctx context.Context, from, to Date) ([]Tenancy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Tenancy
	for _, t := range s.tenancies {
		if t.LeaseStart.After(to.Time) || t.LeaseEnd.Before(from.Time) {
			continue
		}
		out = append(out, s.joinTenancy(ctx, t))
	}
	return out, nil
}

func (s *MemoryStore) MaintenanceBetween(ctx context.Context, from, to Date, status MaintenanceStatus) ([]MaintenanceRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []MaintenanceRequest
	for _, m := range s.maintenance {
		day := DateOf(m.CreatedAt)
		if day.Before(from.Time) || day.After(to.Time) {
			continue
		}
		if status != "" && m.Status != status {
			continue
		}
		out = append(out, s.joinMaintenance(ctx, m))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}
