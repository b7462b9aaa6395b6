package pg

import (
	"context"
	"database/sql"

	"estatehub.app/internal/estate"
	"estatehub.app/internal/ids"
)

const maintenanceColumns = `m.id, m.property_id, m.tenant_id, m.reported_by, m.title, m.description,
	m.priority, m.status, m.category, coalesce(m.assigned_to, ''), m.estimated_cost, m.actual_cost,
	m.completion_date, m.created_at, m.updated_at, p.name, coalesce(r.full_name, ''), t.user_id`

const maintenanceFrom = `from maintenance_requests m
	join properties p on p.id = m.property_id
	join tenants t on t.id = m.tenant_id
	left join users r on r.id = m.reported_by`

func scanMaintenance(row rowScanner) (estate.MaintenanceRequest, error) {
	var (
		m         estate.MaintenanceRequest
		estimated sql.NullFloat64
		actual    sql.NullFloat64
	)
	err := row.Scan(&m.ID, &m.PropertyID, &m.TenantID, &m.ReportedBy, &m.Title, &m.Description,
		&m.Priority, &m.Status, &m.Category, &m.AssignedTo, &estimated, &actual,
		&m.CompletionDate, &m.CreatedAt, &m.UpdatedAt, &m.PropertyName, &m.ReporterName, &m.TenantUserID)
	if err != nil {
		return estate.MaintenanceRequest{}, notFound(err)
	}
	m.EstimatedCost, m.ActualCost = floatPtr(estimated), floatPtr(actual)
	return m, nil
}

func (s *Store) ListMaintenance(ctx context.Context, f estate.MaintenanceFilter) ([]estate.MaintenanceRequest, int, error) {
	w := &where{}
	if f.TenancyID != "" {
		w.add("m.tenant_id = ?", f.TenancyID)
	}
	if f.Status != "" {
		w.add("m.status = ?", string(f.Status))
	}
	if f.Priority != "" {
		w.add("m.priority = ?", string(f.Priority))
	}
	return listPage(ctx, s.db, maintenanceColumns, maintenanceFrom, w, "m.created_at desc, m.id", f.Page, scanMaintenance)
}

func (s *Store) GetMaintenance(ctx context.Context, id string) (*estate.MaintenanceRequest, error) {
	m, err := scanMaintenance(s.db.QueryRowContext(ctx,
		`select `+maintenanceColumns+` `+maintenanceFrom+` where m.id = $1`, id))
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *Store) CreateMaintenance(ctx context.Context, m *estate.MaintenanceRequest) error {
	if m.ID == "" {
		m.ID = ids.New()
	}
	err := s.db.QueryRowContext(ctx, `
		insert into maintenance_requests(id, property_id, tenant_id, reported_by, title, description,
			priority, status, category)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		returning created_at, updated_at
	`, m.ID, m.PropertyID, m.TenantID, m.ReportedBy, m.Title, m.Description,
		string(m.Priority), string(m.Status), string(m.Category),
	).Scan(&m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return integrityError(err)
	}
	return nil
}

func (s *Store) UpdateMaintenance(ctx context.Context, id string, upd estate.MaintenanceUpdate) (*estate.MaintenanceRequest, error) {
	var status any
	if upd.Status != nil {
		status = string(*upd.Status)
	}
	err := execOne(ctx, s.db, `
		update maintenance_requests set
			status = coalesce($2, status),
			assigned_to = coalesce($3, assigned_to),
			estimated_cost = coalesce($4, estimated_cost),
			actual_cost = coalesce($5, actual_cost),
			completion_date = coalesce($6, completion_date)
		where id = $1
	`, id, status, upd.AssignedTo, upd.EstimatedCost, upd.ActualCost, upd.CompletionDate)
	if err != nil {
		return nil, err
	}
	return s.GetMaintenance(ctx, id)
}

func (s *Store) DeleteMaintenance(ctx context.Context, id string) error {
	return execOne(ctx, s.db, `delete from maintenance_requests where id = $1`, id)
}
