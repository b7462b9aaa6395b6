package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"estatehub.app/internal/estate"
	"estatehub.app/internal/ids"
)

const tenancyColumns = `t.id, t.user_id, t.property_id, t.lease_start_date, t.lease_end_date, t.monthly_rent,
	t.deposit_amount, t.deposit_status, t.emergency_contact_name, t.emergency_contact_phone,
	t.move_in_date, t.move_out_date, t.status, coalesce(t.notes, ''), t.created_at, t.updated_at,
	u.full_name, u.email, u.phone, p.name, p.location`

const tenancyFrom = `from tenants t
	join users u on u.id = t.user_id
	join properties p on p.id = t.property_id`

func scanTenancy(row rowScanner) (estate.Tenancy, error) {
	var t estate.Tenancy
	err := row.Scan(&t.ID, &t.UserID, &t.PropertyID, &t.LeaseStart, &t.LeaseEnd, &t.MonthlyRent,
		&t.DepositAmount, &t.DepositStatus, &t.EmergencyContactName, &t.EmergencyContactPhone,
		&t.MoveInDate, &t.MoveOutDate, &t.Status, &t.Notes, &t.CreatedAt, &t.UpdatedAt,
		&t.TenantName, &t.TenantEmail, &t.TenantPhone, &t.PropertyName, &t.PropertyLocation)
	if err != nil {
		return estate.Tenancy{}, notFound(err)
	}
	return t, nil
}

func (s *Store) ListTenancies(ctx context.Context, f estate.TenancyFilter) ([]estate.Tenancy, int, error) {
	w := &where{}
	w.add("t.status = ?", string(estate.TenancyActive))
	if f.PropertyID != "" {
		w.add("t.property_id = ?", f.PropertyID)
	}
	return listPage(ctx, s.db, tenancyColumns, tenancyFrom, w, "t.created_at desc, t.id", f.Page, scanTenancy)
}

func (s *Store) tenancyWhere(ctx context.Context, clause string, args ...any) (*estate.Tenancy, error) {
	t, err := scanTenancy(s.db.QueryRowContext(ctx,
		`select `+tenancyColumns+` `+tenancyFrom+` where `+clause+` limit 1`, args...))
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *Store) GetTenancy(ctx context.Context, id string) (*estate.Tenancy, error) {
	return s.tenancyWhere(ctx, `t.id = $1`, id)
}

func (s *Store) ActiveTenancyForUser(ctx context.Context, userID string) (*estate.Tenancy, error) {
	return s.tenancyWhere(ctx, `t.user_id = $1 and t.status = 'active'`, userID)
}

func (s *Store) ActiveTenancyForProperty(ctx context.Context, propertyID string) (*estate.Tenancy, error) {
	return s.tenancyWhere(ctx, `t.property_id = $1 and t.status = 'active'`, propertyID)
}

// CreateTenancy claims the property and inserts the lease in one transaction.
func (s *Store) CreateTenancy(ctx context.Context, t *estate.Tenancy) error {
	if t.ID == "" {
		t.ID = ids.New()
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	err = execOne(ctx, tx, `
		update properties set status = 'occupied'
		where id = $1 and status = 'available'
	`, t.PropertyID)
	if errors.Is(err, estate.ErrNotFound) {
		return estate.ErrConflict
	}
	if err != nil {
		return err
	}
	err = tx.QueryRowContext(ctx, `
		insert into tenants(id, user_id, property_id, lease_start_date, lease_end_date, monthly_rent,
			deposit_amount, deposit_status, emergency_contact_name, emergency_contact_phone,
			move_in_date, status, notes)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		returning created_at, updated_at
	`, t.ID, t.UserID, t.PropertyID, t.LeaseStart, t.LeaseEnd, t.MonthlyRent,
		t.DepositAmount, string(t.DepositStatus), t.EmergencyContactName, t.EmergencyContactPhone,
		t.MoveInDate, string(t.Status), nullIfEmpty(t.Notes),
	).Scan(&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return integrityError(err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (s *Store) UpdateTenancy(ctx context.Context, id string, upd estate.TenancyUpdate) (*estate.Tenancy, error) {
	var deposit any
	if upd.DepositStatus != nil {
		deposit = string(*upd.DepositStatus)
	}
	err := execOne(ctx, s.db, `
		update tenants set
			lease_end_date = coalesce($2, lease_end_date),
			monthly_rent = coalesce($3, monthly_rent),
			deposit_status = coalesce($4, deposit_status),
			emergency_contact_name = coalesce($5, emergency_contact_name),
			emergency_contact_phone = coalesce($6, emergency_contact_phone),
			notes = coalesce($7, notes)
		where id = $1
	`, id, upd.LeaseEnd, upd.MonthlyRent, deposit, upd.EmergencyContactName,
		upd.EmergencyContactPhone, upd.Notes)
	if err != nil {
		return nil, err
	}
	return s.GetTenancy(ctx, id)
}

// TerminateTenancy ends the lease and frees its property in one transaction.
func (s *Store) TerminateTenancy(ctx context.Context, id string, moveOut estate.Date) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var propertyID string
	err = tx.QueryRowContext(ctx, `
		update tenants set status = 'inactive', move_out_date = $2
		where id = $1 and status = 'active'
		returning property_id
	`, id, moveOut).Scan(&propertyID)
	if errors.Is(err, sql.ErrNoRows) {
		return estate.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `update properties set status = 'available' where id = $1`, propertyID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
