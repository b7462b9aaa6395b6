package pg

import (
	"context"

	"estatehub.app/internal/estate"
	"estatehub.app/internal/ids"
)

const paymentColumns = `pay.id, pay.tenant_id, pay.property_id, pay.amount, pay.payment_type, pay.payment_method,
	pay.transaction_reference, pay.payment_date, pay.due_date, pay.status, coalesce(pay.receipt_number, ''),
	coalesce(pay.notes, ''), pay.created_by, pay.created_at, pay.updated_at,
	u.full_name, p.name, t.user_id`

const paymentFrom = `from payments pay
	join tenants t on t.id = pay.tenant_id
	join users u on u.id = t.user_id
	join properties p on p.id = pay.property_id`

func scanPayment(row rowScanner) (estate.Payment, error) {
	var p estate.Payment
	err := row.Scan(&p.ID, &p.TenantID, &p.PropertyID, &p.Amount, &p.PaymentType, &p.PaymentMethod,
		&p.TransactionReference, &p.PaymentDate, &p.DueDate, &p.Status, &p.ReceiptNumber,
		&p.Notes, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt,
		&p.TenantName, &p.PropertyName, &p.TenantUserID)
	if err != nil {
		return estate.Payment{}, notFound(err)
	}
	return p, nil
}

func paymentWhere(f estate.PaymentFilter) *where {
	w := &where{}
	if f.TenancyID != "" {
		w.add("pay.tenant_id = ?", f.TenancyID)
	}
	if f.Status != "" {
		w.add("pay.status = ?", string(f.Status))
	}
	if !f.From.IsZero() {
		w.add("pay.payment_date >= ?", f.From)
	}
	if !f.To.IsZero() {
		w.add("pay.payment_date <= ?", f.To)
	}
	return w
}

func (s *Store) ListPayments(ctx context.Context, f estate.PaymentFilter) ([]estate.Payment, int, error) {
	return listPage(ctx, s.db, paymentColumns, paymentFrom, paymentWhere(f),
		"pay.payment_date desc, pay.created_at desc", f.Page, scanPayment)
}

func (s *Store) GetPayment(ctx context.Context, id string) (*estate.Payment, error) {
	p, err := scanPayment(s.db.QueryRowContext(ctx,
		`select `+paymentColumns+` `+paymentFrom+` where pay.id = $1`, id))
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CreatePayment inserts p. Unique violations map to ErrConflict for the
// transaction reference and ErrReceiptTaken for the receipt number.
func (s *Store) CreatePayment(ctx context.Context, p *estate.Payment) error {
	if p.ID == "" {
		p.ID = ids.New()
	}
	err := s.db.QueryRowContext(ctx, `
		insert into payments(id, tenant_id, property_id, amount, payment_type, payment_method,
			transaction_reference, payment_date, due_date, status, receipt_number, notes, created_by)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		returning created_at, updated_at
	`, p.ID, p.TenantID, p.PropertyID, p.Amount, string(p.PaymentType), string(p.PaymentMethod),
		p.TransactionReference, p.PaymentDate, p.DueDate, string(p.Status), nullIfEmpty(p.ReceiptNumber),
		nullIfEmpty(p.Notes), p.CreatedBy,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return integrityError(err)
	}
	return nil
}
