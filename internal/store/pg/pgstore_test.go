package pg

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"estatehub.app/internal/config"
	"estatehub.app/internal/estate"
)

func newStoreWithMock(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return New(db), mock
}

func day(t *testing.T, s string) estate.Date {
	t.Helper()
	d, err := estate.ParseDate(s)
	require.NoError(t, err)
	return d
}

var propertyCols = []string{"id", "owner_id", "name", "description", "location", "city", "bedrooms", "bathrooms",
	"size", "price", "status", "amenities", "images", "featured_image", "created_at", "updated_at"}

func TestOpenRequiresDSN(t *testing.T) {
	_, err := Open(config.DBConfig{})
	require.Error(t, err)
}

func TestListPropertiesBuildsFilters(t *testing.T) {
	s, mock := newStoreWithMock(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`^select count\(\*\) from properties p where p\.status = \$1 and lower\(p\.city\) = lower\(\$2\) and p\.price >= \$3$`).
		WithArgs("available", "Nairobi", 20000.0).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(11))
	mock.ExpectQuery(`(?s)^select p\.id, .* from properties p where .* order by p\.price asc, p\.id limit \$4 offset \$5$`).
		WithArgs("available", "Nairobi", 20000.0, 10, 10).
		WillReturnRows(sqlmock.NewRows(propertyCols).AddRow(
			"p1", "u1", "Garden Court", "desc", "Kilimani", "Nairobi", 2, 1, 80, 25000.0, "available",
			[]byte(`["parking","wifi"]`), []byte(`[]`), nil, now, now))

	items, total, err := s.ListProperties(context.Background(), estate.PropertyFilter{
		City: "Nairobi", MinPrice: floatp(20000), SortBy: "price", SortOrder: "asc", Page: estate.NewPage(2, 10),
	})
	require.NoError(t, err)
	assert.Equal(t, 11, total)
	require.Len(t, items, 1)
	assert.Equal(t, []string{"parking", "wifi"}, items[0].Amenities)
	assert.Equal(t, []string{}, items[0].Images)
	assert.Empty(t, items[0].FeaturedImage)
}

func TestGetPropertyNotFound(t *testing.T) {
	s, mock := newStoreWithMock(t)
	mock.ExpectQuery(`from properties p where p\.id = \$1`).WithArgs("missing").WillReturnError(sql.ErrNoRows)

	_, err := s.GetProperty(context.Background(), "missing")
	require.ErrorIs(t, err, estate.ErrNotFound)
}

func TestDeletePropertyMissingRow(t *testing.T) {
	s, mock := newStoreWithMock(t)
	mock.ExpectExec(`delete from properties where id = \$1`).WithArgs("gone").WillReturnResult(sqlmock.NewResult(0, 0))

	require.ErrorIs(t, s.DeleteProperty(context.Background(), "gone"), estate.ErrNotFound)
}

func tenancy(t *testing.T) *estate.Tenancy {
	return &estate.Tenancy{
		ID: "t1", UserID: "u1", PropertyID: "p1",
		LeaseStart: day(t, "2025-06-01"), LeaseEnd: day(t, "2026-05-31"), MoveInDate: day(t, "2025-06-01"),
		MonthlyRent: 25000, DepositAmount: 50000, DepositStatus: estate.DepositUnpaid,
		EmergencyContactName: "Kin", EmergencyContactPhone: "+254722000000", Status: estate.TenancyActive,
	}
}

func TestCreateTenancyClaimsPropertyInTransaction(t *testing.T) {
	s, mock := newStoreWithMock(t)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectExec(`update properties set status = 'occupied'\s+where id = \$1 and status = 'available'`).
		WithArgs("p1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`insert into tenants\(`).
		WithArgs("t1", "u1", "p1", "2025-06-01", "2026-05-31", 25000.0, 50000.0, "unpaid", "Kin",
			"+254722000000", "2025-06-01", "active", nil).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
	mock.ExpectCommit()

	tn := tenancy(t)
	require.NoError(t, s.CreateTenancy(context.Background(), tn))
	assert.Equal(t, now, tn.CreatedAt)
}

func TestCreateTenancyPropertyTaken(t *testing.T) {
	s, mock := newStoreWithMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(`update properties set status = 'occupied'`).
		WithArgs("p1").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	require.ErrorIs(t, s.CreateTenancy(context.Background(), tenancy(t)), estate.ErrConflict)
}

func TestCreateTenancyActiveLeaseRace(t *testing.T) {
	s, mock := newStoreWithMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(`update properties set status = 'occupied'`).
		WithArgs("p1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`insert into tenants\(`).
		WillReturnError(&pgconn.PgError{Code: pgErrUniqueViolation, ConstraintName: "tenants_one_active_per_user"})
	mock.ExpectRollback()

	require.ErrorIs(t, s.CreateTenancy(context.Background(), tenancy(t)), estate.ErrConflict)
}

func TestTerminateTenancy(t *testing.T) {
	s, mock := newStoreWithMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`update tenants set status = 'inactive', move_out_date = \$2\s+where id = \$1 and status = 'active'\s+returning property_id`).
		WithArgs("t1", "2025-06-10").
		WillReturnRows(sqlmock.NewRows([]string{"property_id"}).AddRow("p1"))
	mock.ExpectExec(`update properties set status = 'available' where id = \$1`).
		WithArgs("p1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, s.TerminateTenancy(context.Background(), "t1", day(t, "2025-06-10")))
}

func TestTerminateInactiveTenancy(t *testing.T) {
	s, mock := newStoreWithMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`update tenants set status = 'inactive'`).WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	require.ErrorIs(t, s.TerminateTenancy(context.Background(), "t1", day(t, "2025-06-10")), estate.ErrNotFound)
}

func payment(t *testing.T) *estate.Payment {
	return &estate.Payment{
		ID: "pay1", TenantID: "t1", PropertyID: "p1", Amount: 25000,
		PaymentType: estate.PaymentRent, PaymentMethod: estate.MethodMpesa, TransactionReference: "QK12",
		PaymentDate: day(t, "2025-06-05"), DueDate: day(t, "2025-06-05"), Status: estate.PaymentPaid,
		ReceiptNumber: "RCP202506100001", CreatedBy: "admin",
	}
}

func TestCreatePaymentMapsUniqueViolations(t *testing.T) {
	cases := map[string]error{
		"payments_receipt_number_key":        estate.ErrReceiptTaken,
		"payments_transaction_reference_key": estate.ErrConflict,
	}
	for constraint, want := range cases {
		t.Run(constraint, func(t *testing.T) {
			s, mock := newStoreWithMock(t)
			mock.ExpectQuery(`insert into payments\(`).
				WillReturnError(&pgconn.PgError{Code: pgErrUniqueViolation, ConstraintName: constraint})

			require.ErrorIs(t, s.CreatePayment(context.Background(), payment(t)), want)
		})
	}
}

func TestCreatePaymentWrapsDBError(t *testing.T) {
	s, mock := newStoreWithMock(t)
	mock.ExpectQuery(`insert into payments\(`).WillReturnError(errors.New("db down"))

	err := s.CreatePayment(context.Background(), payment(t))
	require.Error(t, err)
	assert.Regexp(t, `db error: .*db down`, err.Error())
}

func TestCreatePaymentForeignKey(t *testing.T) {
	s, mock := newStoreWithMock(t)
	mock.ExpectQuery(`insert into payments\(`).
		WillReturnError(&pgconn.PgError{Code: pgErrForeignKeyViolation, Message: "violates foreign key"})

	require.ErrorIs(t, s.CreatePayment(context.Background(), payment(t)), estate.ErrInvalidInput)
}

func TestListPaymentsForTenancy(t *testing.T) {
	s, mock := newStoreWithMock(t)
	now := time.Now().UTC()
	cols := []string{"id", "tenant_id", "property_id", "amount", "payment_type", "payment_method",
		"transaction_reference", "payment_date", "due_date", "status", "receipt_number", "notes",
		"created_by", "created_at", "updated_at", "full_name", "name", "user_id"}
	paid := time.Date(2025, 6, 5, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`(?s)^select count\(\*\) from payments pay.* where pay\.tenant_id = \$1 and pay\.status = \$2$`).
		WithArgs("t1", "paid").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`(?s)^select pay\.id, .* order by pay\.payment_date desc, pay\.created_at desc limit \$3 offset \$4$`).
		WithArgs("t1", "paid", 10, 0).
		WillReturnRows(sqlmock.NewRows(cols).AddRow("pay1", "t1", "p1", "25000.00", "rent", "mpesa", "QK12",
			paid, paid, "paid", "RCP202506100001", "", "admin", now, now, "Jane", "Garden Court", "u1"))

	items, total, err := s.ListPayments(context.Background(), estate.PaymentFilter{
		TenancyID: "t1", Status: estate.PaymentPaid, Page: estate.NewPage(1, 10),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, items, 1)
	assert.Equal(t, 25000.0, items[0].Amount)
	assert.Equal(t, "2025-06-05", items[0].PaymentDate.String())
	assert.Equal(t, "u1", items[0].TenantUserID)
}

func TestUpdateMaintenancePassesOnlySetFields(t *testing.T) {
	s, mock := newStoreWithMock(t)
	now := time.Now().UTC()
	cols := []string{"id", "property_id", "tenant_id", "reported_by", "title", "description", "priority",
		"status", "category", "assigned_to", "estimated_cost", "actual_cost", "completion_date",
		"created_at", "updated_at", "name", "full_name", "user_id"}

	mock.ExpectExec(`update maintenance_requests set`).
		WithArgs("m1", "completed", nil, nil, 1500.0, "2025-06-10").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`from maintenance_requests m.* where m\.id = \$1`).
		WithArgs("m1").
		WillReturnRows(sqlmock.NewRows(cols).AddRow("m1", "p1", "t1", "u1", "Leak", "Sink", "high",
			"completed", "plumbing", "", nil, 1500.0, time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC),
			now, now, "Garden Court", "Jane", "u1"))

	done := estate.MaintenanceCompleted
	completed := day(t, "2025-06-10")
	m, err := s.UpdateMaintenance(context.Background(), "m1", estate.MaintenanceUpdate{
		Status: &done, ActualCost: floatp(1500), CompletionDate: &completed,
	})
	require.NoError(t, err)
	assert.Nil(t, m.EstimatedCost)
	require.NotNil(t, m.ActualCost)
	assert.Equal(t, 1500.0, *m.ActualCost)
	assert.Equal(t, "2025-06-10", m.CompletionDate.String())
}

func TestNotificationsReadState(t *testing.T) {
	s, mock := newStoreWithMock(t)

	mock.ExpectExec(`update notifications set is_read = true where id = \$1 and user_id = \$2 and not is_read`).
		WithArgs("n1", "u1").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`update notifications set is_read = true where user_id = \$1 and not is_read`).
		WithArgs("u1").WillReturnResult(sqlmock.NewResult(0, 3))

	require.ErrorIs(t, s.MarkNotificationRead(context.Background(), "u1", "n1"), estate.ErrNotFound)
	marked, err := s.MarkAllNotificationsRead(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 3, marked)
}

func TestCreateNotificationDefaults(t *testing.T) {
	s, mock := newStoreWithMock(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`insert into notifications\(`).
		WithArgs(sqlmock.AnyArg(), "u1", "Hello", "Body", "info", "system", nil).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(now))

	n := &estate.Notification{UserID: "u1", Title: "Hello", Message: "Body"}
	require.NoError(t, s.CreateNotification(context.Background(), n))
	assert.NotEmpty(t, n.ID)
	assert.Equal(t, estate.NotifyInfo, n.Type)
}

func TestMaintenanceBetweenForReports(t *testing.T) {
	s, mock := newStoreWithMock(t)

	mock.ExpectQuery(`(?s)from maintenance_requests m.* where m\.created_at::date >= \$1 and m\.created_at::date <= \$2 and m\.status = \$3 order by m\.created_at$`).
		WithArgs("2025-03-01", "2025-03-31", "pending").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	items, err := s.MaintenanceBetween(context.Background(), day(t, "2025-03-01"), day(t, "2025-03-31"), estate.MaintenancePending)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func floatp(v float64) *float64 { return &v }
