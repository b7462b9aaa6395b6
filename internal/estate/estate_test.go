package estate

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"estatehub.app/internal/auth"
)

type fixture struct {
	svc    *Service
	store  *MemoryStore
	users  *auth.MemoryStore
	admin  Actor
	other  Actor
	tenant Actor
	images *fakeImages
	mail   *fakeReceipts
}

type fakeImages struct{ saved int }

func (f *fakeImages) SaveImage(_ context.Context, data []byte) (string, error) {
	f.saved++
	return fmt.Sprintf("https://cdn.example/img-%d.jpg", f.saved), nil
}

type fakeReceipts struct{ sent []Receipt }

func (f *fakeReceipts) SendReceipt(_ context.Context, _ Person, r Receipt) error {
	f.sent = append(f.sent, r)
	return nil
}

var fixedNow = time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

func addUser(t *testing.T, users *auth.MemoryStore, email string, role auth.Role) Actor {
	t.Helper()
	u := &auth.User{Email: email, FullName: email, Phone: "+254712345678", Role: role, Status: auth.StatusActive}
	require.NoError(t, users.Create(context.Background(), u))
	return Actor{ID: u.ID, Role: role}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	users := auth.NewMemoryStore()
	dir := NewDirectory(users)
	store := NewMemoryStore(dir)
	f := &fixture{store: store, users: users, images: &fakeImages{}, mail: &fakeReceipts{}}
	f.svc = NewService(store, dir, WithImageStore(f.images), WithReceiptSender(f.mail), WithClock(func() time.Time { return fixedNow }))
	f.admin = addUser(t, users, "admin@example.com", auth.RoleAdmin)
	f.other = addUser(t, users, "other-admin@example.com", auth.RoleAdmin)
	f.tenant = addUser(t, users, "tenant@example.com", auth.RoleTenant)
	return f
}

func intp(v int) *int           { return &v }
func floatp(v float64) *float64 { return &v }
func strp(v string) *string     { return &v }

func date(t *testing.T, s string) Date {
	t.Helper()
	d, err := ParseDate(s)
	require.NoError(t, err)
	return d
}

func (f *fixture) property(t *testing.T, name string, price float64) *Property {
	t.Helper()
	p, err := f.svc.CreateProperty(context.Background(), f.admin, PropertyInput{
		Name: name, Description: "desc", Location: "Kilimani", City: "Nairobi",
		Bedrooms: intp(2), Bathrooms: intp(1), Size: intp(80), Price: floatp(price),
		Amenities: []string{" parking ", "", "wifi"},
	})
	require.NoError(t, err)
	return p
}

func (f *fixture) lease(t *testing.T, propertyID string, tenant Actor) *Tenancy {
	t.Helper()
	tn, err := f.svc.CreateTenancy(context.Background(), f.admin, TenancyInput{
		UserID: tenant.ID, PropertyID: propertyID,
		LeaseStart: date(t, "2025-06-01"), LeaseEnd: date(t, "2026-05-31"),
		MonthlyRent: floatp(25000), DepositAmount: floatp(50000),
		EmergencyContactName: "Kin", EmergencyContactPhone: "0722000000",
	})
	require.NoError(t, err)
	return tn
}

func TestCreatePropertyDefaults(t *testing.T) {
	f := newFixture(t)
	p := f.property(t, "Garden Court", 25000)

	assert.Equal(t, f.admin.ID, p.OwnerID)
	assert.Equal(t, PropertyAvailable, p.Status)
	assert.Equal(t, []string{"parking", "wifi"}, p.Amenities)
	assert.NotEmpty(t, p.ID)

	_, err := f.svc.CreateProperty(context.Background(), f.tenant, PropertyInput{})
	require.ErrorIs(t, err, ErrForbidden)

	_, err = f.svc.CreateProperty(context.Background(), f.admin, PropertyInput{Name: "x", Description: "d", Location: "l", City: "c"})
	require.ErrorIs(t, err, ErrInvalidInput)
	assert.Contains(t, err.Error(), "bedrooms, bathrooms, size, price")

	_, err = f.svc.CreateProperty(context.Background(), f.admin, PropertyInput{Name: "x", Description: "d", Location: "l", City: "c",
		Bedrooms: intp(-1), Bathrooms: intp(1), Size: intp(1), Price: floatp(1)})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestListPropertiesFiltersAndSorts(t *testing.T) {
	f := newFixture(t)
	f.property(t, "Cheap", 10000)
	mid := f.property(t, "Mid", 20000)
	f.property(t, "Pricey", 40000)
	f.lease(t, mid.ID, f.tenant)

	list, err := f.svc.ListProperties(context.Background(), PropertyFilter{SortBy: "price", SortOrder: "asc", Page: NewPage(1, 10)})
	require.NoError(t, err)
	require.Len(t, list.Items, 2, "occupied properties are not listed")
	assert.Equal(t, "Cheap", list.Items[0].Name)
	assert.Equal(t, Pagination{Page: 1, Limit: 10, Total: 2, Pages: 1}, list.Pagination)

	list, err = f.svc.ListProperties(context.Background(), PropertyFilter{MinPrice: floatp(15000)})
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	assert.Equal(t, "Pricey", list.Items[0].Name)

	_, err = f.svc.ListProperties(context.Background(), PropertyFilter{SortBy: "owner"})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestPropertyOwnership(t *testing.T) {
	f := newFixture(t)
	p := f.property(t, "Garden Court", 25000)
	ctx := context.Background()

	_, err := f.svc.UpdateProperty(ctx, f.other, p.ID, PropertyUpdate{Name: strp("Mine now")})
	require.ErrorIs(t, err, ErrForbidden)

	updated, err := f.svc.UpdateProperty(ctx, f.admin, p.ID, PropertyUpdate{Price: floatp(27000)})
	require.NoError(t, err)
	assert.Equal(t, 27000.0, updated.Price)
	assert.Equal(t, "Garden Court", updated.Name)

	bad := PropertyStatus("demolished")
	_, err = f.svc.UpdateProperty(ctx, f.admin, p.ID, PropertyUpdate{Status: &bad})
	require.ErrorIs(t, err, ErrInvalidInput)

	require.ErrorIs(t, f.svc.DeleteProperty(ctx, f.other, p.ID), ErrForbidden)
	require.ErrorIs(t, f.svc.DeleteProperty(ctx, f.admin, "missing"), ErrNotFound)
}

func TestDeletePropertyBlockedByActiveTenancy(t *testing.T) {
	f := newFixture(t)
	p := f.property(t, "Garden Court", 25000)
	tn := f.lease(t, p.ID, f.tenant)
	ctx := context.Background()

	require.ErrorIs(t, f.svc.DeleteProperty(ctx, f.admin, p.ID), ErrInvalidInput)
	require.NoError(t, f.svc.TerminateTenancy(ctx, f.admin, tn.ID))
	require.NoError(t, f.svc.DeleteProperty(ctx, f.admin, p.ID))
	_, err := f.svc.GetProperty(ctx, p.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestAddPropertyImagesSetsFeatured(t *testing.T) {
	f := newFixture(t)
	p := f.property(t, "Garden Court", 25000)

	got, err := f.svc.AddPropertyImages(context.Background(), f.admin, p.ID, [][]byte{{1}, {2}})
	require.NoError(t, err)
	assert.Len(t, got.Images, 2)
	assert.Equal(t, got.Images[0], got.FeaturedImage)

	_, err = f.svc.AddPropertyImages(context.Background(), f.other, p.ID, [][]byte{{1}})
	require.ErrorIs(t, err, ErrForbidden)
}

func TestCreateTenancyRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.property(t, "Garden Court", 25000)
	tn := f.lease(t, p.ID, f.tenant)

	assert.Equal(t, TenancyActive, tn.Status)
	assert.Equal(t, DepositUnpaid, tn.DepositStatus)
	assert.Equal(t, "+254722000000", tn.EmergencyContactPhone)
	assert.Equal(t, "tenant@example.com", tn.TenantName)

	prop, err := f.svc.GetProperty(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, PropertyOccupied, prop.Status)

	inbox, err := f.svc.Notifications(ctx, f.tenant, NewPage(1, 10))
	require.NoError(t, err)
	require.Len(t, inbox.Items, 1)
	assert.Equal(t, TopicLease, inbox.Items[0].Category)

	base := TenancyInput{
		UserID: f.tenant.ID, PropertyID: p.ID,
		LeaseStart: date(t, "2025-06-01"), LeaseEnd: date(t, "2026-05-31"),
		MonthlyRent: floatp(1), DepositAmount: floatp(1),
		EmergencyContactName: "Kin", EmergencyContactPhone: "0722000000",
	}
	second := f.property(t, "Second", 1000)
	newcomer := addUser(t, f.users, "new@example.com", auth.RoleTenant)

	cases := map[string]func(in *TenancyInput){
		"property occupied":    func(in *TenancyInput) { in.UserID = newcomer.ID },
		"user already leasing": func(in *TenancyInput) { in.PropertyID = second.ID },
		"user is admin":        func(in *TenancyInput) { in.UserID, in.PropertyID = f.other.ID, second.ID },
		"unknown user":         func(in *TenancyInput) { in.UserID, in.PropertyID = "ghost", second.ID },
		"end before start": func(in *TenancyInput) {
			in.UserID, in.PropertyID, in.LeaseEnd = newcomer.ID, second.ID, date(t, "2025-05-01")
		},
		"missing rent": func(in *TenancyInput) { in.UserID, in.PropertyID, in.MonthlyRent = newcomer.ID, second.ID, nil },
		"missing contact phone": func(in *TenancyInput) {
			in.UserID, in.PropertyID, in.EmergencyContactPhone = newcomer.ID, second.ID, ""
		},
	}
	for name, mutate := range cases {
		in := base
		mutate(&in)
		_, err := f.svc.CreateTenancy(ctx, f.admin, in)
		require.ErrorIs(t, err, ErrInvalidInput, name)
	}
}

func TestTenancyAccessAndTermination(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.property(t, "Garden Court", 25000)
	tn := f.lease(t, p.ID, f.tenant)
	stranger := addUser(t, f.users, "stranger@example.com", auth.RoleTenant)

	_, err := f.svc.GetTenancy(ctx, stranger, tn.ID)
	require.ErrorIs(t, err, ErrForbidden)
	got, err := f.svc.GetTenancy(ctx, f.tenant, tn.ID)
	require.NoError(t, err)
	assert.Equal(t, p.Name, got.PropertyName)

	current, err := f.svc.CurrentTenancy(ctx, f.tenant)
	require.NoError(t, err)
	assert.Equal(t, tn.ID, current.ID)
	_, err = f.svc.CurrentTenancy(ctx, stranger)
	require.ErrorIs(t, err, ErrNotFound)

	list, err := f.svc.ListTenancies(ctx, f.admin, TenancyFilter{PropertyID: p.ID})
	require.NoError(t, err)
	assert.Len(t, list.Items, 1)
	_, err = f.svc.ListTenancies(ctx, f.tenant, TenancyFilter{})
	require.ErrorIs(t, err, ErrForbidden)

	paid := DepositPaid
	updated, err := f.svc.UpdateTenancy(ctx, f.admin, tn.ID, TenancyUpdate{DepositStatus: &paid})
	require.NoError(t, err)
	assert.Equal(t, DepositPaid, updated.DepositStatus)

	require.NoError(t, f.svc.TerminateTenancy(ctx, f.admin, tn.ID))
	ended, err := f.svc.GetTenancy(ctx, f.admin, tn.ID)
	require.NoError(t, err)
	assert.Equal(t, TenancyInactive, ended.Status)
	assert.Equal(t, "2025-06-10", ended.MoveOutDate.String())

	prop, err := f.svc.GetProperty(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, PropertyAvailable, prop.Status)

	require.ErrorIs(t, f.svc.TerminateTenancy(ctx, f.admin, tn.ID), ErrInvalidInput)
}

func TestRecordPayment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.property(t, "Garden Court", 25000)
	tn := f.lease(t, p.ID, f.tenant)

	in := PaymentInput{
		TenantID: tn.ID, PropertyID: p.ID, Amount: 25000,
		PaymentType: PaymentRent, PaymentMethod: MethodMpesa,
		TransactionReference: "QK12AB34", PaymentDate: date(t, "2025-06-05"),
	}
	pay, err := f.svc.RecordPayment(ctx, f.admin, in)
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^RCP20250610\d{4}$`), pay.ReceiptNumber)
	assert.Equal(t, PaymentPaid, pay.Status)
	assert.Equal(t, in.PaymentDate, pay.DueDate, "due date defaults to payment date")
	require.Len(t, f.mail.sent, 1)
	assert.Equal(t, pay.ReceiptNumber, f.mail.sent[0].ReceiptNumber)

	_, err = f.svc.RecordPayment(ctx, f.admin, in)
	require.ErrorIs(t, err, ErrInvalidInput, "duplicate transaction reference")

	other := f.property(t, "Elsewhere", 1000)
	in.TransactionReference, in.PropertyID = "OTHER1", other.ID
	_, err = f.svc.RecordPayment(ctx, f.admin, in)
	require.ErrorIs(t, err, ErrInvalidInput, "tenancy must belong to property")

	in.PropertyID, in.Amount = p.ID, 0
	_, err = f.svc.RecordPayment(ctx, f.admin, in)
	require.ErrorIs(t, err, ErrInvalidInput)

	in.Amount, in.PaymentMethod = 10, "paypal"
	_, err = f.svc.RecordPayment(ctx, f.admin, in)
	require.ErrorIs(t, err, ErrInvalidInput)

	receipt, err := f.svc.Receipt(ctx, f.tenant, pay.ID)
	require.NoError(t, err)
	assert.Equal(t, "Garden Court", receipt.PropertyName)
	assert.Equal(t, "tenant@example.com", receipt.TenantName)

	stranger := addUser(t, f.users, "stranger@example.com", auth.RoleTenant)
	_, err = f.svc.GetPayment(ctx, stranger, pay.ID)
	require.ErrorIs(t, err, ErrForbidden)

	mine, err := f.svc.ListPayments(ctx, f.tenant, PaymentFilter{})
	require.NoError(t, err)
	assert.Len(t, mine.Items, 1)
	_, err = f.svc.ListPayments(ctx, stranger, PaymentFilter{})
	require.ErrorIs(t, err, ErrNotFound)

	all, err := f.svc.ListPayments(ctx, f.admin, PaymentFilter{Status: PaymentPaid, From: date(t, "2025-06-01"), To: date(t, "2025-06-30")})
	require.NoError(t, err)
	assert.Equal(t, 1, all.Pagination.Total)
}

func TestMaintenanceLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.property(t, "Garden Court", 25000)
	tn := f.lease(t, p.ID, f.tenant)
	elsewhere := f.property(t, "Elsewhere", 1000)

	in := MaintenanceInput{PropertyID: p.ID, Title: "Leak", Description: "Kitchen sink", Priority: PriorityHigh, Category: CategoryPlumbing}
	m, err := f.svc.CreateMaintenance(ctx, f.tenant, in)
	require.NoError(t, err)
	assert.Equal(t, MaintenancePending, m.Status)
	assert.Equal(t, tn.ID, m.TenantID)
	assert.Equal(t, f.tenant.ID, m.ReportedBy)

	for _, admin := range []Actor{f.admin, f.other} {
		n, err := f.svc.UnreadCount(ctx, admin)
		require.NoError(t, err)
		assert.Equal(t, 1, n, "every admin is told about new requests")
	}

	in.PropertyID = elsewhere.ID
	_, err = f.svc.CreateMaintenance(ctx, f.tenant, in)
	require.ErrorIs(t, err, ErrForbidden)

	_, err = f.svc.CreateMaintenance(ctx, f.admin, in)
	require.ErrorIs(t, err, ErrInvalidInput, "no tenancy to attach to")

	in.PropertyID = p.ID
	byAdmin, err := f.svc.CreateMaintenance(ctx, f.admin, in)
	require.NoError(t, err)
	assert.Equal(t, tn.ID, byAdmin.TenantID, "defaults to the active tenancy")

	in.Priority = "whenever"
	_, err = f.svc.CreateMaintenance(ctx, f.admin, in)
	require.ErrorIs(t, err, ErrInvalidInput)

	done := MaintenanceCompleted
	updated, err := f.svc.UpdateMaintenance(ctx, f.admin, m.ID, MaintenanceUpdate{Status: &done, ActualCost: floatp(1500)})
	require.NoError(t, err)
	assert.Equal(t, "2025-06-10", updated.CompletionDate.String())
	assert.Equal(t, 1500.0, *updated.ActualCost)

	_, err = f.svc.UpdateMaintenance(ctx, f.tenant, m.ID, MaintenanceUpdate{Status: &done})
	require.ErrorIs(t, err, ErrForbidden)

	list, err := f.svc.ListMaintenance(ctx, f.tenant, MaintenanceFilter{})
	require.NoError(t, err)
	assert.Equal(t, 2, list.Pagination.Total)

	require.ErrorIs(t, f.svc.DeleteMaintenance(ctx, f.tenant, byAdmin.ID), ErrForbidden)
	require.NoError(t, f.svc.DeleteMaintenance(ctx, f.tenant, m.ID))
	require.NoError(t, f.svc.DeleteMaintenance(ctx, f.admin, byAdmin.ID))
}

func TestNotificationsInbox(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		require.NoError(t, f.store.CreateNotification(ctx, &Notification{UserID: f.tenant.ID, Title: "hello", Message: "m"}))
	}
	require.NoError(t, f.store.CreateNotification(ctx, &Notification{UserID: f.admin.ID, Title: "admin only", Message: "m"}))

	inbox, err := f.svc.Notifications(ctx, f.tenant, NewPage(1, 2))
	require.NoError(t, err)
	assert.Len(t, inbox.Items, 2)
	assert.Equal(t, 3, inbox.UnreadCount)
	assert.Equal(t, Pagination{Page: 1, Limit: 2, Total: 3, Pages: 2}, inbox.Pagination)
	assert.Equal(t, NotifyInfo, inbox.Items[0].Type)
	assert.Equal(t, TopicSystem, inbox.Items[0].Category)

	id := inbox.Items[0].ID
	require.NoError(t, f.svc.MarkNotificationRead(ctx, f.tenant, id))
	require.ErrorIs(t, f.svc.MarkNotificationRead(ctx, f.tenant, id), ErrNotFound, "already read")
	require.ErrorIs(t, f.svc.MarkNotificationRead(ctx, f.admin, inbox.Items[1].ID), ErrNotFound, "someone else's")

	marked, err := f.svc.MarkAllNotificationsRead(ctx, f.tenant)
	require.NoError(t, err)
	assert.Equal(t, 2, marked)
	n, err := f.svc.UnreadCount(ctx, f.tenant)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestPageClamping(t *testing.T) {
	assert.Equal(t, Page{Page: 1, Limit: 10}, NewPage(0, 0))
	assert.Equal(t, Page{Page: 3, Limit: 50}, NewPage(3, 500))
	assert.Equal(t, 20, NewPage(3, 10).Offset())
	assert.Equal(t, Page{Page: MaxPage, Limit: 50}, NewPage(1<<62, 50))
	assert.GreaterOrEqual(t, NewPage(1<<62, 50).Offset(), 0)
	assert.Empty(t, window([]int{1, 2, 3}, NewPage(1<<62, 50)))
	assert.Equal(t, Pagination{Page: 1, Limit: 10, Total: 0, Pages: 0}, NewPage(1, 10).Describe(0))
}

func TestDateJSON(t *testing.T) {
	var v struct {
		D Date `json:"d"`
		E Date `json:"e"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"d":"2025-02-28","e":null}`), &v))
	assert.Equal(t, "2025-02-28", v.D.String())
	assert.True(t, v.E.IsZero())

	out, err := json.Marshal(v)
	require.NoError(t, err)
	assert.JSONEq(t, `{"d":"2025-02-28","e":null}`, string(out))

	require.Error(t, json.Unmarshal([]byte(`{"d":"28/02/2025"}`), &v))

	var scanned Date
	require.NoError(t, scanned.Scan(time.Date(2025, 1, 2, 15, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2025-01-02", scanned.String())
	val, err := scanned.Value()
	require.NoError(t, err)
	assert.Equal(t, "2025-01-02", val)
}
