package estate

import (
	"context"
	"errors"

	"estatehub.app/internal/auth"
)

// Store persists the estate domain. Multi-row state changes (CreateTenancy,
// TerminateTenancy) are atomic.
type Store interface {
	ListProperties(ctx context.Context, f PropertyFilter) ([]Property, int, error)
	GetProperty(ctx context.Context, id string) (*Property, error)
	CreateProperty(ctx context.Context, p *Property) error
	UpdateProperty(ctx context.Context, id string, upd PropertyUpdate) (*Property, error)
	DeleteProperty(ctx context.Context, id string) error
	AddPropertyImages(ctx context.Context, id string, urls []string) (*Property, error)

	ListTenancies(ctx context.Context, f TenancyFilter) ([]Tenancy, int, error)
	GetTenancy(ctx context.Context, id string) (*Tenancy, error)
	ActiveTenancyForUser(ctx context.Context, userID string) (*Tenancy, error)
	ActiveTenancyForProperty(ctx context.Context, propertyID string) (*Tenancy, error)
	// CreateTenancy inserts t and flips the property to occupied. It fails
	// with ErrConflict when the property is no longer available.
	CreateTenancy(ctx context.Context, t *Tenancy) error
	UpdateTenancy(ctx context.Context, id string, upd TenancyUpdate) (*Tenancy, error)
	// TerminateTenancy deactivates the lease and frees the property.
	TerminateTenancy(ctx context.Context, id string, moveOut Date) error

	ListPayments(ctx context.Context, f PaymentFilter) ([]Payment, int, error)
	GetPayment(ctx context.Context, id string) (*Payment, error)
	// CreatePayment fails with ErrConflict on a reused transaction reference
	// and ErrReceiptTaken on a receipt number collision.
	CreatePayment(ctx context.Context, p *Payment) error

	ListMaintenance(ctx context.Context, f MaintenanceFilter) ([]MaintenanceRequest, int, error)
	GetMaintenance(ctx context.Context, id string) (*MaintenanceRequest, error)
	CreateMaintenance(ctx context.Context, m *MaintenanceRequest) error
	UpdateMaintenance(ctx context.Context, id string, upd MaintenanceUpdate) (*MaintenanceRequest, error)
	DeleteMaintenance(ctx context.Context, id string) error

	ListNotifications(ctx context.Context, userID string, p Page) ([]Notification, int, error)
	UnreadCount(ctx context.Context, userID string) (int, error)
	CreateNotification(ctx context.Context, n *Notification) error
	// MarkNotificationRead fails with ErrNotFound unless an unread
	// notification with id belongs to userID.
	MarkNotificationRead(ctx context.Context, userID, id string) error
	MarkAllNotificationsRead(ctx context.Context, userID string) (int, error)
}

// Person is the slice of an account the estate domain needs.
type Person struct {
	ID       string
	FullName string
	Email    string
	Phone    string
	Role     auth.Role
	Status   auth.Status
}

// Directory resolves accounts referenced by estate records.
type Directory interface {
	Person(ctx context.Context, id string) (*Person, error)
	Admins(ctx context.Context) ([]Person, error)
}

// UserLister is the subset of auth.UserStore a Directory is built from.
type UserLister interface {
	Find(ctx context.Context, id string) (*auth.User, error)
	ListByRole(ctx context.Context, role auth.Role) ([]*auth.User, error)
}

type userDirectory struct{ users UserLister }

// NewDirectory adapts an auth user store into a Directory.
func NewDirectory(users UserLister) Directory { return userDirectory{users: users} }

func personOf(u *auth.User) Person {
	return Person{ID: u.ID, FullName: u.FullName, Email: u.Email, Phone: u.Phone, Role: u.Role, Status: u.Status}
}

func (d userDirectory) Person(ctx context.Context, id string) (*Person, error) {
	u, err := d.users.Find(ctx, id)
	if errors.Is(err, auth.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	p := personOf(u)
	return &p, nil
}

func (d userDirectory) Admins(ctx context.Context) ([]Person, error) {
	users, err := d.users.ListByRole(ctx, auth.RoleAdmin)
	if err != nil {
		return nil, err
	}
	out := make([]Person, 0, len(users))
	for _, u := range users {
		if u.Status == auth.StatusActive {
			out = append(out, personOf(u))
		}
	}
	return out, nil
}
