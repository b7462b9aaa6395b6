package estate

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"estatehub.app/internal/ids"
)

var _ Store = (*MemoryStore)(nil)

// MemoryStore is an in-process Store for development and tests. Names of
// tenants are resolved through the Directory at read time.
type MemoryStore struct {
	mu            sync.RWMutex
	people        Directory
	properties    map[string]*Property
	tenancies     map[string]*Tenancy
	payments      map[string]*Payment
	maintenance   map[string]*MaintenanceRequest
	notifications map[string]*Notification
	now           func() time.Time
}

func NewMemoryStore(people Directory) *MemoryStore {
	return &MemoryStore{
		people:        people,
		properties:    make(map[string]*Property),
		tenancies:     make(map[string]*Tenancy),
		payments:      make(map[string]*Payment),
		maintenance:   make(map[string]*MaintenanceRequest),
		notifications: make(map[string]*Notification),
		now:           time.Now,
	}
}

func (s *MemoryStore) stamp() time.Time { return s.now().UTC() }

func cloneProperty(p *Property) Property {
	cp := *p
	cp.Amenities = append([]string{}, p.Amenities...)
	cp.Images = append([]string{}, p.Images...)
	return cp
}

// Properties ---------------------------------------------------------------

func (s *MemoryStore) ListProperties(_ context.Context, f PropertyFilter) ([]Property, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var all []Property
	for _, p := range s.properties {
		if p.Status != PropertyAvailable {
			continue
		}
		if f.City != "" && !strings.EqualFold(p.City, f.City) {
			continue
		}
		if f.MinPrice != nil && p.Price < *f.MinPrice {
			continue
		}
		if f.MaxPrice != nil && p.Price > *f.MaxPrice {
			continue
		}
		if f.Bedrooms != nil && p.Bedrooms != *f.Bedrooms {
			continue
		}
		all = append(all, cloneProperty(p))
	}
	less := func(a, b Property) bool { return a.CreatedAt.Before(b.CreatedAt) }
	switch f.SortBy {
	case "price":
		less = func(a, b Property) bool { return a.Price < b.Price }
	case "bedrooms":
		less = func(a, b Property) bool { return a.Bedrooms < b.Bedrooms }
	case "name":
		less = func(a, b Property) bool { return a.Name < b.Name }
	}
	sort.SliceStable(all, func(i, j int) bool {
		if f.SortOrder == "asc" {
			return less(all[i], all[j])
		}
		return less(all[j], all[i])
	})
	return window(all, f.Page), len(all), nil
}

func (s *MemoryStore) GetProperty(_ context.Context, id string) (*Property, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.properties[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := cloneProperty(p)
	return &cp, nil
}

func (s *MemoryStore) CreateProperty(_ context.Context, p *Property) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == "" {
		p.ID = ids.New()
	}
	p.CreatedAt, p.UpdatedAt = s.stamp(), s.stamp()
	cp := cloneProperty(p)
	s.properties[p.ID] = &cp
	return nil
}

func (s *MemoryStore) UpdateProperty(_ context.Context, id string, upd PropertyUpdate) (*Property, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.properties[id]
	if !ok {
		return nil, ErrNotFound
	}
	setIf(&p.Name, upd.Name)
	setIf(&p.Description, upd.Description)
	setIf(&p.Location, upd.Location)
	setIf(&p.City, upd.City)
	setIf(&p.Bedrooms, upd.Bedrooms)
	setIf(&p.Bathrooms, upd.Bathrooms)
	setIf(&p.Size, upd.Size)
	setIf(&p.Price, upd.Price)
	setIf(&p.Amenities, upd.Amenities)
	setIf(&p.Status, upd.Status)
	p.UpdatedAt = s.stamp()
	cp := cloneProperty(p)
	return &cp, nil
}

func (s *MemoryStore) DeleteProperty(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.properties[id]; !ok {
		return ErrNotFound
	}
	delete(s.properties, id)
	return nil
}

func (s *MemoryStore) AddPropertyImages(_ context.Context, id string, urls []string) (*Property, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.properties[id]
	if !ok {
		return nil, ErrNotFound
	}
	p.Images = append(p.Images, urls...)
	if p.FeaturedImage == "" && len(p.Images) > 0 {
		p.FeaturedImage = p.Images[0]
	}
	p.UpdatedAt = s.stamp()
	cp := cloneProperty(p)
	return &cp, nil
}

// Tenancies ----------------------------------------------------------------

// joinTenancy copies t and fills the joined names. Callers hold s.mu.
func (s *MemoryStore) joinTenancy(ctx context.Context, t *Tenancy) Tenancy {
	cp := *t
	if p, ok := s.properties[t.PropertyID]; ok {
		cp.PropertyName, cp.PropertyLocation = p.Name, p.Location
	}
	if s.people != nil {
		if person, err := s.people.Person(ctx, t.UserID); err == nil {
			cp.TenantName, cp.TenantEmail, cp.TenantPhone = person.FullName, person.Email, person.Phone
		}
	}
	return cp
}

func (s *MemoryStore) ListTenancies(ctx context.Context, f TenancyFilter) ([]Tenancy, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var all []Tenancy
	for _, t := range s.tenancies {
		if t.Status != TenancyActive {
			continue
		}
		if f.PropertyID != "" && t.PropertyID != f.PropertyID {
			continue
		}
		all = append(all, s.joinTenancy(ctx, t))
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	return window(all, f.Page), len(all), nil
}

func (s *MemoryStore) GetTenancy(ctx context.Context, id string) (*Tenancy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tenancies[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := s.joinTenancy(ctx, t)
	return &cp, nil
}

func (s *MemoryStore) activeTenancy(match func(*Tenancy) bool) *Tenancy {
	for _, t := range s.tenancies {
		if t.Status == TenancyActive && match(t) {
			return t
		}
	}
	return nil
}

func (s *MemoryStore) ActiveTenancyForUser(ctx context.Context, userID string) (*Tenancy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t := s.activeTenancy(func(t *Tenancy) bool { return t.UserID == userID })
	if t == nil {
		return nil, ErrNotFound
	}
	cp := s.joinTenancy(ctx, t)
	return &cp, nil
}

func (s *MemoryStore) ActiveTenancyForProperty(ctx context.Context, propertyID string) (*Tenancy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t := s.activeTenancy(func(t *Tenancy) bool { return t.PropertyID == propertyID })
	if t == nil {
		return nil, ErrNotFound
	}
	cp := s.joinTenancy(ctx, t)
	return &cp, nil
}

func (s *MemoryStore) CreateTenancy(_ context.Context, t *Tenancy) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.properties[t.PropertyID]
	if !ok || p.Status != PropertyAvailable {
		return ErrConflict
	}
	if s.activeTenancy(func(x *Tenancy) bool { return x.UserID == t.UserID }) != nil {
		return ErrConflict
	}
	if t.ID == "" {
		t.ID = ids.New()
	}
	now := s.stamp()
	t.CreatedAt, t.UpdatedAt = now, now
	cp := *t
	s.tenancies[t.ID] = &cp
	p.Status = PropertyOccupied
	p.UpdatedAt = now
	return nil
}

func (s *MemoryStore) UpdateTenancy(ctx context.Context, id string, upd TenancyUpdate) (*Tenancy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tenancies[id]
	if !ok {
		return nil, ErrNotFound
	}
	setIf(&t.LeaseEnd, upd.LeaseEnd)
	setIf(&t.MonthlyRent, upd.MonthlyRent)
	setIf(&t.DepositStatus, upd.DepositStatus)
	setIf(&t.EmergencyContactName, upd.EmergencyContactName)
	setIf(&t.EmergencyContactPhone, upd.EmergencyContactPhone)
	setIf(&t.Notes, upd.Notes)
	t.UpdatedAt = s.stamp()
	cp := s.joinTenancy(ctx, t)
	return &cp, nil
}

func (s *MemoryStore) TerminateTenancy(_ context.Context, id string, moveOut Date) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tenancies[id]
	if !ok {
		return ErrNotFound
	}
	now := s.stamp()
	t.Status = TenancyInactive
	t.MoveOutDate = moveOut
	t.UpdatedAt = now
	if p, ok := s.properties[t.PropertyID]; ok {
		p.Status = PropertyAvailable
		p.UpdatedAt = now
	}
	return nil
}

// Payments -----------------------------------------------------------------

func (s *MemoryStore) joinPayment(ctx context.Context, p *Payment) Payment {
	cp := *p
	if t, ok := s.tenancies[p.TenantID]; ok {
		joined := s.joinTenancy(ctx, t)
		cp.TenantName, cp.TenantUserID = joined.TenantName, t.UserID
	}
	if prop, ok := s.properties[p.PropertyID]; ok {
		cp.PropertyName = prop.Name
	}
	return cp
}

func (s *MemoryStore) ListPayments(ctx context.Context, f PaymentFilter) ([]Payment, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var all []Payment
	for _, p := range s.payments {
		if f.TenancyID != "" && p.TenantID != f.TenancyID {
			continue
		}
		if f.Status != "" && p.Status != f.Status {
			continue
		}
		if !f.From.IsZero() && p.PaymentDate.Before(f.From.Time) {
			continue
		}
		if !f.To.IsZero() && p.PaymentDate.After(f.To.Time) {
			continue
		}
		all = append(all, s.joinPayment(ctx, p))
	}
	sort.SliceStable(all, func(i, j int) bool {
		if !all[i].PaymentDate.Equal(all[j].PaymentDate.Time) {
			return all[i].PaymentDate.After(all[j].PaymentDate.Time)
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	return window(all, f.Page), len(all), nil
}

func (s *MemoryStore) GetPayment(ctx context.Context, id string) (*Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.payments[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := s.joinPayment(ctx, p)
	return &cp, nil
}

func (s *MemoryStore) CreatePayment(_ context.Context, p *Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.payments {
		if existing.TransactionReference == p.TransactionReference {
			return ErrConflict
		}
		if existing.ReceiptNumber == p.ReceiptNumber {
			return ErrReceiptTaken
		}
	}
	if p.ID == "" {
		p.ID = ids.New()
	}
	now := s.stamp()
	p.CreatedAt, p.UpdatedAt = now, now
	cp := *p
	s.payments[p.ID] = &cp
	return nil
}

// Maintenance --------------------------------------------------------------

func (s *MemoryStore) joinMaintenance(ctx context.Context, m *MaintenanceRequest) MaintenanceRequest {
	cp := *m
	if prop, ok := s.properties[m.PropertyID]; ok {
		cp.PropertyName = prop.Name
	}
	if t, ok := s.tenancies[m.TenantID]; ok {
		cp.TenantUserID = t.UserID
	}
	if s.people != nil {
		if person, err := s.people.Person(ctx, m.ReportedBy); err == nil {
			cp.ReporterName = person.FullName
		}
	}
	return cp
}

func (s *MemoryStore) ListMaintenance(ctx context.Context, f MaintenanceFilter) ([]MaintenanceRequest, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var all []MaintenanceRequest
	for _, m := range s.maintenance {
		if f.TenancyID != "" && m.TenantID != f.TenancyID {
			continue
		}
		if f.Status != "" && m.Status != f.Status {
			continue
		}
		if f.Priority != "" && m.Priority != f.Priority {
			continue
		}
		all = append(all, s.joinMaintenance(ctx, m))
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	return window(all, f.Page), len(all), nil
}

func (s *MemoryStore) GetMaintenance(ctx context.Context, id string) (*MaintenanceRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.maintenance[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := s.joinMaintenance(ctx, m)
	return &cp, nil
}

func (s *MemoryStore) CreateMaintenance(_ context.Context, m *MaintenanceRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m.ID == "" {
		m.ID = ids.New()
	}
	now := s.stamp()
	m.CreatedAt, m.UpdatedAt = now, now
	cp := *m
	s.maintenance[m.ID] = &cp
	return nil
}

func (s *MemoryStore) UpdateMaintenance(ctx context.Context, id string, upd MaintenanceUpdate) (*MaintenanceRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.maintenance[id]
	if !ok {
		return nil, ErrNotFound
	}
	setIf(&m.Status, upd.Status)
	setIf(&m.AssignedTo, upd.AssignedTo)
	setIf(&m.CompletionDate, upd.CompletionDate)
	if upd.EstimatedCost != nil {
		v := *upd.EstimatedCost
		m.EstimatedCost = &v
	}
	if upd.ActualCost != nil {
		v := *upd.ActualCost
		m.ActualCost = &v
	}
	m.UpdatedAt = s.stamp()
	cp := s.joinMaintenance(ctx, m)
	return &cp, nil
}

func (s *MemoryStore) DeleteMaintenance(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.maintenance[id]; !ok {
		return ErrNotFound
	}
	delete(s.maintenance, id)
	return nil
}

// Notifications ------------------------------------------------------------

func (s *MemoryStore) ListNotifications(_ context.Context, userID string, p Page) ([]Notification, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var all []Notification
	for _, n := range s.notifications {
		if n.UserID == userID {
			all = append(all, *n)
		}
	}
	sort.SliceStable(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID > all[j].ID
	})
	return window(all, p), len(all), nil
}

func (s *MemoryStore) UnreadCount(_ context.Context, userID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, x := range s.notifications {
		if x.UserID == userID && !x.IsRead {
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) CreateNotification(_ context.Context, n *Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n.ID == "" {
		n.ID = ids.New()
	}
	if n.Type == "" {
		n.Type = NotifyInfo
	}
	if n.Category == "" {
		n.Category = TopicSystem
	}
	n.CreatedAt = s.stamp()
	cp := *n
	s.notifications[n.ID] = &cp
	return nil
}

func (s *MemoryStore) MarkNotificationRead(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notifications[id]
	if !ok || n.UserID != userID || n.IsRead {
		return ErrNotFound
	}
	n.IsRead = true
	return nil
}

func (s *MemoryStore) MarkAllNotificationsRead(_ context.Context, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	marked := 0
	for _, n := range s.notifications {
		if n.UserID == userID && !n.IsRead {
			n.IsRead = true
			marked++
		}
	}
	return marked, nil
}

func setIf[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}
