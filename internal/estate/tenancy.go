package estate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"estatehub.app/internal/auth"
)

func (s *Service) ListTenancies(ctx context.Context, actor Actor, f TenancyFilter) (List[Tenancy], error) {
	if err := requireAdmin(actor); err != nil {
		return List[Tenancy]{}, err
	}
	f.Page = f.Page.normalized()
	items, total, err := s.store.ListTenancies(ctx, f)
	if err != nil {
		return List[Tenancy]{}, err
	}
	return List[Tenancy]{Items: items, Pagination: f.Page.Describe(total)}, nil
}

func (s *Service) GetTenancy(ctx context.Context, actor Actor, id string) (*Tenancy, error) {
	t, err := s.store.GetTenancy(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && t.UserID != actor.ID {
		return nil, forbidden("tenancy belongs to another tenant")
	}
	return t, nil
}

// CurrentTenancy returns the caller's active lease.
func (s *Service) CurrentTenancy(ctx context.Context, actor Actor) (*Tenancy, error) {
	return s.store.ActiveTenancyForUser(ctx, actor.ID)
}

func (s *Service) CreateTenancy(ctx context.Context, actor Actor, in TenancyInput) (*Tenancy, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := requireFields(
		[2]string{"user_id", in.UserID}, [2]string{"property_id", in.PropertyID},
		[2]string{"lease_start_date", in.LeaseStart.String()}, [2]string{"lease_end_date", in.LeaseEnd.String()},
		[2]string{"emergency_contact_name", in.EmergencyContactName},
		[2]string{"emergency_contact_phone", in.EmergencyContactPhone},
	); err != nil {
		return nil, err
	}
	if in.MonthlyRent == nil || in.DepositAmount == nil {
		return nil, invalid("missing required fields: monthly_rent, deposit_amount")
	}
	if *in.MonthlyRent <= 0 || *in.DepositAmount < 0 {
		return nil, invalid("monthly_rent must be positive and deposit_amount non-negative")
	}
	if !in.LeaseEnd.After(in.LeaseStart.Time) {
		return nil, invalid("lease_end_date must be after lease_start_date")
	}
	phone, err := auth.NormalizePhone(in.EmergencyContactPhone)
	if err != nil {
		return nil, invalid("emergency_contact_phone must be a valid Kenyan mobile number")
	}

	prop, err := s.store.GetProperty(ctx, in.PropertyID)
	if err != nil {
		return nil, notFoundAs(err, "property not found")
	}
	if prop.Status != PropertyAvailable {
		return nil, invalid("property is not available")
	}
	person, err := s.people.Person(ctx, in.UserID)
	if err != nil {
		return nil, notFoundAs(err, "user not found")
	}
	if person.Role != auth.RoleTenant {
		return nil, invalid("user is not a tenant")
	}
	if _, err := s.store.ActiveTenancyForUser(ctx, in.UserID); err == nil {
		return nil, invalid("user already has an active tenancy")
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	moveIn := in.MoveInDate
	if moveIn.IsZero() {
		moveIn = in.LeaseStart
	}
	t := &Tenancy{
		UserID:                in.UserID,
		PropertyID:            in.PropertyID,
		LeaseStart:            in.LeaseStart,
		LeaseEnd:              in.LeaseEnd,
		MonthlyRent:           *in.MonthlyRent,
		DepositAmount:         *in.DepositAmount,
		DepositStatus:         DepositUnpaid,
		EmergencyContactName:  strings.TrimSpace(in.EmergencyContactName),
		EmergencyContactPhone: phone,
		MoveInDate:            moveIn,
		Status:                TenancyActive,
		Notes:                 strings.TrimSpace(in.Notes),
	}
	if err := s.store.CreateTenancy(ctx, t); err != nil {
		if errors.Is(err, ErrConflict) {
			return nil, invalid("property is not available")
		}
		return nil, err
	}
	t.TenantName, t.TenantEmail, t.TenantPhone = person.FullName, person.Email, person.Phone
	t.PropertyName, t.PropertyLocation = prop.Name, prop.Location

	s.notify(ctx, t.UserID, "Lease created",
		fmt.Sprintf("Your lease for %s runs from %s to %s.", prop.Name, t.LeaseStart, t.LeaseEnd),
		NotifySuccess, TopicLease, "/tenants/current")
	return t, nil
}

func (s *Service) UpdateTenancy(ctx context.Context, actor Actor, id string, upd TenancyUpdate) (*Tenancy, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if upd.Empty() {
		return nil, invalid("no fields to update")
	}
	t, err := s.store.GetTenancy(ctx, id)
	if err != nil {
		return nil, err
	}
	if upd.LeaseEnd != nil && !upd.LeaseEnd.After(t.LeaseStart.Time) {
		return nil, invalid("lease_end_date must be after lease_start_date")
	}
	if upd.MonthlyRent != nil && *upd.MonthlyRent <= 0 {
		return nil, invalid("monthly_rent must be positive")
	}
	if upd.DepositStatus != nil && !upd.DepositStatus.Valid() {
		return nil, invalid("deposit_status must be one of paid, unpaid, refunded")
	}
	if upd.EmergencyContactName != nil && strings.TrimSpace(*upd.EmergencyContactName) == "" {
		return nil, invalid("emergency_contact_name cannot be empty")
	}
	if upd.EmergencyContactPhone != nil {
		phone, err := auth.NormalizePhone(*upd.EmergencyContactPhone)
		if err != nil {
			return nil, invalid("emergency_contact_phone must be a valid Kenyan mobile number")
		}
		upd.EmergencyContactPhone = &phone
	}
	return s.store.UpdateTenancy(ctx, id, upd)
}

// TerminateTenancy ends an active lease today and frees the property.
func (s *Service) TerminateTenancy(ctx context.Context, actor Actor, id string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	t, err := s.store.GetTenancy(ctx, id)
	if err != nil {
		return err
	}
	if t.Status != TenancyActive {
		return invalid("tenancy is not active")
	}
	if err := s.store.TerminateTenancy(ctx, id, s.today()); err != nil {
		return err
	}
	s.notify(ctx, t.UserID, "Lease terminated",
		fmt.Sprintf("Your lease for %s has been terminated.", t.PropertyName),
		NotifyWarning, TopicLease, "")
	return nil
}
