package estate

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

func (s *Service) ListMaintenance(ctx context.Context, actor Actor, f MaintenanceFilter) (List[MaintenanceRequest], error) {
	f.Page = f.Page.normalized()
	if actor.IsAdmin() {
		if f.Status != "" && !f.Status.Valid() {
			return List[MaintenanceRequest]{}, invalid("status must be one of pending, in_progress, completed, cancelled")
		}
		if f.Priority != "" && !f.Priority.Valid() {
			return List[MaintenanceRequest]{}, invalid("priority must be one of low, medium, high, emergency")
		}
	} else {
		t, err := s.store.ActiveTenancyForUser(ctx, actor.ID)
		if err != nil {
			return List[MaintenanceRequest]{}, err
		}
		f = MaintenanceFilter{TenancyID: t.ID, Page: f.Page}
	}
	items, total, err := s.store.ListMaintenance(ctx, f)
	if err != nil {
		return List[MaintenanceRequest]{}, err
	}
	return List[MaintenanceRequest]{Items: items, Pagination: f.Page.Describe(total)}, nil
}

func (s *Service) GetMaintenance(ctx context.Context, actor Actor, id string) (*MaintenanceRequest, error) {
	m, err := s.store.GetMaintenance(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && m.TenantUserID != actor.ID && m.ReportedBy != actor.ID {
		return nil, forbidden("request belongs to another tenancy")
	}
	return m, nil
}

func (s *Service) CreateMaintenance(ctx context.Context, actor Actor, in MaintenanceInput) (*MaintenanceRequest, error) {
	if err := requireFields(
		[2]string{"property_id", in.PropertyID}, [2]string{"title", in.Title},
		[2]string{"description", in.Description}, [2]string{"priority", string(in.Priority)},
		[2]string{"category", string(in.Category)},
	); err != nil {
		return nil, err
	}
	if !in.Priority.Valid() {
		return nil, invalid("priority must be one of low, medium, high, emergency")
	}
	if !in.Category.Valid() {
		return nil, invalid("category must be one of plumbing, electrical, structural, appliance, other")
	}
	prop, err := s.store.GetProperty(ctx, in.PropertyID)
	if err != nil {
		return nil, notFoundAs(err, "property not found")
	}

	var tenancy *Tenancy
	switch {
	case !actor.IsAdmin():
		tenancy, err = s.store.ActiveTenancyForUser(ctx, actor.ID)
		if errors.Is(err, ErrNotFound) || (err == nil && tenancy.PropertyID != in.PropertyID) {
			return nil, forbidden("you are not assigned to this property")
		}
	case in.TenantID != "":
		tenancy, err = s.store.GetTenancy(ctx, in.TenantID)
		if err == nil && tenancy.PropertyID != in.PropertyID {
			return nil, invalid("tenancy does not belong to this property")
		}
		err = notFoundAs(err, "tenancy not found")
	default:
		tenancy, err = s.store.ActiveTenancyForProperty(ctx, in.PropertyID)
		err = notFoundAs(err, "property has no active tenancy; provide tenant_id")
	}
	if err != nil {
		return nil, err
	}

	m := &MaintenanceRequest{
		PropertyID:  in.PropertyID,
		TenantID:    tenancy.ID,
		ReportedBy:  actor.ID,
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Priority:    in.Priority,
		Status:      MaintenancePending,
		Category:    in.Category,
	}
	if err := s.store.CreateMaintenance(ctx, m); err != nil {
		return nil, err
	}
	m.PropertyName, m.TenantUserID = prop.Name, tenancy.UserID

	s.notifyAdmins(ctx, "New maintenance request",
		fmt.Sprintf("%s (%s priority) reported at %s.", m.Title, m.Priority, prop.Name),
		TopicMaintenance, "/maintenance/"+m.ID)
	return m, nil
}

func (s *Service) UpdateMaintenance(ctx context.Context, actor Actor, id string, upd MaintenanceUpdate) (*MaintenanceRequest, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if upd.Empty() {
		return nil, invalid("no fields to update")
	}
	if upd.Status != nil && !upd.Status.Valid() {
		return nil, invalid("status must be one of pending, in_progress, completed, cancelled")
	}
	for _, c := range []*float64{upd.EstimatedCost, upd.ActualCost} {
		if c != nil && *c < 0 {
			return nil, invalid("costs must be non-negative")
		}
	}
	if _, err := s.store.GetMaintenance(ctx, id); err != nil {
		return nil, err
	}
	if upd.Status != nil && *upd.Status == MaintenanceCompleted && upd.CompletionDate == nil {
		today := s.today()
		upd.CompletionDate = &today
	}
	m, err := s.store.UpdateMaintenance(ctx, id, upd)
	if err != nil {
		return nil, err
	}
	if upd.Status != nil {
		typ := NotifyInfo
		if m.Status == MaintenanceCompleted {
			typ = NotifySuccess
		}
		s.notify(ctx, m.ReportedBy, "Maintenance request updated",
			fmt.Sprintf("%q is now %s.", m.Title, strings.ReplaceAll(string(m.Status), "_", " ")),
			typ, TopicMaintenance, "/maintenance/"+m.ID)
	}
	return m, nil
}

// DeleteMaintenance removes a request. Only its reporter or an admin may.
func (s *Service) DeleteMaintenance(ctx context.Context, actor Actor, id string) error {
	m, err := s.store.GetMaintenance(ctx, id)
	if err != nil {
		return err
	}
	if !actor.IsAdmin() && m.ReportedBy != actor.ID {
		return forbidden("only the reporter or an admin can delete this request")
	}
	return s.store.DeleteMaintenance(ctx, id)
}
