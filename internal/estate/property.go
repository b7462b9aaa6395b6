package estate

import (
	"context"
	"errors"
	"strings"
)

func (s *Service) ListProperties(ctx context.Context, f PropertyFilter) (List[Property], error) {
	f.Page = f.Page.normalized()
	f.City = strings.TrimSpace(f.City)
	if f.SortBy == "" {
		f.SortBy = "created_at"
	}
	if !propertySortKeys[f.SortBy] {
		return List[Property]{}, invalid("sort_by must be one of created_at, price, bedrooms, name")
	}
	f.SortOrder = strings.ToLower(f.SortOrder)
	switch f.SortOrder {
	case "":
		f.SortOrder = "desc"
	case "asc", "desc":
	default:
		return List[Property]{}, invalid("sort_order must be asc or desc")
	}
	if f.MinPrice != nil && f.MaxPrice != nil && *f.MinPrice > *f.MaxPrice {
		return List[Property]{}, invalid("min_price must not exceed max_price")
	}
	items, total, err := s.store.ListProperties(ctx, f)
	if err != nil {
		return List[Property]{}, err
	}
	return List[Property]{Items: items, Pagination: f.Page.Describe(total)}, nil
}

func (s *Service) GetProperty(ctx context.Context, id string) (*Property, error) {
	return s.store.GetProperty(ctx, id)
}

func (s *Service) CreateProperty(ctx context.Context, actor Actor, in PropertyInput) (*Property, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := requireFields(
		[2]string{"name", in.Name}, [2]string{"description", in.Description},
		[2]string{"location", in.Location}, [2]string{"city", in.City},
	); err != nil {
		return nil, err
	}
	var absent []string
	for _, f := range []struct {
		name  string
		unset bool
	}{
		{"bedrooms", in.Bedrooms == nil}, {"bathrooms", in.Bathrooms == nil},
		{"size", in.Size == nil}, {"price", in.Price == nil},
	} {
		if f.unset {
			absent = append(absent, f.name)
		}
	}
	if len(absent) > 0 {
		return nil, invalid("missing required fields: %s", strings.Join(absent, ", "))
	}
	if *in.Bedrooms < 0 || *in.Bathrooms < 0 || *in.Size < 0 || *in.Price < 0 {
		return nil, invalid("bedrooms, bathrooms, size and price must be non-negative")
	}
	p := &Property{
		OwnerID:     actor.ID,
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		Location:    strings.TrimSpace(in.Location),
		City:        strings.TrimSpace(in.City),
		Bedrooms:    *in.Bedrooms,
		Bathrooms:   *in.Bathrooms,
		Size:        *in.Size,
		Price:       *in.Price,
		Status:      PropertyAvailable,
		Amenities:   cleanList(in.Amenities),
		Images:      []string{},
	}
	if err := s.store.CreateProperty(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// ownedProperty loads a property and checks the admin actor owns it.
func (s *Service) ownedProperty(ctx context.Context, actor Actor, id string) (*Property, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	p, err := s.store.GetProperty(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.OwnerID != actor.ID {
		return nil, forbidden("only the owner can modify this property")
	}
	return p, nil
}

func (s *Service) UpdateProperty(ctx context.Context, actor Actor, id string, upd PropertyUpdate) (*Property, error) {
	if _, err := s.ownedProperty(ctx, actor, id); err != nil {
		return nil, err
	}
	if upd.Empty() {
		return nil, invalid("no fields to update")
	}
	for name, v := range map[string]*string{"name": upd.Name, "description": upd.Description, "location": upd.Location, "city": upd.City} {
		if v != nil && strings.TrimSpace(*v) == "" {
			return nil, invalid("%s cannot be empty", name)
		}
	}
	for _, n := range []*int{upd.Bedrooms, upd.Bathrooms, upd.Size} {
		if n != nil && *n < 0 {
			return nil, invalid("bedrooms, bathrooms and size must be non-negative")
		}
	}
	if upd.Price != nil && *upd.Price < 0 {
		return nil, invalid("price must be non-negative")
	}
	if upd.Status != nil && !upd.Status.Valid() {
		return nil, invalid("status must be one of available, occupied, maintenance")
	}
	if upd.Amenities != nil {
		cleaned := cleanList(*upd.Amenities)
		upd.Amenities = &cleaned
	}
	return s.store.UpdateProperty(ctx, id, upd)
}

func (s *Service) DeleteProperty(ctx context.Context, actor Actor, id string) error {
	if _, err := s.ownedProperty(ctx, actor, id); err != nil {
		return err
	}
	if _, err := s.store.ActiveTenancyForProperty(ctx, id); err == nil {
		return invalid("cannot delete a property with an active tenancy")
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}
	return s.store.DeleteProperty(ctx, id)
}

// AddPropertyImages stores each image and appends the URLs to the property.
func (s *Service) AddPropertyImages(ctx context.Context, actor Actor, id string, images [][]byte) (*Property, error) {
	if _, err := s.ownedProperty(ctx, actor, id); err != nil {
		return nil, err
	}
	if s.images == nil {
		return nil, invalid("image uploads are not configured")
	}
	if len(images) == 0 {
		return nil, invalid("no images provided")
	}
	urls := make([]string, 0, len(images))
	for _, data := range images {
		url, err := s.images.SaveImage(ctx, data)
		if err != nil {
			return nil, err
		}
		urls = append(urls, url)
	}
	return s.store.AddPropertyImages(ctx, id, urls)
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
