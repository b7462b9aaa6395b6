package pg

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"estatehub.app/internal/estate"
	"estatehub.app/internal/ids"
)

const propertyColumns = `p.id, p.owner_id, p.name, p.description, p.location, p.city, p.bedrooms, p.bathrooms,
	p.size, p.price, p.status, p.amenities, p.images, p.featured_image, p.created_at, p.updated_at`

const propertyFrom = `from properties p`

var propertyOrder = map[string]string{
	"created_at": "p.created_at",
	"price":      "p.price",
	"bedrooms":   "p.bedrooms",
	"name":       "p.name",
}

func scanProperty(row rowScanner) (estate.Property, error) {
	var (
		p         estate.Property
		amenities []byte
		images    []byte
		featured  sql.NullString
	)
	err := row.Scan(&p.ID, &p.OwnerID, &p.Name, &p.Description, &p.Location, &p.City, &p.Bedrooms,
		&p.Bathrooms, &p.Size, &p.Price, &p.Status, &amenities, &images, &featured, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return estate.Property{}, notFound(err)
	}
	if p.Amenities, err = decodeList(amenities); err != nil {
		return estate.Property{}, fmt.Errorf("decode amenities: %w", err)
	}
	if p.Images, err = decodeList(images); err != nil {
		return estate.Property{}, fmt.Errorf("decode images: %w", err)
	}
	p.FeaturedImage = featured.String
	return p, nil
}

func decodeList(raw []byte) ([]string, error) {
	out := []string{}
	if len(raw) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []string{}
	}
	return out, nil
}

func encodeList(v []string) (string, error) {
	if v == nil {
		v = []string{}
	}
	b, err := json.Marshal(v)
	return string(b), err
}

func (s *Store) ListProperties(ctx context.Context, f estate.PropertyFilter) ([]estate.Property, int, error) {
	w := &where{}
	w.add("p.status = ?", string(estate.PropertyAvailable))
	if f.City != "" {
		w.add("lower(p.city) = lower(?)", f.City)
	}
	if f.MinPrice != nil {
		w.add("p.price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		w.add("p.price <= ?", *f.MaxPrice)
	}
	if f.Bedrooms != nil {
		w.add("p.bedrooms = ?", *f.Bedrooms)
	}
	col, ok := propertyOrder[f.SortBy]
	if !ok {
		col = propertyOrder["created_at"]
	}
	order := col + " " + direction(f.SortOrder) + ", p.id"
	return listPage(ctx, s.db, propertyColumns, propertyFrom, w, order, f.Page, scanProperty)
}

func (s *Store) GetProperty(ctx context.Context, id string) (*estate.Property, error) {
	p, err := scanProperty(s.db.QueryRowContext(ctx,
		`select `+propertyColumns+` `+propertyFrom+` where p.id = $1`, id))
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) CreateProperty(ctx context.Context, p *estate.Property) error {
	if p.ID == "" {
		p.ID = ids.New()
	}
	amenities, err := encodeList(p.Amenities)
	if err != nil {
		return err
	}
	images, err := encodeList(p.Images)
	if err != nil {
		return err
	}
	err = s.db.QueryRowContext(ctx, `
		insert into properties(id, owner_id, name, description, location, city, bedrooms, bathrooms,
			size, price, status, amenities, images, featured_image)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		returning created_at, updated_at
	`, p.ID, p.OwnerID, p.Name, p.Description, p.Location, p.City, p.Bedrooms, p.Bathrooms,
		p.Size, p.Price, string(p.Status), amenities, images, nullIfEmpty(p.FeaturedImage),
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return integrityError(err)
	}
	return nil
}

func (s *Store) UpdateProperty(ctx context.Context, id string, upd estate.PropertyUpdate) (*estate.Property, error) {
	var amenities any
	if upd.Amenities != nil {
		encoded, err := encodeList(*upd.Amenities)
		if err != nil {
			return nil, err
		}
		amenities = encoded
	}
	var status any
	if upd.Status != nil {
		status = string(*upd.Status)
	}
	err := execOne(ctx, s.db, `
		update properties set
			name = coalesce($2, name),
			description = coalesce($3, description),
			location = coalesce($4, location),
			city = coalesce($5, city),
			bedrooms = coalesce($6, bedrooms),
			bathrooms = coalesce($7, bathrooms),
			size = coalesce($8, size),
			price = coalesce($9, price),
			amenities = coalesce($10::jsonb, amenities),
			status = coalesce($11, status)
		where id = $1
	`, id, upd.Name, upd.Description, upd.Location, upd.City, upd.Bedrooms, upd.Bathrooms,
		upd.Size, upd.Price, amenities, status)
	if err != nil {
		return nil, err
	}
	return s.GetProperty(ctx, id)
}

func (s *Store) DeleteProperty(ctx context.Context, id string) error {
	return execOne(ctx, s.db, `delete from properties where id = $1`, id)
}

// AddPropertyImages appends urls and sets the featured image when unset.
func (s *Store) AddPropertyImages(ctx context.Context, id string, urls []string) (*estate.Property, error) {
	encoded, err := encodeList(urls)
	if err != nil {
		return nil, err
	}
	var first any
	if len(urls) > 0 {
		first = urls[0]
	}
	err = execOne(ctx, s.db, `
		update properties set
			images = images || $2::jsonb,
			featured_image = coalesce(featured_image, images->>0, $3)
		where id = $1
	`, id, encoded, first)
	if err != nil {
		return nil, err
	}
	return s.GetProperty(ctx, id)
}
