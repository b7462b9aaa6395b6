package httpapi

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5"

	"estatehub.app/internal/estate"
	"estatehub.app/internal/media"
)

const (
	maxImagesPerUpload = 10
	// maxUploadBytes bounds a whole multipart request.
	maxUploadBytes = maxImagesPerUpload*media.MaxImageBytes + 1<<20
)

func (a *API) listProperties(w http.ResponseWriter, r *http.Request) {
	q := queryOf(r)
	f := estate.PropertyFilter{
		City:      q.str("city"),
		MinPrice:  q.number("min_price"),
		MaxPrice:  q.number("max_price"),
		Bedrooms:  q.integer("bedrooms"),
		SortBy:    q.str("sort_by"),
		SortOrder: q.str("sort_order"),
		Page:      q.page(),
	}
	if q.err != nil {
		writeError(w, r, q.err)
		return
	}
	list, err := a.svc.Estate.ListProperties(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"properties": list.Items, "pagination": list.Pagination})
}

func (a *API) getProperty(w http.ResponseWriter, r *http.Request) {
	p, err := a.svc.Estate.GetProperty(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"property": p})
}

func (a *API) createProperty(w http.ResponseWriter, r *http.Request) {
	var in estate.PropertyInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	p, err := a.svc.Estate.CreateProperty(r.Context(), actorOf(r), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	a.record(r, "property.create", "property", p.ID, map[string]any{"name": p.Name})
	respond(w, http.StatusCreated, map[string]any{"property_id": p.ID, "message": "Property created successfully"})
}

func (a *API) updateProperty(w http.ResponseWriter, r *http.Request) {
	var upd estate.PropertyUpdate
	if err := decodeJSON(r, &upd); err != nil {
		writeError(w, r, err)
		return
	}
	id := chi.URLParam(r, "id")
	p, err := a.svc.Estate.UpdateProperty(r.Context(), actorOf(r), id, upd)
	if err != nil {
		writeError(w, r, err)
		return
	}
	a.record(r, "property.update", "property", id, nil)
	respond(w, http.StatusOK, map[string]any{"property": p, "message": "Property updated successfully"})
}

func (a *API) deleteProperty(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := a.svc.Estate.DeleteProperty(r.Context(), actorOf(r), id); err != nil {
		writeError(w, r, err)
		return
	}
	a.record(r, "property.delete", "property", id, nil)
	respond(w, http.StatusOK, map[string]string{"message": "Property deleted successfully"})
}

func (a *API) uploadPropertyImages(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, r, err)
			return
		}
		badRequest(w, "expected multipart form with images")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	files := r.MultipartForm.File["images"]
	if len(files) == 0 {
		badRequest(w, "no images provided")
		return
	}
	if len(files) > maxImagesPerUpload {
		badRequest(w, fmt.Sprintf("at most %d images per upload", maxImagesPerUpload))
		return
	}
	images := make([][]byte, 0, len(files))
	for _, fh := range files {
		data, err := readPart(fh)
		if err != nil {
			writeError(w, r, err)
			return
		}
		images = append(images, data)
	}

	id := chi.URLParam(r, "id")
	p, err := a.svc.Estate.AddPropertyImages(r.Context(), actorOf(r), id, images)
	if err != nil {
		writeError(w, r, err)
		return
	}
	a.record(r, "property.upload_images", "property", id, map[string]any{"count": len(images)})
	respond(w, http.StatusOK, map[string]any{
		"images":         p.Images,
		"featured_image": p.FeaturedImage,
		"message":        "Images uploaded successfully",
	})
}

// readPart loads one uploaded file, reading one byte past the image cap so
// the media layer can reject oversize files.
func readPart(fh *multipart.FileHeader) ([]byte, error) {
	if fh.Size > media.MaxImageBytes {
		return nil, fmt.Errorf("%w: %s", media.ErrTooLarge, fh.Filename)
	}
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, media.MaxImageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	return data, nil
}
