package httpapi

import (
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"estatehub.app/internal/estate"
)

// query reads optional typed parameters and remembers the first bad one.
type query struct {
	values url.Values
	err    error
}

func queryOf(r *http.Request) *query { return &query{values: r.URL.Query()} }

func (q *query) str(name string) string { return strings.TrimSpace(q.values.Get(name)) }

func (q *query) integer(name string) *int {
	raw := q.str(name)
	if raw == "" || q.err != nil {
		return nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		q.err = invalidBody(name + " must be an integer")
		return nil
	}
	return &v
}

func (q *query) number(name string) *float64 {
	raw := q.str(name)
	if raw == "" || q.err != nil {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		q.err = invalidBody(name + " must be a number")
		return nil
	}
	return &v
}

func (q *query) date(name string) estate.Date {
	raw := q.str(name)
	if raw == "" || q.err != nil {
		return estate.Date{}
	}
	d, err := estate.ParseDate(raw)
	if err != nil {
		q.err = invalidBody(name + " must be YYYY-MM-DD")
	}
	return d
}

// page parses page and limit leniently; out-of-range values are clamped.
func (q *query) page() estate.Page {
	page, _ := strconv.Atoi(q.str("page"))
	limit, _ := strconv.Atoi(q.str("limit"))
	return estate.NewPage(page, limit)
}
