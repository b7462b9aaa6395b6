package estate

import "math"

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 50
	// MaxPage keeps (page-1)*limit within int.
	MaxPage = math.MaxInt / MaxPageLimit
)

// Page selects a window of a listing.
type Page struct {
	Page  int
	Limit int
}

// NewPage clamps page to 1..MaxPage and limit to 1..MaxPageLimit, defaulting
// to DefaultPageLimit when unset.
func NewPage(page, limit int) Page {
	switch {
	case page < 1:
		page = 1
	case page > MaxPage:
		page = MaxPage
	}
	switch {
	case limit < 1:
		limit = DefaultPageLimit
	case limit > MaxPageLimit:
		limit = MaxPageLimit
	}
	return Page{Page: page, Limit: limit}
}

func (p Page) normalized() Page { return NewPage(p.Page, p.Limit) }

func (p Page) Offset() int {
	p = p.normalized()
	return (p.Page - 1) * p.Limit
}

// Pagination describes a returned window.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

func (p Page) Describe(total int) Pagination {
	p = p.normalized()
	return Pagination{
		Page:  p.Page,
		Limit: p.Limit,
		Total: total,
		Pages: (total + p.Limit - 1) / p.Limit,
	}
}

// List is one page of results.
type List[T any] struct {
	Items      []T        `json:"items"`
	Pagination Pagination `json:"pagination"`
}

func window[T any](all []T, p Page) []T {
	off := p.Offset()
	if off < 0 || off >= len(all) {
		return []T{}
	}
	end := off + p.normalized().Limit
	if end > len(all) {
		end = len(all)
	}
	return all[off:end]
}
