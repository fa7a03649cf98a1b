// internal/app/system/paging/paging.go
package paging

import (
	"net/http"
	"strconv"

	"github.com/dalemusser/waffle/pantry/query"
)

// DefaultPerPage is the page size used when the caller does not ask for one.
const DefaultPerPage = 20

// MaxPerPage caps per_page so a single request cannot pull a whole collection.
const MaxPerPage = 100

// MaxPage caps page so the row offset stays far from integer overflow.
const MaxPage = 100000

// Params is a normalized 1-based page request.
type Params struct {
	Page    int
	PerPage int
}

// Normalize clamps page to [1, MaxPage] and perPage to [1, MaxPerPage], using
// def when perPage is not positive.
func Normalize(page, perPage, def int) Params {
	if def < 1 {
		def = DefaultPerPage
	}
	if page < 1 {
		page = 1
	}
	if page > MaxPage {
		page = MaxPage
	}
	if perPage < 1 {
		perPage = def
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}
	return Params{Page: page, PerPage: perPage}
}

// Parse reads "page" and "per_page" from the query string. Missing or
// malformed values fall back to page 1 and def.
func Parse(r *http.Request, def int) Params {
	return Normalize(atoi(query.Get(r, "page")), atoi(query.Get(r, "per_page")), def)
}

func atoi(s string) int {
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

// Skip is the number of rows before this page, as int64 for Mongo options.
func (p Params) Skip() int64 {
	if p.Page < 1 || p.PerPage < 1 {
		return 0
	}
	return int64(min(p.Page, MaxPage)-1) * int64(min(p.PerPage, MaxPerPage))
}

// Limit is PerPage as int64 for Mongo options.
func (p Params) Limit() int64 { return int64(p.PerPage) }

// Meta is the pagination block attached to list envelopes.
type Meta struct {
	Page       int   `json:"page"`
	PerPage    int   `json:"per_page"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

// MetaFor builds Meta for a list of total rows.
func (p Params) MetaFor(total int64) Meta {
	return Meta{
		Page:       p.Page,
		PerPage:    p.PerPage,
		Total:      total,
		TotalPages: TotalPages(total, p.PerPage),
	}
}

// TotalPages is ceil(total/perPage), 0 when there are no rows.
func TotalPages(total int64, perPage int) int {
	if perPage <= 0 || total <= 0 {
		return 0
	}
	return int((total + int64(perPage) - 1) / int64(perPage))
}

// Window returns the sub-slice of rows for p. Pages past the end are empty.
func Window[T any](rows []T, p Params) []T {
	if p.Page < 1 || p.PerPage < 1 || p.Page-1 > len(rows)/p.PerPage {
		return []T{}
	}
	start := (p.Page - 1) * p.PerPage
	if start >= len(rows) {
		return []T{}
	}
	end := start + p.PerPage
	if end > len(rows) {
		end = len(rows)
	}
	return rows[start:end]
}
