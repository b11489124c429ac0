package common

import (
	"net/http"
	"strconv"
)

// Pagination holds pagination metadata for list responses.
type Pagination struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	TotalItems int `json:"total_items"`
}

// Page describes a requested window over a list.
type Page struct {
	Number  int
	PerPage int
}

// Offset returns the zero-based row offset of the page.
func (p Page) Offset() int {
	if p.Number <= 1 {
		return 0
	}
	return (p.Number - 1) * p.PerPage
}

// Meta builds response metadata for the page given the total row count.
func (p Page) Meta(total int64) Pagination {
	return Pagination{Page: p.Number, PerPage: p.PerPage, TotalItems: int(total)}
}

// ParsePagination extracts page and limit query parameters, clamping limit to max.
func ParsePagination(r *http.Request, defaultPerPage, max int) Page {
	page := Page{Number: 1, PerPage: defaultPerPage}
	if p, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && p > 0 {
		page.Number = p
	}
	if l, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && l > 0 {
		page.PerPage = l
	}
	if max > 0 && page.PerPage > max {
		page.PerPage = max
	}
	return page
}
