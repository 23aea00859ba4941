package common

import (
	"net/http"
	"strconv"
)

// maxPerPage caps the page size for the admin bill and user listings.
const maxPerPage = 100

// Pagination is the metadata block attached to list responses.
type Pagination struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	TotalItems int `json:"total_items"`
}

// ParsePagination reads `page` and `limit` from the query string, falling
// back to page 1 and the caller's default page size. Non-numeric or
// non-positive values keep the defaults; limit is clamped to maxPerPage.
func ParsePagination(r *http.Request, defaultPerPage int) (page, perPage int) {
	page = 1
	perPage = defaultPerPage
	q := r.URL.Query()
	if v, err := strconv.Atoi(q.Get("page")); err == nil && v > 0 {
		page = v
	}
	if v, err := strconv.Atoi(q.Get("limit")); err == nil && v > 0 {
		perPage = v
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}
	return
}
