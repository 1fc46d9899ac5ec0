package model

import "math"

// PageRequest selects a 1-based page of a listing.
type PageRequest struct {
	Page    int
	PerPage int
}

// NewPageRequest clamps page and perPage to sane values.
func NewPageRequest(page, perPage int) PageRequest {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}
	if perPage > 100 {
		perPage = 100
	}
	// keep Offset within a signed 32-bit range
	if last := math.MaxInt32/perPage + 1; page > last {
		page = last
	}
	return PageRequest{Page: page, PerPage: perPage}
}

func (p PageRequest) Limit() int  { return p.PerPage }
func (p PageRequest) Offset() int { return (p.Page - 1) * p.PerPage }

// Page is one page of a listing together with the total item count.
type Page[T any] struct {
	Items   []T   `json:"items"`
	Page    int   `json:"page"`
	PerPage int   `json:"per_page"`
	Total   int64 `json:"total"`
}

// NewPage assembles a Page from a request and its results.
func NewPage[T any](req PageRequest, items []T, total int64) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{Items: items, Page: req.Page, PerPage: req.PerPage, Total: total}
}

// Pages returns the number of pages needed for Total items.
func (p Page[T]) Pages() int {
	if p.PerPage <= 0 || p.Total == 0 {
		return 0
	}
	return int((p.Total + int64(p.PerPage) - 1) / int64(p.PerPage))
}

func (p Page[T]) HasNext() bool { return p.Page < p.Pages() }
func (p Page[T]) HasPrev() bool { return p.Page > 1 }
