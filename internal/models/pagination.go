package models

import "math"

const (
	DefaultPage  int64 = 1
	DefaultLimit int64 = 20
	MaxLimit     int64 = 50

	// MaxPage keeps (Page-1)*Limit within int64
	MaxPage = math.MaxInt64 / MaxLimit
)

// Pagination is page-number based paging
type Pagination struct {
	Page  int64
	Limit int64
}

// Normalize fills defaults and clamps the limit to MaxLimit and the page to MaxPage
func (p Pagination) Normalize() Pagination {
	if p.Page < 1 {
		p.Page = DefaultPage
	}
	if p.Page > MaxPage {
		p.Page = MaxPage
	}
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	return p
}

// Skip is the number of records before the requested page
func (p Pagination) Skip() int64 {
	n := p.Normalize()
	return (n.Page - 1) * n.Limit
}

// Paginated is one page of results. Total is a best-effort count.
type Paginated[T any] struct {
	Data  []T   `json:"data"`
	Total int64 `json:"total"`
	Page  int64 `json:"page"`
}
