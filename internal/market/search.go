package market

import "fmt"

type SortBy string

const (
	SortPriceLow  SortBy = "price_low"
	SortPriceHigh SortBy = "price_high"
	SortNewest    SortBy = "newest"
	SortOldest    SortBy = "oldest"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ProductSearch filters the catalog. Only available products are returned.
type ProductSearch struct {
	Query      string   `json:"query"`       // matches name, brand, description
	CategoryID int64    `json:"category_id"` // 0 = any
	Brand      string   `json:"brand"`
	Tags       []string `json:"tags"` // any-of match
	MinPrice   *int64   `json:"min_price"`
	MaxPrice   *int64   `json:"max_price"`
	SortBy     SortBy   `json:"sort_by"`
	Page       int      `json:"page"`
	PageSize   int      `json:"page_size"`
}

// Normalize applies defaults and validates ranges.
func (q *ProductSearch) Normalize() error {
	if q.SortBy == "" {
		q.SortBy = SortNewest
	}
	switch q.SortBy {
	case SortPriceLow, SortPriceHigh, SortNewest, SortOldest:
	default:
		return fmt.Errorf("%w: unknown sort_by %q", ErrInvalidInput, q.SortBy)
	}
	if q.Page == 0 {
		q.Page = 1
	}
	if q.Page < 1 {
		return fmt.Errorf("%w: page must be >= 1", ErrInvalidInput)
	}
	if q.PageSize == 0 {
		q.PageSize = DefaultPageSize
	}
	if q.PageSize < 1 || q.PageSize > MaxPageSize {
		return fmt.Errorf("%w: page_size must be 1..%d", ErrInvalidInput, MaxPageSize)
	}
	if q.MinPrice != nil && *q.MinPrice < 0 {
		return fmt.Errorf("%w: min_price must be >= 0", ErrInvalidInput)
	}
	if q.MaxPrice != nil && *q.MaxPrice < 0 {
		return fmt.Errorf("%w: max_price must be >= 0", ErrInvalidInput)
	}
	return nil
}

type ProductPage struct {
	Total      int       `json:"total"`
	Page       int       `json:"page"`
	PageSize   int       `json:"page_size"`
	TotalPages int       `json:"total_pages"`
	Products   []Product `json:"products"`
}
