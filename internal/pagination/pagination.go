// Package pagination holds the page/sort contract shared by the catalog
// and request listing endpoints.
package pagination

type Order string

const (
	OrderAscending  Order = "asc"
	OrderDescending Order = "desc"
)

// ParseOrder maps a query-parameter value to an Order, falling back to
// the given default for unrecognized input.
func ParseOrder(value string, fallback Order) Order {
	switch Order(value) {
	case OrderAscending, OrderDescending:
		return Order(value)
	default:
		return fallback
	}
}

// Params carries the caller-supplied paging inputs. Page is 1-based.
type Params struct {
	Page int
	Size int
}

// Normalize coerces page and size to their minimums of 1.
func (p Params) Normalize() Params {
	if p.Page <= 0 {
		p.Page = 1
	}
	if p.Size <= 0 {
		p.Size = 1
	}
	return p
}

// Offset returns the row offset for the normalized page.
func (p Params) Offset() int {
	return (p.Page - 1) * p.Size
}

// Page is the uniform paginated response envelope.
type Page[T any] struct {
	Items        []T   `json:"items"`
	TotalItems   int64 `json:"total_items"`
	TotalPages   int   `json:"total_pages"`
	CurrentPage  int   `json:"current_page"`
	ItemsPerPage int   `json:"items_per_page"`
}

// NewPage wraps items with paging metadata. TotalPages is the ceiling of
// total/size.
func NewPage[T any](items []T, total int64, params Params) Page[T] {
	params = params.Normalize()
	if items == nil {
		items = []T{}
	}
	totalPages := int((total + int64(params.Size) - 1) / int64(params.Size))
	return Page[T]{
		Items:        items,
		TotalItems:   total,
		TotalPages:   totalPages,
		CurrentPage:  params.Page,
		ItemsPerPage: params.Size,
	}
}

// SinglePage wraps an unpaginated result set as page 1.
func SinglePage[T any](items []T) Page[T] {
	size := len(items)
	if size == 0 {
		size = 1
	}
	return NewPage(items, int64(len(items)), Params{Page: 1, Size: size})
}
