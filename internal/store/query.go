package store

// Pagination defaults and bounds. Requests outside the bounds are rejected
// at the transport layer before a query is ever built.
const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// ListQuery carries the optional filters and pagination of a list request.
// It is a pure value: each backend translates it into its native
// filter/sort/paginate form.
type ListQuery struct {
	Category string
	MinPrice *float64
	MaxPrice *float64
	Search   string
	Page     int
	Limit    int
}

// DefaultListQuery returns the query shape used when no parameters are supplied.
func DefaultListQuery() ListQuery {
	return ListQuery{Page: DefaultPage, Limit: DefaultLimit}
}

// Offset returns the number of records to skip for the requested page.
func (q ListQuery) Offset() int {
	return (q.Page - 1) * q.Limit
}

// HasFilters reports whether any of the optional filters is active.
func (q ListQuery) HasFilters() bool {
	return q.Category != "" || q.MinPrice != nil || q.MaxPrice != nil || q.Search != ""
}

// IsDefault reports whether this is the default query: no filters, first
// page, default page size. Only default-query results are cacheable.
func (q ListQuery) IsDefault() bool {
	return !q.HasFilters() && q.Page == DefaultPage && q.Limit == DefaultLimit
}
