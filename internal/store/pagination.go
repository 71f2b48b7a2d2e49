package store

// Page size bounds applied when the caller sends nothing or too much.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// PageParams is a 1-based page request.
type PageParams struct {
	Page     int
	PageSize int
}

// Normalize clamps the request into valid bounds.
func (p PageParams) Normalize(defaultSize, maxSize int) PageParams {
	if defaultSize <= 0 {
		defaultSize = DefaultPageSize
	}
	if maxSize <= 0 {
		maxSize = MaxPageSize
	}
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize <= 0 {
		p.PageSize = defaultSize
	}
	if p.PageSize > maxSize {
		p.PageSize = maxSize
	}
	return p
}

// Offset returns the row offset, (page-1)*pageSize.
func (p PageParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// Limit returns the row limit.
func (p PageParams) Limit() int {
	return p.PageSize
}
