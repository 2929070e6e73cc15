package catalog

// Pagination defaults and bounds for listing queries.
const (
	DefaultPageSize = 12
	MaxPageSize     = 50
)

// PageRequest is a 1-based page plus a page size.
type PageRequest struct {
	Page  int
	Limit int
}

// Normalize clamps the request to valid bounds: page >= 1, limit
// defaulted and capped.
func (p PageRequest) Normalize() PageRequest {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = DefaultPageSize
	}
	if p.Limit > MaxPageSize {
		p.Limit = MaxPageSize
	}
	return p
}

// Offset returns the store-level offset for the page.
func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.Limit
}

// PageInfo describes the page that was actually served. Total is only
// populated when the caller explicitly asked for page-count metadata;
// the hot path infers HasMore from the returned row count instead of
// issuing a second count query.
type PageInfo struct {
	Page    int    `json:"page"`
	Limit   int    `json:"limit"`
	HasMore bool   `json:"has_more"`
	Total   *int64 `json:"total,omitempty"`
}

// NewPageInfo infers pagination metadata from the number of rows the
// store returned for this call's limit. A full page implies a further
// page may exist.
func NewPageInfo(req PageRequest, returned int) PageInfo {
	return PageInfo{
		Page:    req.Page,
		Limit:   req.Limit,
		HasMore: returned == req.Limit,
	}
}
