package models

// MaxPageSize caps every list operation.
const MaxPageSize = 100

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
}

// NewPagination builds metadata with totalPages = ceil(total/limit).
func NewPagination(total, page, limit int) *Pagination {
	if limit <= 0 {
		limit = 1
	}
	if page < 1 {
		page = 1
	}
	return &Pagination{
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: (total + limit - 1) / limit,
	}
}

// PageQuery is the page/limit pair accepted by list endpoints.
type PageQuery struct {
	Page  int
	Limit int
}

// Normalize fills defaults and clamps the limit.
func (q PageQuery) Normalize(defaultLimit int) PageQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit <= 0 {
		q.Limit = defaultLimit
	}
	if q.Limit > MaxPageSize {
		q.Limit = MaxPageSize
	}
	return q
}

// Offset returns the row offset for the page.
func (q PageQuery) Offset() int {
	if q.Page < 1 {
		return 0
	}
	return (q.Page - 1) * q.Limit
}
