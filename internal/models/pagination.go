package models

// Pagination is the envelope returned by every paged operation.
type Pagination struct {
	CurrentPage int   `json:"current_page"`
	TotalPages  int   `json:"total_pages"`
	TotalItems  int64 `json:"total_items"`
	HasNext     bool  `json:"has_next"`
	HasPrev     bool  `json:"has_prev"`
}

// NewPagination computes the envelope for page (1-based) of pageSize items
// out of total.
func NewPagination(page, pageSize int, total int64) Pagination {
	totalPages := 0
	if pageSize > 0 {
		totalPages = int((total + int64(pageSize) - 1) / int64(pageSize))
	}
	return Pagination{
		CurrentPage: page,
		TotalPages:  totalPages,
		TotalItems:  total,
		HasNext:     page < totalPages,
		HasPrev:     page > 1,
	}
}

// EmptyPagination is the envelope for a page that was never queried.
func EmptyPagination(page int) Pagination {
	return Pagination{CurrentPage: page}
}

// PageRequest is a normalised page/pageSize pair.
type PageRequest struct {
	Page     int
	PageSize int
}

// NormalizePage clamps page to >= 1 and pageSize to [1, maxSize], using
// defaultSize when pageSize is not positive.
func NormalizePage(page, pageSize, defaultSize, maxSize int) PageRequest {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = defaultSize
	}
	if maxSize > 0 && pageSize > maxSize {
		pageSize = maxSize
	}
	if pageSize < 1 {
		pageSize = 1
	}
	return PageRequest{Page: page, PageSize: pageSize}
}

// Offset returns the row offset of the page.
func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.PageSize
}
