package services

// Pagination defaults shared by all listing operations
const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// ListOutput represents one page of a listing plus pagination metadata.
// Catalog, member and ledger listings all share this shape instead of
// repeating it per resource type.
type ListOutput[T any] struct {
	Data       []T   `json:"data"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"total_pages"`
}

// clampPagination normalizes page and limit to sane bounds
func clampPagination(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return page, limit
}

// newListOutput builds a ListOutput with computed page count.
// A page past the end of the range yields empty Data, never an error.
func newListOutput[T any](data []T, total int64, page, limit int) *ListOutput[T] {
	totalPages := int(total) / limit
	if int(total)%limit > 0 {
		totalPages++
	}

	if data == nil {
		data = []T{}
	}

	return &ListOutput[T]{
		Data:       data,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
	}
}
