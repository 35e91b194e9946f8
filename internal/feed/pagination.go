package feed

// DefaultPageSize is the number of blogs on one listing page.
const DefaultPageSize = 6

// PageCount is ceil(total/pageSize), never less than 1.
func PageCount(total int64, pageSize int) int {
	if pageSize <= 0 || total <= 0 {
		return 1
	}
	n := int((total + int64(pageSize) - 1) / int64(pageSize))
	if n < 1 {
		return 1
	}
	return n
}

// ClampPage moves page into [1, pageCount].
func ClampPage(page, pageCount int) int {
	if pageCount < 1 {
		pageCount = 1
	}
	if page < 1 {
		return 1
	}
	if page > pageCount {
		return pageCount
	}
	return page
}

type Pagination struct {
	Page      int   `json:"page"`
	PageCount int   `json:"page_count"`
	PageSize  int   `json:"page_size"`
	Total     int64 `json:"total"`
	HasPrev   bool  `json:"has_prev"`
	HasNext   bool  `json:"has_next"`
}

// Paginate clamps requested against total and describes the result.
func Paginate(total int64, pageSize, requested int) Pagination {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	count := PageCount(total, pageSize)
	page := ClampPage(requested, count)
	return Pagination{
		Page:      page,
		PageCount: count,
		PageSize:  pageSize,
		Total:     total,
		HasPrev:   page > 1,
		HasNext:   page < count,
	}
}
