package response

type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int64 `json:"total_pages"`
	TotalItems int64 `json:"total_items"`
	HasMore    bool  `json:"has_more"`
	From       int   `json:"from"`
	To         int   `json:"to"`
}

// NewPagination derives the pagination block for one page of results; count
// is the number of items actually on this page.
func NewPagination(page, pageSize int, total int64, count int) *Pagination {
	totalPages := total / int64(pageSize)
	if total%int64(pageSize) != 0 {
		totalPages++
	}

	from, to := 0, 0
	if count > 0 {
		from = (page-1)*pageSize + 1
		to = from + count - 1
	}
	return &Pagination{
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
		TotalItems: total,
		HasMore:    int64(page) < totalPages,
		From:       from,
		To:         to,
	}
}
