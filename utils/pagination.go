package utils

// PageInfo 分页元信息
type PageInfo struct {
	TotalItems  int  `json:"total_items"`
	TotalPages  int  `json:"total_pages"`
	CurrentPage int  `json:"current_page"`
	HasNext     bool `json:"has_next"`
	HasPrev     bool `json:"has_prev"`
	ItemsInPage int  `json:"items_in_page"`
}

// Paginate 对内存中的切片做分页，page 从 1 开始
func Paginate[T any](items []T, page, pageSize int) ([]T, PageInfo) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}

	total := len(items)
	totalPages := (total + pageSize - 1) / pageSize

	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}

	pageItems := items[start:end]
	return pageItems, PageInfo{
		TotalItems:  total,
		TotalPages:  totalPages,
		CurrentPage: page,
		HasNext:     page < totalPages,
		HasPrev:     page > 1 && total > 0,
		ItemsInPage: len(pageItems),
	}
}
