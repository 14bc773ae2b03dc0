package model

// WindowSize 分页控件中同时显示的页码数量
const WindowSize = 5

// TotalPages 根据币种总数计算总页数 (每页 PageSize 条)，至少为 1 页
func TotalPages(count int) int {
	return PagesFor(count, PageSize)
}

// PagesFor 按指定页大小计算总页数，至少为 1 页
func PagesFor(count, pageSize int) int {
	if pageSize <= 0 {
		pageSize = PageSize
	}
	if count <= 0 {
		return 1
	}
	return (count + pageSize - 1) / pageSize
}

// ClampPage 把页码限制在 [1, total]
func ClampPage(page, total int) int {
	if total < 1 {
		total = 1
	}
	if page < 1 {
		return 1
	}
	if page > total {
		return total
	}
	return page
}

// PageWindow 计算以当前页为中心的滑动页码窗口
// 窗口长度恒为 min(WindowSize, total)，且完全落在 [1, total] 内
func PageWindow(current, total int) []int {
	if total < 1 {
		total = 1
	}
	current = ClampPage(current, total)

	size := WindowSize
	if total < size {
		size = total
	}

	start := current - size/2
	if start < 1 {
		start = 1
	}
	if start+size-1 > total {
		start = total - size + 1
	}

	pages := make([]int, size)
	for i := range pages {
		pages[i] = start + i
	}
	return pages
}

// Window 返回当前分页状态的页码窗口
func (p PaginationState) Window() []int {
	return PageWindow(p.CurrentPage, p.TotalPages)
}

// HasPrev 是否存在上一页
func (p PaginationState) HasPrev() bool {
	return p.CurrentPage > 1
}

// HasNext 是否存在下一页
func (p PaginationState) HasNext() bool {
	return p.CurrentPage < p.TotalPages
}
