package shipments

// Ellipsis marks a gap in a page-number window.
const Ellipsis = -1

// PageNumbers computes the page links the list view renders: all pages when
// there are five or fewer, otherwise the first and last page with a window
// centered on the current page and Ellipsis markers for the gaps.
func PageNumbers(totalPages, current int) []int {
	if totalPages <= 0 {
		return []int{}
	}
	if current < 1 {
		current = 1
	}
	if current > totalPages {
		current = totalPages
	}

	if totalPages <= 5 {
		pages := make([]int, 0, totalPages)
		for p := 1; p <= totalPages; p++ {
			pages = append(pages, p)
		}
		return pages
	}

	pages := []int{1}

	start := current - 1
	if start < 2 {
		start = 2
	}
	end := current + 1
	if end > totalPages-1 {
		end = totalPages - 1
	}

	if start > 2 {
		pages = append(pages, Ellipsis)
	}
	for p := start; p <= end; p++ {
		pages = append(pages, p)
	}
	if end < totalPages-1 {
		pages = append(pages, Ellipsis)
	}

	return append(pages, totalPages)
}
