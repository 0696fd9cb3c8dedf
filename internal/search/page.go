package search

// DefaultPageSize is how many results a view shows per "load more" step.
const DefaultPageSize = 50

// Page returns the first (page+1)*size results and whether more remain.
func Page[T any](results []T, page, size int) ([]T, bool) {
	if size <= 0 {
		size = DefaultPageSize
	}
	if page < 0 {
		page = 0
	}
	limit := (page + 1) * size
	if limit >= len(results) {
		return results, false
	}
	return results[:limit], true
}
