package browse

// PaginationResult holds pagination metadata.
type PaginationResult struct {
	TotalCount int
	Truncated  bool
}

// ApplyPagination returns the paginated slice and metadata.
// It handles bounds checking to prevent panics and clamps offset/limit.
func ApplyPagination[T any](items []T, offset, limit int) ([]T, PaginationResult) {
	totalCount := len(items)
	start := min(max(offset, 0), totalCount)
	end := min(start+max(limit, 0), totalCount)

	return items[start:end], PaginationResult{
		TotalCount: totalCount,
		Truncated:  end < totalCount,
	}
}
