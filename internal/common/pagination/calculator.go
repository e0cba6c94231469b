package pagination

// CalculateOffset calculates the OFFSET value based on page number and limit.
// Page numbers are 1-based, so page 1 has offset 0.
//
// Examples:
//   - Page 1, Limit 20 -> Offset 0
//   - Page 3, Limit 10 -> Offset 20
func CalculateOffset(page, limit int) int {
	if page < 1 || limit < 1 {
		return 0
	}
	return (page - 1) * limit
}

// CalculateTotalPages returns ceil(total / limit), with a minimum of one page.
// An unbounded listing (limit < 1) is always a single page.
func CalculateTotalPages(total int64, limit int) int {
	if total == 0 || limit < 1 {
		return 1
	}
	return int((total + int64(limit) - 1) / int64(limit))
}
