package pagination

// Metadata describes the page returned alongside a listing.
type Metadata struct {
	Total      int64 `json:"total"`       // Total number of items across all pages
	Page       int   `json:"page"`        // Current page number (1-based)
	Limit      int   `json:"limit"`       // Items per page
	TotalPages int   `json:"total_pages"` // Calculated total number of pages
}

// NewMetadata builds the metadata for params given the unpaginated total.
func NewMetadata(params Params, total int64) Metadata {
	return Metadata{
		Total:      total,
		Page:       params.Page,
		Limit:      params.Limit,
		TotalPages: CalculateTotalPages(total, params.Limit),
	}
}
