package shared

const (
	// Default pagination
	DefaultPage  = 1
	DefaultLimit = 20

	// Sort directions
	SortAsc  = "asc"
	SortDesc = "desc"
)

// ListFilters represents standard list page filters
type ListFilters struct {
	Page     int
	Limit    int
	Search   string
	SortBy   string
	SortDir  string
	IsActive *bool

	// Entity specific filters
	Kind       string
	BrandID    *int64
	CategoryID *int64
}

// Offset computes the SQL offset for the current page.
func (f ListFilters) Offset() int {
	page := f.Page
	if page < 1 {
		page = DefaultPage
	}
	limit := f.Limit
	if limit < 1 {
		limit = DefaultLimit
	}
	return (page - 1) * limit
}
