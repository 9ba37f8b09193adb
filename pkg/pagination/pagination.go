package pagination

const (
	// DefaultLimit is the standard page size when a limit is not provided.
	DefaultLimit = 25
	// MaxLimit caps how many rows any list query can request.
	MaxLimit = 100
)

// Params holds page pagination inputs from controllers or services.
type Params struct {
	Page  int
	Limit int
}

// Page describes the slice of a collection returned to clients.
type Page struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

// Normalize clamps the page to at least 1 and the limit to the configured bounds.
func Normalize(params Params) Params {
	if params.Page <= 0 {
		params.Page = 1
	}
	params.Limit = NormalizeLimit(params.Limit)
	return params
}

// NormalizeLimit enforces the configured default and maximum limits.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// Offset converts normalized params into a SQL offset.
func (p Params) Offset() int {
	page := p.Page
	if page <= 0 {
		page = 1
	}
	return (page - 1) * NormalizeLimit(p.Limit)
}

// NewPage assembles the page metadata for a total row count.
func NewPage(params Params, total int64) Page {
	params = Normalize(params)
	pages := int(total) / params.Limit
	if int(total)%params.Limit != 0 {
		pages++
	}
	return Page{
		Page:       params.Page,
		Limit:      params.Limit,
		Total:      total,
		TotalPages: pages,
	}
}
