package pagination

const (
	DefaultPerPage = 20
	MaxPerPage     = 100
)

// Page position inside a paginated listing.
type Page struct {
	Page       int  `json:"page"`
	PerPage    int  `json:"per_page"`
	Total      int  `json:"total"`
	TotalPages int  `json:"total_pages"`
	Offset     int  `json:"-"`
	HasPrev    bool `json:"has_prev"`
	HasNext    bool `json:"has_next"`
}

// Request normalizes page and perPage before the total is known,
// so the caller can build LIMIT/OFFSET for the query.
func Request(page, perPage int) (int, int) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}
	return page, perPage
}

// New computes the page once the total count is known. A page beyond the
// last one is clamped to the last page; an empty listing has one empty page.
func New(page, perPage, total int) Page {
	page, perPage = Request(page, perPage)
	if total < 0 {
		total = 0
	}

	pages := (total + perPage - 1) / perPage
	if pages < 1 {
		pages = 1
	}
	if page > pages {
		page = pages
	}

	return Page{
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: pages,
		Offset:     (page - 1) * perPage,
		HasPrev:    page > 1,
		HasNext:    page < pages,
	}
}

// Limit is PerPage, named for use in queries.
func (p Page) Limit() int {
	return p.PerPage
}
