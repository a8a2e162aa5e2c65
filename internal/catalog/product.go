package catalog

// Product is immutable within a session; the loader replaces the whole
// collection at once. Image and Features are display-only.
type Product struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Price       float64  `json:"price"`
	Rating      float64  `json:"rating"`
	Stock       int      `json:"stock"`
	Image       string   `json:"image"`
	Features    []string `json:"features"`
}

type SortKey string

const (
	SortNone       SortKey = ""
	SortPriceAsc   SortKey = "price-asc"
	SortPriceDesc  SortKey = "price-desc"
	SortRatingDesc SortKey = "rating-desc"
)

// Query describes one catalog lookup. Category is an explicit optional so a
// category literally named "" stays reachable; nil means no category filter.
// An empty Search means no search; an unknown Sort preserves catalog order.
type Query struct {
	Page     int
	PerPage  int
	Category *string
	Search   string
	Sort     SortKey
}

type Meta struct {
	Page    int `json:"page"`
	PerPage int `json:"perPage"`
	Total   int `json:"total"`
	Pages   int `json:"pages"`
}

type Result struct {
	Products []Product `json:"products"`
	Meta     Meta      `json:"meta"`
}
