package catalog

import (
	"sort"
	"strings"
	"sync"
)

const defaultPerPage = 9

// Store owns the catalog for the session: loaded once at startup, replaced
// wholesale on reload, queried many times. Until the first Replace it is
// empty and not loaded.
type Store struct {
	mu       sync.RWMutex
	products []Product
	loaded   bool
}

func NewStore() *Store {
	return &Store{}
}

// Replace swaps in a new catalog. The store takes its own copy.
func (s *Store) Replace(products []Product) {
	cp := make([]Product, len(products))
	copy(cp, products)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.products = cp
	s.loaded = true
}

func (s *Store) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.products)
}

// Products returns the full catalog in load order.
func (s *Store) Products() []Product {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Product, len(s.products))
	copy(out, s.products)
	return out
}

func (s *Store) Get(id string) (Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.products {
		if p.ID == id {
			return p, true
		}
	}
	return Product{}, false
}

// Categories lists the distinct categories in first-seen order, for the
// category filter control.
func (s *Store) Categories() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{}, 8)
	out := make([]string, 0, 8)
	for _, p := range s.products {
		if _, ok := seen[p.Category]; ok {
			continue
		}
		seen[p.Category] = struct{}{}
		out = append(out, p.Category)
	}
	return out
}

// Query runs the fixed pipeline: category filter, then search, then sort,
// then pagination. Pagination must stay last so Meta.Total reflects the
// filtered set, not the whole catalog. Every step returns a fresh slice;
// the stored catalog is never reordered.
func (s *Store) Query(q Query) Result {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PerPage < 1 {
		q.PerPage = defaultPerPage
	}

	arr := s.Products()
	if q.Category != nil {
		arr = filterByCategory(arr, *q.Category)
	}
	if q.Search != "" {
		arr = searchProducts(arr, q.Search)
	}
	arr = sortProducts(arr, q.Sort)

	total := len(arr)
	pages := 0
	if total > 0 {
		pages = (total + q.PerPage - 1) / q.PerPage
	}

	start := (q.Page - 1) * q.PerPage
	end := start + q.PerPage
	switch {
	case start >= total:
		arr = []Product{}
	case end > total:
		arr = arr[start:total]
	default:
		arr = arr[start:end]
	}

	return Result{
		Products: arr,
		Meta: Meta{
			Page:    q.Page,
			PerPage: q.PerPage,
			Total:   total,
			Pages:   pages,
		},
	}
}

func filterByCategory(arr []Product, category string) []Product {
	out := make([]Product, 0, len(arr))
	for _, p := range arr {
		if p.Category == category {
			out = append(out, p)
		}
	}
	return out
}

// searchProducts keeps products whose name or description contains the term,
// case-insensitive. Plain substring containment, no tokenization or ranking.
func searchProducts(arr []Product, term string) []Product {
	q := strings.ToLower(strings.TrimSpace(term))

	out := make([]Product, 0, len(arr))
	for _, p := range arr {
		if strings.Contains(strings.ToLower(p.Name), q) ||
			strings.Contains(strings.ToLower(p.Description), q) {
			out = append(out, p)
		}
	}
	return out
}

func sortProducts(arr []Product, key SortKey) []Product {
	out := make([]Product, len(arr))
	copy(out, arr)

	switch key {
	case SortPriceAsc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Price < out[j].Price })
	case SortPriceDesc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Price > out[j].Price })
	case SortRatingDesc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Rating > out[j].Rating })
	}
	return out
}
