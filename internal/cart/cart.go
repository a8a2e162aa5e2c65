package cart

import "Storefront/internal/catalog"

// TaxRate is the fixed 21% applied to every subtotal. Domain constant, not
// configuration.
const TaxRate = 0.21

// Entry holds a product reference and a quantity. The reference is weak: the
// product may have left the catalog since the entry was added. A persisted
// entry never has Qty <= 0.
type Entry struct {
	ProductID string `json:"product_id"`
	Qty       int    `json:"qty"`
}

type Totals struct {
	Subtotal float64 `json:"subtotal"`
	Tax      float64 `json:"tax"`
	Total    float64 `json:"total"`
}

// CalculateTotals joins entries against the catalog by product id. Entries
// whose product is missing contribute nothing; they are stale references,
// not errors. Pure function.
func CalculateTotals(entries []Entry, products []catalog.Product) Totals {
	byID := make(map[string]catalog.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	var subtotal float64
	for _, e := range entries {
		p, ok := byID[e.ProductID]
		if !ok {
			continue
		}
		subtotal += p.Price * float64(e.Qty)
	}

	tax := subtotal * TaxRate
	return Totals{
		Subtotal: subtotal,
		Tax:      tax,
		Total:    subtotal + tax,
	}
}
