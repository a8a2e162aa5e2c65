package cart_test

import (
	"testing"

	"Storefront/internal/cart"
	"Storefront/internal/catalog"
)

func TestCalculateTotals(t *testing.T) {
	products := []catalog.Product{
		{ID: "a", Name: "A", Price: 100},
		{ID: "b", Name: "B", Price: 10},
	}

	t.Run("applies 21 percent tax", func(t *testing.T) {
		entries := []cart.Entry{{ProductID: "a", Qty: 2}}

		got := cart.CalculateTotals(entries, products)
		if got.Subtotal != 200 || got.Tax != 42 || got.Total != 242 {
			t.Fatalf("got %+v, want subtotal=200 tax=42 total=242", got)
		}
	})

	t.Run("sums multiple entries", func(t *testing.T) {
		entries := []cart.Entry{
			{ProductID: "a", Qty: 1},
			{ProductID: "b", Qty: 3},
		}

		got := cart.CalculateTotals(entries, products)
		if got.Subtotal != 130 {
			t.Fatalf("subtotal = %v, want 130", got.Subtotal)
		}
	})

	t.Run("missing product contributes nothing", func(t *testing.T) {
		withGhost := []cart.Entry{
			{ProductID: "a", Qty: 2},
			{ProductID: "gone", Qty: 9},
		}
		withoutGhost := []cart.Entry{{ProductID: "a", Qty: 2}}

		if cart.CalculateTotals(withGhost, products) != cart.CalculateTotals(withoutGhost, products) {
			t.Fatal("stale entry changed the totals")
		}
	})

	t.Run("empty cart is all zeros", func(t *testing.T) {
		got := cart.CalculateTotals(nil, products)
		if got != (cart.Totals{}) {
			t.Fatalf("got %+v", got)
		}
	})

	t.Run("empty catalog is all zeros", func(t *testing.T) {
		got := cart.CalculateTotals([]cart.Entry{{ProductID: "a", Qty: 2}}, nil)
		if got != (cart.Totals{}) {
			t.Fatalf("got %+v", got)
		}
	})
}
