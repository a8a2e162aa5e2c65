package storefront_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"Storefront/internal/cart"
	"Storefront/internal/catalog"
	"Storefront/internal/checkout"
	"Storefront/internal/kv"
	"Storefront/internal/storefront"
)

func sampleProducts() []catalog.Product {
	return []catalog.Product{
		{ID: "p1", Name: "Turbo Pad", Description: "Wireless game controller", Category: "peripherals", Price: 120, Rating: 4.5, Stock: 10},
		{ID: "p2", Name: "Clicky Keyboard", Description: "Mechanical switches", Category: "peripherals", Price: 90, Rating: 4.8, Stock: 5},
		{ID: "p3", Name: "Ultra Monitor", Description: "27 inch panel", Category: "displays", Price: 300, Rating: 4.2, Stock: 3},
	}
}

func newSourceTS(t *testing.T, products []catalog.Product) *httptest.Server {
	t.Helper()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(products)
	}))
	t.Cleanup(ts.Close)
	return ts
}

func newStorefrontTS(t *testing.T, sourceURL string, store kv.Store, load bool) *httptest.Server {
	t.Helper()

	log := zap.NewNop()
	catStore := catalog.NewStore()
	loader := &catalog.Loader{
		Source:    catalog.NewHTTPSource(sourceURL),
		Snapshots: store,
		Store:     catStore,
		Log:       log,
	}
	if load {
		if err := loader.Load(context.Background()); err != nil {
			t.Fatalf("load: %v", err)
		}
	}

	engine := cart.NewEngine(store, log)

	h := storefront.NewHandler(
		storefront.Deps{
			Catalog:  &catalog.Server{Store: catStore, Loader: loader, Log: log},
			Cart:     &cart.Server{Engine: engine, Catalog: catStore, Log: log},
			Checkout: &checkout.Server{Cart: engine, Catalog: catStore, Phone: "5491100000000", Log: log},
			Store:    store,
		},
		storefront.HTTPDeps{
			Log:     log,
			Service: "storefront",
		},
	)

	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	return ts
}

func doJSON(t *testing.T, method, url string, body any) (*http.Response, []byte) {
	t.Helper()

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		r = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, url, r)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, raw
}

func TestPublicAPI_HappyPath(t *testing.T) {
	sourceTS := newSourceTS(t, sampleProducts())
	ts := newStorefrontTS(t, sourceTS.URL, kv.NewMemStore(), true)

	{
		resp, raw := doJSON(t, http.MethodGet, ts.URL+"/products?category=peripherals&sort=price-asc", nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("products status=%d", resp.StatusCode)
		}

		var res catalog.Result
		if err := json.Unmarshal(raw, &res); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if res.Meta.Total != 2 || len(res.Products) != 2 {
			t.Fatalf("got %+v", res.Meta)
		}
		if res.Products[0].ID != "p2" || res.Products[1].ID != "p1" {
			t.Fatalf("wrong order: %s, %s", res.Products[0].ID, res.Products[1].ID)
		}
	}

	{
		resp, _ := doJSON(t, http.MethodPost, ts.URL+"/cart/items", map[string]any{
			"product_id": "p1", "qty": 2,
		})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("add to cart status=%d", resp.StatusCode)
		}
	}

	{
		resp, raw := doJSON(t, http.MethodGet, ts.URL+"/cart/totals", nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("totals status=%d", resp.StatusCode)
		}

		var totals cart.Totals
		if err := json.Unmarshal(raw, &totals); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if totals.Subtotal != 240 || totals.Total != 290.4 {
			t.Fatalf("totals = %+v", totals)
		}
	}

	{
		resp, raw := doJSON(t, http.MethodPost, ts.URL+"/checkout", map[string]any{
			"name": "Ana", "email": "ana@example.com", "address": "Calle 1",
		})
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("checkout status=%d body=%s", resp.StatusCode, raw)
		}

		var order checkout.Order
		if err := json.Unmarshal(raw, &order); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if !strings.HasPrefix(order.Ref, "o_") {
			t.Fatalf("ref = %q", order.Ref)
		}
		if !strings.HasPrefix(order.URL, "https://wa.me/5491100000000?text=") {
			t.Fatalf("url = %q", order.URL)
		}
	}

	{
		// Checkout clears the cart.
		resp, raw := doJSON(t, http.MethodGet, ts.URL+"/cart", nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("cart status=%d", resp.StatusCode)
		}
		var view struct {
			Items []cart.Entry `json:"items"`
			Count int          `json:"count"`
		}
		if err := json.Unmarshal(raw, &view); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if len(view.Items) != 0 || view.Count != 0 {
			t.Fatalf("cart not cleared: %+v", view)
		}
	}
}

func TestPublicAPI_CatalogUnavailableUntilReload(t *testing.T) {
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(failing.Close)

	ts := newStorefrontTS(t, failing.URL, kv.NewMemStore(), false)

	resp, _ := doJSON(t, http.MethodGet, ts.URL+"/products", nil)
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("products before load status=%d, want 503", resp.StatusCode)
	}

	resp, _ = doJSON(t, http.MethodPost, ts.URL+"/catalog/reload", nil)
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("reload against dead source status=%d, want 503", resp.StatusCode)
	}

	// Cart still works with no catalog; totals join against nothing.
	resp, _ = doJSON(t, http.MethodPost, ts.URL+"/cart/items", map[string]any{"product_id": "p1", "qty": 1})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("cart add status=%d", resp.StatusCode)
	}
	resp, raw := doJSON(t, http.MethodGet, ts.URL+"/cart/totals", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("totals status=%d", resp.StatusCode)
	}
	var totals cart.Totals
	if err := json.Unmarshal(raw, &totals); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if totals != (cart.Totals{}) {
		t.Fatalf("totals = %+v, want zeros", totals)
	}
}

func TestPublicAPI_ProductByIDAndCategories(t *testing.T) {
	sourceTS := newSourceTS(t, sampleProducts())
	ts := newStorefrontTS(t, sourceTS.URL, kv.NewMemStore(), true)

	resp, raw := doJSON(t, http.MethodGet, ts.URL+"/products/p3", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status=%d", resp.StatusCode)
	}
	var p catalog.Product
	if err := json.Unmarshal(raw, &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if p.Name != "Ultra Monitor" {
		t.Fatalf("got %+v", p)
	}

	resp, _ = doJSON(t, http.MethodGet, ts.URL+"/products/nope", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status=%d, want 404", resp.StatusCode)
	}

	resp, raw = doJSON(t, http.MethodGet, ts.URL+"/categories", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status=%d", resp.StatusCode)
	}
	var cats []string
	if err := json.Unmarshal(raw, &cats); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(cats) != 2 {
		t.Fatalf("categories = %v", cats)
	}
}

func TestPublicAPI_CheckoutRateLimit(t *testing.T) {
	sourceTS := newSourceTS(t, sampleProducts())

	log := zap.NewNop()
	store := kv.NewMemStore()
	catStore := catalog.NewStore()
	loader := &catalog.Loader{
		Source:    catalog.NewHTTPSource(sourceTS.URL),
		Snapshots: store,
		Store:     catStore,
		Log:       log,
	}
	if err := loader.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	engine := cart.NewEngine(store, log)

	h := storefront.NewHandler(
		storefront.Deps{
			Catalog:  &catalog.Server{Store: catStore, Loader: loader, Log: log},
			Cart:     &cart.Server{Engine: engine, Catalog: catStore, Log: log},
			Checkout: &checkout.Server{Cart: engine, Catalog: catStore, Phone: "549", Log: log},
			Store:    store,
		},
		storefront.HTTPDeps{
			Log:                log,
			Service:            "storefront",
			CheckoutLimit:      2,
			CheckoutWindowSecs: 60,
		},
	)
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)

	body := map[string]any{"name": "Ana", "email": "ana@example.com", "address": "Calle 1"}
	for i := 0; i < 2; i++ {
		resp, _ := doJSON(t, http.MethodPost, ts.URL+"/checkout", body)
		// Empty cart: requests are rejected but still count against the
		// limit.
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("attempt %d status=%d", i, resp.StatusCode)
		}
	}

	resp, _ := doJSON(t, http.MethodPost, ts.URL+"/checkout", body)
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("status=%d, want 429", resp.StatusCode)
	}
}
