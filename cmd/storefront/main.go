package main

import (
	"context"
	"os"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"Storefront/internal/cart"
	"Storefront/internal/catalog"
	"Storefront/internal/checkout"
	"Storefront/internal/kv"
	"Storefront/internal/storefront"
	"Storefront/pkg/kit"
)

const startupLoadTimeout = 10 * time.Second

func main() {
	service := "storefront"
	log := kit.NewLogger(service)
	defer func() { _ = log.Sync() }()

	port := getenv("PORT", "8080")
	productsURL := getenv("PRODUCTS_URL", "http://localhost:9000/data/products.json")
	phone := getenv("WHATSAPP_PHONE", "5491568908235")

	store := openStore(log)

	catStore := catalog.NewStore()
	loader := &catalog.Loader{
		Source:    catalog.NewHTTPSource(productsURL),
		Snapshots: store,
		Store:     catStore,
		Log:       log,
	}

	ctx, cancel := context.WithTimeout(context.Background(), startupLoadTimeout)
	err := loader.Load(ctx)
	cancel()
	if err != nil {
		// The service still starts; /products answers 503 until a
		// reload succeeds.
		log.Error("catalog load failed", zap.Error(err))
	}

	engine := cart.NewEngine(store, log)
	engine.Subscribe(func(entries []cart.Entry) {
		log.Info("cart updated", zap.Int("entries", len(entries)))
	})

	deps := storefront.Deps{
		Catalog:  &catalog.Server{Store: catStore, Loader: loader, Log: log},
		Cart:     &cart.Server{Engine: engine, Catalog: catStore, Log: log},
		Checkout: &checkout.Server{Cart: engine, Catalog: catStore, Phone: phone, Log: log},
		Store:    store,
	}

	reg := prometheus.NewRegistry()
	h := storefront.NewHandler(deps, storefront.HTTPDeps{
		Log:            log,
		Service:        service,
		Registry:       reg,
		MetricsEnabled: true,
		MetricsToken:   os.Getenv("METRICS_TOKEN"),

		CheckoutLimit:      getenvInt("CHECKOUT_RATE_LIMIT", 5),
		CheckoutWindowSecs: getenvInt("CHECKOUT_RATE_WINDOW_SECS", 60),
	})

	if err := kit.RunHTTPServer(":"+port, h, log); err != nil {
		log.Fatal("http server stopped", zap.Error(err))
	}
}

// openStore picks the persistence backend: Postgres when DATABASE_URL is set,
// a data directory when DATA_DIR is set, otherwise in-memory (state lost on
// restart).
func openStore(log *zap.Logger) kv.Store {
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		s, err := kv.OpenPostgres(context.Background(), dsn)
		if err != nil {
			log.Fatal("open postgres store failed", zap.Error(err))
		}
		log.Info("using postgres store")
		return s
	}

	if dir := os.Getenv("DATA_DIR"); dir != "" {
		s, err := kv.NewFileStore(dir)
		if err != nil {
			log.Fatal("open file store failed", zap.Error(err), zap.String("dir", dir))
		}
		log.Info("using file store", zap.String("dir", dir))
		return s
	}

	log.Warn("no DATABASE_URL or DATA_DIR, using in-memory store")
	return kv.NewMemStore()
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getenvInt(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
