package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"Storefront/internal/kv"
)

// SnapshotKey is where the last successfully fetched catalog is persisted.
const SnapshotKey = "storefront:catalog"

// ErrCatalogUnavailable means the source fetch failed and no usable snapshot
// exists. It is the only failure the catalog surfaces to callers; they must
// not render a catalog after seeing it.
var ErrCatalogUnavailable = errors.New("catalog unavailable")

// Loader populates the store: fetch from the source, and on success overwrite
// both the store and the persisted snapshot. On fetch failure it falls back
// to the snapshot. A corrupt snapshot counts as absent.
type Loader struct {
	Source    Source
	Snapshots kv.Store
	Store     *Store
	Log       *zap.Logger
}

func (l *Loader) Load(ctx context.Context) error {
	products, err := l.Source.Fetch(ctx)
	if err == nil {
		if derr := checkUniqueIDs(products); derr != nil {
			err = derr
		}
	}

	if err == nil {
		if b, merr := json.Marshal(products); merr == nil {
			if serr := l.Snapshots.Set(ctx, SnapshotKey, b); serr != nil && l.Log != nil {
				l.Log.Warn("persist catalog snapshot failed", zap.Error(serr))
			}
		}
		l.Store.Replace(products)
		if l.Log != nil {
			l.Log.Info("catalog loaded from source", zap.Int("products", len(products)))
		}
		return nil
	}

	if l.Log != nil {
		l.Log.Warn("catalog source fetch failed, trying snapshot", zap.Error(err))
	}

	snapshot, ok := l.readSnapshot(ctx)
	if !ok {
		return fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}

	l.Store.Replace(snapshot)
	if l.Log != nil {
		l.Log.Info("catalog loaded from snapshot", zap.Int("products", len(snapshot)))
	}
	return nil
}

func (l *Loader) readSnapshot(ctx context.Context) ([]Product, bool) {
	b, ok, err := l.Snapshots.Get(ctx, SnapshotKey)
	if err != nil || !ok {
		return nil, false
	}

	var products []Product
	if err := json.Unmarshal(b, &products); err != nil {
		if l.Log != nil {
			l.Log.Warn("corrupt catalog snapshot ignored", zap.Error(err))
		}
		return nil, false
	}
	return products, true
}

// checkUniqueIDs rejects a fetched document that breaks the unique-id
// invariant the cart join depends on.
func checkUniqueIDs(products []Product) error {
	seen := make(map[string]struct{}, len(products))
	for _, p := range products {
		if _, dup := seen[p.ID]; dup {
			return fmt.Errorf("duplicate product id %q", p.ID)
		}
		seen[p.ID] = struct{}{}
	}
	return nil
}
