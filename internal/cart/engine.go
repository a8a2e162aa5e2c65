package cart

import (
	"context"
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"Storefront/internal/kv"
)

// Key is where the cart lives in the persisted store.
const Key = "storefront:cart"

// Engine maintains the persisted cart. The store is the single source of
// truth: every operation reads it first and every mutation writes back before
// returning, so state survives restarts and all mutators see the same cart.
//
// Listeners registered with Subscribe are invoked synchronously after the
// persisted write completes, with the updated entries as payload. A listener
// that re-reads the store is therefore guaranteed the new state.
type Engine struct {
	mu        sync.Mutex
	store     kv.Store
	log       *zap.Logger
	listeners []func([]Entry)
}

func NewEngine(store kv.Store, log *zap.Logger) *Engine {
	return &Engine{store: store, log: log}
}

// Subscribe registers a cart-changed listener. Not safe to call concurrently
// with mutations; register listeners during setup.
func (e *Engine) Subscribe(fn func([]Entry)) {
	e.listeners = append(e.listeners, fn)
}

// Items returns the persisted cart. A missing or corrupt stored value reads
// as an empty cart, never as an error.
func (e *Engine) Items(ctx context.Context) []Entry {
	b, ok, err := e.store.Get(ctx, Key)
	if err != nil {
		if e.log != nil {
			e.log.Warn("read cart failed", zap.Error(err))
		}
		return []Entry{}
	}
	if !ok {
		return []Entry{}
	}

	var entries []Entry
	if err := json.Unmarshal(b, &entries); err != nil {
		if e.log != nil {
			e.log.Warn("corrupt cart ignored", zap.Error(err))
		}
		return []Entry{}
	}
	return entries
}

// AddItem merges qty into an existing entry for the product, or appends a new
// one. qty below 1 counts as 1. Stock capping is the caller's concern.
func (e *Engine) AddItem(ctx context.Context, productID string, qty int) error {
	if qty < 1 {
		qty = 1
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	entries := e.Items(ctx)
	found := false
	for i := range entries {
		if entries[i].ProductID == productID {
			entries[i].Qty += qty
			found = true
			break
		}
	}
	if !found {
		entries = append(entries, Entry{ProductID: productID, Qty: qty})
	}

	return e.save(ctx, entries)
}

// UpdateQty sets the quantity of an existing entry. qty <= 0 removes the
// entry; an unknown product id is a silent no-op.
func (e *Engine) UpdateQty(ctx context.Context, productID string, qty int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	entries := e.Items(ctx)
	for i := range entries {
		if entries[i].ProductID != productID {
			continue
		}
		if qty <= 0 {
			entries = append(entries[:i], entries[i+1:]...)
		} else {
			entries[i].Qty = qty
		}
		return e.save(ctx, entries)
	}
	return nil
}

// RemoveItem drops the entry unconditionally. An absent id leaves the cart
// unchanged; the write and notification still happen.
func (e *Engine) RemoveItem(ctx context.Context, productID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	entries := e.Items(ctx)
	out := entries[:0]
	for _, en := range entries {
		if en.ProductID != productID {
			out = append(out, en)
		}
	}
	return e.save(ctx, out)
}

func (e *Engine) Clear(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.save(ctx, []Entry{})
}

// save persists and then notifies, in that order.
func (e *Engine) save(ctx context.Context, entries []Entry) error {
	b, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	if err := e.store.Set(ctx, Key, b); err != nil {
		return err
	}

	for _, fn := range e.listeners {
		fn(entries)
	}
	return nil
}
