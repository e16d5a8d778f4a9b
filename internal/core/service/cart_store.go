package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/rl1809/cart-sync/internal/core/domain"
	"github.com/rl1809/cart-sync/internal/port"
)

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrInsufficientStock = errors.New("requested quantity exceeds available stock")
	ErrProductNotInCart  = errors.New("product not in cart")
	ErrInvalidAmount     = errors.New("invalid amount")

	// ErrCartUnavailable covers any unexpected failure (network, storage,
	// serialization). The underlying cause is attached for logging.
	ErrCartUnavailable = errors.New("cart operation failed")
)

// DefaultCacheKey is the single durable slot the cart mirrors into.
const DefaultCacheKey = "cart"

// CartStore owns the in-memory cart and the last fetched stock snapshot.
// Every committed change is mirrored to the durable cache slot before it
// becomes visible in memory, so the slot never holds a partial state.
//
// CartStore is not safe for concurrent mutating calls: the host layer is
// expected to invoke one operation at a time. Serializing interleaved
// mutations here would change the observable commit ordering, so it is
// left to the caller. The only internal synchronization is the
// singleflight group collapsing concurrent stock refreshes.
type CartStore struct {
	catalog port.CatalogRepository
	cache   port.CacheRepository
	key     string

	items    []domain.LineItem
	stock    domain.StockSnapshot
	rev      uuid.UUID
	stockRev uuid.UUID

	sfg singleflight.Group
}

// NewCartStore restores the cart from the durable slot. An absent,
// unreadable or malformed payload falls back to an empty cart rather
// than failing. The stock snapshot starts empty; call RefreshStock to
// populate it.
func NewCartStore(ctx context.Context, catalog port.CatalogRepository, cache port.CacheRepository, key string) *CartStore {
	s := &CartStore{
		catalog:  catalog,
		cache:    cache,
		key:      key,
		stock:    domain.StockSnapshot{},
		rev:      uuid.New(),
		stockRev: uuid.New(),
	}
	s.items = s.loadCached(ctx)
	return s
}

func (s *CartStore) loadCached(ctx context.Context) []domain.LineItem {
	data, err := s.cache.ReadRaw(ctx, s.key)
	if err != nil {
		if !errors.Is(err, port.ErrCacheMiss) {
			log.Printf("cart cache read failed, starting empty: %v", err)
		}
		return nil
	}

	var items []domain.LineItem
	if err := json.Unmarshal(data, &items); err != nil {
		log.Printf("cart cache payload malformed, starting empty: %v", err)
		return nil
	}

	// A stored amount below 1 or a duplicated product id can only come
	// from outside interference; treat the whole payload as malformed.
	seen := make(map[int64]struct{}, len(items))
	for _, item := range items {
		if _, dup := seen[item.ID]; dup || item.Amount < 1 {
			log.Printf("cart cache payload violates cart invariants, starting empty")
			return nil
		}
		seen[item.ID] = struct{}{}
	}

	return items
}

// Items returns the cart in display order. Callers must not modify the
// returned slice; it is replaced wholesale on every commit.
func (s *CartStore) Items() []domain.LineItem {
	return s.items
}

// Stock returns the last refreshed snapshot. Callers must not modify
// the returned map; it is replaced wholesale on every refresh.
func (s *CartStore) Stock() domain.StockSnapshot {
	return s.stock
}

// Revision identifies the last committed cart value. It changes on
// every successful mutating operation and never on a failed one.
func (s *CartStore) Revision() uuid.UUID {
	return s.rev
}

// StockRevision identifies the last completed snapshot refresh.
func (s *CartStore) StockRevision() uuid.UUID {
	return s.stockRev
}

// AddProduct puts one unit of the product into the cart. A product
// already present is incremented instead of duplicated, bounded by the
// currently available stock.
func (s *CartStore) AddProduct(ctx context.Context, productID int64) error {
	product, err := s.catalog.GetProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, port.ErrNotFound) {
			return ErrProductNotFound
		}
		return fmt.Errorf("%w: %v", ErrCartUnavailable, err)
	}

	idx := s.indexOf(productID)
	if idx < 0 {
		next := append(s.copyItems(), domain.LineItem{Product: *product, Amount: 1})
		return s.commit(ctx, next)
	}

	available, err := s.catalog.GetStock(ctx, productID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCartUnavailable, err)
	}
	if s.items[idx].Amount >= available {
		return ErrInsufficientStock
	}

	next := s.copyItems()
	next[idx].Amount++
	return s.commit(ctx, next)
}

// RemoveProduct deletes the product's line item, preserving the
// relative order of the remaining items.
func (s *CartStore) RemoveProduct(ctx context.Context, productID int64) error {
	idx := s.indexOf(productID)
	if idx < 0 {
		return ErrProductNotInCart
	}

	next := make([]domain.LineItem, 0, len(s.items)-1)
	next = append(next, s.items[:idx]...)
	next = append(next, s.items[idx+1:]...)
	return s.commit(ctx, next)
}

// UpdateProductAmount overwrites the line item's amount. Zero is
// rejected, not treated as an implicit remove. The checks run in a
// fixed order: amount floor, stock ceiling, cart presence.
func (s *CartStore) UpdateProductAmount(ctx context.Context, productID int64, amount int) error {
	if amount < 1 {
		return ErrInvalidAmount
	}

	available, err := s.catalog.GetStock(ctx, productID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCartUnavailable, err)
	}
	if available < amount {
		return ErrInsufficientStock
	}

	idx := s.indexOf(productID)
	if idx < 0 {
		return ErrProductNotInCart
	}

	next := s.copyItems()
	next[idx].Amount = amount
	return s.commit(ctx, next)
}

// RefreshStock replaces the stock snapshot from the full listing.
// Concurrent calls share a single upstream fetch. A failed fetch keeps
// the previous snapshot and is only logged: this is a background cache
// warm, not a user operation.
func (s *CartStore) RefreshStock(ctx context.Context) {
	_, err, _ := s.sfg.Do("stock", func() (interface{}, error) {
		listing, err := s.catalog.ListStock(ctx)
		if err != nil {
			return nil, err
		}

		snapshot := make(domain.StockSnapshot, len(listing))
		for _, entry := range listing {
			snapshot[entry.ProductID] = entry.Amount
		}
		s.stock = snapshot
		s.stockRev = uuid.New()
		return nil, nil
	})
	if err != nil {
		log.Printf("stock refresh failed, keeping previous snapshot: %v", err)
	}
}

// commit mirrors the candidate cart to the durable slot, then swaps it
// in and bumps the revision. The in-memory cart only changes after the
// mirror succeeds, so a failed operation leaves both views untouched.
func (s *CartStore) commit(ctx context.Context, next []domain.LineItem) error {
	data, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCartUnavailable, err)
	}
	if err := s.cache.WriteRaw(ctx, s.key, data); err != nil {
		return fmt.Errorf("%w: %v", ErrCartUnavailable, err)
	}

	s.items = next
	s.rev = uuid.New()
	return nil
}

func (s *CartStore) indexOf(productID int64) int {
	for i, item := range s.items {
		if item.ID == productID {
			return i
		}
	}
	return -1
}

func (s *CartStore) copyItems() []domain.LineItem {
	next := make([]domain.LineItem, len(s.items))
	copy(next, s.items)
	return next
}
