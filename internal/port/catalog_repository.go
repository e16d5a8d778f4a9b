package port

import (
	"context"
	"errors"

	"github.com/rl1809/cart-sync/internal/core/domain"
)

// ErrNotFound is returned when a product id resolves to nothing in the
// catalog or the stock listing.
var ErrNotFound = errors.New("product not found")

type CatalogRepository interface {
	// GetProduct returns catalog metadata for one product, or ErrNotFound
	GetProduct(ctx context.Context, productID int64) (*domain.Product, error)

	// GetStock returns the currently available amount for one product,
	// or ErrNotFound when the product has no stock record
	GetStock(ctx context.Context, productID int64) (int, error)

	// ListStock returns the full stock listing
	ListStock(ctx context.Context) ([]domain.StockEntry, error)
}
