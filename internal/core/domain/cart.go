package domain

// Product is catalog metadata for a purchasable item. The cart engine
// only interprets ID; the remaining fields are carried through opaquely
// for the presentation layer.
type Product struct {
	ID    int64   `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
	Image string  `json:"image,omitempty"`
}

// LineItem is one product currently in the cart. Amount is always >= 1
// while the item exists; an item at 0 is removed, never stored.
type LineItem struct {
	Product
	Amount int `json:"amount"`
}

// StockEntry is one row of the full stock listing.
type StockEntry struct {
	ProductID int64 `json:"product_id"`
	Amount    int   `json:"amount"`
}

// StockSnapshot maps product id to the amount available at the last
// refresh. It is advisory: stale until the next refresh completes.
type StockSnapshot map[int64]int
