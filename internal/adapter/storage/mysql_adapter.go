package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rl1809/cart-sync/internal/core/domain"
	"github.com/rl1809/cart-sync/internal/port"
)

// MySQLAdapter reads product metadata and stock levels from the
// inventory database. It is the remote side the cart reconciles
// against; the cart never writes through it.
type MySQLAdapter struct {
	db *sql.DB
}

func NewMySQLAdapter(db *sql.DB) *MySQLAdapter {
	return &MySQLAdapter{db: db}
}

func (m *MySQLAdapter) GetProduct(ctx context.Context, productID int64) (*domain.Product, error) {
	var p domain.Product
	err := m.db.QueryRowContext(ctx, `
		SELECT id, name, price, image
		FROM products WHERE id = ?`, productID,
	).Scan(&p.ID, &p.Name, &p.Price, &p.Image)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, port.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query product: %w", err)
	}

	return &p, nil
}

func (m *MySQLAdapter) GetStock(ctx context.Context, productID int64) (int, error) {
	var amount int
	err := m.db.QueryRowContext(ctx, `
		SELECT amount FROM stock WHERE product_id = ?`, productID,
	).Scan(&amount)

	if errors.Is(err, sql.ErrNoRows) {
		return 0, port.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("query stock: %w", err)
	}

	return amount, nil
}

func (m *MySQLAdapter) ListStock(ctx context.Context) ([]domain.StockEntry, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT product_id, amount FROM stock ORDER BY product_id`)
	if err != nil {
		return nil, fmt.Errorf("query stock listing: %w", err)
	}
	defer rows.Close()

	var listing []domain.StockEntry
	for rows.Next() {
		var entry domain.StockEntry
		if err := rows.Scan(&entry.ProductID, &entry.Amount); err != nil {
			return nil, fmt.Errorf("scan stock row: %w", err)
		}
		listing = append(listing, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stock listing: %w", err)
	}

	return listing, nil
}

// UpsertProduct inserts or replaces a catalog row. Used by seed tooling
// and tests, not by the cart itself.
func (m *MySQLAdapter) UpsertProduct(ctx context.Context, p domain.Product) error {
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO products (id, name, price, image) VALUES (?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE name = VALUES(name), price = VALUES(price), image = VALUES(image)`,
		p.ID, p.Name, p.Price, p.Image,
	)
	if err != nil {
		return fmt.Errorf("upsert product: %w", err)
	}

	return nil
}

// UpsertStock sets the available amount for a product. Used by seed
// tooling and tests, not by the cart itself.
func (m *MySQLAdapter) UpsertStock(ctx context.Context, productID int64, amount int) error {
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO stock (product_id, amount) VALUES (?, ?)
		ON DUPLICATE KEY UPDATE amount = VALUES(amount)`,
		productID, amount,
	)
	if err != nil {
		return fmt.Errorf("upsert stock: %w", err)
	}

	return nil
}

// EnsureSchema creates the catalog tables when they are missing.
func (m *MySQLAdapter) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS products (
			id BIGINT PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			price DOUBLE NOT NULL,
			image VARCHAR(512) NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS stock (
			product_id BIGINT PRIMARY KEY,
			amount INT NOT NULL
		)`,
	}

	for _, stmt := range stmts {
		if _, err := m.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}

	return nil
}
