// Command seed populates the catalog with demo products and stock and
// clears the durable cart slot, so a fresh server starts from a known
// state.
package main

import (
	"context"
	"database/sql"
	"log"
	"os"

	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"

	"github.com/rl1809/cart-sync/internal/adapter/storage"
	"github.com/rl1809/cart-sync/internal/core/domain"
	"github.com/rl1809/cart-sync/internal/core/service"
)

const (
	defaultMySQLDSN  = "root:root@tcp(localhost:3306)/cartsync?parseTime=true"
	defaultRedisAddr = "localhost:6379"
)

var demoProducts = []struct {
	product domain.Product
	amount  int
}{
	{domain.Product{ID: 1, Name: "Fjallraven Backpack", Price: 109.95, Image: "/img/backpack.jpg"}, 8},
	{domain.Product{ID: 2, Name: "Mens Casual T-Shirt", Price: 22.3, Image: "/img/tshirt.jpg"}, 15},
	{domain.Product{ID: 3, Name: "Mens Cotton Jacket", Price: 55.99, Image: "/img/jacket.jpg"}, 3},
	{domain.Product{ID: 4, Name: "Silver Dragon Bracelet", Price: 695.0, Image: "/img/bracelet.jpg"}, 1},
	{domain.Product{ID: 5, Name: "WD 2TB External Drive", Price: 64.0, Image: "/img/drive.jpg"}, 20},
}

func main() {
	ctx := context.Background()

	db, err := sql.Open("mysql", getEnv("MYSQL_DSN", defaultMySQLDSN))
	if err != nil {
		log.Fatalf("failed to connect mysql: %v", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("failed to ping mysql: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: getEnv("REDIS_ADDR", defaultRedisAddr)})
	defer rdb.Close()

	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalf("failed to connect redis: %v", err)
	}

	catalog := storage.NewMySQLAdapter(db)
	cache := storage.NewRedisAdapter(rdb)

	if err := catalog.EnsureSchema(ctx); err != nil {
		log.Fatalf("failed to ensure schema: %v", err)
	}

	for _, entry := range demoProducts {
		if err := catalog.UpsertProduct(ctx, entry.product); err != nil {
			log.Fatalf("failed to seed product %d: %v", entry.product.ID, err)
		}
		if err := catalog.UpsertStock(ctx, entry.product.ID, entry.amount); err != nil {
			log.Fatalf("failed to seed stock %d: %v", entry.product.ID, err)
		}
		log.Printf("seeded product %d (%s), stock %d", entry.product.ID, entry.product.Name, entry.amount)
	}

	if err := cache.Clear(ctx, service.DefaultCacheKey); err != nil {
		log.Fatalf("failed to clear cart slot: %v", err)
	}
	log.Println("cart slot cleared")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
