package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"

	"github.com/rl1809/cart-sync/internal/adapter/handler"
	"github.com/rl1809/cart-sync/internal/adapter/storage"
	"github.com/rl1809/cart-sync/internal/core/service"
)

const (
	defaultHTTPPort  = ":8080"
	defaultMySQLDSN  = "root:root@tcp(localhost:3306)/cartsync?parseTime=true"
	defaultRedisAddr = "localhost:6379"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize MySQL (catalog + stock source)
	db, err := sql.Open("mysql", getEnv("MYSQL_DSN", defaultMySQLDSN))
	if err != nil {
		log.Fatalf("failed to connect mysql: %v", err)
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("failed to ping mysql: %v", err)
	}
	log.Println("connected to mysql")

	// Initialize Redis (durable cart slot)
	rdb := redis.NewClient(&redis.Options{
		Addr: getEnv("REDIS_ADDR", defaultRedisAddr),
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalf("failed to connect redis: %v", err)
	}
	log.Println("connected to redis")

	// Initialize adapters and the cart store
	catalog := storage.NewMySQLAdapter(db)
	cache := storage.NewRedisAdapter(rdb)

	if err := catalog.EnsureSchema(ctx); err != nil {
		log.Fatalf("failed to ensure schema: %v", err)
	}

	store := service.NewCartStore(ctx, catalog, cache, service.DefaultCacheKey)
	log.Printf("cart restored with %d items", len(store.Items()))

	// Warm the stock snapshot; failures are logged by the store and the
	// snapshot stays empty until the next refresh.
	store.RefreshStock(ctx)

	// HTTP server
	httpHandler := handler.NewHTTPHandler(store)
	httpServer := &http.Server{
		Addr:    getEnv("HTTP_PORT", defaultHTTPPort),
		Handler: httpHandler.Routes(),
	}

	go func() {
		log.Printf("HTTP server listening on %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			log.Printf("HTTP server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	httpServer.Shutdown(shutdownCtx)
	log.Println("HTTP server stopped")

	rdb.Close()
	db.Close()
	log.Println("connections closed")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
