package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"Pedalize/cache"
	"Pedalize/config"
	"Pedalize/jwt"
	"Pedalize/routers"
)

func main() {
	cfg, err := config.LoadConfig(config.Path())
	if err != nil {
		log.Fatalf("無法讀取設定檔: %v", err)
	}

	db, err := config.SetupMySQLConnection(cfg.Database)
	if err != nil {
		log.Fatalf("無法連接到資料庫: %v", err)
	}
	defer func() {
		dbInstance, _ := db.DB()
		_ = dbInstance.Close()
	}()

	var productCache cache.ProductCache = cache.NewNopCache()
	if cfg.Redis.Enabled {
		rdb, err := config.SetupRedisConnection(context.Background(), cfg.Redis)
		if err != nil {
			//Redis無法連線時由斷路器降級為直接查詢資料庫
			log.Printf("[Cache] %v", err)
		}
		defer rdb.Close()
		productCache = cache.NewRedisCache(rdb, cfg.Redis.TTL)
	}

	keys, err := jwt.LoadKeys(cfg.JWT.PrivateKey, cfg.JWT.PublicKey)
	if err != nil {
		log.Fatalf("無法讀取JWT金鑰: %v", err)
	}

	router := routers.SetupRouters(cfg, db, productCache, keys)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("server forced to shutdown: %v", err)
	}

	log.Println("server exited")
}
