package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"marketshopper/internal/api"
	"marketshopper/internal/config"
	"marketshopper/internal/db"
	"marketshopper/internal/observability"
	"marketshopper/internal/scheduler"
	"marketshopper/internal/scrape"
	"marketshopper/internal/store"
)

func main() {
	cfg := config.Load()

	observability.Start(cfg.MetricsPort)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var deviceStore store.DeviceStore
	if cfg.DatabaseURL != "" {
		pool, err := db.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("[server] postgres: %v", err)
		}
		defer pool.Close()

		pg := &store.PostgresDeviceStore{Pool: pool}
		if err := pg.Init(ctx); err != nil {
			log.Fatalf("[server] postgres schema: %v", err)
		}
		deviceStore = pg
	} else {
		log.Println("[server] DATABASE_URL not set, tracked products held in memory")
		deviceStore = store.NewMemoryDeviceStore()
	}

	scraper := scrape.New(
		scrape.NewHTTPFetcher(30*time.Second),
		nil, // background refresh never opens tabs
		scrape.NewBackupClient(cfg.BackupPriceURL, cfg.BackupPriceKey),
	)

	sched := scheduler.New(deviceStore, scraper, cfg.RefreshInterval)
	if err := sched.Start(ctx); err != nil {
		log.Fatalf("[server] scheduler: %v", err)
	}
	defer sched.Stop()

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: api.New(deviceStore).Router(),
	}
	go func() {
		log.Printf("[server] listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[server] listen: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("[server] shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[server] shutdown: %v", err)
	}
}
