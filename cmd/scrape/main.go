package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"time"

	"marketshopper/internal/config"
	"marketshopper/internal/db"
	"marketshopper/internal/lists"
	"marketshopper/internal/scrape"
	"marketshopper/internal/store"
	"marketshopper/internal/track"
)

// go run cmd/scrape/main.go -url="https://shop.example/p/1"
// go run cmd/scrape/main.go -url="https://shop.example/p/1" -track -target=99.90
func main() {
	urlFlag := flag.String("url", "", "product page URL to scrape")
	trackFlag := flag.Bool("track", false, "save the product to the local tracker (needs REDIS_URL)")
	targetFlag := flag.Float64("target", 0, "alert threshold stored with -track")
	flag.Parse()

	if *urlFlag == "" {
		log.Fatal("missing -url")
	}
	cfg := config.Load()

	scraper := scrape.New(
		scrape.NewHTTPFetcher(30*time.Second),
		nil,
		scrape.NewBackupClient(cfg.BackupPriceURL, cfg.BackupPriceKey),
	)

	// Results come back as a correlated notification, same as the extension
	// messaging flow, so a caller that went away never blocks the scrape.
	pending := scrape.NewPending()
	token, results := pending.Register()
	go func() {
		res, err := scraper.Scrape(context.Background(), *urlFlag)
		pending.Deliver(token, res, err)
	}()

	n := <-results
	switch {
	case errors.Is(n.Err, scrape.ErrInvalidURL):
		log.Fatal("invalid URL: product URLs must start with http")
	case errors.Is(n.Err, scrape.ErrTimeout):
		log.Fatal("scrape timed out, try again later")
	case errors.Is(n.Err, scrape.ErrNoProductData):
		log.Fatal("could not extract product data, try opening the page manually")
	case n.Err != nil:
		log.Fatalf("scrape failed: %v", n.Err)
	}

	fmt.Printf("Name:  %s\n", n.Result.Name)
	fmt.Printf("Price: %s\n", n.Result.Price)
	fmt.Printf("Image: %s\n", n.Result.Image)
	fmt.Printf("URL:   %s\n", n.Result.URL)

	if !*trackFlag {
		return
	}
	if cfg.RedisURL == "" {
		log.Fatal("-track needs REDIS_URL to persist the tracker")
	}

	ctx := context.Background()
	svc := lists.NewService(&store.RedisKeyed{Client: db.NewRedis(cfg.RedisURL)})

	var target *float64
	if *targetFlag > 0 {
		target = targetFlag
	}
	rec, err := svc.AddProduct(ctx, lists.AddProductInput{
		Name:         n.Result.Name,
		URL:          n.Result.URL,
		CurrentPrice: track.ParsePrice(n.Result.Price),
		TargetPrice:  target,
		Image:        n.Result.Image,
		TrackLive:    true,
	})
	if err != nil {
		log.Fatalf("save product: %v", err)
	}
	if err := svc.RecordSearch(ctx, lists.SearchEntry{
		Product: rec.Name,
		Price:   n.Result.Price,
		Results: 1,
		Action:  "track",
	}); err != nil {
		log.Printf("record search: %v", err)
	}
	log.Printf("tracking product %s", rec.ID)
}
