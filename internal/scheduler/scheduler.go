// Package scheduler wires up the cron job that periodically refreshes the
// price of every tracked product across every device scope.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"marketshopper/internal/observability"
	"marketshopper/internal/scrape"
	"marketshopper/internal/store"
	"marketshopper/internal/track"
)

// defaultPacing spaces consecutive fetches so a sweep never hammers one
// origin. Total sweep duration therefore scales linearly with the tracked
// record count.
const defaultPacing = 500 * time.Millisecond

// Scheduler runs the periodic refresh sweep. Records are refreshed strictly
// one at a time, in stored order.
type Scheduler struct {
	cron    *cron.Cron
	store   store.DeviceStore
	scraper *scrape.Scraper
	spec    string

	// Pacing is the delay between consecutive record fetches. Tests shrink
	// it; production keeps the default.
	Pacing time.Duration
}

// New creates a Scheduler firing every interval.
func New(st store.DeviceStore, sc *scrape.Scraper, interval time.Duration) *Scheduler {
	return &Scheduler{
		cron:    cron.New(),
		store:   st,
		scraper: sc,
		spec:    fmt.Sprintf("@every %s", interval),
		Pacing:  defaultPacing,
	}
}

// Start registers the refresh job and fires one sweep immediately so a
// fresh deployment does not wait a full interval for prices.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.spec, func() {
		s.Sweep(ctx)
	})
	if err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}
	s.cron.Start()
	log.Printf("[scheduler] started, spec %s", s.spec)

	go s.Sweep(ctx)
	return nil
}

// Stop halts the cron loop. An in-flight sweep finishes its current record
// and exits on the next context check.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	log.Println("[scheduler] stopped")
}

// Sweep refreshes every tracked product, device by device, in stored order.
// One record's failure is logged and never aborts the rest of the sweep.
func (s *Scheduler) Sweep(ctx context.Context) {
	observability.RefreshSweepsTotal.Inc()

	devices, err := s.store.Devices(ctx)
	if err != nil {
		log.Printf("[scheduler] list devices: %v", err)
		return
	}
	for _, deviceID := range devices {
		products, err := s.store.Products(ctx, deviceID)
		if err != nil {
			log.Printf("[scheduler] list products for %s: %v", deviceID, err)
			continue
		}
		for _, p := range products {
			select {
			case <-ctx.Done():
				return
			default:
			}
			s.refresh(ctx, deviceID, p)
			select {
			case <-time.After(s.Pacing):
			case <-ctx.Done():
				return
			}
		}
	}
}

// refresh runs the passive-fetch stage for one record and reconciles the
// observation. Records without an http URL are skipped; a failed fetch or
// an unparseable page updates nothing.
func (s *Scheduler) refresh(ctx context.Context, deviceID string, t store.Tracked) {
	if !strings.HasPrefix(t.URL, "http") {
		return
	}
	observability.PriceChecksTotal.Inc()

	price, err := s.scraper.PassivePrice(ctx, t.URL)
	if err != nil {
		observability.PriceCheckFailures.Inc()
		log.Printf("[scheduler] refresh %s: %v", t.URL, err)
		return
	}

	rec := t.Record()
	before := len(rec.PriceHistory)
	if !track.Reconcile(&rec, price, time.Now()) {
		return
	}
	if len(rec.PriceHistory) > before {
		observability.PriceUpdatesTotal.Inc()
	}

	t.Apply(rec)
	if err := s.store.Update(ctx, deviceID, t); err != nil {
		log.Printf("[scheduler] persist %s/%s: %v", deviceID, t.ProductID, err)
	}
}
