// Package scrape sequences the staged product-extraction pipeline: passive
// fetch + parse first, then escalation to a live tab, with an optional
// third-party price API as a backup price source.
package scrape

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"marketshopper/internal/extract"
	"marketshopper/internal/track"
)

// settleDelay gives client-side rendering a chance to finish after the
// load-complete signal before the in-page hook runs.
const settleDelay = 800 * time.Millisecond

// Tab is one opened browser tab. Implementations live with whatever drives
// the browser; the orchestrator only sequences them.
type Tab interface {
	// WaitLoaded blocks until the tab reports load-complete.
	WaitLoaded(ctx context.Context) error
	// ExtractProduct runs the in-page extraction hook.
	ExtractProduct(ctx context.Context) (extract.PageData, error)
	// Close tears the tab down. Safe to call more than once.
	Close() error
}

// TabOpener opens product pages in live tabs for the escalation stage.
type TabOpener interface {
	Open(ctx context.Context, url string) (Tab, error)
}

// Scraper runs the staged extraction protocol against product URLs.
type Scraper struct {
	fetcher Fetcher
	tabs    TabOpener     // nil disables the escalation stage
	backup  *BackupClient // nil disables backup price lookups
	settle  time.Duration
}

func New(fetcher Fetcher, tabs TabOpener, backup *BackupClient) *Scraper {
	return &Scraper{fetcher: fetcher, tabs: tabs, backup: backup, settle: settleDelay}
}

// Scrape resolves a product URL to name/price/image.
//
// Stage 1 fetches the page passively and parses it; that stage succeeds only
// when all three fields come back. Stage 2 opens the URL in a live tab and
// runs in-page extraction; it has the same completeness requirement plus a
// parseable price. When both stages fail, no partial data is returned.
func (s *Scraper) Scrape(ctx context.Context, url string) (extract.Result, error) {
	if !strings.HasPrefix(url, "http") {
		return extract.Result{}, ErrInvalidURL
	}

	if res, ok := s.passive(ctx, url); ok {
		return res, nil
	}
	if s.tabs == nil {
		return extract.Result{}, ErrNoProductData
	}
	return s.escalate(ctx, url)
}

// PassivePrice runs only the fetch+parse stage and returns the observed
// price, or nil when the page yielded nothing parseable. The background
// refresh sweep uses this; it never opens tabs. When a backup price API is
// configured it covers both a failed fetch and an unparseable page.
func (s *Scraper) PassivePrice(ctx context.Context, url string) (*float64, error) {
	if !strings.HasPrefix(url, "http") {
		return nil, ErrInvalidURL
	}
	html, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		if p := s.backup.Price(ctx, url); p != nil {
			return p, nil
		}
		return nil, fmt.Errorf("fetch: %w", err)
	}
	price := track.ParsePrice(extract.Extract(html, url).Price)
	if price == nil {
		price = s.backup.Price(ctx, url)
	}
	return price, nil
}

// passive is stage 1. A fetch error is a stage failure, not a hard error.
func (s *Scraper) passive(ctx context.Context, url string) (extract.Result, bool) {
	html, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		log.Printf("[scrape] passive fetch %s: %v", url, err)
		return extract.Result{}, false
	}
	res := extract.Extract(html, url)
	return res, res.Complete()
}

// escalate is stage 2: open a tab, wait for load plus the settle delay, run
// in-page extraction, and close the tab no matter what happened.
func (s *Scraper) escalate(ctx context.Context, url string) (extract.Result, error) {
	tab, err := s.tabs.Open(ctx, url)
	if err != nil {
		return extract.Result{}, fmt.Errorf("open tab: %w", err)
	}
	defer tab.Close()

	if err := tab.WaitLoaded(ctx); err != nil {
		return extract.Result{}, fmt.Errorf("wait for load: %w", err)
	}

	select {
	case <-time.After(s.settle):
	case <-ctx.Done():
		return extract.Result{}, ctx.Err()
	}

	page, err := tab.ExtractProduct(ctx)
	if err != nil {
		return extract.Result{}, fmt.Errorf("in-page extract: %w", err)
	}

	name := strings.TrimSpace(page.Title)
	price := strings.ReplaceAll(strings.TrimSpace(page.Price), ",", "")
	image := strings.TrimSpace(page.Image)
	if name == "" || image == "" || track.ParsePrice(price) == nil {
		return extract.Result{}, ErrNoProductData
	}
	return extract.Result{Name: name, Price: price, Image: image, URL: url}, nil
}
