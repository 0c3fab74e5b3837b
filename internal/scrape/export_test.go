package scrape

import "time"

// SetSettle shortens the post-load settle window in tests.
func SetSettle(s *Scraper, d time.Duration) { s.settle = d }
