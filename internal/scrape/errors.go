package scrape

import "errors"

var (
	// ErrInvalidURL rejects scrape requests for non-http targets before any
	// network access happens. The input needs fixing; retrying is pointless.
	ErrInvalidURL = errors.New("scrape: url must start with http")

	// ErrNoProductData means every stage ran and none produced a usable
	// result. Opening the page manually is the remediation.
	ErrNoProductData = errors.New("scrape: could not extract product data")

	// ErrTimeout means the caller stopped waiting for an in-flight scrape.
	// Retrying later may succeed.
	ErrTimeout = errors.New("scrape: timed out waiting for result")
)
