// Package track holds the product record model and the price reconciliation
// rules shared by the local tracker and the backend refresh path.
package track

import (
	"strconv"
	"strings"
)

// PricePoint is one observed price. Date is unix milliseconds, matching the
// stored wire format. History is append-only and insertion order is
// observation order.
type PricePoint struct {
	Price float64 `json:"price"`
	Date  int64   `json:"date"`
}

// ProductRecord is a tracked product as persisted in keyed storage.
type ProductRecord struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	URL          string       `json:"url,omitempty"`
	CurrentPrice *float64     `json:"currentPrice"`
	TargetPrice  *float64     `json:"targetPrice,omitempty"`
	Image        string       `json:"image,omitempty"`
	Notes        string       `json:"notes,omitempty"`
	TrackLive    bool         `json:"trackLive"`
	PriceHistory []PricePoint `json:"priceHistory"`
	AddedDate    int64        `json:"addedDate"`
	LastChecked  int64        `json:"lastChecked,omitempty"`
}

// HasPriceDrop reports whether the latest observation is below the previous
// one.
func (r *ProductRecord) HasPriceDrop() bool {
	n := len(r.PriceHistory)
	return n >= 2 && r.PriceHistory[n-1].Price < r.PriceHistory[n-2].Price
}

// AlertActive reports whether the current price is still above the user's
// target threshold.
func (r *ProductRecord) AlertActive() bool {
	if r.TargetPrice == nil || r.CurrentPrice == nil {
		return false
	}
	return *r.CurrentPrice > *r.TargetPrice
}

// Savings is the drop from the first observation to the latest one, zero
// when fewer than two observations exist or the price went up.
func (r *ProductRecord) Savings() float64 {
	n := len(r.PriceHistory)
	if n < 2 {
		return 0
	}
	if d := r.PriceHistory[0].Price - r.PriceHistory[n-1].Price; d > 0 {
		return d
	}
	return 0
}

// ParsePrice converts an extracted price string to a number. Commas are
// stripped first. Returns nil when the string holds nothing parseable, so
// the result feeds straight into Reconcile's null-observation rule.
func ParsePrice(s string) *float64 {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return nil
	}
	return &v
}
