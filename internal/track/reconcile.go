package track

import (
	"math"
	"time"
)

// Reconcile folds one price observation into a record.
//
// A nil or non-finite observation leaves the record completely untouched:
// lastChecked is not updated either, so a failed fetch never masquerades as
// a fresh check. Otherwise lastChecked always advances, and a history entry
// is appended only when the observed price differs numerically from the
// current one, keeping consecutive identical observations deduplicated.
//
// A record created with a known price but an empty history is seeded with
// that price first, so a tracked record always carries at least one history
// entry once a price is known, and currentPrice always equals the latest
// entry afterwards. History is append-only; it is never reordered or
// truncated here.
//
// Returns true when the record changed.
func Reconcile(rec *ProductRecord, observed *float64, at time.Time) bool {
	if rec == nil || observed == nil || math.IsNaN(*observed) || math.IsInf(*observed, 0) {
		return false
	}
	now := at.UnixMilli()

	if len(rec.PriceHistory) == 0 && rec.CurrentPrice != nil && *rec.CurrentPrice != 0 {
		rec.PriceHistory = append(rec.PriceHistory, PricePoint{Price: *rec.CurrentPrice, Date: now})
	}

	rec.LastChecked = now

	price := *observed
	if rec.CurrentPrice == nil || *rec.CurrentPrice != price {
		rec.PriceHistory = append(rec.PriceHistory, PricePoint{Price: price, Date: now})
	}
	rec.CurrentPrice = &price
	return true
}
