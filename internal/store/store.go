// Package store persists tracked-product state: a device-scoped store for
// the backend refresh path, and a keyed JSON store mirroring the
// extension's local storage collections.
package store

import (
	"context"
	"time"

	"marketshopper/internal/track"
)

// TrackRequest is the payload accepted by the track operation. Name and
// CurrentPrice are optional; existing values survive when they are absent.
type TrackRequest struct {
	DeviceID     string
	ProductID    string
	URL          string
	Name         *string
	CurrentPrice *float64
}

// Tracked is the backend-side slice of a product record kept per device.
type Tracked struct {
	ProductID    string
	URL          string
	Name         string
	CurrentPrice float64
	PriceHistory []track.PricePoint
	LastChecked  *int64 // unix millis; nil until the first successful refresh
}

// DeviceStore partitions tracked products by opaque device identifier. A
// device's products iterate in the order they were first tracked. An Update
// for a product removed in the meantime is silently dropped, never an
// error: concurrent edits are last-writer-wins.
type DeviceStore interface {
	Track(ctx context.Context, req TrackRequest) (Tracked, error)
	Untrack(ctx context.Context, deviceID, productID string) error
	Products(ctx context.Context, deviceID string) ([]Tracked, error)
	Devices(ctx context.Context) ([]string, error)
	Update(ctx context.Context, deviceID string, t Tracked) error
}

// mergeTrack applies the track semantics shared by every DeviceStore
// implementation: a re-track keeps the existing name, price and history
// when the request omits them, and a record whose price is already known
// gets its history seeded so it never sits at zero entries.
func mergeTrack(existing Tracked, had bool, req TrackRequest, now time.Time) Tracked {
	t := Tracked{
		ProductID: req.ProductID,
		URL:       req.URL,
	}
	if req.Name != nil {
		t.Name = *req.Name
	} else {
		t.Name = existing.Name
	}
	if req.CurrentPrice != nil {
		t.CurrentPrice = *req.CurrentPrice
	} else {
		t.CurrentPrice = existing.CurrentPrice
	}
	if had {
		t.PriceHistory = append([]track.PricePoint(nil), existing.PriceHistory...)
		t.LastChecked = existing.LastChecked
	}
	if len(t.PriceHistory) == 0 && t.CurrentPrice != 0 {
		t.PriceHistory = []track.PricePoint{{Price: t.CurrentPrice, Date: now.UnixMilli()}}
	}
	return t
}

// Record converts the backend slice into a full product record for
// reconciliation.
func (t Tracked) Record() track.ProductRecord {
	price := t.CurrentPrice
	rec := track.ProductRecord{
		ID:           t.ProductID,
		Name:         t.Name,
		URL:          t.URL,
		CurrentPrice: &price,
		PriceHistory: append([]track.PricePoint(nil), t.PriceHistory...),
	}
	if t.LastChecked != nil {
		rec.LastChecked = *t.LastChecked
	}
	return rec
}

// Apply folds a reconciled record back into the slice.
func (t *Tracked) Apply(rec track.ProductRecord) {
	if rec.CurrentPrice != nil {
		t.CurrentPrice = *rec.CurrentPrice
	}
	t.PriceHistory = rec.PriceHistory
	if rec.LastChecked != 0 {
		lc := rec.LastChecked
		t.LastChecked = &lc
	}
}
