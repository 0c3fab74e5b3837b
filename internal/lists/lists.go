// Package lists owns the keyed collections the extension UI reads and
// writes: tracked products, shopping lists, search history and the
// wishlist. Rendering and event wiring live elsewhere; this is the data
// behavior behind them.
package lists

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"marketshopper/internal/store"
	"marketshopper/internal/track"
)

// Storage keys shared with the extension pages.
const (
	KeyTrackedProducts = "trackedProducts"
	KeyShoppingLists   = "shoppingLists"
	KeySearchHistory   = "searchHistory"
	KeyWishlist        = "wishlist"
)

// historyLimit caps the search history at the newest entries.
const historyLimit = 50

var ErrNotFound = errors.New("lists: not found")

// ShoppingItem is one entry of a shopping list.
type ShoppingItem struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Quantity  float64  `json:"quantity"`
	Unit      string   `json:"unit,omitempty"`
	Price     *float64 `json:"price"`
	Notes     string   `json:"notes,omitempty"`
	Completed bool     `json:"completed"`
	AddedDate int64    `json:"addedDate"`
}

// ShoppingList groups items under a name. Saved marks a list kept for
// reuse; Completed is set once every item is checked off.
type ShoppingList struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Items       []ShoppingItem `json:"items"`
	Completed   bool           `json:"completed"`
	Saved       bool           `json:"saved"`
	CreatedDate int64          `json:"createdDate"`
	UpdatedDate int64          `json:"updatedDate"`
}

// EstimatedTotal sums price*quantity over the list's items, treating a
// missing quantity as one.
func (l *ShoppingList) EstimatedTotal() float64 {
	var sum float64
	for _, item := range l.Items {
		if item.Price == nil {
			continue
		}
		qty := item.Quantity
		if qty == 0 {
			qty = 1
		}
		sum += *item.Price * qty
	}
	return sum
}

// SearchEntry is one row of the bounded search history.
type SearchEntry struct {
	Timestamp int64  `json:"timestamp"`
	Product   string `json:"product"`
	Price     string `json:"price"`
	Results   int    `json:"results"`
	Action    string `json:"action"`
}

// Service serializes every read-modify-write cycle over the keyed store so
// a whole collection is never torn by concurrent operations.
type Service struct {
	mu    sync.Mutex
	store store.Keyed
	now   func() time.Time
	newID func() string
}

func NewService(kv store.Keyed) *Service {
	return &Service{store: kv, now: time.Now, newID: uuid.NewString}
}

// --- tracked products -----------------------------------------------------

// AddProductInput carries the add/edit form fields.
type AddProductInput struct {
	Name         string
	URL          string
	CurrentPrice *float64
	TargetPrice  *float64
	Image        string
	Notes        string
	TrackLive    bool
}

// AddProduct appends a new tracked product. A known creation price seeds
// the history immediately so the record never has a price without at least
// one history entry.
func (s *Service) AddProduct(ctx context.Context, in AddProductInput) (track.ProductRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	products, err := s.products(ctx)
	if err != nil {
		return track.ProductRecord{}, err
	}
	now := s.now().UnixMilli()
	rec := track.ProductRecord{
		ID:           s.newID(),
		Name:         in.Name,
		URL:          in.URL,
		CurrentPrice: in.CurrentPrice,
		TargetPrice:  in.TargetPrice,
		Image:        in.Image,
		Notes:        in.Notes,
		TrackLive:    in.TrackLive,
		AddedDate:    now,
	}
	if rec.CurrentPrice != nil {
		rec.PriceHistory = []track.PricePoint{{Price: *rec.CurrentPrice, Date: now}}
	}
	products = append(products, rec)
	return rec, s.store.Set(ctx, KeyTrackedProducts, products)
}

// UpdateProduct edits an existing record. A changed price appends to the
// history; everything else overwrites in place.
func (s *Service) UpdateProduct(ctx context.Context, id string, in AddProductInput) (track.ProductRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	products, err := s.products(ctx)
	if err != nil {
		return track.ProductRecord{}, err
	}
	i := indexOf(products, id)
	if i < 0 {
		return track.ProductRecord{}, ErrNotFound
	}
	p := &products[i]
	p.Name = in.Name
	p.URL = in.URL
	p.TargetPrice = in.TargetPrice
	p.Notes = in.Notes
	p.TrackLive = in.TrackLive
	if in.Image != "" {
		p.Image = in.Image
	}
	if in.CurrentPrice != nil && (p.CurrentPrice == nil || *p.CurrentPrice != *in.CurrentPrice) {
		v := *in.CurrentPrice
		p.CurrentPrice = &v
		p.PriceHistory = append(p.PriceHistory, track.PricePoint{Price: v, Date: s.now().UnixMilli()})
	}
	return *p, s.store.Set(ctx, KeyTrackedProducts, products)
}

// SetTrackLive flips the live-refresh flag on one record.
func (s *Service) SetTrackLive(ctx context.Context, id string, live bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	products, err := s.products(ctx)
	if err != nil {
		return err
	}
	i := indexOf(products, id)
	if i < 0 {
		return ErrNotFound
	}
	products[i].TrackLive = live
	return s.store.Set(ctx, KeyTrackedProducts, products)
}

// DeleteProducts removes the given records. Unknown ids are ignored, so a
// bulk delete that races a refresh still succeeds.
func (s *Service) DeleteProducts(ctx context.Context, ids ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	products, err := s.products(ctx)
	if err != nil {
		return err
	}
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	kept := products[:0]
	for _, p := range products {
		if !drop[p.ID] {
			kept = append(kept, p)
		}
	}
	return s.store.Set(ctx, KeyTrackedProducts, kept)
}

// Products returns the tracked collection in stored order.
func (s *Service) Products(ctx context.Context) ([]track.ProductRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.products(ctx)
}

func (s *Service) products(ctx context.Context) ([]track.ProductRecord, error) {
	var products []track.ProductRecord
	if _, err := s.store.Get(ctx, KeyTrackedProducts, &products); err != nil {
		return nil, err
	}
	return products, nil
}

func indexOf(products []track.ProductRecord, id string) int {
	for i := range products {
		if products[i].ID == id {
			return i
		}
	}
	return -1
}

// RemotePrice mirrors one entry of the backend's price feed.
type RemotePrice struct {
	ProductID    string             `json:"productId"`
	CurrentPrice *float64           `json:"currentPrice"`
	PriceHistory []track.PricePoint `json:"priceHistory"`
	LastChecked  *int64             `json:"lastChecked"`
}

// MergeRemotePrices folds backend-observed prices into the local records.
// Only numeric remote prices are applied, and only when the price or the
// history length actually changed. Returns how many records changed.
func (s *Service) MergeRemotePrices(ctx context.Context, remote []RemotePrice) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	products, err := s.products(ctx)
	if err != nil {
		return 0, err
	}
	byID := make(map[string]RemotePrice, len(remote))
	for _, r := range remote {
		byID[r.ProductID] = r
	}

	changed := 0
	for i := range products {
		r, ok := byID[products[i].ID]
		if !ok || r.CurrentPrice == nil {
			continue
		}
		cur := products[i].CurrentPrice
		if cur != nil && *cur == *r.CurrentPrice && len(r.PriceHistory) == len(products[i].PriceHistory) {
			continue
		}
		v := *r.CurrentPrice
		products[i].CurrentPrice = &v
		if r.PriceHistory != nil {
			products[i].PriceHistory = r.PriceHistory
		}
		if r.LastChecked != nil {
			products[i].LastChecked = *r.LastChecked
		}
		changed++
	}
	if changed == 0 {
		return 0, nil
	}
	return changed, s.store.Set(ctx, KeyTrackedProducts, products)
}

// Stats summarizes the tracked collection the way the tracker page header
// does.
type Stats struct {
	Total        int
	PriceDrops   int
	ActiveAlerts int
	TotalSavings float64
}

func (s *Service) Stats(ctx context.Context) (Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	products, err := s.products(ctx)
	if err != nil {
		return Stats{}, err
	}
	st := Stats{Total: len(products)}
	for i := range products {
		if products[i].HasPriceDrop() {
			st.PriceDrops++
		}
		if products[i].AlertActive() {
			st.ActiveAlerts++
		}
		st.TotalSavings += products[i].Savings()
	}
	return st, nil
}

// --- wishlist -------------------------------------------------------------

// Wishlist returns the raw wishlist collection. Its schema belongs to the
// UI; the core stores it opaquely.
func (s *Service) Wishlist(ctx context.Context) (json.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var raw json.RawMessage
	found, err := s.store.Get(ctx, KeyWishlist, &raw)
	if err != nil {
		return nil, err
	}
	if !found {
		return json.RawMessage("[]"), nil
	}
	return raw, nil
}

func (s *Service) SetWishlist(ctx context.Context, raw json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Set(ctx, KeyWishlist, raw)
}
