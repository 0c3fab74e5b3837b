package track_test

import (
	"math"
	"testing"
	"time"

	"marketshopper/internal/track"
)

func ptr(v float64) *float64 { return &v }

var checkTime = time.UnixMilli(1_700_000_000_000)

// ── null and non-finite observations ───────────────────────────────────────

func TestReconcile_NilObservationUntouched(t *testing.T) {
	rec := &track.ProductRecord{
		ID:           "1",
		CurrentPrice: ptr(20),
		PriceHistory: []track.PricePoint{{Price: 20, Date: 1}},
		LastChecked:  1,
	}

	if track.Reconcile(rec, nil, checkTime) {
		t.Fatal("nil observation reported a change")
	}
	if rec.LastChecked != 1 {
		t.Errorf("LastChecked = %d, want untouched", rec.LastChecked)
	}
	if len(rec.PriceHistory) != 1 || *rec.CurrentPrice != 20 {
		t.Errorf("record mutated by nil observation: %+v", rec)
	}
}

func TestReconcile_NonFiniteObservationUntouched(t *testing.T) {
	for _, bad := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		rec := &track.ProductRecord{ID: "1", CurrentPrice: ptr(20)}
		if track.Reconcile(rec, &bad, checkTime) {
			t.Errorf("non-finite %v reported a change", bad)
		}
		if rec.LastChecked != 0 || len(rec.PriceHistory) != 0 {
			t.Errorf("non-finite %v mutated record: %+v", bad, rec)
		}
	}
}

func TestReconcile_NilRecord(t *testing.T) {
	if track.Reconcile(nil, ptr(5), checkTime) {
		t.Error("nil record reported a change")
	}
}

// ── change detection and dedup ─────────────────────────────────────────────

func TestReconcile_AppendsOnChange(t *testing.T) {
	rec := &track.ProductRecord{
		ID:           "1",
		CurrentPrice: ptr(30),
		PriceHistory: []track.PricePoint{{Price: 30, Date: 1}},
	}

	if !track.Reconcile(rec, ptr(24.99), checkTime) {
		t.Fatal("changed observation reported no change")
	}
	if *rec.CurrentPrice != 24.99 {
		t.Errorf("CurrentPrice = %v, want 24.99", *rec.CurrentPrice)
	}
	if len(rec.PriceHistory) != 2 {
		t.Fatalf("history length = %d, want 2", len(rec.PriceHistory))
	}
	last := rec.PriceHistory[1]
	if last.Price != 24.99 || last.Date != checkTime.UnixMilli() {
		t.Errorf("last entry = %+v", last)
	}
	if rec.LastChecked != checkTime.UnixMilli() {
		t.Errorf("LastChecked = %d, want %d", rec.LastChecked, checkTime.UnixMilli())
	}
}

// Equal observation advances lastChecked but appends nothing.
func TestReconcile_EqualPriceDeduplicated(t *testing.T) {
	rec := &track.ProductRecord{
		ID:           "1",
		CurrentPrice: ptr(30),
		PriceHistory: []track.PricePoint{{Price: 30, Date: 1}},
	}

	track.Reconcile(rec, ptr(30), checkTime)
	if len(rec.PriceHistory) != 1 {
		t.Errorf("history length = %d, want 1 after identical observation", len(rec.PriceHistory))
	}
	if rec.LastChecked != checkTime.UnixMilli() {
		t.Errorf("LastChecked = %d, want updated even without a change", rec.LastChecked)
	}
}

func TestReconcile_RepeatedSweepsDeduplicate(t *testing.T) {
	rec := &track.ProductRecord{ID: "1", CurrentPrice: ptr(30)}
	for i := 0; i < 5; i++ {
		track.Reconcile(rec, ptr(30), checkTime.Add(time.Duration(i)*time.Minute))
	}
	// seed entry only; five identical observations add nothing
	if len(rec.PriceHistory) != 1 {
		t.Errorf("history length = %d, want 1", len(rec.PriceHistory))
	}
}

// ── history seeding ────────────────────────────────────────────────────────

func TestReconcile_SeedsEmptyHistory(t *testing.T) {
	rec := &track.ProductRecord{ID: "1", CurrentPrice: ptr(50)}

	track.Reconcile(rec, ptr(45), checkTime)
	if len(rec.PriceHistory) != 2 {
		t.Fatalf("history length = %d, want seed + observation", len(rec.PriceHistory))
	}
	if rec.PriceHistory[0].Price != 50 {
		t.Errorf("seed entry price = %v, want creation price 50", rec.PriceHistory[0].Price)
	}
	if rec.PriceHistory[1].Price != 45 {
		t.Errorf("second entry price = %v, want observed 45", rec.PriceHistory[1].Price)
	}
}

// Unknown or zero creation price seeds nothing.
func TestReconcile_NoSeedWithoutKnownPrice(t *testing.T) {
	cases := []struct {
		name  string
		price *float64
	}{
		{"nil creation price", nil},
		{"zero creation price", ptr(0)},
	}
	for _, c := range cases {
		rec := &track.ProductRecord{ID: "1", CurrentPrice: c.price}
		track.Reconcile(rec, ptr(45), checkTime)
		if len(rec.PriceHistory) != 1 {
			t.Errorf("%s: history length = %d, want 1 (observation only)", c.name, len(rec.PriceHistory))
		}
	}
}

// Once a price is known the record always carries at least one history entry
// and currentPrice equals the latest entry.
func TestReconcile_Invariants(t *testing.T) {
	rec := &track.ProductRecord{ID: "1", CurrentPrice: ptr(10)}
	observations := []*float64{ptr(10), nil, ptr(9.5), ptr(9.5), ptr(11)}
	for i, obs := range observations {
		track.Reconcile(rec, obs, checkTime.Add(time.Duration(i)*time.Hour))
		if n := len(rec.PriceHistory); n == 0 {
			t.Fatalf("step %d: history empty", i)
		} else if rec.CurrentPrice == nil || rec.PriceHistory[n-1].Price != *rec.CurrentPrice {
			t.Fatalf("step %d: currentPrice %v != latest entry %v", i, rec.CurrentPrice, rec.PriceHistory[n-1].Price)
		}
	}
	if len(rec.PriceHistory) != 3 { // 10, 9.5, 11
		t.Errorf("history length = %d, want 3", len(rec.PriceHistory))
	}
}

// ── helpers on the record ──────────────────────────────────────────────────

func TestHasPriceDrop(t *testing.T) {
	rec := &track.ProductRecord{PriceHistory: []track.PricePoint{{Price: 30}, {Price: 25}}}
	if !rec.HasPriceDrop() {
		t.Error("drop not detected")
	}
	rec.PriceHistory = append(rec.PriceHistory, track.PricePoint{Price: 26})
	if rec.HasPriceDrop() {
		t.Error("rise reported as drop")
	}
	if (&track.ProductRecord{PriceHistory: []track.PricePoint{{Price: 30}}}).HasPriceDrop() {
		t.Error("single entry reported as drop")
	}
}

func TestAlertActive(t *testing.T) {
	rec := &track.ProductRecord{CurrentPrice: ptr(30), TargetPrice: ptr(25)}
	if !rec.AlertActive() {
		t.Error("price above target should keep the alert active")
	}
	rec.CurrentPrice = ptr(24)
	if rec.AlertActive() {
		t.Error("price at or below target should clear the alert")
	}
	rec.TargetPrice = nil
	if rec.AlertActive() {
		t.Error("no target means no alert")
	}
}

func TestSavings(t *testing.T) {
	rec := &track.ProductRecord{PriceHistory: []track.PricePoint{{Price: 30}, {Price: 28}, {Price: 22.5}}}
	if got := rec.Savings(); got != 7.5 {
		t.Errorf("Savings = %v, want 7.5", got)
	}
	rec.PriceHistory = []track.PricePoint{{Price: 20}, {Price: 25}}
	if got := rec.Savings(); got != 0 {
		t.Errorf("Savings after a rise = %v, want 0", got)
	}
}

func TestParsePrice(t *testing.T) {
	cases := []struct {
		in   string
		want *float64
	}{
		{"24.99", ptr(24.99)},
		{"1,299.00", ptr(1299)},
		{" 15 ", ptr(15)},
		{"0", ptr(0)},
		{"", nil},
		{"free", nil},
		{"-5", nil},
	}
	for _, c := range cases {
		got := track.ParsePrice(c.in)
		switch {
		case c.want == nil && got != nil:
			t.Errorf("ParsePrice(%q) = %v, want nil", c.in, *got)
		case c.want != nil && got == nil:
			t.Errorf("ParsePrice(%q) = nil, want %v", c.in, *c.want)
		case c.want != nil && *got != *c.want:
			t.Errorf("ParsePrice(%q) = %v, want %v", c.in, *got, *c.want)
		}
	}
}
