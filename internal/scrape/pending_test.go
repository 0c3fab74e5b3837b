package scrape_test

import (
	"errors"
	"testing"
	"time"

	"marketshopper/internal/extract"
	"marketshopper/internal/scrape"
)

func TestPending_DeliverReachesWaiter(t *testing.T) {
	p := scrape.NewPending()
	token, ch := p.Register()

	want := extract.Result{Name: "Kettle", Price: "39.99"}
	p.Deliver(token, want, nil)

	select {
	case n := <-ch:
		if n.Token != token || n.Err != nil || n.Result != want {
			t.Errorf("notification = %+v", n)
		}
	case <-time.After(time.Second):
		t.Fatal("no notification delivered")
	}
}

// Each token is independent; delivery for one never reaches another.
func TestPending_TokensIsolated(t *testing.T) {
	p := scrape.NewPending()
	tokenA, chA := p.Register()
	_, chB := p.Register()

	p.Deliver(tokenA, extract.Result{Name: "A"}, nil)

	select {
	case n := <-chA:
		if n.Result.Name != "A" {
			t.Errorf("waiter A got %+v", n)
		}
	case <-time.After(time.Second):
		t.Fatal("waiter A starved")
	}
	select {
	case n := <-chB:
		t.Errorf("waiter B received %+v, want nothing", n)
	case <-time.After(50 * time.Millisecond):
	}
}

// A second delivery for the same token is dropped, as is an unknown token.
func TestPending_DuplicateAndUnknownDropped(t *testing.T) {
	p := scrape.NewPending()
	token, ch := p.Register()

	p.Deliver(token, extract.Result{Name: "first"}, nil)
	p.Deliver(token, extract.Result{Name: "second"}, nil)
	p.Deliver("no-such-token", extract.Result{}, nil)

	n := <-ch
	if n.Result.Name != "first" {
		t.Errorf("got %+v, want the first delivery", n)
	}
	select {
	case n := <-ch:
		t.Errorf("extra notification %+v", n)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestPending_TimeoutDelivered(t *testing.T) {
	p := scrape.NewPendingTTL(20 * time.Millisecond)
	token, ch := p.Register()

	select {
	case n := <-ch:
		if !errors.Is(n.Err, scrape.ErrTimeout) {
			t.Errorf("Err = %v, want ErrTimeout", n.Err)
		}
		if n.Token != token {
			t.Errorf("Token = %q, want %q", n.Token, token)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout notification never arrived")
	}

	// The entry is gone; a late result is dropped silently.
	p.Deliver(token, extract.Result{Name: "late"}, nil)
	select {
	case n := <-ch:
		t.Errorf("late delivery surfaced: %+v", n)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestPending_DeliveredErrorPassedThrough(t *testing.T) {
	p := scrape.NewPending()
	token, ch := p.Register()

	p.Deliver(token, extract.Result{}, scrape.ErrNoProductData)
	n := <-ch
	if !errors.Is(n.Err, scrape.ErrNoProductData) {
		t.Errorf("Err = %v, want ErrNoProductData", n.Err)
	}
}
