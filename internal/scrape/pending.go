package scrape

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"marketshopper/internal/extract"
)

// resultTTL bounds how long a caller's interest in a scrape result survives.
const resultTTL = 25 * time.Second

// Notification is the fire-and-forget completion signal for one scrape
// request, correlated by token rather than delivered as a synchronous reply.
type Notification struct {
	Token  string
	Result extract.Result
	Err    error
}

// Pending correlates in-flight scrapes with interested callers. Interest is
// discarded after the first matching notification or after the TTL,
// whichever comes first, so entries never accumulate when one side dies
// mid-flight.
type Pending struct {
	mu      sync.Mutex
	ttl     time.Duration
	waiters map[string]chan Notification
}

func NewPending() *Pending {
	return NewPendingTTL(resultTTL)
}

// NewPendingTTL exists so tests can shrink the eviction window.
func NewPendingTTL(ttl time.Duration) *Pending {
	return &Pending{ttl: ttl, waiters: make(map[string]chan Notification)}
}

// Register creates a correlation token and a channel that receives exactly
// one notification for it: the delivered result, or ErrTimeout once the TTL
// fires and the entry self-deregisters.
func (p *Pending) Register() (string, <-chan Notification) {
	token := uuid.NewString()
	ch := make(chan Notification, 1)

	p.mu.Lock()
	p.waiters[token] = ch
	p.mu.Unlock()

	time.AfterFunc(p.ttl, func() {
		if expired := p.take(token); expired != nil {
			expired <- Notification{Token: token, Err: ErrTimeout}
		}
	})
	return token, ch
}

// Deliver hands a finished scrape to whoever registered the token.
// Notifications for unknown or already-expired tokens are dropped.
func (p *Pending) Deliver(token string, res extract.Result, err error) {
	if ch := p.take(token); ch != nil {
		ch <- Notification{Token: token, Result: res, Err: err}
	}
}

func (p *Pending) take(token string) chan Notification {
	p.mu.Lock()
	defer p.mu.Unlock()
	ch := p.waiters[token]
	delete(p.waiters, token)
	return ch
}
