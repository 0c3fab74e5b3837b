package store

import (
	"context"
	"sync"
	"time"
)

// MemoryDeviceStore keeps all device scopes in process memory. It is the
// default store when no DATABASE_URL is configured, and what tests run
// against. Each operation is atomic under a single mutex; there is no
// cross-operation transaction.
type MemoryDeviceStore struct {
	mu      sync.Mutex
	order   []string
	devices map[string]*deviceBucket
	now     func() time.Time
}

type deviceBucket struct {
	order    []string
	products map[string]Tracked
}

func NewMemoryDeviceStore() *MemoryDeviceStore {
	return &MemoryDeviceStore{
		devices: make(map[string]*deviceBucket),
		now:     time.Now,
	}
}

func (s *MemoryDeviceStore) bucket(deviceID string) *deviceBucket {
	b, ok := s.devices[deviceID]
	if !ok {
		b = &deviceBucket{products: make(map[string]Tracked)}
		s.devices[deviceID] = b
		s.order = append(s.order, deviceID)
	}
	return b
}

func (s *MemoryDeviceStore) Track(_ context.Context, req TrackRequest) (Tracked, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b := s.bucket(req.DeviceID)
	existing, had := b.products[req.ProductID]
	t := mergeTrack(existing, had, req, s.now())
	if !had {
		b.order = append(b.order, req.ProductID)
	}
	b.products[req.ProductID] = t
	return t, nil
}

func (s *MemoryDeviceStore) Untrack(_ context.Context, deviceID, productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.devices[deviceID]
	if !ok {
		return nil
	}
	if _, had := b.products[productID]; !had {
		return nil
	}
	delete(b.products, productID)
	for i, id := range b.order {
		if id == productID {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *MemoryDeviceStore) Products(_ context.Context, deviceID string) ([]Tracked, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.devices[deviceID]
	if !ok {
		return []Tracked{}, nil
	}
	out := make([]Tracked, 0, len(b.order))
	for _, id := range b.order {
		out = append(out, b.products[id])
	}
	return out, nil
}

func (s *MemoryDeviceStore) Devices(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.order...), nil
}

// Update overwrites a product's slice. If the product was untracked in the
// meantime the write is dropped.
func (s *MemoryDeviceStore) Update(_ context.Context, deviceID string, t Tracked) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.devices[deviceID]
	if !ok {
		return nil
	}
	if _, had := b.products[t.ProductID]; !had {
		return nil
	}
	b.products[t.ProductID] = t
	return nil
}
