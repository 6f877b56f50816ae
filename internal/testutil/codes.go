package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/ahmetcoskunkizilkaya/tradeportal/internal/services"
)

// MemCodeStore is a CodeStore without expiry.
type MemCodeStore struct {
	mu    sync.Mutex
	codes map[string]services.CodePayload
}

var _ services.CodeStore = (*MemCodeStore)(nil)

func NewMemCodeStore() *MemCodeStore {
	return &MemCodeStore{codes: map[string]services.CodePayload{}}
}

func (s *MemCodeStore) Put(_ context.Context, code string, p services.CodePayload, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.codes[code] = p
	return nil
}

func (s *MemCodeStore) Take(_ context.Context, code string, kinds ...services.CodeKind) (*services.CodePayload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.codes[code]
	delete(s.codes, code)
	if !ok {
		return nil, services.ErrInvalidCode
	}
	for _, k := range kinds {
		if p.Kind == k {
			return &p, nil
		}
	}
	return nil, services.ErrInvalidCode
}

// Event is one recorded publish.
type Event struct {
	Key     string
	Payload any
}

// Publisher records events instead of sending them.
type Publisher struct {
	mu     sync.Mutex
	Events []Event
	Err    error
}

var _ services.EventPublisher = (*Publisher)(nil)

func (p *Publisher) Publish(_ context.Context, key string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	p.Events = append(p.Events, Event{Key: key, Payload: payload})
	return nil
}

func (p *Publisher) Close() error { return nil }

// Keys lists the routing keys published so far.
func (p *Publisher) Keys() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	keys := make([]string, 0, len(p.Events))
	for _, e := range p.Events {
		keys = append(keys, e.Key)
	}
	return keys
}
