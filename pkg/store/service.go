package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/NotCoffee418/emu_power/pkg/entities"
	"github.com/NotCoffee418/emu_power/pkg/wire"
)

// Store keeps the latest entity per kind.
// Puts come from the reader loop; reads may come from any goroutine.
type Store struct {
	mu          sync.RWMutex
	entries     map[entities.Kind]Entity
	waiters     map[entities.Kind]chan struct{}
	subscribers []func(Entity)
}

func New() *Store {
	return &Store{
		entries: make(map[entities.Kind]Entity),
		waiters: make(map[entities.Kind]chan struct{}),
	}
}

// Put replaces the entry for kind with a fresh entity and wakes its waiters.
func (s *Store) Put(kind entities.Kind, msg wire.Message, record entities.Record) Entity {
	entity := Entity{
		Kind:       kind,
		Message:    msg,
		Record:     record,
		Fresh:      true,
		ReceivedAt: time.Now(),
	}

	s.mu.Lock()
	s.entries[kind] = entity
	wake := s.waiters[kind]
	delete(s.waiters, kind)
	subscribers := s.subscribers
	s.mu.Unlock()

	if wake != nil {
		close(wake)
	}
	for _, fn := range subscribers {
		fn(entity)
	}
	return entity
}

// Peek returns the stored entity without touching its freshness.
func (s *Store) Peek(kind entities.Kind) (Entity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[kind]
	return e, ok
}

// Consume returns the stored entity only if it is fresh, and marks it stale.
func (s *Store) Consume(kind entities.Kind) (Entity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[kind]
	if !ok || !e.Fresh {
		return Entity{}, false
	}
	stale := e
	stale.Fresh = false
	s.entries[kind] = stale
	return e, true
}

// Invalidate marks the stored entity stale. Absent kinds are left absent.
func (s *Store) Invalidate(kind entities.Kind) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[kind]; ok {
		e.Fresh = false
		s.entries[kind] = e
	}
}

// WaitFresh blocks until a fresh entity of kind is stored or ctx is done.
// The entity is returned without being consumed.
func (s *Store) WaitFresh(ctx context.Context, kind entities.Kind) (Entity, error) {
	for {
		s.mu.Lock()
		if e, ok := s.entries[kind]; ok && e.Fresh {
			s.mu.Unlock()
			return e, nil
		}
		wake, ok := s.waiters[kind]
		if !ok {
			wake = make(chan struct{})
			s.waiters[kind] = wake
		}
		s.mu.Unlock()

		select {
		case <-wake:
		case <-ctx.Done():
			return Entity{}, ctx.Err()
		}
	}
}

// Kinds lists the kinds currently held, sorted.
func (s *Store) Kinds() []entities.Kind {
	s.mu.RLock()
	kinds := make([]entities.Kind, 0, len(s.entries))
	for k := range s.entries {
		kinds = append(kinds, k)
	}
	s.mu.RUnlock()
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// Subscribe registers fn to run after every Put, on the putting goroutine.
// fn must not block.
func (s *Store) Subscribe(fn func(Entity)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers[:len(s.subscribers):len(s.subscribers)], fn)
}
