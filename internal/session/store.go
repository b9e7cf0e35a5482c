// Package session holds live state between requests: running matches and
// decks imported but not yet started. Entries live on a sliding idle timer
// and vanish silently when it runs out.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// NotFoundError reports an id with no live entry, whether it never existed
// or its idle timer expired. The two cases are indistinguishable.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("session %s not found", e.ID)
}

type entry[T any] struct {
	value    T
	deadline time.Time
}

// Store is an in-memory table of live entries keyed by id. Every access
// through Get restarts the entry's idle timer. Expired entries are dropped
// lazily on access and in bulk by Sweep; both paths treat an expired entry
// exactly like a missing one.
type Store[T any] struct {
	name   string
	ttl    time.Duration
	logger *zap.Logger
	now    func() time.Time

	mu    sync.Mutex
	items map[string]*entry[T]
}

// NewStore creates a store whose entries idle out after ttl. The name only
// labels log lines.
func NewStore[T any](name string, ttl time.Duration, logger *zap.Logger) *Store[T] {
	return &Store[T]{
		name:   name,
		ttl:    ttl,
		logger: logger,
		now:    time.Now,
		items:  make(map[string]*entry[T]),
	}
}

// Put inserts or replaces an entry with a fresh idle timer.
func (s *Store[T]) Put(id string, value T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[id] = &entry[T]{value: value, deadline: s.now().Add(s.ttl)}
}

// Get returns the live entry for id and restarts its idle timer.
func (s *Store[T]) Get(id string) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var zero T
	ent, ok := s.items[id]
	if !ok {
		return zero, &NotFoundError{ID: id}
	}
	if s.now().After(ent.deadline) {
		delete(s.items, id)
		s.logger.Debug("entry expired on access",
			zap.String("store", s.name),
			zap.String("id", id))
		return zero, &NotFoundError{ID: id}
	}
	ent.deadline = s.now().Add(s.ttl)
	return ent.value, nil
}

// Take returns the live entry for id and removes it in the same step.
func (s *Store[T]) Take(id string) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var zero T
	ent, ok := s.items[id]
	if !ok {
		return zero, &NotFoundError{ID: id}
	}
	delete(s.items, id)
	if s.now().After(ent.deadline) {
		return zero, &NotFoundError{ID: id}
	}
	return ent.value, nil
}

// Delete removes an entry if present.
func (s *Store[T]) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, id)
}

// Len reports how many entries are held, expired ones included until a
// sweep or access drops them.
func (s *Store[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Sweep drops every expired entry and reports how many went.
func (s *Store[T]) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for id, ent := range s.items {
		if now.After(ent.deadline) {
			delete(s.items, id)
			removed++
		}
	}
	if removed > 0 {
		s.logger.Info("swept expired entries",
			zap.String("store", s.name),
			zap.Int("removed", removed),
			zap.Int("remaining", len(s.items)))
	}
	return removed
}

// Run sweeps on the given interval until the context is cancelled. Callers
// start it as a goroutine.
func (s *Store[T]) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}
