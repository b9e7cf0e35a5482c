package game

import (
	"sync"

	"github.com/cardroom/cardroom-server/internal/card"
	"github.com/cardroom/cardroom-server/internal/deck"
	"github.com/google/uuid"
)

// Session is the root entity of one match: the deck, every zone, and the
// game record. It is created when a match starts, mutated only through
// engine operations, and destroyed when the match ends or its idle timer
// expires.
//
// Every session carries its own exclusive lock. All engine operations
// serialize on it, so locating a card and mutating its zone are atomic with
// respect to other operations on the same session, while operations on
// different sessions proceed without contention. The lock is held for one
// zone mutation plus its log append, never across a network call.
type Session struct {
	ID     string
	Deck   *deck.Deck
	Record *Record

	Hand        []*card.Card
	TempHand    []*card.Card
	Active      *PlaySpot
	Bench       []*PlaySpot
	DiscardPile []*card.Card
	Stadium     *card.Card
	PrizeCards  []*card.Card

	mu sync.Mutex
}

// NewSession creates a session around a built deck. Zones other than the
// deck start empty; Start deals the opening position.
func NewSession(d *deck.Deck) *Session {
	return &Session{
		ID:     uuid.New().String(),
		Deck:   d,
		Record: NewRecord(),
		Active: &PlaySpot{},
	}
}

// HandSnapshot returns a copy of the current hand.
func (s *Session) HandSnapshot() []*card.Card {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*card.Card, len(s.Hand))
	copy(out, s.Hand)
	return out
}

// ActiveSnapshot returns a copy of the active spot.
func (s *Session) ActiveSnapshot() PlaySpot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Active.snapshot()
}

// BenchSnapshot returns a copy of the bench spots.
func (s *Session) BenchSnapshot() []PlaySpot {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]PlaySpot, 0, len(s.Bench))
	for _, spot := range s.Bench {
		out = append(out, spot.snapshot())
	}
	return out
}

// History returns the session's full event history to date.
func (s *Session) History() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Record.Events()
}

// DeckSize reports the number of cards remaining in the deck zone.
func (s *Session) DeckSize() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Deck.Cards)
}

// allCards returns every card instance across every zone, attachments
// included. Callers must hold the session lock.
func (s *Session) allCards() []*card.Card {
	var all []*card.Card
	all = append(all, s.Deck.Cards...)
	all = append(all, s.Hand...)
	all = append(all, s.TempHand...)
	all = append(all, s.PrizeCards...)
	all = append(all, s.DiscardPile...)
	if s.Active.MainCard != nil {
		all = append(all, s.Active.MainCard)
	}
	all = append(all, s.Active.AttachedCards...)
	for _, spot := range s.Bench {
		if spot.MainCard != nil {
			all = append(all, spot.MainCard)
		}
		all = append(all, spot.AttachedCards...)
	}
	if s.Stadium != nil {
		all = append(all, s.Stadium)
	}
	return all
}
