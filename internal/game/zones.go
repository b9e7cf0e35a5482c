package game

import (
	"github.com/cardroom/cardroom-server/internal/card"
)

// ZoneKind names one of the containers a card instance can occupy. The zones
// partition a match's cards completely: every card belongs to exactly one
// zone at any time, and a card attached to a play spot is "in" that spot.
type ZoneKind string

const (
	ZoneDeck     ZoneKind = "DECK"
	ZoneHand     ZoneKind = "HAND"
	ZoneTempHand ZoneKind = "TEMP_HAND"
	ZoneActive   ZoneKind = "ACTIVE"
	ZoneBench    ZoneKind = "BENCH"
	ZoneDiscard  ZoneKind = "DISCARD"
	ZoneStadium  ZoneKind = "STADIUM"
	ZonePrizes   ZoneKind = "PRIZES"
)

// PlaySpot is a single active or bench position: at most one main creature
// card, the cards attached to it, and its damage counters. DamageCounters
// never goes below zero.
type PlaySpot struct {
	MainCard       *card.Card   `json:"mainCard"`
	AttachedCards  []*card.Card `json:"attachedCards,omitempty"`
	DamageCounters int          `json:"damageCounters"`
}

// snapshot returns a copy safe to hand to observers; the card pointers are
// shared but the attachment slice is not.
func (p *PlaySpot) snapshot() PlaySpot {
	attached := make([]*card.Card, len(p.AttachedCards))
	copy(attached, p.AttachedCards)
	return PlaySpot{
		MainCard:       p.MainCard,
		AttachedCards:  attached,
		DamageCounters: p.DamageCounters,
	}
}

// isEmpty reports whether the spot holds nothing at all.
func (p *PlaySpot) isEmpty() bool {
	return p.MainCard == nil && len(p.AttachedCards) == 0
}

// removeAttached detaches the card with the given instance id, returning it.
func (p *PlaySpot) removeAttached(instanceID string) *card.Card {
	for i, c := range p.AttachedCards {
		if c.InstanceID == instanceID {
			p.AttachedCards = append(p.AttachedCards[:i], p.AttachedCards[i+1:]...)
			return c
		}
	}
	return nil
}

// removeByID removes the card with the given instance id from a card list,
// returning the card and whether it was present.
func removeByID(cards []*card.Card, instanceID string) ([]*card.Card, *card.Card, bool) {
	for i, c := range cards {
		if c.InstanceID == instanceID {
			return append(cards[:i], cards[i+1:]...), c, true
		}
	}
	return cards, nil, false
}

// findByID returns the card with the given instance id if present.
func findByID(cards []*card.Card, instanceID string) (*card.Card, bool) {
	for _, c := range cards {
		if c.InstanceID == instanceID {
			return c, true
		}
	}
	return nil, false
}
