package game

import (
	"fmt"
)

// CardNotInPlayError reports a card instance that could not be located in
// any searchable zone.
type CardNotInPlayError struct {
	CardID string
}

func (e *CardNotInPlayError) Error() string {
	return fmt.Sprintf("card %s is not in play", e.CardID)
}

// CardNotFoundError reports a card instance absent from the specific zone an
// operation named as its source.
type CardNotFoundError struct {
	CardID string
	Zone   ZoneKind
}

func (e *CardNotFoundError) Error() string {
	return fmt.Sprintf("card %s not found in %s", e.CardID, e.Zone)
}

// EmptyZoneError reports a draw or peek past the cards a zone holds.
type EmptyZoneError struct {
	Zone ZoneKind
}

func (e *EmptyZoneError) Error() string {
	return fmt.Sprintf("no cards available in %s", e.Zone)
}

// ZoneOccupiedError reports a move into a single-card zone that already
// holds a card. Nothing is overwritten; the caller clears the zone first.
type ZoneOccupiedError struct {
	Zone ZoneKind
}

func (e *ZoneOccupiedError) Error() string {
	return fmt.Sprintf("zone %s is already occupied", e.Zone)
}

// NoBasicCreatureError reports a deck from which no legal opening hand can
// ever be dealt because it contains no Basic-stage creature.
type NoBasicCreatureError struct {
	DeckID string
}

func (e *NoBasicCreatureError) Error() string {
	return fmt.Sprintf("deck %s contains no Basic creature", e.DeckID)
}

// DeckTooSmallError reports a deck with fewer cards than an opening hand
// requires. Dealing from such a deck would loop forever, so it is rejected
// up front.
type DeckTooSmallError struct {
	Cards    int
	Required int
}

func (e *DeckTooSmallError) Error() string {
	return fmt.Sprintf("deck has %d cards, opening hand requires %d", e.Cards, e.Required)
}
