package game

import (
	"time"

	"github.com/cardroom/cardroom-server/internal/card"
)

// EventType names the kind of a recorded game event.
type EventType string

const (
	EventGameStarted          EventType = "GAME_STARTED"
	EventGameEnded            EventType = "GAME_ENDED"
	EventDrawMulligan         EventType = "DRAW_MULLIGAN"
	EventCardDrawnFromDeck    EventType = "CARD_DRAWN_FROM_DECK"
	EventCardDrawnFromDiscard EventType = "CARD_DRAWN_FROM_DISCARD"
	EventPrizeCardTaken       EventType = "PRIZE_CARD_TAKEN"
	EventCardReturnedToHand   EventType = "CARD_RETURNED_TO_HAND"
	EventCardMovedToTempHand  EventType = "CARD_MOVED_TO_TEMP_HAND"
	EventCardMovedToBench     EventType = "CARD_MOVED_TO_BENCH"
	EventCardMovedToActive    EventType = "CARD_MOVED_TO_ACTIVE"
	EventCardMovedToDiscard   EventType = "CARD_MOVED_TO_DISCARD"
	EventHandMovedToDiscard   EventType = "HAND_MOVED_TO_DISCARD"
	EventCardMovedToStadium   EventType = "CARD_MOVED_TO_STADIUM"
	EventCardAttached         EventType = "CARD_ATTACHED"
	EventCardReturnedToDeck   EventType = "CARD_RETURNED_TO_DECK"
	EventDeckShuffled         EventType = "DECK_SHUFFLED"
	EventPeekedAtDeck         EventType = "PEEKED_AT_DECK"
	EventDamageAdded          EventType = "DAMAGE_COUNTERS_ADDED"
	EventDamageRemoved        EventType = "DAMAGE_COUNTERS_REMOVED"
	EventCoinFlippedHeads     EventType = "COIN_FLIPPED_HEADS"
	EventCoinFlippedTails     EventType = "COIN_FLIPPED_TAILS"
)

// Event is one immutable entry of a session's game record: what happened,
// when, and which card instances were involved. Context carries optional
// free-text detail such as a damage amount.
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	CardIDs   []string  `json:"cardIds,omitempty"`
	Context   string    `json:"context,omitempty"`
}

// Record is the append-only, insertion-ordered history of a session.
// Timestamps are informational; insertion order is authoritative, since
// multiple events can share a timestamp. The session's lock guards it.
type Record struct {
	StartTime time.Time
	EndTime   *time.Time
	events    []Event
}

// NewRecord starts an empty record stamped with the current time.
func NewRecord() *Record {
	return &Record{StartTime: time.Now().UTC()}
}

func (r *Record) append(eventType EventType, context string, cards ...*card.Card) {
	evt := Event{
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Context:   context,
	}
	if len(cards) > 0 {
		evt.CardIDs = make([]string, 0, len(cards))
		for _, c := range cards {
			evt.CardIDs = append(evt.CardIDs, c.InstanceID)
		}
	}
	r.events = append(r.events, evt)
}

func (r *Record) close() {
	now := time.Now().UTC()
	r.EndTime = &now
}

// Events returns a copy of the full history to date.
func (r *Record) Events() []Event {
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Len reports the number of recorded events.
func (r *Record) Len() int {
	return len(r.events)
}
