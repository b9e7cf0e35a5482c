package game

import (
	"fmt"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/cardroom/cardroom-server/internal/card"
	"github.com/cardroom/cardroom-server/internal/notify"
	"go.uber.org/zap"
)

// PrizeCount is the number of prize cards set aside when a match starts.
const PrizeCount = 6

// Observer event names pushed through the notification sink.
const (
	eventHandChanged     = "HandChanged"
	eventTempHandChanged = "TempHandChanged"
	eventDeckChanged     = "DeckChanged"
	eventBenchChanged    = "BenchChanged"
	eventActiveChanged   = "ActiveChanged"
	eventStadiumChanged  = "StadiumChanged"
	eventDiscardChanged  = "DiscardChanged"
	eventCardMovedToHand = "CardMovedToHand"
	eventGameStarted     = "GameStarted"
	eventGameEnded       = "GameEnded"
)

// maxCoinFlips bounds a single multi-flip request.
const maxCoinFlips = 20

// Engine applies zone transitions to sessions. Every operation takes the
// session's lock, validates its preconditions, mutates exactly one logical
// transition, appends the matching record event, and pushes the affected
// zones to observers. On any error the session is untouched.
//
// The engine itself is stateless apart from its random source, so one
// engine serves every session.
type Engine struct {
	logger *zap.Logger
	sink   notify.Sink

	rngMu sync.Mutex
	rng   *rand.Rand
}

// Option configures an Engine.
type Option func(*Engine)

// WithRand replaces the engine's random source. Shuffles, opening hands,
// and coin flips all draw from it.
func WithRand(rng *rand.Rand) Option {
	return func(e *Engine) {
		e.rng = rng
	}
}

// NewEngine creates an engine publishing through the given sink.
func NewEngine(sink notify.Sink, logger *zap.Logger, opts ...Option) *Engine {
	if sink == nil {
		sink = notify.NopSink{}
	}
	e := &Engine{
		logger: logger,
		sink:   sink,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Start deals the opening position: an opening hand with at least one Basic
// creature, the remaining deck shuffled, and the prize cards set aside face
// down. The dealt hand and every rejected mulligan hand are recorded.
func (e *Engine) Start(s *Session) (OpeningHand, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Record.Len() > 0 {
		return OpeningHand{}, fmt.Errorf("session %s already started", s.ID)
	}

	e.rngMu.Lock()
	opening, err := DealOpeningHand(s.Deck.Cards, e.rng)
	e.rngMu.Unlock()
	if err != nil {
		return OpeningHand{}, err
	}

	dealt := make(map[string]struct{}, len(opening.Hand))
	for _, c := range opening.Hand {
		dealt[c.InstanceID] = struct{}{}
	}
	remaining := make([]*card.Card, 0, len(s.Deck.Cards)-len(opening.Hand))
	for _, c := range s.Deck.Cards {
		if _, ok := dealt[c.InstanceID]; !ok {
			remaining = append(remaining, c)
		}
	}
	e.shuffle(remaining)

	prizes := PrizeCount
	if prizes > len(remaining) {
		prizes = len(remaining)
	}
	s.Hand = opening.Hand
	s.PrizeCards = remaining[:prizes]
	s.Deck.Cards = remaining[prizes:]

	s.Record.append(EventGameStarted, "", opening.Hand...)
	for _, mulligan := range opening.MulliganHands {
		s.Record.append(EventDrawMulligan, "", mulligan...)
	}

	e.logger.Info("session started",
		zap.String("session_id", s.ID),
		zap.String("deck_id", s.Deck.ID),
		zap.Int("mulligans", opening.Mulligans()),
		zap.Int("deck_remaining", len(s.Deck.Cards)))

	e.sink.Publish(s.ID, eventGameStarted, startedPayload{
		Hand:      s.Hand,
		DeckCount: len(s.Deck.Cards),
		Prizes:    len(s.PrizeCards),
		Mulligans: opening.Mulligans(),
	})
	return opening, nil
}

type startedPayload struct {
	Hand      []*card.Card `json:"hand"`
	DeckCount int          `json:"deckCount"`
	Prizes    int          `json:"prizes"`
	Mulligans int          `json:"mulligans"`
}

// End closes the session's record. The session is not usable afterwards;
// callers drop it from their store.
func (e *Engine) End(s *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Record.append(EventGameEnded, "")
	s.Record.close()

	e.logger.Info("session ended",
		zap.String("session_id", s.ID),
		zap.Int("events", s.Record.Len()))
	e.sink.Publish(s.ID, eventGameEnded, nil)
}

// DrawFromDeck moves the top card of the deck to the hand.
func (e *Engine) DrawFromDeck(s *Session) (*card.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.Deck.Cards) == 0 {
		return nil, &EmptyZoneError{Zone: ZoneDeck}
	}
	drawn := s.Deck.Cards[0]
	s.Deck.Cards = s.Deck.Cards[1:]
	s.Hand = append(s.Hand, drawn)

	s.Record.append(EventCardDrawnFromDeck, "", drawn)
	e.sink.Publish(s.ID, eventCardMovedToHand, drawn)
	e.publishZone(s, ZoneHand)
	e.publishZone(s, ZoneDeck)
	return drawn, nil
}

// DrawSpecificFromDeck moves a named card from anywhere in the deck to the
// hand, as a search effect does.
func (e *Engine) DrawSpecificFromDeck(s *Session, cardID string) (*card.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rest, drawn, ok := removeByID(s.Deck.Cards, cardID)
	if !ok {
		return nil, &CardNotFoundError{CardID: cardID, Zone: ZoneDeck}
	}
	s.Deck.Cards = rest
	s.Hand = append(s.Hand, drawn)

	s.Record.append(EventCardDrawnFromDeck, "", drawn)
	e.sink.Publish(s.ID, eventCardMovedToHand, drawn)
	e.publishZone(s, ZoneHand)
	e.publishZone(s, ZoneDeck)
	return drawn, nil
}

// DrawFromDiscard moves a named card from the discard pile to the hand.
func (e *Engine) DrawFromDiscard(s *Session, cardID string) (*card.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rest, drawn, ok := removeByID(s.DiscardPile, cardID)
	if !ok {
		return nil, &CardNotFoundError{CardID: cardID, Zone: ZoneDiscard}
	}
	s.DiscardPile = rest
	s.Hand = append(s.Hand, drawn)

	s.Record.append(EventCardDrawnFromDiscard, "", drawn)
	e.publishZone(s, ZoneHand)
	e.publishZone(s, ZoneDiscard)
	return drawn, nil
}

// DrawFromPrizes moves the next prize card to the hand, returning the card
// and how many prizes remain.
func (e *Engine) DrawFromPrizes(s *Session) (*card.Card, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.PrizeCards) == 0 {
		return nil, 0, &EmptyZoneError{Zone: ZonePrizes}
	}
	drawn := s.PrizeCards[0]
	s.PrizeCards = s.PrizeCards[1:]
	s.Hand = append(s.Hand, drawn)

	s.Record.append(EventPrizeCardTaken, "", drawn)
	e.publishZone(s, ZoneHand)
	return drawn, len(s.PrizeCards), nil
}

// SendToHand returns a card in play to the hand, wherever it currently is.
func (e *Engine) SendToHand(s *Session, cardID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	from, moved, err := e.locateAndRemove(s, cardID)
	if err != nil {
		return err
	}
	s.Hand = append(s.Hand, moved)
	e.compactBench(s)

	s.Record.append(EventCardReturnedToHand, "", moved)
	e.publishZone(s, ZoneHand)
	e.publishZone(s, from)
	return nil
}

// SendToTempHand moves a card in play to the temporary hand, a revealed
// holding area for effects that show cards before they resolve.
func (e *Engine) SendToTempHand(s *Session, cardID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	from, moved, err := e.locateAndRemove(s, cardID)
	if err != nil {
		return err
	}
	s.TempHand = append(s.TempHand, moved)
	e.compactBench(s)

	s.Record.append(EventCardMovedToTempHand, "", moved)
	e.publishZone(s, ZoneTempHand)
	e.publishZone(s, from)
	return nil
}

// MoveToBench benches a card. Benching the active main creature moves its
// whole spot, attachments and damage included; any other card starts a
// fresh spot. Benching a card already benched is a no-op.
func (e *Engine) MoveToBench(s *Session, cardID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Active.MainCard != nil && s.Active.MainCard.InstanceID == cardID {
		spot := s.Active
		s.Active = &PlaySpot{}
		s.Bench = append(s.Bench, spot)

		s.Record.append(EventCardMovedToBench, "", spot.MainCard)
		e.publishZone(s, ZoneBench)
		e.publishZone(s, ZoneActive)
		return nil
	}
	if _, ok := s.benchSpot(cardID); ok {
		return nil
	}

	from, moved, err := e.locateAndRemove(s, cardID)
	if err != nil {
		return err
	}
	s.Bench = append(s.Bench, &PlaySpot{MainCard: moved})
	e.compactBench(s)

	s.Record.append(EventCardMovedToBench, "", moved)
	e.publishZone(s, ZoneBench)
	e.publishZone(s, from)
	return nil
}

// MoveToActive promotes a card to the active spot. Promoting a bench main
// creature moves its whole spot. The active spot must be vacant; nothing is
// ever overwritten.
func (e *Engine) MoveToActive(s *Session, cardID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Active.MainCard != nil {
		if s.Active.MainCard.InstanceID == cardID {
			return nil
		}
		return &ZoneOccupiedError{Zone: ZoneActive}
	}

	if i, ok := s.benchSpot(cardID); ok {
		if !s.Active.isEmpty() {
			return &ZoneOccupiedError{Zone: ZoneActive}
		}
		spot := s.Bench[i]
		s.Bench = append(s.Bench[:i], s.Bench[i+1:]...)
		s.Active = spot

		s.Record.append(EventCardMovedToActive, "", spot.MainCard)
		e.publishZone(s, ZoneActive)
		e.publishZone(s, ZoneBench)
		return nil
	}

	from, moved, err := e.locateAndRemove(s, cardID)
	if err != nil {
		return err
	}
	s.Active.MainCard = moved
	e.compactBench(s)

	s.Record.append(EventCardMovedToActive, "", moved)
	e.publishZone(s, ZoneActive)
	e.publishZone(s, from)
	return nil
}

// SwapActiveWithBench exchanges the active spot with a bench spot as a
// retreat does. One of the two cards must be the active main creature and
// the other a bench main creature; both spots move whole.
func (e *Engine) SwapActiveWithBench(s *Session, firstID, secondID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Active.MainCard == nil {
		return &EmptyZoneError{Zone: ZoneActive}
	}

	benchID := ""
	switch s.Active.MainCard.InstanceID {
	case firstID:
		benchID = secondID
	case secondID:
		benchID = firstID
	default:
		return &CardNotFoundError{CardID: firstID, Zone: ZoneActive}
	}
	i, ok := s.benchSpot(benchID)
	if !ok {
		return &CardNotFoundError{CardID: benchID, Zone: ZoneBench}
	}

	incoming, outgoing := s.Bench[i], s.Active
	s.Bench[i] = outgoing
	s.Active = incoming

	s.Record.append(EventCardMovedToActive, "", incoming.MainCard)
	s.Record.append(EventCardMovedToBench, "", outgoing.MainCard)
	e.publishZone(s, ZoneActive)
	e.publishZone(s, ZoneBench)
	return nil
}

// MoveToStadium puts a card into the stadium slot. The slot must be empty;
// an existing stadium is discarded by the caller first.
func (e *Engine) MoveToStadium(s *Session, cardID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Stadium != nil {
		return &ZoneOccupiedError{Zone: ZoneStadium}
	}
	from, moved, err := e.locateAndRemove(s, cardID)
	if err != nil {
		return err
	}
	s.Stadium = moved
	e.compactBench(s)

	s.Record.append(EventCardMovedToStadium, "", moved)
	e.publishZone(s, ZoneStadium)
	e.publishZone(s, from)
	return nil
}

// AttachCard attaches a card to the spot whose main creature is targetID.
// The target is validated before anything moves, so a missing target leaves
// the attached card where it was.
func (e *Engine) AttachCard(s *Session, targetID, cardID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	spot, zone, ok := s.spotByMain(targetID)
	if !ok {
		return &CardNotInPlayError{CardID: targetID}
	}
	from, moved, err := e.locateAndRemove(s, cardID)
	if err != nil {
		return err
	}
	spot.AttachedCards = append(spot.AttachedCards, moved)
	e.compactBench(s)

	s.Record.append(EventCardAttached, targetID, moved)
	e.publishZone(s, zone)
	if from != zone {
		e.publishZone(s, from)
	}
	return nil
}

// Discard moves a card in play to the top of the discard pile.
func (e *Engine) Discard(s *Session, cardID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	from, moved, err := e.locateAndRemove(s, cardID)
	if err != nil {
		return err
	}
	s.DiscardPile = append([]*card.Card{moved}, s.DiscardPile...)
	e.compactBench(s)

	s.Record.append(EventCardMovedToDiscard, "", moved)
	e.publishZone(s, ZoneDiscard)
	e.publishZone(s, from)
	return nil
}

// DiscardHand moves every card in the hand to the discard pile, newest on
// top, recording each card and a closing summary.
func (e *Engine) DiscardHand(s *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.Hand) == 0 {
		return &EmptyZoneError{Zone: ZoneHand}
	}
	discarded := s.Hand
	s.Hand = nil
	for _, c := range discarded {
		s.DiscardPile = append([]*card.Card{c}, s.DiscardPile...)
		s.Record.append(EventCardMovedToDiscard, "", c)
	}
	s.Record.append(EventHandMovedToDiscard, "", discarded...)

	e.publishZone(s, ZoneDiscard)
	e.publishZone(s, ZoneHand)
	return nil
}

// PlaceOnBottomOfDeck moves a card in play to the bottom of the deck.
func (e *Engine) PlaceOnBottomOfDeck(s *Session, cardID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	from, moved, err := e.locateAndRemove(s, cardID)
	if err != nil {
		return err
	}
	s.Deck.Cards = append(s.Deck.Cards, moved)
	e.compactBench(s)

	s.Record.append(EventCardReturnedToDeck, "", moved)
	e.publishZone(s, ZoneDeck)
	e.publishZone(s, from)
	return nil
}

// ShuffleDeck randomizes the order of the remaining deck.
func (e *Engine) ShuffleDeck(s *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e.shuffle(s.Deck.Cards)
	s.Record.append(EventDeckShuffled, "")
	e.publishZone(s, ZoneDeck)
}

// PeekDeckAt reveals the card at the given position from the top of the
// deck without moving it. Position zero is the top card.
func (e *Engine) PeekDeckAt(s *Session, position int) (*card.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if position < 0 {
		return nil, fmt.Errorf("peek position %d is negative", position)
	}
	if position >= len(s.Deck.Cards) {
		return nil, &EmptyZoneError{Zone: ZoneDeck}
	}
	return s.Deck.Cards[position], nil
}

// PeekDeckAll reveals the whole deck in order without moving anything. The
// reveal is recorded, since seeing the deck is itself game information.
func (e *Engine) PeekDeckAll(s *Session) []*card.Card {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*card.Card, len(s.Deck.Cards))
	copy(out, s.Deck.Cards)
	s.Record.append(EventPeekedAtDeck, "")
	return out
}

// AddDamage adds damage counters to the spot whose main creature is cardID.
func (e *Engine) AddDamage(s *Session, cardID string, amount int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if amount < 0 {
		return 0, fmt.Errorf("damage amount %d is negative", amount)
	}
	spot, zone, ok := s.spotByMain(cardID)
	if !ok {
		return 0, &CardNotInPlayError{CardID: cardID}
	}
	spot.DamageCounters += amount

	s.Record.append(EventDamageAdded, strconv.Itoa(amount), spot.MainCard)
	e.publishZone(s, zone)
	return spot.DamageCounters, nil
}

// RemoveDamage removes damage counters from the spot whose main creature is
// cardID, never going below zero.
func (e *Engine) RemoveDamage(s *Session, cardID string, amount int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if amount < 0 {
		return 0, fmt.Errorf("damage amount %d is negative", amount)
	}
	spot, zone, ok := s.spotByMain(cardID)
	if !ok {
		return 0, &CardNotInPlayError{CardID: cardID}
	}
	spot.DamageCounters -= amount
	if spot.DamageCounters < 0 {
		spot.DamageCounters = 0
	}

	s.Record.append(EventDamageRemoved, strconv.Itoa(amount), spot.MainCard)
	e.publishZone(s, zone)
	return spot.DamageCounters, nil
}

// FlipCoin flips one coin, recording the result. True is heads.
func (e *Engine) FlipCoin(s *Session) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return e.flipLocked(s)
}

// FlipCoins flips between one and twenty coins, recording each result.
func (e *Engine) FlipCoins(s *Session, count int) ([]bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if count < 1 || count > maxCoinFlips {
		return nil, fmt.Errorf("coin flip count %d out of range 1..%d", count, maxCoinFlips)
	}
	results := make([]bool, 0, count)
	for i := 0; i < count; i++ {
		results = append(results, e.flipLocked(s))
	}
	return results, nil
}

// FlipCoinsUntil flips coins until the wanted face comes up, recording each
// flip, and returns how many flips missed before it did.
func (e *Engine) FlipCoinsUntil(s *Session, heads bool) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	misses := 0
	for e.flipLocked(s) != heads {
		misses++
	}
	return misses
}

func (e *Engine) flipLocked(s *Session) bool {
	e.rngMu.Lock()
	heads := e.rng.Intn(2) == 0
	e.rngMu.Unlock()
	if heads {
		s.Record.append(EventCoinFlippedHeads, "")
	} else {
		s.Record.append(EventCoinFlippedTails, "")
	}
	return heads
}

// locateAndRemove finds a card instance in play and detaches it from its
// zone, returning the zone it came from. The search order is fixed: hand,
// temp hand, bench main creatures, bench attachments, the active main
// creature, active attachments, then the stadium. Removing a spot's main
// creature leaves the spot in place; compactBench clears spots that end up
// fully empty. Callers hold the session lock.
func (e *Engine) locateAndRemove(s *Session, cardID string) (ZoneKind, *card.Card, error) {
	if rest, c, ok := removeByID(s.Hand, cardID); ok {
		s.Hand = rest
		return ZoneHand, c, nil
	}
	if rest, c, ok := removeByID(s.TempHand, cardID); ok {
		s.TempHand = rest
		return ZoneTempHand, c, nil
	}
	for _, spot := range s.Bench {
		if spot.MainCard != nil && spot.MainCard.InstanceID == cardID {
			c := spot.MainCard
			spot.MainCard = nil
			return ZoneBench, c, nil
		}
	}
	for _, spot := range s.Bench {
		if c := spot.removeAttached(cardID); c != nil {
			return ZoneBench, c, nil
		}
	}
	if s.Active.MainCard != nil && s.Active.MainCard.InstanceID == cardID {
		c := s.Active.MainCard
		s.Active.MainCard = nil
		return ZoneActive, c, nil
	}
	if c := s.Active.removeAttached(cardID); c != nil {
		return ZoneActive, c, nil
	}
	if s.Stadium != nil && s.Stadium.InstanceID == cardID {
		c := s.Stadium
		s.Stadium = nil
		return ZoneStadium, c, nil
	}
	return "", nil, &CardNotInPlayError{CardID: cardID}
}

// compactBench drops bench spots left with neither a main creature nor
// attachments. Damage counters on an emptied spot go with it.
func (e *Engine) compactBench(s *Session) {
	kept := s.Bench[:0]
	for _, spot := range s.Bench {
		if !spot.isEmpty() {
			kept = append(kept, spot)
		}
	}
	s.Bench = kept
}

func (e *Engine) shuffle(cards []*card.Card) {
	e.rngMu.Lock()
	defer e.rngMu.Unlock()
	e.rng.Shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})
}

// benchSpot returns the index of the bench spot whose main creature is the
// given instance id.
func (s *Session) benchSpot(cardID string) (int, bool) {
	for i, spot := range s.Bench {
		if spot.MainCard != nil && spot.MainCard.InstanceID == cardID {
			return i, true
		}
	}
	return 0, false
}

// spotByMain returns the play spot whose main creature is the given
// instance id, and the zone it sits in.
func (s *Session) spotByMain(cardID string) (*PlaySpot, ZoneKind, bool) {
	if s.Active.MainCard != nil && s.Active.MainCard.InstanceID == cardID {
		return s.Active, ZoneActive, true
	}
	if i, ok := s.benchSpot(cardID); ok {
		return s.Bench[i], ZoneBench, true
	}
	return nil, "", false
}

// publishZone pushes the current contents of one zone to the session's
// observers. The sink never blocks, so holding the session lock here is
// safe. Callers hold the session lock.
func (e *Engine) publishZone(s *Session, zone ZoneKind) {
	switch zone {
	case ZoneHand:
		e.sink.Publish(s.ID, eventHandChanged, s.Hand)
	case ZoneTempHand:
		e.sink.Publish(s.ID, eventTempHandChanged, s.TempHand)
	case ZoneDeck:
		e.sink.Publish(s.ID, eventDeckChanged, len(s.Deck.Cards))
	case ZoneBench:
		spots := make([]PlaySpot, 0, len(s.Bench))
		for _, spot := range s.Bench {
			spots = append(spots, spot.snapshot())
		}
		e.sink.Publish(s.ID, eventBenchChanged, spots)
	case ZoneActive:
		e.sink.Publish(s.ID, eventActiveChanged, s.Active.snapshot())
	case ZoneStadium:
		e.sink.Publish(s.ID, eventStadiumChanged, s.Stadium)
	case ZoneDiscard:
		e.sink.Publish(s.ID, eventDiscardChanged, s.DiscardPile)
	}
}
