// Package match is the application surface of the server: it owns the live
// session and pending-deck stores and exposes every game operation keyed by
// session id.
package match

import (
	"context"
	"time"

	"github.com/cardroom/cardroom-server/internal/card"
	"github.com/cardroom/cardroom-server/internal/deck"
	"github.com/cardroom/cardroom-server/internal/game"
	"github.com/cardroom/cardroom-server/internal/session"
	"go.uber.org/zap"
)

// EvolutionSource answers which cards evolve from a named creature.
type EvolutionSource interface {
	EvolutionNames(ctx context.Context, name string) ([]string, error)
}

// ObserverCloser drops a session's observers once the match is over.
type ObserverCloser interface {
	CloseSession(sessionID string)
}

// Service routes operations to live sessions. A session id that is unknown
// or idled out surfaces as *session.NotFoundError from every method that
// takes one.
type Service struct {
	engine   *game.Engine
	importer *deck.Importer
	library  *deck.Library
	evo      EvolutionSource
	closer   ObserverCloser
	logger   *zap.Logger

	games   *session.Store[*game.Session]
	pending *session.Store[*deck.Deck]
}

// Option configures a Service.
type Option func(*Service)

// WithObserverCloser makes End also disconnect the session's observers.
func WithObserverCloser(c ObserverCloser) Option {
	return func(s *Service) {
		s.closer = c
	}
}

// NewService creates the service. Running matches idle out after gameTTL,
// imported decks that were never started after deckTTL; both timers slide
// on access.
func NewService(engine *game.Engine, importer *deck.Importer, library *deck.Library, evo EvolutionSource, gameTTL, deckTTL time.Duration, logger *zap.Logger, opts ...Option) *Service {
	s := &Service{
		engine:   engine,
		importer: importer,
		library:  library,
		evo:      evo,
		logger:   logger,
		games:    session.NewStore[*game.Session]("games", gameTTL, logger),
		pending:  session.NewStore[*deck.Deck]("pending_decks", deckTTL, logger),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run sweeps expired sessions and pending decks on the given interval until
// the context is cancelled.
func (s *Service) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.games.Sweep()
			s.pending.Sweep()
		}
	}
}

// ImportDeck builds and validates a deck from decklist text and parks it
// until a match starts with it. The deck's id claims it.
func (s *Service) ImportDeck(ctx context.Context, decklist string) (*deck.Deck, error) {
	d, err := s.importer.Import(ctx, decklist)
	if err != nil {
		return nil, err
	}
	s.pending.Put(d.ID, d)
	s.logger.Info("deck imported",
		zap.String("deck_id", d.ID),
		zap.Int("cards", d.Size()))
	return d, nil
}

// StartImported begins a match with a previously imported deck. The pending
// entry is consumed whether or not the deal succeeds.
func (s *Service) StartImported(deckID string) (string, game.OpeningHand, error) {
	d, err := s.pending.Take(deckID)
	if err != nil {
		return "", game.OpeningHand{}, err
	}
	return s.start(d)
}

// StartLibrary begins a match with a deck from the deck library, built
// fresh so instances never repeat across sessions.
func (s *Service) StartLibrary(ctx context.Context, deckID int) (string, game.OpeningHand, error) {
	if s.library == nil {
		return "", game.OpeningHand{}, deck.ErrDeckNotFound
	}
	d, err := s.library.Deck(ctx, deckID)
	if err != nil {
		return "", game.OpeningHand{}, err
	}
	return s.start(d)
}

func (s *Service) start(d *deck.Deck) (string, game.OpeningHand, error) {
	sess := game.NewSession(d)
	opening, err := s.engine.Start(sess)
	if err != nil {
		return "", game.OpeningHand{}, err
	}
	s.games.Put(sess.ID, sess)
	return sess.ID, opening, nil
}

// IsActive reports whether a session is live, refreshing its idle timer.
func (s *Service) IsActive(sessionID string) bool {
	_, err := s.games.Get(sessionID)
	return err == nil
}

// End closes a session's record, drops it from the store, and disconnects
// its observers.
func (s *Service) End(sessionID string) error {
	sess, err := s.games.Get(sessionID)
	if err != nil {
		return err
	}
	s.engine.End(sess)
	s.games.Delete(sessionID)
	if s.closer != nil {
		s.closer.CloseSession(sessionID)
	}
	return nil
}

// DeckBriefs lists the library's decks without building them.
func (s *Service) DeckBriefs(publicOnly bool) ([]deck.Brief, error) {
	if s.library == nil {
		return nil, nil
	}
	return s.library.Briefs(publicOnly)
}

// EvolutionNames answers which creatures evolve from the named one.
func (s *Service) EvolutionNames(ctx context.Context, name string) ([]string, error) {
	return s.evo.EvolutionNames(ctx, name)
}

func (s *Service) session(sessionID string) (*game.Session, error) {
	return s.games.Get(sessionID)
}

// Hand returns the session's current hand.
func (s *Service) Hand(sessionID string) ([]*card.Card, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	return sess.HandSnapshot(), nil
}

// ActiveSpot returns the session's active position.
func (s *Service) ActiveSpot(sessionID string) (game.PlaySpot, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return game.PlaySpot{}, err
	}
	return sess.ActiveSnapshot(), nil
}

// BenchSpots returns the session's bench positions.
func (s *Service) BenchSpots(sessionID string) ([]game.PlaySpot, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	return sess.BenchSnapshot(), nil
}

// History returns the session's event history to date.
func (s *Service) History(sessionID string) ([]game.Event, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	return sess.History(), nil
}

// DeckSize reports the cards remaining in the session's deck.
func (s *Service) DeckSize(sessionID string) (int, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return 0, err
	}
	return sess.DeckSize(), nil
}

// DrawFromDeck draws the session's top deck card into the hand.
func (s *Service) DrawFromDeck(sessionID string) (*card.Card, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	return s.engine.DrawFromDeck(sess)
}

// DrawSpecificFromDeck pulls a named card from the deck into the hand.
func (s *Service) DrawSpecificFromDeck(sessionID, cardID string) (*card.Card, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	return s.engine.DrawSpecificFromDeck(sess, cardID)
}

// DrawFromDiscard pulls a named card from the discard pile into the hand.
func (s *Service) DrawFromDiscard(sessionID, cardID string) (*card.Card, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	return s.engine.DrawFromDiscard(sess, cardID)
}

// DrawFromPrizes takes the next prize card into the hand.
func (s *Service) DrawFromPrizes(sessionID string) (*card.Card, int, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return nil, 0, err
	}
	return s.engine.DrawFromPrizes(sess)
}

// SendToHand returns a card in play to the hand.
func (s *Service) SendToHand(sessionID, cardID string) error {
	sess, err := s.session(sessionID)
	if err != nil {
		return err
	}
	return s.engine.SendToHand(sess, cardID)
}

// SendToTempHand moves a card in play to the temporary hand.
func (s *Service) SendToTempHand(sessionID, cardID string) error {
	sess, err := s.session(sessionID)
	if err != nil {
		return err
	}
	return s.engine.SendToTempHand(sess, cardID)
}

// MoveToBench benches a card.
func (s *Service) MoveToBench(sessionID, cardID string) error {
	sess, err := s.session(sessionID)
	if err != nil {
		return err
	}
	return s.engine.MoveToBench(sess, cardID)
}

// MoveToActive promotes a card to the active spot.
func (s *Service) MoveToActive(sessionID, cardID string) error {
	sess, err := s.session(sessionID)
	if err != nil {
		return err
	}
	return s.engine.MoveToActive(sess, cardID)
}

// SwapActiveWithBench retreats the active spot for a bench spot.
func (s *Service) SwapActiveWithBench(sessionID, firstID, secondID string) error {
	sess, err := s.session(sessionID)
	if err != nil {
		return err
	}
	return s.engine.SwapActiveWithBench(sess, firstID, secondID)
}

// MoveToStadium puts a card into the stadium slot.
func (s *Service) MoveToStadium(sessionID, cardID string) error {
	sess, err := s.session(sessionID)
	if err != nil {
		return err
	}
	return s.engine.MoveToStadium(sess, cardID)
}

// AttachCard attaches a card to the creature named by targetID.
func (s *Service) AttachCard(sessionID, targetID, cardID string) error {
	sess, err := s.session(sessionID)
	if err != nil {
		return err
	}
	return s.engine.AttachCard(sess, targetID, cardID)
}

// Discard moves a card in play onto the discard pile.
func (s *Service) Discard(sessionID, cardID string) error {
	sess, err := s.session(sessionID)
	if err != nil {
		return err
	}
	return s.engine.Discard(sess, cardID)
}

// DiscardHand discards the whole hand.
func (s *Service) DiscardHand(sessionID string) error {
	sess, err := s.session(sessionID)
	if err != nil {
		return err
	}
	return s.engine.DiscardHand(sess)
}

// PlaceOnBottomOfDeck moves a card in play under the deck.
func (s *Service) PlaceOnBottomOfDeck(sessionID, cardID string) error {
	sess, err := s.session(sessionID)
	if err != nil {
		return err
	}
	return s.engine.PlaceOnBottomOfDeck(sess, cardID)
}

// ShuffleDeck randomizes the session's deck.
func (s *Service) ShuffleDeck(sessionID string) error {
	sess, err := s.session(sessionID)
	if err != nil {
		return err
	}
	s.engine.ShuffleDeck(sess)
	return nil
}

// PeekDeckAt reveals the deck card at a position without moving it.
func (s *Service) PeekDeckAt(sessionID string, position int) (*card.Card, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	return s.engine.PeekDeckAt(sess, position)
}

// PeekDeckAll reveals the whole deck in order.
func (s *Service) PeekDeckAll(sessionID string) ([]*card.Card, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	return s.engine.PeekDeckAll(sess), nil
}

// AddDamage adds damage counters to a creature in play.
func (s *Service) AddDamage(sessionID, cardID string, amount int) (int, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return 0, err
	}
	return s.engine.AddDamage(sess, cardID, amount)
}

// RemoveDamage removes damage counters from a creature in play.
func (s *Service) RemoveDamage(sessionID, cardID string, amount int) (int, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return 0, err
	}
	return s.engine.RemoveDamage(sess, cardID, amount)
}

// FlipCoin flips one coin. True is heads.
func (s *Service) FlipCoin(sessionID string) (bool, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return false, err
	}
	return s.engine.FlipCoin(sess), nil
}

// FlipCoins flips between one and twenty coins.
func (s *Service) FlipCoins(sessionID string, count int) ([]bool, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	return s.engine.FlipCoins(sess, count)
}

// FlipCoinsUntil flips until the wanted face comes up, returning the number
// of misses.
func (s *Service) FlipCoinsUntil(sessionID string, heads bool) (int, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return 0, err
	}
	return s.engine.FlipCoinsUntil(sess, heads), nil
}
