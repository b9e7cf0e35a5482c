package game

import (
	"math/rand"

	"github.com/cardroom/cardroom-server/internal/card"
)

// OpeningHandSize is the number of cards dealt to start a match.
const OpeningHandSize = 7

// OpeningHand is the result of dealing: the accepted hand plus every
// rejected sample, in the order the samples were drawn.
type OpeningHand struct {
	Hand          []*card.Card
	MulliganHands [][]*card.Card
}

// Mulligans reports how many samples were rejected before a hand was kept.
func (o OpeningHand) Mulligans() int {
	return len(o.MulliganHands)
}

// DealOpeningHand repeatedly samples an opening hand from the deck's cards,
// without replacement and independently per attempt, until the sample holds
// at least one Basic-stage creature. Each rejected sample is recorded as a
// mulligan hand.
//
// A deck with no Basic creature can never produce a legal hand, and a deck
// smaller than a hand can never fill one; both are detected up front so the
// sampling loop cannot run forever.
func DealOpeningHand(cards []*card.Card, rng *rand.Rand) (OpeningHand, error) {
	if len(cards) < OpeningHandSize {
		return OpeningHand{}, &DeckTooSmallError{Cards: len(cards), Required: OpeningHandSize}
	}
	hasBasic := false
	for _, c := range cards {
		if c.IsBasicCreature() {
			hasBasic = true
			break
		}
	}
	if !hasBasic {
		return OpeningHand{}, &NoBasicCreatureError{}
	}

	var result OpeningHand
	for {
		hand := sampleHand(cards, rng)
		for _, c := range hand {
			if c.IsBasicCreature() {
				result.Hand = hand
				return result, nil
			}
		}
		result.MulliganHands = append(result.MulliganHands, hand)
	}
}

func sampleHand(cards []*card.Card, rng *rand.Rand) []*card.Card {
	picks := rng.Perm(len(cards))[:OpeningHandSize]
	hand := make([]*card.Card, 0, OpeningHandSize)
	for _, i := range picks {
		hand = append(hand, cards[i])
	}
	return hand
}
