package deck

import (
	"github.com/cardroom/cardroom-server/internal/card"
	"github.com/google/uuid"
)

// Deck is an ordered sequence of card instances plus list metadata. It is
// built once, by import or library lookup; after a match starts its card
// sequence mutates only through the engine's shuffle and draw operations.
type Deck struct {
	ID          string
	Name        string
	Description string
	IsDefault   bool
	Cards       []*card.Card
}

// New builds a deck around resolved catalog data, minting a fresh instance
// id for every copy so identical catalog entries remain individually
// addressable.
func New(name, description string, data []card.Data) *Deck {
	cards := make([]*card.Card, 0, len(data))
	for _, d := range data {
		cards = append(cards, card.NewInstance(d))
	}
	return &Deck{
		ID:          uuid.New().String(),
		Name:        name,
		Description: description,
		Cards:       cards,
	}
}

// Size returns the number of cards currently in the deck sequence.
func (d *Deck) Size() int {
	return len(d.Cards)
}
