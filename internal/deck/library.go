package deck

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/cardroom/cardroom-server/internal/card"
	"go.uber.org/zap"
)

// fileDeck is one entry of the deck source file: a JSON array of decks, each
// carrying either a list of catalog ids or pre-populated card data.
type fileDeck struct {
	DeckID      int               `json:"deckId"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	IsDefault   bool              `json:"isDefault"`
	CardIDs     []string          `json:"cardIds"`
	Cards       []json.RawMessage `json:"cards"`
}

// Brief is the listing view of a library deck.
type Brief struct {
	DeckID      int    `json:"deckId"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Library serves the pre-built decks from the deck source file.
type Library struct {
	path    string
	catalog Catalog
	logger  *zap.Logger
}

// NewLibrary creates a deck library reading from the given JSON file.
func NewLibrary(path string, catalog Catalog, logger *zap.Logger) *Library {
	return &Library{
		path:    path,
		catalog: catalog,
		logger:  logger,
	}
}

// Briefs lists the library's decks. With publicOnly set, only decks flagged
// as defaults are returned.
func (l *Library) Briefs(publicOnly bool) ([]Brief, error) {
	decks, err := l.readFile()
	if err != nil {
		return nil, err
	}
	briefs := make([]Brief, 0, len(decks))
	for _, d := range decks {
		if publicOnly && !d.IsDefault {
			continue
		}
		briefs = append(briefs, Brief{
			DeckID:      d.DeckID,
			Name:        d.Name,
			Description: d.Description,
		})
	}
	return briefs, nil
}

// Deck builds the library deck with the given id, resolving catalog ids when
// the file does not carry pre-populated cards. Fresh card instances are
// minted on every call so concurrent matches never share card state.
func (l *Library) Deck(ctx context.Context, deckID int) (*Deck, error) {
	decks, err := l.readFile()
	if err != nil {
		return nil, err
	}

	for _, fd := range decks {
		if fd.DeckID != deckID {
			continue
		}
		data, err := l.deckData(ctx, fd)
		if err != nil {
			return nil, err
		}
		d := New(fd.Name, fd.Description, data)
		d.ID = strconv.Itoa(fd.DeckID)
		d.IsDefault = fd.IsDefault
		return d, nil
	}
	return nil, fmt.Errorf("library deck %d: %w", deckID, ErrDeckNotFound)
}

func (l *Library) deckData(ctx context.Context, fd fileDeck) ([]card.Data, error) {
	if len(fd.Cards) > 0 {
		data := make([]card.Data, 0, len(fd.Cards))
		for _, raw := range fd.Cards {
			d, err := card.ParseData(raw)
			if err != nil {
				return nil, fmt.Errorf("deck %d: %w", fd.DeckID, err)
			}
			data = append(data, d)
		}
		return data, nil
	}

	l.logger.Info("populating library deck from catalog",
		zap.Int("deck_id", fd.DeckID),
		zap.Int("cards", len(fd.CardIDs)),
	)
	data := make([]card.Data, 0, len(fd.CardIDs))
	for _, id := range fd.CardIDs {
		d, err := l.catalog.Resolve(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("deck %d: %w", fd.DeckID, err)
		}
		data = append(data, d)
	}
	return data, nil
}

func (l *Library) readFile() ([]fileDeck, error) {
	raw, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("reading deck source file: %w", err)
	}
	var decks []fileDeck
	if err := json.Unmarshal(raw, &decks); err != nil {
		return nil, fmt.Errorf("decoding deck source file %s: %w", l.path, err)
	}
	return decks, nil
}
