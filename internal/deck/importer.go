package deck

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"unicode"

	"github.com/cardroom/cardroom-server/internal/card"
	"go.uber.org/zap"
)

const (
	// deckSize is the exact number of cards a legal deck contains.
	deckSize = 60
	// maxCopies is the per-name copy limit; basic energy is exempt.
	maxCopies = 4

	resolveWorkers = 4
)

// Catalog is the slice of the card catalog the importer needs: id resolution
// and the evolves-from search used to backfill missing evolution data.
type Catalog interface {
	Resolve(ctx context.Context, catalogID string) (card.Data, error)
	EvolvesFrom(ctx context.Context, creatureName string) (string, error)
}

// cachePrimer is implemented by catalog clients that can persist backfilled
// card data in their cache.
type cachePrimer interface {
	Prime(catalogID string, data card.Data)
}

// Importer turns raw decklist text into a validated Deck.
type Importer struct {
	catalog Catalog
	logger  *zap.Logger
}

// NewImporter creates a deck importer backed by the given catalog.
func NewImporter(catalog Catalog, logger *zap.Logger) *Importer {
	return &Importer{
		catalog: catalog,
		logger:  logger,
	}
}

// Import parses, translates, resolves, and validates a decklist. The whole
// import fails on the first unparseable entry or rule violation; there is no
// partial deck. Cancelling ctx aborts in-flight catalog lookups.
func (imp *Importer) Import(ctx context.Context, decklist string) (*Deck, error) {
	refs := parseDecklist(decklist)

	catalogIDs := make([]string, 0, len(refs))
	for _, ref := range refs {
		id, err := translateReference(ref)
		if err != nil {
			return nil, err
		}
		catalogIDs = append(catalogIDs, id)
	}

	resolved, err := imp.resolveAll(ctx, catalogIDs)
	if err != nil {
		return nil, err
	}
	imp.backfillEvolutions(ctx, resolved)

	ordered := make([]card.Data, 0, len(catalogIDs))
	for _, id := range catalogIDs {
		ordered = append(ordered, resolved[id])
	}

	if err := validate(ordered); err != nil {
		return nil, err
	}

	d := New("", "", ordered)
	imp.logger.Info("deck imported",
		zap.String("deck_id", d.ID),
		zap.Int("cards", len(d.Cards)),
	)
	return d, nil
}

// parseDecklist expands decklist lines into one card reference per copy.
// Lines not beginning with a digit (headers, blanks) are skipped.
func parseDecklist(text string) []string {
	var refs []string
	for _, line := range strings.FieldsFunc(text, func(r rune) bool { return r == '\r' || r == '\n' }) {
		line = strings.TrimSpace(line)
		if line == "" || !unicode.IsDigit(rune(line[0])) {
			continue
		}
		parts := strings.SplitN(line, " ", 2)
		if len(parts) != 2 {
			continue
		}
		quantity, err := strconv.Atoi(parts[0])
		if err != nil {
			continue
		}
		ref := strings.TrimSpace(parts[1])
		for i := 0; i < quantity; i++ {
			refs = append(refs, ref)
		}
	}
	return refs
}

// translateReference maps "<name> <set> <number>" to a catalog id. Energy
// lines may omit the set reference and name just the energy type; those map
// through the energy-code table instead.
func translateReference(ref string) (string, error) {
	words := strings.Fields(ref)
	if len(words) < 2 {
		return "", &UnknownSetError{Set: ref, Reference: ref}
	}

	number, _ := strconv.Atoi(words[len(words)-1])
	setWord := words[len(words)-2]

	if set, ok := setCodes[setWord]; ok {
		return fmt.Sprintf("%s-%d", set, number), nil
	}

	for _, w := range words {
		if w == "Energy" {
			if full, ok := energyCodes[words[0]]; ok {
				return full, nil
			}
			return "", &UnknownEnergyError{Energy: words[0], Reference: ref}
		}
	}
	return "", &UnknownSetError{Set: setWord, Reference: ref}
}

// resolveAll fetches card data for every unique catalog id, fanning lookups
// out across a small worker pool. The catalog client caches results, so a
// repeated id costs one lookup per process lifetime.
func (imp *Importer) resolveAll(ctx context.Context, catalogIDs []string) (map[string]card.Data, error) {
	unique := make([]string, 0, len(catalogIDs))
	seen := make(map[string]bool, len(catalogIDs))
	for _, id := range catalogIDs {
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		mu       sync.Mutex
		resolved = make(map[string]card.Data, len(unique))
		firstErr error
	)

	jobs := make(chan string)
	var wg sync.WaitGroup
	workers := resolveWorkers
	if len(unique) < workers {
		workers = len(unique)
	}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range jobs {
				data, err := imp.catalog.Resolve(ctx, id)
				mu.Lock()
				if err != nil {
					if firstErr == nil {
						firstErr = fmt.Errorf("resolving card %s: %w", id, err)
						cancel()
					}
				} else {
					resolved[id] = data
				}
				mu.Unlock()
			}
		}()
	}

feed:
	for _, id := range unique {
		select {
		case jobs <- id:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return resolved, nil
}

// backfillEvolutions fills in a missing evolves-from value for non-Basic
// creatures by searching the catalog for the base printing. A failed
// backfill is logged and ignored; it never fails the import.
func (imp *Importer) backfillEvolutions(ctx context.Context, resolved map[string]card.Data) {
	for id, data := range resolved {
		if data.Creature == nil || data.Creature.Stage == "Basic" || data.Creature.EvolvesFrom != "" {
			continue
		}
		from, err := imp.catalog.EvolvesFrom(ctx, data.Name)
		if err != nil || from == "" {
			if err != nil {
				imp.logger.Warn("evolves-from backfill failed",
					zap.String("catalog_id", id),
					zap.String("name", data.Name),
					zap.Error(err),
				)
			}
			continue
		}
		data.Creature.EvolvesFrom = from
		resolved[id] = data
		if primer, ok := imp.catalog.(cachePrimer); ok {
			primer.Prime(id, data)
		}
	}
}

// validate applies the deck-construction rules in order, failing fast on the
// first violation.
func validate(cards []card.Data) error {
	if len(cards) != deckSize {
		return &ValidationError{Reason: fmt.Sprintf("deck must contain exactly %d cards, got %d", deckSize, len(cards))}
	}

	copies := make(map[string]int)
	for _, c := range cards {
		copies[c.Name]++
	}
	for _, c := range cards {
		if copies[c.Name] <= maxCopies || c.IsBasicEnergy() {
			continue
		}
		return &ValidationError{Reason: fmt.Sprintf("deck cannot contain more than %d copies of %s", maxCopies, c.Name)}
	}

	for _, c := range cards {
		if c.IsBasicCreature() {
			return nil
		}
	}
	return &ValidationError{Reason: "deck must contain at least one Basic creature"}
}
