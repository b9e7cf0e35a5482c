package catalog

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/cardroom/cardroom-server/internal/card"
	"go.uber.org/zap"
)

// NotFoundError is returned when the catalog has no entry for an id, even
// after the zero-padded retry.
type NotFoundError struct {
	CatalogID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("catalog has no card %q", e.CatalogID)
}

// Resolver resolves a catalog id to printed-card data. It is the only
// interface the deck importer requires from the catalog.
type Resolver interface {
	Resolve(ctx context.Context, catalogID string) (card.Data, error)
}

// Client is an HTTP card-catalog client with a process-lifetime cache.
// Lookups happen only during deck import, never while a session is locked.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger

	mu    sync.RWMutex
	cache map[string]card.Data
}

// NewClient creates a catalog client for the given base URL.
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
		cache:   make(map[string]card.Data),
	}
}

// Resolve fetches card data for a catalog id. Results are cached for the
// process lifetime, so a repeated id costs one lookup. A missed lookup is
// retried exactly once with the numeric suffix left-padded to 3 digits,
// since the catalog zero-pads set numbers.
func (c *Client) Resolve(ctx context.Context, catalogID string) (card.Data, error) {
	c.mu.RLock()
	data, ok := c.cache[catalogID]
	c.mu.RUnlock()
	if ok {
		return data, nil
	}

	raw, err := c.fetchCard(ctx, catalogID)
	if err != nil {
		padded, padOK := padCatalogID(catalogID)
		if !padOK {
			return card.Data{}, err
		}
		raw, err = c.fetchCard(ctx, padded)
		if err != nil {
			return card.Data{}, &NotFoundError{CatalogID: catalogID}
		}
	}

	data, err = card.ParseData(raw)
	if err != nil {
		return card.Data{}, fmt.Errorf("card %s: %w", catalogID, err)
	}

	c.mu.Lock()
	c.cache[catalogID] = data
	c.mu.Unlock()

	c.logger.Debug("catalog card resolved",
		zap.String("catalog_id", catalogID),
		zap.String("name", data.Name),
	)
	return data, nil
}

// Prime inserts data into the cache, replacing any prior entry. The deck
// importer uses it to persist the backfilled evolves-from value.
func (c *Client) Prime(catalogID string, data card.Data) {
	c.mu.Lock()
	c.cache[catalogID] = data
	c.mu.Unlock()
}

// EvolvesFrom looks up the name a creature evolves from when the card's own
// entry omits it. It searches the catalog for same-named cards that do carry
// an evolves-from value, stripping variant suffixes from the name first.
func (c *Client) EvolvesFrom(ctx context.Context, creatureName string) (string, error) {
	simple := simplifyName(creatureName)
	query := url.Values{}
	query.Set("name", simple)
	query.Set("evolveFrom", "notnull:")

	related, err := c.searchCards(ctx, query)
	if err != nil {
		return "", err
	}
	for _, r := range related {
		if r.Creature != nil && r.Creature.EvolvesFrom != "" {
			return r.Creature.EvolvesFrom, nil
		}
	}
	return "", nil
}

// EvolutionNames returns the names of all cards that evolve from the given
// creature name.
func (c *Client) EvolutionNames(ctx context.Context, creatureName string) ([]string, error) {
	query := url.Values{}
	query.Set("evolveFrom", creatureName)

	results, err := c.searchCards(ctx, query)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	names := make([]string, 0, len(results))
	for _, r := range results {
		if r.Name == "" || seen[r.Name] {
			continue
		}
		seen[r.Name] = true
		names = append(names, r.Name)
	}
	return names, nil
}

func (c *Client) fetchCard(ctx context.Context, catalogID string) ([]byte, error) {
	return c.get(ctx, c.baseURL+"/cards/"+url.PathEscape(catalogID))
}

func (c *Client) searchCards(ctx context.Context, query url.Values) ([]card.Data, error) {
	raw, err := c.get(ctx, c.baseURL+"/cards?"+query.Encode())
	if err != nil {
		return nil, err
	}
	return card.ParseDataList(raw)
}

func (c *Client) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("catalog request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog responded %d for %s", resp.StatusCode, rawURL)
	}
	return io.ReadAll(resp.Body)
}

// padCatalogID left-pads the numeric suffix of "<set>-<number>" to 3 digits.
// Returns false when the id has no suffix to pad or padding changes nothing.
func padCatalogID(catalogID string) (string, bool) {
	idx := strings.LastIndex(catalogID, "-")
	if idx < 0 || idx == len(catalogID)-1 {
		return "", false
	}
	set, num := catalogID[:idx], catalogID[idx+1:]
	if len(num) >= 3 {
		return "", false
	}
	for len(num) < 3 {
		num = "0" + num
	}
	return set + "-" + num, true
}

// simplifyName strips variant suffixes so a search matches the base printing.
func simplifyName(name string) string {
	for _, suffix := range []string{" ex", " vstar", " v", " gx"} {
		if strings.HasSuffix(strings.ToLower(name), suffix) {
			return name[:len(name)-len(suffix)]
		}
	}
	return name
}
