// deckcheck imports and validates a decklist file against the card catalog
// without starting a match. It prints the resolved deck or the first
// validation failure.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/cardroom/cardroom-server/internal/catalog"
	"github.com/cardroom/cardroom-server/internal/deck"
	"go.uber.org/zap"
)

var (
	catalogURL = flag.String("catalog", "https://api.tcgdex.net/v2/en", "card catalog base URL")
	timeout    = flag.Duration("timeout", 30*time.Second, "total time allowed for catalog lookups")
)

func main() {
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: deckcheck [flags] <decklist-file>\n")
		flag.PrintDefaults()
		os.Exit(2)
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	raw, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read decklist: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	client := catalog.NewClient(*catalogURL, 10*time.Second, logger)
	importer := deck.NewImporter(client, logger)

	d, err := importer.Import(ctx, string(raw))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Deck rejected: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Deck OK: %d cards\n", d.Size())
	counts := make(map[string]int)
	order := make([]string, 0, d.Size())
	for _, c := range d.Cards {
		if counts[c.Name] == 0 {
			order = append(order, c.Name)
		}
		counts[c.Name]++
	}
	for _, name := range order {
		fmt.Printf("  %2d %s\n", counts[name], name)
	}
}
