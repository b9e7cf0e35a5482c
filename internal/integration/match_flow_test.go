package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cardroom/cardroom-server/internal/card"
	"github.com/cardroom/cardroom-server/internal/catalog"
	"github.com/cardroom/cardroom-server/internal/deck"
	"github.com/cardroom/cardroom-server/internal/game"
	"github.com/cardroom/cardroom-server/internal/match"
	"github.com/cardroom/cardroom-server/internal/notify"
	"github.com/cardroom/cardroom-server/internal/session"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// catalogFixture serves the card catalog API shape the client expects.
func catalogFixture(t *testing.T) *httptest.Server {
	t.Helper()
	cards := map[string]string{
		"base1-46": `{"id":"base1-46","name":"Charmander","category":"Pokemon","hp":50,"stage":"Basic","types":["Fire"]}`,
		"base1-24": `{"id":"base1-24","name":"Charmeleon","category":"Pokemon","hp":80,"stage":"Stage1","evolveFrom":"Charmander","types":["Fire"]}`,
		"base1-88": `{"id":"base1-88","name":"Professor Oak","category":"Trainer","effect":"Discard your hand, then draw 7 cards."}`,
		"base1-98": `{"id":"base1-98","name":"Fire Energy","category":"Energy","energyType":"Normal","energyColor":"Fire"}`,
	}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, "/cards/")
		body, ok := cards[id]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		fmt.Fprint(w, body)
	}))
}

const decklist = `Fire starter list
4 Charmander BS 46
3 Charmeleon BS 24
4 Professor Oak BS 88
49 Fire Energy`

func newStack(t *testing.T) (*match.Service, *notify.Hub) {
	t.Helper()
	logger := zaptest.NewLogger(t)

	upstream := catalogFixture(t)
	t.Cleanup(upstream.Close)

	cat := catalog.NewClient(upstream.URL, 5*time.Second, logger)
	hub := notify.NewHub(logger)
	engine := game.NewEngine(hub, logger,
		game.WithRand(rand.New(rand.NewSource(3))))
	importer := deck.NewImporter(cat, logger)
	svc := match.NewService(engine, importer, nil, cat,
		time.Hour, time.Minute, logger,
		match.WithObserverCloser(hub))
	return svc, hub
}

func TestFullMatchFlow(t *testing.T) {
	svc, _ := newStack(t)
	ctx := context.Background()

	d, err := svc.ImportDeck(ctx, decklist)
	require.NoError(t, err)
	require.Equal(t, 60, d.Size())

	sessionID, opening, err := svc.StartImported(d.ID)
	require.NoError(t, err)
	assert.Len(t, opening.Hand, game.OpeningHandSize)

	size, err := svc.DeckSize(sessionID)
	require.NoError(t, err)
	assert.Equal(t, 47, size)

	// Put a Basic creature into play and build it up.
	creature := pullCreature(t, svc, sessionID)
	require.NoError(t, svc.MoveToActive(sessionID, creature.InstanceID))

	energy := pullEnergy(t, svc, sessionID)
	require.NoError(t, svc.AttachCard(sessionID, creature.InstanceID, energy.InstanceID))

	total, err := svc.AddDamage(sessionID, creature.InstanceID, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, total)

	// Retreat to the bench and back.
	second := pullCreature(t, svc, sessionID)
	require.NoError(t, svc.MoveToBench(sessionID, second.InstanceID))
	require.NoError(t, svc.SwapActiveWithBench(sessionID, creature.InstanceID, second.InstanceID))

	active, err := svc.ActiveSpot(sessionID)
	require.NoError(t, err)
	assert.Equal(t, second.InstanceID, active.MainCard.InstanceID)
	bench, err := svc.BenchSpots(sessionID)
	require.NoError(t, err)
	require.Len(t, bench, 1)
	assert.Equal(t, creature.InstanceID, bench[0].MainCard.InstanceID)
	assert.Equal(t, 2, bench[0].DamageCounters)
	assert.Len(t, bench[0].AttachedCards, 1)

	// Ordinary turn actions.
	drawn, err := svc.DrawFromDeck(sessionID)
	require.NoError(t, err)
	require.NoError(t, svc.Discard(sessionID, drawn.InstanceID))
	_, remaining, err := svc.DrawFromPrizes(sessionID)
	require.NoError(t, err)
	assert.Equal(t, game.PrizeCount-1, remaining)

	history, err := svc.History(sessionID)
	require.NoError(t, err)
	assert.Equal(t, game.EventGameStarted, history[0].Type)
	types := make(map[game.EventType]bool)
	for _, evt := range history {
		types[evt.Type] = true
	}
	assert.True(t, types[game.EventCardMovedToActive])
	assert.True(t, types[game.EventCardAttached])
	assert.True(t, types[game.EventDamageAdded])
	assert.True(t, types[game.EventCardMovedToDiscard])
	assert.True(t, types[game.EventPrizeCardTaken])

	require.NoError(t, svc.End(sessionID))
	assert.False(t, svc.IsActive(sessionID))
}

func TestEndedSessionNotFound(t *testing.T) {
	svc, _ := newStack(t)
	d, err := svc.ImportDeck(context.Background(), decklist)
	require.NoError(t, err)
	sessionID, _, err := svc.StartImported(d.ID)
	require.NoError(t, err)
	require.NoError(t, svc.End(sessionID))

	_, err = svc.Hand(sessionID)
	var notFound *session.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, sessionID, notFound.ID)
}

func TestObserversSeeZoneChanges(t *testing.T) {
	svc, hub := newStack(t)

	d, err := svc.ImportDeck(context.Background(), decklist)
	require.NoError(t, err)
	sessionID, _, err := svc.StartImported(d.ID)
	require.NoError(t, err)

	hubServer := httptest.NewServer(hub)
	defer hubServer.Close()

	wsURL := "ws" + strings.TrimPrefix(hubServer.URL, "http") + "/?session=" + sessionID
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.ObserverCount(sessionID) == 0 {
		require.True(t, time.Now().Before(deadline), "observer never registered")
		time.Sleep(5 * time.Millisecond)
	}

	_, err = svc.DrawFromDeck(sessionID)
	require.NoError(t, err)

	events := make(map[string]bool)
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for len(events) < 3 {
		_, raw, readErr := conn.ReadMessage()
		require.NoError(t, readErr)
		var msg struct {
			Event string `json:"event"`
		}
		require.NoError(t, json.Unmarshal(raw, &msg))
		events[msg.Event] = true
	}
	assert.True(t, events["CardMovedToHand"])
	assert.True(t, events["HandChanged"])
	assert.True(t, events["DeckChanged"])
}

// pullCreature draws a named Basic creature from the deck so the test does
// not depend on the contents of the opening hand.
func pullCreature(t *testing.T, svc *match.Service, sessionID string) *card.Card {
	t.Helper()
	all, err := svc.PeekDeckAll(sessionID)
	require.NoError(t, err)
	for _, c := range all {
		if c.IsBasicCreature() {
			drawn, drawErr := svc.DrawSpecificFromDeck(sessionID, c.InstanceID)
			require.NoError(t, drawErr)
			return drawn
		}
	}
	t.Fatal("no Basic creature left in deck")
	return nil
}

func pullEnergy(t *testing.T, svc *match.Service, sessionID string) *card.Card {
	t.Helper()
	all, err := svc.PeekDeckAll(sessionID)
	require.NoError(t, err)
	for _, c := range all {
		if c.IsBasicEnergy() {
			drawn, drawErr := svc.DrawSpecificFromDeck(sessionID, c.InstanceID)
			require.NoError(t, drawErr)
			return drawn
		}
	}
	t.Fatal("no energy left in deck")
	return nil
}
