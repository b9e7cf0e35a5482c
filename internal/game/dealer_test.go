package game

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/cardroom/cardroom-server/internal/card"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func creatureData(id, name, stage string) card.Data {
	return card.Data{
		CatalogID: id,
		Name:      name,
		Category:  card.CategoryCreature,
		Creature:  &card.Creature{HP: 60, Stage: stage},
	}
}

func energyData(id, name string) card.Data {
	return card.Data{
		CatalogID: id,
		Name:      name,
		Category:  card.CategoryEnergy,
		Energy:    &card.Energy{EnergyType: "Normal", EnergyColor: "Fire"},
	}
}

func instances(data ...card.Data) []*card.Card {
	cards := make([]*card.Card, 0, len(data))
	for _, d := range data {
		cards = append(cards, card.NewInstance(d))
	}
	return cards
}

func TestDealOpeningHandKeepsBasicHand(t *testing.T) {
	var data []card.Data
	for i := 0; i < 60; i++ {
		data = append(data, creatureData(fmt.Sprintf("base1-%d", i), "Charmander", "Basic"))
	}
	cards := instances(data...)

	opening, err := DealOpeningHand(cards, rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	assert.Len(t, opening.Hand, OpeningHandSize)
	assert.Equal(t, 0, opening.Mulligans())

	seen := make(map[string]struct{})
	for _, c := range opening.Hand {
		_, dup := seen[c.InstanceID]
		assert.False(t, dup, "hand repeats instance %s", c.InstanceID)
		seen[c.InstanceID] = struct{}{}
	}
}

func TestDealOpeningHandRecordsMulligans(t *testing.T) {
	data := []card.Data{creatureData("base1-46", "Charmander", "Basic")}
	for i := 0; i < 59; i++ {
		data = append(data, energyData("base1-98", "Fire Energy"))
	}
	cards := instances(data...)

	opening, err := DealOpeningHand(cards, rand.New(rand.NewSource(7)))
	require.NoError(t, err)

	found := false
	for _, c := range opening.Hand {
		if c.IsBasicCreature() {
			found = true
		}
	}
	assert.True(t, found, "accepted hand has no Basic creature")

	for i, hand := range opening.MulliganHands {
		assert.Len(t, hand, OpeningHandSize)
		for _, c := range hand {
			assert.False(t, c.IsBasicCreature(), "mulligan hand %d holds a Basic creature", i)
		}
	}
}

func TestDealOpeningHandNoBasicCreature(t *testing.T) {
	var data []card.Data
	for i := 0; i < 60; i++ {
		data = append(data, energyData("base1-98", "Fire Energy"))
	}
	cards := instances(data...)

	_, err := DealOpeningHand(cards, rand.New(rand.NewSource(1)))

	var noBasic *NoBasicCreatureError
	require.ErrorAs(t, err, &noBasic)
}

func TestDealOpeningHandDeckTooSmall(t *testing.T) {
	cards := instances(
		creatureData("base1-46", "Charmander", "Basic"),
		energyData("base1-98", "Fire Energy"),
	)

	_, err := DealOpeningHand(cards, rand.New(rand.NewSource(1)))

	var tooSmall *DeckTooSmallError
	require.ErrorAs(t, err, &tooSmall)
	assert.Equal(t, 2, tooSmall.Cards)
	assert.Equal(t, OpeningHandSize, tooSmall.Required)
}
