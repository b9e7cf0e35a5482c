package card

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Category identifies which variant of card data a catalog entry carries.
type Category string

const (
	CategoryCreature Category = "CREATURE"
	CategoryEnergy   Category = "ENERGY"
	CategoryTrainer  Category = "TRAINER"
	CategoryUnknown  Category = "UNKNOWN"
)

// ParseCategory maps a catalog category string to a Category tag.
// Unrecognized values map to CategoryUnknown rather than failing, since the
// catalog occasionally serves promotional cards with no usable category.
func ParseCategory(s string) Category {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "creature", "pokemon":
		return CategoryCreature
	case "energy":
		return CategoryEnergy
	case "trainer":
		return CategoryTrainer
	default:
		return CategoryUnknown
	}
}

// Attack describes a single printed attack on a creature card.
type Attack struct {
	Cost   []string `json:"cost"`
	Name   string   `json:"name"`
	Effect string   `json:"effect"`
	Damage string   `json:"damage"`
}

// attackWire mirrors Attack but tolerates the catalog serving damage as
// either a JSON string ("20+") or a bare number (20).
type attackWire struct {
	Cost   []string        `json:"cost"`
	Name   string          `json:"name"`
	Effect string          `json:"effect"`
	Damage json.RawMessage `json:"damage"`
}

func (a *Attack) UnmarshalJSON(raw []byte) error {
	var wire attackWire
	if err := json.Unmarshal(raw, &wire); err != nil {
		return err
	}
	a.Cost = wire.Cost
	a.Name = wire.Name
	a.Effect = wire.Effect
	a.Damage = flexString(wire.Damage)
	return nil
}

// flexString renders a raw JSON scalar as a string whether it was quoted or not.
func flexString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

// Weakness is a typed damage multiplier against a creature.
type Weakness struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// Resistance is a typed damage reduction for a creature.
type Resistance struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// Ability is a printed (non-attack) ability on a creature card.
type Ability struct {
	Type   string `json:"type"`
	Name   string `json:"name"`
	Effect string `json:"effect"`
}

// Creature holds the attributes specific to creature cards.
type Creature struct {
	HP          int          `json:"hp"`
	Types       []string     `json:"types"`
	EvolvesFrom string       `json:"evolveFrom"`
	Stage       string       `json:"stage"`
	Abilities   []Ability    `json:"abilities"`
	Attacks     []Attack     `json:"attacks"`
	Weaknesses  []Weakness   `json:"weaknesses"`
	Resistances []Resistance `json:"resistances"`
	RetreatCost int          `json:"retreat"`
}

// Energy holds the attributes specific to energy cards. Basic energy has
// EnergyType "Normal" and is exempt from the four-copy deck limit.
type Energy struct {
	Effect      string `json:"effect"`
	EnergyType  string `json:"energyType"`
	EnergyColor string `json:"energyColor"`
}

// Trainer holds the attributes specific to trainer cards.
type Trainer struct {
	TrainerType string `json:"trainerType"`
	Effect      string `json:"effect"`
}

// Data is the catalog-sourced description of a printed card. It is a tagged
// variant: Category selects which of the variant pointers is populated.
// Data is immutable once resolved, except that the deck importer may
// backfill a creature's missing EvolvesFrom value.
type Data struct {
	CatalogID   string   `json:"catalogId"`
	Name        string   `json:"name"`
	ImageURL    string   `json:"imageUrl,omitempty"`
	Description string   `json:"description,omitempty"`
	Category    Category `json:"category"`

	Creature *Creature `json:"creature,omitempty"`
	Energy   *Energy   `json:"energy,omitempty"`
	Trainer  *Trainer  `json:"trainer,omitempty"`
}

// dataWire is the flat catalog JSON shape Data is decoded from.
type dataWire struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Image       string `json:"image"`
	Description string `json:"description"`
	Category    string `json:"category"`

	HP          int          `json:"hp"`
	Types       []string     `json:"types"`
	EvolvesFrom string       `json:"evolveFrom"`
	Stage       string       `json:"stage"`
	Abilities   []Ability    `json:"abilities"`
	Attacks     []Attack     `json:"attacks"`
	Weaknesses  []Weakness   `json:"weaknesses"`
	Resistances []Resistance `json:"resistances"`
	RetreatCost int          `json:"retreat"`

	Effect      string `json:"effect"`
	EnergyType  string `json:"energyType"`
	EnergyColor string `json:"energyColor"`
	TrainerType string `json:"trainerType"`
}

// ParseData decodes a catalog payload into Data, selecting the variant from
// the category tag.
func ParseData(raw []byte) (Data, error) {
	var wire dataWire
	if err := json.Unmarshal(raw, &wire); err != nil {
		return Data{}, fmt.Errorf("decoding catalog card data: %w", err)
	}
	if wire.ID == "" {
		return Data{}, fmt.Errorf("catalog card data has no id")
	}

	data := Data{
		CatalogID:   wire.ID,
		Name:        wire.Name,
		ImageURL:    wire.Image,
		Description: wire.Description,
		Category:    ParseCategory(wire.Category),
	}

	switch data.Category {
	case CategoryCreature:
		data.Creature = &Creature{
			HP:          wire.HP,
			Types:       wire.Types,
			EvolvesFrom: wire.EvolvesFrom,
			Stage:       wire.Stage,
			Abilities:   wire.Abilities,
			Attacks:     wire.Attacks,
			Weaknesses:  wire.Weaknesses,
			Resistances: wire.Resistances,
			RetreatCost: wire.RetreatCost,
		}
	case CategoryEnergy:
		data.Energy = &Energy{
			Effect:      wire.Effect,
			EnergyType:  wire.EnergyType,
			EnergyColor: wire.EnergyColor,
		}
	case CategoryTrainer:
		data.Trainer = &Trainer{
			TrainerType: wire.TrainerType,
			Effect:      wire.Effect,
		}
	}

	return data, nil
}

// ParseDataList decodes a catalog search payload (a JSON array of cards).
func ParseDataList(raw []byte) ([]Data, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decoding catalog card list: %w", err)
	}
	list := make([]Data, 0, len(items))
	for _, item := range items {
		data, err := ParseData(item)
		if err != nil {
			// Search results can include partial entries; skip them.
			continue
		}
		list = append(list, data)
	}
	return list, nil
}

// IsBasicCreature reports whether the data describes a Basic-stage creature.
func (d Data) IsBasicCreature() bool {
	return d.Category == CategoryCreature && d.Creature != nil && d.Creature.Stage == "Basic"
}

// IsBasicEnergy reports whether the data describes a basic energy card,
// which is exempt from the four-copy deck construction limit.
func (d Data) IsBasicEnergy() bool {
	return d.Category == CategoryEnergy && d.Energy != nil && d.Energy.EnergyType == "Normal"
}

// Card is one physical copy of a printed card within one match. InstanceID is
// unique per copy and stable for the match's duration, so two copies of the
// same catalog entry remain individually addressable.
type Card struct {
	InstanceID string `json:"instanceId"`
	Data
}

// NewInstance mints a card instance for the given catalog data.
func NewInstance(data Data) *Card {
	return &Card{
		InstanceID: uuid.New().String(),
		Data:       data,
	}
}
