package deck

// setCodes maps decklist set abbreviations to catalog set ids. A catalog id
// is formed as "<set>-<number>".
var setCodes = map[string]string{
	"BS":   "base1",
	"JU":   "base2",
	"FO":   "base3",
	"B2":   "base4",
	"TR":   "base5",
	"G1":   "gym1",
	"G2":   "gym2",
	"N1":   "neo1",
	"N2":   "neo2",
	"N3":   "neo3",
	"N4":   "neo4",
	"LC":   "base6",
	"PR":   "basep",
	"WBSP": "basep",
}

// energyCodes maps basic energy type names to the catalog id of the classic
// printing. Decklists sometimes name an energy type with no set reference.
var energyCodes = map[string]string{
	"Double":    "base1-96",
	"Fighting":  "base1-97",
	"Fire":      "base1-98",
	"Grass":     "base1-99",
	"Lightning": "base1-100",
	"Psychic":   "base1-101",
	"Water":     "base1-102",
}
