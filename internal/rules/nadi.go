package rules

import "Horacle/internal/domain/models"

// Nadi precision tiers, closed on the left: a resonance exactly at a bound
// falls in the tighter tier.
const (
	SniperOrb   = 0.20
	VeryHighOrb = 3.20
	HighOrb     = 13.33
)

// NadiTier classifies a resonance in degrees. ok is false beyond HighOrb.
func NadiTier(precision float64) (tier models.NadiConfidence, ok bool) {
	switch {
	case precision <= SniperOrb:
		return models.NadiSniper, true
	case precision <= VeryHighOrb:
		return models.NadiVeryHigh, true
	case precision <= HighOrb:
		return models.NadiHigh, true
	}
	return models.NadiLow, false
}

var nadiBonuses = map[models.NadiRelation][3]int{
	models.NadiTrinal:      {50, 30, 15},
	models.NadiDirectional: {40, 25, 12},
	models.NadiOpposition:  {45, 28, 14},
}

// NadiBonus returns the bonus for a relation at a tier.
func NadiBonus(rel models.NadiRelation, tier models.NadiConfidence) int {
	b := nadiBonuses[rel]
	switch tier {
	case models.NadiSniper:
		return b[0]
	case models.NadiVeryHigh:
		return b[1]
	case models.NadiHigh:
		return b[2]
	}
	return 0
}

// NadiBonusCap bounds the summed bonus of all linkages.
const NadiBonusCap = 50

// Archetype is the life theme a planet pair resonates with.
type Archetype struct {
	Name    string
	Quality string
}

type planetPair [2]models.Planet

func pairOf(a, b models.Planet) planetPair {
	if a > b {
		a, b = b, a
	}
	return planetPair{a, b}
}

var archetypes = map[planetPair]Archetype{
	pairOf(models.Jupiter, models.Saturn):  {"career_milestone", "success"},
	pairOf(models.Saturn, models.Mars):     {"struggle", "struggle"},
	pairOf(models.Jupiter, models.Venus):   {"marriage_wealth", "success"},
	pairOf(models.Jupiter, models.Sun):     {"recognition", "success"},
	pairOf(models.Jupiter, models.Moon):    {"prosperity", "success"},
	pairOf(models.Jupiter, models.Mercury): {"education_business", "success"},
	pairOf(models.Jupiter, models.Mars):    {"initiative_gain", "positive"},
	pairOf(models.Saturn, models.Venus):    {"delayed_relationship", "mixed"},
	pairOf(models.Saturn, models.Moon):     {"emotional_burden", "struggle"},
	pairOf(models.Saturn, models.Sun):      {"authority_conflict", "struggle"},
	pairOf(models.Saturn, models.Mercury):  {"disciplined_work", "mixed"},
	pairOf(models.Rahu, models.Venus):      {"foreign_romance", "mixed"},
	pairOf(models.Rahu, models.Jupiter):    {"unconventional_growth", "mixed"},
	pairOf(models.Rahu, models.Saturn):     {"karmic_pressure", "struggle"},
	pairOf(models.Rahu, models.Moon):       {"restless_change", "mixed"},
	pairOf(models.Ketu, models.Jupiter):    {"spiritual_growth", "positive"},
	pairOf(models.Ketu, models.Mars):       {"accident_risk", "struggle"},
	pairOf(models.Ketu, models.Moon):       {"detachment", "mixed"},
}

var generalActivation = Archetype{Name: "general_activation", Quality: "mixed"}

// ArchetypeFor returns the archetype of a transit/natal planet pair, in either order.
func ArchetypeFor(a, b models.Planet) Archetype {
	if at, ok := archetypes[pairOf(a, b)]; ok {
		return at
	}
	return generalActivation
}
