package gates

import (
	"math"
	"sort"

	"Horacle/internal/domain/models"
	"Horacle/internal/rules"
)

// NadiAdjustment is the probability shift a Nadi confidence class carries.
func NadiAdjustment(c models.NadiConfidence) int {
	switch c {
	case models.NadiSniper:
		return 20
	case models.NadiVeryHigh:
		return 15
	case models.NadiHigh:
		return 10
	case models.NadiModerate:
		return 5
	}
	return 0
}

// NadiGate measures degree resonance between a transit planet and the natal chart.
type NadiGate struct {
	natal []natalPoint
}

type natalPoint struct {
	planet    models.Planet
	longitude float64
}

// NewNadiGate captures natal longitudes in traditional planet order.
func NewNadiGate(chart models.Chart) *NadiGate {
	g := &NadiGate{}
	for _, p := range models.Planets {
		if pos, ok := chart.Planets[p]; ok {
			g.natal = append(g.natal, natalPoint{planet: p, longitude: models.NormDegrees(pos.Longitude)})
		}
	}
	return g
}

// Ready reports whether the natal chart carries placements to resonate with.
func (g *NadiGate) Ready() bool { return len(g.natal) > 0 }

// Validate checks transit planet p at longitude against every other natal
// planet. A retrograde transit is also checked from its shadow one sign back.
func (g *NadiGate) Validate(p models.Planet, longitude float64, retrograde bool) models.NadiValidation {
	links := g.linkages(p, models.NormDegrees(longitude), false)
	if retrograde {
		links = append(links, g.linkages(p, models.NormDegrees(longitude-models.SignSpan), true)...)
	}
	sort.SliceStable(links, func(i, j int) bool { return links[i].Precision < links[j].Precision })

	v := models.NadiValidation{Confidence: models.NadiLow, Linkages: links}
	if len(links) > 0 {
		best := links[0].Precision
		v.BestPrecision = &best
		tier, _ := rules.NadiTier(best)
		v.Confidence = tier
		if tier == models.NadiHigh && len(links) < 2 {
			v.Confidence = models.NadiModerate
		}
	}
	for _, l := range links {
		v.Bonus += l.Bonus
	}
	if v.Bonus > rules.NadiBonusCap {
		v.Bonus = rules.NadiBonusCap
	}
	v.ExactDay = v.Confidence == models.NadiSniper
	v.ProbabilityAdjustment = NadiAdjustment(v.Confidence)
	return v
}

func (g *NadiGate) linkages(p models.Planet, lon float64, shadow bool) []models.NadiLinkage {
	var out []models.NadiLinkage
	pSign := models.SignOf(lon)
	pDeg := models.DegreeInSign(lon)
	for _, q := range g.natal {
		if q.planet == p {
			continue
		}
		qSign := models.SignOf(q.longitude)
		within := math.Abs(pDeg - models.DegreeInSign(q.longitude))
		add := func(rel models.NadiRelation, precision float64) {
			tier, ok := rules.NadiTier(precision)
			if !ok {
				return
			}
			at := rules.ArchetypeFor(p, q.planet)
			out = append(out, models.NadiLinkage{
				TransitPlanet: p,
				NatalPlanet:   q.planet,
				Relation:      rel,
				Precision:     precision,
				Tier:          tier,
				Bonus:         rules.NadiBonus(rel, tier),
				Shadow:        shadow,
				Archetype:     at.Name,
				Quality:       at.Quality,
			})
		}
		if rules.ElementOf(pSign) == rules.ElementOf(qSign) {
			add(models.NadiTrinal, within)
		}
		if models.SignDistance(qSign, pSign) == 2 {
			add(models.NadiDirectional, within)
		}
		add(models.NadiOpposition, models.ArcDistance(lon, q.longitude+180))
	}
	return out
}
