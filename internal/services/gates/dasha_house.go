// Package gates implements the authorization and validation layers of the
// event pipeline. Gates precompute natal lookups at construction and are
// read-only afterwards, so one instance serves every date of a sweep.
package gates

import (
	"sort"

	"Horacle/internal/domain/models"
	"Horacle/internal/rules"
)

const (
	// AuthorizationThreshold is the minimum dasha score that opens a house.
	AuthorizationThreshold = 40.0
	// DefaultMaxHouses caps the houses returned per date.
	DefaultMaxHouses = 6

	weakRupas  = 4.0
	weakBindus = 25
)

// DashaGateOption configures a DashaHouseGate.
type DashaGateOption func(*DashaHouseGate)

// WithMaxHouses overrides the top-N truncation.
func WithMaxHouses(n int) DashaGateOption {
	return func(g *DashaHouseGate) {
		if n > 0 {
			g.maxHouses = n
		}
	}
}

// DashaHouseGate decides which houses the running dasha lords may activate.
type DashaHouseGate struct {
	signs       [12]int
	lords       [12]models.Planet
	dispositors [12]models.Planet
	placements  map[models.Planet]int
	maxHouses   int
}

// NewDashaHouseGate precomputes house lords, placements and dispositors.
func NewDashaHouseGate(chart models.Chart, opts ...DashaGateOption) *DashaHouseGate {
	g := &DashaHouseGate{
		placements: make(map[models.Planet]int, len(chart.Planets)),
		maxHouses:  DefaultMaxHouses,
	}
	for _, o := range opts {
		o(g)
	}
	for p, pos := range chart.Planets {
		g.placements[p] = chart.HouseOf(pos)
	}
	for h := 1; h <= 12; h++ {
		sign, lord := houseSignAndLord(chart, h)
		g.signs[h-1] = sign
		g.lords[h-1] = lord
		if pos, ok := chart.Planets[lord]; ok {
			g.dispositors[h-1] = rules.SignLord(models.SignOf(pos.Longitude))
		}
	}
	return g
}

// Evaluate returns authorized houses sorted by score descending (house
// ascending on ties), truncated to the configured maximum. strength may be nil.
func (g *DashaHouseGate) Evaluate(stack models.DashaStack, strength *models.StrengthTables) []models.Authorization {
	all := g.Score(stack, strength)
	out := make([]models.Authorization, 0, len(all))
	for _, a := range all {
		if a.Authorized {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].House < out[j].House
	})
	if len(out) > g.maxHouses {
		out = out[:g.maxHouses]
	}
	return out
}

// Score computes the authorization record of every house, authorized or not.
func (g *DashaHouseGate) Score(stack models.DashaStack, strength *models.StrengthTables) [12]models.Authorization {
	var out [12]models.Authorization
	for h := 1; h <= 12; h++ {
		out[h-1] = models.Authorization{House: h, Capacity: models.CapacityStrong}
	}
	for _, lp := range stack.Levels() {
		w := lp.Level.Weight()
		for h := 1; h <= 12; h++ {
			best, reasons := g.contribution(lp.Level, lp.Period.Planet, h, w)
			if best == 0 {
				continue
			}
			out[h-1].Score += best
			out[h-1].Reasons = append(out[h-1].Reasons, reasons...)
		}
	}
	for i := range out {
		a := &out[i]
		a.Authorized = a.Score >= AuthorizationThreshold
		a.Capacity, a.StrengthValidated = g.capacity(*a, strength)
	}
	return out
}

// contribution keeps the highest single path weight of planet p on house h;
// every path reaching that weight is recorded.
func (g *DashaHouseGate) contribution(level models.DashaLevel, p models.Planet, h int, w float64) (float64, []models.AuthReason) {
	type hit struct {
		path   models.AuthPath
		weight float64
	}
	var hits []hit
	if g.lords[h-1] == p {
		hits = append(hits, hit{models.PathLordship, w})
	}
	from, placed := g.placements[p]
	if placed && from == h {
		hits = append(hits, hit{models.PathOccupation, w})
	}
	if placed && rules.AspectOn(p, from, h) != 0 {
		hits = append(hits, hit{models.PathAspect, w})
	}
	if len(hits) == 0 && rules.IsNaturalKaraka(p, h) {
		hits = append(hits, hit{models.PathKaraka, w / 2})
	}
	if (level == models.Mahadasha || level == models.Antardasha) && g.dispositors[h-1] == p {
		hits = append(hits, hit{models.PathDispositor, w / 3})
	}

	best := 0.0
	for _, ht := range hits {
		if ht.weight > best {
			best = ht.weight
		}
	}
	var reasons []models.AuthReason
	for _, ht := range hits {
		if ht.weight == best {
			reasons = append(reasons, models.AuthReason{Level: level, Planet: p, Path: ht.path, Weight: ht.weight})
		}
	}
	return best, reasons
}

// capacity counts weak factors: each contributing planet below 4 rupas and the
// house sign below 25 bindus.
func (g *DashaHouseGate) capacity(a models.Authorization, strength *models.StrengthTables) (models.Capacity, bool) {
	if strength == nil {
		return models.CapacityStrong, false
	}
	weak := 0
	for _, p := range a.Contributors() {
		if rupas, ok := strength.Rupas(p); ok && rupas < weakRupas {
			weak++
		}
	}
	if bindus, ok := strength.Bindus(g.signs[a.House-1]); ok && bindus < weakBindus {
		weak++
	}
	validated := strength.Validated()
	switch {
	case weak >= 2:
		return models.CapacityWeak, validated
	case weak == 1:
		return models.CapacityModerate, validated
	}
	return models.CapacityStrong, validated
}

// HouseSign returns the natal sign on house h.
func (g *DashaHouseGate) HouseSign(h int) int { return g.signs[models.NormHouse(h)-1] }

func houseSignAndLord(chart models.Chart, h int) (int, models.Planet) {
	info := chart.House(h)
	sign := info.Sign
	if info.Lord == "" {
		sign = models.NormSign(chart.AscendantSign() + h - 1)
		return sign, rules.SignLord(sign)
	}
	return sign, info.Lord
}
