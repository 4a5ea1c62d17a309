package gates

import (
	"context"
	"fmt"
	"time"

	"Horacle/internal/domain/models"
	"Horacle/internal/domain/service"
	"Horacle/internal/rules"
)

// OrbWeight converts an orb in degrees into the trigger multiplier.
func OrbWeight(orb float64) float64 {
	switch {
	case orb <= 3:
		return 1.5
	case orb <= 5:
		return 1.3
	case orb <= 10:
		return 1.1
	}
	return 1.0
}

// TransitPosition is one slow planet on a sweep date.
type TransitPosition struct {
	Longitude  float64
	House      int
	Retrograde bool
}

// TransitSnapshot holds slow-planet positions for one date.
type TransitSnapshot struct {
	Date      time.Time
	Positions map[models.Planet]TransitPosition
}

// TriggerFinder enumerates slow-planet transits touching a house.
type TriggerFinder struct {
	eph   service.Ephemeris
	chart models.Chart
	bav   models.Bhinnashtakavarga
	// planets ruling or occupying each house, for nakshatra returns
	natalLinks [12]map[models.Planet]bool
}

// NewTriggerFinder builds a finder over a natal chart. bav may be nil, in which
// case no transit is ever kakshya-active.
func NewTriggerFinder(eph service.Ephemeris, chart models.Chart, bav models.Bhinnashtakavarga) *TriggerFinder {
	f := &TriggerFinder{eph: eph, chart: chart, bav: bav}
	for h := 1; h <= 12; h++ {
		links := make(map[models.Planet]bool)
		_, lord := houseSignAndLord(chart, h)
		links[lord] = true
		for p, pos := range chart.Planets {
			if chart.HouseOf(pos) == h {
				links[p] = true
			}
		}
		f.natalLinks[h-1] = links
	}
	return f
}

// Snapshot fetches every slow planet for date. Any missing answer fails the
// whole date.
func (f *TriggerFinder) Snapshot(ctx context.Context, date time.Time) (TransitSnapshot, error) {
	snap := TransitSnapshot{Date: date, Positions: make(map[models.Planet]TransitPosition, len(models.SlowPlanets))}
	for _, p := range models.SlowPlanets {
		lon, err := f.eph.TransitLongitude(ctx, p, date)
		if err != nil {
			return TransitSnapshot{}, fmt.Errorf("transit %s: %w", p, err)
		}
		retro, err := f.eph.IsRetrograde(ctx, p, date)
		if err != nil {
			return TransitSnapshot{}, fmt.Errorf("retrograde %s: %w", p, err)
		}
		lon = models.NormDegrees(lon)
		snap.Positions[p] = TransitPosition{
			Longitude:  lon,
			House:      models.HouseFromLongitude(lon, f.chart.Ascendant),
			Retrograde: retro,
		}
	}
	return snap, nil
}

// Find returns the triggers on house h in slow-planet order, conjunction
// first, then aspects, then nakshatra return.
func (f *TriggerFinder) Find(snap TransitSnapshot, h int) []models.Trigger {
	var out []models.Trigger
	cusp := f.chart.Cusp(h)
	for _, p := range models.SlowPlanets {
		tp, ok := snap.Positions[p]
		if !ok {
			continue
		}
		if tp.House == h {
			orb := models.ArcDistance(tp.Longitude, cusp)
			out = append(out, models.Trigger{
				Planet:     p,
				Kind:       models.TriggerConjunction,
				House:      h,
				Longitude:  tp.Longitude,
				Orb:        orb,
				OrbWeight:  OrbWeight(orb),
				Retrograde: tp.Retrograde,
			})
		}
		for _, n := range rules.Aspects(p) {
			if rules.AspectTarget(tp.House, n) != h {
				continue
			}
			projected := tp.Longitude + float64(n-1)*models.SignSpan
			orb := models.ArcDistance(projected, cusp)
			out = append(out, models.Trigger{
				Planet:     p,
				Kind:       models.AspectTrigger(n),
				House:      h,
				Longitude:  tp.Longitude,
				Orb:        orb,
				OrbWeight:  OrbWeight(orb),
				Retrograde: tp.Retrograde,
			})
		}
		if t, ok := f.nakshatraReturn(p, tp, h); ok {
			out = append(out, t)
		}
	}
	return out
}

func (f *TriggerFinder) nakshatraReturn(p models.Planet, tp TransitPosition, h int) (models.Trigger, bool) {
	natal, ok := f.chart.Planets[p]
	if !ok || !f.natalLinks[h-1][p] {
		return models.Trigger{}, false
	}
	if models.NakshatraOf(tp.Longitude) != models.NakshatraOf(natal.Longitude) {
		return models.Trigger{}, false
	}
	orb := models.ArcDistance(tp.Longitude, natal.Longitude)
	return models.Trigger{
		Planet:        p,
		Kind:          models.TriggerNakshatraReturn,
		House:         h,
		Longitude:     tp.Longitude,
		Orb:           orb,
		OrbWeight:     OrbWeight(orb),
		Retrograde:    tp.Retrograde,
		KakshyaActive: f.KakshyaActive(p, tp.Longitude),
	}, true
}

// KakshyaActive reports whether the ruler of the kakshya at longitude gave p a
// bindu in the sign it occupies.
func (f *TriggerFinder) KakshyaActive(p models.Planet, longitude float64) bool {
	if f.bav == nil {
		return false
	}
	return f.bav.Contributed(p, models.SignOf(longitude), rules.KakshyaRuler(longitude))
}

// HasPlanet reports whether any trigger in ts comes from p.
func HasPlanet(ts []models.Trigger, p models.Planet) bool {
	for _, t := range ts {
		if t.Planet == p {
			return true
		}
	}
	return false
}
