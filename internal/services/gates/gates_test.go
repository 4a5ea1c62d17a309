package gates

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Horacle/internal/domain/models"
	"Horacle/internal/rules"
)

func buildChart(asc float64, lons map[models.Planet]float64) models.Chart {
	c := models.Chart{Ascendant: asc, Planets: map[models.Planet]models.PlanetPosition{}}
	for p, lon := range lons {
		c.Planets[p] = models.Position(lon, asc, false)
	}
	for h := 1; h <= 12; h++ {
		sign := models.NormSign(models.SignOf(asc) + h - 1)
		c.Houses[h-1] = models.HouseInfo{Sign: sign, Lord: rules.SignLord(sign)}
	}
	return c
}

func md(p models.Planet) *models.DashaPeriod { return &models.DashaPeriod{Planet: p} }

func houses(auths []models.Authorization) []int {
	out := make([]int, 0, len(auths))
	for _, a := range auths {
		out = append(out, a.House)
	}
	return out
}

func TestDashaGate_JupiterInFourth(t *testing.T) {
	chart := buildChart(15, map[models.Planet]float64{models.Jupiter: 100})
	gate := NewDashaHouseGate(chart)

	auths := gate.Evaluate(models.DashaStack{Mahadasha: md(models.Jupiter)}, nil)

	require.Equal(t, []int{4, 8, 9, 10, 12, 2}, houses(auths))
	byHouse := map[int]models.Authorization{}
	for _, a := range auths {
		byHouse[a.House] = a
		assert.Equal(t, models.CapacityStrong, a.Capacity)
		assert.False(t, a.StrengthValidated)
	}
	for _, h := range []int{4, 8, 12} {
		assert.GreaterOrEqual(t, byHouse[h].Score, 100.0, "house %d", h)
	}
	assert.Equal(t, models.PathOccupation, byHouse[4].Reasons[0].Path)
	assert.Equal(t, models.PathAspect, byHouse[8].Reasons[0].Path)
	assert.InDelta(t, 50.0, byHouse[2].Score, 1e-9)
	assert.Equal(t, models.PathKaraka, byHouse[2].Reasons[0].Path)
}

func TestDashaGate_PlanetWithoutRelationsAuthorizesNothing(t *testing.T) {
	// Rahu rules no sign, signifies no house and is not placed in this chart.
	chart := buildChart(15, map[models.Planet]float64{models.Jupiter: 100})
	gate := NewDashaHouseGate(chart)

	stack := models.DashaStack{Mahadasha: md(models.Rahu), Antardasha: md(models.Rahu), Pratyantardasha: md(models.Rahu)}
	assert.Empty(t, gate.Evaluate(stack, nil))
	assert.Empty(t, gate.Evaluate(models.DashaStack{}, nil))
}

func TestDashaGate_MaxPathPerLevel(t *testing.T) {
	// Mars rules Aries and sits there: two full-weight paths, counted once.
	chart := buildChart(15, map[models.Planet]float64{models.Mars: 20})
	gate := NewDashaHouseGate(chart)

	all := gate.Score(models.DashaStack{Mahadasha: md(models.Mars)}, nil)
	h1 := all[0]
	assert.InDelta(t, 100.0, h1.Score, 1e-9)
	assert.Len(t, h1.Reasons, 2)
	assert.True(t, h1.Authorized)
}

func TestDashaGate_DispositorOnlyForMajorLevels(t *testing.T) {
	// Venus (lord of the 2nd from Aries) sits in Leo, so the Sun disposes her.
	chart := buildChart(15, map[models.Planet]float64{models.Venus: 125, models.Sun: 130})
	gate := NewDashaHouseGate(chart)

	all := gate.Score(models.DashaStack{Mahadasha: md(models.Sun), Antardasha: md(models.Sun)}, nil)
	h2 := all[1]
	assert.InDelta(t, 100.0/3+70.0/3, h2.Score, 1e-9)
	assert.True(t, h2.Authorized)
	for _, r := range h2.Reasons {
		assert.Equal(t, models.PathDispositor, r.Path)
	}

	onlyPD := gate.Score(models.DashaStack{Pratyantardasha: md(models.Sun)}, nil)
	assert.Zero(t, onlyPD[1].Score)
}

func TestDashaGate_Capacity(t *testing.T) {
	chart := buildChart(15, map[models.Planet]float64{models.Jupiter: 100})
	gate := NewDashaHouseGate(chart)
	stack := models.DashaStack{Mahadasha: md(models.Jupiter)}

	find := func(auths []models.Authorization, h int) models.Authorization {
		for _, a := range auths {
			if a.House == h {
				return a
			}
		}
		t.Fatalf("house %d not authorized", h)
		return models.Authorization{}
	}

	weak := &models.StrengthTables{
		Shadbala:         map[models.Planet]float64{models.Jupiter: 3.5},
		Sarvashtakavarga: map[int]int{3: 20},
	}
	a := find(gate.Evaluate(stack, weak), 4)
	assert.Equal(t, models.CapacityWeak, a.Capacity)
	assert.True(t, a.StrengthValidated)

	moderate := &models.StrengthTables{
		Shadbala:         map[models.Planet]float64{models.Jupiter: 3.5},
		Sarvashtakavarga: map[int]int{3: 30},
	}
	assert.Equal(t, models.CapacityModerate, find(gate.Evaluate(stack, moderate), 4).Capacity)

	strong := &models.StrengthTables{
		Shadbala:         map[models.Planet]float64{models.Jupiter: 6.5},
		Sarvashtakavarga: map[int]int{3: 30},
	}
	assert.Equal(t, models.CapacityStrong, find(gate.Evaluate(stack, strong), 4).Capacity)

	// Raising rupas never removes an authorization.
	assert.Equal(t, houses(gate.Evaluate(stack, weak)), houses(gate.Evaluate(stack, strong)))
}

func TestDashaGate_TruncatesToMaxHouses(t *testing.T) {
	chart := buildChart(15, map[models.Planet]float64{models.Jupiter: 100})
	gate := NewDashaHouseGate(chart, WithMaxHouses(3))
	assert.Equal(t, []int{4, 8, 9}, houses(gate.Evaluate(models.DashaStack{Mahadasha: md(models.Jupiter)}, nil)))
}

type fakeEphemeris struct {
	longitudes map[models.Planet]float64
	retro      map[models.Planet]bool
	fail       bool
}

func (f *fakeEphemeris) ComputeChart(context.Context, models.Birth) (models.Chart, error) {
	return models.Chart{}, nil
}

func (f *fakeEphemeris) ComputeD9(context.Context, models.Chart) (models.Chart, error) {
	return models.Chart{}, nil
}

func (f *fakeEphemeris) CurrentDashas(context.Context, models.Birth, time.Time) (models.DashaStack, error) {
	return models.DashaStack{}, nil
}

func (f *fakeEphemeris) TransitLongitude(_ context.Context, p models.Planet, _ time.Time) (float64, error) {
	if f.fail {
		return 0, errors.New("no data")
	}
	return f.longitudes[p], nil
}

func (f *fakeEphemeris) IsRetrograde(_ context.Context, p models.Planet, _ time.Time) (bool, error) {
	return f.retro[p], nil
}

func triggerFixture(t *testing.T) (*TriggerFinder, TransitSnapshot) {
	t.Helper()
	chart := buildChart(15, map[models.Planet]float64{models.Jupiter: 100, models.Saturn: 286})
	eph := &fakeEphemeris{longitudes: map[models.Planet]float64{
		models.Jupiter: 196,
		models.Saturn:  285,
		models.Rahu:    50,
		models.Ketu:    230,
	}, retro: map[models.Planet]bool{models.Rahu: true, models.Ketu: true}}
	bav := models.Bhinnashtakavarga{models.Saturn: {9: {"Venus": 1}}}
	finder := NewTriggerFinder(eph, chart, bav)
	snap, err := finder.Snapshot(context.Background(), time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	return finder, snap
}

func TestTriggerFinder_ConjunctionAndAspect(t *testing.T) {
	finder, snap := triggerFixture(t)

	trigs := finder.Find(snap, 7)
	require.Len(t, trigs, 2)
	assert.Equal(t, models.Jupiter, trigs[0].Planet)
	assert.Equal(t, models.TriggerConjunction, trigs[0].Kind)
	assert.InDelta(t, 1.0, trigs[0].Orb, 1e-9)
	assert.Equal(t, 1.5, trigs[0].OrbWeight)
	assert.Equal(t, models.Saturn, trigs[1].Planet)
	assert.Equal(t, models.TriggerKind("10th_aspect"), trigs[1].Kind)
	assert.True(t, HasPlanet(trigs, models.Jupiter) && HasPlanet(trigs, models.Saturn))

	h11 := finder.Find(snap, 11)
	require.NotEmpty(t, h11)
	assert.Equal(t, models.TriggerKind("5th_aspect"), h11[0].Kind)
	assert.Equal(t, 1.5, h11[0].OrbWeight)
}

func TestTriggerFinder_NakshatraReturnAndKakshya(t *testing.T) {
	finder, snap := triggerFixture(t)

	trigs := finder.Find(snap, 10)
	require.Len(t, trigs, 3)
	assert.Equal(t, models.TriggerConjunction, trigs[0].Kind)
	assert.Equal(t, models.TriggerNakshatraReturn, trigs[1].Kind)
	assert.True(t, trigs[1].KakshyaActive)
	assert.Equal(t, models.Rahu, trigs[2].Planet)
	assert.Equal(t, models.TriggerKind("9th_aspect"), trigs[2].Kind)
	assert.Equal(t, 1.3, trigs[2].OrbWeight)
	assert.True(t, trigs[2].Retrograde)

	// Saturn also rules the 11th, so its return attaches there too.
	var kinds []models.TriggerKind
	for _, tr := range finder.Find(snap, 11) {
		kinds = append(kinds, tr.Kind)
	}
	assert.Contains(t, kinds, models.TriggerNakshatraReturn)
}

func TestTriggerFinder_SnapshotFailure(t *testing.T) {
	finder := NewTriggerFinder(&fakeEphemeris{fail: true}, buildChart(15, nil), nil)
	_, err := finder.Snapshot(context.Background(), time.Now())
	assert.Error(t, err)
}

func TestOrbWeight(t *testing.T) {
	assert.Equal(t, 1.5, OrbWeight(3))
	assert.Equal(t, 1.3, OrbWeight(5))
	assert.Equal(t, 1.1, OrbWeight(10))
	assert.Equal(t, 1.0, OrbWeight(10.01))
}

func TestJaiminiGate(t *testing.T) {
	chart := buildChart(15, nil)
	at := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	data := models.JaiminiData{
		Karakas: map[models.KarakaRole]models.CharaKaraka{
			models.Darakaraka: {Planet: models.Venus, Sign: 6, House: 7},
		},
		Periods: []models.CharaDashaPeriod{
			{Sign: 2, Start: at.AddDate(-9, 0, 0), End: at.AddDate(-1, 0, 0)},
			{Sign: 6, Start: at.AddDate(-1, 0, 0), End: at.AddDate(5, 0, 0), Antardashas: []models.CharaDashaPeriod{
				{Sign: 4, Start: at.AddDate(0, -2, 0), End: at.AddDate(0, 3, 0)},
			}},
		},
		Argala:        map[int]models.Argala{7: {NetStrength: 30}, 3: {NetStrength: -30}},
		SpecialPoints: models.SpecialPoints{UpapadaLagna: 5, ArudhaLagna: 0, KarakamsaLagna: 9},
	}
	gate := NewJaiminiGate(chart, data)

	v := gate.Validate(7, at)
	assert.Equal(t, 140, v.Score)
	assert.Equal(t, models.JaiminiVeryHigh, v.Confidence)
	assert.Equal(t, 15, v.ProbabilityAdjustment)
	require.NotNil(t, v.MDSign)
	assert.Equal(t, 6, *v.MDSign)
	require.Len(t, v.Activations, 1)
	assert.Equal(t, "marriage_timing", v.Activations[0].Kind)

	conflicting := gate.Validate(3, at)
	assert.Equal(t, -20, conflicting.Score)
	assert.Equal(t, models.JaiminiConflicting, conflicting.Confidence)
	assert.Equal(t, -15, conflicting.ProbabilityAdjustment)

	career := gate.Validate(10, at)
	require.Len(t, career.Activations, 1)
	assert.Equal(t, "career_destiny", career.Activations[0].Kind)
}

func TestJaiminiGate_WealthFlowFromArudha(t *testing.T) {
	chart := buildChart(15, nil)
	at := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	// Arudha in Aries sits 2nd-from-Taurus and 11th-from-Aquarius.
	gate := NewJaiminiGate(chart, models.JaiminiData{SpecialPoints: models.SpecialPoints{ArudhaLagna: 0}})
	for _, h := range []int{2, 11} {
		v := gate.Validate(h, at)
		require.Len(t, v.Activations, 1, "house %d", h)
		assert.Equal(t, "wealth_flow", v.Activations[0].Kind)
		assert.Equal(t, "arudha", v.Activations[0].Lagna)
		assert.Equal(t, 0, v.Activations[0].Sign)
	}

	far := NewJaiminiGate(chart, models.JaiminiData{SpecialPoints: models.SpecialPoints{ArudhaLagna: 5}})
	assert.Empty(t, far.Validate(2, at).Activations)
	assert.Empty(t, far.Validate(11, at).Activations)
}

func TestJaiminiConfidenceFor(t *testing.T) {
	assert.Equal(t, models.JaiminiVeryHigh, JaiminiConfidenceFor(80))
	assert.Equal(t, models.JaiminiHigh, JaiminiConfidenceFor(50))
	assert.Equal(t, models.JaiminiModerate, JaiminiConfidenceFor(30))
	assert.Equal(t, models.JaiminiLow, JaiminiConfidenceFor(0))
	assert.Equal(t, models.JaiminiConflicting, JaiminiConfidenceFor(-1))
}

func TestNadiGate_TrinalSniper(t *testing.T) {
	gate := NewNadiGate(buildChart(15, map[models.Planet]float64{models.Saturn: 12.00}))

	v := gate.Validate(models.Jupiter, 252.10, false)
	require.Len(t, v.Linkages, 1)
	l := v.Linkages[0]
	assert.Equal(t, models.NadiTrinal, l.Relation)
	assert.InDelta(t, 0.10, l.Precision, 1e-6)
	assert.Equal(t, "career_milestone", l.Archetype)
	assert.Equal(t, models.NadiSniper, v.Confidence)
	assert.Equal(t, 50, v.Bonus)
	assert.True(t, v.ExactDay)
	assert.Equal(t, 20, v.ProbabilityAdjustment)
}

func TestNadiGate_BonusCapped(t *testing.T) {
	gate := NewNadiGate(buildChart(15, map[models.Planet]float64{models.Saturn: 12.00, models.Sun: 132.05}))
	v := gate.Validate(models.Jupiter, 252.10, false)
	assert.Len(t, v.Linkages, 2)
	assert.Equal(t, 50, v.Bonus)
}

func TestNadiGate_RetrogradeShadow(t *testing.T) {
	gate := NewNadiGate(buildChart(15, map[models.Planet]float64{models.Mars: 15.5}))
	v := gate.Validate(models.Saturn, 45.0, true)
	require.Len(t, v.Linkages, 2)

	var direct, shadow *models.NadiLinkage
	for i := range v.Linkages {
		if v.Linkages[i].Shadow {
			shadow = &v.Linkages[i]
		} else {
			direct = &v.Linkages[i]
		}
	}
	require.NotNil(t, direct)
	require.NotNil(t, shadow)
	assert.Equal(t, models.NadiDirectional, direct.Relation)
	assert.Equal(t, 25, direct.Bonus)
	assert.Equal(t, models.NadiTrinal, shadow.Relation)
	assert.Equal(t, 30, shadow.Bonus)
	assert.Equal(t, models.NadiVeryHigh, v.Confidence)
	assert.Equal(t, 50, v.Bonus)
}

func TestNadiGate_SingleHighIsModerate(t *testing.T) {
	gate := NewNadiGate(buildChart(15, map[models.Planet]float64{models.Moon: 20}))
	v := gate.Validate(models.Jupiter, 250, false)
	require.Len(t, v.Linkages, 1)
	assert.Equal(t, models.NadiModerate, v.Confidence)
	assert.Equal(t, 5, v.ProbabilityAdjustment)
	assert.False(t, v.ExactDay)
}

func TestNadiGate_NoResonance(t *testing.T) {
	gate := NewNadiGate(buildChart(15, map[models.Planet]float64{models.Moon: 20}))
	v := gate.Validate(models.Jupiter, 75, false)
	assert.Empty(t, v.Linkages)
	assert.Equal(t, models.NadiLow, v.Confidence)
	assert.Nil(t, v.BestPrecision)
	assert.False(t, NewNadiGate(models.Chart{}).Ready())
}

func TestNadiGate_OppositionAcrossZero(t *testing.T) {
	gate := NewNadiGate(buildChart(15, map[models.Planet]float64{models.Venus: 181.9}))

	v := gate.Validate(models.Mars, 2.0, false)
	require.Len(t, v.Linkages, 1)
	l := v.Linkages[0]
	assert.Equal(t, models.NadiOpposition, l.Relation)
	assert.InDelta(t, 0.10, l.Precision, 1e-6)
	assert.Equal(t, models.NadiSniper, l.Tier)
	assert.Equal(t, 45, l.Bonus)
	assert.Equal(t, models.NadiSniper, v.Confidence)

	wide := gate.Validate(models.Mars, 359.0, false)
	require.Len(t, wide.Linkages, 1)
	assert.Equal(t, models.NadiOpposition, wide.Linkages[0].Relation)
	assert.InDelta(t, 2.9, wide.Linkages[0].Precision, 1e-6)
	assert.Equal(t, models.NadiVeryHigh, wide.Confidence)
	assert.Equal(t, 28, wide.Bonus)
}
