// Package scoring turns an authorized, triggered house into an event
// probability, quality, lock state and window.
package scoring

import (
	"math"
	"time"

	"Horacle/internal/domain/models"
	"Horacle/internal/rules"
)

const (
	maxAuthContribution  = 35
	doubleTransitBonus   = 30
	nakshatraReturnBonus = 8
	kakshyaBonus         = 12

	lockParashari = 70
	lockJaimini   = 50
)

// Accuracy ranges attached to lock states.
const (
	AccuracyAbsolute = "90-98%"
	AccuracyDouble   = "85-95%"
	AccuracyPartial  = "85-92%"
	AccuracyBase     = "75-85%"
)

// Input is one (date, house, trigger) candidate.
type Input struct {
	Authorization models.Authorization
	Trigger       models.Trigger
	Age           int
	DoubleTransit bool
	// NatalOccupied is true when any natal planet sits in the house.
	NatalOccupied bool
	HouseSign     int
	Strength      *models.StrengthTables
}

// Breakdown itemises the base composition.
type Breakdown struct {
	Authorization int `json:"authorization"`
	Shadbala      int `json:"shadbala"`
	Ashtakavarga  int `json:"ashtakavarga"`
	Dignity       int `json:"dignity"`
	Functional    int `json:"functional"`
	Age           int `json:"age"`
	NatalPromise  int `json:"natal_promise"`
	Nakshatra     int `json:"nakshatra_return"`
	Kakshya       int `json:"kakshya"`
	Orb           int `json:"orb"`
	DoubleTransit int `json:"double_transit"`
	Capacity      int `json:"capacity"`
	Total         int `json:"total"`
}

// Clamp bounds a probability to [0,100].
func Clamp(p int) int {
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	}
	return p
}

// Base computes the parashari probability: the sum of all terms, clamped once.
func Base(in Input) Breakdown {
	var b Breakdown
	p := in.Trigger.Planet
	h := in.Authorization.House

	b.Authorization = int(math.Min(in.Authorization.Score, maxAuthContribution))
	b.Shadbala = shadbalaPoints(in.Strength, p)
	b.Ashtakavarga = ashtakavargaPoints(in.Strength, in.HouseSign)
	b.Dignity = dignityPoints(in.Strength, p)
	b.Functional = functionalPoints(in.Strength, p)

	b.Age = 5
	if rules.StageFor(in.Age).Emphasises(h) {
		b.Age = 10
	}
	b.NatalPromise = 8
	if in.NatalOccupied {
		b.NatalPromise = 15
	}
	if in.Trigger.Kind == models.TriggerNakshatraReturn {
		b.Nakshatra = nakshatraReturnBonus
		if in.Trigger.KakshyaActive {
			b.Kakshya = kakshyaBonus
		}
	}
	b.Orb = OrbBonus(in.Trigger.OrbWeight)
	if in.DoubleTransit {
		b.DoubleTransit = doubleTransitBonus
	}
	switch in.Authorization.Capacity {
	case models.CapacityWeak:
		b.Capacity = -25
	case models.CapacityModerate:
		b.Capacity = -15
	}

	total := 0
	for _, term := range []int{
		b.Authorization, b.Shadbala, b.Ashtakavarga, b.Dignity, b.Functional, b.Age,
		b.NatalPromise, b.Nakshatra, b.Kakshya, b.Orb, b.DoubleTransit, b.Capacity,
	} {
		total += term
	}
	b.Total = Clamp(total)
	return b
}

// OrbBonus is floor((weight - 1) * 15).
func OrbBonus(weight float64) int {
	if weight <= 1 {
		return 0
	}
	return int(math.Floor((weight-1)*15 + 1e-9))
}

func shadbalaPoints(st *models.StrengthTables, p models.Planet) int {
	rupas, ok := st.Rupas(p)
	switch {
	case !ok:
		return 5
	case rupas > 6:
		return 20
	case rupas > 5:
		return 15
	case rupas > 4:
		return 10
	}
	return 5
}

func ashtakavargaPoints(st *models.StrengthTables, sign int) int {
	bindus, ok := st.Bindus(sign)
	switch {
	case !ok:
		return 0
	case bindus > 30:
		return 15
	case bindus > 28:
		return 10
	case bindus > 25:
		return 5
	}
	return 0
}

func dignityPoints(st *models.StrengthTables, p models.Planet) int {
	if st == nil || st.Dignity == nil {
		return 4
	}
	switch st.Dignity[p] {
	case models.Exalted:
		return 10
	case models.OwnSign:
		return 8
	case models.FriendSign:
		return 6
	case models.EnemySign:
		return 2
	case models.Debilitated:
		return 0
	}
	return 4
}

func functionalPoints(st *models.StrengthTables, p models.Planet) int {
	if st == nil || st.Functional == nil {
		return 5
	}
	switch st.Functional.Nature(p) {
	case models.FunctionalBenefic:
		return 10
	case models.FunctionalMalefic:
		return 0
	}
	return 5
}

// Adjust applies the Jaimini then Nadi shifts, clamping after each. A nil
// validation contributes nothing.
func Adjust(base int, j *models.JaiminiValidation, n *models.NadiValidation) int {
	p := base
	if j != nil {
		p = Clamp(p + j.ProbabilityAdjustment)
	}
	if n != nil {
		p = Clamp(p + n.ProbabilityAdjustment)
	}
	return p
}

// Quality classifies an event from capacity, house bindus and probability.
// Rows are evaluated top-down; unknown bindus never satisfy a bindu condition.
func Quality(auth models.Authorization, st *models.StrengthTables, houseSign, probability int) models.Quality {
	bindus, known := st.Bindus(houseSign)
	av := func(pred func(int) bool) bool { return known && pred(bindus) }

	if auth.Capacity == models.CapacityStrong && auth.StrengthValidated && av(func(b int) bool { return b >= 12 }) && probability >= 75 {
		return models.QualitySuccess
	}
	if auth.Capacity == models.CapacityStrong && av(func(b int) bool { return b >= 8 }) {
		return models.QualityPositive
	}
	if auth.Capacity == models.CapacityModerate || av(func(b int) bool { return b >= 5 && b < 10 }) {
		if probability >= 70 {
			return models.QualityPositive
		}
		return models.QualityMixed
	}
	if auth.Capacity == models.CapacityWeak || av(func(b int) bool { return b < 5 }) {
		if probability >= 65 {
			return models.QualityStruggle
		}
		return models.QualityChallenging
	}
	if probability >= 70 {
		return models.QualityPositive
	}
	return models.QualityMixed
}

// Locks reports the triple and double lock flags and the accuracy range.
func Locks(parashari int, j *models.JaiminiValidation, n *models.NadiValidation) (triple, double bool, accuracy string) {
	held := 0
	if parashari >= lockParashari {
		held++
	}
	if j != nil && j.Score >= lockJaimini {
		held++
	}
	if n != nil && n.Confidence.Endorses() {
		held++
	}
	switch held {
	case 3:
		return true, true, AccuracyAbsolute
	case 2:
		return false, true, AccuracyDouble
	case 1:
		return false, false, AccuracyPartial
	}
	return false, false, AccuracyBase
}

// Precision picks the timing class. Without the Nadi layer every event is broad.
func Precision(nadiAvailable bool, n *models.NadiValidation, t models.Trigger) models.TimingPrecision {
	if !nadiAvailable || n == nil {
		return models.PrecisionBroad
	}
	switch {
	case n.Confidence == models.NadiSniper:
		return models.PrecisionExactDay
	case t.KakshyaActive || n.Confidence == models.NadiVeryHigh:
		return models.PrecisionExact
	case t.OrbWeight >= 1.3 || n.Confidence == models.NadiHigh:
		return models.PrecisionPrecise
	case t.OrbWeight >= 1.1 || n.Confidence == models.NadiModerate:
		return models.PrecisionModerate
	}
	return models.PrecisionBroad
}

// Window centres the event on peak with the half-width of the precision class.
func Window(peak time.Time, p models.TimingPrecision) (start, end time.Time) {
	d := p.HalfWindow()
	return peak.AddDate(0, 0, -d), peak.AddDate(0, 0, d)
}

// Certainty is the Jaimini confidence label, or unknown without Jaimini.
func Certainty(j *models.JaiminiValidation) string {
	if j == nil {
		return models.CertaintyUnknown
	}
	return string(j.Confidence)
}
