package models

import (
	"strconv"
	"time"
)

// Capacity grades how much an authorized house can deliver.
type Capacity string

const (
	CapacityStrong   Capacity = "strong"
	CapacityModerate Capacity = "moderate"
	CapacityWeak     Capacity = "weak"
)

// AuthPath names the route through which a dasha lord reaches a house.
type AuthPath string

const (
	PathLordship   AuthPath = "lordship"
	PathOccupation AuthPath = "occupation"
	PathAspect     AuthPath = "aspect"
	PathKaraka     AuthPath = "natural_karaka"
	PathDispositor AuthPath = "dispositor"
)

// AuthReason is one contributing row of an authorization.
type AuthReason struct {
	Level  DashaLevel `json:"level"`
	Planet Planet     `json:"planet"`
	Path   AuthPath   `json:"path"`
	Weight float64    `json:"weight"`
}

// Authorization is the dasha-house gate result for one house.
type Authorization struct {
	House             int          `json:"house"`
	Authorized        bool         `json:"authorized"`
	Score             float64      `json:"score"`
	Capacity          Capacity     `json:"capacity"`
	StrengthValidated bool         `json:"strength_validated"`
	Reasons           []AuthReason `json:"reasons"`
}

// Contributors lists distinct planets among the reasons, in reason order.
func (a Authorization) Contributors() []Planet {
	seen := make(map[Planet]bool, len(a.Reasons))
	out := make([]Planet, 0, len(a.Reasons))
	for _, r := range a.Reasons {
		if !seen[r.Planet] {
			seen[r.Planet] = true
			out = append(out, r.Planet)
		}
	}
	return out
}

// TriggerKind names how a transit touches a house.
type TriggerKind string

const (
	TriggerConjunction     TriggerKind = "conjunction"
	TriggerNakshatraReturn TriggerKind = "nakshatra_return"
)

// AspectTrigger returns the kind for an Nth aspect, e.g. "5th_aspect".
func AspectTrigger(n int) TriggerKind {
	return TriggerKind(Ordinal(n) + "_aspect")
}

// Ordinal renders 1 -> "1st", 2 -> "2nd", 11 -> "11th".
func Ordinal(n int) string {
	suffix := "th"
	if n%100 < 11 || n%100 > 13 {
		switch n % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}
	return strconv.Itoa(n) + suffix
}

// Trigger is a slow-planet transit touching a house.
type Trigger struct {
	Planet        Planet      `json:"planet"`
	Kind          TriggerKind `json:"kind"`
	House         int         `json:"house"`
	Longitude     float64     `json:"longitude"`
	Orb           float64     `json:"orb"`
	OrbWeight     float64     `json:"orb_weight"`
	Retrograde    bool        `json:"retrograde"`
	KakshyaActive bool        `json:"kakshya_active"`
}

// NadiRelation names a degree-resonance relation.
type NadiRelation string

const (
	NadiTrinal      NadiRelation = "trinal"
	NadiDirectional NadiRelation = "directional"
	NadiOpposition  NadiRelation = "opposition"
)

// NadiConfidence is the precision class of the Nadi gate.
type NadiConfidence string

const (
	NadiSniper   NadiConfidence = "sniper"
	NadiVeryHigh NadiConfidence = "very_high"
	NadiHigh     NadiConfidence = "high"
	NadiModerate NadiConfidence = "moderate"
	NadiLow      NadiConfidence = "low"
)

// Endorses reports whether the class counts toward a lock.
func (c NadiConfidence) Endorses() bool {
	return c == NadiSniper || c == NadiVeryHigh || c == NadiHigh
}

// NadiLinkage is one transit-to-natal resonance.
type NadiLinkage struct {
	TransitPlanet Planet         `json:"transit_planet"`
	NatalPlanet   Planet         `json:"natal_planet"`
	Relation      NadiRelation   `json:"relation"`
	Precision     float64        `json:"precision"`
	Tier          NadiConfidence `json:"tier"`
	Bonus         int            `json:"bonus"`
	Shadow        bool           `json:"shadow"`
	Archetype     string         `json:"archetype"`
	Quality       string         `json:"archetype_quality"`
}

// NadiValidation is the Nadi snapshot attached to an event.
type NadiValidation struct {
	Confidence            NadiConfidence `json:"confidence"`
	BestPrecision         *float64       `json:"best_precision,omitempty"`
	Bonus                 int            `json:"bonus"`
	ExactDay              bool           `json:"exact_day"`
	Linkages              []NadiLinkage  `json:"linkages"`
	ProbabilityAdjustment int            `json:"probability_adjustment"`
}

// Nature is the polarity of an event type.
type Nature string

const (
	NaturePositive Nature = "positive"
	NatureNeutral  Nature = "neutral"
	NatureNegative Nature = "negative"
)

// Quality is the user-facing texture of an event.
type Quality string

const (
	QualitySuccess     Quality = "success"
	QualityPositive    Quality = "positive"
	QualityMixed       Quality = "mixed"
	QualityStruggle    Quality = "struggle"
	QualityChallenging Quality = "challenging"
)

// TimingPrecision is the width class of the event window.
type TimingPrecision string

const (
	PrecisionExactDay TimingPrecision = "exact_day"
	PrecisionExact    TimingPrecision = "exact"
	PrecisionPrecise  TimingPrecision = "precise"
	PrecisionModerate TimingPrecision = "moderate"
	PrecisionBroad    TimingPrecision = "broad"
)

// HalfWindow is the number of days on each side of the peak.
func (p TimingPrecision) HalfWindow() int {
	switch p {
	case PrecisionExactDay:
		return 1
	case PrecisionExact:
		return 2
	case PrecisionPrecise:
		return 7
	case PrecisionModerate:
		return 14
	}
	return 30
}

// CertaintyUnknown marks records produced without the Jaimini layer.
const CertaintyUnknown = "unknown"

// EventRecord is one predicted event.
type EventRecord struct {
	ID                   string             `json:"id"`
	EventType            string             `json:"event_type"`
	House                int                `json:"house"`
	Probability          int                `json:"probability"`
	ParashariProbability int                `json:"parashari_probability"`
	Nature               Nature             `json:"nature"`
	Quality              Quality            `json:"quality"`
	StartDate            time.Time          `json:"start_date"`
	PeakDate             time.Time          `json:"peak_date"`
	EndDate              time.Time          `json:"end_date"`
	Authorization        Authorization      `json:"authorization"`
	Trigger              Trigger            `json:"trigger"`
	DoubleTransit        bool               `json:"double_transit"`
	Jaimini              *JaiminiValidation `json:"jaimini_validation,omitempty"`
	Nadi                 *NadiValidation    `json:"nadi_validation,omitempty"`
	Certainty            string             `json:"certainty"`
	TimingPrecision      TimingPrecision    `json:"timing_precision"`
	TripleLock           bool               `json:"triple_lock"`
	DoubleLock           bool               `json:"double_lock"`
	AccuracyRange        string             `json:"accuracy_range"`
	SupportingHouses     []int              `json:"supporting_houses"`
	KarakaActive         bool               `json:"karaka_active"`
}

// Degradation names a recoverable loss of input during a request.
type Degradation string

const (
	DegradationJaimini  Degradation = "jaimini_unavailable"
	DegradationNadi     Degradation = "nadi_unavailable"
	DegradationStrength Degradation = "strength_tables_missing"
)

// DatesSkipped reports n sweep dates without ephemeris data.
func DatesSkipped(n int) Degradation {
	return Degradation("dates_skipped:" + strconv.Itoa(n))
}

// Window is an inclusive date range.
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// PredictionResult is the full response of one prediction run.
type PredictionResult struct {
	RunID          string        `json:"run_id"`
	Birth          Birth         `json:"birth"`
	Window         Window        `json:"window"`
	MinProbability int           `json:"min_probability"`
	Events         []EventRecord `json:"events"`
	Degradations   []Degradation `json:"degradations"`
	GeneratedAt    time.Time     `json:"generated_at"`
}
