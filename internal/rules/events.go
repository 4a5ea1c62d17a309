package rules

import (
	"slices"

	"Horacle/internal/domain/models"
)

var eventNatures = map[string]models.Nature{
	"personal_growth":      models.NaturePositive,
	"health_improvement":   models.NaturePositive,
	"new_beginning":        models.NaturePositive,
	"wealth_gain":          models.NaturePositive,
	"family_event":         models.NatureNeutral,
	"speech_recognition":   models.NaturePositive,
	"short_travel":         models.NatureNeutral,
	"sibling_event":        models.NatureNeutral,
	"courage_initiative":   models.NaturePositive,
	"property_purchase":    models.NaturePositive,
	"vehicle_purchase":     models.NaturePositive,
	"mother_event":         models.NatureNeutral,
	"education_milestone":  models.NaturePositive,
	"childbirth":           models.NaturePositive,
	"romance":              models.NaturePositive,
	"creative_success":     models.NaturePositive,
	"health_issue":         models.NatureNegative,
	"litigation":           models.NatureNegative,
	"job_change":           models.NatureNeutral,
	"debt":                 models.NatureNegative,
	"marriage":             models.NaturePositive,
	"business_partnership": models.NaturePositive,
	"relationship_change":  models.NatureNeutral,
	"health_crisis":        models.NatureNegative,
	"inheritance":          models.NatureNeutral,
	"sudden_change":        models.NatureNeutral,
	"transformation":       models.NatureNeutral,
	"higher_education":     models.NaturePositive,
	"foreign_travel":       models.NaturePositive,
	"spiritual_growth":     models.NaturePositive,
	"father_event":         models.NatureNeutral,
	"career_change":        models.NatureNeutral,
	"promotion":            models.NaturePositive,
	"career_milestone":     models.NaturePositive,
	"recognition":          models.NaturePositive,
	"income_increase":      models.NaturePositive,
	"goal_achievement":     models.NaturePositive,
	"networking":           models.NaturePositive,
	"foreign_settlement":   models.NatureNeutral,
	"expenses":             models.NatureNegative,
	"spiritual_retreat":    models.NatureNeutral,
	"hospitalization":      models.NatureNegative,
}

// NatureOf returns the polarity of an event type. Unknown types are neutral.
func NatureOf(eventType string) models.Nature {
	if n, ok := eventNatures[eventType]; ok {
		return n
	}
	return models.NatureNeutral
}

var significations = [12][]string{
	{"personal_growth", "health_improvement", "new_beginning"},
	{"wealth_gain", "family_event", "speech_recognition"},
	{"short_travel", "sibling_event", "courage_initiative"},
	{"property_purchase", "vehicle_purchase", "mother_event", "education_milestone"},
	{"childbirth", "education_milestone", "romance", "creative_success"},
	{"health_issue", "litigation", "job_change", "debt"},
	{"marriage", "business_partnership", "relationship_change"},
	{"health_crisis", "inheritance", "sudden_change", "transformation"},
	{"higher_education", "foreign_travel", "spiritual_growth", "father_event"},
	{"career_change", "promotion", "career_milestone", "recognition"},
	{"wealth_gain", "income_increase", "goal_achievement", "networking"},
	{"foreign_settlement", "expenses", "spiritual_retreat", "hospitalization"},
}

// Significations returns the event types house h can produce, most typical first.
func Significations(h int) []string {
	return significations[models.NormHouse(h)-1]
}

// EventRule describes which houses and planets shape an event type.
type EventRule struct {
	EventType        string          `json:"event_type"`
	RequiredHouses   []int           `json:"required_houses"`
	SupportingHouses []int           `json:"supporting_houses"`
	BlockingHouses   []int           `json:"blocking_houses"`
	RequiredPlanets  []models.Planet `json:"required_planets"`
}

var eventRules = map[string]EventRule{
	"marriage": {
		EventType: "marriage", RequiredHouses: []int{7}, SupportingHouses: []int{2, 5, 11},
		BlockingHouses: []int{6, 8, 12}, RequiredPlanets: []models.Planet{models.Venus, models.Jupiter},
	},
	"childbirth": {
		EventType: "childbirth", RequiredHouses: []int{5}, SupportingHouses: []int{2, 9, 11},
		BlockingHouses: []int{8, 12}, RequiredPlanets: []models.Planet{models.Jupiter},
	},
	"career_change": {
		EventType: "career_change", RequiredHouses: []int{10}, SupportingHouses: []int{3, 6, 11},
		BlockingHouses: []int{12}, RequiredPlanets: []models.Planet{models.Saturn, models.Sun},
	},
	"promotion": {
		EventType: "promotion", RequiredHouses: []int{10}, SupportingHouses: []int{2, 6, 11},
		BlockingHouses: []int{8, 12}, RequiredPlanets: []models.Planet{models.Sun, models.Jupiter},
	},
	"job_change": {
		EventType: "job_change", RequiredHouses: []int{6, 10}, SupportingHouses: []int{3, 11},
		BlockingHouses: []int{12}, RequiredPlanets: []models.Planet{models.Saturn, models.Mercury},
	},
	"property_purchase": {
		EventType: "property_purchase", RequiredHouses: []int{4}, SupportingHouses: []int{2, 11},
		BlockingHouses: []int{8, 12}, RequiredPlanets: []models.Planet{models.Mars, models.Venus},
	},
	"wealth_gain": {
		EventType: "wealth_gain", RequiredHouses: []int{2, 11}, SupportingHouses: []int{5, 9},
		BlockingHouses: []int{12}, RequiredPlanets: []models.Planet{models.Jupiter, models.Venus},
	},
	"foreign_travel": {
		EventType: "foreign_travel", RequiredHouses: []int{9, 12}, SupportingHouses: []int{3, 7},
		BlockingHouses: []int{4}, RequiredPlanets: []models.Planet{models.Rahu},
	},
	"higher_education": {
		EventType: "higher_education", RequiredHouses: []int{9}, SupportingHouses: []int{4, 5},
		BlockingHouses: []int{8}, RequiredPlanets: []models.Planet{models.Jupiter, models.Mercury},
	},
	"education_milestone": {
		EventType: "education_milestone", RequiredHouses: []int{4, 5}, SupportingHouses: []int{2, 9},
		BlockingHouses: []int{8}, RequiredPlanets: []models.Planet{models.Mercury, models.Jupiter},
	},
	"health_issue": {
		EventType: "health_issue", RequiredHouses: []int{6}, SupportingHouses: []int{1, 8, 12},
		BlockingHouses: []int{11}, RequiredPlanets: []models.Planet{models.Saturn, models.Mars},
	},
	"litigation": {
		EventType: "litigation", RequiredHouses: []int{6}, SupportingHouses: []int{8, 12},
		RequiredPlanets: []models.Planet{models.Mars, models.Saturn},
	},
	"business_partnership": {
		EventType: "business_partnership", RequiredHouses: []int{7}, SupportingHouses: []int{10, 11},
		BlockingHouses: []int{6}, RequiredPlanets: []models.Planet{models.Mercury, models.Venus},
	},
	"inheritance": {
		EventType: "inheritance", RequiredHouses: []int{8}, SupportingHouses: []int{2, 4},
		RequiredPlanets: []models.Planet{models.Saturn, models.Jupiter},
	},
	"spiritual_growth": {
		EventType: "spiritual_growth", RequiredHouses: []int{9, 12}, SupportingHouses: []int{5},
		RequiredPlanets: []models.Planet{models.Jupiter, models.Ketu},
	},
}

// RuleFor returns the event rule of an event type, if one is tabulated.
func RuleFor(eventType string) (EventRule, bool) {
	r, ok := eventRules[eventType]
	return r, ok
}

// Stage is a life-stage bucket used for age appropriateness.
type Stage struct {
	Name       string   `json:"name"`
	MinAge     int      `json:"min_age"`
	MaxAge     int      `json:"max_age"`
	Houses     []int    `json:"emphasised_houses"`
	Priorities []string `json:"priorities"`
	Suppressed []string `json:"suppressed"`
}

var stages = []Stage{
	{
		Name:       "student",
		MinAge:     0,
		MaxAge:     22,
		Houses:     []int{3, 4, 5, 9},
		Priorities: []string{"education_milestone", "higher_education", "short_travel", "personal_growth", "creative_success", "romance"},
		Suppressed: []string{"childbirth", "business_partnership"},
	},
	{
		Name:       "young_professional",
		MinAge:     23,
		MaxAge:     35,
		Houses:     []int{2, 3, 6, 10, 11},
		Priorities: []string{"marriage", "career_change", "job_change", "promotion", "childbirth", "wealth_gain", "property_purchase", "foreign_travel", "higher_education"},
	},
	{
		Name:       "established",
		MinAge:     36,
		MaxAge:     55,
		Houses:     []int{2, 4, 5, 10, 11},
		Priorities: []string{"promotion", "career_milestone", "property_purchase", "wealth_gain", "income_increase", "childbirth", "business_partnership", "recognition", "health_issue"},
		Suppressed: []string{"education_milestone", "romance"},
	},
	{
		Name:       "senior",
		MinAge:     56,
		MaxAge:     200,
		Houses:     []int{4, 6, 8, 9, 12},
		Priorities: []string{"health_issue", "health_improvement", "spiritual_growth", "inheritance", "property_purchase", "foreign_travel", "recognition", "hospitalization"},
		Suppressed: []string{"childbirth", "education_milestone", "romance", "marriage"},
	},
}

// StageFor returns the life stage of an age in completed years.
func StageFor(age int) Stage {
	for _, s := range stages {
		if age >= s.MinAge && age <= s.MaxAge {
			return s
		}
	}
	if age < 0 {
		return stages[0]
	}
	return stages[len(stages)-1]
}

// Stages returns all life stages in age order.
func Stages() []Stage {
	return append([]Stage(nil), stages...)
}

// Emphasises reports whether the stage emphasises house h.
func (s Stage) Emphasises(h int) bool {
	return slices.Contains(s.Houses, h)
}

// Suppresses reports whether the stage suppresses an event type.
func (s Stage) Suppresses(eventType string) bool {
	return slices.Contains(s.Suppressed, eventType)
}

// EventTypeFor picks the event tag of house h for a stage: the first
// signification present in the stage priorities, else the first signification
// not suppressed. ok is false when the stage suppresses every signification.
func EventTypeFor(h int, stage Stage) (string, bool) {
	sigs := Significations(h)
	for _, sig := range sigs {
		if stage.Suppresses(sig) {
			continue
		}
		if slices.Contains(stage.Priorities, sig) {
			return sig, true
		}
	}
	for _, sig := range sigs {
		if !stage.Suppresses(sig) {
			return sig, true
		}
	}
	return "", false
}

// HouseSignification is one row of the introspection table.
type HouseSignification struct {
	House          int      `json:"house"`
	Significations []string `json:"significations"`
	NaturalKarakas []string `json:"natural_karakas"`
}

// SignificationTable returns the full house table for display.
func SignificationTable() []HouseSignification {
	out := make([]HouseSignification, 0, 12)
	for h := 1; h <= 12; h++ {
		karakas := NaturalKarakas(h)
		names := make([]string, 0, len(karakas))
		for _, k := range karakas {
			names = append(names, string(k))
		}
		out = append(out, HouseSignification{
			House:          h,
			Significations: append([]string(nil), Significations(h)...),
			NaturalKarakas: names,
		})
	}
	return out
}
