package models

import "time"

// KarakaRole is one of the seven Chara Karaka roles.
type KarakaRole string

const (
	Atmakaraka    KarakaRole = "Atmakaraka"
	Amatyakaraka  KarakaRole = "Amatyakaraka"
	Bhratrukaraka KarakaRole = "Bhratrukaraka"
	Matrukaraka   KarakaRole = "Matrukaraka"
	Putrakaraka   KarakaRole = "Putrakaraka"
	Gnatikaraka   KarakaRole = "Gnatikaraka"
	Darakaraka    KarakaRole = "Darakaraka"
)

// KarakaRoles lists roles from highest degree-in-sign to lowest.
var KarakaRoles = []KarakaRole{
	Atmakaraka, Amatyakaraka, Bhratrukaraka, Matrukaraka, Putrakaraka, Gnatikaraka, Darakaraka,
}

// CharaKaraka is the planet holding a role in a given chart.
type CharaKaraka struct {
	Planet    Planet  `json:"planet"`
	Sign      int     `json:"sign"`
	House     int     `json:"house"`
	Longitude float64 `json:"longitude"`
}

// CharaDashaPeriod is a sign period of the Jaimini Chara Dasha.
type CharaDashaPeriod struct {
	Sign        int                `json:"sign"`
	Start       time.Time          `json:"start"`
	End         time.Time          `json:"end"`
	IsCurrent   bool               `json:"is_current"`
	Antardashas []CharaDashaPeriod `json:"antardashas,omitempty"`
}

// Contains reports whether at falls in [Start, End).
func (p CharaDashaPeriod) Contains(at time.Time) bool {
	return !at.Before(p.Start) && at.Before(p.End)
}

// Argala is the net intervention on a house.
type Argala struct {
	NetStrength float64 `json:"net_argala_strength"`
	Grade       string  `json:"argala_grade"`
}

// SpecialPoints are the Jaimini projective lagnas.
type SpecialPoints struct {
	ArudhaLagna    int `json:"arudha_lagna"`
	UpapadaLagna   int `json:"upapada_lagna"`
	KarakamsaLagna int `json:"karakamsa_lagna"`
}

// JaiminiData bundles everything the Jaimini gate needs for one request.
type JaiminiData struct {
	Karakas       map[KarakaRole]CharaKaraka `json:"karakas"`
	Periods       []CharaDashaPeriod         `json:"periods"`
	Argala        map[int]Argala             `json:"argala"`
	SpecialPoints SpecialPoints              `json:"special_points"`
}

// JaiminiConfidence classifies a Jaimini score.
type JaiminiConfidence string

const (
	JaiminiVeryHigh    JaiminiConfidence = "very_high"
	JaiminiHigh        JaiminiConfidence = "high"
	JaiminiModerate    JaiminiConfidence = "moderate"
	JaiminiLow         JaiminiConfidence = "low"
	JaiminiConflicting JaiminiConfidence = "conflicting"
)

// SpecialActivation is a side-channel Jaimini lagna hit.
type SpecialActivation struct {
	Kind  string `json:"kind"`
	Lagna string `json:"lagna"`
	Sign  int    `json:"sign"`
}

// JaiminiValidation is the Jaimini snapshot attached to an event.
type JaiminiValidation struct {
	Score                 int                 `json:"score"`
	Confidence            JaiminiConfidence   `json:"confidence"`
	MDSign                *int                `json:"md_sign,omitempty"`
	ADSign                *int                `json:"ad_sign,omitempty"`
	Reasons               []string            `json:"reasons"`
	Activations           []SpecialActivation `json:"special_activations,omitempty"`
	ProbabilityAdjustment int                 `json:"probability_adjustment"`
}
