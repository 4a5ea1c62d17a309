package gates

import (
	"fmt"
	"time"

	"Horacle/internal/domain/models"
	"Horacle/internal/rules"
)

const (
	jaiminiMDScore     = 50
	jaiminiADScore     = 30
	jaiminiKarakaScore = 40
)

// JaiminiConfidenceFor classifies a Jaimini score.
func JaiminiConfidenceFor(score int) models.JaiminiConfidence {
	switch {
	case score >= 80:
		return models.JaiminiVeryHigh
	case score >= 50:
		return models.JaiminiHigh
	case score >= 30:
		return models.JaiminiModerate
	case score >= 0:
		return models.JaiminiLow
	}
	return models.JaiminiConflicting
}

// JaiminiAdjustment is the probability shift a confidence class carries.
func JaiminiAdjustment(c models.JaiminiConfidence) int {
	switch c {
	case models.JaiminiVeryHigh:
		return 15
	case models.JaiminiHigh:
		return 10
	case models.JaiminiModerate:
		return 5
	case models.JaiminiConflicting:
		return -15
	}
	return 0
}

// JaiminiGate cross-checks a house against Chara Dasha, karakas and argala.
type JaiminiGate struct {
	data       models.JaiminiData
	houseSigns [12]int
}

// NewJaiminiGate binds the Jaimini data of one request to a natal chart.
func NewJaiminiGate(chart models.Chart, data models.JaiminiData) *JaiminiGate {
	g := &JaiminiGate{data: data}
	for h := 1; h <= 12; h++ {
		g.houseSigns[h-1], _ = houseSignAndLord(chart, h)
	}
	return g
}

// Validate scores house h at date.
func (g *JaiminiGate) Validate(h int, date time.Time) models.JaiminiValidation {
	hs := g.houseSigns[h-1]
	v := models.JaiminiValidation{Reasons: []string{}}

	md, ad := g.currentSigns(date)
	if md != nil {
		v.MDSign = md
		if reaches(*md, hs) {
			v.Score += jaiminiMDScore
			v.Reasons = append(v.Reasons, fmt.Sprintf("chara dasha MD %s reaches %s", models.SignName(*md), models.SignName(hs)))
		}
	}
	if ad != nil {
		v.ADSign = ad
		if reaches(*ad, hs) {
			v.Score += jaiminiADScore
			v.Reasons = append(v.Reasons, fmt.Sprintf("chara dasha AD %s reaches %s", models.SignName(*ad), models.SignName(hs)))
		}
	}

	for _, role := range rules.RelevantKarakas(h) {
		k, ok := g.data.Karakas[role]
		if !ok {
			continue
		}
		if k.House == h || reaches(k.Sign, hs) {
			v.Score += jaiminiKarakaScore
			v.Reasons = append(v.Reasons, fmt.Sprintf("%s %s linked to house %d", role, k.Planet, h))
			break
		}
	}

	if arg, ok := g.data.Argala[h]; ok {
		switch {
		case arg.NetStrength > 25:
			v.Score += 20
		case arg.NetStrength > 10:
			v.Score += 10
		case arg.NetStrength < -25:
			v.Score -= 20
		case arg.NetStrength < -10:
			v.Score -= 10
		}
		if arg.NetStrength > 10 || arg.NetStrength < -10 {
			v.Reasons = append(v.Reasons, fmt.Sprintf("net argala %.1f", arg.NetStrength))
		}
	}

	v.Confidence = JaiminiConfidenceFor(v.Score)
	v.ProbabilityAdjustment = JaiminiAdjustment(v.Confidence)
	v.Activations = g.activations(h, hs)
	return v
}

// currentSigns locates the Chara Dasha MD and AD signs running at date.
func (g *JaiminiGate) currentSigns(date time.Time) (*int, *int) {
	for _, p := range g.data.Periods {
		if !p.Contains(date) {
			continue
		}
		md := p.Sign
		for _, sub := range p.Antardashas {
			if sub.Contains(date) {
				ad := sub.Sign
				return &md, &ad
			}
		}
		return &md, nil
	}
	return nil, nil
}

// activations reports the side-channel lagna hits for house h.
func (g *JaiminiGate) activations(h, hs int) []models.SpecialActivation {
	sp := g.data.SpecialPoints
	var out []models.SpecialActivation
	switch h {
	case 2, 11:
		if d := models.SignDistance(sp.ArudhaLagna, hs); d == 2 || d == 11 {
			out = append(out, models.SpecialActivation{Kind: "wealth_flow", Lagna: "arudha", Sign: sp.ArudhaLagna})
		}
	case 7:
		if models.SignDistance(sp.UpapadaLagna, hs) == 2 {
			out = append(out, models.SpecialActivation{Kind: "marriage_timing", Lagna: "upapada", Sign: sp.UpapadaLagna})
		}
	case 10:
		if hs == sp.KarakamsaLagna {
			out = append(out, models.SpecialActivation{Kind: "career_destiny", Lagna: "karakamsa", Sign: sp.KarakamsaLagna})
		}
	}
	return out
}

func reaches(from, to int) bool {
	return from == to || rules.SignAspects(from, to)
}
