package models

// Dignity is the dignity label of a planet in its sign.
type Dignity string

const (
	Exalted     Dignity = "exalted"
	OwnSign     Dignity = "own"
	FriendSign  Dignity = "friend"
	Neutral     Dignity = "neutral"
	EnemySign   Dignity = "enemy"
	Debilitated Dignity = "debilitated"
)

// FunctionalNature classifies a planet for the ascendant.
type FunctionalNature string

const (
	FunctionalBenefic FunctionalNature = "benefic"
	FunctionalNeutral FunctionalNature = "neutral"
	FunctionalMalefic FunctionalNature = "malefic"
)

// FunctionalBenefics lists functional benefics and malefics for a chart.
type FunctionalBenefics struct {
	Benefics []Planet `json:"benefics"`
	Malefics []Planet `json:"malefics"`
}

// Nature returns the functional nature of p.
func (f FunctionalBenefics) Nature(p Planet) FunctionalNature {
	for _, b := range f.Benefics {
		if b == p {
			return FunctionalBenefic
		}
	}
	for _, m := range f.Malefics {
		if m == p {
			return FunctionalMalefic
		}
	}
	return FunctionalNeutral
}

// Bhinnashtakavarga maps planet -> sign -> contributor -> 0/1. Contributors are
// planet names or "Ascendant".
type Bhinnashtakavarga map[Planet]map[int]map[string]int

// Contributed reports whether contributor gave planet a bindu in sign.
func (b Bhinnashtakavarga) Contributed(planet Planet, sign int, contributor string) bool {
	signs, ok := b[planet]
	if !ok {
		return false
	}
	c, ok := signs[NormSign(sign)]
	if !ok {
		return false
	}
	return c[contributor] > 0
}

// StrengthTables are the optional strength inputs. A nil map means the
// collaborator did not supply that table.
type StrengthTables struct {
	Shadbala          map[Planet]float64
	Sarvashtakavarga  map[int]int
	Bhinnashtakavarga Bhinnashtakavarga
	Dignity           map[Planet]Dignity
	Functional        *FunctionalBenefics
}

// HasShadbala reports whether Shadbala rupas were supplied.
func (t *StrengthTables) HasShadbala() bool { return t != nil && t.Shadbala != nil }

// HasAshtakavarga reports whether Sarvashtakavarga bindus were supplied.
func (t *StrengthTables) HasAshtakavarga() bool { return t != nil && t.Sarvashtakavarga != nil }

// Validated reports whether both capacity tables were supplied.
func (t *StrengthTables) Validated() bool { return t.HasShadbala() && t.HasAshtakavarga() }

// Rupas returns the Shadbala total for p.
func (t *StrengthTables) Rupas(p Planet) (float64, bool) {
	if !t.HasShadbala() {
		return 0, false
	}
	v, ok := t.Shadbala[p]
	return v, ok
}

// Bindus returns the Sarvashtakavarga bindus of sign.
func (t *StrengthTables) Bindus(sign int) (int, bool) {
	if !t.HasAshtakavarga() {
		return 0, false
	}
	v, ok := t.Sarvashtakavarga[NormSign(sign)]
	return v, ok
}
