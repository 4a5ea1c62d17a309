package rules

import "Horacle/internal/domain/models"

var specialAspects = map[models.Planet][]int{
	models.Mars:    {4, 8},
	models.Jupiter: {5, 9},
	models.Rahu:    {5, 9},
	models.Ketu:    {5, 9},
	models.Saturn:  {3, 10},
}

// Aspects returns the house counts p casts aspects on, ascending. Every planet
// has the 7th.
func Aspects(p models.Planet) []int {
	special := specialAspects[p]
	out := make([]int, 0, len(special)+1)
	seven := false
	for _, n := range special {
		if n > 7 && !seven {
			out = append(out, 7)
			seven = true
		}
		out = append(out, n)
	}
	if !seven {
		out = append(out, 7)
	}
	return out
}

// AspectTarget is the house reached by an Nth aspect cast from house.
func AspectTarget(from, n int) int {
	return models.NormHouse(from + n - 1)
}

// AspectOn returns the aspect count with which a planet in house from reaches
// house to, or 0 when it does not.
func AspectOn(p models.Planet, from, to int) int {
	for _, n := range Aspects(p) {
		if AspectTarget(from, n) == models.NormHouse(to) {
			return n
		}
	}
	return 0
}
