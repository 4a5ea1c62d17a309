// Package rules holds the immutable astrological tables shared by every request.
package rules

import "Horacle/internal/domain/models"

// Element groups signs by triplicity.
type Element string

const (
	Fire  Element = "fire"
	Earth Element = "earth"
	Air   Element = "air"
	Water Element = "water"
)

// Modality groups signs by quadruplicity.
type Modality string

const (
	Movable Modality = "movable"
	Fixed   Modality = "fixed"
	Dual    Modality = "dual"
)

var signLords = [12]models.Planet{
	models.Mars, models.Venus, models.Mercury, models.Moon, models.Sun, models.Mercury,
	models.Venus, models.Mars, models.Jupiter, models.Saturn, models.Saturn, models.Jupiter,
}

var elements = [4]Element{Fire, Earth, Air, Water}

var modalities = [3]Modality{Movable, Fixed, Dual}

// SignLord returns the ruler of sign 0..11.
func SignLord(sign int) models.Planet {
	return signLords[models.NormSign(sign)]
}

// ElementOf returns the element of a sign.
func ElementOf(sign int) Element {
	return elements[models.NormSign(sign)%4]
}

// ModalityOf returns the modality of a sign.
func ModalityOf(sign int) Modality {
	return modalities[models.NormSign(sign)%3]
}

// LordsOf lists the signs ruled by p.
func LordsOf(p models.Planet) []int {
	var out []int
	for s, l := range signLords {
		if l == p {
			out = append(out, s)
		}
	}
	return out
}

var rashiDrishti = buildRashiDrishti()

// buildRashiDrishti derives the sign-to-sign aspect table: movable signs aspect
// fixed signs except the adjacent one, fixed aspect movable except the adjacent
// one, dual signs aspect the other duals.
func buildRashiDrishti() [12][]int {
	var table [12][]int
	for from := 0; from < 12; from++ {
		fm := ModalityOf(from)
		for to := 0; to < 12; to++ {
			if to == from {
				continue
			}
			tm := ModalityOf(to)
			adjacent := models.NormSign(to-from) == 1 || models.NormSign(from-to) == 1
			switch {
			case fm == Movable && tm == Fixed && !adjacent:
				table[from] = append(table[from], to)
			case fm == Fixed && tm == Movable && !adjacent:
				table[from] = append(table[from], to)
			case fm == Dual && tm == Dual:
				table[from] = append(table[from], to)
			}
		}
	}
	return table
}

// RashiDrishti returns the signs aspected by sign. The slice is shared; do not modify.
func RashiDrishti(sign int) []int {
	return rashiDrishti[models.NormSign(sign)]
}

// SignAspects reports whether from aspects to by Rashi Drishti.
func SignAspects(from, to int) bool {
	for _, s := range RashiDrishti(from) {
		if s == models.NormSign(to) {
			return true
		}
	}
	return false
}

// RashiDrishtiTable returns a copy of the full table.
func RashiDrishtiTable() map[int][]int {
	out := make(map[int][]int, 12)
	for s := 0; s < 12; s++ {
		out[s] = append([]int(nil), rashiDrishti[s]...)
	}
	return out
}
