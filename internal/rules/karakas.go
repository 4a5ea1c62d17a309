package rules

import "Horacle/internal/domain/models"

var naturalKarakas = [12][]models.Planet{
	{models.Sun, models.Mars},
	{models.Jupiter, models.Mercury},
	{models.Mars, models.Mercury},
	{models.Moon, models.Venus, models.Mercury},
	{models.Jupiter},
	{models.Mars, models.Saturn},
	{models.Venus},
	{models.Saturn},
	{models.Jupiter, models.Sun},
	{models.Sun, models.Mercury, models.Jupiter, models.Saturn},
	{models.Jupiter},
	{models.Saturn, models.Ketu},
}

// NaturalKarakas returns the fixed significators of house h.
func NaturalKarakas(h int) []models.Planet {
	return naturalKarakas[models.NormHouse(h)-1]
}

// IsNaturalKaraka reports whether p signifies house h.
func IsNaturalKaraka(p models.Planet, h int) bool {
	for _, k := range NaturalKarakas(h) {
		if k == p {
			return true
		}
	}
	return false
}

var houseKarakaRoles = [12]models.KarakaRole{
	models.Atmakaraka,
	models.Putrakaraka,
	models.Bhratrukaraka,
	models.Matrukaraka,
	models.Putrakaraka,
	models.Gnatikaraka,
	models.Darakaraka,
	models.Gnatikaraka,
	models.Atmakaraka,
	models.Amatyakaraka,
	models.Putrakaraka,
	models.Gnatikaraka,
}

// RelevantKarakas returns the Chara Karaka roles relevant to house h.
func RelevantKarakas(h int) []models.KarakaRole {
	return []models.KarakaRole{houseKarakaRoles[models.NormHouse(h)-1]}
}

// Ascendant is the non-planet contributor name used in Ashtakavarga tables.
const Ascendant = "Ascendant"

// KakshyaSpan is one eighth of a sign.
const KakshyaSpan = models.SignSpan / 8

var kakshyaRulers = [8]string{
	string(models.Saturn), string(models.Jupiter), string(models.Mars), string(models.Sun),
	string(models.Venus), string(models.Mercury), string(models.Moon), Ascendant,
}

// KakshyaIndex returns the kakshya 0..7 a longitude falls in.
func KakshyaIndex(longitude float64) int {
	i := int(models.DegreeInSign(longitude) / KakshyaSpan)
	if i > 7 {
		i = 7
	}
	return i
}

// KakshyaRuler returns the contributor ruling the kakshya of longitude.
func KakshyaRuler(longitude float64) string {
	return kakshyaRulers[KakshyaIndex(longitude)]
}
