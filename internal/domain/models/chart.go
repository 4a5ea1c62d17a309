package models

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Planet names one of the nine grahas used by the core.
type Planet string

const (
	Sun     Planet = "Sun"
	Moon    Planet = "Moon"
	Mars    Planet = "Mars"
	Mercury Planet = "Mercury"
	Jupiter Planet = "Jupiter"
	Venus   Planet = "Venus"
	Saturn  Planet = "Saturn"
	Rahu    Planet = "Rahu"
	Ketu    Planet = "Ketu"
)

// Planets lists the grahas in traditional order.
var Planets = []Planet{Sun, Moon, Mars, Mercury, Jupiter, Venus, Saturn, Rahu, Ketu}

// SlowPlanets are the transiting planets that can trigger events.
var SlowPlanets = []Planet{Jupiter, Saturn, Rahu, Ketu}

// IsNode reports whether p is Rahu or Ketu.
func (p Planet) IsNode() bool { return p == Rahu || p == Ketu }

// Valid reports whether p is a known graha.
func (p Planet) Valid() bool {
	for _, q := range Planets {
		if p == q {
			return true
		}
	}
	return false
}

const (
	SignSpan      = 30.0
	NakshatraSpan = 360.0 / 27.0
	PadaSpan      = NakshatraSpan / 4.0
)

var signNames = [12]string{
	"Aries", "Taurus", "Gemini", "Cancer", "Leo", "Virgo",
	"Libra", "Scorpio", "Sagittarius", "Capricorn", "Aquarius", "Pisces",
}

// SignName returns the English name of sign index 0..11.
func SignName(sign int) string {
	return signNames[NormSign(sign)]
}

// PlanetPosition is one natal or transit placement.
type PlanetPosition struct {
	Longitude  float64 `json:"longitude"`
	Sign       int     `json:"sign"`
	House      int     `json:"house"`
	Nakshatra  int     `json:"nakshatra"`
	Pada       int     `json:"pada"`
	Retrograde bool    `json:"retrograde"`
}

// DegreeInSign is the longitude within the occupied sign, in [0,30).
func (p PlanetPosition) DegreeInSign() float64 {
	return DegreeInSign(p.Longitude)
}

// HouseInfo carries the sign on a house and its ruling planet.
type HouseInfo struct {
	Sign int    `json:"sign"`
	Lord Planet `json:"lord"`
}

// Chart is the natal chart produced by the ephemeris collaborator.
type Chart struct {
	Ascendant float64                   `json:"ascendant"`
	Planets   map[Planet]PlanetPosition `json:"planets"`
	Houses    [12]HouseInfo             `json:"houses"`
}

// AscendantSign returns the rising sign index.
func (c Chart) AscendantSign() int { return SignOf(c.Ascendant) }

// House returns house h (1..12).
func (c Chart) House(h int) HouseInfo { return c.Houses[NormHouse(h)-1] }

// Position returns the placement of p and whether the chart has it.
func (c Chart) Position(p Planet) (PlanetPosition, bool) {
	pos, ok := c.Planets[p]
	return pos, ok
}

// HouseOf returns the house of a placement, deriving it from the longitude
// when the collaborator left it out.
func (c Chart) HouseOf(pos PlanetPosition) int {
	if pos.House >= 1 && pos.House <= 12 {
		return pos.House
	}
	return HouseFromLongitude(pos.Longitude, c.Ascendant)
}

// Occupants lists planets placed in house h, in traditional order.
func (c Chart) Occupants(h int) []Planet {
	var out []Planet
	for _, p := range Planets {
		if pos, ok := c.Planets[p]; ok && c.HouseOf(pos) == h {
			out = append(out, p)
		}
	}
	return out
}

// Cusp returns the whole-sign cusp longitude of house h: ascendant + (h-1)*30.
func (c Chart) Cusp(h int) float64 {
	return NormDegrees(c.Ascendant + float64(NormHouse(h)-1)*SignSpan)
}

// Birth holds the birth coordinates of a person.
type Birth struct {
	Date      string  `json:"date" validate:"required,datetime=2006-01-02"`
	Time      string  `json:"time" validate:"required,datetime=15:04"`
	Latitude  float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64 `json:"longitude" validate:"gte=-180,lte=180"`
	Timezone  string  `json:"timezone" validate:"required"`
}

// Moment resolves the birth instant in its timezone. Timezone is either an
// IANA name or a fixed offset such as "+05:30".
func (b Birth) Moment() (time.Time, error) {
	loc, err := b.location()
	if err != nil {
		return time.Time{}, err
	}
	t, err := time.ParseInLocation("2006-01-02 15:04", b.Date+" "+b.Time, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse birth moment: %w", err)
	}
	return t, nil
}

func (b Birth) location() (*time.Location, error) {
	tz := strings.TrimSpace(b.Timezone)
	if tz == "" {
		return nil, fmt.Errorf("timezone required")
	}
	if tz[0] == '+' || tz[0] == '-' {
		t, err := time.Parse("-07:00", tz)
		if err != nil {
			return nil, fmt.Errorf("parse offset %q: %w", tz, err)
		}
		_, off := t.Zone()
		return time.FixedZone(tz, off), nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", tz, err)
	}
	return loc, nil
}

// AgeAt returns completed years between the birth date and at.
func (b Birth) AgeAt(at time.Time) int {
	born, err := b.Moment()
	if err != nil {
		return 0
	}
	at = at.In(born.Location())
	age := at.Year() - born.Year()
	if at.Month() < born.Month() || (at.Month() == born.Month() && at.Day() < born.Day()) {
		age--
	}
	if age < 0 {
		return 0
	}
	return age
}

// NormDegrees maps any angle into [0,360).
func NormDegrees(d float64) float64 {
	d = math.Mod(d, 360)
	if d < 0 {
		d += 360
	}
	return d
}

// DegreeInSign returns the offset of a longitude within its sign, in [0,30).
func DegreeInSign(longitude float64) float64 {
	return math.Mod(NormDegrees(longitude), SignSpan)
}

// NormSign maps any integer into 0..11.
func NormSign(s int) int {
	s %= 12
	if s < 0 {
		s += 12
	}
	return s
}

// NormHouse maps any integer into 1..12.
func NormHouse(h int) int {
	return NormSign(h-1) + 1
}

// SignOf returns the sign index of a longitude.
func SignOf(longitude float64) int {
	return int(NormDegrees(longitude)/SignSpan) % 12
}

// NakshatraOf returns the nakshatra index 0..26 of a longitude.
func NakshatraOf(longitude float64) int {
	return int(NormDegrees(longitude)/NakshatraSpan) % 27
}

// PadaOf returns the pada 1..4 of a longitude.
func PadaOf(longitude float64) int {
	within := math.Mod(NormDegrees(longitude), NakshatraSpan)
	return int(within/PadaSpan)%4 + 1
}

// HouseFromLongitude assigns a whole-sign house 1..12 from the ascendant.
func HouseFromLongitude(longitude, ascendant float64) int {
	return NormSign(SignOf(longitude)-SignOf(ascendant)) + 1
}

// ArcDistance is the shortest angular distance between two longitudes, in [0,180].
func ArcDistance(a, b float64) float64 {
	d := math.Abs(NormDegrees(a) - NormDegrees(b))
	if d > 180 {
		d = 360 - d
	}
	return d
}

// SignDistance counts signs forward from `from` to `to`, inclusive style:
// the same sign is 1, the next sign is 2.
func SignDistance(from, to int) int {
	return NormSign(to-from) + 1
}

// Position builds a full placement for a longitude given the ascendant.
func Position(longitude, ascendant float64, retrograde bool) PlanetPosition {
	return PlanetPosition{
		Longitude:  NormDegrees(longitude),
		Sign:       SignOf(longitude),
		House:      HouseFromLongitude(longitude, ascendant),
		Nakshatra:  NakshatraOf(longitude),
		Pada:       PadaOf(longitude),
		Retrograde: retrograde,
	}
}
