package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBirth_AgeAtAcrossLeapDay(t *testing.T) {
	b := Birth{Date: "2001-03-01", Time: "12:00", Latitude: 1, Longitude: 1, Timezone: "UTC"}

	assert.Equal(t, 22, b.AgeAt(time.Date(2024, 2, 29, 12, 0, 0, 0, time.UTC)))
	assert.Equal(t, 23, b.AgeAt(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)))
	assert.Equal(t, 22, b.AgeAt(time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)))

	leap := Birth{Date: "2000-02-29", Time: "12:00", Latitude: 1, Longitude: 1, Timezone: "UTC"}
	assert.Equal(t, 22, leap.AgeAt(time.Date(2023, 2, 28, 12, 0, 0, 0, time.UTC)))
	assert.Equal(t, 23, leap.AgeAt(time.Date(2023, 3, 1, 12, 0, 0, 0, time.UTC)))
	assert.Equal(t, 0, leap.AgeAt(time.Date(1999, 1, 1, 0, 0, 0, 0, time.UTC)))
}

func TestChart_OccupantsFallsBackToLongitude(t *testing.T) {
	c := Chart{
		Ascendant: 15,
		Planets: map[Planet]PlanetPosition{
			Jupiter: {Longitude: 100},
			Saturn:  {Longitude: 286, House: 10},
		},
	}

	assert.Equal(t, []Planet{Jupiter}, c.Occupants(4))
	assert.Equal(t, []Planet{Saturn}, c.Occupants(10))
	assert.Empty(t, c.Occupants(1))
	assert.Equal(t, 4, c.HouseOf(c.Planets[Jupiter]))
}
