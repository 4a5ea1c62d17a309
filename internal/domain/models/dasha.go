package models

import "time"

// DashaLevel identifies a depth of the Vimshottari dasha stack.
type DashaLevel string

const (
	Mahadasha       DashaLevel = "MD"
	Antardasha      DashaLevel = "AD"
	Pratyantardasha DashaLevel = "PD"
)

// Weight is the authorization weight carried by a level.
func (l DashaLevel) Weight() float64 {
	switch l {
	case Mahadasha:
		return 100
	case Antardasha:
		return 70
	case Pratyantardasha:
		return 40
	}
	return 0
}

// DashaPeriod is a single period with its ruling planet.
type DashaPeriod struct {
	Planet Planet    `json:"planet"`
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
}

// DashaStack is the MD/AD/PD stack valid at some date. Any level may be nil.
type DashaStack struct {
	Mahadasha       *DashaPeriod `json:"mahadasha,omitempty"`
	Antardasha      *DashaPeriod `json:"antardasha,omitempty"`
	Pratyantardasha *DashaPeriod `json:"pratyantardasha,omitempty"`
}

// LevelPeriod pairs a level with its period.
type LevelPeriod struct {
	Level  DashaLevel
	Period DashaPeriod
}

// Levels returns the present levels, MD first.
func (s DashaStack) Levels() []LevelPeriod {
	out := make([]LevelPeriod, 0, 3)
	if s.Mahadasha != nil {
		out = append(out, LevelPeriod{Level: Mahadasha, Period: *s.Mahadasha})
	}
	if s.Antardasha != nil {
		out = append(out, LevelPeriod{Level: Antardasha, Period: *s.Antardasha})
	}
	if s.Pratyantardasha != nil {
		out = append(out, LevelPeriod{Level: Pratyantardasha, Period: *s.Pratyantardasha})
	}
	return out
}

// Empty reports whether no level is present.
func (s DashaStack) Empty() bool {
	return s.Mahadasha == nil && s.Antardasha == nil && s.Pratyantardasha == nil
}

// Rulers returns the ruling planets of the present levels.
func (s DashaStack) Rulers() []Planet {
	levels := s.Levels()
	out := make([]Planet, 0, len(levels))
	for _, lp := range levels {
		out = append(out, lp.Period.Planet)
	}
	return out
}
