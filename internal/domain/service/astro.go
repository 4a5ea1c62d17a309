package service

import (
	"context"
	"time"

	"Horacle/internal/domain/models"
)

// Ephemeris is the astronomy collaborator. It is required.
type Ephemeris interface {
	ComputeChart(ctx context.Context, birth models.Birth) (models.Chart, error)
	ComputeD9(ctx context.Context, chart models.Chart) (models.Chart, error)
	CurrentDashas(ctx context.Context, birth models.Birth, date time.Time) (models.DashaStack, error)
	TransitLongitude(ctx context.Context, planet models.Planet, date time.Time) (float64, error)
	IsRetrograde(ctx context.Context, planet models.Planet, date time.Time) (bool, error)
}

// JaiminiProvider supplies the Jaimini layer. Optional: a nil provider or any
// failure disables Jaimini validation for the request.
type JaiminiProvider interface {
	CharaKarakas(ctx context.Context, chart models.Chart) (map[models.KarakaRole]models.CharaKaraka, error)
	CharaDashaPeriods(ctx context.Context, chart models.Chart, birth models.Birth) ([]models.CharaDashaPeriod, error)
	Argala(ctx context.Context, chart models.Chart) (map[int]models.Argala, error)
	SpecialPoints(ctx context.Context, chart, d9 models.Chart, atmakaraka models.Planet) (models.SpecialPoints, error)
}

// StrengthProvider supplies strength tables. Optional: each missing table
// degrades scoring independently.
type StrengthProvider interface {
	Shadbala(ctx context.Context, chart models.Chart) (map[models.Planet]float64, error)
	Sarvashtakavarga(ctx context.Context, chart models.Chart) (map[int]int, error)
	Bhinnashtakavarga(ctx context.Context, chart models.Chart) (models.Bhinnashtakavarga, error)
	PlanetaryDignity(ctx context.Context, chart models.Chart) (map[models.Planet]models.Dignity, error)
	FunctionalBenefics(ctx context.Context, chart models.Chart) (models.FunctionalBenefics, error)
}
