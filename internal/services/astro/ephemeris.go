// Package astro adapts the external ephemeris service to the astronomy
// collaborator interfaces.
package astro

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"Horacle/internal/domain/models"
	domsvc "Horacle/internal/domain/service"
	"Horacle/internal/service/cache"
	svcmetrics "Horacle/internal/service/metrics"
	xhttp "Horacle/pkg/http"
	"Horacle/pkg/logger"
)

const (
	pathChart       = "/v1/chart"
	pathD9          = "/v1/chart/d9"
	pathDashas      = "/v1/dashas"
	pathTransits    = "/v1/transits"
	pathKarakas     = "/v1/jaimini/karakas"
	pathCharaDasha  = "/v1/jaimini/chara-dasha"
	pathArgala      = "/v1/jaimini/argala"
	pathSpecial     = "/v1/jaimini/special-points"
	pathShadbala    = "/v1/strength/shadbala"
	pathSarva       = "/v1/strength/sarvashtakavarga"
	pathBhinna      = "/v1/strength/bhinnashtakavarga"
	pathDignity     = "/v1/strength/dignity"
	pathFunctional  = "/v1/strength/functional"
	transitMemoTTL  = 30 * 24 * time.Hour
	defaultAttempts = 3
)

// Option configures HTTPEphemeris.
type Option func(*HTTPEphemeris)

// WithRetries sets the attempts per call.
func WithRetries(n int) Option {
	return func(e *HTTPEphemeris) {
		if n > 0 {
			e.attempts = n
		}
	}
}

// WithMemo memoizes transit snapshots. Positions for an instant never change,
// so entries may be shared across requests and replicas.
func WithMemo(c cache.BytesCache) Option {
	return func(e *HTTPEphemeris) { e.memo = c }
}

func WithLogger(l *logger.Logger) Option {
	return func(e *HTTPEphemeris) {
		if l != nil {
			e.log = l
		}
	}
}

// HTTPEphemeris implements Ephemeris, JaiminiProvider and StrengthProvider
// over JSON/HTTP.
type HTTPEphemeris struct {
	base     *HTTPServiceBase
	attempts int
	memo     cache.BytesCache
	log      *logger.Logger
}

var (
	_ domsvc.Ephemeris        = (*HTTPEphemeris)(nil)
	_ domsvc.JaiminiProvider  = (*HTTPEphemeris)(nil)
	_ domsvc.StrengthProvider = (*HTTPEphemeris)(nil)
)

// NewHTTPEphemeris builds the adapter on top of base.
func NewHTTPEphemeris(base *HTTPServiceBase, opts ...Option) *HTTPEphemeris {
	e := &HTTPEphemeris{
		base:     base,
		attempts: defaultAttempts,
		memo:     cache.NewTTLCache(),
		log:      logger.Nop(),
	}
	for _, o := range opts {
		o(e)
	}
	e.log = e.log.With(logger.String("component", "ephemeris"))
	return e
}

// New builds the adapter from connection settings.
func New(baseURL string, timeout time.Duration, bs BreakerSettings, opts ...Option) *HTTPEphemeris {
	return NewHTTPEphemeris(NewHTTPServiceBase(baseURL, timeout, bs), opts...)
}

func (e *HTTPEphemeris) post(ctx context.Context, path string, payload, dest interface{}) error {
	return e.base.PostJSONWithRetry(ctx, path, payload, dest, e.attempts)
}

type chartRequest struct {
	Chart models.Chart `json:"chart"`
}

type birthRequest struct {
	Birth models.Birth `json:"birth"`
}

func (e *HTTPEphemeris) ComputeChart(ctx context.Context, birth models.Birth) (models.Chart, error) {
	var c models.Chart
	if err := e.post(ctx, pathChart, birthRequest{Birth: birth}, &c); err != nil {
		return models.Chart{}, err
	}
	if len(c.Planets) == 0 {
		return models.Chart{}, fmt.Errorf("chart: empty planet table")
	}
	return c, nil
}

func (e *HTTPEphemeris) ComputeD9(ctx context.Context, chart models.Chart) (models.Chart, error) {
	var c models.Chart
	err := e.post(ctx, pathD9, chartRequest{Chart: chart}, &c)
	return c, err
}

func (e *HTTPEphemeris) CurrentDashas(ctx context.Context, birth models.Birth, date time.Time) (models.DashaStack, error) {
	var s models.DashaStack
	err := e.post(ctx, pathDashas, struct {
		Birth models.Birth `json:"birth"`
		Date  time.Time    `json:"date"`
	}{birth, date.UTC()}, &s)
	if err != nil {
		return models.DashaStack{}, err
	}
	if s.Empty() {
		return s, models.ErrNoDasha
	}
	return s, nil
}

// TransitPosition is one slow planet in a transit snapshot.
type TransitPosition struct {
	Longitude  float64 `json:"longitude"`
	Retrograde bool    `json:"retrograde"`
}

type transitResponse struct {
	Positions map[models.Planet]TransitPosition `json:"positions"`
}

// Transits returns the sky at date, served from the memo when possible.
func (e *HTTPEphemeris) Transits(ctx context.Context, date time.Time) (map[models.Planet]TransitPosition, error) {
	key := "transits:" + date.UTC().Format(time.RFC3339)
	if b, ok, err := e.memo.GetBytes(ctx, key); err == nil && ok {
		var tr transitResponse
		if err := json.Unmarshal(b, &tr); err == nil {
			svcmetrics.EphemerisMemoHits.WithLabelValues(pathTransits).Inc()
			return tr.Positions, nil
		}
	} else if err != nil {
		e.log.Debug("transit memo read failed", logger.Error(err))
	}

	var tr transitResponse
	err := e.post(ctx, pathTransits, struct {
		Date    time.Time       `json:"date"`
		Planets []models.Planet `json:"planets"`
	}{date.UTC(), models.SlowPlanets}, &tr)
	if err != nil {
		return nil, err
	}
	if b, err := json.Marshal(tr); err == nil {
		if err := e.memo.SetBytes(ctx, key, b, transitMemoTTL); err != nil {
			e.log.Debug("transit memo write failed", logger.Error(err))
		}
	}
	return tr.Positions, nil
}

func (e *HTTPEphemeris) transit(ctx context.Context, planet models.Planet, date time.Time) (TransitPosition, error) {
	pos, err := e.Transits(ctx, date)
	if err != nil {
		return TransitPosition{}, err
	}
	p, ok := pos[planet]
	if !ok {
		return TransitPosition{}, fmt.Errorf("transit %s missing on %s", planet, date.Format(time.DateOnly))
	}
	return p, nil
}

func (e *HTTPEphemeris) TransitLongitude(ctx context.Context, planet models.Planet, date time.Time) (float64, error) {
	p, err := e.transit(ctx, planet, date)
	return models.NormDegrees(p.Longitude), err
}

func (e *HTTPEphemeris) IsRetrograde(ctx context.Context, planet models.Planet, date time.Time) (bool, error) {
	p, err := e.transit(ctx, planet, date)
	return p.Retrograde, err
}

func (e *HTTPEphemeris) CharaKarakas(ctx context.Context, chart models.Chart) (map[models.KarakaRole]models.CharaKaraka, error) {
	var out map[models.KarakaRole]models.CharaKaraka
	err := e.post(ctx, pathKarakas, chartRequest{Chart: chart}, &out)
	return out, err
}

func (e *HTTPEphemeris) CharaDashaPeriods(ctx context.Context, chart models.Chart, birth models.Birth) ([]models.CharaDashaPeriod, error) {
	var out []models.CharaDashaPeriod
	err := e.post(ctx, pathCharaDasha, struct {
		Chart models.Chart `json:"chart"`
		Birth models.Birth `json:"birth"`
	}{chart, birth}, &out)
	return out, err
}

func (e *HTTPEphemeris) Argala(ctx context.Context, chart models.Chart) (map[int]models.Argala, error) {
	var out map[int]models.Argala
	err := e.post(ctx, pathArgala, chartRequest{Chart: chart}, &out)
	return out, err
}

func (e *HTTPEphemeris) SpecialPoints(ctx context.Context, chart, d9 models.Chart, atmakaraka models.Planet) (models.SpecialPoints, error) {
	var out models.SpecialPoints
	err := e.post(ctx, pathSpecial, struct {
		Chart      models.Chart  `json:"chart"`
		D9         models.Chart  `json:"d9"`
		Atmakaraka models.Planet `json:"atmakaraka"`
	}{chart, d9, atmakaraka}, &out)
	return out, err
}

type shadbalaEntry struct {
	TotalStrength float64 `json:"total_strength"`
}

// Shadbala returns each planet's total strength in rupas.
func (e *HTTPEphemeris) Shadbala(ctx context.Context, chart models.Chart) (map[models.Planet]float64, error) {
	var raw map[models.Planet]shadbalaEntry
	if err := e.post(ctx, pathShadbala, chartRequest{Chart: chart}, &raw); err != nil {
		return nil, err
	}
	out := make(map[models.Planet]float64, len(raw))
	for p, v := range raw {
		out[p] = v.TotalStrength
	}
	return out, nil
}

func (e *HTTPEphemeris) Sarvashtakavarga(ctx context.Context, chart models.Chart) (map[int]int, error) {
	var out map[int]int
	err := e.post(ctx, pathSarva, chartRequest{Chart: chart}, &out)
	return out, err
}

func (e *HTTPEphemeris) Bhinnashtakavarga(ctx context.Context, chart models.Chart) (models.Bhinnashtakavarga, error) {
	var out models.Bhinnashtakavarga
	err := e.post(ctx, pathBhinna, chartRequest{Chart: chart}, &out)
	return out, err
}

func (e *HTTPEphemeris) PlanetaryDignity(ctx context.Context, chart models.Chart) (map[models.Planet]models.Dignity, error) {
	var out map[models.Planet]models.Dignity
	err := e.post(ctx, pathDignity, chartRequest{Chart: chart}, &out)
	return out, err
}

func (e *HTTPEphemeris) FunctionalBenefics(ctx context.Context, chart models.Chart) (models.FunctionalBenefics, error) {
	var out models.FunctionalBenefics
	err := e.post(ctx, pathFunctional, chartRequest{Chart: chart}, &out)
	return out, err
}

// Health probes the service with the breaker bypassed.
func (e *HTTPEphemeris) Health(ctx context.Context) error {
	return e.base.client.Do(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    e.base.baseURL + "/healthz",
	}, nil)
}
