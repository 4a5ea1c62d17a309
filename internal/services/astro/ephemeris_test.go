package astro

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Horacle/internal/domain/models"
	"Horacle/internal/service/cache"
)

type fakeService struct {
	hits     map[string]*atomic.Int32
	failWith map[string]int
	failFor  int32
}

func newFakeService() *fakeService {
	f := &fakeService{hits: map[string]*atomic.Int32{}, failWith: map[string]int{}}
	for _, p := range []string{pathChart, pathTransits, pathDashas, pathArgala, pathSarva} {
		f.hits[p] = &atomic.Int32{}
	}
	return f
}

func (f *fakeService) count(path string) int32 { return f.hits[path].Load() }

func (f *fakeService) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	n := int32(0)
	if c, ok := f.hits[r.URL.Path]; ok {
		n = c.Add(1)
	}
	if code, ok := f.failWith[r.URL.Path]; ok && (f.failFor == 0 || n <= f.failFor) {
		http.Error(w, "nope", code)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	switch r.URL.Path {
	case pathChart:
		var req birthRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		_ = json.NewEncoder(w).Encode(models.Chart{
			Ascendant: 15,
			Planets: map[models.Planet]models.PlanetPosition{
				models.Saturn: models.Position(286, 15, false),
			},
		})
	case pathTransits:
		_ = json.NewEncoder(w).Encode(transitResponse{Positions: map[models.Planet]TransitPosition{
			models.Saturn: {Longitude: 365.5},
			models.Rahu:   {Longitude: 50, Retrograde: true},
		}})
	case pathDashas:
		_, _ = w.Write([]byte(`{}`))
	case pathArgala:
		_, _ = w.Write([]byte(`{"10":{"net_argala_strength":30,"argala_grade":"strong"}}`))
	case pathSarva:
		_, _ = w.Write([]byte(`{"0":29,"9":31}`))
	case pathShadbala:
		_, _ = w.Write([]byte(`{"Jupiter":{"total_strength":5.5},"Saturn":{"total_strength":3.2}}`))
	default:
		http.NotFound(w, r)
	}
}

func newTestEphemeris(t *testing.T, f *fakeService, bs BreakerSettings, opts ...Option) *HTTPEphemeris {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return New(srv.URL, time.Second, bs, opts...)
}

func TestHTTPEphemeris_TransitMemo(t *testing.T) {
	f := newFakeService()
	memo := cache.NewTTLCache()
	e := newTestEphemeris(t, f, BreakerSettings{}, WithMemo(memo))
	ctx := context.Background()
	date := time.Date(2025, 1, 8, 0, 0, 0, 0, time.UTC)

	lon, err := e.TransitLongitude(ctx, models.Saturn, date)
	require.NoError(t, err)
	assert.InDelta(t, 5.5, lon, 1e-9)

	retro, err := e.IsRetrograde(ctx, models.Rahu, date)
	require.NoError(t, err)
	assert.True(t, retro)

	assert.Equal(t, int32(1), f.count(pathTransits))
	assert.Equal(t, 1, memo.Len())

	_, err = e.TransitLongitude(ctx, models.Jupiter, date)
	assert.Error(t, err)
}

func TestHTTPEphemeris_RetriesServerErrors(t *testing.T) {
	f := newFakeService()
	f.failWith[pathChart] = http.StatusServiceUnavailable
	f.failFor = 2
	e := newTestEphemeris(t, f, BreakerSettings{}, WithRetries(3))

	chart, err := e.ComputeChart(context.Background(), models.Birth{Date: "1990-01-01"})
	require.NoError(t, err)
	assert.Contains(t, chart.Planets, models.Saturn)
	assert.Equal(t, int32(3), f.count(pathChart))
}

func TestHTTPEphemeris_ClientErrorsAreNotRetried(t *testing.T) {
	f := newFakeService()
	f.failWith[pathChart] = http.StatusBadRequest
	e := newTestEphemeris(t, f, BreakerSettings{Failures: 1, Cooldown: time.Minute}, WithRetries(3))

	_, err := e.ComputeChart(context.Background(), models.Birth{})
	require.Error(t, err)
	assert.Equal(t, int32(1), f.count(pathChart))
	assert.Equal(t, gobreaker.StateClosed, e.base.State())
}

func TestHTTPEphemeris_BreakerOpens(t *testing.T) {
	f := newFakeService()
	f.failWith[pathChart] = http.StatusBadGateway
	e := newTestEphemeris(t, f, BreakerSettings{Failures: 2, Cooldown: time.Minute}, WithRetries(1))
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := e.ComputeChart(ctx, models.Birth{})
		require.Error(t, err)
	}
	_, err := e.ComputeChart(ctx, models.Birth{})
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, int32(2), f.count(pathChart))
	assert.Equal(t, gobreaker.StateOpen, e.base.State())
}

func TestHTTPEphemeris_EmptyDashaStack(t *testing.T) {
	e := newTestEphemeris(t, newFakeService(), BreakerSettings{})
	_, err := e.CurrentDashas(context.Background(), models.Birth{}, time.Now())
	assert.ErrorIs(t, err, models.ErrNoDasha)
}

func TestHTTPEphemeris_IntKeyedTables(t *testing.T) {
	e := newTestEphemeris(t, newFakeService(), BreakerSettings{})
	ctx := context.Background()

	argala, err := e.Argala(ctx, models.Chart{})
	require.NoError(t, err)
	assert.Equal(t, 30.0, argala[10].NetStrength)

	sarva, err := e.Sarvashtakavarga(ctx, models.Chart{})
	require.NoError(t, err)
	assert.Equal(t, map[int]int{0: 29, 9: 31}, sarva)
}

func TestHTTPEphemeris_ShadbalaTotals(t *testing.T) {
	e := newTestEphemeris(t, newFakeService(), BreakerSettings{})

	rupas, err := e.Shadbala(context.Background(), models.Chart{})
	require.NoError(t, err)
	assert.Equal(t, map[models.Planet]float64{models.Jupiter: 5.5, models.Saturn: 3.2}, rupas)
}
