package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Horacle/internal/domain/models"
	pkgcache "Horacle/pkg/cache"
)

type countingEphemeris struct {
	*stubEphemeris
	mu     sync.Mutex
	charts int
}

func (c *countingEphemeris) ComputeChart(ctx context.Context, b models.Birth) (models.Chart, error) {
	c.mu.Lock()
	c.charts++
	c.mu.Unlock()
	return c.stubEphemeris.ComputeChart(ctx, b)
}

type memStore struct {
	runs    map[string]*models.PredictionResult
	saveErr error
}

func newMemStore() *memStore { return &memStore{runs: map[string]*models.PredictionResult{}} }

func (m *memStore) Init(context.Context) error { return nil }

func (m *memStore) SaveRun(_ context.Context, run *models.PredictionResult) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.runs[run.RunID] = run
	return nil
}

func (m *memStore) GetRun(_ context.Context, id string) (*models.PredictionResult, error) {
	if r, ok := m.runs[id]; ok {
		return r, nil
	}
	return nil, models.ErrRunNotFound
}

func (m *memStore) Health(context.Context) error { return nil }
func (m *memStore) Close() error { return nil }

type recordingPublisher struct {
	runID  string
	events int
}

func (p *recordingPublisher) PublishEvents(_ context.Context, runID string, events []models.EventRecord) error {
	p.runID = runID
	p.events = len(events)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

type countingMetrics struct {
	outcomes     map[string]int
	events       int
	degradations []string
	errors       []string
}

func newCountingMetrics() *countingMetrics { return &countingMetrics{outcomes: map[string]int{}} }

func (m *countingMetrics) RecordPrediction(o string) { m.outcomes[o]++ }
func (m *countingMetrics) RecordEvents(n int) { m.events += n }
func (m *countingMetrics) RecordDegradation(k string) { m.degradations = append(m.degradations, k) }
func (m *countingMetrics) RecordError(k string) { m.errors = append(m.errors, k) }
func (m *countingMetrics) RecordLatency(string, float64) {}

func intPtr(v int) *int { return &v }

func testRequest() models.PredictionRequest {
	return models.PredictionRequest{
		Birth:          testBirth(),
		StartDate:      "2025-01-01",
		EndDate:        "2025-03-01",
		MinProbability: intPtr(60),
		RequestID:      "req-1",
	}
}

func TestPredictionService_PersistsAndPublishes(t *testing.T) {
	store := newMemStore()
	pub := &recordingPublisher{}
	met := newCountingMetrics()
	svc := NewPredictionService(NewPredictor(newStubEphemeris()),
		WithEventStore(store), WithEventPublisher(pub), WithServiceMetrics(met))

	res, err := svc.Predict(context.Background(), testRequest())
	require.NoError(t, err)
	require.NotEmpty(t, res.RunID)
	require.NotEmpty(t, res.Events)
	assert.Equal(t, 60, res.MinProbability)
	assert.Equal(t, "2025-01-01", res.Window.Start.Format(dateLayout))

	assert.Contains(t, store.runs, res.RunID)
	assert.Equal(t, res.RunID, pub.runID)
	assert.Equal(t, len(res.Events), pub.events)
	assert.Equal(t, 1, met.outcomes["ok"])
	assert.Equal(t, len(res.Events), met.events)
	assert.Contains(t, met.degradations, string(models.DegradationJaimini))

	got, err := svc.Get(context.Background(), res.RunID)
	require.NoError(t, err)
	assert.Equal(t, res.RunID, got.RunID)
}

func TestPredictionService_CachesByRequest(t *testing.T) {
	eph := &countingEphemeris{stubEphemeris: newStubEphemeris()}
	cache := pkgcache.NewMemoryCache()
	defer cache.Close()
	met := newCountingMetrics()
	svc := NewPredictionService(NewPredictor(eph), WithResultCache(cache, 0), WithServiceMetrics(met))

	first, err := svc.Predict(context.Background(), testRequest())
	require.NoError(t, err)

	req := testRequest()
	req.RequestID = "req-2"
	second, err := svc.Predict(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, 1, eph.charts)
	assert.Equal(t, first.RunID, second.RunID)
	assert.Len(t, second.Events, len(first.Events))
	assert.Equal(t, 1, met.outcomes["cached"])

	byID, err := svc.Get(context.Background(), first.RunID)
	require.NoError(t, err)
	assert.Equal(t, first.RunID, byID.RunID)
}

func TestPredictionService_StoreFailureDoesNotFailRun(t *testing.T) {
	store := newMemStore()
	store.saveErr = errors.New("disk full")
	met := newCountingMetrics()
	svc := NewPredictionService(NewPredictor(newStubEphemeris()), WithEventStore(store), WithServiceMetrics(met))

	res, err := svc.Predict(context.Background(), testRequest())
	require.NoError(t, err)
	assert.NotEmpty(t, res.Events)
	assert.Equal(t, []string{"store"}, met.errors)
}

func TestParseRequest_MinProbability(t *testing.T) {
	req := testRequest()
	req.MinProbability = nil
	params, err := ParseRequest(req, 45)
	require.NoError(t, err)
	assert.Equal(t, 45, params.MinProbability)

	req.MinProbability = intPtr(0)
	params, err = ParseRequest(req, 45)
	require.NoError(t, err)
	assert.Equal(t, 0, params.MinProbability)
}

func TestPredictionService_ConfiguredDefaultFloor(t *testing.T) {
	store := newMemStore()
	svc := NewPredictionService(NewPredictor(newStubEphemeris()), WithEventStore(store), WithDefaultMinProbability(75))

	req := testRequest()
	req.MinProbability = nil
	res, err := svc.Predict(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 75, res.MinProbability)
	for _, e := range res.Events {
		assert.GreaterOrEqual(t, e.Probability, 75)
	}
}

func TestPredictionService_InvalidRequests(t *testing.T) {
	met := newCountingMetrics()
	svc := NewPredictionService(NewPredictor(newStubEphemeris()), WithServiceMetrics(met))

	req := testRequest()
	req.StartDate = "01/01/2025"
	_, err := svc.Predict(context.Background(), req)
	assert.ErrorIs(t, err, models.ErrInvalidRange)

	req = testRequest()
	req.Birth.Timezone = ""
	_, err = svc.Predict(context.Background(), req)
	assert.ErrorIs(t, err, models.ErrInvalidBirth)
	assert.True(t, models.IsValidation(err))
	assert.Equal(t, 2, met.outcomes["invalid"])
}

func TestPredictionService_ChartFailure(t *testing.T) {
	eph := newStubEphemeris()
	eph.chartErr = errors.New("connection refused")
	met := newCountingMetrics()
	svc := NewPredictionService(NewPredictor(eph), WithServiceMetrics(met))

	_, err := svc.Predict(context.Background(), testRequest())
	assert.ErrorIs(t, err, models.ErrEphemerisUnavailable)
	assert.Equal(t, 1, met.outcomes["ephemeris_unavailable"])
}

func TestPredictionService_GetUnknown(t *testing.T) {
	svc := NewPredictionService(NewPredictor(newStubEphemeris()), WithEventStore(newMemStore()))

	_, err := svc.Get(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, models.ErrRunNotFound)
	_, err = svc.Get(context.Background(), "0b5d1f0e-8f7d-4a57-9a3f-1c1f6f3b2a10")
	assert.ErrorIs(t, err, models.ErrRunNotFound)
}

func TestPredictionService_Stream(t *testing.T) {
	svc := NewPredictionService(NewPredictor(newStubEphemeris()))

	var ids []string
	res, err := svc.Stream(context.Background(), testRequest(), func(ev models.EventRecord) error {
		ids = append(ids, ev.ID)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, ids, len(res.Events))
	for i, ev := range res.Events {
		assert.Equal(t, ev.ID, ids[i])
	}

	stop := errors.New("client gone")
	_, err = svc.Stream(context.Background(), testRequest(), func(models.EventRecord) error { return stop })
	assert.ErrorIs(t, err, stop)
}
