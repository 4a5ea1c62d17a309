package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Horacle/internal/domain/models"
)

func sampleRun(n int) *models.PredictionResult {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	run := &models.PredictionResult{
		RunID:          "0b7c8f6e-1f4e-4c1a-9b58-3c1f0f3c9a11",
		Birth:          models.Birth{Date: "1990-05-15", Time: "10:30", Latitude: 28.6, Longitude: 77.2, Timezone: "Asia/Kolkata"},
		Window:         models.Window{Start: start, End: start.AddDate(0, 2, 0)},
		MinProbability: 60,
		Degradations:   []models.Degradation{models.DegradationNadi, models.DatesSkipped(2)},
		GeneratedAt:    time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC),
	}
	for i := 0; i < n; i++ {
		peak := start.AddDate(0, 0, i)
		run.Events = append(run.Events, models.EventRecord{
			ID:                   "ev-" + models.Ordinal(i+1),
			EventType:            "marriage",
			House:                7,
			Probability:          70 + i%20,
			ParashariProbability: 65,
			Nature:               models.NaturePositive,
			Quality:              models.QualityPositive,
			StartDate:            peak.AddDate(0, 0, -30),
			PeakDate:             peak,
			EndDate:              peak.AddDate(0, 0, 30),
			Trigger:              models.Trigger{Planet: models.Jupiter, Kind: models.TriggerConjunction, House: 7, OrbWeight: 1.5},
			Certainty:            models.CertaintyUnknown,
			TimingPrecision:      models.PrecisionBroad,
			DoubleLock:           i%2 == 0,
			AccuracyRange:        "85-92%",
			SupportingHouses:     []int{2, 11},
		})
	}
	return run
}

func newTestSQLite(t *testing.T) *sqlEventStore {
	t.Helper()
	st, err := NewSQLiteEventStore(filepath.Join(t.TempDir(), "nested", "events.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.Init(context.Background()))
	return st.(*sqlEventStore)
}

func TestSQLiteEventStore_RoundTrip(t *testing.T) {
	st := newTestSQLite(t)
	ctx := context.Background()
	run := sampleRun(3)

	require.NoError(t, st.SaveRun(ctx, run))
	got, err := st.GetRun(ctx, run.RunID)
	require.NoError(t, err)

	if diff := cmp.Diff(run, got); diff != "" {
		t.Fatalf("run mismatch (-want +got):\n%s", diff)
	}

	var doubles int
	require.NoError(t, st.db.QueryRow(`SELECT COUNT(*) FROM prediction_events WHERE double_lock = 1`).Scan(&doubles))
	assert.Equal(t, 2, doubles)
}

func TestSQLiteEventStore_ChunksLargeRuns(t *testing.T) {
	st := newTestSQLite(t)
	ctx := context.Background()
	run := sampleRun(chunkSize + 7)

	require.NoError(t, st.SaveRun(ctx, run))
	got, err := st.GetRun(ctx, run.RunID)
	require.NoError(t, err)
	require.Len(t, got.Events, chunkSize+7)
	assert.Equal(t, run.Events[chunkSize].ID, got.Events[chunkSize].ID)
}

func TestSQLiteEventStore_EmptyRunKeepsEmptySlice(t *testing.T) {
	st := newTestSQLite(t)
	ctx := context.Background()
	run := sampleRun(0)

	require.NoError(t, st.SaveRun(ctx, run))
	got, err := st.GetRun(ctx, run.RunID)
	require.NoError(t, err)
	assert.NotNil(t, got.Events)
	assert.Empty(t, got.Events)
}

func TestSQLiteEventStore_DuplicateRunIsAtomic(t *testing.T) {
	st := newTestSQLite(t)
	ctx := context.Background()
	run := sampleRun(2)

	require.NoError(t, st.SaveRun(ctx, run))
	assert.Error(t, st.SaveRun(ctx, run))

	var events int
	require.NoError(t, st.db.QueryRow(`SELECT COUNT(*) FROM prediction_events`).Scan(&events))
	assert.Equal(t, 2, events)
}

func TestSQLiteEventStore_NotFound(t *testing.T) {
	st := newTestSQLite(t)
	_, err := st.GetRun(context.Background(), "missing")
	assert.ErrorIs(t, err, models.ErrRunNotFound)
	assert.NoError(t, st.Health(context.Background()))
}

func TestSaveRun_RequiresRunID(t *testing.T) {
	st := newTestSQLite(t)
	assert.Error(t, st.SaveRun(context.Background(), &models.PredictionResult{}))
	assert.Error(t, st.SaveRun(context.Background(), nil))
}
