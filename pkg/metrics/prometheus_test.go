package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecorder_DegradationLabels(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewWithRegistry(reg)

	r.RecordDegradation("dates_skipped:4")
	r.RecordDegradation("dates_skipped:9")
	r.RecordDegradation("jaimini_unavailable")
	r.RecordEvents(3)
	r.RecordEvents(0)
	r.RecordPrediction("ok")

	assert.Equal(t, 2.0, testutil.ToFloat64(r.degradations.WithLabelValues("dates_skipped")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.degradations.WithLabelValues("jaimini_unavailable")))
	assert.Equal(t, 3.0, testutil.ToFloat64(r.events))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.predictions.WithLabelValues("ok")))
}
